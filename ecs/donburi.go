package ecs

import (
	"github.com/phanxgames/canopy"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// WindowEventType is the Donburi event type for canopy window lifecycle
// events. Events are queued until the world processes them.
var WindowEventType = events.NewEventType[canopy.WindowEvent]()

type donburiSink struct {
	world donburi.World
}

// NewDonburiSink creates an EventSink backed by a Donburi world. Lifecycle
// events are published to WindowEventType and can be consumed with
// events.Subscribe and ProcessEvents.
func NewDonburiSink(world donburi.World) canopy.EventSink {
	return &donburiSink{world: world}
}

func (s *donburiSink) EmitWindowEvent(event canopy.WindowEvent) {
	WindowEventType.Publish(s.world, event)
}
