package ecs

import (
	"testing"

	"github.com/phanxgames/canopy"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

func TestNewDonburiSink(t *testing.T) {
	world := donburi.NewWorld()
	sink := NewDonburiSink(world)
	if sink == nil {
		t.Fatal("NewDonburiSink returned nil")
	}
}

func TestDonburiSink_EmitWindowEvent(t *testing.T) {
	world := donburi.NewWorld()
	sink := NewDonburiSink(world)

	var received []canopy.WindowEvent
	WindowEventType.Subscribe(world, func(w donburi.World, e canopy.WindowEvent) {
		received = append(received, e)
	})

	sink.EmitWindowEvent(canopy.WindowEvent{
		Type:     canopy.EventWillActivate,
		WindowID: "inventory",
		LayerID:  "main",
	})
	sink.EmitWindowEvent(canopy.WindowEvent{
		Type:     canopy.EventTopChanged,
		WindowID: "inventory",
		LayerID:  "main",
	})

	if len(received) != 0 {
		t.Fatalf("events delivered before ProcessEvents: %d", len(received))
	}

	// Events are queued; process them.
	WindowEventType.ProcessEvents(world)

	if len(received) != 2 {
		t.Fatalf("expected 2 events, got %d", len(received))
	}
	if received[0].Type != canopy.EventWillActivate || received[0].WindowID != "inventory" {
		t.Errorf("event 0: %+v", received[0])
	}
	if received[1].Type != canopy.EventTopChanged || received[1].LayerID != "main" {
		t.Errorf("event 1: %+v", received[1])
	}
}

func TestDonburiSink_ImplementsEventSink(t *testing.T) {
	world := donburi.NewWorld()
	var sink canopy.EventSink = NewDonburiSink(world)
	_ = sink // compile-time interface check
}

func TestDonburiSink_ManagerLifecycle(t *testing.T) {
	world := donburi.NewWorld()

	m, err := canopy.NewManager(canopy.Config{DefaultLayer: "main"})
	if err != nil {
		t.Fatal(err)
	}
	m.SetEventSink(NewDonburiSink(world))

	w, err := canopy.NewNodeWindow("hud", canopy.NewRect("hud", 10, 10, canopy.ColorWhite))
	if err != nil {
		t.Fatal(err)
	}
	if err := m.RegisterWindow(w, "hud"); err != nil {
		t.Fatal(err)
	}
	w.Transition = &canopy.TransitionSpec{Kind: canopy.TransitionNone}

	var types []canopy.WindowEventType
	WindowEventType.Subscribe(world, func(_ donburi.World, e canopy.WindowEvent) {
		if e.WindowID != "hud" {
			t.Errorf("unexpected window %q", e.WindowID)
		}
		types = append(types, e.Type)
	})

	if err := m.ShowWindow("hud"); err != nil {
		t.Fatal(err)
	}
	events.ProcessAllEvents(world)

	want := []canopy.WindowEventType{canopy.EventWillActivate, canopy.EventActivated, canopy.EventTopChanged}
	if len(types) != len(want) {
		t.Fatalf("got %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("event %d = %v, want %v", i, types[i], want[i])
		}
	}
}

func TestDonburiSink_MultipleSubscribers(t *testing.T) {
	world := donburi.NewWorld()
	sink := NewDonburiSink(world)

	var count1, count2 int
	WindowEventType.Subscribe(world, func(w donburi.World, e canopy.WindowEvent) {
		count1++
	})
	WindowEventType.Subscribe(world, func(w donburi.World, e canopy.WindowEvent) {
		count2++
	})

	sink.EmitWindowEvent(canopy.WindowEvent{Type: canopy.EventDeactivated, WindowID: "map"})
	events.ProcessAllEvents(world)

	if count1 != 1 || count2 != 1 {
		t.Errorf("expected both subscribers called once, got %d and %d", count1, count2)
	}
}
