// Package ecs provides ECS adapters for canopy's window lifecycle events.
//
// The primary adapter is [NewDonburiSink], which forwards window lifecycle
// notifications (will activate, activated, will deactivate, deactivated, top
// changed) into a [Donburi] world as typed events. Subscribe to
// [WindowEventType] in your ECS systems to receive them.
//
// Usage:
//
//	sink := ecs.NewDonburiSink(world)
//	manager.SetEventSink(sink)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
