// Package ecs provides ECS adapters for sap's change events.
//
// The primary adapter is [NewDonburiSink], which publishes every property
// change into a [Donburi] world as a typed event. Subscribe to
// [ChangeEventType] in your ECS systems to receive them.
//
// Usage:
//
//	sink := ecs.NewDonburiSink(world)
//	engine.SetChangeSink(sink)
//	sink.Track(entity, width.ID())
//
// Tracked properties are stored on their entity in the [PropertyRef]
// component, and their events carry the entity.
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
