package ecs

import (
	"github.com/phanxgames/sap"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// ChangeEvent is a sap change as published into a Donburi world. Entity is
// donburi.Null for properties that are not tracked.
type ChangeEvent struct {
	sap.Change
	Entity donburi.Entity
}

// ChangeEventType is the Donburi event type for sap change events.
var ChangeEventType = events.NewEventType[ChangeEvent]()

// PropertyRef links an entity to the property that drives it.
var PropertyRef = donburi.NewComponentType[sap.PropertyID]()

// DonburiSink is a sap.ChangeSink backed by a Donburi world.
type DonburiSink struct {
	world    donburi.World
	entities map[sap.PropertyID]donburi.Entity
}

// NewDonburiSink creates a ChangeSink that publishes to ChangeEventType.
// Events are queued; consume them with ProcessEvents.
func NewDonburiSink(world donburi.World) *DonburiSink {
	return &DonburiSink{world: world, entities: make(map[sap.PropertyID]donburi.Entity)}
}

// Track associates id with entity, adding the PropertyRef component if the
// entity lacks it. Later changes to id carry the entity.
func (s *DonburiSink) Track(entity donburi.Entity, id sap.PropertyID) {
	entry := s.world.Entry(entity)
	if !entry.HasComponent(PropertyRef) {
		entry.AddComponent(PropertyRef)
	}
	donburi.SetValue(entry, PropertyRef, id)
	s.entities[id] = entity
}

// Untrack forgets id's entity. The component is left in place.
func (s *DonburiSink) Untrack(id sap.PropertyID) {
	delete(s.entities, id)
}

// EmitChange implements sap.ChangeSink. Changes of tracked properties whose
// entity has since been removed from the world are published with
// donburi.Null and the stale association is dropped.
func (s *DonburiSink) EmitChange(c sap.Change) {
	ent, ok := s.entities[c.ID]
	if ok && !s.world.Valid(ent) {
		delete(s.entities, c.ID)
		ent = donburi.Null
	}
	ChangeEventType.Publish(s.world, ChangeEvent{Change: c, Entity: ent})
}
