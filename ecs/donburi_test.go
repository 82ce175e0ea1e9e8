package ecs

import (
	"testing"

	"github.com/phanxgames/sap"

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

func TestDonburiSink_ImplementsChangeSink(t *testing.T) {
	world := donburi.NewWorld()
	var sink sap.ChangeSink = NewDonburiSink(world)
	_ = sink // compile-time interface check
}

func TestDonburiSink_PublishesWrites(t *testing.T) {
	world := donburi.NewWorld()
	e := sap.NewEngine()
	e.SetChangeSink(NewDonburiSink(world))

	width := sap.NewNamed(e, "width", 2.0)
	area := sap.ComputedNamed(e, "area", func() float64 { return width.Get() * width.Get() }, width)

	var received []ChangeEvent
	ChangeEventType.Subscribe(world, func(w donburi.World, ev ChangeEvent) {
		received = append(received, ev)
	})

	width.Set(3)

	// Events are queued until processed.
	if len(received) != 0 {
		t.Fatalf("expected no events before processing, got %d", len(received))
	}
	ChangeEventType.ProcessEvents(world)

	if len(received) != 2 {
		t.Fatalf("expected 2 events, got %d", len(received))
	}
	if received[0].ID != width.ID() || received[0].Kind != sap.KindLiteral || received[0].Name != "width" {
		t.Errorf("event 0: %+v", received[0])
	}
	if received[1].ID != area.ID() || received[1].Kind != sap.KindExpression {
		t.Errorf("event 1: %+v", received[1])
	}
	if received[0].Entity != donburi.Null {
		t.Errorf("untracked property should carry donburi.Null, got %v", received[0].Entity)
	}
	if got := area.Get(); got != 9 {
		t.Errorf("area = %v, want 9", got)
	}
}

func TestDonburiSink_TrackCarriesEntity(t *testing.T) {
	world := donburi.NewWorld()
	e := sap.NewEngine()
	sink := NewDonburiSink(world)
	e.SetChangeSink(sink)

	x := sap.New(e, 0.0)
	entity := world.Create()
	sink.Track(entity, x.ID())

	entry := world.Entry(entity)
	if !entry.HasComponent(PropertyRef) {
		t.Fatal("Track should add the PropertyRef component")
	}
	if got := *PropertyRef.Get(entry); got != x.ID() {
		t.Errorf("PropertyRef = %v, want %v", got, x.ID())
	}

	var got []donburi.Entity
	ChangeEventType.Subscribe(world, func(w donburi.World, ev ChangeEvent) {
		got = append(got, ev.Entity)
	})

	x.EaseTo(10, 2, sap.Linear)
	if err := e.SetTime(1); err != nil {
		t.Fatal(err)
	}
	events.ProcessAllEvents(world)

	// The clock write, then the transition write.
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0] != donburi.Null || got[1] != entity {
		t.Errorf("entities = %v, want [Null %v]", got, entity)
	}

	sink.Untrack(x.ID())
	x.Set(1)
	events.ProcessAllEvents(world)
	if got[2] != donburi.Null {
		t.Errorf("untracked event entity = %v, want Null", got[2])
	}
}

func TestDonburiSink_RemovedEntity(t *testing.T) {
	world := donburi.NewWorld()
	e := sap.NewEngine()
	sink := NewDonburiSink(world)
	e.SetChangeSink(sink)

	x := sap.New(e, 1)
	entity := world.Create(PropertyRef)
	sink.Track(entity, x.ID())
	world.Remove(entity)

	var got []ChangeEvent
	ChangeEventType.Subscribe(world, func(w donburi.World, ev ChangeEvent) {
		got = append(got, ev)
	})
	x.Set(2)
	ChangeEventType.ProcessEvents(world)

	if len(got) != 1 || got[0].Entity != donburi.Null {
		t.Errorf("events = %+v, want one event with Null entity", got)
	}
}

func TestDonburiSink_MultipleSubscribers(t *testing.T) {
	world := donburi.NewWorld()
	e := sap.NewEngine()
	e.SetChangeSink(NewDonburiSink(world))

	var count1, count2 int
	ChangeEventType.Subscribe(world, func(w donburi.World, ev ChangeEvent) {
		count1++
	})
	ChangeEventType.Subscribe(world, func(w donburi.World, ev ChangeEvent) {
		count2++
	})

	sap.New(e, 0).Set(1)
	events.ProcessAllEvents(world)

	if count1 != 1 || count2 != 1 {
		t.Errorf("expected both subscribers called once, got %d and %d", count1, count2)
	}
}
