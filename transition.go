package sap

import (
	"errors"
	"slices"
)

// segment is one timed leg of a transition: blend from the queue's checkpoint
// to end over duration ticks, shaped by curve.
type segment[T any] struct {
	duration uint64
	curve    Curve
	end      T
}

// transitioner is the type-erased view of a transition queue the scheduler
// drives on every clock advance.
type transitioner interface {
	step(e *Engine, now uint64) error
	finished() bool
	pending() int
}

// transitionQueue animates one literal entry. checkpoint is the value the
// front segment starts from and origin is the tick it started at.
type transitionQueue[T any] struct {
	id         PropertyID
	queue      []segment[T]
	checkpoint T
	origin     uint64
}

func (q *transitionQueue[T]) finished() bool { return len(q.queue) == 0 }

func (q *transitionQueue[T]) pending() int { return len(q.queue) }

// advance fast-forwards past every segment that ended strictly before now and
// reports the value for now. done is true when the queue drained during this
// call; the returned value is then the last segment's end.
func (q *transitionQueue[T]) advance(now uint64) (v T, ok, done bool) {
	if len(q.queue) == 0 {
		return v, false, false
	}
	var elapsed uint64
	if now > q.origin {
		elapsed = now - q.origin
	}
	for len(q.queue) > 0 && elapsed > q.queue[0].duration {
		seg := q.queue[0]
		q.queue = q.queue[1:]
		q.origin += seg.duration
		elapsed -= seg.duration
		q.checkpoint = seg.end
	}
	if len(q.queue) == 0 {
		return q.checkpoint, true, true
	}

	seg := q.queue[0]
	progress := 1.0
	if seg.duration > 0 {
		progress = float64(elapsed) / float64(seg.duration)
	}
	return Interpolate(q.checkpoint, seg.end, seg.curve(progress)), true, false
}

func (q *transitionQueue[T]) step(e *Engine, now uint64) error {
	v, ok, _ := q.advance(now)
	if !ok {
		return nil
	}
	ent, err := e.lookup("set_time", q.id)
	if err != nil {
		return err
	}
	return writeValue(e, ent, v, "set_time")
}

// queueSegment queues seg on a literal entry. With overwrite, pending segments
// are dropped and the new one starts from the entry's current value at the
// current tick; a zero-length overwrite lands immediately. seg.end must have
// the same shape as the value it blends from.
func queueSegment[T any](e *Engine, id PropertyID, seg segment[T], overwrite bool) error {
	op := "ease_to_later"
	if overwrite {
		op = "ease_to"
	}
	ent, err := e.lookup(op, id)
	if err != nil {
		return err
	}
	if ent.kind != KindLiteral {
		return ent.err(op, ErrNotSettable, "transitions attach to literal entries only")
	}
	if ent.borrow != 0 {
		return ent.err(op, ErrBorrowConflict, "entry is borrowed")
	}
	p, err := typed[T](ent, op)
	if err != nil {
		return err
	}
	if seg.curve == nil {
		seg.curve = Linear
	}

	q, _ := ent.transition.(*transitionQueue[T])
	from := *p
	if q != nil && !overwrite && !q.finished() {
		from = q.queue[len(q.queue)-1].end
	}
	if pe := blendable(from, seg.end); pe != nil {
		return ent.err(op, ErrShapeMismatch, pe.Detail)
	}
	if q == nil {
		q = &transitionQueue[T]{id: id}
		ent.transition = q
		e.transitioning = append(e.transitioning, id)
	}
	if overwrite || q.finished() {
		q.queue = q.queue[:0]
		q.checkpoint = *p
		q.origin = e.now
	}

	if overwrite && seg.duration == 0 {
		q.checkpoint = seg.end
		return writeValue(e, ent, seg.end, op)
	}
	q.queue = append(q.queue, seg)
	return nil
}

// EaseTo abandons any pending transitions on a literal entry and starts a new
// one from its current value, reaching end after duration ticks.
func EaseTo[T any](e *Engine, id PropertyID, end T, duration uint64, curve Curve) error {
	return queueSegment(e, id, segment[T]{duration: duration, curve: curve, end: end}, true)
}

// EaseToLater appends a transition that starts once every queued transition
// on the entry has finished.
func EaseToLater[T any](e *Engine, id PropertyID, end T, duration uint64, curve Curve) error {
	return queueSegment(e, id, segment[T]{duration: duration, curve: curve, end: end}, false)
}

// SetTime advances the logical clock to tick. Queues that drained on an
// earlier advance are dropped first. The clock entry is then written, so
// expressions reading TimeID() are dirtied, and every active transition
// writes its value for tick, in the order the transitions were started.
//
// Transition writes are ordinary literal sets; subscribers fire for each.
func (e *Engine) SetTime(tick uint64) error {
	if e.advancing {
		return opError("set_time", e.timeID, ErrBorrowConflict, "clock advance already in progress")
	}
	e.advancing = true
	defer func() { e.advancing = false }()

	e.collectFinished()

	clock, err := e.lookup("set_time", e.timeID)
	if err != nil {
		return err
	}
	e.now = tick
	if err := writeValue(e, clock, tick, "set_time"); err != nil {
		return err
	}

	var errs []error
	for _, id := range slices.Clone(e.transitioning) {
		ent := e.slots.get(id)
		if ent == nil || ent.transition == nil {
			continue
		}
		if err := ent.transition.step(e, tick); err != nil {
			errs = append(errs, err)
		}
	}

	if e.debug {
		e.debugLogTick()
	}
	return errors.Join(errs...)
}

// collectFinished drops drained transition queues.
func (e *Engine) collectFinished() {
	e.transitioning = slices.DeleteFunc(e.transitioning, func(id PropertyID) bool {
		ent := e.slots.get(id)
		if ent == nil || ent.transition == nil {
			return true
		}
		if ent.transition.finished() {
			ent.transition = nil
			return true
		}
		return false
	})
}

// Transitioning returns the number of entries with queued transition segments.
func (e *Engine) Transitioning() int {
	n := 0
	for _, id := range e.transitioning {
		if ent := e.slots.get(id); ent != nil && ent.transition != nil && !ent.transition.finished() {
			n++
		}
	}
	return n
}

// PendingSegments returns how many segments are queued on the entry.
func (e *Engine) PendingSegments(id PropertyID) int {
	ent := e.slots.get(id)
	if ent == nil || ent.transition == nil {
		return 0
	}
	return ent.transition.pending()
}
