package sap

import (
	"slices"
)

// SubscriptionID identifies a callback registered with Subscribe.
type SubscriptionID uint64

type subscription struct {
	id SubscriptionID
	fn func()
}

// notification is a subscription collected during a dirty walk and invoked
// once the walk's window has closed.
type notification struct {
	id  PropertyID
	sub SubscriptionID
	fn  func()
}

// Change describes one entry touched by a write: either the written entry
// itself or an expression that became dirty because of it.
type Change struct {
	ID   PropertyID
	Name string
	Kind Kind
	Tick uint64
}

// ChangeSink receives a Change for every entry touched by a write. Sinks are
// called after the write's dirty walk has finished, so they may read the store.
type ChangeSink interface {
	EmitChange(c Change)
}

// SetChangeSink installs the sink that receives change events. Pass nil to
// remove it.
func (e *Engine) SetChangeSink(sink ChangeSink) {
	e.sink = sink
}

// Subscribe registers fn to run after every write that reaches the entry: each
// set of a literal or the clock, and each transition of an expression from
// clean to dirty. fn runs outside the store's mutation window and may freely
// read and write properties.
func (e *Engine) Subscribe(id PropertyID, fn func()) (SubscriptionID, error) {
	ent, err := e.lookup("subscribe", id)
	if err != nil {
		return 0, err
	}
	if fn == nil {
		return 0, ent.err("subscribe", ErrInvalidEntry, "nil callback")
	}
	e.nextSub++
	ent.subs = append(ent.subs, subscription{id: e.nextSub, fn: fn})
	if e.debug {
		debugCheckFanOut(e, ent)
	}
	return e.nextSub, nil
}

// Unsubscribe removes a subscription. Removing an unknown subscription is a
// no-op; a stale entry id is an error.
func (e *Engine) Unsubscribe(id PropertyID, sub SubscriptionID) error {
	ent, err := e.lookup("unsubscribe", id)
	if err != nil {
		return err
	}
	ent.subs = slices.DeleteFunc(ent.subs, func(s subscription) bool { return s.id == sub })
	return nil
}

func (ent *entry) subscribed(sub SubscriptionID) bool {
	for _, s := range ent.subs {
		if s.id == sub {
			return true
		}
	}
	return false
}

// propagate runs the dirty walk from a freshly written entry inside a mutation
// window, then dispatches the collected notifications.
func (e *Engine) propagate(op string, src *entry) error {
	if err := e.enter(op, src.id); err != nil {
		return err
	}
	pending := e.markDirty(src)
	e.exit()
	e.dispatch(pending)
	return nil
}

// markDirty walks the outbound closure of src breadth-first. An expression
// that is not yet dirty is marked and its own outbound edges are queued; an
// expression that is already dirty ends the branch, because its dependents
// were dirtied when it was. Each entry is therefore expanded at most once per
// walk, even in diamond-shaped graphs.
//
// The returned notifications cover src's subscriptions and those of every
// newly dirtied entry, in walk order. Must be called inside a window.
func (e *Engine) markDirty(src *entry) []notification {
	var pending []notification
	collect := func(ent *entry) {
		for _, s := range ent.subs {
			pending = append(pending, notification{id: ent.id, sub: s.id, fn: s.fn})
		}
	}
	touched := []*entry{src}
	collect(src)

	queue := []*entry{src}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		e.stats.Expansions++
		for _, out := range cur.outbound {
			dst := e.slots.get(out)
			if dst == nil || dst.kind != KindExpression || dst.dirty {
				continue
			}
			dst.dirty = true
			e.stats.DirtyMarks++
			touched = append(touched, dst)
			collect(dst)
			queue = append(queue, dst)
		}
	}

	if e.sink != nil {
		// Changes are delivered with the notifications, after the window.
		for _, ent := range touched {
			c := Change{ID: ent.id, Name: ent.name, Kind: ent.kind, Tick: e.now}
			pending = append(pending, notification{id: ent.id, fn: func() { e.sink.EmitChange(c) }})
		}
	}
	return pending
}

// dispatch invokes collected notifications. A subscription removed by an
// earlier callback in the same batch is skipped.
func (e *Engine) dispatch(pending []notification) {
	for _, n := range pending {
		if n.sub != 0 {
			ent := e.slots.get(n.id)
			if ent == nil || !ent.subscribed(n.sub) {
				continue
			}
			e.stats.Notifications++
		}
		n.fn()
	}
}

// refresh recomputes a dirty expression. The evaluator runs outside any
// window; it reads its inputs through their handles, which refresh them in
// turn. The dirty flag is cleared before the evaluator runs, so a write that
// reaches the entry during evaluation re-dirties it and the next read
// recomputes again.
func (e *Engine) refresh(id PropertyID) error {
	ent, err := e.lookup("get", id)
	if err != nil {
		return err
	}
	if ent.evaluating {
		return ent.err("get", ErrBorrowConflict, "read of an entry while its evaluator runs (dependency cycle?)")
	}
	if ent.kind != KindExpression || !ent.dirty {
		return nil
	}
	if ent.borrow != 0 {
		return ent.err("get", ErrBorrowConflict, "entry is borrowed")
	}

	ent.dirty = false
	ent.evaluating = true
	ok := false
	defer func() {
		ent.evaluating = false
		if !ok {
			ent.dirty = true
		}
	}()

	out, err := evaluate(ent)
	if err != nil {
		return err
	}
	if e.slots.get(id) != ent {
		return opError("get", id, ErrMissingEntry, "entry removed by its own evaluator")
	}
	ent.value = out
	e.stats.Recomputes++
	ok = true
	return nil
}

// evaluate runs ent's evaluator. Handle reads inside it panic on failure; a
// *PropertyError raised that way comes back as an error on ent. Other panics
// propagate.
func evaluate(ent *entry) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			pe, ok := r.(*PropertyError)
			if !ok {
				panic(r)
			}
			err = ent.err("get", pe.Err, "reading input: "+pe.Error())
		}
	}()
	return ent.eval(), nil
}

// ReplaceWith turns old into an expression that mirrors target while keeping
// old's dependents and subscriptions. old's previous inputs, value source and
// any transition queue are dropped. It is the only operation that rewires
// existing edges, so it is the only one that checks for cycles: target may not
// be old nor depend on old.
func ReplaceWith[T any](e *Engine, old, target PropertyID) error {
	ent, err := e.lookup("replace", old)
	if err != nil {
		return err
	}
	tgt, err := e.lookup("replace", target)
	if err != nil {
		return err
	}
	if ent.kind == KindTime {
		return ent.err("replace", ErrNotSettable, "the clock is engine-owned")
	}
	if _, err := typed[T](ent, "replace"); err != nil {
		return err
	}
	if _, err := typed[T](tgt, "replace"); err != nil {
		return err
	}
	if ent.borrow != 0 || ent.evaluating {
		return ent.err("replace", ErrBorrowConflict, "entry is borrowed")
	}
	if old == target || e.reaches(old, target) {
		return ent.err("replace", ErrCycle, "target depends on the replaced entry")
	}

	if err := e.enter("replace", old); err != nil {
		return err
	}
	for _, dep := range ent.inbound {
		if src := e.slots.get(dep); src != nil {
			src.outbound = slices.DeleteFunc(src.outbound, func(o PropertyID) bool { return o == old })
		}
	}
	if ent.transition != nil {
		ent.transition = nil
		e.transitioning = slices.DeleteFunc(e.transitioning, func(t PropertyID) bool { return t == old })
	}
	ent.kind = KindExpression
	ent.inbound = []PropertyID{target}
	ent.depth = tgt.depth + 1
	tgt.outbound = append(tgt.outbound, old)
	ent.eval = func() any {
		v, err := WithValue(e, target, func(p *T) T { return *p })
		if err != nil {
			panic(err)
		}
		return &v
	}
	ent.dirty = false
	pending := e.markDirty(ent)
	ent.dirty = true
	e.exit()

	e.dispatch(pending)
	return nil
}
