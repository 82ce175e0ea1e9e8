package sap

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Dependency is anything that names a store entry: a Property of any type or
// a bare PropertyID.
type Dependency interface {
	ID() PropertyID
}

// ID returns id itself, so a PropertyID can be passed where a Dependency is
// expected.
func (id PropertyID) ID() PropertyID { return id }

// Property is a typed handle onto one store entry. It is a small value;
// copies refer to the same entry. The zero Property is unbound and panics
// (or returns ErrNoEngine) on use.
//
// Methods without the Try prefix panic with a *PropertyError where the Try
// variant would return one. Those failures are programmer errors: stale
// handles, reentrant access, writes to computed entries.
type Property[T any] struct {
	e  *Engine
	id PropertyID
}

// New creates a literal entry holding v.
func New[T any](e *Engine, v T) Property[T] {
	return NewNamed(e, "", v)
}

// NewNamed creates a literal entry with a debug name.
func NewNamed[T any](e *Engine, name string, v T) Property[T] {
	id, err := Insert[T](e, KindLiteral, v, nil, nil)
	if err != nil {
		panic(err)
	}
	if name != "" {
		e.slots.get(id).name = name
	}
	return Property[T]{e: e, id: id}
}

// Computed creates an expression entry. eval must read only the listed
// dependencies; the engine trusts the list and dirties the entry when any of
// them is written. eval runs once immediately to seed the value, then lazily
// on the first read after a dependency changes.
func Computed[T any](e *Engine, eval func() T, deps ...Dependency) Property[T] {
	return ComputedNamed(e, "", eval, deps...)
}

// ComputedNamed is Computed with a debug name.
func ComputedNamed[T any](e *Engine, name string, eval func() T, deps ...Dependency) Property[T] {
	if eval == nil {
		panic(opError("computed", PropertyID{}, ErrInvalidEntry, "nil evaluator"))
	}
	ids := make([]PropertyID, len(deps))
	for i, d := range deps {
		ids[i] = d.ID()
	}
	id, err := Insert(e, KindExpression, eval(), eval, ids)
	if err != nil {
		panic(err)
	}
	if name != "" {
		e.slots.get(id).name = name
	}
	return Property[T]{e: e, id: id}
}

// FromID returns a handle onto an existing entry. The type is checked on
// first access, not here.
func FromID[T any](e *Engine, id PropertyID) Property[T] {
	return Property[T]{e: e, id: id}
}

// TimeProperty returns a read-only handle onto the logical clock. Expressions
// that read it must list it as a dependency.
func (e *Engine) TimeProperty() Property[uint64] {
	return Property[uint64]{e: e, id: e.timeID}
}

// ID returns the entry id.
func (p Property[T]) ID() PropertyID { return p.id }

// Engine returns the engine the handle belongs to.
func (p Property[T]) Engine() *Engine { return p.e }

// Name returns the entry's debug name.
func (p Property[T]) Name() string {
	if p.e == nil {
		return ""
	}
	return p.e.Name(p.id)
}

// Exists reports whether the handle still refers to a live entry.
func (p Property[T]) Exists() bool { return p.e != nil && p.e.Exists(p.id) }

func (p Property[T]) bound(op string) error {
	if p.e == nil {
		return opError(op, p.id, ErrNoEngine, "")
	}
	return nil
}

// Get returns the current value, recomputing it first if it is stale.
func (p Property[T]) Get() T {
	v, err := p.TryGet()
	if err != nil {
		panic(err)
	}
	return v
}

// TryGet is Get returning the error instead of panicking.
func (p Property[T]) TryGet() (T, error) {
	if err := p.bound("get"); err != nil {
		var zero T
		return zero, err
	}
	return WithValue(p.e, p.id, func(v *T) T { return *v })
}

// Set writes a literal entry and dirties everything that depends on it.
func (p Property[T]) Set(v T) {
	if err := p.TrySet(v); err != nil {
		panic(err)
	}
}

// TrySet is Set returning the error instead of panicking.
func (p Property[T]) TrySet(v T) error {
	if err := p.bound("set"); err != nil {
		return err
	}
	return SetValue(p.e, p.id, v)
}

// Update mutates a literal entry in place. Dependents are dirtied whether or
// not f changed anything.
func (p Property[T]) Update(f func(v *T)) {
	if err := p.bound("mutate"); err != nil {
		panic(err)
	}
	_, err := WithValueMut(p.e, p.id, func(v *T) struct{} {
		f(v)
		return struct{}{}
	})
	if err != nil {
		panic(err)
	}
}

// Subscribe registers fn to run after every write that reaches the entry: each
// set of a literal or the clock, and each transition of a computed entry from
// clean to dirty. A computed entry that nobody reads stays dirty, so repeated
// writes upstream fire fn only once until the value is read again. fn is not
// called on registration.
func (p Property[T]) Subscribe(fn func()) SubscriptionID {
	if err := p.bound("subscribe"); err != nil {
		panic(err)
	}
	sub, err := p.e.Subscribe(p.id, fn)
	if err != nil {
		panic(err)
	}
	return sub
}

// Unsubscribe removes a subscription. Unknown subscriptions are ignored.
func (p Property[T]) Unsubscribe(sub SubscriptionID) {
	if err := p.bound("unsubscribe"); err != nil {
		panic(err)
	}
	if err := p.e.Unsubscribe(p.id, sub); err != nil {
		panic(err)
	}
}

// EaseTo abandons pending transitions and blends from the current value to
// v over duration ticks. A nil curve is Linear.
func (p Property[T]) EaseTo(v T, duration uint64, curve Curve) {
	if err := p.bound("ease_to"); err != nil {
		panic(err)
	}
	if err := EaseTo(p.e, p.id, v, duration, curve); err != nil {
		panic(err)
	}
}

// EaseToLater queues a transition to v that starts after every pending
// transition on the entry has finished.
func (p Property[T]) EaseToLater(v T, duration uint64, curve Curve) {
	if err := p.bound("ease_to_later"); err != nil {
		panic(err)
	}
	if err := EaseToLater(p.e, p.id, v, duration, curve); err != nil {
		panic(err)
	}
}

// ReplaceWith turns the entry into a mirror of target. Existing dependents and
// subscriptions stay attached. Panics with ErrCycle if target depends on the
// entry.
func (p Property[T]) ReplaceWith(target Property[T]) {
	if err := p.bound("replace"); err != nil {
		panic(err)
	}
	if target.e != p.e {
		panic(opError("replace", p.id, ErrInvalidEntry, "target belongs to another engine"))
	}
	if err := ReplaceWith[T](p.e, p.id, target.id); err != nil {
		panic(err)
	}
}

// Dispose removes the entry from the store. Later use of any handle onto it
// fails with ErrMissingEntry.
func (p Property[T]) Dispose() error {
	if err := p.bound("remove"); err != nil {
		return err
	}
	return p.e.Remove(p.id)
}

// MarshalJSON encodes the current value only; the graph is not serialized.
func (p Property[T]) MarshalJSON() ([]byte, error) {
	v, err := p.TryGet()
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// UnmarshalJSON decodes a value into a fresh literal entry in the handle's
// engine and rebinds the handle to it. The old entry is left untouched.
func (p *Property[T]) UnmarshalJSON(data []byte) error {
	if err := p.bound("unmarshal"); err != nil {
		return err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	return p.rebind(v)
}

// MarshalYAML encodes the current value only.
func (p Property[T]) MarshalYAML() (any, error) {
	v, err := p.TryGet()
	if err != nil {
		return nil, err
	}
	return v, nil
}

// UnmarshalYAML decodes like UnmarshalJSON.
func (p *Property[T]) UnmarshalYAML(node *yaml.Node) error {
	if err := p.bound("unmarshal"); err != nil {
		return err
	}
	var v T
	if err := node.Decode(&v); err != nil {
		return err
	}
	return p.rebind(v)
}

func (p *Property[T]) rebind(v T) error {
	id, err := Insert[T](p.e, KindLiteral, v, nil, nil)
	if err != nil {
		return err
	}
	p.id = id
	return nil
}

// Bind returns a handle on e with no entry yet, ready to be decoded into.
func Bind[T any](e *Engine) Property[T] { return Property[T]{e: e} }
