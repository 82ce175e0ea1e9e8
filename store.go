package sap

import (
	"fmt"
	"log/slog"
	"slices"
)

// Kind distinguishes how an entry gets its value.
type Kind uint8

const (
	KindLiteral    Kind = iota // set directly, may carry a transition queue
	KindExpression             // computed lazily from declared inbound entries
	KindTime                   // the engine's logical clock
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindExpression:
		return "expression"
	case KindTime:
		return "time"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// borrowExclusive marks an entry whose value is handed out for mutation.
const borrowExclusive = -1

// entry is one store slot's payload. value always holds a *T for the T the
// entry was created with.
type entry struct {
	id   PropertyID
	name string
	kind Kind

	value    any
	typeName string

	// Expression state
	eval       func() any // returns a fresh *T
	dirty      bool
	evaluating bool

	inbound  []PropertyID
	outbound []PropertyID
	subs     []subscription

	transition transitioner

	// depth is the longest inbound path at insertion time.
	depth int

	// borrow is >0 for shared borrows, borrowExclusive for an exclusive one.
	borrow int
}

// Engine owns the property store, the logical clock and the transition
// scheduler. All handles created against an Engine share its store. An Engine
// is single-threaded: it must not be used from more than one goroutine.
type Engine struct {
	slots arena

	// window names the store operation currently holding the store, or "" when
	// the store is free. User code never runs while window is set.
	window string

	timeID PropertyID
	now    uint64

	transitioning []PropertyID
	advancing     bool

	nextSub SubscriptionID

	scopes []*Scope

	sink   ChangeSink
	logger *slog.Logger
	debug  bool
	stats  Stats
}

// NewEngine creates an engine with its clock entry at tick zero.
func NewEngine() *Engine {
	e := &Engine{logger: discardLogger}
	var zero uint64
	e.timeID = e.slots.insert(&entry{
		name:     "time",
		kind:     KindTime,
		value:    &zero,
		typeName: "uint64",
	})
	return e
}

// enter claims the store for op. A nested claim means somebody re-entered the
// store from inside a mutation window, which is always a programming error.
func (e *Engine) enter(op string, id PropertyID) error {
	if e.window != "" {
		return opError(op, id, ErrBorrowConflict, "store busy in "+e.window)
	}
	e.window = op
	return nil
}

func (e *Engine) exit() { e.window = "" }

// lookup resolves id or returns a missing-entry error naming op.
func (e *Engine) lookup(op string, id PropertyID) (*entry, error) {
	ent := e.slots.get(id)
	if ent == nil {
		return nil, opError(op, id, ErrMissingEntry, "")
	}
	return ent, nil
}

func (ent *entry) err(op string, err error, detail string) *PropertyError {
	return &PropertyError{Op: op, ID: ent.id, Name: ent.name, Err: err, Detail: detail}
}

func typeNameOf[T any]() string {
	var p *T
	return fmt.Sprintf("%T", p)[1:]
}

// typed returns the entry's value pointer as *T.
func typed[T any](ent *entry, op string) (*T, error) {
	p, ok := ent.value.(*T)
	if !ok {
		return nil, ent.err(op, ErrTypeMismatch,
			fmt.Sprintf("entry holds %s, handle wants %s", ent.typeName, typeNameOf[T]()))
	}
	return p, nil
}

// Insert registers a new entry. For KindExpression, eval must be non-nil and
// initial must be the value eval produced (the handle layer seeds it by
// calling eval once before inserting), so the entry starts clean. Each inbound
// id gains the new id in its outbound set. KindTime cannot be inserted.
func Insert[T any](e *Engine, kind Kind, initial T, eval func() T, inbound []PropertyID) (PropertyID, error) {
	switch kind {
	case KindLiteral:
		if len(inbound) > 0 {
			return PropertyID{}, opError("insert", PropertyID{}, ErrInvalidEntry, "literal entries take no inbound ids")
		}
	case KindExpression:
		if eval == nil {
			return PropertyID{}, opError("insert", PropertyID{}, ErrInvalidEntry, "expression needs an evaluator")
		}
	default:
		return PropertyID{}, opError("insert", PropertyID{}, ErrInvalidEntry, "cannot insert "+kind.String()+" entries")
	}

	if err := e.enter("insert", PropertyID{}); err != nil {
		return PropertyID{}, err
	}

	deps := make([]PropertyID, 0, len(inbound))
	depth := 0
	for _, dep := range inbound {
		src := e.slots.get(dep)
		if src == nil {
			e.exit()
			return PropertyID{}, opError("insert", dep, ErrMissingEntry, "unknown inbound id")
		}
		if slices.Contains(deps, dep) {
			continue
		}
		deps = append(deps, dep)
		depth = max(depth, src.depth+1)
	}

	v := initial
	ent := &entry{
		kind:     kind,
		value:    &v,
		typeName: typeNameOf[T](),
		inbound:  deps,
		depth:    depth,
	}
	if eval != nil {
		ent.eval = func() any {
			out := eval()
			return &out
		}
	}
	id := e.slots.insert(ent)
	for _, dep := range deps {
		src := e.slots.get(dep)
		src.outbound = append(src.outbound, id)
	}
	e.stats.Inserts++
	e.exit()

	if len(e.scopes) > 0 {
		e.scopes[len(e.scopes)-1].Own(id)
	}
	if e.debug {
		e.debugCheckEntry(ent)
	}
	return id, nil
}

// WithValue brings the entry up to date and calls f with a pointer to its
// value under a shared borrow. f must treat the pointer as read-only; writes
// through it bypass dirty propagation.
func WithValue[T, V any](e *Engine, id PropertyID, f func(v *T) V) (V, error) {
	var zero V
	if err := e.refresh(id); err != nil {
		return zero, err
	}
	ent, err := e.lookup("get", id)
	if err != nil {
		return zero, err
	}
	if ent.borrow == borrowExclusive || ent.evaluating {
		return zero, ent.err("get", ErrBorrowConflict, "entry is being written or evaluated")
	}
	p, err := typed[T](ent, "get")
	if err != nil {
		return zero, err
	}
	e.stats.Reads++
	ent.borrow++
	defer func() { ent.borrow-- }()
	return f(p), nil
}

// WithValueMut calls f with a mutable pointer to the entry's value under an
// exclusive borrow, without refreshing first, then marks the entry's whole
// transitive subscriber closure dirty. The engine cannot tell whether f changed
// anything, so it always assumes it did.
func WithValueMut[T, V any](e *Engine, id PropertyID, f func(v *T) V) (V, error) {
	var zero V
	ent, err := e.lookup("mutate", id)
	if err != nil {
		return zero, err
	}
	if ent.kind != KindLiteral {
		return zero, ent.err("mutate", ErrNotSettable, ent.kind.String()+" entries are engine-computed")
	}
	if ent.borrow != 0 || ent.evaluating {
		return zero, ent.err("mutate", ErrBorrowConflict, "entry is already borrowed")
	}
	p, err := typed[T](ent, "mutate")
	if err != nil {
		return zero, err
	}
	ent.borrow = borrowExclusive
	res := func() V {
		defer func() { ent.borrow = 0 }()
		return f(p)
	}()
	e.stats.Sets++
	if err := e.propagate("mutate", ent); err != nil {
		return res, err
	}
	return res, nil
}

// SetValue writes a literal entry and propagates the change.
func SetValue[T any](e *Engine, id PropertyID, v T) error {
	ent, err := e.lookup("set", id)
	if err != nil {
		return err
	}
	if ent.kind != KindLiteral {
		return ent.err("set", ErrNotSettable, ent.kind.String()+" entries are engine-computed")
	}
	return writeValue(e, ent, v, "set")
}

// writeValue stores v into ent and propagates. Shared by literal sets, the
// clock and the transition scheduler.
func writeValue[T any](e *Engine, ent *entry, v T, op string) error {
	if ent.borrow != 0 || ent.evaluating {
		return ent.err(op, ErrBorrowConflict, "entry is borrowed")
	}
	p, err := typed[T](ent, op)
	if err != nil {
		return err
	}
	*p = v
	e.stats.Sets++
	return e.propagate(op, ent)
}

// Remove deletes an entry. Its dependents are dirtied first so their next read
// surfaces the missing input, then the entry is unlinked from both sides of
// every edge it takes part in and its slot is freed.
func (e *Engine) Remove(id PropertyID) error {
	ent, err := e.lookup("remove", id)
	if err != nil {
		return err
	}
	if ent.kind == KindTime {
		return ent.err("remove", ErrNotSettable, "the clock is engine-owned")
	}
	if ent.borrow != 0 || ent.evaluating {
		return ent.err("remove", ErrBorrowConflict, "entry is borrowed")
	}

	if err := e.enter("remove", id); err != nil {
		return err
	}
	pending := e.markDirty(ent)
	// The removed entry's own subscriptions must not fire.
	pending = slices.DeleteFunc(pending, func(n notification) bool { return n.id == id })

	for _, dep := range ent.inbound {
		if src := e.slots.get(dep); src != nil {
			src.outbound = slices.DeleteFunc(src.outbound, func(o PropertyID) bool { return o == id })
		}
	}
	for _, out := range ent.outbound {
		if dst := e.slots.get(out); dst != nil {
			dst.inbound = slices.DeleteFunc(dst.inbound, func(i PropertyID) bool { return i == id })
		}
	}
	if ent.transition != nil {
		ent.transition = nil
		e.transitioning = slices.DeleteFunc(e.transitioning, func(t PropertyID) bool { return t == id })
	}
	ent.subs = nil
	ent.inbound = nil
	ent.outbound = nil
	e.slots.remove(id)
	e.stats.Removes++
	e.exit()

	e.dispatch(pending)
	return nil
}

// Len returns the number of live entries, including the clock.
func (e *Engine) Len() int { return e.slots.live }

// Exists reports whether id refers to a live entry.
func (e *Engine) Exists(id PropertyID) bool { return e.slots.get(id) != nil }

// Kind returns the entry's kind.
func (e *Engine) Kind(id PropertyID) (Kind, error) {
	ent, err := e.lookup("kind", id)
	if err != nil {
		return 0, err
	}
	return ent.kind, nil
}

// IsDirty reports whether an expression entry is waiting to be recomputed.
func (e *Engine) IsDirty(id PropertyID) (bool, error) {
	ent, err := e.lookup("dirty", id)
	if err != nil {
		return false, err
	}
	return ent.dirty, nil
}

// Inbound returns a copy of the ids the entry reads from.
func (e *Engine) Inbound(id PropertyID) ([]PropertyID, error) {
	ent, err := e.lookup("inbound", id)
	if err != nil {
		return nil, err
	}
	return slices.Clone(ent.inbound), nil
}

// Outbound returns a copy of the ids that depend on the entry.
func (e *Engine) Outbound(id PropertyID) ([]PropertyID, error) {
	ent, err := e.lookup("outbound", id)
	if err != nil {
		return nil, err
	}
	return slices.Clone(ent.outbound), nil
}

// Name returns the entry's debug name, or "" if it has none.
func (e *Engine) Name(id PropertyID) string {
	if ent := e.slots.get(id); ent != nil {
		return ent.name
	}
	return ""
}

// SetName sets the entry's debug name, used in errors, logs and graph output.
func (e *Engine) SetName(id PropertyID, name string) error {
	ent, err := e.lookup("name", id)
	if err != nil {
		return err
	}
	ent.name = name
	return nil
}

// TimeID returns the clock entry's id. Expressions that read the clock should
// list it among their dependencies.
func (e *Engine) TimeID() PropertyID { return e.timeID }

// Time returns the current logical tick.
func (e *Engine) Time() uint64 { return e.now }
