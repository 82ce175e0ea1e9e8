package sap

import "errors"

// Scope owns a set of entries and child scopes. Disposing a scope removes
// every entry it owns and disposes its children, depth-first. Scopes mirror
// the lifetime of whatever created the entries, e.g. one component instance.
type Scope struct {
	Name   string
	Parent *Scope

	e        *Engine
	owned    []PropertyID
	children []*Scope
	disposed bool
}

// NewScope creates an empty root scope on e.
func (e *Engine) NewScope(name string) *Scope {
	return &Scope{Name: name, e: e}
}

// Own adds id to the scope. Owning an id twice is a no-op.
// Panics if the scope has been disposed.
func (s *Scope) Own(id PropertyID) {
	if s.disposed {
		panic("sap: Own on disposed scope " + s.Name)
	}
	for _, o := range s.owned {
		if o == id {
			return
		}
	}
	s.owned = append(s.owned, id)
}

// Owned returns the owned ids. The returned slice MUST NOT be mutated by the caller.
func (s *Scope) Owned() []PropertyID { return s.owned }

// AddChild attaches child to s. If child already has a parent, it is detached
// from it first. Panics if child is nil, belongs to another engine, or is an
// ancestor of s.
func (s *Scope) AddChild(child *Scope) {
	if child == nil {
		panic("sap: cannot add nil scope")
	}
	if child.e != s.e {
		panic("sap: scope belongs to another engine")
	}
	if s.disposed || child.disposed {
		panic("sap: AddChild on disposed scope")
	}
	for p := s; p != nil; p = p.Parent {
		if p == child {
			panic("sap: adding scope would create a cycle")
		}
	}
	if child.Parent != nil {
		child.Parent.removeChild(child)
	}
	child.Parent = s
	s.children = append(s.children, child)
}

// NewChild creates a scope and attaches it to s.
func (s *Scope) NewChild(name string) *Scope {
	c := s.e.NewScope(name)
	s.AddChild(c)
	return c
}

// RemoveChild detaches child from s without disposing it.
// Panics if child.Parent != s.
func (s *Scope) RemoveChild(child *Scope) {
	if child.Parent != s {
		panic("sap: scope's parent is not this scope")
	}
	s.removeChild(child)
	child.Parent = nil
}

// Children returns the child scopes. The returned slice MUST NOT be mutated by the caller.
func (s *Scope) Children() []*Scope { return s.children }

// Dispose detaches s from its parent, disposes its children and removes every
// entry it owns. Entries already removed elsewhere are skipped. Other errors
// are joined and returned; disposal continues past them.
func (s *Scope) Dispose() error {
	if s.disposed {
		return nil
	}
	if s.Parent != nil {
		s.Parent.removeChild(s)
		s.Parent = nil
	}
	return s.dispose()
}

func (s *Scope) dispose() error {
	s.disposed = true
	var errs []error
	for _, child := range s.children {
		child.Parent = nil
		if err := child.dispose(); err != nil {
			errs = append(errs, err)
		}
	}
	s.children = nil
	// Dependents first, so removal never dirties an entry about to go.
	for i := len(s.owned) - 1; i >= 0; i-- {
		id := s.owned[i]
		if !s.e.Exists(id) {
			continue
		}
		if err := s.e.Remove(id); err != nil {
			errs = append(errs, err)
		}
	}
	s.owned = nil
	return errors.Join(errs...)
}

// IsDisposed reports whether Dispose has run.
func (s *Scope) IsDisposed() bool { return s.disposed }

func (s *Scope) removeChild(child *Scope) {
	for i, c := range s.children {
		if c == child {
			copy(s.children[i:], s.children[i+1:])
			s.children[len(s.children)-1] = nil
			s.children = s.children[:len(s.children)-1]
			return
		}
	}
}

// RunInScope runs f with s as the current scope: every entry inserted while f
// runs, on any handle, is owned by s. Calls nest; the innermost scope wins.
func (e *Engine) RunInScope(s *Scope, f func()) {
	if s.e != e {
		panic("sap: scope belongs to another engine")
	}
	e.scopes = append(e.scopes, s)
	defer func() { e.scopes = e.scopes[:len(e.scopes)-1] }()
	f()
}

// CurrentScope returns the innermost scope entered with RunInScope, or nil.
func (e *Engine) CurrentScope() *Scope {
	if len(e.scopes) == 0 {
		return nil
	}
	return e.scopes[len(e.scopes)-1]
}
