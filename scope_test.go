package sap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunInScopeOwnsNewEntries(t *testing.T) {
	e := NewEngine()
	s := e.NewScope("panel")
	outside := New(e, 1)

	var a Property[int]
	var c Property[int]
	e.RunInScope(s, func() {
		a = New(e, 2)
		c = Computed(e, func() int { return a.Get() + outside.Get() }, a, outside)
	})
	assert.Equal(t, []PropertyID{a.ID(), c.ID()}, s.Owned())
	assert.Nil(t, e.CurrentScope())

	require.NoError(t, s.Dispose())
	assert.True(t, s.IsDisposed())
	assert.False(t, a.Exists())
	assert.False(t, c.Exists())
	assert.True(t, outside.Exists())

	out, err := e.Outbound(outside.ID())
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestNestedScopes(t *testing.T) {
	e := NewEngine()
	root := e.NewScope("root")
	child := root.NewChild("child")

	var inner, outer Property[int]
	e.RunInScope(root, func() {
		outer = New(e, 1)
		e.RunInScope(child, func() {
			assert.Same(t, child, e.CurrentScope())
			inner = New(e, 2)
		})
		assert.Same(t, root, e.CurrentScope())
	})
	assert.Equal(t, []PropertyID{outer.ID()}, root.Owned())
	assert.Equal(t, []PropertyID{inner.ID()}, child.Owned())

	require.NoError(t, root.Dispose())
	assert.True(t, child.IsDisposed())
	assert.False(t, inner.Exists())
	assert.False(t, outer.Exists())
}

func TestDisposeChildDetaches(t *testing.T) {
	e := NewEngine()
	root := e.NewScope("root")
	child := root.NewChild("child")
	p := New(e, 1)
	child.Own(p.ID())

	require.NoError(t, child.Dispose())
	assert.Empty(t, root.Children())
	assert.Nil(t, child.Parent)
	assert.False(t, p.Exists())
	assert.False(t, root.IsDisposed())

	// Second dispose is a no-op.
	assert.NoError(t, child.Dispose())
}

func TestScopeSkipsEntriesRemovedElsewhere(t *testing.T) {
	e := NewEngine()
	s := e.NewScope("s")
	p := New(e, 1)
	s.Own(p.ID())
	s.Own(p.ID())
	assert.Len(t, s.Owned(), 1)

	require.NoError(t, p.Dispose())
	assert.NoError(t, s.Dispose())
}

func TestAddChildReparentsAndRejectsCycles(t *testing.T) {
	e := NewEngine()
	a := e.NewScope("a")
	b := e.NewScope("b")
	c := a.NewChild("c")

	b.AddChild(c)
	assert.Same(t, b, c.Parent)
	assert.Empty(t, a.Children())

	assert.PanicsWithValue(t, "sap: adding scope would create a cycle", func() { c.AddChild(b) })
	assert.PanicsWithValue(t, "sap: adding scope would create a cycle", func() { b.AddChild(b) })

	b.RemoveChild(c)
	assert.Nil(t, c.Parent)
	assert.Panics(t, func() { b.RemoveChild(c) })
}

func TestScopeBelongsToOneEngine(t *testing.T) {
	e1, e2 := NewEngine(), NewEngine()
	s := e1.NewScope("s")

	assert.Panics(t, func() { e2.RunInScope(s, func() {}) })
	assert.Panics(t, func() { e2.NewScope("x").AddChild(s) })
}

func TestOwnOnDisposedScopePanics(t *testing.T) {
	e := NewEngine()
	s := e.NewScope("gone")
	require.NoError(t, s.Dispose())

	assert.Panics(t, func() { e.RunInScope(s, func() { New(e, 1) }) })
}
