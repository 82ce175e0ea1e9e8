package sap

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestZeroPropertyIsUnbound(t *testing.T) {
	var p Property[int]

	_, err := p.TryGet()
	assert.ErrorIs(t, err, ErrNoEngine)
	assert.ErrorIs(t, p.TrySet(1), ErrNoEngine)
	assert.ErrorIs(t, p.Dispose(), ErrNoEngine)
	assert.False(t, p.Exists())
	assert.Equal(t, "", p.Name())

	err = catch(func() { p.Get() })
	assert.ErrorIs(t, err, ErrNoEngine)
}

func TestSetOnComputedPanics(t *testing.T) {
	e := NewEngine()
	a := New(e, 1)
	c := Computed(e, func() int { return a.Get() }, a)

	err := catch(func() { c.Set(3) })
	assert.ErrorIs(t, err, ErrNotSettable)

	var pe *PropertyError
	assert.ErrorAs(t, err, &pe)
}

func TestComputedNilEvaluatorPanics(t *testing.T) {
	e := NewEngine()
	err := catch(func() { Computed[int](e, nil) })
	assert.ErrorIs(t, err, ErrInvalidEntry)
}

func TestNamedHandles(t *testing.T) {
	e := NewEngine()
	w := NewNamed(e, "width", 3)
	area := ComputedNamed(e, "area", func() int { return w.Get() * w.Get() }, w)

	assert.Equal(t, "width", w.Name())
	assert.Equal(t, "area", area.Name())
	assert.Same(t, e, area.Engine())
}

func TestFromIDSharesEntry(t *testing.T) {
	e := NewEngine()
	p := New(e, "a")
	q := FromID[string](e, p.ID())

	q.Set("b")
	assert.Equal(t, "b", p.Get())
}

func TestComputedAcceptsRawIDs(t *testing.T) {
	e := NewEngine()
	a := New(e, 2)
	c := Computed(e, func() int { return a.Get() + 1 }, a.ID())

	a.Set(4)
	assert.Equal(t, 5, c.Get())
}

func TestUpdateMutatesInPlace(t *testing.T) {
	e := NewEngine()
	items := New(e, []int{1})
	count := Computed(e, func() int { return len(items.Get()) }, items)

	items.Update(func(v *[]int) { *v = append(*v, 2, 3) })
	assert.Equal(t, 3, count.Get())
}

type doc struct {
	Width  Property[float64]  `json:"width" yaml:"width"`
	Labels Property[[]string] `json:"labels" yaml:"labels"`
}

func TestJSONSerializesValueOnly(t *testing.T) {
	e := NewEngine()
	w := New(e, 2.0)
	d := doc{
		Width:  Computed(e, func() float64 { return w.Get() * 2 }, w),
		Labels: New(e, []string{"a", "b"}),
	}

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"width":4,"labels":["a","b"]}`, string(out))

	back := doc{Width: Bind[float64](e), Labels: Bind[[]string](e)}
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, 4.0, back.Width.Get())
	assert.Equal(t, []string{"a", "b"}, back.Labels.Get())

	kind, err := e.Kind(back.Width.ID())
	require.NoError(t, err)
	assert.Equal(t, KindLiteral, kind, "decoded handles are fresh literals")
	assert.NotEqual(t, d.Width.ID(), back.Width.ID())

	// The decoded literal is disconnected from the graph it came from.
	w.Set(10)
	assert.Equal(t, 20.0, d.Width.Get())
	assert.Equal(t, 4.0, back.Width.Get())
}

func TestJSONUnmarshalNeedsEngine(t *testing.T) {
	var d doc
	err := json.Unmarshal([]byte(`{"width":1}`), &d)
	assert.ErrorIs(t, err, ErrNoEngine)
}

func TestYAMLRoundTrip(t *testing.T) {
	e := NewEngine()
	d := doc{Width: New(e, 1.5), Labels: New(e, []string{"x"})}

	out, err := yaml.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, "width: 1.5\nlabels:\n    - x\n", string(out))

	back := doc{Width: Bind[float64](e), Labels: Bind[[]string](e)}
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, 1.5, back.Width.Get())
	assert.Equal(t, []string{"x"}, back.Labels.Get())
}

func TestYAMLUnmarshalNeedsEngine(t *testing.T) {
	var d doc
	err := yaml.Unmarshal([]byte("width: 1\n"), &d)
	assert.ErrorIs(t, err, ErrNoEngine)
}

func TestTimePropertyIsReadOnly(t *testing.T) {
	e := NewEngine()
	clock := e.TimeProperty()
	require.NoError(t, e.SetTime(12))

	assert.Equal(t, uint64(12), clock.Get())
	err := catch(func() { clock.Set(1) })
	assert.ErrorIs(t, err, ErrNotSettable)
	err = catch(func() { clock.EaseTo(1, 1, Linear) })
	assert.ErrorIs(t, err, ErrNotSettable)
}
