package loop

import (
	"errors"
	"testing"

	"github.com/phanxgames/sap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	g := New(sap.NewEngine(), Config{})
	cfg := g.Config()
	assert.Equal(t, uint64(1), cfg.TicksPerFrame)
	assert.Equal(t, 640, cfg.Width)
	assert.Equal(t, 480, cfg.Height)

	w, h := g.Layout(100, 100)
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)

	assert.Panics(t, func() { New(nil, Config{}) })
}

func TestUpdateAdvancesClock(t *testing.T) {
	e := sap.NewEngine()
	g := New(e, Config{TicksPerFrame: 3})

	for i := 0; i < 4; i++ {
		require.NoError(t, g.Update())
	}
	assert.Equal(t, uint64(12), e.Time())
	assert.Equal(t, uint64(4), g.Frames())
}

func TestUpdateOrdering(t *testing.T) {
	e := sap.NewEngine()
	p := sap.New(e, 0.0)
	g := New(e, Config{})

	var trace []string
	p.Subscribe(func() { trace = append(trace, "changed") })
	g.Inject(func() {
		trace = append(trace, "input")
		p.EaseTo(10, 2, sap.Linear)
	})
	g.OnUpdate = func() error {
		trace = append(trace, "update")
		// The ease started by the input has not stepped yet.
		assert.Equal(t, 0.0, p.Get())
		return nil
	}

	require.NoError(t, g.Update())
	assert.Equal(t, []string{"input", "update", "changed"}, trace)
	assert.Equal(t, 5.0, p.Get())

	require.NoError(t, g.Update())
	assert.Equal(t, 10.0, p.Get())
}

func TestInputsPerFrame(t *testing.T) {
	g := New(sap.NewEngine(), Config{InputsPerFrame: 1})

	var ran []int
	for i := range 3 {
		g.Inject(func() { ran = append(ran, i) })
	}
	g.Inject(nil)
	assert.Equal(t, 3, g.Pending())

	require.NoError(t, g.Update())
	assert.Equal(t, []int{0}, ran)
	require.NoError(t, g.Update())
	require.NoError(t, g.Update())
	assert.Equal(t, []int{0, 1, 2}, ran)
	assert.Equal(t, 0, g.Pending())
}

func TestInputQueuedDuringInputWaitsAFrame(t *testing.T) {
	g := New(sap.NewEngine(), Config{})

	var ran []string
	g.Inject(func() {
		ran = append(ran, "first")
		g.Inject(func() { ran = append(ran, "second") })
	})

	require.NoError(t, g.Update())
	assert.Equal(t, []string{"first"}, ran)
	require.NoError(t, g.Update())
	assert.Equal(t, []string{"first", "second"}, ran)
}

func TestUpdateHookErrorStopsBeforeAdvance(t *testing.T) {
	e := sap.NewEngine()
	g := New(e, Config{})
	boom := errors.New("boom")
	g.OnUpdate = func() error { return boom }

	assert.ErrorIs(t, g.Update(), boom)
	assert.Equal(t, uint64(0), e.Time())
	assert.Equal(t, uint64(0), g.Frames())
}

func TestStatsText(t *testing.T) {
	e := sap.NewEngine()
	sap.New(e, 1)
	g := New(e, Config{TicksPerFrame: 5})
	require.NoError(t, g.Update())

	assert.Equal(t, "TPS: 60.0\nTick: 5\nEntries: 2", g.statsText(60))
}
