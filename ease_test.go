package sap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanema/gween/ease"
)

func TestCurvesHitEndpoints(t *testing.T) {
	for _, name := range CurveNames() {
		t.Run(name, func(t *testing.T) {
			c, ok := CurveByName(name)
			require.True(t, ok)
			assert.InDelta(t, 0.0, c(0), 2e-3)
			assert.InDelta(t, 1.0, c(1), 2e-3)
		})
	}
}

func TestLinearIsExact(t *testing.T) {
	for _, v := range []float64{0, 0.1, 1.0 / 3, 0.5, 0.999, 1} {
		assert.Equal(t, v, Linear(v))
	}
}

func TestBackCurvesOvershoot(t *testing.T) {
	// c3*t^3 - c1*t^2 with c1 = 1.70158 at t = 0.5.
	assert.InDelta(t, -0.0876975, InBack(0.5), 1e-5)
	assert.Greater(t, OutBack(0.8), 1.0)
	assert.Less(t, InOutBack(0.1), 0.0)
}

func TestQuadCurves(t *testing.T) {
	assert.InDelta(t, 0.25, InQuad(0.5), 1e-6)
	assert.InDelta(t, 0.75, OutQuad(0.5), 1e-6)
}

func TestFromTween(t *testing.T) {
	c := FromTween(ease.OutCubic)
	assert.InDelta(t, 0.875, c(0.5), 1e-6)
}

func TestSnap(t *testing.T) {
	assert.Equal(t, 0.0, Snap(0.99))
	assert.Equal(t, 1.0, Snap(1))
}

func TestCurveByName(t *testing.T) {
	c, ok := CurveByName("Out-Back")
	require.True(t, ok)
	assert.InDelta(t, OutBack(0.3), c(0.3), 1e-12)

	c, ok = CurveByName("")
	require.True(t, ok)
	assert.Equal(t, 0.42, c(0.42))

	_, ok = CurveByName("wobble")
	assert.False(t, ok)
}

func TestCubicBezier(t *testing.T) {
	linear := CubicBezier(0, 0, 1, 1)
	for _, v := range []float64{0.1, 0.3, 0.5, 0.9} {
		assert.InDelta(t, v, linear(v), 1e-4)
	}

	easeCSS := CubicBezier(0.25, 0.1, 0.25, 1)
	assert.Equal(t, 0.0, easeCSS(0))
	assert.Equal(t, 1.0, easeCSS(1))
	prev := 0.0
	for i := 1; i <= 20; i++ {
		v := easeCSS(float64(i) / 20)
		assert.GreaterOrEqual(t, v, prev, "monotonic at step %d", i)
		prev = v
	}
	assert.Greater(t, easeCSS(0.5), 0.5, "ease starts fast")
}
