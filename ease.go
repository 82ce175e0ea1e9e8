package sap

import (
	"math"
	"strings"

	"github.com/tanema/gween/ease"
)

// Curve maps linear progress t in [0, 1] to a blend factor. Overshooting
// curves (the Back and Elastic families) may return values outside [0, 1].
//
// Any func(float64) float64 can serve as a custom curve.
type Curve func(t float64) float64

// FromTween adapts a gween easing function to a Curve.
func FromTween(fn ease.TweenFunc) Curve {
	return func(t float64) float64 {
		return float64(fn(float32(t), 0, 1, 1))
	}
}

// Linear returns progress unchanged. It is computed in float64 so integer
// properties land exactly on whole ticks.
func Linear(t float64) float64 { return t }

// Standard curves.
var (
	InQuad    = FromTween(ease.InQuad)
	OutQuad   = FromTween(ease.OutQuad)
	InOutQuad = FromTween(ease.InOutQuad)
	InBack    = FromTween(ease.InBack)
	OutBack   = FromTween(ease.OutBack)
	InOutBack = FromTween(ease.InOutBack)
)

// Additional curves from the gween set.
var (
	InCubic      = FromTween(ease.InCubic)
	OutCubic     = FromTween(ease.OutCubic)
	InOutCubic   = FromTween(ease.InOutCubic)
	InSine       = FromTween(ease.InSine)
	OutSine      = FromTween(ease.OutSine)
	InOutSine    = FromTween(ease.InOutSine)
	InExpo       = FromTween(ease.InExpo)
	OutExpo      = FromTween(ease.OutExpo)
	InOutExpo    = FromTween(ease.InOutExpo)
	InCirc       = FromTween(ease.InCirc)
	OutCirc      = FromTween(ease.OutCirc)
	InOutCirc    = FromTween(ease.InOutCirc)
	InElastic    = FromTween(ease.InElastic)
	OutElastic   = FromTween(ease.OutElastic)
	InOutElastic = FromTween(ease.InOutElastic)
	InBounce     = FromTween(ease.InBounce)
	OutBounce    = FromTween(ease.OutBounce)
	InOutBounce  = FromTween(ease.InOutBounce)
)

// Snap holds the start value until the segment completes.
func Snap(t float64) float64 {
	if t >= 1 {
		return 1
	}
	return 0
}

var curvesByName = map[string]Curve{
	"linear":         Linear,
	"snap":           Snap,
	"in_quad":        InQuad,
	"out_quad":       OutQuad,
	"in_out_quad":    InOutQuad,
	"in_back":        InBack,
	"out_back":       OutBack,
	"in_out_back":    InOutBack,
	"in_cubic":       InCubic,
	"out_cubic":      OutCubic,
	"in_out_cubic":   InOutCubic,
	"in_sine":        InSine,
	"out_sine":       OutSine,
	"in_out_sine":    InOutSine,
	"in_expo":        InExpo,
	"out_expo":       OutExpo,
	"in_out_expo":    InOutExpo,
	"in_circ":        InCirc,
	"out_circ":       OutCirc,
	"in_out_circ":    InOutCirc,
	"in_elastic":     InElastic,
	"out_elastic":    OutElastic,
	"in_out_elastic": InOutElastic,
	"in_bounce":      InBounce,
	"out_bounce":     OutBounce,
	"in_out_bounce":  InOutBounce,
}

// CurveByName looks up a built-in curve by its snake_case name, e.g.
// "out_back". Names are case-insensitive and may use '-' for '_'. An empty
// name resolves to Linear.
func CurveByName(name string) (Curve, bool) {
	if name == "" {
		return Linear, true
	}
	key := strings.ReplaceAll(strings.ToLower(name), "-", "_")
	c, ok := curvesByName[key]
	return c, ok
}

// CurveNames returns the names accepted by CurveByName.
func CurveNames() []string {
	names := make([]string, 0, len(curvesByName))
	for n := range curvesByName {
		names = append(names, n)
	}
	return names
}

// CubicBezier returns a curve matching CSS cubic-bezier(x1, y1, x2, y2). The
// curve starts at (0,0) and ends at (1,1).
func CubicBezier(x1, y1, x2, y2 float64) Curve {
	return func(t float64) float64 {
		if t <= 0 {
			return 0
		}
		if t >= 1 {
			return 1
		}

		u := t
		// Newton-Raphson converges quickly for most control points.
		for range 8 {
			x := bezierSample(x1, x2, u) - t
			if math.Abs(x) < 1e-7 {
				return bezierSample(y1, y2, clampUnit(u))
			}
			dx := bezierSlope(x1, x2, u)
			if math.Abs(dx) < 1e-7 {
				break
			}
			u -= x / dx
		}

		// Bisection fallback keeps the solution inside [0,1].
		lo, hi := 0.0, 1.0
		u = clampUnit(u)
		for range 12 {
			x := bezierSample(x1, x2, u) - t
			if math.Abs(x) < 1e-7 {
				break
			}
			if x > 0 {
				hi = u
			} else {
				lo = u
			}
			u = (lo + hi) * 0.5
		}
		return bezierSample(y1, y2, u)
	}
}

func bezierSample(a, b, t float64) float64 {
	inv := 1 - t
	return 3*inv*inv*t*a + 3*inv*t*t*b + t*t*t
}

func bezierSlope(a, b, t float64) float64 {
	inv := 1 - t
	return 3*inv*inv*a + 6*inv*t*(b-a) + 3*t*t*(1-b)
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
