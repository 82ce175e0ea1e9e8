package sap

// Pair is a two-element tuple that blends component-wise.
type Pair[A, B any] struct {
	First  A
	Second B
}

// MakePair returns Pair{a, b}.
func MakePair[A, B any](a A, b B) Pair[A, B] { return Pair[A, B]{First: a, Second: b} }

// Interpolate implements Interpolatable.
func (p Pair[A, B]) Interpolate(other Pair[A, B], t float64) Pair[A, B] {
	return Pair[A, B]{
		First:  Interpolate(p.First, other.First, t),
		Second: Interpolate(p.Second, other.Second, t),
	}
}

// Triple is a three-element tuple that blends component-wise.
type Triple[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

// Interpolate implements Interpolatable.
func (p Triple[A, B, C]) Interpolate(other Triple[A, B, C], t float64) Triple[A, B, C] {
	return Triple[A, B, C]{
		First:  Interpolate(p.First, other.First, t),
		Second: Interpolate(p.Second, other.Second, t),
		Third:  Interpolate(p.Third, other.Third, t),
	}
}

// Vec2 is a 2D vector.
type Vec2 struct {
	X, Y float64
}

// Interpolate implements Interpolatable.
func (v Vec2) Interpolate(other Vec2, t float64) Vec2 {
	return Vec2{X: lerp(v.X, other.X, t), Y: lerp(v.Y, other.Y, t)}
}

// Add returns v+o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Scale returns v scaled by s.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is opaque white.
var ColorWhite = Color{1, 1, 1, 1}

// Interpolate implements Interpolatable. Components blend independently and
// are not clamped, so overshooting curves can leave [0, 1]; RGBA clamps.
func (c Color) Interpolate(other Color, t float64) Color {
	return Color{
		R: lerp(c.R, other.R, t),
		G: lerp(c.G, other.G, t),
		B: lerp(c.B, other.B, t),
		A: lerp(c.A, other.A, t),
	}
}

// RGBA implements color.Color, premultiplying by alpha.
func (c Color) RGBA() (r, g, b, a uint32) {
	r = uint32(clampUnit(c.R*c.A) * 0xffff)
	g = uint32(clampUnit(c.G*c.A) * 0xffff)
	b = uint32(clampUnit(c.B*c.A) * 0xffff)
	a = uint32(clampUnit(c.A) * 0xffff)
	return
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Interpolate implements Interpolatable.
func (r Rect) Interpolate(other Rect, t float64) Rect {
	return Rect{
		X:      lerp(r.X, other.X, t),
		Y:      lerp(r.Y, other.Y, t),
		Width:  lerp(r.Width, other.Width, t),
		Height: lerp(r.Height, other.Height, t),
	}
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }
