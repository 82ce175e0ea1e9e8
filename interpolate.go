package sap

import (
	"errors"
	"fmt"
	"math"
	"reflect"
)

// Interpolatable is implemented by value types that know how to blend toward
// another value of the same type. t is usually in [0, 1] but overshooting
// curves may pass values slightly outside it.
type Interpolatable[T any] interface {
	Interpolate(other T, t float64) T
}

// Interpolate blends a toward b by t. A type's own Interpolate method wins.
// Otherwise:
//
//   - floats and complex numbers lerp;
//   - integers lerp in float64, then round and saturate to the type's range;
//   - slices and arrays blend element-wise and must have equal lengths
//     (a mismatch panics with ErrShapeMismatch);
//   - pointers act as options: both non-nil yields a pointer to the blended
//     pointee, anything else yields nil;
//   - every other type, including bool and string, snaps to a.
func Interpolate[T any](a, b T, t float64) T {
	if ip, ok := any(a).(Interpolatable[T]); ok {
		return ip.Interpolate(b, t)
	}
	var out T
	reflect.ValueOf(&out).Elem().Set(interpolateValue(reflect.ValueOf(&a).Elem(), reflect.ValueOf(&b).Elem(), t))
	return out
}

var float64Type = reflect.TypeFor[float64]()

// blendMethod returns a's Interpolate method when it has the
// Interpolate(other T, t float64) T shape for a's own type T.
func blendMethod(a reflect.Value) (reflect.Value, bool) {
	if !a.CanInterface() {
		return reflect.Value{}, false
	}
	m := a.MethodByName("Interpolate")
	if !m.IsValid() {
		return reflect.Value{}, false
	}
	mt := m.Type()
	if mt.NumIn() != 2 || mt.NumOut() != 1 ||
		mt.In(0) != a.Type() || mt.In(1) != float64Type || mt.Out(0) != a.Type() {
		return reflect.Value{}, false
	}
	return m, true
}

func interpolateValue(a, b reflect.Value, t float64) reflect.Value {
	if m, ok := blendMethod(a); ok {
		return m.Call([]reflect.Value{b, reflect.ValueOf(t)})[0]
	}

	typ := a.Type()
	switch a.Kind() {
	case reflect.Float32, reflect.Float64:
		out := reflect.New(typ).Elem()
		av, bv := a.Float(), b.Float()
		out.SetFloat(av + (bv-av)*t)
		return out

	case reflect.Complex64, reflect.Complex128:
		out := reflect.New(typ).Elem()
		av, bv := a.Complex(), b.Complex()
		out.SetComplex(av + (bv-av)*complex(t, 0))
		return out

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		out := reflect.New(typ).Elem()
		av, bv := float64(a.Int()), float64(b.Int())
		out.SetInt(saturateInt(math.Round(av+(bv-av)*t), typ.Bits()))
		return out

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		out := reflect.New(typ).Elem()
		av, bv := float64(a.Uint()), float64(b.Uint())
		out.SetUint(saturateUint(math.Round(av+(bv-av)*t), typ.Bits()))
		return out

	case reflect.Slice:
		if a.Len() != b.Len() {
			panic(shapeMismatch(typ, a.Len(), b.Len()))
		}
		if a.IsNil() {
			return a
		}
		out := reflect.MakeSlice(typ, a.Len(), a.Len())
		for i := range a.Len() {
			out.Index(i).Set(interpolateValue(a.Index(i), b.Index(i), t))
		}
		return out

	case reflect.Array:
		out := reflect.New(typ).Elem()
		for i := range a.Len() {
			out.Index(i).Set(interpolateValue(a.Index(i), b.Index(i), t))
		}
		return out

	case reflect.Pointer:
		if a.IsNil() || b.IsNil() {
			return reflect.Zero(typ)
		}
		p := reflect.New(typ.Elem())
		p.Elem().Set(interpolateValue(a.Elem(), b.Elem(), t))
		return p

	default:
		return a
	}
}

func saturateInt(f float64, bits int) int64 {
	limit := math.Ldexp(1, bits-1)
	switch {
	case math.IsNaN(f):
		return 0
	case f >= limit:
		return int64(uint64(1)<<(bits-1) - 1)
	case f < -limit:
		return -int64(uint64(1) << (bits - 1))
	default:
		return int64(f)
	}
}

func saturateUint(f float64, bits int) uint64 {
	switch {
	case math.IsNaN(f) || f <= 0:
		return 0
	case f >= math.Ldexp(1, bits):
		return ^uint64(0) >> (64 - bits)
	default:
		return uint64(f)
	}
}

// blendable returns the shape error Interpolate would panic with for a and b,
// or nil when they blend.
func blendable[T any](a, b T) (pe *PropertyError) {
	defer func() {
		if r := recover(); r != nil {
			err, ok := r.(*PropertyError)
			if !ok || !errors.Is(err, ErrShapeMismatch) {
				panic(r)
			}
			pe = err
		}
	}()
	Interpolate(a, b, 0)
	return nil
}

func shapeMismatch(typ reflect.Type, a, b int) *PropertyError {
	return &PropertyError{
		Op:     "interpolate",
		Err:    ErrShapeMismatch,
		Detail: fmt.Sprintf("%s lengths %d and %d", typ, a, b),
	}
}
