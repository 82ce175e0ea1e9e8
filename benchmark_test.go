package sap

import (
	"testing"
)

// setupBenchChain creates a literal feeding a chain of n expressions.
func setupBenchChain(n int) (*Engine, Property[int], Property[int]) {
	e := NewEngine()
	src := New(e, 0)
	cur := src
	for i := 0; i < n; i++ {
		prev := cur
		cur = Computed(e, func() int { return prev.Get() + 1 }, prev)
	}
	return e, src, cur
}

// setupBenchFan creates a literal with n direct dependents.
func setupBenchFan(n int) (*Engine, Property[int], []Property[int]) {
	e := NewEngine()
	src := New(e, 0)
	outs := make([]Property[int], n)
	for i := range outs {
		k := i
		outs[i] = Computed(e, func() int { return src.Get() * k }, src)
	}
	return e, src, outs
}

// --- Propagation Benchmarks ---

func BenchmarkSetThenRead_Chain1000(b *testing.B) {
	_, src, tail := setupBenchChain(1000)
	tail.Get() // warmup

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		src.Set(i)
		_ = tail.Get()
	}
}

func BenchmarkSetOnly_Chain1000(b *testing.B) {
	// Writes stop at entries that are already dirty, so only the first Set
	// after a read walks the chain.
	_, src, _ := setupBenchChain(1000)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		src.Set(i)
	}
}

func BenchmarkSetThenRead_Fan1000(b *testing.B) {
	_, src, outs := setupBenchFan(1000)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		src.Set(i)
		for _, o := range outs {
			_ = o.Get()
		}
	}
}

func BenchmarkCleanRead(b *testing.B) {
	_, _, tail := setupBenchChain(100)
	tail.Get()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = tail.Get()
	}
}

// --- Transition Benchmarks ---

func BenchmarkSetTime_1000Transitions(b *testing.B) {
	e := NewEngine()
	props := make([]Property[float64], 1000)
	for i := range props {
		props[i] = New(e, 0.0)
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if e.Transitioning() == 0 {
			for _, p := range props {
				p.EaseTo(1, 60, InOutQuad)
			}
		}
		if err := e.SetTime(e.Time() + 1); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkInterpolate_Slice(b *testing.B) {
	from := make([]float64, 256)
	to := make([]float64, 256)
	for i := range to {
		to[i] = float64(i)
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = Interpolate(from, to, 0.5)
	}
}

func BenchmarkInsertRemove(b *testing.B) {
	e := NewEngine()
	src := New(e, 0)

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		c := Computed(e, func() int { return src.Get() }, src)
		if err := c.Dispose(); err != nil {
			b.Fatal(err)
		}
	}
}
