// Package sap is a fine-grained reactive property engine: a dependency graph
// of literal values, computed values, subscriptions and time-driven
// transitions, recomputed lazily and incrementally.
//
// # Quick start
//
// Every property lives in an [Engine]. Literals are created with [New],
// computed values with [Computed], which takes the evaluator and the list of
// properties it reads:
//
//	e := sap.NewEngine()
//	width := sap.New(e, 10.0)
//	height := sap.New(e, 4.0)
//	area := sap.Computed(e, func() float64 {
//		return width.Get() * height.Get()
//	}, width, height)
//
//	area.Get() // 40
//	width.Set(20)
//	area.Get() // 80
//
// The dependency list is trusted. An evaluator that reads a property it did
// not list will not be recomputed when that property changes.
//
// # Propagation
//
// Writes are eager and cheap: [Property.Set] walks the written entry's
// dependents breadth-first and marks each computed entry dirty, stopping at
// entries that are already dirty. Reads are lazy: [Property.Get] on a dirty
// entry runs its evaluator, which reads and refreshes its own inputs. A value
// that nobody reads is never recomputed.
//
// # Subscriptions
//
// [Property.Subscribe] registers a callback that runs after every write that
// reaches the entry. Callbacks run once the store has finished the write, so
// they may read and write other properties:
//
//	mirror := sap.New(e, 0.0)
//	area.Subscribe(func() { mirror.Set(area.Get()) })
//
// # Time and transitions
//
// The engine owns a logical clock, advanced with [Engine.SetTime]. Literal
// properties can be eased toward a target over a number of ticks:
//
//	x := sap.New(e, 0.0)
//	x.EaseTo(100, 30, sap.OutBack)
//	x.EaseToLater(0, 30, sap.InQuad)
//	for tick := uint64(1); tick <= 60; tick++ {
//		e.SetTime(tick)
//	}
//
// Values blend through [Interpolate]: numbers lerp, slices and arrays blend
// element-wise, pointers act as options. Types may supply their own blend by
// implementing [Interpolatable]. The curves come from [gween].
//
// The loop sub-package drives an engine from an [Ebitengine] game loop. The
// manifest sub-package declares float graphs and scripts in YAML or TOML; the
// sapgraph command renders, sorts and runs them.
//
// # Errors
//
// Handle methods panic with a [*PropertyError] on programmer errors: stale
// handles, reentrant access from an evaluator, writes to computed entries.
// The Try variants and the free functions ([WithValue], [SetValue], ...)
// return the same errors instead. Match them with errors.Is against
// [ErrBorrowConflict], [ErrMissingEntry] and the other sentinels.
//
// # Debugging
//
// [Engine.SetDebugMode] logs warnings about very deep dependency chains and
// very wide fan-outs, and per-tick activity counters (see [Engine.Stats]).
// [Engine.RenderGraph] draws the whole graph as SVG.
//
// An Engine is not safe for concurrent use.
//
// [gween]: https://github.com/tanema/gween
// [Ebitengine]: https://ebitengine.org
package sap
