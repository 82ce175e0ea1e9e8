package sap

import (
	"log/slog"
	"os"
)

// Stats counts store activity since the engine was created or last reset.
type Stats struct {
	Inserts       uint64 // entries created
	Removes       uint64 // entries removed
	Reads         uint64 // typed value reads
	Sets          uint64 // literal, clock and transition writes
	Recomputes    uint64 // evaluator runs
	DirtyMarks    uint64 // clean-to-dirty transitions during walks
	Expansions    uint64 // entries whose outbound edges were walked
	Notifications uint64 // subscription callbacks invoked
}

// Stats returns a copy of the activity counters.
func (e *Engine) Stats() Stats { return e.stats }

// ResetStats zeroes the activity counters.
func (e *Engine) ResetStats() { e.stats = Stats{} }

var discardLogger = slog.New(slog.DiscardHandler)

// SetLogger sets the logger used for debug output and warnings. Pass nil to
// discard them.
func (e *Engine) SetLogger(l *slog.Logger) {
	if l == nil {
		l = discardLogger
	}
	e.logger = l
}

// Logger returns the engine's logger.
func (e *Engine) Logger() *slog.Logger { return e.logger }

// SetDebugMode enables or disables debug mode. When enabled, large fan-outs
// and deep dependency chains are warned about and every clock advance logs
// the activity counters. If no logger was set, debug output goes to stderr.
func (e *Engine) SetDebugMode(enabled bool) {
	e.debug = enabled
	if enabled && e.logger == discardLogger {
		e.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

// DebugMode reports whether debug mode is on.
func (e *Engine) DebugMode() bool { return e.debug }

// debugMaxDepth is the inbound chain length past which a warning is logged.
const debugMaxDepth = 64

// debugMaxFanOut is the dependent/subscriber count past which a warning is logged.
const debugMaxFanOut = 1000

// debugCheckEntry warns about deep chains and wide fan-outs created by an insert.
func (e *Engine) debugCheckEntry(ent *entry) {
	if ent.depth > debugMaxDepth {
		e.logger.Warn("dependency chain exceeds threshold",
			"id", ent.id.String(), "name", ent.name, "depth", ent.depth, "threshold", debugMaxDepth)
	}
	for _, dep := range ent.inbound {
		if src := e.slots.get(dep); src != nil {
			debugCheckFanOut(e, src)
		}
	}
}

func debugCheckFanOut(e *Engine, ent *entry) {
	if n := len(ent.outbound) + len(ent.subs); n > debugMaxFanOut {
		e.logger.Warn("entry fan-out exceeds threshold",
			"id", ent.id.String(), "name", ent.name, "fanout", n, "threshold", debugMaxFanOut)
	}
}

// debugLogTick logs the counters accumulated up to a clock advance.
func (e *Engine) debugLogTick() {
	s := e.stats
	e.logger.Debug("clock advanced",
		"tick", e.now,
		"entries", e.Len(),
		"transitioning", len(e.transitioning),
		"sets", s.Sets,
		"reads", s.Reads,
		"recomputes", s.Recomputes,
		"dirty_marks", s.DirtyMarks,
		"notifications", s.Notifications)
}
