package manifest

import (
	"fmt"
	"math"

	"github.com/phanxgames/sap"
)

// Step actions.
const (
	ActionSet       = "set"        // write value to a literal target
	ActionEase      = "ease"       // start a transition, replacing any in flight
	ActionEaseLater = "ease_later" // queue a transition after the current ones
	ActionTick      = "tick"       // advance the clock by ticks
	ActionWait      = "wait"       // let frames pass without acting
	ActionExpect    = "expect"     // compare target against value
	ActionSnapshot  = "snapshot"   // record the graph shape
)

const defaultTolerance = 1e-9

// Step is one scripted action.
type Step struct {
	Action    string  `yaml:"action" toml:"action" json:"action"`
	Target    string  `yaml:"target,omitempty" toml:"target" json:"target,omitempty"`
	Value     float64 `yaml:"value,omitempty" toml:"value" json:"value,omitempty"`
	Duration  uint64  `yaml:"duration,omitempty" toml:"duration" json:"duration,omitempty"`
	Curve     string  `yaml:"curve,omitempty" toml:"curve" json:"curve,omitempty"`
	Ticks     uint64  `yaml:"ticks,omitempty" toml:"ticks" json:"ticks,omitempty"`
	Frames    int     `yaml:"frames,omitempty" toml:"frames" json:"frames,omitempty"`
	Tolerance float64 `yaml:"tolerance,omitempty" toml:"tolerance" json:"tolerance,omitempty"`
	Label     string  `yaml:"label,omitempty" toml:"label" json:"label,omitempty"`
}

func (st Step) validate(m *Manifest) error {
	switch st.Action {
	case ActionSet, ActionEase, ActionEaseLater:
		p, ok := m.lookup(st.Target)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownName, st.Target)
		}
		if p.Value == nil {
			return fmt.Errorf("%w: %q is an expression", sap.ErrNotSettable, st.Target)
		}
		if st.Action != ActionSet {
			if _, ok := sap.CurveByName(st.Curve); !ok {
				return fmt.Errorf("%w: unknown curve %q", ErrInvalid, st.Curve)
			}
		}
	case ActionExpect:
		if _, ok := m.lookup(st.Target); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownName, st.Target)
		}
	case ActionTick, ActionWait, ActionSnapshot:
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalid, st.Action)
	}
	return nil
}

// Record is the outcome of one executed step.
type Record struct {
	Step   int     `json:"step"`
	Action string  `json:"action"`
	Target string  `json:"target,omitempty"`
	Tick   uint64  `json:"tick"`
	Value  float64 `json:"value"`
	Want   float64 `json:"want,omitempty"`
	Failed bool    `json:"failed,omitempty"`
	Detail string  `json:"detail,omitempty"`
}

// Runner sequences a script against a Graph. Under a frame driver call Step
// once per frame; otherwise RunAll executes the whole script at once.
type Runner struct {
	g     *Graph
	steps []Step

	// SnapshotDir, when set, makes snapshot steps write an SVG of the graph
	// there. Otherwise they only record node and edge counts.
	SnapshotDir string

	cursor    int
	waitCount int
	done      bool
	records   []Record
	failures  int
}

// NewRunner creates a runner for steps. Steps are assumed to have been
// validated against the manifest g was built from.
func NewRunner(g *Graph, steps []Step) *Runner {
	return &Runner{g: g, steps: steps, done: len(steps) == 0}
}

// Done reports whether every step has executed.
func (r *Runner) Done() bool { return r.done }

// Records returns the outcome of each executed step.
func (r *Runner) Records() []Record { return r.records }

// Failures counts expect steps whose value was out of tolerance.
func (r *Runner) Failures() int { return r.failures }

// Step advances the runner by one frame: it either counts down a wait or
// executes the next step.
func (r *Runner) Step() error {
	_, err := r.step()
	return err
}

// step reports whether the frame was spent waiting.
func (r *Runner) step() (bool, error) {
	if r.done {
		return false, nil
	}
	if r.waitCount > 0 {
		r.waitCount--
		r.finishIfIdle()
		return true, nil
	}
	st := r.steps[r.cursor]
	r.cursor++
	rec, err := r.exec(st)
	if err != nil {
		r.done = true
		return false, fmt.Errorf("step %d (%s): %w", r.cursor, st.Action, err)
	}
	rec.Step = r.cursor
	r.records = append(r.records, rec)
	waiting := st.Action == ActionWait
	if waiting {
		r.waitCount = max(st.Frames, 1) - 1 // this frame counts as one
	}
	r.finishIfIdle()
	return waiting, nil
}

func (r *Runner) finishIfIdle() {
	if r.cursor >= len(r.steps) && r.waitCount == 0 {
		r.done = true
	}
}

// RunAll executes the remaining steps back to back. Without a frame driver
// the clock only moves on tick steps and on wait steps, which advance it one
// tick per waited frame.
func (r *Runner) RunAll() error {
	e := r.g.Engine()
	for !r.done {
		waited, err := r.step()
		if err != nil {
			return err
		}
		if waited {
			if err := e.SetTime(e.Time() + 1); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Runner) exec(st Step) (Record, error) {
	e := r.g.Engine()
	rec := Record{Action: st.Action, Target: st.Target}
	switch st.Action {
	case ActionSet:
		p, _ := r.g.Property(st.Target)
		if err := p.TrySet(st.Value); err != nil {
			return rec, err
		}
	case ActionEase, ActionEaseLater:
		p, _ := r.g.Property(st.Target)
		curve, _ := sap.CurveByName(st.Curve)
		ease := sap.EaseTo[float64]
		if st.Action == ActionEaseLater {
			ease = sap.EaseToLater[float64]
		}
		if err := ease(e, p.ID(), st.Value, st.Duration, curve); err != nil {
			return rec, err
		}
		rec.Detail = fmt.Sprintf("to %g over %d", st.Value, st.Duration)
	case ActionTick:
		ticks := st.Ticks
		if ticks == 0 {
			ticks = 1
		}
		if err := e.SetTime(e.Time() + ticks); err != nil {
			return rec, err
		}
	case ActionWait:
		rec.Detail = fmt.Sprintf("%d frames", max(st.Frames, 1))
	case ActionExpect:
		tol := st.Tolerance
		if tol == 0 {
			tol = defaultTolerance
		}
		rec.Want = st.Value
		got, err := r.g.Value(st.Target)
		if err != nil {
			return rec, err
		}
		rec.Value = got
		if math.Abs(got-st.Value) > tol {
			rec.Failed = true
			rec.Detail = fmt.Sprintf("got %g, want %g", got, st.Value)
			r.failures++
		}
	case ActionSnapshot:
		snap, err := e.Snapshot()
		if err != nil {
			return rec, err
		}
		rec.Detail = fmt.Sprintf("%d nodes, %d edges", len(snap.Nodes), len(snap.Edges))
		if r.SnapshotDir != "" {
			path, err := e.SnapshotGraph(r.SnapshotDir, st.Label)
			if err != nil {
				return rec, err
			}
			rec.Detail += ", wrote " + path
		}
	}
	if st.Target != "" && st.Action != ActionExpect {
		v, err := r.g.Value(st.Target)
		if err != nil {
			return rec, err
		}
		rec.Value = v
	}
	rec.Tick = e.Time()
	return rec, nil
}
