// Package loop drives a sap engine from an ebiten game loop. Each frame runs
// injected inputs, then the update hook, then advances the engine clock, so
// user code always observes a settled graph before transitions step.
package loop

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/phanxgames/sap"
)

// Config holds window and pacing options for a Game.
type Config struct {
	Title  string
	Width  int
	Height int

	// TicksPerFrame is how far the engine clock advances per Update.
	// Zero means one tick.
	TicksPerFrame uint64

	// InputsPerFrame caps how many injected inputs run per Update.
	// Zero runs every queued input.
	InputsPerFrame int

	// Background fills the screen before the draw hook when non-nil.
	Background color.Color

	// ShowStats draws TPS, clock tick and entry count in the top-left corner.
	ShowStats bool
}

// Game implements ebiten.Game on top of a sap engine.
type Game struct {
	engine *sap.Engine
	cfg    Config

	// OnUpdate runs once per frame after injected inputs and before the
	// clock advances. A non-nil error stops the loop.
	OnUpdate func() error
	// OnDraw renders the frame.
	OnDraw func(screen *ebiten.Image)

	inputs []func()
	frames uint64
}

// New creates a Game for e. It panics if e is nil.
func New(e *sap.Engine, cfg Config) *Game {
	if e == nil {
		panic("loop: nil engine")
	}
	if cfg.TicksPerFrame == 0 {
		cfg.TicksPerFrame = 1
	}
	if cfg.Width <= 0 {
		cfg.Width = 640
	}
	if cfg.Height <= 0 {
		cfg.Height = 480
	}
	return &Game{engine: e, cfg: cfg}
}

// Engine returns the engine driven by g.
func (g *Game) Engine() *sap.Engine { return g.engine }

// Config returns the normalized configuration.
func (g *Game) Config() Config { return g.cfg }

// Frames reports how many Updates have completed.
func (g *Game) Frames() uint64 { return g.frames }

// Inject queues f to run at the start of a later Update, before the update
// hook. Inputs run in the order they were queued.
func (g *Game) Inject(f func()) {
	if f == nil {
		return
	}
	g.inputs = append(g.inputs, f)
}

// Pending reports how many injected inputs have not run yet.
func (g *Game) Pending() int { return len(g.inputs) }

// Update implements ebiten.Game.
func (g *Game) Update() error {
	g.runInputs()
	if g.OnUpdate != nil {
		if err := g.OnUpdate(); err != nil {
			return err
		}
	}
	next := g.engine.Time() + g.cfg.TicksPerFrame
	if err := g.engine.SetTime(next); err != nil {
		return fmt.Errorf("loop: advance clock to %d: %w", next, err)
	}
	g.frames++
	return nil
}

func (g *Game) runInputs() {
	n := len(g.inputs)
	if g.cfg.InputsPerFrame > 0 && n > g.cfg.InputsPerFrame {
		n = g.cfg.InputsPerFrame
	}
	batch := g.inputs[:n]
	// Inputs queued while the batch runs wait for the next frame.
	g.inputs = append([]func(){}, g.inputs[n:]...)
	for _, f := range batch {
		f()
	}
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	if g.cfg.Background != nil {
		screen.Fill(g.cfg.Background)
	}
	if g.OnDraw != nil {
		g.OnDraw(screen)
	}
	if g.cfg.ShowStats {
		ebitenutil.DebugPrint(screen, g.statsText(ebiten.ActualTPS()))
	}
}

func (g *Game) statsText(tps float64) string {
	return fmt.Sprintf("TPS: %.1f\nTick: %d\nEntries: %d", tps, g.engine.Time(), g.engine.Len())
}

// Layout implements ebiten.Game.
func (g *Game) Layout(_, _ int) (int, int) {
	return g.cfg.Width, g.cfg.Height
}

// Run opens a window and blocks until the game exits.
func (g *Game) Run() error {
	ebiten.SetWindowTitle(g.cfg.Title)
	ebiten.SetWindowSize(g.cfg.Width, g.cfg.Height)
	return ebiten.RunGame(g)
}
