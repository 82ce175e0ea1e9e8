package sap

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	svg "github.com/ajstarks/svgo"
)

// Graph drawing geometry, in SVG user units.
const (
	graphWidth   = 1000
	graphLayerH  = 100
	graphRadius  = 20
	graphFontPx  = 10
	colorSubbed  = "blue"
	colorPlain   = "red"
	colorClock   = "green"
	colorEdge    = "black"
	colorLabel   = "white"
	colorSummary = "black"
)

// errWriter remembers the first write error; svgo does not report them.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) Write(p []byte) (int, error) {
	if ew.err != nil {
		return 0, ew.err
	}
	n, err := ew.w.Write(p)
	ew.err = err
	return n, err
}

// RenderGraph draws the store's dependency graph as SVG. Nodes are laid out
// in rows by topological layer and joined by dependency-to-dependent edges.
// Nodes carrying subscriptions are blue, the clock is green, others are red.
func (e *Engine) RenderGraph(w io.Writer) error {
	snap, err := e.Snapshot()
	if err != nil {
		return err
	}
	return RenderSnapshot(w, snap)
}

// RenderSnapshot draws a previously captured snapshot as SVG.
func RenderSnapshot(w io.Writer, snap GraphSnapshot) error {
	ew := &errWriter{w: w}
	height := (snap.MaxLayer() + 2) * graphLayerH

	pos := layoutSnapshot(snap)

	canvas := svg.New(ew)
	canvas.Startview(graphWidth, height, 0, 0, graphWidth, height)
	canvas.Title("Property DAG")

	for _, edge := range snap.Edges {
		from, to := pos[edge.From], pos[edge.To]
		canvas.Line(from[0], from[1], to[0], to[1], "stroke:"+colorEdge+";stroke-width:1")
	}
	for _, n := range snap.Nodes {
		p := pos[n.ID]
		fill := colorPlain
		switch {
		case n.Kind == KindTime:
			fill = colorClock
		case n.Subscriptions > 0:
			fill = colorSubbed
		}
		canvas.Circle(p[0], p[1], graphRadius, "fill:"+fill)
		canvas.Text(p[0], p[1]+graphFontPx/3, n.Label(),
			fmt.Sprintf("fill:%s;font-size:%dpx;text-anchor:middle", colorLabel, graphFontPx))
	}

	summary := fmt.Sprintf("Nodes: %d  Edges: %d  Subscriptions: %d  Tick: %d",
		len(snap.Nodes), len(snap.Edges), snap.Subscriptions(), snap.Time)
	canvas.Text(10, height-10, summary,
		fmt.Sprintf("fill:%s;font-size:%dpx", colorSummary, graphFontPx+4))
	canvas.End()
	return ew.err
}

// layoutSnapshot spreads each layer's nodes evenly across the canvas width.
func layoutSnapshot(snap GraphSnapshot) map[PropertyID][2]int {
	rows := make(map[int][]PropertyID)
	for _, n := range snap.Nodes {
		rows[n.Layer] = append(rows[n.Layer], n.ID)
	}
	pos := make(map[PropertyID][2]int, len(snap.Nodes))
	for layer, ids := range rows {
		step := graphWidth / (len(ids) + 1)
		for i, id := range ids {
			pos[id] = [2]int{(i + 1) * step, (layer + 1) * graphLayerH}
		}
	}
	return pos
}

// WriteGraphFile renders the graph to the file at path.
func (e *Engine) WriteGraphFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := e.RenderGraph(f); err != nil {
		f.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	return f.Close()
}

// SnapshotGraph writes the graph into dir as "<timestamp>_<label>.svg",
// creating dir if needed, and returns the file's path.
func (e *Engine) SnapshotGraph(dir, label string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	stamp := time.Now().Format("20060102_150405")
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.svg", stamp, sanitizeLabel(label)))
	if err := e.WriteGraphFile(path); err != nil {
		return "", err
	}
	return path, nil
}

// sanitizeLabel replaces characters that are unsafe in file names with
// underscores and falls back to "unlabeled" for empty strings.
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
