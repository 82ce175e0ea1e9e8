package manifest

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/phanxgames/sap"
)

// Graph is a manifest instantiated on an engine.
type Graph struct {
	engine *sap.Engine
	names  []string // declaration order
	built  []string // insertion order, dependencies first
	props  map[string]sap.Property[float64]
	byID   map[sap.PropertyID]string
}

// Build inserts every declared property into e, dependencies first. Nothing is
// inserted when the manifest is invalid or its declarations form a cycle.
func Build(e *sap.Engine, m *Manifest) (*Graph, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	order, err := declarationOrder(m)
	if err != nil {
		return nil, err
	}
	g := &Graph{
		engine: e,
		props:  make(map[string]sap.Property[float64], len(m.Properties)),
		byID:   make(map[sap.PropertyID]string, len(m.Properties)),
	}
	for _, p := range m.Properties {
		g.names = append(g.names, p.Name)
	}
	for _, i := range order {
		p := m.Properties[i]
		var prop sap.Property[float64]
		if p.Value != nil {
			prop = sap.NewNamed(e, p.Name, *p.Value)
		} else {
			prop = g.compute(p.Name, p.Expr)
		}
		g.props[p.Name] = prop
		g.built = append(g.built, p.Name)
		g.byID[prop.ID()] = p.Name
	}
	return g, nil
}

// declarationOrder returns property indexes with dependencies first. Ties keep
// declaration order.
func declarationOrder(m *Manifest) ([]int, error) {
	index := make(map[string]int, len(m.Properties))
	for i, p := range m.Properties {
		index[p.Name] = i
	}
	indegree := make([]int, len(m.Properties))
	dependents := make([][]int, len(m.Properties))
	for i, p := range m.Properties {
		if p.Expr == nil {
			continue
		}
		for _, d := range p.Expr.Deps {
			j := index[d]
			dependents[j] = append(dependents[j], i)
			indegree[i]++
		}
	}

	var ready, order []int
	for i, n := range indegree {
		if n == 0 {
			ready = append(ready, i)
		}
	}
	for len(ready) > 0 {
		slices.Sort(ready)
		i := ready[0]
		ready = ready[1:]
		order = append(order, i)
		for _, j := range dependents[i] {
			indegree[j]--
			if indegree[j] == 0 {
				ready = append(ready, j)
			}
		}
	}
	if len(order) < len(m.Properties) {
		var stuck []string
		for i, n := range indegree {
			if n > 0 {
				stuck = append(stuck, m.Properties[i].Name)
			}
		}
		return nil, fmt.Errorf("manifest: %w among %s", sap.ErrCycle, strings.Join(stuck, ", "))
	}
	return order, nil
}

func (g *Graph) compute(name string, x *Expr) sap.Property[float64] {
	if x.Op == OpTime {
		clock := g.engine.TimeProperty()
		f := x.factor(1)
		return sap.ComputedNamed(g.engine, name, func() float64 {
			return float64(clock.Get()) * f
		}, clock)
	}

	deps := make([]sap.Property[float64], len(x.Deps))
	ids := make([]sap.Dependency, len(x.Deps))
	for i, d := range x.Deps {
		deps[i] = g.props[d]
		ids[i] = deps[i]
	}
	read := func() []float64 {
		vs := make([]float64, len(deps))
		for i, d := range deps {
			vs[i] = d.Get()
		}
		return vs
	}

	var eval func() float64
	switch x.Op {
	case OpSum:
		eval = func() float64 {
			var s float64
			for _, v := range read() {
				s += v
			}
			return s
		}
	case OpProduct:
		eval = func() float64 {
			p := 1.0
			for _, v := range read() {
				p *= v
			}
			return p
		}
	case OpMin:
		eval = func() float64 { return slices.Min(read()) }
	case OpMax:
		eval = func() float64 { return slices.Max(read()) }
	case OpMean:
		eval = func() float64 {
			vs := read()
			var s float64
			for _, v := range vs {
				s += v
			}
			return s / float64(len(vs))
		}
	case OpScale:
		f := x.factor(1)
		eval = func() float64 { return deps[0].Get() * f }
	case OpOffset:
		f := x.factor(0)
		eval = func() float64 { return deps[0].Get() + f }
	default:
		// Validate rejects unknown ops.
		eval = func() float64 { return math.NaN() }
	}
	return sap.ComputedNamed(g.engine, name, eval, ids...)
}

// Engine returns the engine the graph was built on.
func (g *Graph) Engine() *sap.Engine { return g.engine }

// Names returns property names in declaration order.
func (g *Graph) Names() []string { return slices.Clone(g.names) }

// Property returns the handle for name.
func (g *Graph) Property(name string) (sap.Property[float64], bool) {
	p, ok := g.props[name]
	return p, ok
}

// NameOf returns the manifest name of id, or "" when id was not declared.
func (g *Graph) NameOf(id sap.PropertyID) string { return g.byID[id] }

// Value reads name through the engine.
func (g *Graph) Value(name string) (float64, error) {
	p, ok := g.props[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownName, name)
	}
	return p.TryGet()
}

// Dispose removes every entry the graph inserted, dependents first.
func (g *Graph) Dispose() error {
	var errs []error
	for _, name := range slices.Backward(g.built) {
		if p := g.props[name]; p.Exists() {
			if err := p.Dispose(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
