// Package manifest loads YAML descriptions of property graphs and the scripts
// that exercise them. A manifest declares named float64 properties, each
// either a literal value or an expression over other properties:
//
//	properties:
//	  - name: width
//	    value: 3
//	  - name: area
//	    expr: {op: product, deps: [width, width]}
//	script:
//	  - {action: set, target: width, value: 4}
//	  - {action: expect, target: area, value: 16}
//
// The same document may be written in TOML. Declarations may appear in any
// order. Build rejects unknown names and dependency cycles before inserting
// anything into the engine.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Expression operators.
const (
	OpSum     = "sum"     // sum of deps; zero with no deps
	OpProduct = "product" // product of deps; one with no deps
	OpMin     = "min"     // smallest dep
	OpMax     = "max"     // largest dep
	OpMean    = "mean"    // arithmetic mean of deps
	OpScale   = "scale"   // single dep times factor
	OpOffset  = "offset"  // single dep plus factor
	OpTime    = "time"    // engine clock times factor
)

// Sentinel errors for malformed manifests.
var (
	ErrUnknownName = errors.New("unknown property")
	ErrDuplicate   = errors.New("duplicate property")
	ErrInvalid     = errors.New("invalid manifest")
)

// Manifest is the decoded YAML document.
type Manifest struct {
	Name       string     `yaml:"name,omitempty" toml:"name"`
	Properties []Property `yaml:"properties" toml:"properties"`
	Script     []Step     `yaml:"script,omitempty" toml:"script"`
}

// Property declares one named entry. Exactly one of Value and Expr is set.
type Property struct {
	Name  string   `yaml:"name" toml:"name"`
	Value *float64 `yaml:"value,omitempty" toml:"value"`
	Expr  *Expr    `yaml:"expr,omitempty" toml:"expr"`
}

// Expr is an expression over other declared properties.
type Expr struct {
	Op   string   `yaml:"op" toml:"op"`
	Deps []string `yaml:"deps,omitempty" toml:"deps"`
	// Factor is the multiplier for scale and time (default 1) and the
	// addend for offset (default 0).
	Factor *float64 `yaml:"factor,omitempty" toml:"factor"`
}

func (x *Expr) factor(def float64) float64 {
	if x.Factor == nil {
		return def
	}
	return *x.Factor
}

// Parse decodes and validates a manifest. Unknown YAML fields are errors.
func Parse(data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var m Manifest
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// ParseTOML is Parse for TOML documents. Undecoded keys are errors.
func ParseTOML(data []byte) (*Manifest, error) {
	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return nil, fmt.Errorf("parse manifest: unknown field %s", keys[0])
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads and parses the manifest at path. Files ending in .toml are
// decoded as TOML, everything else as YAML.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}
	parse := Parse
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		parse = ParseTOML
	}
	m, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Validate checks declarations and script steps without touching an engine.
// Cycles are reported by Build.
func (m *Manifest) Validate() error {
	if len(m.Properties) == 0 {
		return fmt.Errorf("%w: no properties", ErrInvalid)
	}
	seen := make(map[string]bool, len(m.Properties))
	for _, p := range m.Properties {
		if p.Name == "" {
			return fmt.Errorf("%w: property without a name", ErrInvalid)
		}
		if seen[p.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicate, p.Name)
		}
		seen[p.Name] = true
	}
	for _, p := range m.Properties {
		if err := p.validate(seen); err != nil {
			return err
		}
	}
	for i, st := range m.Script {
		if err := st.validate(m); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, st.Action, err)
		}
	}
	return nil
}

func (p Property) validate(names map[string]bool) error {
	switch {
	case p.Value != nil && p.Expr != nil:
		return fmt.Errorf("%w: %q has both value and expr", ErrInvalid, p.Name)
	case p.Value == nil && p.Expr == nil:
		return fmt.Errorf("%w: %q needs a value or an expr", ErrInvalid, p.Name)
	case p.Value != nil:
		return nil
	}
	x := p.Expr
	for _, d := range x.Deps {
		if !names[d] {
			return fmt.Errorf("%w: %q (dependency of %q)", ErrUnknownName, d, p.Name)
		}
	}
	n := len(x.Deps)
	switch x.Op {
	case OpSum, OpProduct:
	case OpMin, OpMax, OpMean:
		if n == 0 {
			return fmt.Errorf("%w: %s in %q needs at least one dependency", ErrInvalid, x.Op, p.Name)
		}
	case OpScale, OpOffset:
		if n != 1 {
			return fmt.Errorf("%w: %s in %q needs exactly one dependency, got %d", ErrInvalid, x.Op, p.Name, n)
		}
	case OpTime:
		if n != 0 {
			return fmt.Errorf("%w: time in %q takes no dependencies", ErrInvalid, p.Name)
		}
	default:
		return fmt.Errorf("%w: unknown op %q in %q", ErrInvalid, x.Op, p.Name)
	}
	return nil
}

func (m *Manifest) lookup(name string) (Property, bool) {
	for _, p := range m.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}
