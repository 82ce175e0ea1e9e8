package sap

import (
	"fmt"
	"strconv"
	"strings"
)

// PropertyID is a generational reference to a store slot. The zero value is
// invalid. When a slot is freed its generation is bumped, so an id held past
// the entry's removal never resolves to whatever reuses the slot.
type PropertyID struct {
	index uint32
	gen   uint32
}

// IsZero reports whether id is the zero (invalid) id.
func (id PropertyID) IsZero() bool { return id.gen == 0 }

// String renders the id as "<index>v<generation>".
func (id PropertyID) String() string {
	return strconv.FormatUint(uint64(id.index), 10) + "v" + strconv.FormatUint(uint64(id.gen), 10)
}

// ParsePropertyID parses the String form back into an id.
func ParsePropertyID(s string) (PropertyID, error) {
	idx, gen, ok := strings.Cut(s, "v")
	if !ok {
		return PropertyID{}, fmt.Errorf("parse property id %q: missing generation", s)
	}
	i, err := strconv.ParseUint(idx, 10, 32)
	if err != nil {
		return PropertyID{}, fmt.Errorf("parse property id %q: %w", s, err)
	}
	g, err := strconv.ParseUint(gen, 10, 32)
	if err != nil || g == 0 {
		return PropertyID{}, fmt.Errorf("parse property id %q: bad generation", s)
	}
	return PropertyID{index: uint32(i), gen: uint32(g)}, nil
}

// less orders ids by slot index, then generation. Used wherever iteration
// order must be deterministic.
func (id PropertyID) less(other PropertyID) bool {
	if id.index != other.index {
		return id.index < other.index
	}
	return id.gen < other.gen
}

// slot is one arena cell. ent is nil while the slot is on the free list.
type slot struct {
	gen uint32
	ent *entry
}

// arena is a slot map keyed by PropertyID. Index 0 is never handed out.
type arena struct {
	slots []slot
	free  []uint32
	live  int
}

func (a *arena) insert(ent *entry) PropertyID {
	if len(a.slots) == 0 {
		a.slots = append(a.slots, slot{})
	}
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		idx = uint32(len(a.slots))
		a.slots = append(a.slots, slot{})
	}
	s := &a.slots[idx]
	s.gen++
	s.ent = ent
	a.live++
	id := PropertyID{index: idx, gen: s.gen}
	ent.id = id
	return id
}

func (a *arena) get(id PropertyID) *entry {
	if id.gen == 0 || int(id.index) >= len(a.slots) {
		return nil
	}
	s := &a.slots[id.index]
	if s.gen != id.gen {
		return nil
	}
	return s.ent
}

func (a *arena) remove(id PropertyID) bool {
	if a.get(id) == nil {
		return false
	}
	s := &a.slots[id.index]
	s.ent = nil
	s.gen++
	a.free = append(a.free, id.index)
	a.live--
	return true
}

// each visits live entries in slot order.
func (a *arena) each(fn func(*entry)) {
	for i := range a.slots {
		if ent := a.slots[i].ent; ent != nil {
			fn(ent)
		}
	}
}
