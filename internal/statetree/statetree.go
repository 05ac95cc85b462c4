// Package statetree holds the live variable namespace the engine
// publishes into: named groups of named typed slots, readable and (where
// permitted) writable by remote clients. Slots are last-writer-wins cells
// with no cross-slot atomicity; a remote reader may observe a torn mix of
// old and new values while a publish cycle is in flight.
package statetree

import "sync"

type Tree struct {
	mu     sync.RWMutex
	groups map[string]*Group
	order  []string
}

func New() *Tree {
	return &Tree{groups: make(map[string]*Group)}
}

// Group returns the named group, creating it on first use.
func (t *Tree) Group(name string) *Group {
	t.mu.Lock()
	defer t.mu.Unlock()

	if g, ok := t.groups[name]; ok {
		return g
	}

	g := &Group{name: name, slots: make(map[string]*Slot)}
	t.groups[name] = g
	t.order = append(t.order, name)

	return g
}

// Lookup finds a slot by group and slot name.
func (t *Tree) Lookup(group, slot string) (*Slot, bool) {
	t.mu.RLock()
	g, ok := t.groups[group]
	t.mu.RUnlock()
	if !ok {
		return nil, false
	}

	return g.Slot(slot)
}

// Snapshot copies the current value of every slot, grouped by group name.
// Values are read one slot at a time; consistency across slots is not
// guaranteed.
func (t *Tree) Snapshot() map[string]map[string]any {
	t.mu.RLock()
	names := make([]string, len(t.order))
	copy(names, t.order)
	t.mu.RUnlock()

	out := make(map[string]map[string]any, len(names))
	for _, name := range names {
		t.mu.RLock()
		g := t.groups[name]
		t.mu.RUnlock()
		out[name] = g.values()
	}

	return out
}

type Group struct {
	name  string
	mu    sync.RWMutex
	slots map[string]*Slot
	order []string
}

func (g *Group) Name() string {
	return g.name
}

// CreateSlot adds a named slot with its initial value. Creating a slot
// that already exists returns the existing one; slots live for the
// process lifetime.
func (g *Group) CreateSlot(name string, initial any) *Slot {
	g.mu.Lock()
	defer g.mu.Unlock()

	if s, ok := g.slots[name]; ok {
		return s
	}

	s := &Slot{name: name, value: initial}
	g.slots[name] = s
	g.order = append(g.order, name)

	return s
}

// Slot finds a slot by name.
func (g *Group) Slot(name string) (*Slot, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	s, ok := g.slots[name]

	return s, ok
}

func (g *Group) values() map[string]any {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[string]any, len(g.slots))
	for name, s := range g.slots {
		out[name] = s.Value()
	}

	return out
}

// Slot is a single named typed cell. The engine overwrites it every
// cycle; remote clients may overwrite writable slots between cycles.
type Slot struct {
	name     string
	mu       sync.RWMutex
	value    any
	writable bool
}

func (s *Slot) Name() string {
	return s.name
}

func (s *Slot) Write(v any) {
	s.mu.Lock()
	s.value = v
	s.mu.Unlock()
}

func (s *Slot) Value() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.value
}

// SetWritable permits remote clients to write this slot. The engine does
// not validate such writes; they are overwritten on the next cycle.
func (s *Slot) SetWritable() {
	s.mu.Lock()
	s.writable = true
	s.mu.Unlock()
}

func (s *Slot) Writable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.writable
}
