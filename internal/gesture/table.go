// Package gesture defines the set of LSE gestures the classifier can report.
package gesture

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyTable is returned when a table is built without gestures.
var ErrEmptyTable = errors.New("gesture table is empty")

// Gesture is one classifier output channel.
type Gesture struct {
	Index int    `json:"index"` // classifier output channel
	Name  string `json:"name"`  // label shown to the user
	Cue   string `json:"cue"`   // audio cue file, empty to speak the name
}

// Definition is the configuration form of a gesture.
type Definition struct {
	Name string `yaml:"name" json:"name"`
	Cue  string `yaml:"cue" json:"cue"`
}

// Table is an ordered, immutable set of gestures index-aligned with the
// classifier output.
type Table struct {
	gestures []Gesture
	byName   map[string]int
}

// NewTable builds a table from definitions in classifier channel order.
func NewTable(defs []Definition) (*Table, error) {
	if len(defs) == 0 {
		return nil, ErrEmptyTable
	}

	t := &Table{
		gestures: make([]Gesture, len(defs)),
		byName:   make(map[string]int, len(defs)),
	}
	for i, d := range defs {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			return nil, fmt.Errorf("gesture %d has no name", i)
		}
		key := strings.ToLower(name)
		if _, dup := t.byName[key]; dup {
			return nil, fmt.Errorf("duplicate gesture name %q", name)
		}
		t.byName[key] = i
		t.gestures[i] = Gesture{Index: i, Name: name, Cue: d.Cue}
	}
	return t, nil
}

// MustTable is NewTable for static tables; it panics on error.
func MustTable(defs ...Definition) *Table {
	t, err := NewTable(defs)
	if err != nil {
		panic(err)
	}
	return t
}

// Len returns the number of gestures, which is the expected classifier
// output length.
func (t *Table) Len() int {
	return len(t.gestures)
}

// At returns the gesture for a classifier channel.
func (t *Table) At(i int) (Gesture, bool) {
	if i < 0 || i >= len(t.gestures) {
		return Gesture{}, false
	}
	return t.gestures[i], true
}

// ByName looks a gesture up by label, ignoring case.
func (t *Table) ByName(name string) (Gesture, bool) {
	i, ok := t.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Gesture{}, false
	}
	return t.gestures[i], true
}

// All returns a copy of the gestures in channel order.
func (t *Table) All() []Gesture {
	out := make([]Gesture, len(t.gestures))
	copy(out, t.gestures)
	return out
}

// Default returns the four-gesture table of the first shipped model.
func Default() *Table {
	return MustTable(DefaultDefinitions()...)
}

// DefaultDefinitions lists the gestures of the first shipped model.
func DefaultDefinitions() []Definition {
	return []Definition{
		{Name: "Hola", Cue: "sounds/hola.wav"},
		{Name: "Adios", Cue: "sounds/adios.wav"},
		{Name: "Autonomia", Cue: "sounds/autonomia.wav"},
		{Name: "Igualdad", Cue: "sounds/igualdad.wav"},
	}
}
