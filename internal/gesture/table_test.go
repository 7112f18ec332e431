package gesture

import (
	"errors"
	"testing"
)

func TestNewTable(t *testing.T) {
	t.Run("indexes follow definition order", func(t *testing.T) {
		table := Default()

		if table.Len() != 4 {
			t.Fatalf("expected 4 gestures, got %d", table.Len())
		}
		want := []string{"Hola", "Adios", "Autonomia", "Igualdad"}
		for i, name := range want {
			g, ok := table.At(i)
			if !ok {
				t.Fatalf("expected gesture at %d", i)
			}
			if g.Name != name || g.Index != i {
				t.Errorf("channel %d: expected %s, got %+v", i, name, g)
			}
			if g.Cue == "" {
				t.Errorf("channel %d: expected a cue", i)
			}
		}
	})

	t.Run("empty table is rejected", func(t *testing.T) {
		_, err := NewTable(nil)
		if !errors.Is(err, ErrEmptyTable) {
			t.Errorf("expected ErrEmptyTable, got %v", err)
		}
	})

	t.Run("blank names are rejected", func(t *testing.T) {
		if _, err := NewTable([]Definition{{Name: "Hola"}, {Name: "  "}}); err == nil {
			t.Error("expected error for blank name")
		}
	})

	t.Run("duplicate names are rejected", func(t *testing.T) {
		if _, err := NewTable([]Definition{{Name: "Hola"}, {Name: "hola"}}); err == nil {
			t.Error("expected error for duplicate name")
		}
	})

	t.Run("six gesture variant", func(t *testing.T) {
		defs := append(DefaultDefinitions(), Definition{Name: "Gracias"}, Definition{Name: "Familia"})
		table, err := NewTable(defs)
		if err != nil {
			t.Fatalf("NewTable() error = %v", err)
		}
		if table.Len() != 6 {
			t.Errorf("expected 6 gestures, got %d", table.Len())
		}
		g, _ := table.At(5)
		if g.Name != "Familia" || g.Cue != "" {
			t.Errorf("unexpected last gesture %+v", g)
		}
	})
}

func TestTable_Lookup(t *testing.T) {
	table := Default()

	if _, ok := table.At(-1); ok {
		t.Error("expected negative index to miss")
	}
	if _, ok := table.At(table.Len()); ok {
		t.Error("expected out of range index to miss")
	}

	g, ok := table.ByName(" igualdad ")
	if !ok || g.Index != 3 {
		t.Errorf("expected Igualdad at 3, got %+v ok=%v", g, ok)
	}

	all := table.All()
	all[0].Name = "changed"
	if g, _ := table.At(0); g.Name != "Hola" {
		t.Error("All() must return a copy")
	}
}
