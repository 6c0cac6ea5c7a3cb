package prim

import "testing"

func TestLookupKnownPrimitives(t *testing.T) {
	tests := []struct {
		name  string
		arity int
	}{
		{"fxadd1", 1},
		{"fxzero?", 1},
		{"fx+", 2},
		{"char>", 2},
		{"not", 1},
	}
	for _, tt := range tests {
		d, ok := Lookup(tt.name)
		if !ok {
			t.Fatalf("Lookup(%q): expected a hit", tt.name)
		}
		if d.Name != tt.name || d.Arity != tt.arity {
			t.Errorf("Lookup(%q) = %+v, want arity %d", tt.name, d, tt.arity)
		}
	}
}

func TestLookupMiss(t *testing.T) {
	if _, ok := Lookup("not-a-primitive"); ok {
		t.Fatal("Lookup on unknown name: expected a miss")
	}
}

func TestTableHasNoDuplicateNames(t *testing.T) {
	seen := make(map[string]bool, len(Table))
	for _, d := range Table {
		if seen[d.Name] {
			t.Errorf("duplicate primitive name in Table: %q", d.Name)
		}
		seen[d.Name] = true
	}
}

func TestTableArityIsOneOrTwo(t *testing.T) {
	for _, d := range Table {
		if d.Arity != 1 && d.Arity != 2 {
			t.Errorf("%q has unsupported arity %d", d.Name, d.Arity)
		}
	}
}
