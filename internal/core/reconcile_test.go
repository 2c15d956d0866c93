package core

import (
	"reflect"
	"testing"
)

func TestDiffRoster(t *testing.T) {
	diff := DiffRoster([]string{"A", "B", "C"}, []string{"B", "C", "D"})
	if !reflect.DeepEqual(diff.ToAdd, []string{"D"}) {
		t.Fatalf("toAdd %v, want [D]", diff.ToAdd)
	}
	if !reflect.DeepEqual(diff.ToRemove, []string{"A"}) {
		t.Fatalf("toRemove %v, want [A]", diff.ToRemove)
	}
}

func TestDiffRosterIdentical(t *testing.T) {
	diff := DiffRoster([]string{"A", "B"}, []string{"B", "A"})
	if !diff.Empty() {
		t.Fatalf("expected empty diff, got %+v", diff)
	}
}

// Repeated diffs over the same inputs are byte-for-byte identical, even
// though set iteration order is randomized.
func TestDiffRosterDeterministic(t *testing.T) {
	current := []string{"가", "나", "다", "라"}
	authoritative := []string{"다", "마", "바", "사"}

	first := DiffRoster(current, authoritative)
	for i := 0; i < 20; i++ {
		again := DiffRoster(current, authoritative)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("diff not deterministic: %+v vs %+v", first, again)
		}
	}
	if !reflect.DeepEqual(first.ToAdd, []string{"마", "바", "사"}) {
		t.Fatalf("toAdd %v", first.ToAdd)
	}
}

func TestDiffRosterEmptySides(t *testing.T) {
	if diff := DiffRoster(nil, nil); !diff.Empty() {
		t.Fatalf("expected empty diff, got %+v", diff)
	}

	diff := DiffRoster(nil, []string{"A"})
	if !reflect.DeepEqual(diff.ToAdd, []string{"A"}) || len(diff.ToRemove) != 0 {
		t.Fatalf("unexpected diff %+v", diff)
	}

	diff = DiffRoster([]string{"A"}, nil)
	if !reflect.DeepEqual(diff.ToRemove, []string{"A"}) || len(diff.ToAdd) != 0 {
		t.Fatalf("unexpected diff %+v", diff)
	}
}

func TestDiffRosterIgnoresBlankNames(t *testing.T) {
	diff := DiffRoster([]string{"", "A"}, []string{"A", ""})
	if !diff.Empty() {
		t.Fatalf("expected empty diff, got %+v", diff)
	}
}
