package container

import (
	"testing"

	"github.com/kr/pretty"
)

func intCmp(a, b int) int { return a - b }

// TestFlatMapFindOrNull covers a small FlatMap<i32, string> built from
// {(1,"one"),(3,"three"),(5,"five")}.
func TestFlatMapFindOrNull(t *testing.T) {
	m := MustNewFlatMap([]Pair[int, string]{
		{1, "one"}, {3, "three"}, {5, "five"},
	}, intCmp)

	cases := []struct {
		query int
		want  string
		ok    bool
	}{
		{0, "", false},
		{1, "one", true},
		{2, "", false},
		{3, "three", true},
		{4, "", false},
		{5, "five", true},
		{6, "", false},
	}
	for _, c := range cases {
		got, ok := m.FindOrNull(c.query)
		if ok != c.ok || got != c.want {
			t.Errorf("FindOrNull(%d) = (%q, %v), want (%q, %v)", c.query, got, ok, c.want, c.ok)
		}
	}
}

func TestFlatMapDuplicateKeyIsFatal(t *testing.T) {
	_, err := NewFlatMap([]Pair[int, string]{{1, "a"}, {1, "b"}}, intCmp)
	if err == nil {
		t.Fatal("expected duplicate-key construction error, got nil")
	}
}

func TestFlatMapUnsortedInputIsSortedAtConstruction(t *testing.T) {
	m := MustNewFlatMap([]Pair[int, string]{{5, "five"}, {1, "one"}, {3, "three"}}, intCmp)
	if m.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", m.Len())
	}
	got, ok := m.FindOrNull(3)
	if !ok || got != "three" {
		t.Fatalf("FindOrNull(3) = (%# v, %v): %s", pretty.Formatter(got), ok, "want (three, true)")
	}
}

func TestFlatMultiMapEqualSpan(t *testing.T) {
	mm := NewFlatMultiMap([]Pair[int, string]{
		{1, "a"}, {2, "b"}, {2, "c"}, {2, "d"}, {3, "e"},
	}, intCmp)

	span := mm.EqualSpan(2)
	if len(span) != 3 {
		t.Fatalf("EqualSpan(2) len = %d, want 3 (got %# v)", len(span), pretty.Formatter(span))
	}
	seen := map[string]bool{}
	for _, p := range span {
		seen[p.Value] = true
	}
	for _, want := range []string{"b", "c", "d"} {
		if !seen[want] {
			t.Errorf("EqualSpan(2) missing value %q", want)
		}
	}

	if span := mm.EqualSpan(9); span != nil {
		t.Errorf("EqualSpan(9) = %#v, want nil", span)
	}
}

func TestFlatSetContains(t *testing.T) {
	s := NewFlatSet([]int{5, 1, 3, 1, 5}, intCmp)
	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3 after dedup", s.Len())
	}
	for _, x := range []int{1, 3, 5} {
		if !s.Contains(x) {
			t.Errorf("Contains(%d) = false, want true", x)
		}
	}
	if s.Contains(2) {
		t.Errorf("Contains(2) = true, want false")
	}
}
