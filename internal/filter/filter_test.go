package filter

import (
	"testing"

	"kanaconv/internal/candidate"
	"kanaconv/internal/lattice"
	"kanaconv/internal/posmatcher"
	"kanaconv/internal/request"
)

func newTestPosMatcher() *posmatcher.StaticPosMatcher {
	return posmatcher.NewStaticPosMatcher(posmatcher.Sets{
		IsolatedWord: []uint16{500},
		UnknownID:    999,
	})
}

func node(key, value string, lid, rid uint16) *lattice.Node {
	return &lattice.Node{Key: key, Value: value, LID: lid, RID: rid, Type: lattice.Normal}
}

func TestDuplicateCandidateIsRejectedButEnumerationContinues(t *testing.T) {
	f := &CandidateFilter{Pos: newTestPosMatcher()}
	f.Reset()
	req := request.New(request.Conversion)

	c1 := &candidate.Candidate{Key: "abc", Value: "abc", ContentKey: "abc", ContentValue: "abc"}
	n1 := []*lattice.Node{node("abc", "abc", 1, 1)}
	if v := f.Filter(req, "abc", c1, n1, n1); v != Good {
		t.Fatalf("first candidate = %v, want Good", v)
	}

	c2 := &candidate.Candidate{Key: "abc", Value: "abc", ContentKey: "abc", ContentValue: "abc"}
	if v := f.Filter(req, "abc", c2, n1, n1); v != Bad {
		t.Fatalf("duplicate candidate = %v, want Bad (not StopEnumeration)", v)
	}
}

func TestIsolatedWordInMiddleIsRejected(t *testing.T) {
	f := &CandidateFilter{Pos: newTestPosMatcher()}
	f.Reset()
	req := request.New(request.Conversion)

	nodes := []*lattice.Node{
		node("abc", "abc", 1, 1),
		node("isolated", "isolated", 500, 500), // isolated-word POS
		node("xyz", "xyz", 1, 1),
	}
	c := &candidate.Candidate{
		Key: "abcisolatedxyz", Value: "abcisolatedxyz",
		ContentKey: "abcisolatedxyz", ContentValue: "abcisolatedxyz",
	}
	if v := f.Filter(req, "abcisolatedxyz", c, nodes, nodes); v != Bad {
		t.Fatalf("candidate with mid-path isolated word = %v, want Bad", v)
	}
}

// P6: a singleton isolated-word/general-symbol candidate is only Good when
// it actually sits at BOS/EOS; one flanked by a real Normal/Constrained
// neighbor on the best path is Bad even though containsIsolatedWordOrGeneralSymbol
// never fires for a single-node path.
func TestSingletonIsolatedWordFlankedByNormalIsRejected(t *testing.T) {
	l := lattice.New()
	l.SetKey("abcisolatedxyz")

	left := l.NewNode()
	*l.Node(left) = lattice.Node{Key: "abc", Value: "abc", LID: 1, RID: 1, Type: lattice.Normal}

	isolated := l.NewNode()
	*l.Node(isolated) = lattice.Node{
		Key: "isolated", Value: "isolated", LID: 500, RID: 500, Type: lattice.Normal,
		Prev: left,
	}

	f := &CandidateFilter{Pos: newTestPosMatcher(), Lattice: l}
	f.Reset()
	req := request.New(request.Conversion)

	nodes := []*lattice.Node{l.Node(isolated)}
	c := &candidate.Candidate{
		Key: "isolated", Value: "isolated",
		ContentKey: "isolated", ContentValue: "isolated",
	}
	if v := f.Filter(req, "isolated", c, nodes, nodes); v != Bad {
		t.Fatalf("singleton isolated word flanked by Normal prev = %v, want Bad", v)
	}
}

// A singleton isolated-word/general-symbol candidate with no real lattice
// neighbor on either side (the BOS/EOS case) is still accepted.
func TestSingletonIsolatedWordAtBoundaryIsAccepted(t *testing.T) {
	l := lattice.New()
	l.SetKey("isolated")

	isolated := l.NewNode()
	*l.Node(isolated) = lattice.Node{Key: "isolated", Value: "isolated", LID: 500, RID: 500, Type: lattice.Normal}

	f := &CandidateFilter{Pos: newTestPosMatcher(), Lattice: l}
	f.Reset()
	req := request.New(request.Conversion)

	nodes := []*lattice.Node{l.Node(isolated)}
	c := &candidate.Candidate{
		Key: "isolated", Value: "isolated",
		ContentKey: "isolated", ContentValue: "isolated",
	}
	if v := f.Filter(req, "isolated", c, nodes, nodes); v != Good {
		t.Fatalf("singleton isolated word with no real neighbor = %v, want Good", v)
	}
}

func TestRealtimeConversionBypassesTransliterationCheck(t *testing.T) {
	f := &CandidateFilter{Pos: newTestPosMatcher()}
	f.Reset()
	req := request.New(request.Conversion)

	nodes := []*lattice.Node{
		node("PC", "PC", 999, 999),
		node("てすと", "テスト", 999, 999),
	}
	c := &candidate.Candidate{
		Key: "PCてすと", Value: "PCテスト",
		ContentKey: "PCてすと", ContentValue: "PCテスト",
		Attributes: candidate.AttrRealtimeConversion,
	}
	if v := f.Filter(req, "PCてすと", c, nodes, nodes); v != Good {
		t.Fatalf("realtime-conversion katakana transliteration = %v, want Good", v)
	}
}

// P4: within one segment's candidate list, duplicate values are rejected
// (except user-dictionary candidates, which this test does not exercise).
func TestNoDuplicateCandidateValues(t *testing.T) {
	f := &CandidateFilter{Pos: newTestPosMatcher()}
	f.Reset()
	req := request.New(request.Conversion)

	var accepted []string
	values := []string{"同じ", "違う", "同じ", "別"}
	for _, v := range values {
		n := []*lattice.Node{node(v, v, 1, 1)}
		c := &candidate.Candidate{Key: v, Value: v, ContentKey: v, ContentValue: v}
		if verdict := f.Filter(req, v, c, n, n); verdict == Good {
			accepted = append(accepted, v)
		}
	}
	seenValues := map[string]int{}
	for _, v := range accepted {
		seenValues[v]++
	}
	for v, count := range seenValues {
		if count > 1 {
			t.Fatalf("value %q accepted %d times, want at most once", v, count)
		}
	}
}

// P5: filter decisions depend only on the sequence prefix, not on call
// order relative to some external clock — replaying the same prefix twice
// (with Reset between) produces identical verdicts.
func TestFilterDeterminism(t *testing.T) {
	req := request.New(request.Conversion)
	values := []string{"a", "b", "a", "c"}

	run := func() []Verdict {
		f := &CandidateFilter{Pos: newTestPosMatcher()}
		f.Reset()
		var out []Verdict
		for _, v := range values {
			n := []*lattice.Node{node(v, v, 1, 1)}
			c := &candidate.Candidate{Key: v, Value: v, ContentKey: v, ContentValue: v}
			out = append(out, f.Filter(req, v, c, n, n))
		}
		return out
	}

	first := run()
	second := run()
	if len(first) != len(second) {
		t.Fatalf("length mismatch: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("verdict[%d] = %v vs %v, want identical replay", i, first[i], second[i])
		}
	}
}
