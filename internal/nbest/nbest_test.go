package nbest

import (
	"testing"

	"kanaconv/internal/connector"
	"kanaconv/internal/filter"
	"kanaconv/internal/lattice"
	"kanaconv/internal/posmatcher"
	"kanaconv/internal/request"
	"kanaconv/internal/search"
	"kanaconv/internal/segmenter"
)

func newEmptyPosMatcher() *posmatcher.StaticPosMatcher {
	return posmatcher.NewStaticPosMatcher(posmatcher.Sets{})
}

func newEmptySegmenter() *segmenter.StaticSegmenter {
	return segmenter.NewStaticSegmenter(nil, nil, nil)
}

// buildTwoCandidateLattice builds a 2-byte key "ab" with two single-node
// paths close enough in cost that the n-best search must surface both, in
// increasing cost order.
func buildTwoCandidateLattice(t *testing.T) (*lattice.Lattice, *connector.Matrix) {
	t.Helper()
	l := lattice.New()
	l.SetKey("ab")

	cheap := l.NewNode()
	cn := l.Node(cheap)
	cn.Key, cn.Value = "ab", "CHEAP"
	cn.LID, cn.RID = 1, 1
	cn.WCost = 100
	l.Insert(0, cheap)

	second := l.NewNode()
	sn := l.Node(second)
	sn.Key, sn.Value = "ab", "SECOND"
	sn.LID, sn.RID = 2, 2
	sn.WCost = 150
	l.Insert(0, second)

	conn := connector.NewMatrix(make([]int16, 9), 3, 1) // 3x3, all transitions cost 0
	if err := search.Viterbi(l, conn, len(l.Key())); err != nil {
		t.Fatalf("Viterbi: %v", err)
	}
	return l, conn
}

func newGenerator(l *lattice.Lattice, conn *connector.Matrix) *Generator {
	pos := newEmptyPosMatcher()
	return &Generator{
		Lattice:   l,
		Conn:      conn,
		Segmenter: newEmptySegmenter(),
		Pos:       pos,
		Filter:    &filter.CandidateFilter{Pos: pos},
	}
}

// P3: the first candidate an enumeration yields is the Viterbi-best path's
// surface value, not merely the lowest-fx agenda entry.
func TestFirstCandidateIsViterbiBest(t *testing.T) {
	l, conn := buildTwoCandidateLattice(t)
	g := newGenerator(l, conn)
	g.Reset(l.BOS(), l.EOS(), request.Strict)
	req := request.New(request.Conversion)

	c, ok := g.Next(req, "ab")
	if !ok {
		t.Fatal("Next() returned ok=false, want a candidate")
	}
	if c.Value != "CHEAP" {
		t.Fatalf("first candidate = %q, want CHEAP (the Viterbi-best path)", c.Value)
	}
}

// P1/P2: enumeration covers every distinct path reachable within costDiff
// of the best, in non-decreasing cost order, and stops once they are
// exhausted rather than looping or fabricating results.
func TestSecondCandidateIsNextCheapestDistinctPath(t *testing.T) {
	l, conn := buildTwoCandidateLattice(t)
	g := newGenerator(l, conn)
	g.Reset(l.BOS(), l.EOS(), request.Strict)
	req := request.New(request.Conversion)

	first, ok := g.Next(req, "ab")
	if !ok || first.Value != "CHEAP" {
		t.Fatalf("first = %+v, ok=%v, want CHEAP", first, ok)
	}

	second, ok := g.Next(req, "ab")
	if !ok {
		t.Fatal("Next() second call returned ok=false, want the SECOND-cost candidate")
	}
	if second.Value != "SECOND" {
		t.Fatalf("second candidate = %q, want SECOND", second.Value)
	}
	if second.Cost < first.Cost {
		t.Fatalf("ranking violated: second.Cost=%d < first.Cost=%d", second.Cost, first.Cost)
	}

	if _, ok := g.Next(req, "ab"); ok {
		t.Fatal("Next() after exhausting both paths returned ok=true, want false")
	}
}

// Scenario 1: in Only-edge mode a multi-node single-segment candidate gets
// one InnerSegmentBoundary per grammatical boundary crossed. Exercised
// directly against makeCandidate/fillInnerSegmentInfo (rather than through
// the full A* search) to isolate the packaging logic from search order.
func TestOnlyEdgeModeFillsInnerSegmentBoundary(t *testing.T) {
	l := lattice.New()
	l.SetKey("ab")

	pos := newEmptyPosMatcher()

	n1 := l.NewNode()
	a := l.Node(n1)
	a.Key, a.Value = "a", "A"
	a.LID, a.RID = 1, 1
	l.Insert(0, n1)

	n2 := l.NewNode()
	b := l.Node(n2)
	b.Key, b.Value = "b", "B"
	b.LID, b.RID = 1, 1
	l.Insert(1, n2)

	g := &Generator{
		Lattice: l, Segmenter: newEmptySegmenter(), Pos: pos,
		Filter: &filter.CandidateFilter{Pos: pos},
	}
	g.Reset(l.BOS(), l.EOS(), request.OnlyEdge)

	c := g.makeCandidate(0, 0, 0, []lattice.NodeID{n1, n2})
	if c.Value != "AB" || c.Key != "ab" {
		t.Fatalf("candidate = %+v, want Key=ab Value=AB", c)
	}
	// The empty segmenter's boundary table has no explicit non-boundary
	// override, so every adjacent node pair defaults to a boundary: one
	// InnerSegmentBoundary entry per node.
	if len(c.InnerSegmentBoundary) != 2 {
		t.Fatalf("InnerSegmentBoundary = %+v, want 2 entries (default-boundary table)",
			c.InnerSegmentBoundary)
	}
	if c.InnerSegmentBoundary[0].KeyLen != 1 || c.InnerSegmentBoundary[1].KeyLen != 1 {
		t.Fatalf("InnerSegmentBoundary = %+v, want KeyLen=1 per entry", c.InnerSegmentBoundary)
	}
}
