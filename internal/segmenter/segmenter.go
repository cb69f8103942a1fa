// Package segmenter defines the grammatical-boundary predicate the
// converter core consumes. The real rule table is an out-of-scope external
// collaborator; StaticSegmenter is a FlatMap-backed reference
// implementation.
package segmenter

import (
	"kanaconv/internal/container"
	"kanaconv/internal/lattice"
)

// Segmenter decides where bunsetsu boundaries fall and how much a node's
// POS id should bias it toward the start or end of the whole lattice key.
type Segmenter interface {
	// IsBoundary reports whether a grammatical bunsetsu boundary exists
	// between lnode and rnode. singleSegmentMode relaxes the rule for
	// realtime single-segment conversion (only-edge mode).
	IsBoundary(lnode, rnode *lattice.Node, singleSegmentMode bool) bool
	PrefixPenalty(lid uint16) int32
	SuffixPenalty(rid uint16) int32
}

type ridLid struct {
	RID uint16
	LID uint16
}

func cmpRidLid(a, b ridLid) int {
	if a.RID != b.RID {
		return int(a.RID) - int(b.RID)
	}
	return int(a.LID) - int(b.LID)
}

func cmpU16(a, b uint16) int { return int(a) - int(b) }

// StaticSegmenter answers IsBoundary from an explicit (rid,lid) -> bool
// table (absent entries default to true: in the source rule tables, most
// adjacent POS pairs are boundaries, and only specific combinations glue
// together into one bunsetsu), and per-lid/per-rid penalties from a
// FlatMap, defaulting to zero. IsBoundary does not consult
// singleSegmentMode: both modes read the same table.
type StaticSegmenter struct {
	boundary *container.FlatMap[ridLid, bool]
	prefix   *container.FlatMap[uint16, int32]
	suffix   *container.FlatMap[uint16, int32]
}

// NewStaticSegmenter builds a StaticSegmenter. boundary maps (rid,lid) to
// an explicit non-boundary (false) override; prefix/suffix map POS ids to
// their penalty.
func NewStaticSegmenter(
	nonBoundaryPairs []container.Pair[ridLid, bool],
	prefixPenalties []container.Pair[uint16, int32],
	suffixPenalties []container.Pair[uint16, int32],
) *StaticSegmenter {
	b, err := container.NewFlatMap(nonBoundaryPairs, cmpRidLid)
	if err != nil {
		panic(err)
	}
	p, err := container.NewFlatMap(prefixPenalties, cmpU16)
	if err != nil {
		panic(err)
	}
	s, err := container.NewFlatMap(suffixPenalties, cmpU16)
	if err != nil {
		panic(err)
	}
	return &StaticSegmenter{boundary: b, prefix: p, suffix: s}
}

// RidLid constructs the (rid,lid) key used by the non-boundary table.
func RidLid(rid, lid uint16) ridLid { return ridLid{RID: rid, LID: lid} }

func (s *StaticSegmenter) IsBoundary(lnode, rnode *lattice.Node, singleSegmentMode bool) bool {
	if v, ok := s.boundary.FindOrNull(ridLid{RID: lnode.RID, LID: rnode.LID}); ok {
		return v
	}
	return true
}

func (s *StaticSegmenter) PrefixPenalty(lid uint16) int32 {
	if v, ok := s.prefix.FindOrNull(lid); ok {
		return v
	}
	return 0
}

func (s *StaticSegmenter) SuffixPenalty(rid uint16) int32 {
	if v, ok := s.suffix.FindOrNull(rid); ok {
		return v
	}
	return 0
}
