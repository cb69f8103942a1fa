package convert

import (
	"kanaconv/internal/candidate"
	"kanaconv/internal/kanautil"
	"kanaconv/internal/lattice"
	"kanaconv/internal/nbest"
	"kanaconv/internal/request"
)

// insertMode mirrors the three shapes MakeSegments packages a best-path
// into: one segment per grammatical boundary, one segment spanning the
// whole path, or a single partial segment covering only its first inner
// boundary (the mobile mixed-conversion case).
type insertMode int

const (
	modeMultiSegments insertMode = iota
	modeSingleSegment
	modeFirstInnerSegment
)

func boundaryModeFor(m insertMode) request.BoundaryMode {
	if m == modeMultiSegments {
		return request.Strict
	}
	return request.OnlyEdge
}

const (
	realtimeWholePathBudget = 3
	realtimeCostDiff        = 2302 // 500*ln(100), candidate_filter.cc-style log-odds bound
)

// makeSegments dispatches to the conversion/reverse/prediction packaging
// path and overwrites segs.Conversion with the result. Grounded in
// ConvertForRequest's final MakeSegments call.
func (c *Converter) makeSegments(req *request.Request, segs *candidate.Segments, origSegments []candidate.Segment, group []int, terminal lattice.NodeID) {
	switch req.Type {
	case request.Reverse:
		segs.Conversion = c.insertCandidates(req, origSegments, group, terminal, 1, modeMultiSegments)
	case request.Conversion:
		segs.Conversion = c.insertCandidates(req, origSegments, group, terminal, req.MaxConversionCandidatesSize, modeMultiSegments)
	default: // Prediction, Suggestion
		segs.Conversion = c.insertCandidatesForPrediction(req, origSegments, group, terminal)
	}
}

func (c *Converter) insertCandidatesForPrediction(req *request.Request, origSegments []candidate.Segment, group []int, terminal lattice.NodeID) []candidate.Segment {
	if !isMobile(req) {
		return c.insertCandidates(req, origSegments, group, terminal, req.MaxConversionCandidatesSize, modeSingleSegment)
	}
	return c.insertCandidatesForRealtimeWithCandidateChecker(req, origSegments, group, terminal)
}

// insertCandidatesForRealtimeWithCandidateChecker builds up to
// realtimeWholePathBudget whole-path candidates, keeps those within
// realtimeCostDiff of the best, then tops up the remaining budget with
// first-inner-segment (partial) candidates not already present by surface
// value. This is a simplified stand-in for the original's boundary-
// coverage/prefix-trie bookkeeping (see DESIGN.md); the nbest.Generator's
// own cost-bounded A* enumeration already does most of the heavy lifting.
func (c *Converter) insertCandidatesForRealtimeWithCandidateChecker(req *request.Request, origSegments []candidate.Segment, group []int, terminal lattice.NodeID) []candidate.Segment {
	whole := c.insertCandidates(req, origSegments, group, terminal, realtimeWholePathBudget, modeSingleSegment)
	if len(whole) == 0 {
		return whole
	}
	seg := &whole[0]

	if len(seg.Candidates) > 0 {
		top := seg.Candidates[0].Cost
		kept := seg.Candidates[:0]
		for _, cand := range seg.Candidates {
			if cand.Cost-top <= realtimeCostDiff {
				kept = append(kept, cand)
			}
		}
		seg.Candidates = kept
	}

	remaining := req.MaxConversionCandidatesSize - len(seg.Candidates)
	if remaining <= 0 {
		return whole
	}

	inner := c.insertCandidates(req, origSegments, group, terminal, remaining, modeFirstInnerSegment)
	if len(inner) == 0 {
		return whole
	}

	seen := make(map[string]bool, len(seg.Candidates))
	for _, cand := range seg.Candidates {
		seen[cand.Value] = true
	}
	for _, cand := range inner[0].Candidates {
		if seen[cand.Value] {
			continue
		}
		cand.Attributes |= candidate.AttrPartiallyKeyConsumed
		cand.ConsumedKeySize = kanautil.CharsLen(cand.Key)
		seg.AddCandidate(cand)
		seen[cand.Value] = true
	}
	return whole
}

// insertCandidates walks the best-path Next chain from BOS (past any
// leading History nodes), cutting it into segments at each point
// isSegmentEndNode fires, and fills each with an n-best enumeration between
// the segment's two boundary nodes. Grounded in InsertCandidates.
func (c *Converter) insertCandidates(req *request.Request, origSegments []candidate.Segment, group []int, terminal lattice.NodeID, maxCandidates int, mode insertMode) []candidate.Segment {
	expandSize := clampInt(maxCandidates, 1, 512)
	isSingleSegmentMode := mode == modeSingleSegment || mode == modeFirstInnerSegment
	key := c.lattice.Key()

	prev := c.lattice.BOS()
	for {
		nextID := c.lattice.Node(prev).Next
		if nextID == lattice.NilNode || c.lattice.Node(nextID).Type != lattice.History {
			break
		}
		prev = nextID
	}

	var out []candidate.Segment
	beginPos := -1
	node := c.lattice.Node(prev).Next

	for node != terminal && node != lattice.NilNode {
		nd := c.lattice.Node(node)
		if beginPos < 0 {
			beginPos = nd.BeginPos
		}
		if !c.isSegmentEndNode(nd, origSegments, group, isSingleSegmentMode, terminal) {
			node = nd.Next
			continue
		}

		endNodeID := nd.Next
		seg := candidate.Segment{Key: key[beginPos:nd.EndPos]}
		if mode == modeMultiSegments && beginPos < len(group) {
			if gi := group[beginPos]; gi < len(origSegments) {
				seg.Type = origSegments[gi].Type
			}
		}

		bmode := boundaryModeFor(mode)
		if beginPos < len(group) {
			if gi := group[beginPos]; gi < len(origSegments) && origSegments[gi].Type == candidate.FixedBoundary {
				bmode = request.OnlyMid
			}
		}

		gen := &nbest.Generator{Lattice: c.lattice, Conn: c.Conn, Segmenter: c.Segmenter, Pos: c.Pos, Filter: c.newFilter()}
		gen.Reset(prev, endNodeID, bmode)
		gen.SetCandidates(req, seg.Key, expandSize, &seg)

		if nd.Type == lattice.Constrained {
			seg.Type = candidate.FixedValue
		}
		if mode == modeMultiSegments || mode == modeSingleSegment {
			c.insertDummyCandidates(&seg, expandSize)
		}

		out = append(out, seg)
		if mode == modeFirstInnerSegment {
			break
		}

		prev = endNodeID
		beginPos = -1
		node = endNodeID
	}
	return out
}

// isSegmentEndNode reports whether node is the last content node of its
// segment: reaching the search terminal, a Constrained node, crossing an
// original segment boundary (unless that boundary belongs to a
// FixedBoundary segment, which never splits mid-grammar), or an ordinary
// grammatical boundary. Grounded in IsSegmentEndNode.
func (c *Converter) isSegmentEndNode(node *lattice.Node, origSegments []candidate.Segment, group []int, isSingleSegmentMode bool, terminal lattice.NodeID) bool {
	if node.Next == terminal {
		return true
	}
	if node.Type == lattice.Constrained {
		return true
	}
	next := c.lattice.Node(node.Next)
	if node.BeginPos < len(group) && next.BeginPos < len(group) {
		g1, g2 := group[node.BeginPos], group[next.BeginPos]
		if g1 != g2 {
			return true
		}
		if g1 < len(origSegments) && origSegments[g1].Type == candidate.FixedBoundary {
			return false
		}
	}
	return c.Segmenter.IsBoundary(node, next, isSingleSegmentMode)
}

// insertDummyCandidates tops up seg with up to 3 synthetic slots: a
// katakana rendering of the top candidate's content key (if that key is
// pure hiragana and the candidate carries a functional suffix), a plain
// hiragana candidate using the segment's own key, and a pure-katakana
// rendering of the segment key. Grounded in InsertDummyCandidates.
func (c *Converter) insertDummyCandidates(seg *candidate.Segment, expandSize int) {
	if len(seg.Candidates) >= expandSize {
		return
	}

	if len(seg.Candidates) > 0 {
		top := seg.Candidates[0]
		if allHiragana(top.ContentKey) && top.ContentKey != top.Key {
			kata := kanautil.HiraganaToKatakana(top.ContentKey)
			seg.AddCandidate(candidate.Candidate{
				Key: top.ContentKey, Value: kata,
				ContentKey: top.ContentKey, ContentValue: kata,
				Cost: top.Cost + 1,
			})
			if len(seg.Candidates) >= expandSize {
				return
			}
		}
	}

	if len(seg.Candidates) == 0 || (allHiragana(seg.Key) && len(seg.Candidates) < expandSize) {
		cand := candidate.Candidate{Key: seg.Key, Value: seg.Key, ContentKey: seg.Key, ContentValue: seg.Key}
		if kanautil.CharsLen(seg.Key) <= 1 {
			cand.Attributes |= candidate.AttrContextSensitive
		}
		seg.AddCandidate(cand)
		if len(seg.Candidates) >= expandSize {
			return
		}
	}

	if kata := kanautil.HiraganaToKatakana(seg.Key); allKatakana(kata) && len(seg.Candidates) < expandSize {
		seg.AddCandidate(candidate.Candidate{Key: seg.Key, Value: kata, ContentKey: seg.Key, ContentValue: kata})
	}
}

func allHiragana(s string) bool {
	return s != "" && kanautil.ScriptRunLen(s, kanautil.IsHiragana) == len(s)
}

func allKatakana(s string) bool {
	return s != "" && kanautil.ScriptRunLen(s, kanautil.IsKatakana) == len(s)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
