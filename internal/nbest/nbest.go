// Package nbest implements the A* n-best candidate generator and packaging
// step. A Generator is reset once per segment boundary pair and then
// iterated with Next until it reports no more candidates.
package nbest

import (
	"container/heap"
	"strings"

	"kanaconv/internal/candidate"
	"kanaconv/internal/connector"
	"kanaconv/internal/filter"
	"kanaconv/internal/lattice"
	"kanaconv/internal/posmatcher"
	"kanaconv/internal/request"
	"kanaconv/internal/segmenter"
)

const (
	maxTrial             = 500
	costDiff             = 3453 // log-prob of 1/1000, see candidate_filter.cc
	weakConnectedPenalty = 3453
	invalidPenaltyCost   = 100000
)

type boundaryResult int

const (
	valid boundaryResult = iota
	validWeakConnected
	invalid
)

// queueElement is one A* agenda entry. next chains toward the element that
// was being expanded when this one was pushed, i.e. toward the right
// (end_node side); walking .next from a goal element therefore yields the
// path's content nodes left to right.
type queueElement struct {
	node                     lattice.NodeID
	next                     *queueElement
	fx, gx, structureGx, wGx int32
}

// agenda is a min-heap over fx, matching the source's max-heap over a
// q1.fx > q2.fx comparator (a max-heap by "greater" is a min-heap by "less").
type agenda []*queueElement

func (a agenda) Len() int            { return len(a) }
func (a agenda) Less(i, j int) bool  { return a[i].fx < a[j].fx }
func (a agenda) Swap(i, j int)       { a[i], a[j] = a[j], a[i] }
func (a *agenda) Push(x interface{}) { *a = append(*a, x.(*queueElement)) }
func (a *agenda) Pop() interface{} {
	old := *a
	n := len(old)
	item := old[n-1]
	*a = old[:n-1]
	return item
}

// Generator enumerates candidates between a begin/end node pair in
// best-first order, handing each to a CandidateFilter before yielding it.
type Generator struct {
	Lattice   *lattice.Lattice
	Conn      connector.Connector
	Segmenter segmenter.Segmenter
	Pos       posmatcher.PosMatcher
	Filter    *filter.CandidateFilter

	beginNode, endNode lattice.NodeID
	mode               request.BoundaryMode
	agenda             agenda
	viterbiChecked     bool
	topNodes           []*lattice.Node
}

// Reset starts a fresh enumeration between begin and end (both node ids
// from a single Viterbi/Prediction-Viterbi search), seeding the agenda with
// every begin-position-adjacent end-side node within costDiff of end.
func (g *Generator) Reset(begin, end lattice.NodeID, mode request.BoundaryMode) {
	g.beginNode, g.endNode = begin, end
	g.mode = mode
	g.agenda = nil
	g.viterbiChecked = false
	g.topNodes = nil
	g.Filter.Reset()

	endNode := g.Lattice.Node(end)
	heap.Init(&g.agenda)
	for n := g.Lattice.BeginNodesAt(endNode.BeginPos); n != lattice.NilNode; n = g.Lattice.Node(n).BNext {
		nd := g.Lattice.Node(n)
		if n == end || (nd.LID != endNode.LID && nd.Cost-endNode.Cost <= costDiff && nd.Prev != endNode.Prev) {
			heap.Push(&g.agenda, &queueElement{node: n, fx: nd.Cost})
		}
	}
}

// Next produces the next candidate in best-first order, or ok=false once
// enumeration is exhausted (agenda drained, the trial budget was spent, or
// the filter signaled StopEnumeration).
func (g *Generator) Next(req *request.Request, originalKey string) (c *candidate.Candidate, ok bool) {
	if !g.viterbiChecked {
		g.viterbiChecked = true
		c, v := g.insertTopResult(req, originalKey)
		switch v {
		case filter.Good:
			return c, true
		case filter.StopEnumeration:
			return nil, false
		}
		// Bad: fall through to the A* loop.
	}

	begin := g.Lattice.Node(g.beginNode)
	end := g.Lattice.Node(g.endNode)

	trials := 0
	for g.agenda.Len() > 0 {
		top := heap.Pop(&g.agenda).(*queueElement)
		trials++
		if trials > maxTrial {
			return nil, false
		}

		rnode := g.Lattice.Node(top.node)
		if rnode.EndPos == begin.EndPos {
			ids := collectPath(top)
			if len(ids) == 0 {
				continue
			}
			cand := g.makeCandidate(top.gx, top.structureGx, top.wGx, ids)
			v := g.filterCandidate(req, originalKey, cand, ids)
			switch v {
			case filter.Good:
				return cand, true
			case filter.StopEnumeration:
				return nil, false
			default:
				continue
			}
		}

		g.expand(top, rnode, begin, end, req)
	}
	return nil, false
}

func (g *Generator) expand(top *queueElement, rnode *lattice.Node, begin, end *lattice.Node, req *request.Request) {
	isRightEdge := rnode.BeginPos == end.BeginPos
	isLeftEdge := rnode.BeginPos == begin.EndPos
	isEdge := isRightEdge || isLeftEdge

	var bestLeft *queueElement
	for lid := g.Lattice.EndNodesAt(rnode.BeginPos); lid != lattice.NilNode; lid = g.Lattice.Node(lid).ENext {
		lnode := g.Lattice.Node(lid)

		if lnode.BeginPos < begin.EndPos && begin.EndPos < lnode.EndPos {
			continue // overlaps begin_node
		}
		if isLeftEdge && lnode.Cost-begin.Cost > costDiff {
			continue
		}
		if isLeftEdge && lnode.RID == begin.RID && lid != g.beginNode {
			continue // one representative per rid is enough at the left edge
		}

		br := g.boundaryCheck(lnode, rnode, isEdge)
		if br == invalid {
			continue
		}

		transitionCost := g.transitionCost(lid, lnode, rnode)

		var costD, structureD, wcostD int32
		switch {
		case isRightEdge:
			costD = transitionCost + (rnode.Cost - end.Cost)
		case isLeftEdge:
			costD = transitionCost + rnode.WCost + (lnode.Cost - begin.Cost)
			wcostD = rnode.WCost
		default:
			costD = transitionCost + rnode.WCost
			structureD = transitionCost
			wcostD = transitionCost + rnode.WCost
		}

		if br == validWeakConnected {
			costD += weakConnectedPenalty
			structureD += weakConnectedPenalty / 2
			wcostD += weakConnectedPenalty / 2
		}

		gx := costD + top.gx
		fx := lnode.Cost + gx
		structureGx := structureD + top.structureGx
		wGx := wcostD + top.wGx

		if isLeftEdge {
			if bestLeft == nil || bestLeft.fx > fx {
				bestLeft = &queueElement{node: lid, next: top, fx: fx, gx: gx, structureGx: structureGx, wGx: wGx}
			}
			continue
		}
		heap.Push(&g.agenda, &queueElement{node: lid, next: top, fx: fx, gx: gx, structureGx: structureGx, wGx: wGx})
	}
	if bestLeft != nil {
		heap.Push(&g.agenda, bestLeft)
	}
}

// collectPath walks top.next down to (but excluding) the chain's seed
// element, returning the candidate's content nodes left to right.
func collectPath(top *queueElement) []lattice.NodeID {
	var ids []lattice.NodeID
	for e := top.next; e != nil && e.next != nil; e = e.next {
		ids = append(ids, e.node)
	}
	return ids
}

// transitionCost returns a large penalty when rnode is constrained to a
// specific predecessor and lid is not it, otherwise the connector's cost.
func (g *Generator) transitionCost(lid lattice.NodeID, lnode, rnode *lattice.Node) int32 {
	if rnode.ConstrainedPrev != lattice.NilNode && rnode.ConstrainedPrev != lid {
		return invalidPenaltyCost
	}
	return g.Conn.TransitionCost(lnode.RID, rnode.LID)
}

func (g *Generator) boundaryCheck(lnode, rnode *lattice.Node, isEdge bool) boundaryResult {
	if lnode.Type == lattice.Constrained || rnode.Type == lattice.Constrained {
		return valid
	}
	isBoundary := lnode.Type == lattice.History
	switch g.mode {
	case request.OnlyMid:
		if isEdge {
			return valid
		}
		if !isBoundary {
			isBoundary = g.Segmenter.IsBoundary(lnode, rnode, false)
		}
		if isBoundary {
			return invalid
		}
		return valid
	case request.OnlyEdge:
		if !isEdge {
			return valid
		}
		if !isBoundary {
			isBoundary = g.Segmenter.IsBoundary(lnode, rnode, true)
		}
		if !isBoundary {
			return validWeakConnected
		}
		return valid
	default: // Strict
		if !isBoundary {
			isBoundary = g.Segmenter.IsBoundary(lnode, rnode, false)
		}
		if isEdge != isBoundary {
			return invalid
		}
		return valid
	}
}

// insertTopResult builds the Viterbi-best candidate directly from the
// next chain between begin and end, guaranteeing the first accepted
// candidate is the Viterbi best path's surface value (P3).
func (g *Generator) insertTopResult(req *request.Request, originalKey string) (*candidate.Candidate, filter.Verdict) {
	begin := g.Lattice.Node(g.beginNode)
	end := g.Lattice.Node(g.endNode)

	var ids []lattice.NodeID
	totalWCost := int32(0)
	first := true
	for n := begin.Next; n != g.endNode; {
		ids = append(ids, n)
		nd := g.Lattice.Node(n)
		if !first {
			totalWCost += nd.WCost
		}
		first = false
		n = nd.Next
	}
	if len(ids) == 0 {
		return nil, filter.Bad
	}

	nextOfBegin := g.Lattice.Node(begin.Next)
	prevOfEnd := g.Lattice.Node(end.Prev)

	cost := end.Cost - begin.Cost - end.WCost
	structureCost := prevOfEnd.Cost - nextOfBegin.Cost - totalWCost
	wcost := prevOfEnd.Cost - nextOfBegin.Cost + nextOfBegin.WCost

	c := g.makeCandidate(cost, structureCost, wcost, ids)
	if req.Type == request.Suggestion {
		c.Attributes |= candidate.AttrRealtimeConversion
	}
	v := g.filterCandidate(req, originalKey, c, ids)
	return c, v
}

func (g *Generator) filterCandidate(req *request.Request, originalKey string, c *candidate.Candidate, ids []lattice.NodeID) filter.Verdict {
	nodes := g.derefAll(ids)
	if g.topNodes == nil {
		g.topNodes = nodes
	}
	return g.Filter.Filter(req, originalKey, c, g.topNodes, nodes)
}

func (g *Generator) derefAll(ids []lattice.NodeID) []*lattice.Node {
	nodes := make([]*lattice.Node, len(ids))
	for i, id := range ids {
		nodes[i] = g.Lattice.Node(id)
	}
	return nodes
}

// makeCandidate materializes a Candidate from a content-node path,
// propagating node attributes and, in Only-edge mode, populating inner
// segment boundaries.
func (g *Generator) makeCandidate(cost, structureCost, wcost int32, ids []lattice.NodeID) *candidate.Candidate {
	nodes := g.derefAll(ids)
	c := &candidate.Candidate{
		LID: nodes[0].LID, RID: nodes[len(nodes)-1].RID,
		Cost: cost, StructureCost: structureCost, WCost: wcost,
	}

	var key, value, contentKey, contentValue strings.Builder
	isFunctional := false
	for i, n := range nodes {
		if !isFunctional && !g.Pos.IsFunctional(n.LID) {
			contentValue.WriteString(n.Value)
			contentKey.WriteString(n.Key)
		} else {
			isFunctional = true
		}
		key.WriteString(n.Key)
		value.WriteString(n.Value)

		selfConstrained := n.ConstrainedPrev != lattice.NilNode
		nextConstrainsOnSelf := n.Next != lattice.NilNode && g.Lattice.Node(n.Next).ConstrainedPrev == ids[i]
		if selfConstrained || nextConstrainsOnSelf {
			c.Attributes |= candidate.AttrContextSensitive
		}
		if n.Attributes.Has(lattice.AttrSpellingCorrection) {
			c.Attributes |= candidate.AttrSpellingCorrection
		}
		if n.Attributes.Has(lattice.AttrNoVariantsExpansion) {
			c.Attributes |= candidate.AttrNoVariantsExpansion
		}
		if n.Attributes.Has(lattice.AttrUserDictionary) {
			c.Attributes |= candidate.AttrUserDictionary
		}
		if n.Attributes.Has(lattice.AttrSuffixDictionary) {
			c.Attributes |= candidate.AttrSuffixDictionary
		}
	}
	c.Key, c.Value = key.String(), value.String()
	c.ContentKey, c.ContentValue = contentKey.String(), contentValue.String()
	if c.ContentValue == "" || c.ContentKey == "" {
		c.ContentKey, c.ContentValue = c.Key, c.Value
	}

	if g.mode == request.OnlyEdge {
		fillInnerSegmentInfo(nodes, c, g.Pos, g.Segmenter)
	}
	return c
}

// fillInnerSegmentInfo walks the content-node path closing one
// InnerSegmentBoundary at every grammatical boundary; content length
// freezes at the first functional node reached within the current inner
// segment and resumes counting at the next boundary.
func fillInnerSegmentInfo(nodes []*lattice.Node, c *candidate.Candidate, pos posmatcher.PosMatcher, seg segmenter.Segmenter) {
	keyLen, valueLen := len(nodes[0].Key), len(nodes[0].Value)
	contentKeyLen, contentValueLen := keyLen, valueLen
	isContentBoundary := false
	if pos.IsFunctional(nodes[0].RID) {
		isContentBoundary = true
		contentKeyLen, contentValueLen = 0, 0
	}

	for i := 1; i < len(nodes); i++ {
		lnode, rnode := nodes[i-1], nodes[i]
		if seg.IsBoundary(lnode, rnode, false) {
			c.InnerSegmentBoundary = append(c.InnerSegmentBoundary, candidate.InnerSegmentBoundary{
				KeyLen: keyLen, ValueLen: valueLen, ContentKeyLen: contentKeyLen, ContentValueLen: contentValueLen,
			})
			keyLen, valueLen, contentKeyLen, contentValueLen = 0, 0, 0, 0
			isContentBoundary = false
		}
		keyLen += len(rnode.Key)
		valueLen += len(rnode.Value)
		if isContentBoundary {
			continue
		}
		if pos.IsFunctional(rnode.LID) {
			isContentBoundary = true
		} else {
			contentKeyLen += len(rnode.Key)
			contentValueLen += len(rnode.Value)
		}
	}
	c.InnerSegmentBoundary = append(c.InnerSegmentBoundary, candidate.InnerSegmentBoundary{
		KeyLen: keyLen, ValueLen: valueLen, ContentKeyLen: contentKeyLen, ContentValueLen: contentValueLen,
	})
}

// SetCandidates drains up to maxCandidates from the generator into seg,
// stopping early if Next reports exhaustion first.
func (g *Generator) SetCandidates(req *request.Request, originalKey string, maxCandidates int, seg *candidate.Segment) {
	for i := 0; i < maxCandidates; i++ {
		c, ok := g.Next(req, originalKey)
		if !ok {
			return
		}
		seg.AddCandidate(*c)
	}
}
