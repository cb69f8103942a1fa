package search

import (
	"golang.org/x/exp/slices"

	"kanaconv/internal/connector"
	"kanaconv/internal/lattice"
)

type lbestEntry struct {
	cost int32
	node lattice.NodeID
}

// PredictionViterbi is the contracted variant used for prediction and
// suggestion requests. It is run twice by the orchestrator: once over the
// history range [0, historyEndPos), then over the conversion range
// [historyEndPos, calcEndPos). Contraction by POS id (rather than exact
// node identity) trades precision for speed: acceptable here because
// prediction never creates weakly-connected nodes that would need the
// exact accounting Viterbi provides.
func PredictionViterbi(l *lattice.Lattice, conn connector.Connector, begin, end, calcEndPos int) error {
	reached := make([]bool, l.NodeCount())
	bos := l.BOS()
	if begin == 0 {
		l.Node(bos).Cost = 0
		reached[bos] = true
	} else {
		markReachedFromPriorWalk(l, reached, begin)
	}

	for p := begin; p < end; p++ {
		lbest := collectLBest(l, reached, p)
		if len(lbest) == 0 {
			continue
		}
		rids := make([]uint16, 0, len(lbest))
		for rid := range lbest {
			rids = append(rids, rid)
		}
		slices.Sort(rids)
		for r := l.BeginNodesAt(p); r != lattice.NilNode; r = l.Node(r).BNext {
			rnode := l.Node(r)
			if rnode.EndPos > calcEndPos {
				continue
			}
			var bestCost int32
			var bestFrom lattice.NodeID = lattice.NilNode
			for _, rid := range rids {
				entry := lbest[rid]
				cost := entry.cost + conn.TransitionCost(rid, rnode.LID)
				if bestFrom == lattice.NilNode || cost < bestCost {
					bestCost = cost
					bestFrom = entry.node
				}
			}
			if bestFrom == lattice.NilNode {
				continue
			}
			rnode.Cost = bestCost + rnode.WCost
			rnode.Prev = bestFrom
			reached[r] = true
		}
	}
	return nil
}

// collectLBest contracts every reached left node ending at p into the
// minimum-cost node per distinct RID.
func collectLBest(l *lattice.Lattice, reached []bool, p int) map[uint16]lbestEntry {
	lbest := map[uint16]lbestEntry{}
	for lft := l.EndNodesAt(p); lft != lattice.NilNode; lft = l.Node(lft).ENext {
		if !reached[lft] {
			continue
		}
		ln := l.Node(lft)
		if e, ok := lbest[ln.RID]; !ok || ln.Cost < e.cost {
			lbest[ln.RID] = lbestEntry{cost: ln.Cost, node: lft}
		}
	}
	return lbest
}

// markReachedFromPriorWalk is used when resuming PredictionViterbi at the
// conversion range after the history-range pass already populated Cost on
// every history node that ended up reachable: a node counts as reached iff
// its Cost field was ever written, which happens exactly when some earlier
// relaxation chose it (or it is BOS). We detect this by walking every
// position's end-chain up to begin and trusting any node whose Prev is set
// or whose Type is BOS or History.
func markReachedFromPriorWalk(l *lattice.Lattice, reached []bool, begin int) {
	bos := l.BOS()
	reached[bos] = true
	for p := 0; p <= begin; p++ {
		for e := l.EndNodesAt(p); e != lattice.NilNode; e = l.Node(e).ENext {
			n := l.Node(e)
			if n.Type == lattice.BOS || n.Type == lattice.History || n.Prev != lattice.NilNode {
				reached[e] = true
			}
		}
	}
}

// PredictionBackWalk reconstructs Next pointers from end back to BOS,
// mirroring Viterbi's back-walk so the n-best generator can read a forward
// chain regardless of which search produced it.
func PredictionBackWalk(l *lattice.Lattice, end lattice.NodeID) error {
	return backWalk(l, l.BOS(), end)
}
