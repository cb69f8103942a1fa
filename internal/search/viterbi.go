// Package search implements the Viterbi shortest-path relaxation used for
// conversion/reverse-conversion, and the contracted Prediction-Viterbi used
// for prediction/suggestion.
package search

import (
	"math"

	"kanaconv/internal/connector"
	kerrors "kanaconv/internal/errors"
	"kanaconv/internal/lattice"
)

// VeryBigCost stands in for "unreachable" during relaxation; chosen well
// above any real path cost so a single unreachable predecessor can never
// accidentally win a minimum-cost comparison.
const VeryBigCost = int32(math.MaxInt32 / 4)

// Viterbi finds the minimum-cost BOS-to-EOS path. rightBoundary clips the
// search to nodes ending at or before it (the caller's segment layout);
// pass len(l.Key()) for an unconstrained search over the whole lattice.
// On success every node on the best path has Next set, walkable forward
// from BOS. On failure (the back-walk from EOS does not reach BOS) it
// returns a *errors.ConversionError of kind SearchFailure and leaves the
// lattice's Prev/Next pointers in a partially-updated state.
func Viterbi(l *lattice.Lattice, conn connector.Connector, rightBoundary int) error {
	n := l.NodeCount()
	reached := make([]bool, n)

	bos := l.BOS()
	eos := l.EOS()
	l.Node(bos).Cost = 0
	reached[bos] = true

	cc := connector.NewCachingConnector(conn)

	keyLen := len(l.Key())
	for p := 0; p <= keyLen; p++ {
		for r := l.BeginNodesAt(p); r != lattice.NilNode; r = l.Node(r).BNext {
			if r == bos {
				continue
			}
			relaxNode(l, cc, reached, r, p, rightBoundary)
		}
	}

	return backWalk(l, bos, eos)
}

func relaxNode(l *lattice.Lattice, cc *connector.CachingConnector, reached []bool, r lattice.NodeID, pos, rightBoundary int) {
	rnode := l.Node(r)
	if rnode.EndPos > rightBoundary {
		rnode.Prev = lattice.NilNode
		return
	}
	cc.ResetIfNecessary(rnode.LID)

	if rnode.ConstrainedPrev != lattice.NilNode {
		prev := rnode.ConstrainedPrev
		if reached[prev] {
			pn := l.Node(prev)
			rnode.Cost = pn.Cost + rnode.WCost + cc.TransitionCost(pn.RID, rnode.LID)
			rnode.Prev = prev
			reached[r] = true
		} else {
			rnode.Prev = lattice.NilNode
		}
		return
	}

	var best lattice.NodeID = lattice.NilNode
	bestCost := VeryBigCost
	for lft := l.EndNodesAt(pos); lft != lattice.NilNode; lft = l.Node(lft).ENext {
		if !reached[lft] {
			continue
		}
		ln := l.Node(lft)
		cost := ln.Cost + cc.TransitionCost(ln.RID, rnode.LID) + rnode.WCost
		if cost < bestCost {
			bestCost = cost
			best = lft
		}
	}
	if best == lattice.NilNode {
		rnode.Prev = lattice.NilNode
		return
	}
	rnode.Cost = bestCost
	rnode.Prev = best
	reached[r] = true
}

// backWalk reconstructs the forward Next chain from EOS back to BOS. It
// fails if a Nil predecessor is hit before reaching BOS.
func backWalk(l *lattice.Lattice, bos, eos lattice.NodeID) error {
	cur := eos
	guard := l.NodeCount() + 1
	for cur != bos {
		if guard--; guard < 0 {
			return kerrors.NewSearchFailure("back-walk did not terminate (cycle in Prev chain)", l.Key())
		}
		prev := l.Node(cur).Prev
		if prev == lattice.NilNode {
			return kerrors.NewSearchFailure("back-walk from EOS did not reach BOS", l.Key())
		}
		l.Node(prev).Next = cur
		cur = prev
	}
	return nil
}
