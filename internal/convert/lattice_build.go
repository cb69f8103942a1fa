package convert

import (
	"context"
	"strings"

	"kanaconv/internal/candidate"
	"kanaconv/internal/dictionary"
	kerrors "kanaconv/internal/errors"
	"kanaconv/internal/lattice"
	"kanaconv/internal/lookup"
	"kanaconv/internal/posmatcher"
	"kanaconv/internal/request"
)

// insertNodeList allocates one arena node per spec, chains them via BNext,
// and inserts the resulting chain at pos. Returns the chain's head, or
// NilNode if specs is empty.
func (c *Converter) insertNodeList(pos int, specs []lattice.Node) lattice.NodeID {
	var head, tail lattice.NodeID
	for _, spec := range specs {
		id := c.lattice.NewNode()
		n := c.lattice.Node(id)
		*n = spec
		n.BNext = lattice.NilNode
		if head == lattice.NilNode {
			head = id
		} else {
			c.lattice.Node(tail).BNext = id
		}
		tail = id
	}
	if head != lattice.NilNode {
		c.lattice.Insert(pos, head)
	}
	return head
}

// lookupAt runs a prefix (or reverse, for Reverse requests) dictionary
// lookup at pos, adapts every token through adapter, and appends the
// synthetic character-type fallback nodes required at every position after
// the dictionary nodes.
func (c *Converter) lookupAt(ctx context.Context, req *request.Request, pos int, adapter lookup.Adapter, isPrediction bool) ([]lattice.Node, error) {
	remaining := c.lattice.Key()[pos:]
	var specs []lattice.Node
	cb := func(_, _ string, tok dictionary.Token) dictionary.LookupResult {
		specs = append(specs, adapter.Adapt(tok))
		return dictionary.ResultContinue
	}
	var err error
	if req.Type == request.Reverse {
		err = c.Dict.LookupReverse(ctx, remaining, req, cb)
	} else {
		err = c.Dict.LookupPrefix(ctx, remaining, req, cb)
	}
	if err != nil {
		return nil, err
	}
	if isPrediction {
		c.lattice.SetCacheInfoAt(pos, len(remaining))
	}
	specs = append(specs, lookup.SyntheticCharacterNodes(remaining, c.Pos.GetNumberID(), c.Pos.GetUnknownID())...)
	return specs, nil
}

// buildHistoryNodes installs one virtual History-type node per history
// segment, an extra EOS-biased node for the last history segment, and (for
// non-prediction requests) an overlap lookup against the dictionary to
// recover candidates that span the history/conversion boundary. Grounded
// in MakeLatticeNodesForHistorySegments.
func (c *Converter) buildHistoryNodes(ctx context.Context, req *request.Request, segs *candidate.Segments, historyKeyLen int) error {
	if len(segs.History) == 0 {
		return nil
	}
	isPrediction := req.Type == request.Prediction || req.Type == request.Suggestion

	pos := 0
	for i := range segs.History {
		seg := &segs.History[i]
		if seg.Type != candidate.HistorySegment && seg.Type != candidate.Submitted {
			return kerrors.NewLatticeBuildFailure("inconsistent history segment type", seg.Key, i)
		}
		if seg.Key == "" || len(seg.Candidates) == 0 {
			return kerrors.NewLatticeBuildFailure("history segment has no key or candidate", seg.Key, i)
		}
		cand := seg.Candidates[0]

		rnodeID := c.lattice.NewNode()
		rn := c.lattice.Node(rnodeID)
		rn.LID, rn.RID = cand.LID, cand.RID
		rn.WCost = 0
		rn.Value, rn.Key = cand.Value, seg.Key
		rn.Type = lattice.History
		c.lattice.Insert(pos, rnodeID)

		isLast := i == len(segs.History)-1
		if isLast && cand.RID != 0 {
			eosLikeID := c.lattice.NewNode()
			en := c.lattice.Node(eosLikeID)
			en.LID, en.RID = cand.LID, 0
			en.WCost = 0
			en.Value, en.Key = cand.Value, seg.Key
			en.Type = lattice.History
			c.lattice.Insert(pos, eosLikeID)
		}

		if !isPrediction && isLast {
			if err := c.overlapLookup(ctx, req, pos, rn.Key, rn.Value, cand.RID, rnodeID); err != nil {
				return err
			}
		}

		pos += len(seg.Key)
	}
	return nil
}

// overlapLookup finds dictionary entries whose reading/surface both extend
// past the last history segment (e.g. history "おいかわ", found compound
// "おいかわたくや") and inserts the non-overlapping suffix as a node
// constrained to follow the history node, with a cost of the compound's
// wcost scaled by the history value's share of the compound value, minus
// the history-to-compound transition. Grounded in the "overlapping" lookup
// block of MakeLatticeNodesForHistorySegments.
func (c *Converter) overlapLookup(ctx context.Context, req *request.Request, pos int, histKey, histValue string, histRID uint16, rnodeID lattice.NodeID) error {
	specs, err := c.lookupAt(ctx, req, pos, lookup.Base{}, false)
	if err != nil {
		return kerrors.NewLatticeBuildFailure(err.Error(), histKey, -1)
	}
	for _, spec := range specs {
		if len(spec.Key) <= len(histKey) || len(spec.Value) <= len(histValue) ||
			!strings.HasPrefix(spec.Key, histKey) || !strings.HasPrefix(spec.Value, histValue) {
			continue
		}
		suffixKey := spec.Key[len(histKey):]
		suffixValue := spec.Value[len(histValue):]

		wcost := spec.WCost * int32(len(histValue)) / int32(len(spec.Value))
		wcost -= c.Conn.TransitionCost(histRID, spec.LID)

		newID := c.lattice.NewNode()
		n := c.lattice.Node(newID)
		n.Key, n.Value = suffixKey, suffixValue
		n.LID, n.RID = spec.LID, spec.RID
		n.WCost = wcost
		n.Type = lattice.Normal
		n.ConstrainedPrev = rnodeID
		c.lattice.Insert(pos+len(histKey), newID)
	}
	return nil
}

// buildConversionNodes runs a dictionary prefix lookup at every reachable
// position of the conversion range, using a cache-enabled adapter for
// prediction/suggestion and an optional key-correcting adapter for plain
// conversion. Grounded in MakeLatticeNodesForConversionSegments.
func (c *Converter) buildConversionNodes(ctx context.Context, req *request.Request, segs *candidate.Segments, historyKey string) error {
	key := c.lattice.Key()
	isPrediction := req.Type == request.Prediction || req.Type == request.Suggestion

	var adapter lookup.Adapter = lookup.Base{}
	switch {
	case isPrediction:
		adapter = lookup.PredictiveWithCache{}
	case req.Type == request.Conversion && c.Corrector != nil:
		adapter = lookup.KeyCorrected{Corrector: c.Corrector}
	}

	for pos := len(historyKey); pos < len(key); pos++ {
		if c.lattice.EndNodesAt(pos) == lattice.NilNode {
			continue
		}
		specs, err := c.lookupAt(ctx, req, pos, adapter, isPrediction)
		if err != nil {
			return kerrors.NewLatticeBuildFailure(err.Error(), key, -1)
		}
		if historyKey != "" && pos == len(historyKey) {
			markStartsWithParticle(c.Pos, specs)
		}
		c.insertNodeList(pos, specs)
	}
	return nil
}

func markStartsWithParticle(pos posmatcher.PosMatcher, specs []lattice.Node) {
	for i := range specs {
		n := &specs[i]
		if pos.IsAcceptableParticleAtBeginOfSegment(n.LID) && n.LID == n.RID {
			n.Attributes |= lattice.AttrStartsWithParticle
		}
	}
}

// addPredictiveNodes augments the lattice with predictive lookups anchored
// at the end of the conversion key: 1-6 character suffixes against the
// suffix dictionary, and 5-8 character suffixes against the system
// dictionary. Grounded in MakeLatticeNodesForPredictiveNodes.
func (c *Converter) addPredictiveNodes(ctx context.Context, req *request.Request, conversionKey, key string) {
	chars := splitUTF8Chars(conversionKey)
	n := len(chars)

	if c.Suffix != nil {
		pos := len(key)
		for suffixLen := 1; suffixLen <= min(6, n); suffixLen++ {
			pos -= len(chars[n-suffixLen])
			if specs := c.predictiveLookup(ctx, req, c.Suffix, pos, key); len(specs) > 0 {
				c.insertNodeList(pos, specs)
			}
		}
	}

	pos := len(key)
	for suffixLen := 1; suffixLen <= min(8, n); suffixLen++ {
		pos -= len(chars[n-suffixLen])
		if suffixLen < 5 {
			continue
		}
		if specs := c.predictiveLookup(ctx, req, c.Dict, pos, key); len(specs) > 0 {
			c.insertNodeList(pos, specs)
		}
	}
}

func (c *Converter) predictiveLookup(ctx context.Context, req *request.Request, dict dictionary.Dictionary, pos int, key string) []lattice.Node {
	remaining := key[pos:]
	adapter := lookup.PredictiveWithPenalty{Pos: c.Pos}
	var specs []lattice.Node
	_ = dict.LookupPredictive(ctx, remaining, req, func(_, _ string, tok dictionary.Token) dictionary.LookupResult {
		specs = append(specs, adapter.Adapt(tok))
		return dictionary.ResultContinue
	})
	return specs
}

func splitUTF8Chars(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// applyPrefixSuffixPenalty biases nodes touching the conversion key's own
// edges: a per-lid penalty at the conversion key's start, a per-rid
// penalty at the very end of the lattice key.
func (c *Converter) applyPrefixSuffixPenalty(conversionKey string) {
	key := c.lattice.Key()
	prefixPos := len(key) - len(conversionKey)
	for n := c.lattice.BeginNodesAt(prefixPos); n != lattice.NilNode; n = c.lattice.Node(n).BNext {
		nd := c.lattice.Node(n)
		nd.WCost += c.Segmenter.PrefixPenalty(nd.LID)
	}
	for n := c.lattice.EndNodesAt(len(key)); n != lattice.NilNode; n = c.lattice.Node(n).ENext {
		nd := c.lattice.Node(n)
		nd.WCost += c.Segmenter.SuffixPenalty(nd.RID)
	}
}

// applyFixedValueConstraints installs one Constrained node per FixedValue
// segment, forcing the search down that exact value at minCost so it always
// wins any competing hypothesis at that span.
func (c *Converter) applyFixedValueConstraints(origSegments []candidate.Segment, _ int) {
	p := 0
	for _, seg := range origSegments {
		if seg.Type == candidate.FixedValue && len(seg.Candidates) > 0 {
			cand := seg.Candidates[0]
			id := c.lattice.NewNode()
			n := c.lattice.Node(id)
			n.LID, n.RID = cand.LID, cand.RID
			n.WCost = minCost
			n.Value, n.Key = cand.Value, seg.Key
			n.Type = lattice.Constrained
			c.lattice.Insert(p, id)
		}
		p += len(seg.Key)
	}
}
