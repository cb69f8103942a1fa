// Package convert implements the immutable converter orchestrator: the
// single entry point that turns a request plus a Segments value (history +
// conversion segments) into ranked candidates by building a lattice,
// searching it, and packaging the result.
//
// The orchestrator never panics on bad input; every rejection path returns
// a *errors.ConversionError so callers can log and recover without stack
// unwinding.
package convert

import (
	"context"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"kanaconv/internal/candidate"
	"kanaconv/internal/connector"
	"kanaconv/internal/dictionary"
	kerrors "kanaconv/internal/errors"
	"kanaconv/internal/filter"
	"kanaconv/internal/kanautil"
	"kanaconv/internal/lattice"
	"kanaconv/internal/lookup"
	"kanaconv/internal/posmatcher"
	"kanaconv/internal/request"
	"kanaconv/internal/search"
	"kanaconv/internal/segmenter"
	"kanaconv/internal/suggestionfilter"
)

const (
	maxSegmentsSize              = 256
	maxCharLength                = 1024
	maxCharLengthReverse         = 600
	minConversionKeyForPrediction = 7
	minCost                      = -32767 // Segment::Candidate cost floor, FixedValue constrained nodes
)

// Converter holds the read-only collaborators of one conversion session
// (dictionary, connector, POS/segmenter tables) plus the one piece of
// mutable state allowed to persist across calls: a cached lattice, reused
// for back-to-back prediction requests sharing a history boundary. A
// Converter is not safe for concurrent use; callers running multiple
// sessions concurrently must use one Converter per session.
type Converter struct {
	Dict     dictionary.Dictionary
	Suffix   dictionary.Dictionary // nil disables suffix-dictionary predictive lookups
	UserDict dictionary.UserDictionary

	Conn      connector.Connector
	Pos       posmatcher.PosMatcher
	Segmenter segmenter.Segmenter

	// Corrector enables KeyCorrector-based lookup for every conversion
	// request; whether the user resized segment boundaries is not checked.
	// Nil disables key correction entirely.
	Corrector lookup.KeyCorrector

	SuggestFilter *suggestionfilter.Filter

	Logger *slog.Logger

	lattice *lattice.Lattice
}

func (c *Converter) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *Converter) newFilter() *filter.CandidateFilter {
	return &filter.CandidateFilter{Pos: c.Pos, UserDict: c.UserDict, SuggestFilter: c.SuggestFilter, Lattice: c.lattice}
}

// ConvertForRequest is the sole public entry point: it validates req
// against segs, builds or incrementally updates the cached lattice,
// searches it, and overwrites segs.Conversion in place.
func (c *Converter) ConvertForRequest(ctx context.Context, req *request.Request, segs *candidate.Segments) error {
	id := req.CorrelationID
	if id == uuid.Nil {
		id = uuid.New()
	}
	log := c.logger().With("correlation_id", id, "type", req.Type.String())

	if err := c.validate(req, segs); err != nil {
		log.Warn("rejected conversion request", "error", err)
		return err
	}

	normalizeHistorySegments(c.Pos, segs)

	historyKey := segs.HistoryKey()
	conversionKey := segs.ConversionKey()
	key := historyKey + conversionKey
	log.Debug("building lattice", "key_size", humanize.Bytes(uint64(len(key))))

	isPrediction := req.Type == request.Prediction || req.Type == request.Suggestion
	if req.Type == request.Reverse {
		c.Dict.PopulateReverseLookupCache(key)
		defer c.Dict.ClearReverseLookupCache()
	}

	c.acquireLattice(key, len(historyKey), isPrediction, kanautil.CharsLen(conversionKey))

	if err := c.buildHistoryNodes(ctx, req, segs, len(historyKey)); err != nil {
		log.Warn("lattice build failed", "error", err)
		return err
	}

	if err := c.buildConversionNodes(ctx, req, segs, historyKey); err != nil {
		log.Warn("lattice build failed", "error", err)
		return err
	}

	if isPrediction && !isMobile(req) && kanautil.CharsLen(conversionKey) >= minConversionKeyForPrediction {
		c.addPredictiveNodes(ctx, req, conversionKey, key)
	}

	if c.lattice.EndNodesAt(len(key)) == lattice.NilNode {
		err := kerrors.NewLatticeBuildFailure("no path reaches the end of the key", key, -1)
		log.Warn("lattice build failed", "error", err)
		return err
	}

	c.applyPrefixSuffixPenalty(conversionKey)

	origSegments := append(append([]candidate.Segment{}, segs.History...), segs.Conversion...)

	if req.Type == request.Conversion {
		for pos := len(historyKey); pos < len(key); pos++ {
			c.applyResegmentRules(pos)
		}
	}

	c.applyFixedValueConstraints(origSegments, len(historyKey))

	group := makeGroup(origSegments)

	terminal := c.lattice.EOS()
	var err error
	if isPrediction {
		if err = search.PredictionViterbi(c.lattice, c.Conn, 0, len(historyKey), len(historyKey)); err == nil {
			err = search.PredictionViterbi(c.lattice, c.Conn, len(historyKey), len(key), len(key))
		}
		if err == nil {
			best := bestPredictionEnd(c.lattice, len(key))
			if best == lattice.NilNode {
				err = kerrors.NewSearchFailure("no node reaches the end of the key", key)
			} else {
				// Link EOS after the cheapest end node so the segment walk
				// and the n-best generator stop at EOS, as in conversion.
				eos, bn := c.lattice.Node(terminal), c.lattice.Node(best)
				eos.Prev = best
				eos.Cost = bn.Cost + c.Conn.TransitionCost(bn.RID, eos.LID)
				err = search.PredictionBackWalk(c.lattice, terminal)
			}
		}
	} else {
		err = search.Viterbi(c.lattice, c.Conn, len(key))
	}
	if err != nil {
		log.Warn("search failed", "error", err)
		return err
	}

	c.makeSegments(req, segs, origSegments, group, terminal)

	log.Info("conversion complete", "segments", len(segs.Conversion))
	return nil
}

func isMobile(req *request.Request) bool { return req.MixedConversion }

// bestPredictionEnd returns the cheapest node ending exactly at keyLen.
// PredictionViterbi never relaxes EOS, so ConvertForRequest links EOS
// after the node returned here.
func bestPredictionEnd(l *lattice.Lattice, keyLen int) lattice.NodeID {
	var best lattice.NodeID = lattice.NilNode
	var bestCost int32
	for n := l.EndNodesAt(keyLen); n != lattice.NilNode; n = l.Node(n).ENext {
		nd := l.Node(n)
		if best == lattice.NilNode || nd.Cost < bestCost {
			best, bestCost = n, nd.Cost
		}
	}
	return best
}

func (c *Converter) validate(req *request.Request, segs *candidate.Segments) error {
	if len(segs.History)+len(segs.Conversion) >= maxSegmentsSize {
		return kerrors.NewInvalidInput("too many segments", "")
	}
	key := segs.ConversionKey()
	limit := maxCharLength
	if req.Type == request.Reverse {
		limit = maxCharLengthReverse
	}
	if key == "" || len(key) >= limit {
		return kerrors.NewInvalidInput("conversion key is empty or too long", key)
	}
	if req.Type == request.Reverse || req.Type == request.Prediction || req.Type == request.Suggestion {
		if len(segs.Conversion) != 1 || segs.Conversion[0].Type != candidate.Free {
			return kerrors.NewInvalidInput("reverse/prediction requests require exactly one Free conversion segment", key)
		}
	}
	if len(segs.HistoryKey())+len(key) >= limit {
		segs.History = nil
	}
	return nil
}

// acquireLattice reuses the cached lattice only for back-to-back
// prediction calls whose history boundary has not shifted; every other
// request type, or a one-character conversion key, gets a fresh lattice.
// Grounded in GetLattice's cache-invalidation conditions.
func (c *Converter) acquireLattice(key string, historyEndPos int, isPrediction bool, conversionChars int) {
	reuse := isPrediction && conversionChars > 1 && c.lattice != nil && c.lattice.HistoryEndPos() == historyEndPos
	if !reuse {
		c.lattice = lattice.New()
	}
	c.lattice.UpdateKey(key)
	c.lattice.ResetNodeCost()
	c.lattice.SetHistoryEndPos(historyEndPos)
}

// normalizeHistorySegments folds full-width ASCII in every history
// candidate to half-width, and collapses an all-digit history value of
// more than one character down to its last digit only, so history-aware
// ranking does not overfit to the exact number the user previously typed.
func normalizeHistorySegments(pos posmatcher.PosMatcher, segs *candidate.Segments) {
	for i := range segs.History {
		seg := &segs.History[i]
		if len(seg.Candidates) == 0 {
			continue
		}
		c := &seg.Candidates[0]
		historyKey := seg.Key
		if len(c.Key) > len(historyKey) {
			historyKey = c.Key
		}
		key := kanautil.FoldFullwidthASCII(historyKey)
		c.Value = kanautil.FoldFullwidthASCII(c.Value)
		c.ContentValue = kanautil.FoldFullwidthASCII(c.ContentValue)
		c.ContentKey = kanautil.FoldFullwidthASCII(c.ContentKey)
		c.Key = key
		seg.Key = key

		if len(key) > 1 && key == c.Value && key == c.ContentValue && key == c.Key && key == c.ContentKey &&
			isAllArabicDigits(key) {
			last := key[len(key)-1:]
			seg.Key = last
			c.Key, c.Value, c.ContentValue, c.ContentKey = last, last, last, last
		}
	}
}

// makeGroup maps every byte offset of the concatenated history+conversion
// key to the index of the segment (within origSegments) that owns it, plus
// one trailing sentinel entry equal to len(origSegments).
func makeGroup(origSegments []candidate.Segment) []int {
	var group []int
	for i, seg := range origSegments {
		for j := 0; j < len(seg.Key); j++ {
			group = append(group, i)
		}
	}
	group = append(group, len(origSegments))
	return group
}

func isAllArabicDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isArabicDigitByte(s[i]) {
			return false
		}
	}
	return true
}

func isArabicDigitByte(b byte) bool { return b >= '0' && b <= '9' }
