// Package filter implements the stateful candidate filter: given a stream
// of enumerated candidates for one segment, decide which are Good (keep),
// Bad (drop, keep enumerating), or StopEnumeration (drop and halt).
package filter

import (
	"golang.org/x/crypto/blake2b"

	"kanaconv/internal/candidate"
	"kanaconv/internal/dictionary"
	"kanaconv/internal/kanautil"
	"kanaconv/internal/lattice"
	"kanaconv/internal/posmatcher"
	"kanaconv/internal/request"
	"kanaconv/internal/suggestionfilter"
)

// Verdict is the outcome of one Filter call.
type Verdict int

const (
	Good Verdict = iota
	Bad
	StopEnumeration
)

func (v Verdict) String() string {
	switch v {
	case Good:
		return "Good"
	case Bad:
		return "Bad"
	case StopEnumeration:
		return "StopEnumeration"
	default:
		return "Unknown"
	}
}

// Cost constants mirror candidate_filter.cc's naming; see that file's
// comment for the log-odds derivation of the specific magnitudes.
const (
	minCost                          = 100
	costOffset                       = 6907
	structureCostOffset              = 3453
	minStructureCostOffset           = 1151
	stopEnumerationCacheSize         = 30
	sizeThresholdForWeakCompound     = 10
	maxCandidatesSize                = 200
	compoundGracefulCostOffset       = 2302
	compoundGracefulStructureCostCap = 6907
)

// CandidateFilter is constructed once per converter and Reset before each
// segment's n-best enumeration pass; Filter is then called once per
// candidate the generator produces, in enumeration order.
type CandidateFilter struct {
	Pos           posmatcher.PosMatcher
	UserDict      dictionary.UserDictionary // nil disables suppression checks
	SuggestFilter *suggestionfilter.Filter  // nil disables suggestion filtering
	Lattice       *lattice.Lattice          // nil disables the isolated-word flanking check

	top  *candidate.Candidate
	seen map[[32]byte]bool
}

// Reset clears the seen-set and forgets the top candidate, starting a new
// enumeration pass.
func (f *CandidateFilter) Reset() {
	f.top = nil
	f.seen = map[[32]byte]bool{}
}

func seenKey(c *candidate.Candidate) [32]byte {
	return blake2b.Sum256([]byte(c.Key + "\x00" + c.Value))
}

// Filter decides candidate c's fate. topNodes is the accepted top
// candidate's path (used only for the low-rank compound bypass); nodes is
// c's own path. Reverse-conversion requests only deduplicate, since the
// rest of this filter's criteria are designed for forward conversion.
func (f *CandidateFilter) Filter(req *request.Request, originalKey string, c *candidate.Candidate, topNodes, nodes []*lattice.Node) Verdict {
	if f.seen == nil {
		f.Reset()
	}

	if req.Type == request.Reverse {
		key := seenKey(c)
		if f.seen[key] {
			return Bad
		}
		f.seen[key] = true
		return Good
	}

	v := f.filterInternal(req, originalKey, c, topNodes, nodes)
	if v == Good {
		f.seen[seenKey(c)] = true
	}
	return v
}

func (f *CandidateFilter) checkRequestType(req *request.Request, originalKey string, c *candidate.Candidate, nodes []*lattice.Node) Verdict {
	switch req.Type {
	case request.Prediction:
		// Explicit tab-triggered prediction on an unmodified key relaxes
		// the suggestion filter: the user asked for exactly this.
		if originalKey == c.Key {
			return Good
		}
		fallthrough
	case request.Suggestion:
		if f.SuggestFilter == nil {
			return Good
		}
		if f.SuggestFilter.IsBadSuggestion(c.Value) {
			return Bad
		}
		for _, n := range nodes {
			if f.SuggestFilter.IsBadSuggestion(n.Value) {
				return Bad
			}
		}
	}
	return Good
}

// filterInternal computes the verdict without mutating the seen-set; the
// caller inserts on Good. seenCount is read once up front and used
// throughout as "how many candidates has this segment accepted so far".
func (f *CandidateFilter) filterInternal(req *request.Request, originalKey string, c *candidate.Candidate, topNodes, nodes []*lattice.Node) Verdict {
	if v := f.checkRequestType(req, originalKey, c, nodes); v != Good {
		return v
	}

	// Constrained-node costs tend to be overestimated; don't let them
	// compete on cost at all.
	if c.Attributes.Has(candidate.AttrContextSensitive) {
		return Good
	}

	seenCount := len(f.seen)
	if f.top == nil || seenCount == 0 {
		f.top = c
	}

	// "短縮よみ"/"記号,一般" may only appear as the sole node of a
	// candidate.
	if len(nodes) > 1 && containsIsolatedWordOrGeneralSymbol(f.Pos, nodes) {
		return Bad
	}
	// A singleton candidate built from such a node is still bad if the
	// node itself sits mid-lattice, flanked by a real (non-BOS/EOS)
	// neighbor on either side: only a node actually at BOS/EOS may survive
	// as a one-node candidate.
	if len(nodes) == 1 && isIsolatedWordOrGeneralSymbol(f.Pos, nodes[0].LID) &&
		(isNormalOrConstrained(f.nodeAt(nodes[0].Prev)) || isNormalOrConstrained(f.nodeAt(nodes[0].Next))) {
		return Bad
	}

	if f.UserDict != nil {
		if f.UserDict.IsSuppressedEntry(c.Key, c.Value) ||
			(c.Key != c.ContentKey && c.Value != c.ContentValue &&
				f.UserDict.IsSuppressedEntry(c.ContentKey, c.ContentValue)) {
			return Bad
		}
	}

	if c.Attributes.Has(candidate.AttrUserDictionary) {
		return Good
	}

	if seenCount+1 >= maxCandidatesSize {
		return StopEnumeration
	}

	if f.seen[seenKey(c)] {
		return Bad
	}

	if len(nodes) == 0 {
		return Good
	}

	// Suppress "書います"/"書いすぎ"/"買いて": a -i-onbin verb stem must
	// not connect to a verb suffix other than te, and a wa-row renyou
	// stem must not connect to a te suffix at all.
	if !allHiragana(nodes[0].Value) {
		if len(nodes) >= 2 {
			if f.Pos.IsKagyoTaConnectionVerb(nodes[0].RID) && f.Pos.IsVerbSuffix(nodes[1].LID) && !f.Pos.IsTeSuffix(nodes[1].LID) {
				return Bad
			}
			if f.Pos.IsWagyoRenyoConnectionVerb(nodes[0].RID) && f.Pos.IsTeSuffix(nodes[1].LID) {
				return Bad
			}
		}
		if nodes[0].IsCompound() {
			if f.Pos.IsKagyoTaConnectionVerb(nodes[0].LID) && f.Pos.IsVerbSuffix(nodes[0].RID) && !f.Pos.IsTeSuffix(nodes[0].RID) {
				return Bad
			}
			if f.Pos.IsWagyoRenyoConnectionVerb(nodes[0].LID) && f.Pos.IsTeSuffix(nodes[0].RID) {
				return Bad
			}
		}
	}

	if len(nodes) == 1 {
		return Good
	}
	if kanautil.CharsLen(c.Value) == 1 {
		return Good
	}

	noisy := isNoisyWeakCompound(nodes, f.Pos)
	connected := isConnectedWeakCompound(nodes, f.Pos)

	if noisy && seenCount >= 1 {
		return Bad
	}
	if connected && seenCount >= sizeThresholdForWeakCompound {
		return Bad
	}

	// Don't drop a candidate sharing the top candidate's lid/rid: the top
	// candidate may be a zero-structure-cost compound whose siblings get
	// unfairly penalized by structure cost alone.
	if !noisy && f.top.StructureCost == 0 && c.LID == f.top.LID && c.RID == f.top.RID {
		return Good
	}

	// "好かっ|たり" vs "良かっ|たり": same hiragana non-content suffix as
	// the top candidate's, differing only in content reading.
	if !noisy && f.top != c && f.top.ContentValue != f.top.Value {
		topNonContent := suffixAfter(f.top.Value, f.top.ContentValue)
		nonContent := suffixAfter(c.Value, c.ContentValue)
		if allHiragana(topNonContent) && topNonContent == nonContent {
			return Good
		}
	}

	// Katakana/English transliterations must be a prefix, and every node
	// after one must be functional; skipped for realtime-conversion
	// candidates, where ruining the sentence just to apply this rule
	// would be worse than the noise it prevents.
	if !c.Attributes.Has(candidate.AttrRealtimeConversion) {
		isTopT13n := allHiragana(nodes[0].Key) && isEnglishTransliteration(nodes[0].Value)
		for i := 1; i < len(nodes); i++ {
			if allHiragana(nodes[i].Key) && isEnglishTransliteration(nodes[i].Value) {
				return Bad
			}
			if isTopT13n && !f.Pos.IsFunctional(nodes[i].LID) {
				return Bad
			}
		}
	}

	topCost := maxInt32(minCost, f.top.Cost)
	topStructureCost := maxInt32(minCost, f.top.StructureCost)

	// Tentative workaround: when the top candidate is a single compound
	// node its structure cost is often exactly 0, which would otherwise
	// unfairly doom early non-compound siblings.
	if isCompoundCandidate(topNodes) && seenCount < 3 &&
		c.Cost < topCost+compoundGracefulCostOffset && c.StructureCost < compoundGracefulStructureCostCap {
		return Good
	}

	// Personal names bypass the cost gate: minor surnames/given-names
	// should not be hidden just because they're statistically rare.
	// Rather than computing an INT_MAX-valued offset that could overflow
	// the addition below, the gate is skipped outright.
	isPersonalName := c.LID == f.Pos.GetLastNameID() || c.LID == f.Pos.GetFirstNameID()
	if !isPersonalName {
		if topCost+costOffset < c.Cost && topStructureCost+minStructureCostOffset < c.StructureCost {
			if seenCount < stopEnumerationCacheSize {
				return Bad
			}
			return StopEnumeration
		}
	}

	if maxInt32(topStructureCost, minStructureCostOffset)+structureCostOffset < c.StructureCost {
		return Bad
	}

	if hasConsecutiveNumericNodesWithDifferingLID(nodes, f.Pos) {
		return Bad
	}

	return Good
}

func isIsolatedWordOrGeneralSymbol(pos posmatcher.PosMatcher, id uint16) bool {
	return pos.IsIsolatedWord(id) || pos.IsGeneralSymbol(id)
}

func containsIsolatedWordOrGeneralSymbol(pos posmatcher.PosMatcher, nodes []*lattice.Node) bool {
	for _, n := range nodes {
		if isIsolatedWordOrGeneralSymbol(pos, n.LID) {
			return true
		}
	}
	return false
}

// nodeAt resolves id against f.Lattice, returning nil for NilNode or when
// no Lattice was wired (the id itself is then meaningless).
func (f *CandidateFilter) nodeAt(id lattice.NodeID) *lattice.Node {
	if f.Lattice == nil || id == lattice.NilNode {
		return nil
	}
	return f.Lattice.Node(id)
}

// isNormalOrConstrained reports whether node is a real lattice hypothesis
// (as opposed to a BOS/EOS/History sentinel, or absent).
func isNormalOrConstrained(node *lattice.Node) bool {
	return node != nil && (node.Type == lattice.Normal || node.Type == lattice.Constrained)
}

func isCompoundCandidate(nodes []*lattice.Node) bool {
	return len(nodes) == 1 && nodes[0].IsCompound()
}

// isNoisyWeakCompound reports whether nodes open with a non-compound word
// whose shape does not plausibly match what follows: a filler prefix, an
// unexplained jump into a compound second node, or a noun/verb prefix
// followed by something other than its matching suffix class.
func isNoisyWeakCompound(nodes []*lattice.Node, pos posmatcher.PosMatcher) bool {
	if len(nodes) <= 1 || nodes[0].IsCompound() {
		return false
	}
	if pos.IsWeakCompoundFillerPrefix(nodes[0].LID) {
		return true
	}
	if nodes[1].IsCompound() {
		antiPhrase := pos.IsContentNoun(nodes[0].RID) && pos.IsAcceptableParticleAtBeginOfSegment(nodes[1].LID)
		if !antiPhrase {
			return true
		}
	}
	if pos.IsWeakCompoundNounPrefix(nodes[0].LID) && !pos.IsWeakCompoundNounSuffix(nodes[1].LID) {
		return true
	}
	if pos.IsWeakCompoundVerbPrefix(nodes[0].LID) && !pos.IsWeakCompoundVerbSuffix(nodes[1].LID) {
		return true
	}
	return false
}

// isConnectedWeakCompound reports a noun-prefix+noun-suffix or
// verb-prefix+verb-suffix opening pair of weak-compound classes, tolerated
// only up to sizeThresholdForWeakCompound accepted
// candidates.
func isConnectedWeakCompound(nodes []*lattice.Node, pos posmatcher.PosMatcher) bool {
	if len(nodes) <= 1 || nodes[0].IsCompound() || nodes[1].IsCompound() {
		return false
	}
	if pos.IsWeakCompoundNounPrefix(nodes[0].LID) && pos.IsWeakCompoundNounSuffix(nodes[1].LID) {
		return true
	}
	if pos.IsWeakCompoundVerbPrefix(nodes[0].LID) && pos.IsWeakCompoundVerbSuffix(nodes[1].LID) {
		return true
	}
	return false
}

func isNumericNode(n *lattice.Node, pos posmatcher.PosMatcher) bool {
	return pos.IsNumber(n.LID) || pos.IsKanjiNumber(n.RID)
}

// hasConsecutiveNumericNodesWithDifferingLID catches shapes like
// "2|十三|重" where adjacent numeric nodes disagree on lid.
func hasConsecutiveNumericNodesWithDifferingLID(nodes []*lattice.Node, pos posmatcher.PosMatcher) bool {
	for i := 0; i+1 < len(nodes); i++ {
		if isNumericNode(nodes[i], pos) && isNumericNode(nodes[i+1], pos) && nodes[i].LID != nodes[i+1].LID {
			return true
		}
	}
	return false
}

func allHiragana(s string) bool {
	return s != "" && kanautil.ScriptRunLen(s, kanautil.IsHiragana) == len(s)
}

// isEnglishTransliteration approximates the source's script-based English-
// loanword heuristic: a value rendered entirely in katakana.
func isEnglishTransliteration(value string) bool {
	return value != "" && kanautil.ScriptRunLen(value, kanautil.IsKatakana) == len(value)
}

// suffixAfter returns value with its prefix prefixValue removed, assuming
// prefixValue is in fact a prefix of value (true for ContentValue by
// construction).
func suffixAfter(value, prefixValue string) string {
	if len(prefixValue) > len(value) {
		return value
	}
	return value[len(prefixValue):]
}

func maxInt32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}
