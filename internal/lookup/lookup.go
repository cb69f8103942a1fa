// Package lookup wraps dictionary callbacks to emit typed lattice nodes,
// and builds the synthetic character-type nodes added at each position.
package lookup

import (
	"kanaconv/internal/dictionary"
	"kanaconv/internal/kanautil"
	"kanaconv/internal/lattice"
	"kanaconv/internal/posmatcher"
)

// Cost constants for synthetic and predictive-penalty node scoring.
const (
	MaxCost                 int32 = 32767
	DefaultNumberCost       int32 = 3000
	predictivePenaltyDefault int32 = 900 // ~= -500*ln(1/6)
	suffixWordBonus          int32 = 700
	uniqueNounPenalty        int32 = 500
	numberPenalty            int32 = 4000
)

// Adapter turns one dictionary.Token into a lattice.Node value (not yet
// inserted into any lattice). Adapters never mutate the lattice directly:
// the caller chains the returned nodes via BNext and calls Lattice.Insert.
type Adapter interface {
	Adapt(tok dictionary.Token) lattice.Node
}

// Base performs no adjustment beyond copying the token's fields and
// stamping RawWCost, which must equal WCost at lookup time and never
// change afterward.
type Base struct{}

func (Base) Adapt(tok dictionary.Token) lattice.Node {
	return lattice.Node{
		Key:      tok.Key,
		Value:    tok.Value,
		LID:      tok.LID,
		RID:      tok.RID,
		WCost:    tok.WCost,
		RawWCost: tok.WCost,
		Type:     lattice.Normal,
	}
}

// PredictiveWithCache sets AttrCacheEnable so subsequent prediction queries
// at the same position can reuse the node across incremental keystrokes
// instead of re-running the dictionary lookup.
type PredictiveWithCache struct{}

func (PredictiveWithCache) Adapt(tok dictionary.Token) lattice.Node {
	n := Base{}.Adapt(tok)
	n.Attributes |= lattice.AttrCacheEnable
	return n
}

// PredictiveWithPenalty adds the default prediction penalty, a bonus for
// suffix-word-to-suffix-word compounds, and extra penalties for
// unique-noun and number tokens — biasing predictive augmentation away
// from overconfident completions.
type PredictiveWithPenalty struct {
	Pos posmatcher.PosMatcher
}

func (p PredictiveWithPenalty) Adapt(tok dictionary.Token) lattice.Node {
	n := Base{}.Adapt(tok)
	n.WCost += predictivePenaltyDefault
	if p.Pos != nil {
		if p.Pos.IsSuffixWord(tok.LID) && p.Pos.IsSuffixWord(tok.RID) {
			n.WCost -= suffixWordBonus
		}
		if p.Pos.IsUniqueNoun(tok.LID) || p.Pos.IsUniqueNoun(tok.RID) {
			n.WCost += uniqueNounPenalty
		}
		if p.Pos.IsNumber(tok.LID) || p.Pos.IsNumber(tok.RID) {
			n.WCost += numberPenalty
		}
	}
	n.RawWCost = n.WCost
	return n
}

// KeyCorrector maps a dictionary token's key (possibly phonetically
// corrected, e.g. a small-tsu insertion) back to the caller's originally
// typed slice, and reports the extra cost such a correction should add.
type KeyCorrector interface {
	// OriginalKey returns the original-key slice of length
	// len(correctedKey) worth of corrected input, starting at pos.
	OriginalKey(pos int, correctedKey string) string
	// Penalty is added to WCost whenever a correction is actually applied
	// (OriginalKey != correctedKey).
	Penalty() int32
}

// KeyCorrected adjusts a token's key to the caller's original-key slice
// via Corrector, adding Corrector.Penalty() whenever the correction fires.
type KeyCorrected struct {
	Corrector KeyCorrector
}

func (k KeyCorrected) Adapt(tok dictionary.Token) lattice.Node {
	n := Base{}.Adapt(tok)
	if k.Corrector == nil {
		return n
	}
	orig := k.Corrector.OriginalKey(0, tok.Key)
	if orig != tok.Key {
		n.Key = orig
		n.WCost += k.Corrector.Penalty()
	}
	return n
}

// SyntheticCharacterNodes builds the character-type fallback nodes
// added at every position: a one-character number/unknown node, and —
// for alphabet or katakana leading runes — a multi-character node spanning
// the longest same-script run.
func SyntheticCharacterNodes(remaining string, numberID, unknownID uint16) []lattice.Node {
	r, size := kanautil.FirstRune(remaining)
	if size == 0 {
		return nil
	}
	var nodes []lattice.Node

	oneChar := remaining[:size]
	if kanautil.IsDigit(r) {
		nodes = append(nodes, lattice.Node{
			Key: oneChar, Value: oneChar,
			LID: numberID, RID: numberID,
			WCost: DefaultNumberCost, RawWCost: DefaultNumberCost,
			Type: lattice.Normal,
		})
	} else {
		nodes = append(nodes, lattice.Node{
			Key: oneChar, Value: oneChar,
			LID: unknownID, RID: unknownID,
			WCost: MaxCost, RawWCost: MaxCost,
			Type: lattice.Normal,
		})
	}

	var runLen int
	switch {
	case kanautil.IsLatinLetter(r):
		runLen = kanautil.ScriptRunLen(remaining, kanautil.IsLatinLetter)
	case kanautil.IsKatakana(r):
		runLen = kanautil.ScriptRunLen(remaining, kanautil.IsKatakana)
	}
	if runLen > size {
		span := remaining[:runLen]
		nodes = append(nodes, lattice.Node{
			Key: span, Value: span,
			LID: unknownID, RID: unknownID,
			WCost: MaxCost / 2, RawWCost: MaxCost / 2,
			Type: lattice.Normal,
		})
	}
	return nodes
}
