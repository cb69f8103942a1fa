package convert

import (
	"kanaconv/internal/kanautil"
	"kanaconv/internal/lattice"
)

// applyResegmentRules tries three compound shapes in order — an arabic
// number glued to a suffix, a prefix glued to an arabic number, and a
// last-name/first-name compound — against every Normal compound node
// beginning at pos, splitting each match into two nodes, the second
// constrained to follow the first. Once a rule has split at least one
// node at pos, the later rules are not tried there. Grounded in the
// resegmentation block of MakeLattice (lines 463-790 of
// immutable_converter.cc).
func (c *Converter) applyResegmentRules(pos int) {
	var ids []lattice.NodeID
	for n := c.lattice.BeginNodesAt(pos); n != lattice.NilNode; n = c.lattice.Node(n).BNext {
		ids = append(ids, n)
	}
	rules := []func(int, string, string, uint16, uint16, int32) bool{
		c.resegmentArabicNumberAndSuffix,
		c.resegmentPrefixAndArabicNumber,
		c.resegmentPersonalName,
	}
	for _, rule := range rules {
		fired := false
		for _, id := range ids {
			nd := c.lattice.Node(id)
			if nd.Type != lattice.Normal || !nd.IsCompound() {
				continue
			}
			if rule(pos, nd.Key, nd.Value, nd.LID, nd.RID, nd.WCost) {
				fired = true
			}
		}
		if fired {
			return
		}
	}
}

func halvedCost(wcost int32) int32 {
	c := wcost/2 - 1
	if c < 0 {
		return 0
	}
	return c
}

// resegmentArabicNumberAndSuffix splits a compound like "5個" (number +
// counter suffix) into a number node (rid=0) followed by a suffix node
// (lid=0) constrained to it.
func (c *Converter) resegmentArabicNumberAndSuffix(pos int, key, value string, lid, rid uint16, wcost int32) bool {
	if !c.Pos.IsNumber(lid) || c.Pos.IsNumber(rid) {
		return false
	}
	if key == "" || !isArabicDigitByte(key[0]) || value == "" || !isArabicDigitByte(value[0]) {
		return false
	}
	numKey, suffixKey := decomposeNumberAndSuffix(key)
	numValue, suffixValue := decomposeNumberAndSuffix(value)
	if suffixKey == "" || suffixValue == "" {
		return false
	}

	cost := halvedCost(wcost)

	numID := c.lattice.NewNode()
	nn := c.lattice.Node(numID)
	nn.Key, nn.Value = numKey, numValue
	nn.LID, nn.RID = lid, 0
	nn.WCost = cost
	nn.Type = lattice.Normal
	c.lattice.Insert(pos, numID)

	sufID := c.lattice.NewNode()
	sn := c.lattice.Node(sufID)
	sn.Key, sn.Value = suffixKey, suffixValue
	sn.LID, sn.RID = 0, rid
	sn.WCost = cost
	sn.Type = lattice.Normal
	sn.ConstrainedPrev = numID
	c.lattice.Insert(pos+len(numKey), sufID)

	return true
}

// resegmentPrefixAndArabicNumber is the mirror image: a prefix followed by
// a trailing arabic number, e.g. "第3" (ordinal prefix + number).
func (c *Converter) resegmentPrefixAndArabicNumber(pos int, key, value string, lid, rid uint16, wcost int32) bool {
	// Unlike resegmentArabicNumberAndSuffix, POS is not checked here: words
	// ending with an arabic number are rare enough that the POS gate isn't
	// worth the false negatives it would cause.
	if len(key) <= 1 || len(value) <= 1 {
		return false
	}
	if isArabicDigitByte(key[0]) || isArabicDigitByte(value[0]) {
		return false
	}
	if !isArabicDigitByte(key[len(key)-1]) || !isArabicDigitByte(value[len(value)-1]) {
		return false
	}
	prefixKey, numKey := decomposePrefixAndNumber(key)
	prefixValue, numValue := decomposePrefixAndNumber(value)
	if prefixKey == "" || prefixValue == "" {
		return false
	}

	cost := halvedCost(wcost)

	prefixID := c.lattice.NewNode()
	pn := c.lattice.Node(prefixID)
	pn.Key, pn.Value = prefixKey, prefixValue
	pn.LID, pn.RID = lid, 0
	pn.WCost = cost
	pn.Type = lattice.Normal
	c.lattice.Insert(pos, prefixID)

	numID := c.lattice.NewNode()
	nn := c.lattice.Node(numID)
	nn.Key, nn.Value = numKey, numValue
	nn.LID, nn.RID = 0, rid
	nn.WCost = cost
	nn.Type = lattice.Normal
	nn.ConstrainedPrev = prefixID
	c.lattice.Insert(pos+len(prefixKey), numID)

	return true
}

// resegmentPersonalName splits a last-name/first-name compound by finding
// the cheapest (lnode, rnode) pair among the dictionary entries already
// built at this position whose surface values concatenate back to the
// compound's and whose split point the segmenter recognizes as a real
// boundary, then inserting that pair as constrained nodes in place of the
// compound. Expected last-name/first-name POS ids are only checked after
// the fact: both must hold for a 3-character compound, but only one needs
// to for longer ones, since the dictionary's POS tagging of real name
// components is unreliable past two characters. The replacement nodes
// reuse the matched entries' own Key/Value rather than slicing the
// compound's (reading, surface) pair at the same byte offset, since kana
// readings and kanji surfaces are not length-aligned. Grounded in
// ResegmentPersonalName.
func (c *Converter) resegmentPersonalName(pos int, key, value string, lid, rid uint16, wcost int32) bool {
	lastNameID, firstNameID := c.Pos.GetLastNameID(), c.Pos.GetFirstNameID()
	if lid != lastNameID || rid != firstNameID {
		return false
	}
	charLen := kanautil.CharsLen(value)
	if charLen <= 2 || allKatakana(value) {
		return false
	}

	var bestLast, bestFirst *lattice.Node
	var bestCost int32

	// Constrained Viterbi search inside the compound: lnode must be a
	// prefix of the compound and rnode the matching suffix, their surface
	// values must concatenate back to the compound's, and the segmenter
	// must treat the split as a genuine boundary. POS matching is applied
	// afterward as a relaxed filter, not as a search precondition, since
	// the len>=4 relaxation below must still consider pairs where only one
	// side carries the expected POS.
	for lnode := c.lattice.BeginNodesAt(pos); lnode != lattice.NilNode; lnode = c.lattice.Node(lnode).BNext {
		ln := c.lattice.Node(lnode)
		if len(value) <= len(ln.Value) || len(key) <= len(ln.Key) {
			continue
		}
		if value[:len(ln.Value)] != ln.Value {
			continue
		}
		for rnode := c.lattice.BeginNodesAt(pos + len(ln.Key)); rnode != lattice.NilNode; rnode = c.lattice.Node(rnode).BNext {
			rn := c.lattice.Node(rnode)
			if len(ln.Value)+len(rn.Value) != len(value) || ln.Value+rn.Value != value {
				continue
			}
			if !c.Segmenter.IsBoundary(ln, rn, false) {
				continue
			}
			cost := ln.WCost + c.Conn.TransitionCost(ln.RID, rn.LID)
			if bestLast == nil || cost < bestCost {
				bestLast, bestFirst, bestCost = ln, rn, cost
			}
		}
	}
	if bestLast == nil || bestFirst == nil {
		return false
	}

	if charLen >= 4 && bestLast.LID != lastNameID && bestFirst.RID != firstNameID {
		return false
	}
	if charLen == 3 && (bestLast.LID != lastNameID || bestFirst.RID != firstNameID) {
		return false
	}

	transition := c.Conn.TransitionCost(lastNameID, firstNameID)
	cost := (wcost - transition) / 2

	lastID := c.lattice.NewNode()
	ln := c.lattice.Node(lastID)
	ln.Key, ln.Value = bestLast.Key, bestLast.Value
	ln.LID, ln.RID = lid, lastNameID
	ln.WCost = cost
	ln.Type = lattice.Normal
	c.lattice.Insert(pos, lastID)

	firstID := c.lattice.NewNode()
	fn := c.lattice.Node(firstID)
	fn.Key, fn.Value = bestFirst.Key, bestFirst.Value
	fn.LID, fn.RID = firstNameID, rid
	fn.WCost = cost
	fn.Type = lattice.Normal
	fn.ConstrainedPrev = lastID
	c.lattice.Insert(pos+len(bestLast.Key), firstID)

	return true
}

// decomposeNumberAndSuffix splits off the leading run of ASCII digits;
// input with no leading digit comes back whole as number.
func decomposeNumberAndSuffix(input string) (number, suffix string) {
	end := 0
	for end < len(input) && isArabicDigitByte(input[end]) {
		end++
	}
	if end == 0 {
		return input, ""
	}
	return input[:end], input[end:]
}

// decomposePrefixAndNumber strips the trailing run of ASCII digits.
func decomposePrefixAndNumber(input string) (prefix, number string) {
	end := len(input)
	for end > 0 && isArabicDigitByte(input[end-1]) {
		end--
	}
	return input[:end], input[end:]
}
