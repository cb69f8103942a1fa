// Package kanautil provides small character-classification helpers shared
// across the lattice/lookup/convert packages: counting runes the way a
// front-end input method would, and recognizing the script of a lookup's
// leading codepoint for synthetic character-type node insertion. These are
// fundamental codepoint-range checks, not a concern any library in this
// module's stack addresses; unicode/utf8 is used directly.
package kanautil

import "unicode/utf8"

// CharsLen counts runes in s (Util::CharsLen in the source), used for
// ConsumedKeySize on mobile partial candidates.
func CharsLen(s string) int {
	return utf8.RuneCountInString(s)
}

// FirstRune returns the first rune of s and its byte width, or (0,0) for
// an empty string.
func FirstRune(s string) (rune, int) {
	if s == "" {
		return 0, 0
	}
	r, size := utf8.DecodeRuneInString(s)
	return r, size
}

// IsDigit reports whether r is an ASCII or fullwidth-ASCII digit.
func IsDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 0xFF10 && r <= 0xFF19)
}

// IsKatakana reports whether r lies in the katakana block (including the
// katakana phonetic extension used by some loanword forms).
func IsKatakana(r rune) bool {
	return (r >= 0x30A0 && r <= 0x30FF) || (r >= 0x31F0 && r <= 0x31FF)
}

// IsHiragana reports whether r lies in the hiragana block.
func IsHiragana(r rune) bool {
	return r >= 0x3040 && r <= 0x309F
}

// IsLatinLetter reports whether r is an ASCII or fullwidth Latin letter.
func IsLatinLetter(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') ||
		(r >= 0xFF21 && r <= 0xFF3A) || (r >= 0xFF41 && r <= 0xFF5A)
}

// ScriptRunLen returns the byte length of the longest prefix of s all of
// whose runes satisfy classify (e.g. IsKatakana, IsLatinLetter), starting
// from the first rune.
func ScriptRunLen(s string, classify func(rune) bool) int {
	n := 0
	for _, r := range s {
		if !classify(r) {
			break
		}
		n += utf8.RuneLen(r)
	}
	return n
}

// HiraganaToKatakana shifts every hiragana rune in s up to its katakana
// counterpart (the two blocks share layout, offset by 0x60), leaving every
// other rune untouched.
func HiraganaToKatakana(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if IsHiragana(r) {
			out = append(out, r+0x60)
		} else {
			out = append(out, r)
		}
	}
	return string(out)
}

// FoldFullwidthASCII maps fullwidth ASCII (U+FF01-FF5E) and the fullwidth
// space (U+3000) to their halfwidth equivalents, used when normalizing
// history segments.
func FoldFullwidthASCII(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r == 0x3000:
			out = append(out, ' ')
		case r >= 0xFF01 && r <= 0xFF5E:
			out = append(out, r-0xFF01+'!')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
