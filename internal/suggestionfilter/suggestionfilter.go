// Package suggestionfilter implements a bloom-filter-backed classifier of
// "bad suggestion" surface values: no false negatives on the word list it
// was built from, false-positive rate under 1e-4 on the rest of a real
// dictionary.
package suggestionfilter

import (
	"crypto/sha256"
	"encoding/binary"
	"math"

	"golang.org/x/crypto/blake2b"
)

// Filter is a two-hash bloom filter over candidate surface values.
type Filter struct {
	bits    []uint64
	numBits uint64
	k       int // number of hash probes per word, derived from target FPR
}

// New builds a Filter sized for n words at the target false-positive rate
// fpr (use 1e-4 to match the source contract). The standard bloom-filter
// sizing formulas pick m (bits) and k (hashes) from n and fpr; here we
// implement k probes via double hashing over two independent 64-bit
// digests (blake2b and sha256), rather than k independent hash functions,
// which is the standard trick for keeping a bloom filter to two real hash
// computations regardless of k.
func New(words []string, fpr float64) *Filter {
	n := len(words)
	if n == 0 {
		n = 1
	}
	m := optimalBits(n, fpr)
	k := optimalHashes(n, m)
	f := &Filter{bits: make([]uint64, (m+63)/64), numBits: uint64(m), k: k}
	for _, w := range words {
		f.Add(w)
	}
	return f
}

func optimalBits(n int, fpr float64) int {
	m := -1.0 * float64(n) * math.Log(fpr) / (math.Ln2 * math.Ln2)
	if m < 64 {
		m = 64
	}
	return int(m)
}

func optimalHashes(n, m int) int {
	k := int(math.Round(float64(m) / float64(n) * math.Ln2))
	if k < 1 {
		k = 1
	}
	if k > 16 {
		k = 16
	}
	return k
}

func (f *Filter) digests(word string) (uint64, uint64) {
	sum2, _ := blake2b.New256(nil)
	sum2.Write([]byte(word))
	d1 := sum2.Sum(nil)
	d2 := sha256.Sum256([]byte(word))
	h1 := binary.LittleEndian.Uint64(d1[:8])
	h2 := binary.LittleEndian.Uint64(d2[:8])
	return h1, h2
}

func (f *Filter) setBit(i uint64) {
	f.bits[i/64] |= 1 << (i % 64)
}

func (f *Filter) getBit(i uint64) bool {
	return f.bits[i/64]&(1<<(i%64)) != 0
}

// Add inserts word, setting k bits derived from double hashing h1+i*h2.
func (f *Filter) Add(word string) {
	h1, h2 := f.digests(word)
	for i := 0; i < f.k; i++ {
		idx := (h1 + uint64(i)*h2) % f.numBits
		f.setBit(idx)
	}
}

// IsBadSuggestion reports whether value is classified as a bad suggestion.
// False positives are possible (by design, at the configured rate); false
// negatives are not, for any word the filter was built from.
func (f *Filter) IsBadSuggestion(value string) bool {
	h1, h2 := f.digests(value)
	for i := 0; i < f.k; i++ {
		idx := (h1 + uint64(i)*h2) % f.numBits
		if !f.getBit(idx) {
			return false
		}
	}
	return true
}
