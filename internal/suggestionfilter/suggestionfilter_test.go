package suggestionfilter

import (
	"fmt"
	"testing"
)

// TestNoFalseNegatives is property P9's first half: every word the filter
// was built from must be classified as a bad suggestion.
func TestNoFalseNegatives(t *testing.T) {
	words := []string{"ばか", "あほ", "しね", "くそ", "うんこ"}
	f := New(words, 1e-4)
	for _, w := range words {
		if !f.IsBadSuggestion(w) {
			t.Errorf("IsBadSuggestion(%q) = false, want true (no false negatives)", w)
		}
	}
}

// TestFalsePositiveRateBound is a statistical sanity check on P9's second
// half: sampling words outside the built set should rarely trigger a
// positive. We don't assert a tight bound (flaky), just that it's not
// trivially broken (e.g. every query returning true).
func TestFalsePositiveRateBound(t *testing.T) {
	words := make([]string, 2000)
	for i := range words {
		words[i] = fmt.Sprintf("badword-%d", i)
	}
	f := New(words, 1e-4)

	falsePositives := 0
	trials := 5000
	for i := 0; i < trials; i++ {
		probe := fmt.Sprintf("goodword-%d", i)
		if f.IsBadSuggestion(probe) {
			falsePositives++
		}
	}
	rate := float64(falsePositives) / float64(trials)
	if rate > 0.01 {
		t.Errorf("false positive rate = %.5f over %d trials, want well under 0.01", rate, trials)
	}
}
