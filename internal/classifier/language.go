package classifier

import (
	"unicode"

	"github.com/paidsearchlab/searchintent/internal/domain"
)

const (
	// latinDominantThreshold is the minimum mean Latin ratio across an
	// account's terms for the account to be treated as Latin-dominant.
	latinDominantThreshold = 0.9
	// nonLatinTermThreshold flags a term as non-Latin when its own ratio
	// falls below this, in a Latin-dominant account.
	nonLatinTermThreshold = 0.5
)

// LatinRatio is the fraction of non-whitespace characters that are ASCII
// letters, digits, or common punctuation. An empty or all-whitespace string
// scores 1.0.
func LatinRatio(s string) float64 {
	total := 0
	latin := 0
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if r <= unicode.MaxASCII {
			latin++
		}
	}
	if total == 0 {
		return 1.0
	}
	return float64(latin) / float64(total)
}

// IsLatinDominant reports whether the mean Latin ratio across all terms
// exceeds the dominance threshold. Accounts that are not Latin-dominant skip
// the language filter entirely.
func IsLatinDominant(terms []domain.SearchTerm) bool {
	if len(terms) == 0 {
		return false
	}
	sum := 0.0
	for _, t := range terms {
		sum += LatinRatio(t.Text)
	}
	return sum/float64(len(terms)) > latinDominantThreshold
}

// IsNonLatinTerm reports whether a single term should be flagged non_latin
// in a Latin-dominant account.
func IsNonLatinTerm(term string) bool {
	return LatinRatio(term) < nonLatinTermThreshold
}
