package classifier

import "strings"

// DefaultSimilarityThreshold is the minimum normalized Levenshtein
// similarity at which a fuzzy brand match is accepted.
const DefaultSimilarityThreshold = 0.80

// LevenshteinDistance computes the edit distance between a and b using a
// two-row dynamic programming table.
func LevenshteinDistance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = minInt(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// LevenshteinSimilarity is 1 - distance/max(len(a), len(b)), in [0,1].
// Identical strings after lowercasing score 1.0.
func LevenshteinSimilarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 1.0
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(LevenshteinDistance(a, b))/float64(maxLen)
}

// FindBestMatch returns the single highest-similarity candidate at or above
// minSimilarity. Ties are broken by first-encountered candidate order. ok is
// false when no candidate reaches the threshold.
func FindBestMatch(term string, candidates []string, minSimilarity float64) (match string, similarity float64, ok bool) {
	best := -1.0
	for _, c := range candidates {
		sim := LevenshteinSimilarity(term, c)
		if sim >= minSimilarity && sim > best {
			best = sim
			match = c
		}
	}
	if best < 0 {
		return "", 0, false
	}
	return match, best, true
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
