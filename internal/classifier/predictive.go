package classifier

import (
	"strings"

	"github.com/paidsearchlab/searchintent/internal/domain"
)

// Predictive word model thresholds. A word becomes predictive only when it
// occurs often enough across cached terms and its occurrences agree strongly
// on one category.
const (
	DefaultPredictiveMinCount = 3
	DefaultPredictiveMinShare = 0.7
)

// WordPrediction is one predictive word's learned verdict.
type WordPrediction struct {
	Category   domain.IntentCategory
	Confidence float64
	Count      int
}

// PredictiveModel maps words to learned category predictions. It is a pure
// derived view over an account's cache entries, rebuilt every run and never
// mutated after construction.
type PredictiveModel struct {
	words map[string]WordPrediction
}

// BuildPredictiveModel derives per-word category statistics from cached
// (term, category) pairs. A word is kept when it occurs at least minCount
// times and the majority category holds at least minShare of occurrences.
func BuildPredictiveModel(entries map[string]domain.IntentCategory, minCount int, minShare float64) *PredictiveModel {
	type tally struct {
		counts map[domain.IntentCategory]int
		total  int
	}
	tallies := make(map[string]*tally)

	for term, category := range entries {
		for _, word := range strings.Fields(term) {
			t, ok := tallies[word]
			if !ok {
				t = &tally{counts: make(map[domain.IntentCategory]int)}
				tallies[word] = t
			}
			t.counts[category]++
			t.total++
		}
	}

	words := make(map[string]WordPrediction)
	for word, t := range tallies {
		if t.total < minCount {
			continue
		}
		var bestCat domain.IntentCategory
		best := 0
		for cat, n := range t.counts {
			if n > best || (n == best && cat < bestCat) {
				best = n
				bestCat = cat
			}
		}
		share := float64(best) / float64(t.total)
		if share < minShare {
			continue
		}
		words[word] = WordPrediction{Category: bestCat, Confidence: share, Count: t.total}
	}

	return &PredictiveModel{words: words}
}

// Len reports the number of predictive words in the model.
func (m *PredictiveModel) Len() int {
	return len(m.words)
}

// Predict classifies a term from its predictive words, or returns nil when
// no word in the term is predictive. When several words predict, the one
// with the highest confidence (then highest occurrence count) wins.
func (m *PredictiveModel) Predict(term string) *domain.Classification {
	var best *WordPrediction
	for _, word := range strings.Fields(term) {
		p, ok := m.words[word]
		if !ok {
			continue
		}
		if best == nil || p.Confidence > best.Confidence ||
			(p.Confidence == best.Confidence && p.Count > best.Count) {
			cp := p
			best = &cp
		}
	}
	if best == nil {
		return nil
	}
	return &domain.Classification{
		Category:   best.Category,
		Confidence: best.Confidence,
		Method:     domain.MethodPredictive,
	}
}
