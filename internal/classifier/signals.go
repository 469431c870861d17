// Package classifier implements the multi-stage search term classification
// pipeline: deterministic lexical stages, cache-derived prediction, and the
// ML propagator that spreads LLM verdicts to the long tail.
package classifier

import (
	"regexp"
	"strings"

	"github.com/paidsearchlab/searchintent/internal/domain"
)

// Fixed rule-tier confidences. Phrase matches are more specific than single
// words, so they carry more confidence.
const (
	phraseConfidence = 0.9
	wordConfidence   = 0.8
)

// SignalMatch is the verdict of the signal cascade for one term. Signal
// records which word or phrase fired, for reporting and debugging.
type SignalMatch struct {
	Category   domain.IntentCategory
	Confidence float64
	Signal     string
}

type phraseGroup struct {
	category domain.IntentCategory
	patterns []*regexp.Regexp
}

// SignalClassifier maps lexical signals to intent categories. It is pure:
// Classify has no side effects and nil means "undecided", never an error.
type SignalClassifier struct {
	phraseGroups  []phraseGroup
	negativeWords map[string]struct{}
	lowWords      map[string]struct{}
	highWords     map[string]struct{}
}

var (
	negativePhrases = []string{
		`\bfor free\b`,
		`\bjob (openings?|vacanc(y|ies)|listings?)\b`,
		`\b(entry level|part time|full time) jobs?\b`,
		`\bdo it yourself\b`,
		`\bhow to make your own\b`,
	}
	lowIntentPhrases = []string{
		`\bhow (to|do|does|can|much does)\b`,
		`\bwhat (is|are|does)\b`,
		`\bwhy (is|are|do|does)\b`,
		`\bwhen (is|are|to|should)\b`,
		`\bwhere (is|are|can|do)\b`,
		`\bdifference between\b`,
		`\bpros and cons\b`,
	}
	highIntentPhrases = []string{
		`\bnear me\b`,
		`\bwhere to buy\b`,
		`\bfor sale\b`,
		`\bon sale\b`,
		`\bin stock\b`,
		`\bfree (shipping|delivery)\b`,
		`\b(next|same) day delivery\b`,
		`\bbuy online\b`,
		`\bonline store\b`,
	}

	negativeWordList = []string{
		"free", "job", "jobs", "career", "careers", "hiring", "salary",
		"salaries", "internship", "apprenticeship", "diy", "repair",
		"repairs", "manual", "pdf", "wiki", "wikipedia", "definition",
		"meaning", "lyrics", "torrent",
	}
	lowIntentWordList = []string{
		"how", "what", "why", "when", "guide", "guides", "tutorial",
		"tutorials", "ideas", "inspiration", "tips", "examples", "pictures",
		"photos", "images", "template", "templates",
	}
	highIntentWordList = []string{
		"buy", "purchase", "order", "price", "prices", "pricing", "cost",
		"cheap", "cheapest", "affordable", "deal", "deals", "discount",
		"discounts", "sale", "sales", "coupon", "voucher", "shop", "store",
		"stockist", "stockists", "delivery", "shipping", "quote", "quotes",
		"hire", "rental", "best",
	}
)

// NewSignalClassifier compiles the phrase groups and word sets.
func NewSignalClassifier() *SignalClassifier {
	compile := func(exprs []string) []*regexp.Regexp {
		out := make([]*regexp.Regexp, 0, len(exprs))
		for _, e := range exprs {
			out = append(out, regexp.MustCompile(e))
		}
		return out
	}
	toSet := func(words []string) map[string]struct{} {
		set := make(map[string]struct{}, len(words))
		for _, w := range words {
			set[w] = struct{}{}
		}
		return set
	}

	return &SignalClassifier{
		phraseGroups: []phraseGroup{
			{category: domain.CategoryNegative, patterns: compile(negativePhrases)},
			{category: domain.CategoryLowIntent, patterns: compile(lowIntentPhrases)},
			{category: domain.CategoryHighIntent, patterns: compile(highIntentPhrases)},
		},
		negativeWords: toSet(negativeWordList),
		lowWords:      toSet(lowIntentWordList),
		highWords:     toSet(highIntentWordList),
	}
}

// Classify maps a lowercase, trimmed term to an intent category, or nil when
// no signal fires. Phrase groups are checked first, in negative, low, high
// order; then single words with the priority negative > low > high, except
// that a low-intent hit yields to a high-intent word in the same term: an
// explicit buying signal is not suppressed by an incidental research word.
func (s *SignalClassifier) Classify(term string) *SignalMatch {
	for _, group := range s.phraseGroups {
		for _, re := range group.patterns {
			if loc := re.FindString(term); loc != "" {
				return &SignalMatch{
					Category:   group.category,
					Confidence: phraseConfidence,
					Signal:     loc,
				}
			}
		}
	}

	var negSignal, lowSignal, highSignal string
	for _, word := range strings.Fields(term) {
		if _, ok := s.negativeWords[word]; ok && negSignal == "" {
			negSignal = word
		}
		if _, ok := s.lowWords[word]; ok && lowSignal == "" {
			lowSignal = word
		}
		if _, ok := s.highWords[word]; ok && highSignal == "" {
			highSignal = word
		}
	}

	switch {
	case negSignal != "":
		return &SignalMatch{Category: domain.CategoryNegative, Confidence: wordConfidence, Signal: negSignal}
	case lowSignal != "" && highSignal != "":
		return &SignalMatch{Category: domain.CategoryHighIntent, Confidence: wordConfidence, Signal: highSignal}
	case lowSignal != "":
		return &SignalMatch{Category: domain.CategoryLowIntent, Confidence: wordConfidence, Signal: lowSignal}
	case highSignal != "":
		return &SignalMatch{Category: domain.CategoryHighIntent, Confidence: wordConfidence, Signal: highSignal}
	}
	return nil
}
