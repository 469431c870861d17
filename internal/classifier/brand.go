package classifier

import (
	"github.com/cloudflare/ahocorasick"

	"github.com/paidsearchlab/searchintent/internal/domain"
)

// brandMatchConfidence is the fixed confidence of an exact brand or
// competitor substring match.
const brandMatchConfidence = 0.95

// BrandMatcher finds configured brand and competitor strings inside search
// terms. Matching is substring based over the normalized term, built on an
// Aho-Corasick automaton so one pass covers every configured string.
type BrandMatcher struct {
	brands      *ahocorasick.Matcher
	brandList   []string
	competitors *ahocorasick.Matcher
	compList    []string
}

// NewBrandMatcher builds matchers for the account's own brand strings and
// for competitor/sold-brand strings. Either list may be empty.
func NewBrandMatcher(brandStrings, competitorStrings []string) *BrandMatcher {
	m := &BrandMatcher{}
	m.brandList = normalizeAll(brandStrings)
	if len(m.brandList) > 0 {
		m.brands = ahocorasick.NewStringMatcher(m.brandList)
	}
	m.compList = normalizeAll(competitorStrings)
	if len(m.compList) > 0 {
		m.competitors = ahocorasick.NewStringMatcher(m.compList)
	}
	return m
}

// Match classifies a normalized term by exact substring match. Own-brand
// strings win over competitor strings. ok is false when nothing matches.
func (m *BrandMatcher) Match(term string) (domain.Classification, bool) {
	if m.brands != nil && len(m.brands.Match([]byte(term))) > 0 {
		return domain.Classification{
			Category:   domain.CategoryBrand,
			Confidence: brandMatchConfidence,
			Method:     domain.MethodBrand,
		}, true
	}
	if m.competitors != nil && len(m.competitors.Match([]byte(term))) > 0 {
		return domain.Classification{
			Category:   domain.CategoryNavigational,
			Confidence: brandMatchConfidence,
			Method:     domain.MethodCompetitor,
		}, true
	}
	return domain.Classification{}, false
}

// BrandNames returns the normalized own-brand strings, used by the fuzzy
// similarity stage.
func (m *BrandMatcher) BrandNames() []string {
	return m.brandList
}

func normalizeAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if n := domain.NormalizeTerm(v); n != "" {
			out = append(out, n)
		}
	}
	return out
}
