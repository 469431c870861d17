package domain

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Term sources as reported by the input data.
const (
	SourceSearch   = "search"
	SourceShopping = "shopping"
	SourcePMax     = "pmax"
)

// SearchTerm is a distinct, normalized query string aggregated over the
// input rows. Identity is the normalized text; impressions of duplicate raw
// occurrences are summed during aggregation and never mutated afterwards.
type SearchTerm struct {
	Text        string
	Impressions int64
	Source      string
}

// NormalizeTerm canonicalizes a raw search term: NFKC normalization,
// lowercasing, and whitespace collapsing. Two raw terms with the same
// normalized form are the same SearchTerm.
func NormalizeTerm(raw string) string {
	s := norm.NFKC.String(raw)
	s = strings.ToLower(s)
	return strings.Join(strings.Fields(s), " ")
}

// AggregateTerms collapses raw rows into distinct normalized terms, summing
// impressions. The first non-empty source seen for a term wins. Order of the
// result follows first appearance in the input.
func AggregateTerms(raw []SearchTerm) []SearchTerm {
	index := make(map[string]int, len(raw))
	out := make([]SearchTerm, 0, len(raw))
	for _, r := range raw {
		text := NormalizeTerm(r.Text)
		if text == "" {
			continue
		}
		if i, ok := index[text]; ok {
			out[i].Impressions += r.Impressions
			if out[i].Source == "" {
				out[i].Source = r.Source
			}
			continue
		}
		index[text] = len(out)
		out = append(out, SearchTerm{Text: text, Impressions: r.Impressions, Source: r.Source})
	}
	return out
}

// Words splits the normalized term text into its words.
func (t SearchTerm) Words() []string {
	return strings.Fields(t.Text)
}
