// Package domain defines the core types of the search intent classifier:
// search terms, intent categories, and per-term classifications.
package domain

import "strings"

// IntentCategory labels a searcher's likely purchase readiness or relevance.
// The enumeration is closed; downstream consumers must treat MediumIntent as
// the safe default for anything not otherwise classified.
type IntentCategory string

const (
	CategoryBrand             IntentCategory = "brand"
	CategoryNavigational      IntentCategory = "navigational"
	CategoryHighIntent        IntentCategory = "high_intent"
	CategoryMediumIntent      IntentCategory = "medium_intent"
	CategoryLowIntent         IntentCategory = "low_intent"
	CategoryNegative          IntentCategory = "negative"
	CategoryLowVolume         IntentCategory = "low_volume"
	CategoryNonLatin          IntentCategory = "non_latin"
	CategoryPMaxUncategorized IntentCategory = "pmax_uncategorized"
)

// AllCategories lists every valid intent category.
var AllCategories = []IntentCategory{
	CategoryBrand,
	CategoryNavigational,
	CategoryHighIntent,
	CategoryMediumIntent,
	CategoryLowIntent,
	CategoryNegative,
	CategoryLowVolume,
	CategoryNonLatin,
	CategoryPMaxUncategorized,
}

// Valid reports whether the category is part of the closed enumeration.
func (c IntentCategory) Valid() bool {
	switch c {
	case CategoryBrand, CategoryNavigational, CategoryHighIntent,
		CategoryMediumIntent, CategoryLowIntent, CategoryNegative,
		CategoryLowVolume, CategoryNonLatin, CategoryPMaxUncategorized:
		return true
	}
	return false
}

// String returns the canonical lowercase label.
func (c IntentCategory) String() string {
	return string(c)
}

// categorySynonyms maps free-text labels an LLM may emit to canonical
// categories. Keys are lowercase with spaces and hyphens collapsed to
// underscores.
var categorySynonyms = map[string]IntentCategory{
	"brand":              CategoryBrand,
	"branded":            CategoryBrand,
	"brand_name":         CategoryBrand,
	"own_brand":          CategoryBrand,
	"navigational":       CategoryNavigational,
	"navigation":         CategoryNavigational,
	"competitor":         CategoryNavigational,
	"competitor_brand":   CategoryNavigational,
	"other_brand":        CategoryNavigational,
	"high_intent":        CategoryHighIntent,
	"high":               CategoryHighIntent,
	"transactional":      CategoryHighIntent,
	"commercial_high":    CategoryHighIntent,
	"purchase":           CategoryHighIntent,
	"buying":             CategoryHighIntent,
	"medium_intent":      CategoryMediumIntent,
	"medium":             CategoryMediumIntent,
	"commercial":         CategoryMediumIntent,
	"consideration":      CategoryMediumIntent,
	"general":            CategoryMediumIntent,
	"unknown":            CategoryMediumIntent,
	"low_intent":         CategoryLowIntent,
	"low":                CategoryLowIntent,
	"informational":      CategoryLowIntent,
	"information":        CategoryLowIntent,
	"research":           CategoryLowIntent,
	"educational":        CategoryLowIntent,
	"negative":           CategoryNegative,
	"irrelevant":         CategoryNegative,
	"spam":               CategoryNegative,
	"exclude":            CategoryNegative,
	"not_relevant":       CategoryNegative,
	"low_volume":         CategoryLowVolume,
	"non_latin":          CategoryNonLatin,
	"pmax_uncategorized": CategoryPMaxUncategorized,
}

// NormalizeCategory maps a free-text category label to the canonical
// enumeration. It strips list numbering and bullets, lowercases, collapses
// separators, and resolves known synonyms. ok is false when the input does
// not resolve to any category; callers must treat that as "unrecognized",
// never as a real category.
func NormalizeCategory(raw string) (IntentCategory, bool) {
	s := strings.TrimSpace(strings.ToLower(raw))
	s = strings.TrimLeft(s, "0123456789.)-*• \t")
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	if s == "" {
		return "", false
	}
	if cat, ok := categorySynonyms[s]; ok {
		return cat, true
	}
	return "", false
}
