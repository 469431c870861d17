// Package source reads and writes the tabular search term reports the
// pipeline consumes: schema detection over aliased column names, term
// aggregation, and augmented output that preserves the input rows.
package source

import (
	"fmt"
	"strings"
)

// Logical fields the pipeline needs from the input.
const (
	FieldTerm        = "term"
	FieldImpressions = "impressions"
	FieldSource      = "source"
)

// Column name aliases, matched case-insensitively after whitespace
// normalization. Positions are never assumed.
var columnAliases = map[string][]string{
	FieldTerm:        {"search term", "search_term", "searchterm", "term", "query", "search query"},
	FieldImpressions: {"impressions", "impr.", "impr", "impression"},
	FieldSource:      {"source", "campaign type", "campaign_type", "channel"},
}

// Schema maps logical field names to column indexes in the input header.
type Schema struct {
	TermCol        int
	ImpressionsCol int
	// SourceCol is -1 when the optional source column is absent.
	SourceCol int
}

// DetectSchema resolves the header columns once, before any pipeline stage
// runs. Missing either required column is fatal: no meaningful
// classification is possible without them.
func DetectSchema(header []string) (Schema, error) {
	find := func(field string) int {
		for i, col := range header {
			name := strings.ToLower(strings.Join(strings.Fields(col), " "))
			for _, alias := range columnAliases[field] {
				if name == alias {
					return i
				}
			}
		}
		return -1
	}

	s := Schema{
		TermCol:        find(FieldTerm),
		ImpressionsCol: find(FieldImpressions),
		SourceCol:      find(FieldSource),
	}
	if s.TermCol < 0 {
		return Schema{}, fmt.Errorf("input is missing a search term column (looked for %s)",
			strings.Join(columnAliases[FieldTerm], ", "))
	}
	if s.ImpressionsCol < 0 {
		return Schema{}, fmt.Errorf("input is missing an impressions column (looked for %s)",
			strings.Join(columnAliases[FieldImpressions], ", "))
	}
	return s, nil
}
