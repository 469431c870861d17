package classifier

import (
	"sort"

	"github.com/paidsearchlab/searchintent/internal/domain"
)

// DefaultVolumeShare is the cumulative impression share above which the
// remaining tail of terms is classified low_volume.
const DefaultVolumeShare = 0.95

// LowVolumeTerms returns the set of terms in the lowest-impression tail.
// Terms are sorted by impressions descending (ties broken by term text, so
// the boundary is deterministic) and accumulated until the cumulative share
// reaches the threshold; every term strictly after the crossing point is low
// volume. With zero total impressions nothing is flagged.
func LowVolumeTerms(terms []domain.SearchTerm, share float64) map[string]bool {
	low := make(map[string]bool)
	var total int64
	for _, t := range terms {
		total += t.Impressions
	}
	if total == 0 {
		return low
	}

	sorted := make([]domain.SearchTerm, len(terms))
	copy(sorted, terms)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Impressions != sorted[j].Impressions {
			return sorted[i].Impressions > sorted[j].Impressions
		}
		return sorted[i].Text < sorted[j].Text
	})

	cutoff := share * float64(total)
	var cum float64
	crossed := false
	for _, t := range sorted {
		if crossed {
			low[t.Text] = true
			continue
		}
		cum += float64(t.Impressions)
		if cum >= cutoff {
			crossed = true
		}
	}
	return low
}
