//nolint:testpackage // Testing internal classifier requires same package access
package classifier

import "testing"

func TestLevenshteinSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		min  float64
		max  float64
	}{
		{"seafolly", "seafolly", 1.0, 1.0},
		{"seafolly", "SEAFOLLY", 1.0, 1.0},
		{"seafolly", "seafoly", 0.80, 1.0},  // single deletion in 8 chars
		{"seafolly", "speedo", 0.0, 0.7999}, // different brand entirely
		{"", "", 1.0, 1.0},
		{"a", "", 0.0, 0.0},
	}

	for _, tt := range tests {
		got := LevenshteinSimilarity(tt.a, tt.b)
		if got < tt.min || got > tt.max {
			t.Errorf("LevenshteinSimilarity(%q, %q) = %v, want in [%v, %v]", tt.a, tt.b, got, tt.min, tt.max)
		}
	}
}

func TestLevenshteinDistance(t *testing.T) {
	if d := LevenshteinDistance("kitten", "sitting"); d != 3 {
		t.Errorf("distance(kitten, sitting) = %d, want 3", d)
	}
	if d := LevenshteinDistance("seafolly", "seafoly"); d != 1 {
		t.Errorf("distance(seafolly, seafoly) = %d, want 1", d)
	}
}

func TestFindBestMatch(t *testing.T) {
	candidates := []string{"seafolly", "speedo", "billabong"}

	match, sim, ok := FindBestMatch("seafoly", candidates, DefaultSimilarityThreshold)
	if !ok {
		t.Fatal("expected a match for seafoly")
	}
	if match != "seafolly" {
		t.Errorf("match = %q, want seafolly", match)
	}
	if sim < DefaultSimilarityThreshold {
		t.Errorf("similarity %v below threshold", sim)
	}

	if _, _, ok := FindBestMatch("quiksilver", candidates, DefaultSimilarityThreshold); ok {
		t.Error("expected no match for quiksilver")
	}
}

func TestFindBestMatch_TieBreaksFirst(t *testing.T) {
	// Both candidates are one edit away; the first in list order wins.
	match, _, ok := FindBestMatch("ripcurl", []string{"ripcurls", "ripcurla"}, 0.5)
	if !ok || match != "ripcurls" {
		t.Errorf("tie should break to first candidate, got %q ok=%v", match, ok)
	}
}
