//nolint:testpackage // Testing internal classifier requires same package access
package classifier

import (
	"testing"

	"github.com/paidsearchlab/searchintent/internal/domain"
)

func TestSignalClassifier_Phrases(t *testing.T) {
	s := NewSignalClassifier()

	tests := []struct {
		term string
		want domain.IntentCategory
	}{
		{"wetsuits for free", domain.CategoryNegative},
		{"how to wax a surfboard", domain.CategoryLowIntent},
		{"what is a rash vest", domain.CategoryLowIntent},
		{"surf shop near me", domain.CategoryHighIntent},
		{"wetsuit for sale", domain.CategoryHighIntent},
		{"where to buy wetsuits", domain.CategoryHighIntent},
	}

	for _, tt := range tests {
		got := s.Classify(tt.term)
		if got == nil {
			t.Fatalf("Classify(%q) = nil, want %s", tt.term, tt.want)
		}
		if got.Category != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.term, got.Category, tt.want)
		}
		if got.Confidence != phraseConfidence {
			t.Errorf("Classify(%q) confidence = %v, want %v", tt.term, got.Confidence, phraseConfidence)
		}
	}
}

func TestSignalClassifier_WordPriority(t *testing.T) {
	s := NewSignalClassifier()

	// Negative always wins, even next to a buying word.
	got := s.Classify("buy wetsuit jobs")
	if got == nil || got.Category != domain.CategoryNegative {
		t.Fatalf("negative should win over high intent, got %+v", got)
	}

	// A low-intent word yields to a high-intent word in the same term.
	got = s.Classify("wetsuit ideas buy")
	if got == nil || got.Category != domain.CategoryHighIntent {
		t.Fatalf("high-intent word should rescue a low-intent match, got %+v", got)
	}

	// Low intent on its own stays low intent.
	got = s.Classify("wetsuit ideas")
	if got == nil || got.Category != domain.CategoryLowIntent {
		t.Fatalf("expected low_intent, got %+v", got)
	}
}

func TestSignalClassifier_Undecided(t *testing.T) {
	s := NewSignalClassifier()

	if got := s.Classify("blue steamer wetsuit 4mm"); got != nil {
		t.Errorf("expected nil for unsignalled term, got %+v", got)
	}
	if got := s.Classify(""); got != nil {
		t.Errorf("expected nil for empty term, got %+v", got)
	}
}

func TestSignalClassifier_WordConfidenceBelowPhrase(t *testing.T) {
	s := NewSignalClassifier()

	got := s.Classify("cheap wetsuit")
	if got == nil || got.Category != domain.CategoryHighIntent {
		t.Fatalf("expected high_intent, got %+v", got)
	}
	if got.Confidence != wordConfidence {
		t.Errorf("word confidence = %v, want %v", got.Confidence, wordConfidence)
	}
	if wordConfidence > phraseConfidence {
		t.Error("word tier must not outrank phrase tier")
	}
}
