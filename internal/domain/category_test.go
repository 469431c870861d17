package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  IntentCategory
		ok    bool
	}{
		{"canonical", "high_intent", CategoryHighIntent, true},
		{"uppercase", "HIGH_INTENT", CategoryHighIntent, true},
		{"spaces", "high intent", CategoryHighIntent, true},
		{"hyphen", "high-intent", CategoryHighIntent, true},
		{"synonym transactional", "transactional", CategoryHighIntent, true},
		{"synonym branded", "branded", CategoryBrand, true},
		{"synonym competitor", "competitor", CategoryNavigational, true},
		{"synonym informational", "informational", CategoryLowIntent, true},
		{"synonym irrelevant", "irrelevant", CategoryNegative, true},
		{"synonym commercial", "commercial", CategoryMediumIntent, true},
		{"numbered line", "3. negative", CategoryNegative, true},
		{"bulleted line", "- low_intent", CategoryLowIntent, true},
		{"quoted", `"brand"`, CategoryBrand, true},
		{"trailing whitespace", "  medium_intent  ", CategoryMediumIntent, true},
		{"garbage", "somewhat interested maybe", "", false},
		{"empty", "", "", false},
		{"only numbering", "1.", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeCategory(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestIntentCategory_Valid(t *testing.T) {
	for _, cat := range AllCategories {
		assert.True(t, cat.Valid(), "category %s should be valid", cat)
	}
	assert.False(t, IntentCategory("purchase_ready").Valid())
	assert.False(t, IntentCategory("").Valid())
}
