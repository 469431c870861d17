//nolint:testpackage // Testing internal classifier requires same package access
package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paidsearchlab/searchintent/internal/domain"
)

func propagatorTrainingPairs() []TrainingPair {
	return []TrainingPair{
		{Term: "contoso store hours", Category: domain.CategoryNavigational},
		{Term: "contoso store location", Category: domain.CategoryNavigational},
		{Term: "cheap shoes online", Category: domain.CategoryLowIntent},
		{Term: "cheap boots online", Category: domain.CategoryLowIntent},
		{Term: "cheap sandals sale", Category: domain.CategoryLowIntent},
		{Term: "buy running shoes", Category: domain.CategoryHighIntent},
	}
}

func TestPropagatorBigram(t *testing.T) {
	p := NewPropagator(propagatorTrainingPairs())

	// "contoso store" appears twice, both navigational.
	c := p.Predict("contoso store near me")
	require.NotNil(t, c)
	assert.Equal(t, domain.CategoryNavigational, c.Category)
	assert.Equal(t, domain.MethodPropagated, c.Method)
	assert.InDelta(t, 1.0*propagationDeflation, c.Confidence, 1e-9)
}

func TestPropagatorWordFallback(t *testing.T) {
	p := NewPropagator(propagatorTrainingPairs())

	// A single-word term has no bigrams; "cheap" occurs 3 times with a
	// unanimous category and clears the normalized score floor alone.
	c := p.Predict("cheap")
	require.NotNil(t, c)
	assert.Equal(t, domain.CategoryLowIntent, c.Category)
	assert.Equal(t, domain.MethodPropagated, c.Method)
	assert.InDelta(t, 1.0*propagationDeflation, c.Confidence, 1e-9)
}

func TestPropagatorKNNFallback(t *testing.T) {
	p := NewPropagator(propagatorTrainingPairs())

	// "running shoes" shares vocabulary with one high_intent doc but trips
	// neither the bigram table (seen once) nor the word table (each word seen
	// fewer than three times).
	c := p.Predict("running shoes")
	require.NotNil(t, c)
	assert.Equal(t, domain.CategoryHighIntent, c.Category)
	assert.Equal(t, domain.MethodPropagated, c.Method)
	assert.LessOrEqual(t, c.Confidence, propagationDeflation)
}

func TestPropagatorNoMatch(t *testing.T) {
	p := NewPropagator(propagatorTrainingPairs())
	assert.Nil(t, p.Predict("quantum flux capacitor"))
	assert.Nil(t, p.Predict(""))
}

func TestPropagatorMixedBigramRejected(t *testing.T) {
	pairs := []TrainingPair{
		{Term: "red shoes", Category: domain.CategoryHighIntent},
		{Term: "red shoes", Category: domain.CategoryLowIntent},
	}
	p := NewPropagator(pairs)

	// The bigram occurs twice but splits 50/50, below the share floor, and
	// the words fail the occurrence floor, so only KNN can answer.
	c := p.Predict("red shoes")
	if c != nil {
		assert.Equal(t, domain.MethodPropagated, c.Method)
	}
}
