package nlp

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float64{1, 2, 3}, []float64{1, 2, 3}), 1e-12)
	assert.InDelta(t, 0.0, CosineSimilarity([]float64{1, 0}, []float64{0, 1}), 1e-12)
	assert.InDelta(t, -1.0, CosineSimilarity([]float64{1, 0}, []float64{-1, 0}), 1e-12)

	scaled := CosineSimilarity([]float64{1, 2}, []float64{10, 20})
	assert.InDelta(t, 1.0, scaled, 1e-12, "cosine ignores magnitude")
}

func TestCosineSimilarityDegenerateInputs(t *testing.T) {
	assert.Zero(t, CosineSimilarity(nil, nil))
	assert.Zero(t, CosineSimilarity([]float64{1, 2}, []float64{1, 2, 3}))
	assert.Zero(t, CosineSimilarity([]float64{0, 0}, []float64{1, 2}))
}

func TestSentimentScorerCompound(t *testing.T) {
	s := NewSentimentScorer()

	pos := s.Compound("I love this, great work!")
	neg := s.Compound("this is terrible and I hate it")

	assert.Greater(t, pos, 0.0)
	assert.Less(t, neg, 0.0)
	assert.LessOrEqual(t, math.Abs(pos), 1.0)
	assert.LessOrEqual(t, math.Abs(neg), 1.0)
}
