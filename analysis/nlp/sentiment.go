package nlp

import (
	"github.com/jonreiter/govader"
)

// SentimentScorer wraps the VADER lexicon analyzer. The underlying lexicon
// is loaded once at construction and read-only afterwards, so one scorer can
// serve concurrent pipeline runs.
type SentimentScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

func NewSentimentScorer() *SentimentScorer {
	return &SentimentScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Compound returns the compound polarity of text in [-1, 1].
func (s *SentimentScorer) Compound(text string) float64 {
	return s.analyzer.PolarityScores(text).Compound
}
