package service

import (
	"context"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"telegram-intent-analyzer/backend/analysis/models"
	"telegram-intent-analyzer/backend/analysis/nlp"
	"telegram-intent-analyzer/backend/pkg/cache"
	"telegram-intent-analyzer/backend/pkg/metrics"

	"gonum.org/v1/gonum/stat"
)

// Classification thresholds. These are part of the scoring contract, not
// tunables.
const (
	neutralThreshold     = 0.3
	agreementConfidence  = 0.95
	passiveAckConfidence = 0.8

	driftSlopeThreshold = 0.05
	driftMinSamples     = 3

	toneThreshold = 0.05
)

// intentCategory pairs a label with its reference phrases. Slice order is
// the tie-break order: when two categories score equally, the earlier wins.
type intentCategory struct {
	label   string
	phrases []string
}

var intentCategories = []intentCategory{
	{models.IntentAgreement, []string{"ok", "sure", "fine", "agreement", "yes", "deal", "k", "acceptable"}},
	{models.IntentPassiveAck, []string{"seen", "hmm", "interesting", "oh", "ah", "noted", "cool"}},
	{models.IntentDisinterest, []string{"whatever", "idk", "maybe later", "busy", "don't care", "meh"}},
	{models.IntentIrritation, []string{"stop", "annoying", "leave me alone", "whatever", "ugh"}},
	{models.IntentUrgency, []string{"asap", "now", "urgent", "emergency", "immediately", "hurry"}},
}

// Exact-match shortcuts for very short replies; cheaper and more reliable
// than embedding two-letter acknowledgments.
var (
	agreementShortcuts = map[string]struct{}{
		"ok": {}, "k": {}, "kk": {}, "thumbs up": {}, "👍": {}, "yep": {}, "yea": {},
	}
	passiveAckShortcuts = map[string]struct{}{
		"hmm": {}, "cool": {},
	}
)

var urgencyTriggers = []string{"asap", "emergency", "now", "urgent"}

// Analyzer scores individual messages and sentiment sequences. Construct one
// at startup and share it: the reference-phrase embeddings are computed once
// here, and all methods are safe for concurrent use afterwards.
type Analyzer struct {
	embedder  nlp.EmbeddingProvider
	sentiment *nlp.SentimentScorer
	cache     *cache.Cache

	// reference embeddings aligned with intentCategories
	refEmbeddings [][][]float64
}

// NewAnalyzer embeds every reference phrase up front so classification only
// pays for the message embedding. embedCache may be nil.
func NewAnalyzer(ctx context.Context, embedder nlp.EmbeddingProvider, sentiment *nlp.SentimentScorer, embedCache *cache.Cache) (*Analyzer, error) {
	var phrases []string
	for _, cat := range intentCategories {
		phrases = append(phrases, cat.phrases...)
	}

	vectors, err := embedder.EmbedBatch(ctx, phrases)
	if err != nil {
		return nil, err
	}

	refs := make([][][]float64, len(intentCategories))
	offset := 0
	for i, cat := range intentCategories {
		refs[i] = vectors[offset : offset+len(cat.phrases)]
		offset += len(cat.phrases)
	}

	return &Analyzer{
		embedder:      embedder,
		sentiment:     sentiment,
		cache:         embedCache,
		refEmbeddings: refs,
	}, nil
}

// PredictIntent infers the communicative intent of text. Short affirmations
// take the exact-match path; everything else is classified by the highest
// cosine similarity between the message embedding and any reference phrase,
// falling back to neutral when the best match scores under the threshold.
func (a *Analyzer) PredictIntent(ctx context.Context, text string) (string, float64, error) {
	if text == "" {
		return models.IntentUnknown, 0.0, nil
	}

	normalized := strings.ToLower(strings.TrimSpace(text))
	if _, ok := agreementShortcuts[normalized]; ok {
		metrics.IntentPredictions.WithLabelValues(models.IntentAgreement, "heuristic").Inc()
		return models.IntentAgreement, agreementConfidence, nil
	}
	if _, ok := passiveAckShortcuts[normalized]; ok {
		metrics.IntentPredictions.WithLabelValues(models.IntentPassiveAck, "heuristic").Inc()
		return models.IntentPassiveAck, passiveAckConfidence, nil
	}

	embedding, err := a.embedText(ctx, text)
	if err != nil {
		return "", 0, err
	}

	bestIntent := models.IntentNeutral
	maxScore := 0.0
	for i, cat := range intentCategories {
		for _, ref := range a.refEmbeddings[i] {
			if score := nlp.CosineSimilarity(embedding, ref); score > maxScore {
				maxScore = score
				bestIntent = cat.label
			}
		}
	}

	// Weak best match: call it neutral but keep the raw score as the
	// reported confidence.
	if maxScore < neutralThreshold {
		bestIntent = models.IntentNeutral
	}

	metrics.IntentPredictions.WithLabelValues(bestIntent, "semantic").Inc()
	return bestIntent, maxScore, nil
}

func (a *Analyzer) embedText(ctx context.Context, text string) ([]float64, error) {
	if a.cache != nil {
		if v, ok := a.cache.Get(text); ok {
			if vec, ok := v.([]float64); ok {
				metrics.EmbeddingCacheHits.Inc()
				return vec, nil
			}
		}
	}

	vec, err := a.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if a.cache != nil {
		a.cache.Set(text, vec)
	}
	return vec, nil
}

// CalculateUrgency scores how time-sensitive text reads, 0-100. timeGap is
// the distance to the chat's previous message; nil for the first message.
func (a *Analyzer) CalculateUrgency(text string, timeGap *time.Duration) float64 {
	if text == "" {
		return 0
	}

	score := 0.0
	textLower := strings.ToLower(text)

	if strings.Contains(text, "!!") {
		score += 20
	}
	if isShouting(text) && utf8.RuneCountInString(text) > 4 {
		score += 20
	}
	for _, trigger := range urgencyTriggers {
		if strings.Contains(textLower, trigger) {
			score += 30
		}
	}
	// Short questions like "Where?" "When?"
	if strings.Contains(text, "?") && utf8.RuneCountInString(text) < 15 {
		score += 10
	}

	if timeGap != nil {
		gap := timeGap.Seconds()
		if gap < 30 {
			// Immediate follow-up reads as urgent
			score += 15
		} else if gap > 86400 {
			// A reply after a day usually isn't
			score -= 10
		}
	}

	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}

// isShouting reports whether s has at least one cased rune and no lowercase
// ones.
func isShouting(s string) bool {
	hasCased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasCased = true
		}
	}
	return hasCased
}

// CalculateSentiment returns the compound polarity of text in [-1, 1].
func (a *Analyzer) CalculateSentiment(text string) float64 {
	if text == "" {
		return 0.0
	}
	return a.sentiment.Compound(text)
}

// ClassifyTone maps a compound sentiment score to a categorical tone with a
// symmetric dead zone around zero. Both boundaries are inclusive.
func (a *Analyzer) ClassifyTone(score float64) string {
	switch {
	case score >= toneThreshold:
		return models.TonePositive
	case score <= -toneThreshold:
		return models.ToneNegative
	default:
		return models.ToneNeutral
	}
}

// DetectDrift classifies the trend of sentiment scores ordered oldest to
// newest by the slope of an ordinary least-squares fit against position.
// Volatile is a declared outcome this rule never reaches; the slope test is
// kept faithful rather than inventing an oscillation heuristic.
func (a *Analyzer) DetectDrift(scores []float64) models.DriftTrend {
	return DetectDrift(scores)
}

// DetectDrift is the trend test behind Analyzer.DetectDrift, usable on its
// own since it needs no embedding capability.
func DetectDrift(scores []float64) models.DriftTrend {
	if len(scores) < driftMinSamples {
		return models.DriftStable
	}

	xs := make([]float64, len(scores))
	for i := range xs {
		xs[i] = float64(i)
	}

	_, slope := stat.LinearRegression(xs, scores, nil, false)

	switch {
	case slope > driftSlopeThreshold:
		return models.DriftWarming
	case slope < -driftSlopeThreshold:
		return models.DriftCooling
	default:
		return models.DriftStable
	}
}
