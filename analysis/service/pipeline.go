package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"telegram-intent-analyzer/backend/analysis/models"
	"telegram-intent-analyzer/backend/analysis/repository"
	"telegram-intent-analyzer/backend/ingest"
	"telegram-intent-analyzer/backend/pkg/cache"
	"telegram-intent-analyzer/backend/pkg/logger"
	"telegram-intent-analyzer/backend/pkg/metrics"

	"gorm.io/gorm"
)

// Pipeline runs the per-chat analysis pass: sync the latest window, walk the
// stored messages in time order and write one analysis row per message.
type Pipeline struct {
	db       *gorm.DB
	analyzer *Analyzer
	ingestor *ingest.Ingestor
	messages repository.MessageRepository
	analyses repository.AnalysisRepository
	results  *cache.ResultsCache
	pageSize int
	log      *logger.Logger
}

func NewPipeline(
	db *gorm.DB,
	analyzer *Analyzer,
	ingestor *ingest.Ingestor,
	results *cache.ResultsCache,
	pageSize int,
	log *logger.Logger,
) *Pipeline {
	return &Pipeline{
		db:       db,
		analyzer: analyzer,
		ingestor: ingestor,
		messages: repository.NewGormMessageRepository(db),
		analyses: repository.NewGormAnalysisRepository(db),
		results:  results,
		pageSize: pageSize,
		log:      log,
	}
}

type computedAnalysis struct {
	messageID  uint
	intent     string
	confidence float64
	urgency    float64
	sentiment  float64
	tone       string
}

// AnalyzeChat syncs the latest message window for the chat, analyzes every
// stored message in timestamp order and upserts the analysis rows in a
// single transaction. Returns the number of newly created rows.
//
// On re-analysis only intent, sentiment and tone are refreshed; urgency and
// confidence keep the values from the first pass.
func (p *Pipeline) AnalyzeChat(ctx context.Context, chatID int64) (int, error) {
	start := time.Now()
	defer func() {
		metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	}()

	log := p.log.WithChatID(chatID)

	if _, err := p.ingestor.SyncHistory(ctx, chatID, p.pageSize); err != nil {
		return 0, err
	}

	messages, err := p.messages.GetByChatOrdered(chatID)
	if err != nil {
		return 0, err
	}
	log.Info("analyzing messages", "count", len(messages))

	// Scoring happens outside the write transaction: intent prediction can
	// call out to the embedding service and must not hold the database.
	computed := make([]computedAnalysis, 0, len(messages))
	var prevDate *time.Time
	for i := range messages {
		msg := &messages[i]

		var gap *time.Duration
		if prevDate != nil {
			d := msg.Date.Sub(*prevDate)
			gap = &d
		}

		intent, confidence, err := p.analyzer.PredictIntent(ctx, msg.Text)
		if err != nil {
			return 0, fmt.Errorf("predict intent for message %d: %w", msg.ID, err)
		}

		sentiment := p.analyzer.CalculateSentiment(msg.Text)

		computed = append(computed, computedAnalysis{
			messageID:  msg.ID,
			intent:     intent,
			confidence: confidence,
			urgency:    p.analyzer.CalculateUrgency(msg.Text, gap),
			sentiment:  sentiment,
			tone:       p.analyzer.ClassifyTone(sentiment),
		})

		prevDate = &msg.Date
	}

	created := 0
	updated := 0
	err = p.db.Transaction(func(tx *gorm.DB) error {
		repo := repository.NewGormAnalysisRepository(tx)

		for _, c := range computed {
			existing, err := repo.GetByMessageID(c.messageID)
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := repo.Create(&models.MessageAnalysis{
					MessageID:        c.messageID,
					Intent:           c.intent,
					IntentConfidence: c.confidence,
					UrgencyScore:     c.urgency,
					SentimentScore:   c.sentiment,
					EmotionalTone:    c.tone,
					// engagement and reply probabilities stay zero
				}); err != nil {
					return err
				}
				created++
			case err != nil:
				return err
			default:
				if err := repo.UpdateIntentAndSentiment(existing.MessageID, c.intent, c.sentiment, c.tone); err != nil {
					return err
				}
				updated++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	metrics.AnalysesCreated.Add(float64(created))
	metrics.AnalysesUpdated.Add(float64(updated))
	p.results.Invalidate(ctx, ResultsCacheKey(chatID))

	log.Info("analysis complete", "created", created, "updated", updated)
	return created, nil
}

// ChatDrift computes the sentiment trend over the chat's analyzed messages.
func (p *Pipeline) ChatDrift(ctx context.Context, chatID int64) (models.ChatDriftSummary, error) {
	scores, err := p.analyses.SentimentSeries(chatID)
	if err != nil {
		return models.ChatDriftSummary{}, err
	}

	return models.ChatDriftSummary{
		ChatID:      chatID,
		Trend:       p.analyzer.DetectDrift(scores),
		SampleCount: len(scores),
	}, nil
}

// Results returns the chat's messages joined with their analyses.
func (p *Pipeline) Results(ctx context.Context, chatID int64, limit int) ([]repository.MessageResult, error) {
	return p.analyses.ResultsByChat(chatID, limit)
}

func ResultsCacheKey(chatID int64) string {
	return fmt.Sprintf("results:%d", chatID)
}
