package service

import (
	"context"
	"io"
	"testing"
	"time"

	"telegram-intent-analyzer/backend/analysis/models"
	"telegram-intent-analyzer/backend/analysis/nlp"
	"telegram-intent-analyzer/backend/analysis/repository"
	"telegram-intent-analyzer/backend/ingest"
	"telegram-intent-analyzer/backend/pkg/config"
	"telegram-intent-analyzer/backend/pkg/logger"
	"telegram-intent-analyzer/backend/telegram"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type fakeChatService struct {
	entity   telegram.Entity
	messages []telegram.RemoteMessage
	dialogs  []telegram.Dialog
}

func (f *fakeChatService) IsAuthorized(ctx context.Context) (bool, error) { return true, nil }

func (f *fakeChatService) RequestCode(ctx context.Context, phone string) error { return nil }

func (f *fakeChatService) SignIn(ctx context.Context, phone, code, password string) error {
	return nil
}

func (f *fakeChatService) ResolveEntity(ctx context.Context, chatID int64) (*telegram.Entity, error) {
	e := f.entity
	e.ID = chatID
	return &e, nil
}

func (f *fakeChatService) ListMessages(ctx context.Context, chatID int64, limit int) ([]telegram.RemoteMessage, error) {
	return f.messages, nil
}

func (f *fakeChatService) ListDialogs(ctx context.Context, limit int) ([]telegram.Dialog, error) {
	return f.dialogs, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)

	// a second connection would get its own empty in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, config.Migrate(db))
	return db
}

func newTestLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", JSON: true, Output: io.Discard})
}

func newTestPipeline(t *testing.T, db *gorm.DB, svc telegram.ChatService) *Pipeline {
	t.Helper()

	log := newTestLogger()
	ingestor := ingest.NewIngestor(
		svc,
		repository.NewGormChatRepository(db),
		repository.NewGormUserRepository(db),
		repository.NewGormMessageRepository(db),
		log,
	)

	analyzer, err := NewAnalyzer(context.Background(), &fakeEmbedder{}, nlp.NewSentimentScorer(), nil)
	require.NoError(t, err)

	return NewPipeline(db, analyzer, ingestor, nil, 50, log)
}

func conversationFixture() *fakeChatService {
	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	sender := int64(7)
	return &fakeChatService{
		entity: telegram.Entity{Kind: "user", FirstName: "Ada"},
		// newest first, the way the gateway serves them
		messages: []telegram.RemoteMessage{
			{ID: 3, SenderID: &sender, Text: "ok", Date: t0.Add(20*time.Second + 90000*time.Second)},
			{ID: 2, SenderID: &sender, Text: "URGENT now!!", Date: t0.Add(20 * time.Second)},
			{ID: 1, SenderID: &sender, Text: "hi", Date: t0},
		},
	}
}

func TestAnalyzeChatCreatesOneRowPerMessage(t *testing.T) {
	db := newTestDB(t)
	p := newTestPipeline(t, db, conversationFixture())

	created, err := p.AnalyzeChat(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 3, created)

	rows, err := p.Results(context.Background(), 100, 50)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// oldest first; the first message has no preceding gap, so no rapid
	// follow-up bonus
	require.NotNil(t, rows[0].Analysis)
	assert.Equal(t, "hi", rows[0].Message.Text)
	assert.Equal(t, models.IntentNeutral, rows[0].Analysis.Intent)
	assert.Equal(t, 0.0, rows[0].Analysis.UrgencyScore)

	// "!!" +20, two trigger words +60, 20s follow-up +15
	require.NotNil(t, rows[1].Analysis)
	assert.Equal(t, models.IntentUrgency, rows[1].Analysis.Intent)
	assert.Equal(t, 95.0, rows[1].Analysis.UrgencyScore)

	// heuristic path, and the day-old gap drives urgency to the floor
	require.NotNil(t, rows[2].Analysis)
	assert.Equal(t, models.IntentAgreement, rows[2].Analysis.Intent)
	assert.Equal(t, 0.95, rows[2].Analysis.IntentConfidence)
	assert.Equal(t, 0.0, rows[2].Analysis.UrgencyScore)
}

func TestAnalyzeChatRerunCreatesNothing(t *testing.T) {
	db := newTestDB(t)
	p := newTestPipeline(t, db, conversationFixture())

	created, err := p.AnalyzeChat(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, 3, created)

	created, err = p.AnalyzeChat(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	var messageCount, analysisCount int64
	require.NoError(t, db.Model(&models.Message{}).Count(&messageCount).Error)
	require.NoError(t, db.Model(&models.MessageAnalysis{}).Count(&analysisCount).Error)
	assert.Equal(t, int64(3), messageCount)
	assert.Equal(t, int64(3), analysisCount)
}

func TestAnalyzeChatRerunKeepsUrgencyAndConfidence(t *testing.T) {
	db := newTestDB(t)
	p := newTestPipeline(t, db, conversationFixture())

	_, err := p.AnalyzeChat(context.Background(), 100)
	require.NoError(t, err)

	var msg models.Message
	require.NoError(t, db.Where("telegram_id = ? AND chat_id = ?", 2, 100).First(&msg).Error)

	// simulate an older pass having written different values
	require.NoError(t, db.Model(&models.MessageAnalysis{}).
		Where("message_id = ?", msg.ID).
		Updates(map[string]any{"urgency_score": 42.0, "intent": "bogus"}).Error)

	_, err = p.AnalyzeChat(context.Background(), 100)
	require.NoError(t, err)

	var analysis models.MessageAnalysis
	require.NoError(t, db.Where("message_id = ?", msg.ID).First(&analysis).Error)

	assert.Equal(t, models.IntentUrgency, analysis.Intent, "intent is refreshed")
	assert.Equal(t, 42.0, analysis.UrgencyScore, "urgency keeps the stored value")
}

func seedAnalyzedChat(t *testing.T, db *gorm.DB, chatID int64, scores []float64) {
	t.Helper()

	require.NoError(t, db.Create(&models.Chat{ID: chatID, Title: "seeded", Type: models.ChatTypeUser}).Error)

	t0 := time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC)
	for i, score := range scores {
		msg := models.Message{
			TelegramID: int64(i + 1),
			ChatID:     chatID,
			Text:       "seeded",
			Date:       t0.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, db.Create(&msg).Error)
		require.NoError(t, db.Create(&models.MessageAnalysis{
			MessageID:      msg.ID,
			Intent:         models.IntentNeutral,
			SentimentScore: score,
			EmotionalTone:  models.ToneNeutral,
		}).Error)
	}
}

func TestChatDrift(t *testing.T) {
	db := newTestDB(t)
	p := newTestPipeline(t, db, &fakeChatService{})

	seedAnalyzedChat(t, db, 201, []float64{-0.5, -0.3, -0.1})
	seedAnalyzedChat(t, db, 202, []float64{0.5, 0.3, 0.1})
	seedAnalyzedChat(t, db, 203, []float64{0.2, 0.2})

	warming, err := p.ChatDrift(context.Background(), 201)
	require.NoError(t, err)
	assert.Equal(t, models.DriftWarming, warming.Trend)
	assert.Equal(t, 3, warming.SampleCount)

	cooling, err := p.ChatDrift(context.Background(), 202)
	require.NoError(t, err)
	assert.Equal(t, models.DriftCooling, cooling.Trend)

	short, err := p.ChatDrift(context.Background(), 203)
	require.NoError(t, err)
	assert.Equal(t, models.DriftStable, short.Trend)
	assert.Equal(t, 2, short.SampleCount)
}
