package repository

import (
	"telegram-intent-analyzer/backend/analysis/models"

	"gorm.io/gorm"
)

// MessageResult pairs a stored message with its analysis, if any.
type MessageResult struct {
	Message  models.Message
	Analysis *models.MessageAnalysis
}

type AnalysisRepository interface {
	GetByMessageID(messageID uint) (*models.MessageAnalysis, error)
	Create(analysis *models.MessageAnalysis) error
	// UpdateIntentAndSentiment refreshes exactly intent, sentiment score and
	// tone on re-analysis. Urgency and confidence keep their original
	// values.
	UpdateIntentAndSentiment(messageID uint, intent string, sentiment float64, tone string) error
	// SentimentSeries returns the chat's analyzed sentiment scores ordered
	// by message time, oldest first.
	SentimentSeries(chatID int64) ([]float64, error)
	ResultsByChat(chatID int64, limit int) ([]MessageResult, error)
}

type GormAnalysisRepository struct {
	db *gorm.DB
}

func NewGormAnalysisRepository(db *gorm.DB) *GormAnalysisRepository {
	return &GormAnalysisRepository{db: db}
}

func (r *GormAnalysisRepository) GetByMessageID(messageID uint) (*models.MessageAnalysis, error) {
	var analysis models.MessageAnalysis
	err := r.db.Where("message_id = ?", messageID).First(&analysis).Error
	if err != nil {
		return nil, err
	}
	return &analysis, nil
}

func (r *GormAnalysisRepository) Create(analysis *models.MessageAnalysis) error {
	return r.db.Create(analysis).Error
}

func (r *GormAnalysisRepository) UpdateIntentAndSentiment(messageID uint, intent string, sentiment float64, tone string) error {
	return r.db.Model(&models.MessageAnalysis{}).
		Where("message_id = ?", messageID).
		Updates(map[string]any{
			"intent":          intent,
			"sentiment_score": sentiment,
			"emotional_tone":  tone,
		}).Error
}

func (r *GormAnalysisRepository) SentimentSeries(chatID int64) ([]float64, error) {
	var scores []float64
	err := r.db.Model(&models.MessageAnalysis{}).
		Joins("JOIN messages ON messages.id = message_analyses.message_id").
		Where("messages.chat_id = ?", chatID).
		Order("messages.date ASC").
		Pluck("message_analyses.sentiment_score", &scores).Error
	return scores, err
}

func (r *GormAnalysisRepository) ResultsByChat(chatID int64, limit int) ([]MessageResult, error) {
	var messages []models.Message
	err := r.db.Where("chat_id = ?", chatID).
		Order("date ASC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, nil
	}

	ids := make([]uint, len(messages))
	for i, m := range messages {
		ids[i] = m.ID
	}

	var analyses []models.MessageAnalysis
	if err := r.db.Where("message_id IN ?", ids).Find(&analyses).Error; err != nil {
		return nil, err
	}

	byMessage := make(map[uint]*models.MessageAnalysis, len(analyses))
	for i := range analyses {
		byMessage[analyses[i].MessageID] = &analyses[i]
	}

	results := make([]MessageResult, len(messages))
	for i, m := range messages {
		results[i] = MessageResult{Message: m, Analysis: byMessage[m.ID]}
	}
	return results, nil
}
