package repository

import (
	"telegram-intent-analyzer/backend/analysis/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MessageRepository interface {
	// Insert writes the message unless one with the same
	// (chat_id, telegram_id) already exists. Reports whether a new row was
	// written, so a re-sync of the same page counts zero.
	Insert(message *models.Message) (bool, error)
	GetByChatOrdered(chatID int64) ([]models.Message, error)
	CountByChat(chatID int64) (int64, error)
}

type GormMessageRepository struct {
	db *gorm.DB
}

func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

func (r *GormMessageRepository) Insert(message *models.Message) (bool, error) {
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}, {Name: "telegram_id"}},
		DoNothing: true,
	}).Create(message)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *GormMessageRepository) GetByChatOrdered(chatID int64) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.Where("chat_id = ?", chatID).
		Order("date ASC").
		Find(&messages).Error
	return messages, err
}

func (r *GormMessageRepository) CountByChat(chatID int64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Message{}).Where("chat_id = ?", chatID).Count(&count).Error
	return count, err
}
