package repository

import (
	"telegram-intent-analyzer/backend/analysis/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChatRepository interface {
	GetByID(id int64) (*models.Chat, error)
	// CreateIfAbsent inserts the chat unless a row with the same ID exists.
	// Reports whether a new row was written.
	CreateIfAbsent(chat *models.Chat) (bool, error)
	UpdateType(id int64, chatType string) error
	ListRecent(limit int) ([]models.Chat, error)
}

type GormChatRepository struct {
	db *gorm.DB
}

func NewGormChatRepository(db *gorm.DB) *GormChatRepository {
	return &GormChatRepository{db: db}
}

func (r *GormChatRepository) GetByID(id int64) (*models.Chat, error) {
	var chat models.Chat
	err := r.db.First(&chat, id).Error
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *GormChatRepository) CreateIfAbsent(chat *models.Chat) (bool, error) {
	result := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(chat)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UpdateType corrects a chat type recorded as "unknown" during a dialog
// listing once the real entity kind is resolved.
func (r *GormChatRepository) UpdateType(id int64, chatType string) error {
	return r.db.Model(&models.Chat{}).
		Where("id = ?", id).
		Update("type", chatType).Error
}

func (r *GormChatRepository) ListRecent(limit int) ([]models.Chat, error) {
	var chats []models.Chat
	err := r.db.Order("last_updated DESC").Limit(limit).Find(&chats).Error
	return chats, err
}
