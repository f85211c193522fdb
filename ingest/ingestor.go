// Package ingest pulls message history from the chat service into local
// storage, deduplicated and in arrival order.
package ingest

import (
	"context"
	"errors"

	"telegram-intent-analyzer/backend/analysis/models"
	"telegram-intent-analyzer/backend/analysis/repository"
	"telegram-intent-analyzer/backend/pkg/logger"
	"telegram-intent-analyzer/backend/pkg/metrics"
	"telegram-intent-analyzer/backend/telegram"

	"gorm.io/gorm"
)

type Ingestor struct {
	chatSvc  telegram.ChatService
	chats    repository.ChatRepository
	users    repository.UserRepository
	messages repository.MessageRepository
	log      *logger.Logger
}

func NewIngestor(
	chatSvc telegram.ChatService,
	chats repository.ChatRepository,
	users repository.UserRepository,
	messages repository.MessageRepository,
	log *logger.Logger,
) *Ingestor {
	return &Ingestor{
		chatSvc:  chatSvc,
		chats:    chats,
		users:    users,
		messages: messages,
		log:      log,
	}
}

// SyncHistory fetches up to limit recent messages for the chat and stores
// the ones not yet seen, returning the count of newly stored messages.
// Entity resolution failure fails the whole sync; every insert is
// independently valid, so a failure mid-page leaves prior rows intact.
func (s *Ingestor) SyncHistory(ctx context.Context, chatID int64, limit int) (int, error) {
	entity, err := s.chatSvc.ResolveEntity(ctx, chatID)
	if err != nil {
		return 0, err
	}

	if err := s.ensureChat(chatID, entity); err != nil {
		return 0, err
	}

	remote, err := s.chatSvc.ListMessages(ctx, chatID, limit)
	if err != nil {
		return 0, err
	}

	stored := 0
	for _, msg := range remote {
		if msg.Text == "" {
			continue
		}

		if msg.SenderID != nil {
			if err := s.users.EnsureExists(*msg.SenderID); err != nil {
				return stored, err
			}
		}

		inserted, err := s.messages.Insert(&models.Message{
			TelegramID:   msg.ID,
			ChatID:       chatID,
			SenderID:     msg.SenderID,
			Text:         msg.Text,
			Date:         msg.Date,
			ReplyToMsgID: msg.ReplyToMsgID,
		})
		if err != nil {
			return stored, err
		}
		if inserted {
			stored++
		}
	}

	if stored > 0 {
		metrics.MessagesSynced.Add(float64(stored))
	}
	s.log.WithChatID(chatID).Info("history synced", "fetched", len(remote), "stored", stored)
	return stored, nil
}

// SyncDialogs lists recent dialogs and creates missing chats with type
// "unknown"; the type is corrected by the next SyncHistory that resolves
// the entity. Returns the number of chats created.
func (s *Ingestor) SyncDialogs(ctx context.Context, limit int) (int, error) {
	dialogs, err := s.chatSvc.ListDialogs(ctx, limit)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, d := range dialogs {
		isNew, err := s.chats.CreateIfAbsent(&models.Chat{
			ID:    d.ID,
			Title: d.Title,
			Type:  models.ChatTypeUnknown,
		})
		if err != nil {
			return created, err
		}
		if isNew {
			created++
		}
	}

	if created > 0 {
		metrics.DialogsSynced.Add(float64(created))
	}
	return created, nil
}

func (s *Ingestor) ensureChat(chatID int64, entity *telegram.Entity) error {
	existing, err := s.chats.GetByID(chatID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	chatType := chatTypeFromKind(entity.Kind)

	if existing == nil {
		chat := &models.Chat{
			ID:    chatID,
			Title: entity.DisplayTitle(),
			Type:  chatType,
		}
		if entity.Username != "" {
			chat.Username = &entity.Username
		}
		_, err := s.chats.CreateIfAbsent(chat)
		return err
	}

	if existing.Type == models.ChatTypeUnknown && chatType != models.ChatTypeUnknown {
		return s.chats.UpdateType(chatID, chatType)
	}
	return nil
}

func chatTypeFromKind(kind string) string {
	switch kind {
	case "channel":
		return models.ChatTypeChannel
	case "group":
		return models.ChatTypeGroup
	default:
		return models.ChatTypeUser
	}
}
