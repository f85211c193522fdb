package ingest

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"telegram-intent-analyzer/backend/analysis/models"
	"telegram-intent-analyzer/backend/analysis/repository"
	"telegram-intent-analyzer/backend/pkg/config"
	"telegram-intent-analyzer/backend/pkg/logger"
	"telegram-intent-analyzer/backend/telegram"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type stubChatService struct {
	entity     telegram.Entity
	resolveErr error
	messages   []telegram.RemoteMessage
	listErr    error
	dialogs    []telegram.Dialog
}

func (s *stubChatService) IsAuthorized(ctx context.Context) (bool, error) { return true, nil }

func (s *stubChatService) RequestCode(ctx context.Context, phone string) error { return nil }

func (s *stubChatService) SignIn(ctx context.Context, phone, code, password string) error {
	return nil
}

func (s *stubChatService) ResolveEntity(ctx context.Context, chatID int64) (*telegram.Entity, error) {
	if s.resolveErr != nil {
		return nil, s.resolveErr
	}
	e := s.entity
	e.ID = chatID
	return &e, nil
}

func (s *stubChatService) ListMessages(ctx context.Context, chatID int64, limit int) ([]telegram.RemoteMessage, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.messages, nil
}

func (s *stubChatService) ListDialogs(ctx context.Context, limit int) ([]telegram.Dialog, error) {
	return s.dialogs, nil
}

func newIngestorWithDB(t *testing.T, svc telegram.ChatService) (*Ingestor, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, config.Migrate(db))

	log := logger.New(logger.Config{Level: "error", JSON: true, Output: io.Discard})
	ing := NewIngestor(
		svc,
		repository.NewGormChatRepository(db),
		repository.NewGormUserRepository(db),
		repository.NewGormMessageRepository(db),
		log,
	)
	return ing, db
}

func TestSyncHistoryStoresMessagesAndChat(t *testing.T) {
	sender := int64(11)
	date := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	svc := &stubChatService{
		entity: telegram.Entity{Kind: "group", Title: "Plans", Username: "plans_grp"},
		messages: []telegram.RemoteMessage{
			{ID: 2, SenderID: &sender, Text: "see you there", Date: date.Add(time.Minute)},
			{ID: 1, SenderID: &sender, Text: "meet at noon?", Date: date},
		},
	}
	ing, db := newIngestorWithDB(t, svc)

	stored, err := ing.SyncHistory(context.Background(), 42, 50)
	require.NoError(t, err)
	assert.Equal(t, 2, stored)

	var chat models.Chat
	require.NoError(t, db.First(&chat, "id = ?", 42).Error)
	assert.Equal(t, "Plans", chat.Title)
	assert.Equal(t, models.ChatTypeGroup, chat.Type)
	require.NotNil(t, chat.Username)
	assert.Equal(t, "plans_grp", *chat.Username)

	var user models.User
	assert.NoError(t, db.First(&user, "id = ?", sender).Error, "sender stub is created")

	var count int64
	require.NoError(t, db.Model(&models.Message{}).Where("chat_id = ?", 42).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestSyncHistoryFallsBackToUnknownTitle(t *testing.T) {
	svc := &stubChatService{entity: telegram.Entity{Kind: "user"}}
	ing, db := newIngestorWithDB(t, svc)

	_, err := ing.SyncHistory(context.Background(), 7, 50)
	require.NoError(t, err)

	var chat models.Chat
	require.NoError(t, db.First(&chat, "id = ?", 7).Error)
	assert.Equal(t, "Unknown", chat.Title)
	assert.Equal(t, models.ChatTypeUser, chat.Type)
	assert.Nil(t, chat.Username)
}

func TestSyncHistorySkipsEmptyText(t *testing.T) {
	date := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	svc := &stubChatService{
		entity: telegram.Entity{Kind: "user", FirstName: "Sam"},
		messages: []telegram.RemoteMessage{
			{ID: 3, Text: "caption-less photo goes nowhere", Date: date.Add(2 * time.Minute)},
			{ID: 2, Text: "", Date: date.Add(time.Minute)},
			{ID: 1, Text: "hello", Date: date},
		},
	}
	ing, db := newIngestorWithDB(t, svc)

	stored, err := ing.SyncHistory(context.Background(), 9, 50)
	require.NoError(t, err)
	assert.Equal(t, 2, stored)

	var count int64
	require.NoError(t, db.Model(&models.Message{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestSyncHistoryIsIdempotent(t *testing.T) {
	date := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	svc := &stubChatService{
		entity:   telegram.Entity{Kind: "user", FirstName: "Sam"},
		messages: []telegram.RemoteMessage{{ID: 1, Text: "hello", Date: date}},
	}
	ing, _ := newIngestorWithDB(t, svc)

	stored, err := ing.SyncHistory(context.Background(), 9, 50)
	require.NoError(t, err)
	require.Equal(t, 1, stored)

	stored, err = ing.SyncHistory(context.Background(), 9, 50)
	require.NoError(t, err)
	assert.Equal(t, 0, stored)
}

func TestSyncHistoryResolveFailureWritesNothing(t *testing.T) {
	svc := &stubChatService{resolveErr: errors.New("peer not found")}
	ing, db := newIngestorWithDB(t, svc)

	_, err := ing.SyncHistory(context.Background(), 5, 50)
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Chat{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSyncDialogs(t *testing.T) {
	svc := &stubChatService{
		entity: telegram.Entity{Kind: "channel", Title: "News"},
		dialogs: []telegram.Dialog{
			{ID: 1, Title: "News"},
			{ID: 2, Title: "Family"},
		},
	}
	ing, db := newIngestorWithDB(t, svc)

	created, err := ing.SyncDialogs(context.Background(), 20)
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	created, err = ing.SyncDialogs(context.Background(), 20)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	var chat models.Chat
	require.NoError(t, db.First(&chat, "id = ?", 1).Error)
	assert.Equal(t, models.ChatTypeUnknown, chat.Type)

	// a later history sync resolves the real type
	_, err = ing.SyncHistory(context.Background(), 1, 50)
	require.NoError(t, err)
	require.NoError(t, db.First(&chat, "id = ?", 1).Error)
	assert.Equal(t, models.ChatTypeChannel, chat.Type)
}
