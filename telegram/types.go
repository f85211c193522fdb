// Package telegram defines the boundary to the remote chat service: the
// entity/message/dialog shapes the ingestor consumes and an HTTP client for
// the gateway sidecar that owns the actual Telegram session.
package telegram

import (
	"context"
	"time"
)

// Entity describes a resolved chat peer.
type Entity struct {
	ID        int64  `json:"id"`
	Kind      string `json:"kind"` // "user", "group" or "channel"
	Title     string `json:"title,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// DisplayTitle picks the best human-readable name for the entity.
func (e Entity) DisplayTitle() string {
	if e.Title != "" {
		return e.Title
	}
	if e.FirstName != "" {
		return e.FirstName
	}
	return "Unknown"
}

// RemoteMessage is one message as served by the gateway, newest first.
type RemoteMessage struct {
	ID           int64     `json:"id"`
	SenderID     *int64    `json:"sender_id,omitempty"`
	Text         string    `json:"text,omitempty"`
	Date         time.Time `json:"date"`
	ReplyToMsgID *int64    `json:"reply_to_msg_id,omitempty"`
}

// Dialog is a conversation summary from the dialog list.
type Dialog struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// ChatService is what the ingestor needs from the remote chat service.
// ListMessages returns up to limit of the most recent messages, newest
// first; re-invocation re-fetches from the top.
type ChatService interface {
	IsAuthorized(ctx context.Context) (bool, error)
	RequestCode(ctx context.Context, phone string) error
	SignIn(ctx context.Context, phone, code, password string) error

	ResolveEntity(ctx context.Context, chatID int64) (*Entity, error)
	ListMessages(ctx context.Context, chatID int64, limit int) ([]RemoteMessage, error)
	ListDialogs(ctx context.Context, limit int) ([]Dialog, error)
}
