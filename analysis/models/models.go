package models

import (
	"time"
)

// Chat types as reported by the Telegram gateway.
const (
	ChatTypeUser    = "user"
	ChatTypeGroup   = "group"
	ChatTypeChannel = "channel"
	ChatTypeUnknown = "unknown"
)

// Intent labels produced by the classifier.
const (
	IntentAgreement   = "agreement"
	IntentPassiveAck  = "passive_ack"
	IntentDisinterest = "disinterest"
	IntentIrritation  = "irritation"
	IntentUrgency     = "urgency"
	IntentNeutral     = "neutral"
	IntentUnknown     = "unknown"
)

// Emotional tones derived from the compound sentiment score.
const (
	TonePositive = "Positive"
	ToneNegative = "Negative"
	ToneNeutral  = "Neutral"
)

// DriftTrend classifies the direction of sentiment over a conversation.
type DriftTrend string

const (
	DriftWarming DriftTrend = "Warming"
	DriftCooling DriftTrend = "Cooling"
	DriftStable  DriftTrend = "Stable"
	// DriftVolatile is a declared outcome that the slope-only trend test
	// never produces. Kept so stored values round-trip if the rule grows
	// an oscillation check.
	DriftVolatile DriftTrend = "Volatile"
)

// User is a sender record. Most rows start as bare ID stubs created during
// history sync and may be enriched later.
type User struct {
	ID        int64   `json:"id" gorm:"primaryKey"` // Telegram user ID
	Username  *string `json:"username,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Phone     *string `json:"-"`
	IsSelf    bool    `json:"is_self" gorm:"default:false"`
}

// Chat is a locally known conversation.
type Chat struct {
	ID          int64     `json:"id" gorm:"primaryKey"` // Telegram chat ID
	Title       string    `json:"title"`
	Username    *string   `json:"username,omitempty"`
	Type        string    `json:"type"` // user, group, channel, unknown
	LastUpdated time.Time `json:"last_updated" gorm:"autoUpdateTime"`
}

// Message is one stored chat message. (chat_id, telegram_id) is unique at
// the storage layer so re-syncing the same page can never duplicate rows.
type Message struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	TelegramID   int64     `json:"telegram_id" gorm:"uniqueIndex:idx_messages_chat_telegram"`
	ChatID       int64     `json:"chat_id" gorm:"uniqueIndex:idx_messages_chat_telegram;index"`
	SenderID     *int64    `json:"sender_id,omitempty" gorm:"index"`
	Text         string    `json:"text" gorm:"type:text"`
	Date         time.Time `json:"date" gorm:"index"`
	ReplyToMsgID *int64    `json:"reply_to_msg_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// MessageAnalysis holds the analyzer output for one message, at most one row
// per message. Engagement and the future-reply probabilities are stored as
// zero and never computed.
type MessageAnalysis struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	MessageID uint `json:"message_id" gorm:"uniqueIndex"`

	Intent           string  `json:"intent"`
	IntentConfidence float64 `json:"intent_confidence"`

	UrgencyScore    float64 `json:"urgency_score"`
	EngagementScore float64 `json:"engagement_score"`
	SentimentScore  float64 `json:"sentiment_score" gorm:"default:0"`
	EmotionalTone   string  `json:"emotional_tone" gorm:"default:Neutral"`

	FutureReplyProb5Min float64 `json:"future_reply_prob_5min"`
	FutureReplyProb1Hr  float64 `json:"future_reply_prob_1hr"`
	FutureReplyProb24Hr float64 `json:"future_reply_prob_24hr"`

	UpdatedAt time.Time `json:"updated_at"`
}

// ChatDriftSummary is the derived sentiment trend for one chat. It is
// computed on demand, not persisted.
type ChatDriftSummary struct {
	ChatID      int64      `json:"chat_id"`
	Trend       DriftTrend `json:"trend"`
	SampleCount int        `json:"sample_count"`
}
