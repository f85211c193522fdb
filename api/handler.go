package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"telegram-intent-analyzer/backend/analysis/models"
	"telegram-intent-analyzer/backend/analysis/repository"
	"telegram-intent-analyzer/backend/analysis/service"
	"telegram-intent-analyzer/backend/ingest"
	"telegram-intent-analyzer/backend/pkg/cache"
	apperrors "telegram-intent-analyzer/backend/pkg/errors"
	"telegram-intent-analyzer/backend/pkg/jobs"
	"telegram-intent-analyzer/backend/pkg/logger"
	"telegram-intent-analyzer/backend/pkg/metrics"
	"telegram-intent-analyzer/backend/telegram"

	"github.com/gin-gonic/gin"
)

const resultsPageSize = 50

// Handler exposes the analyzer over HTTP. ChatSvc and Pipeline may be nil
// when their credentials are missing; the endpoints depending on them then
// answer NOT_CONFIGURED instead of taking the process down at startup.
type Handler struct {
	ChatSvc        telegram.ChatService
	Ingestor       *ingest.Ingestor
	Pipeline       *service.Pipeline
	Chats          repository.ChatRepository
	Analyses       repository.AnalysisRepository
	Runner         *jobs.Runner
	Results        *cache.ResultsCache
	DialogPageSize int
	Log            *logger.Logger
}

func (h *Handler) Status(c *gin.Context) {
	if h.ChatSvc == nil {
		c.JSON(http.StatusOK, gin.H{"authorized": false, "configured": false})
		return
	}

	authorized, err := h.ChatSvc.IsAuthorized(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"authorized": authorized, "configured": true})
}

type loginRequest struct {
	Phone string `json:"phone" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	if !h.requireGateway(c) {
		return
	}

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequest("phone is required"))
		return
	}

	if err := h.ChatSvc.RequestCode(c.Request.Context(), req.Phone); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "code_sent"})
}

type verifyRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Code     string `json:"code" binding:"required"`
	Password string `json:"password"`
}

func (h *Handler) Verify(c *gin.Context) {
	if !h.requireGateway(c) {
		return
	}

	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequest("phone and code are required"))
		return
	}

	if err := h.ChatSvc.SignIn(c.Request.Context(), req.Phone, req.Code, req.Password); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) ListChats(c *gin.Context) {
	chats, err := h.Chats.ListRecent(50)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, chats)
}

// SyncChats kicks off a background dialog sync and acknowledges
// immediately. A second request while one is running joins the in-flight
// job instead of starting another.
func (h *Handler) SyncChats(c *gin.Context) {
	if !h.requireGateway(c) {
		return
	}

	_, started := h.Runner.Run("dialogs", func(ctx context.Context) error {
		_, err := h.Ingestor.SyncDialogs(ctx, h.DialogPageSize)
		if err != nil {
			metrics.JobFailures.WithLabelValues("dialog_sync").Inc()
		}
		return err
	})

	status := "sync_started"
	if !started {
		status = "already_running"
	}
	c.JSON(http.StatusAccepted, gin.H{"status": status})
}

// AnalyzeChat starts a background sync+analyze run for one chat. Runs are
// keyed by chat so two triggers for the same chat can never interleave.
func (h *Handler) AnalyzeChat(c *gin.Context) {
	if h.Pipeline == nil {
		c.Error(apperrors.NewNotConfigured("analysis pipeline unavailable: embedding provider not configured"))
		return
	}

	chatID, ok := h.chatIDParam(c)
	if !ok {
		return
	}

	key := fmt.Sprintf("chat:%d", chatID)
	_, started := h.Runner.Run(key, func(ctx context.Context) error {
		_, err := h.Pipeline.AnalyzeChat(ctx, chatID)
		if err != nil {
			metrics.JobFailures.WithLabelValues("analysis").Inc()
		}
		return err
	})

	status := "analysis_started"
	if !started {
		status = "already_running"
	}
	c.JSON(http.StatusAccepted, gin.H{"status": status, "job": key})
}

type messageResultResponse struct {
	ID        uint      `json:"id"`
	Text      string    `json:"text"`
	Date      time.Time `json:"date"`
	SenderID  *int64    `json:"sender_id,omitempty"`
	Intent    string    `json:"intent"`
	Urgency   float64   `json:"urgency"`
	Sentiment float64   `json:"sentiment"`
	Tone      string    `json:"tone"`
}

func (h *Handler) ChatResults(c *gin.Context) {
	chatID, ok := h.chatIDParam(c)
	if !ok {
		return
	}

	cacheKey := service.ResultsCacheKey(chatID)
	if cached, ok := h.Results.Get(c.Request.Context(), cacheKey); ok {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(cached))
		return
	}

	rows, err := h.Analyses.ResultsByChat(chatID, resultsPageSize)
	if err != nil {
		c.Error(err)
		return
	}

	results := make([]messageResultResponse, 0, len(rows))
	for _, row := range rows {
		r := messageResultResponse{
			ID:       row.Message.ID,
			Text:     row.Message.Text,
			Date:     row.Message.Date,
			SenderID: row.Message.SenderID,
			Intent:   models.IntentUnknown,
			Tone:     models.ToneNeutral,
		}
		if row.Analysis != nil {
			r.Intent = row.Analysis.Intent
			r.Urgency = row.Analysis.UrgencyScore
			r.Sentiment = row.Analysis.SentimentScore
			r.Tone = row.Analysis.EmotionalTone
		}
		results = append(results, r)
	}

	if body, err := json.Marshal(results); err == nil {
		h.Results.Set(c.Request.Context(), cacheKey, string(body))
	}
	c.JSON(http.StatusOK, results)
}

func (h *Handler) ChatDrift(c *gin.Context) {
	chatID, ok := h.chatIDParam(c)
	if !ok {
		return
	}

	scores, err := h.Analyses.SentimentSeries(chatID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, models.ChatDriftSummary{
		ChatID:      chatID,
		Trend:       service.DetectDrift(scores),
		SampleCount: len(scores),
	})
}

func (h *Handler) chatIDParam(c *gin.Context) (int64, bool) {
	chatID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(apperrors.NewBadRequest("invalid chat ID"))
		return 0, false
	}
	return chatID, true
}

func (h *Handler) requireGateway(c *gin.Context) bool {
	if h.ChatSvc == nil {
		c.Error(apperrors.NewNotConfigured("telegram gateway is not configured"))
		return false
	}
	return true
}
