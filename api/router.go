package api

import (
	"net/http"
	"time"

	"telegram-intent-analyzer/backend/pkg/config"
	apperrors "telegram-intent-analyzer/backend/pkg/errors"
	"telegram-intent-analyzer/backend/pkg/logger"
	"telegram-intent-analyzer/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// NewRouter builds the HTTP surface: operational endpoints at the root,
// analyzer endpoints under /api with rate limiting.
func NewRouter(h *Handler, db *gorm.DB, log *logger.Logger) *gin.Engine {
	cfg := config.Get()

	r := gin.New()

	r.Use(apperrors.Recovery(log))
	r.Use(middleware.CORS(cfg.Security.AllowedOrigins))
	r.Use(middleware.RequestID())
	r.Use(logger.Middleware(log))
	r.Use(middleware.Metrics())
	r.Use(apperrors.ErrorHandler(log))

	r.GET("/health", healthHandler(db))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limiterOpts := middleware.DefaultRateLimiterOptions()
	limiterOpts.Limit = rate.Limit(cfg.Security.RateLimit)
	limiterOpts.Burst = cfg.Security.RateLimitBurst
	limiter := middleware.NewRateLimiter(log, limiterOpts)

	api := r.Group("/api")
	api.Use(limiter.Middleware())
	{
		api.GET("/status", h.Status)
		api.POST("/login", h.Login)
		api.POST("/verify", h.Verify)

		api.GET("/chats", h.ListChats)
		api.POST("/chats/sync", h.SyncChats)
		api.POST("/chats/:id/analyze", h.AnalyzeChat)
		api.GET("/chats/:id/results", h.ChatResults)
		api.GET("/chats/:id/drift", h.ChatDrift)
	}

	return r
}

func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "ok"
		code := http.StatusOK

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.Ping()
		}
		if err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status": status,
			"time":   time.Now().UTC(),
		})
	}
}
