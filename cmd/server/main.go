package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"telegram-intent-analyzer/backend/analysis/nlp"
	"telegram-intent-analyzer/backend/analysis/repository"
	"telegram-intent-analyzer/backend/analysis/service"
	"telegram-intent-analyzer/backend/api"
	"telegram-intent-analyzer/backend/ingest"
	"telegram-intent-analyzer/backend/pkg/cache"
	"telegram-intent-analyzer/backend/pkg/config"
	"telegram-intent-analyzer/backend/pkg/jobs"
	"telegram-intent-analyzer/backend/pkg/logger"
	"telegram-intent-analyzer/backend/telegram"
)

func main() {
	cfg := config.New()

	log := logger.New(logger.Config{
		Level: cfg.Logging.Level,
		JSON:  cfg.Logging.Format != "text",
	})
	logger.SetGlobal(log)

	log.Info("starting telegram intent analyzer", "env", cfg.Server.Env)

	db, err := config.NewDB()
	if err != nil {
		log.LogError(err, "failed to initialize database")
		os.Exit(1)
	}

	chats := repository.NewGormChatRepository(db)
	users := repository.NewGormUserRepository(db)
	messages := repository.NewGormMessageRepository(db)
	analyses := repository.NewGormAnalysisRepository(db)

	embedCache := cache.New(cfg.Cache.TTL, cfg.Cache.PurgeWindow, cfg.Cache.MaxSize)
	results := cache.NewResultsCache(cfg.Cache.RedisURL, cfg.Cache.ResultsTTL)

	// Degraded startup is deliberate: missing gateway or embedding
	// credentials disable the dependent endpoints, not the whole service.
	var chatSvc telegram.ChatService
	gateway, err := telegram.NewGatewayClient(cfg.Telegram.GatewayURL, cfg.Telegram.Timeout, log)
	if err != nil {
		log.Warn("telegram gateway disabled", "reason", err.Error())
	} else {
		chatSvc = gateway
	}

	var ingestor *ingest.Ingestor
	if chatSvc != nil {
		ingestor = ingest.NewIngestor(chatSvc, chats, users, messages, log)
	}

	var pipeline *service.Pipeline
	if ingestor != nil {
		embedder, err := nlp.NewOpenAIEmbedder(cfg.Analyzer.OpenAIKey, cfg.Analyzer.EmbeddingModel)
		if err != nil {
			log.Warn("analysis pipeline disabled", "reason", err.Error())
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			analyzer, err := service.NewAnalyzer(ctx, embedder, nlp.NewSentimentScorer(), embedCache)
			cancel()
			if err != nil {
				log.LogError(err, "failed to precompute intent reference embeddings")
				os.Exit(1)
			}
			pipeline = service.NewPipeline(db, analyzer, ingestor, results, cfg.Analyzer.SyncPageSize, log)
		}
	}

	handler := &api.Handler{
		ChatSvc:        chatSvc,
		Ingestor:       ingestor,
		Pipeline:       pipeline,
		Chats:          chats,
		Analyses:       analyses,
		Runner:         jobs.NewRunner(log),
		Results:        results,
		DialogPageSize: cfg.Analyzer.DialogPageSize,
		Log:            log,
	}

	router := api.NewRouter(handler, db, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	go func() {
		log.Info("listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogError(err, "server error")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.LogError(err, "forced shutdown")
	}
}
