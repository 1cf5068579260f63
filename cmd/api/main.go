package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smilelink-ai/dental-concierge/internal/api/router"
	"github.com/smilelink-ai/dental-concierge/internal/app/bootstrap"
	"github.com/smilelink-ai/dental-concierge/internal/booking"
	"github.com/smilelink-ai/dental-concierge/internal/chat"
	"github.com/smilelink-ai/dental-concierge/internal/clinics"
	appconfig "github.com/smilelink-ai/dental-concierge/internal/config"
	"github.com/smilelink-ai/dental-concierge/internal/faq"
	"github.com/smilelink-ai/dental-concierge/internal/findclinic"
	"github.com/smilelink-ai/dental-concierge/internal/intent"
	"github.com/smilelink-ai/dental-concierge/internal/llm"
	"github.com/smilelink-ai/dental-concierge/internal/observability/metrics"
	"github.com/smilelink-ai/dental-concierge/internal/session"
	"github.com/smilelink-ai/dental-concierge/pkg/logging"
)

func main() {
	// Load .env in local development; production uses real env vars.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting dental-concierge API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	pool, err := bootstrap.BuildDBPool(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient == nil {
		logger.Error("redis is required for conversation history")
		os.Exit(1)
	}
	defer func() { _ = redisClient.Close() }()

	llmClient, err := bootstrap.BuildLLMClient(cfg)
	if err != nil {
		logger.Error("failed to build language model client", "error", err)
		os.Exit(1)
	}

	metricsHandler, chatMetrics := setupChatMetrics()
	llmClient = llm.Instrument(llmClient, chatMetrics)

	// Datastores
	clinicRepo := clinics.NewRepository(pool, logger)
	sessionStore := session.NewStore(pool)
	historyStore := session.NewHistoryStore(redisClient, cfg.HistoryTTL, cfg.HistoryMaxTurns)
	transcripts := chat.NewTranscriptStore(pool)
	faqRepo := faq.NewRepository(pool)

	// Domain services
	engine := findclinic.NewEngine(clinicRepo, llmClient, logger, findclinic.EngineConfig{
		SampleLimit: cfg.DirectMatchSampleLimit,
		MinRating:   cfg.MinRating,
		MinReviews:  cfg.MinReviews,
		Observer:    chatMetrics,
	})
	bookingFlow := booking.NewFlow(logger)
	faqService := faq.NewService(faqRepo, llmClient, logger)
	classifier := intent.NewClassifier(llmClient, logger)

	concierge := chat.NewConcierge(chat.ConciergeDeps{
		Sessions:    sessionStore,
		History:     historyStore,
		Transcripts: transcripts,
		Engine:      engine,
		Booking:     bookingFlow,
		FAQ:         faqService,
		Classifier:  classifier,
		Metrics:     chatMetrics,
		Logger:      logger,
	})

	r := router.New(&router.Config{
		Logger:             logger,
		ChatHandler:        chat.NewHandler(concierge, logger),
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitPerSecond: 5,
		RateLimitBurst:     10,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// setupChatMetrics builds an isolated registry so tests never collide on the
// default registerer.
func setupChatMetrics() (http.Handler, *metrics.ChatMetrics) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	chatMetrics := metrics.NewChatMetrics(registry)
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), chatMetrics
}
