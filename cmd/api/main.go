package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/shadicards/concierge/backend/internal/config"
	"github.com/shadicards/concierge/backend/internal/handler"
	"github.com/shadicards/concierge/backend/internal/logger"
	"github.com/shadicards/concierge/backend/internal/service/ai"
	"github.com/shadicards/concierge/backend/internal/service/assistant"
	"github.com/shadicards/concierge/backend/internal/service/chat"
	"github.com/shadicards/concierge/backend/internal/service/media"
	"github.com/shadicards/concierge/backend/internal/service/retention"
	"github.com/shadicards/concierge/backend/internal/store"
	"github.com/shadicards/concierge/backend/internal/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "shadicards-concierge")
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(cfg.Server.LogLevel, cfg.Telemetry.ServiceName)
	if envErr != nil {
		log.Debug().Err(envErr).Msg("no .env file loaded, using process environment only")
	}

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		log.Warn().Err(err).Msg("tracing disabled")
		shutdownTracing = func(context.Context) error { return nil }
	}

	db, err := store.New(cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Str("db_type", cfg.Database.Type).Msg("failed to open store")
	}
	defer db.Close()

	signer, err := media.NewSigner(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise media signer")
	}

	chatService := chat.NewService(db, log, cfg.Chat.HistoryLimit)

	// A nil LLM keeps the concierge on the keyword fallback.
	var llm assistant.LLM
	if cfg.AI.Enabled() {
		aiService, err := newAIService(ctx, cfg.AI, log)
		if err != nil {
			log.Error().Err(err).Str("provider", cfg.AI.Provider).Msg("failed to initialise AI service, continuing with fallback replies")
		} else {
			llm = aiService
			log.Info().Str("provider", cfg.AI.Provider).Str("model", aiService.ModelName()).Msg("AI service initialised")
		}
	} else {
		log.Warn().Str("provider", cfg.AI.Provider).Msg("LLM credentials not configured, serving fallback replies")
	}

	assistantService := assistant.NewService(db, chatService, llm, signer, log)

	sweeper, err := retention.NewSweeper(db, cfg.Chat.RetentionDays, cfg.Chat.RetentionSchedule, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to schedule retention sweeper")
	}
	if sweeper != nil {
		sweeper.Start()
	}

	router := handler.NewRouter(db, chatService, assistantService, log)
	startServer(ctx, cfg.Server, router, log)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if sweeper != nil {
		sweeper.Stop(shutdownCtx)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("failed to flush traces")
	}
}

func newAIService(ctx context.Context, cfg config.AIConfig, log zerolog.Logger) (*ai.Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, err
	}
	return ai.NewService(ctx, chatModel, ai.Options{
		ModelName:      cfg.ModelName(),
		StreamResponse: cfg.StreamResponse,
	}, log)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, log zerolog.Logger) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", addr).Msg("ShadiCards concierge listening")
	if err := runServer(ctx, srv, serverCfg.ShutdownTimeout); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

func runServer(ctx context.Context, srv *http.Server, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
