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

	"server/internal/adapter/repo"
	"server/internal/builder"
	"server/internal/github"
	"server/internal/http/handlers"
	"server/internal/http/httpapi"
	"server/internal/infra"
	"server/internal/infra/geoip"
	"server/internal/providers/chat"
	"server/internal/providers/llm"
	"server/internal/quota"
	"server/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		bootLogger := infra.NewLogger("production")
		bootLogger.Fatal().Err(err).Msg("load config")
	}

	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	if err := infra.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("ensure schema")
	}

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip unavailable, locale detection degraded")
	}

	fileStore, err := storage.NewFileStore(cfg.ProjectsDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("init file store")
	}

	catalog, err := builder.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("load framework catalog")
	}

	gemini, err := llm.NewGeminiClient(llm.Options{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.GeminiModel,
		BaseURL: cfg.GeminiBaseURL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("init llm client")
	}

	runner := infra.NewSQLRunner(pool, logger)
	gate := quota.NewGate(repo.NewQuotaRepository(pool, logger), cfg.QuotaMode, logger)

	app := &handlers.App{
		Config:        cfg,
		Logger:        logger,
		Quota:         gate,
		Builder:       builder.NewService(gemini, catalog, logger),
		Fixer:         builder.NewFixer(catalog),
		Assistant:     chat.NewResponder(gemini, logger),
		Projects:      repo.NewProjectRepository(runner),
		Conversations: repo.NewConversationRepository(runner),
		Store:         fileStore,
		Pusher:        github.NewPusher(logger),
	}

	srv := infra.NewHTTPServer(cfg, httpapi.NewRouter(app, resolver))

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Str("env", cfg.AppEnv).Msg("server starting")
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown")
		}
	}
}
