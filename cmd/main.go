package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Dosada05/debate-tournament/brackets"
	"github.com/Dosada05/debate-tournament/cache"
	"github.com/Dosada05/debate-tournament/config"
	"github.com/Dosada05/debate-tournament/db"
	"github.com/Dosada05/debate-tournament/docstore"
	"github.com/Dosada05/debate-tournament/handlers"
	"github.com/Dosada05/debate-tournament/metrics"
	"github.com/Dosada05/debate-tournament/repositories"
	api "github.com/Dosada05/debate-tournament/routes"
	"github.com/Dosada05/debate-tournament/services"
	"github.com/Dosada05/debate-tournament/storage"
)

const rankingsCacheTTL = 30 * time.Second

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("store", cfg.StoreBackend))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Подключение к хранилищу документов
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open document store", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close document store", slog.Any("error", err))
		} else {
			logger.Info("document store closed")
		}
	}()

	// Кэш рейтинга (Redis), необязательный
	var rankingsCache services.StandingsCache
	if cfg.RedisURL != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer redisClient.Close()
		rankingsCache = cache.NewStandingsCache(redisClient, rankingsCacheTTL, logger)
		logger.Info("redis standings cache enabled")
	}

	// Экспорт результатов в Cloudflare R2, необязательный
	var uploader storage.FileUploader
	if cfg.R2Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	}

	// Инициализация WebSocket Hub
	wsHub := brackets.NewHub(logger)
	go wsHub.Run(ctx)
	logger.Info("WebSocket Hub started")

	registry := prometheus.NewRegistry()
	appMetrics := metrics.New(registry)

	// Инициализация репозиториев
	teamRepo := repositories.NewTeamRepository(store)
	participantRepo := repositories.NewParticipantRepository(store)
	matchRepo := repositories.NewMatchRepository(store)
	roundRepo := repositories.NewRoundRepository(store)

	// Инициализация сервисов
	rosterService := services.NewRosterService(participantRepo, logger)
	teamService := services.NewTeamService(teamRepo, participantRepo, rankingsCache, wsHub, logger)
	pairingService := services.NewPairingService(teamRepo, matchRepo, roundRepo, rosterService, nil, wsHub, appMetrics, logger)
	matchService := services.NewMatchService(store, matchRepo, roundRepo, teamRepo, rankingsCache, wsHub, appMetrics, logger)
	standingsService := services.NewStandingsService(teamRepo, matchRepo, roundRepo, rankingsCache, appMetrics, logger)
	exportService := services.NewExportService(uploader, standingsService, logger)
	logger.Info("Services initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(router, api.Handlers{
		Team:      handlers.NewTeamHandler(teamService),
		Pairing:   handlers.NewPairingHandler(pairingService),
		Match:     handlers.NewMatchHandler(matchService),
		Standings: handlers.NewStandingsHandler(standingsService, exportService),
		WebSocket: handlers.NewWebSocketHandler(wsHub, cfg.CORSAllowedOrigins, logger),
		Metrics:   metrics.Handler(registry),
	}, cfg.CORSAllowedOrigins)
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		} else {
			logger.Info("server shutdown complete")
		}
	}
	logger.Info("application exited")
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (docstore.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second, logger)
		if err != nil {
			return nil, err
		}
		pg := docstore.NewPostgres(dbConn)
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = pg.Close()
			return nil, err
		}
		logger.Info("postgres document store ready")
		return pg, nil

	case config.BackendFirestore:
		fs, err := docstore.NewFirestore(ctx, docstore.FirestoreConfig{
			ProjectID:       cfg.FirestoreProjectID,
			CredentialsFile: cfg.FirestoreCredentialsFile,
			EmulatorHost:    cfg.FirestoreEmulatorHost,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("firestore document store ready", slog.String("project", cfg.FirestoreProjectID))
		return fs, nil
	}

	logger.Warn("using in-memory document store, data is lost on restart")
	return docstore.NewMemory(), nil
}
