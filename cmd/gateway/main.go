package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zentra/emojimatch/config"
	"github.com/zentra/emojimatch/internal/middleware"
	"github.com/zentra/emojimatch/internal/services/emoji"
	"github.com/zentra/emojimatch/internal/services/leader"
	"github.com/zentra/emojimatch/internal/services/websocket"
	"github.com/zentra/emojimatch/pkg/database"
	"github.com/zentra/emojimatch/pkg/metrics"
	"github.com/zentra/emojimatch/pkg/storage"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Connect to PostgreSQL
	db, err := database.NewPostgresPool(cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.Close(db)

	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare database schema")
	}

	// Connect to Redis
	redisClient, err := database.NewRedisClient(cfg.Redis.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redisClient)

	// Connect to MinIO. Dataset import and export are disabled without it.
	var (
		emojiDatasets  emoji.DatasetStore
		leaderDatasets leader.DatasetStore
	)
	if cfg.Storage.Endpoint != "" {
		minioClient, err := storage.ConnectMinIO(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("MinIO unavailable, dataset import and export disabled")
		} else {
			datasets := storage.NewDatasetStore(minioClient, cfg.Storage.BucketDatasets)
			emojiDatasets = datasets
			leaderDatasets = datasets
		}
	}

	// Initialize WebSocket hub
	wsHub := websocket.NewHub(redisClient)
	go wsHub.Run(ctx)

	// Metrics
	var publisher metrics.Publisher = wsHub
	var appMetrics *metrics.Metrics
	if cfg.Server.MetricsEnabled {
		appMetrics = metrics.New(prometheus.NewRegistry())
		appMetrics.RegisterGauge("websocket_clients", "Connected websocket clients.", func() float64 {
			return float64(wsHub.ClientCount())
		})
		publisher = appMetrics.CountEvents(wsHub)
	}

	// Initialize services
	emojiService := emoji.NewService(
		emoji.NewPostgresStore(db),
		emoji.NewRedisCatalogCache(redisClient, cfg.Emoji.CacheTTL),
		emojiDatasets,
		publisher,
	)
	leaderService := leader.NewService(leader.NewPostgresStore(db), leaderDatasets, publisher)

	if n, err := emojiService.SeedIfEmpty(ctx, cfg.Emoji.SeedObject); err != nil {
		log.Error().Err(err).Msg("Failed to seed emoji catalog")
	} else if n > 0 {
		log.Info().Int("count", n).Str("object", cfg.Emoji.SeedObject).Msg("Seeded emoji catalog")
	}

	// Initialize handlers
	emojiHandler := emoji.NewHandler(emojiService)
	leaderHandler := leader.NewHandler(leaderService)
	wsHandler := websocket.NewHandler(wsHub, cfg.JWT.Secret, cfg.Server.AllowedOrigins)

	r := newRouter(routerDeps{
		cfg:     cfg,
		metrics: appMetrics,
		counter: middleware.RedisCounter(redisClient),
		emojis:  emojiHandler,
		leaders: leaderHandler,
		ws:      wsHandler,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:    "0.0.0.0:" + cfg.Server.Port,
		Handler: r,
	}

	// Start server
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting API Gateway")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// In-flight requests may still publish until Shutdown returns
	stop()

	log.Info().Msg("Server stopped")
}
