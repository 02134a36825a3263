package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/InduJay123/SmartAgriMarket-sub000/internal/adapter"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/chat"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/command"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/config"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/metrics"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/predictapi"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/service/cache"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/service/database"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/service/intent"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/service/memory"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/service/session"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/service/transcript"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/util"
)

// Container bundles the assembled services of the assistant host.
type Container struct {
	Config *config.Config
	Logger *zap.Logger
	Hub    *session.Hub
	Chat   *chat.Server

	httpServer *http.Server
	closers    []func()
	closeOnce  sync.Once
}

// Build assembles all infrastructure services. Redis and PostgreSQL are
// optional: when disabled, sessions live only in memory and turns are not
// archived.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	// Conversation core
	engine := intent.NewEngine(intent.DefaultCatalog(), intent.WithLogger(logger))
	extractor, err := memory.DefaultExtractor()
	if err != nil {
		return nil, fmt.Errorf("failed to load vocabulary: %w", err)
	}
	formatter := adapter.NewResponseFormatter(cfg.Assistant.Prefix)
	recorder := metrics.NewRecorder()

	// Prediction API
	breaker := util.NewCircuitBreaker("prediction-api", cfg.Prediction.FailureThreshold, cfg.Prediction.ResetTimeout, logger)
	predictor := predictapi.NewClient(cfg.Prediction.BaseURL, cfg.Prediction.Timeout, breaker, logger)

	registry := command.NewRegistry()
	command.RegisterDefaults(registry, &command.Dependencies{
		Predictor:    predictor,
		Formatter:    formatter,
		Observer:     recorder,
		DashboardURL: cfg.Prediction.DashboardURL,
		Logger:       logger,
	})

	hubOpts := []session.Option{
		session.WithLogger(logger),
		session.WithExtractor(extractor),
		session.WithFormatter(formatter),
		session.WithDispatcher(command.NewSequentialDispatcher(registry)),
		session.WithObserver(recorder),
		session.WithIdleTTL(cfg.Session.IdleTTL),
		session.WithSnapshotTTL(cfg.Session.SnapshotTTL),
		session.WithMaxClarifications(cfg.Session.MaxClarifications),
		session.WithFlushConcurrency(cfg.Session.FlushConcurrency),
	}
	chatOpts := []chat.Option{
		chat.WithLogger(logger),
		chat.WithPrefix(cfg.Assistant.Prefix),
		chat.WithAllowedOrigins(cfg.Server.AllowedOrigins),
		chat.WithHealthCheck("prediction_api", predictor.Ping),
	}

	// Snapshot store
	if cfg.Redis.Enabled {
		cacheSvc, err := cache.NewCacheService(cache.CacheConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create cache service: %w", err)
		}
		closers = append(closers, func() {
			_ = cacheSvc.Close()
		})
		hubOpts = append(hubOpts, session.WithSnapshotStore(cacheSvc))
		stored, err := cacheSvc.SnapshotIDs(ctx)
		if err != nil {
			logger.Warn("Failed to count stored sessions", zap.Error(err))
		}
		logger.Info("Session snapshots enabled",
			zap.String("redis", cfg.Redis.Addr()),
			zap.Duration("snapshot_ttl", cfg.Session.SnapshotTTL),
			zap.Int("stored_sessions", len(stored)),
		)
		chatOpts = append(chatOpts, chat.WithHealthCheck("redis", cacheSvc.IsConnected))
	} else {
		logger.Warn("Redis disabled, sessions will not survive eviction or restart")
	}

	// Transcript archive
	if cfg.Postgres.Enabled {
		postgresSvc, err := database.NewPostgresService(database.PostgresConfig{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Database: cfg.Postgres.Database,
			SSLMode:  cfg.Postgres.SSLMode,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres service: %w", err)
		}
		closers = append(closers, func() {
			_ = postgresSvc.Close()
		})

		transcripts := transcript.NewRepository(postgresSvc, logger)
		if err := transcripts.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to prepare transcript schema: %w", err)
		}
		hubOpts = append(hubOpts, session.WithTranscripts(transcripts))
		chatOpts = append(chatOpts, chat.WithTranscriptArchive(transcripts))
		chatOpts = append(chatOpts, chat.WithHealthCheck("postgres", func(ctx context.Context) bool {
			return postgresSvc.Ping(ctx) == nil
		}))
	}

	hub := session.NewHub(engine, hubOpts...)
	chatServer := chat.NewServer(hub, chatOpts...)

	return &Container{
		Config: cfg,
		Logger: logger,
		Hub:    hub,
		Chat:   chatServer,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      chatServer.Router(),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		closers: closers,
	}, nil
}

// Run serves HTTP and sweeps idle sessions until ctx is cancelled or the
// listener fails.
func (c *Container) Run(ctx context.Context) error {
	go c.Hub.Run(ctx, c.Config.Session.SweepInterval)

	c.Logger.Info("HTTP server listening", zap.String("addr", c.httpServer.Addr))
	if err := c.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, closes WebSocket clients, flushes every
// session and releases the stores.
func (c *Container) Shutdown(ctx context.Context) error {
	var errs []error

	c.closeOnce.Do(func() {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if err := c.Chat.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("websocket shutdown: %w", err))
		}
		if err := c.Hub.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("session flush: %w", err))
		}
		for i := len(c.closers) - 1; i >= 0; i-- {
			c.closers[i]()
		}
	})

	return errors.Join(errs...)
}
