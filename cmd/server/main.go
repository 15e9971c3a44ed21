package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"habitkeeper/config"
	"habitkeeper/internal/dateutil"
	"habitkeeper/internal/events"
	"habitkeeper/internal/handler"
	"habitkeeper/internal/httpserver"
	"habitkeeper/internal/repository"
	"habitkeeper/internal/store"
	"habitkeeper/pkg/circuitbreaker"
	"habitkeeper/pkg/db"
	"habitkeeper/pkg/logger"
	"habitkeeper/pkg/mq"
	redisclient "habitkeeper/pkg/redis"
)

// backend is a storage repository that can also answer readiness checks.
type backend interface {
	store.Repository
	Ping(ctx context.Context) error
}

func main() {
	env := config.GetConfigEnv()
	cfg, err := config.Load(config.GetEnv("CONFIG_DIR", "config"), env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting habitkeeper...",
		zap.String("env", env),
		zap.String("backend", cfg.Storage.Backend),
		zap.String("timezone", cfg.Calendar.Timezone),
		zap.Bool("auth", cfg.JWT.Secret != ""),
	)

	cal, err := dateutil.LoadCalendar(cfg.Calendar.Timezone)
	if err != nil {
		log.Fatal("Invalid timezone", zap.Error(err))
	}

	ctx := context.Background()

	// Storage
	var repo backend
	var closers []func()
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		repo = repository.NewMemoryRepository(cfg.Storage.Key)
	case config.BackendFile:
		repo = repository.NewFileRepository(cfg.Storage.Dir, cfg.Storage.Key, log)
	case config.BackendRedis:
		rdb, err := redisclient.NewRedisClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Fatal("Failed to init Redis", zap.Error(err))
		}
		closers = append(closers, func() { _ = rdb.Close() })
		repo = repository.NewRedisRepository(rdb, cfg.Storage.Key, log)
	case config.BackendPostgres:
		pool, err := db.NewConnection(ctx, cfg.DB, log)
		if err != nil {
			log.Fatal("Failed to init DB", zap.Error(err))
		}
		closers = append(closers, pool.Close)
		pgRepo := repository.NewPostgresRepository(pool, cfg.Storage.Key, log)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			log.Fatal("Failed to ensure schema", zap.Error(err))
		}
		repo = pgRepo
	}
	log.Info("Storage backend ready", zap.String("backend", repo.Backend()))

	// Events are best effort: a broker that is down at startup only
	// disables them.
	var publisher events.Publisher
	var broker httpserver.Broker
	if cfg.MQ.URL != "" {
		pub, err := mq.NewPublisher(cfg.MQ.URL)
		if err != nil {
			log.Warn("MQ unavailable, events disabled", zap.Error(err))
		} else {
			closers = append(closers, pub.Close)
			publisher = pub
			broker = pub
			log.Info("MQ publisher connected", zap.String("exchange", mq.ExchangeName))
		}
	}
	notifier := events.NewNotifier(publisher, circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig()), log)

	habitStore := store.New(repo, cal, log, store.WithEvents(notifier))
	habitStore.Load(ctx)

	// HTTP Server
	if env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpserver.NewRouter(handler.NewHabitHandler(habitStore, log), httpserver.RouterConfig{
		JWTSecret: cfg.JWT.Secret,
		Owner:     cfg.JWT.Owner,
		Storage:   repo,
		Broker:    broker,
	}, log)

	srv := &http.Server{
		Addr:              cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 优雅退出处理
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down habitkeeper gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}

	log.Info("habitkeeper shutdown complete")
}
