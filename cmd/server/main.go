package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/iliyamo/videohub-auth/internal/cache"
	"github.com/iliyamo/videohub-auth/internal/config"
	"github.com/iliyamo/videohub-auth/internal/database"
	"github.com/iliyamo/videohub-auth/internal/handler"
	"github.com/iliyamo/videohub-auth/internal/logging"
	"github.com/iliyamo/videohub-auth/internal/queue"
	"github.com/iliyamo/videohub-auth/internal/repository"
	"github.com/iliyamo/videohub-auth/internal/router"
	"github.com/iliyamo/videohub-auth/internal/service"
)

func main() {
	// A missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, database.Options{
		User:     cfg.DBUser,
		Password: cfg.DBPass,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		Name:     cfg.DBName,
	})
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	if cfg.MigrateOnStart {
		if err := database.Migrate(ctx, db); err != nil {
			logger.Fatal("migrate database", zap.Error(err))
		}
	}

	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		logger.Warn("redis unavailable, identity cache disabled")
	} else {
		defer rdb.Close()
	}
	identities := cache.NewIdentityCache(config.LoadCacheConfig(), rdb, users, logger)

	if cfg.AMQPURL == "" {
		logger.Info("no broker configured, account events are dropped")
	}
	events := queue.NewPublisher(cfg.AMQPURL, logger)

	auth := service.NewAuthService(service.Settings{
		AccessSecret:  cfg.AccessTokenSecret,
		RefreshSecret: cfg.RefreshTokenSecret,
		AccessTTL:     cfg.AccessTTL(),
		RefreshTTL:    cfg.RefreshTTL(),
		BcryptCost:    cfg.BcryptCost,
	}, users, sessions, logger,
		service.WithIdentityLookup(identities),
		service.WithEvents(events),
	)

	e := router.New(cfg, logger)
	router.RegisterRoutes(e, handler.Health(users, logger))
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, auth, logger), auth, logger)

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
