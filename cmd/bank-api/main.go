package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/eaglebank/bank-api/internal/audit"
	"github.com/eaglebank/bank-api/internal/auth"
	"github.com/eaglebank/bank-api/internal/command"
	"github.com/eaglebank/bank-api/internal/config"
	"github.com/eaglebank/bank-api/internal/repository"
	"github.com/eaglebank/bank-api/internal/repository/memory"
	"github.com/eaglebank/bank-api/internal/repository/postgres"
	"github.com/eaglebank/bank-api/internal/server"
	"github.com/eaglebank/bank-api/shared/events"
	"github.com/eaglebank/bank-api/shared/models"
	sharedredis "github.com/eaglebank/bank-api/shared/redis"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("bank api exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var (
		userCache sharedredis.Cache[models.UserView] = sharedredis.NopCache[models.UserView]{}
		publisher command.EventPublisher             = events.NopPublisher{}
		wg        sync.WaitGroup
	)
	if cfg.Redis.Addr != "" {
		rdb, err := sharedredis.NewClient(ctx, sharedredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()

		userCache = sharedredis.NewViewCache[models.UserView](rdb.Client, cfg.Redis.CacheTTL, logger)
		publisher = events.NewPublisher(rdb.Client)

		hostname, _ := os.Hostname()
		wg.Add(1)
		go func() {
			defer wg.Done()
			audit.NewConsumer(logger).Run(ctx, rdb.Client, "bank-api-"+hostname)
		}()
		logger.Info("redis enabled", "addr", cfg.Redis.Addr)
	} else {
		logger.Warn("REDIS_ADDR not set, running without cache and events")
	}

	gin.SetMode(gin.ReleaseMode)
	app := server.NewApp(server.Dependencies{
		Store:     store,
		UserCache: userCache,
		Publisher: publisher,
		Tokens:    auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Currency:  cfg.Bank.Currency,
		MaxAmount: cfg.Bank.MaxTransactionAmount,
		Logger:    logger,
	})

	err = server.New(cfg.Server, app, logger).Run(ctx)
	stop()
	wg.Wait()
	return err
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.Store, func(), error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		logger.Warn("using in-memory store, data is lost on exit")
		return memory.NewStore(), func() {}, nil
	}

	db, err := postgres.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.Migrate(ctx, db, logger); err != nil {
		db.Close()
		return nil, nil, err
	}
	return postgres.NewStore(db, logger), func() { db.Close() }, nil
}
