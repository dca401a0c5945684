// @title                       Accounts API
// @version                     1.0
// @description                 Account registration, email confirmation, login and profile.
// @BasePath                    /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	drv "go.mongodb.org/mongo-driver/mongo"

	"github.com/99minutos/accounts-api/internal/api"
	"github.com/99minutos/accounts-api/internal/api/handler"
	"github.com/99minutos/accounts-api/internal/core/ports"
	"github.com/99minutos/accounts-api/internal/core/service"
	"github.com/99minutos/accounts-api/internal/infrastructure/db/mongo"
	"github.com/99minutos/accounts-api/internal/infrastructure/db/redis"
	"github.com/99minutos/accounts-api/internal/infrastructure/queue"
	"github.com/99minutos/accounts-api/internal/pkg/config"
	"github.com/99minutos/accounts-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.Init(logger.Options{})
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "accounts-api",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Storage ---
	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	accounts := mongo.NewAccountRepository(db)
	tokens := mongo.NewTokenRepository(db, cfg.Auth.ConfirmTokenTTL)
	if err := mongo.EnsureIndexes(ctx, accounts, tokens); err != nil {
		return err
	}

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	// --- Confirmation notices ---
	notifier, closeNotifier, err := newNotifier(cfg.Notify, log)
	if err != nil {
		return err
	}
	defer closeNotifier()

	dispatcher := queue.NewDispatcher(cfg.Notify.Workers, notifier, logger.Component("dispatcher"))
	dispatcher.Start(context.Background())

	// --- Use cases ---
	accountService := service.NewAccountService(
		accounts,
		tokens,
		mongo.NewTxManager(mongoClient),
		dispatcher,
		redis.NewAttemptLimiter(rdb, cfg.Throttle.MaxFailures, cfg.Throttle.Window),
		service.AuthConfig{
			JWTSecret:  cfg.Auth.JWTSecret,
			TokenTTL:   cfg.Auth.JWTTTL,
			BcryptCost: cfg.Auth.BcryptCost,
		},
		logger.Component("accounts"),
	)

	// --- HTTP ---
	e := api.NewRouter(api.Dependencies{
		Accounts:  accountService,
		JWTSecret: cfg.Auth.JWTSecret,
		Checks:    readinessChecks(mongoClient, rdb),
		Log:       logger.Component("http"),
	})

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}

	// No request can enqueue anymore; drain pending notices.
	dispatcher.Stop()
	return nil
}

// newNotifier publishes to RabbitMQ when a broker is configured and falls back
// to logging notices otherwise.
func newNotifier(cfg config.NotifyConfig, log zerolog.Logger) (ports.Notifier, func(), error) {
	if cfg.RabbitURL == "" {
		log.Warn().Msg("RABBITMQ_URL not set, confirmation notices are only logged")
		return queue.LogNotifier{Log: logger.Component("notifier")}, func() {}, nil
	}

	pub, err := queue.DialRabbitPublisher(cfg.RabbitURL, cfg.RabbitQueue, logger.Component("notifier"))
	if err != nil {
		return nil, nil, err
	}
	return pub, func() { _ = pub.Close() }, nil
}

func readinessChecks(client *drv.Client, rdb *goredis.Client) map[string]handler.Check {
	return map[string]handler.Check{
		"mongodb": func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		},
		"redis": func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		},
	}
}
