package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"quizhub/internal/auth"
	"quizhub/internal/config"
	"quizhub/internal/database"
	"quizhub/internal/handler"
	"quizhub/internal/mail"
	"quizhub/internal/profile"
	"quizhub/internal/quiz"
	"quizhub/internal/server"
	"quizhub/internal/telemetry"
	"quizhub/internal/validation"
	"quizhub/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parsing LOG_LEVEL: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	if format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = lvl

	return zcfg.Build()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reporter, err := telemetry.NewReporter(cfg.SentryDSN, cfg.SentryEnvironment, logger)
	if err != nil {
		return err
	}
	defer reporter.Flush(2 * time.Second)

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	var cookies *auth.SessionStore
	switch cfg.SessionBackend {
	case config.SessionBackendPostgres:
		cookies, err = auth.NewPGStore(db, cfg.OAuth2.RequestTTL, cfg.OAuth2.CleanupInterval, []byte(cfg.SessionSecret))
		if err != nil {
			return err
		}
	default:
		cookies = auth.NewCookieStore(cfg.OAuth2.RequestTTL, []byte(cfg.SessionSecret))
	}
	defer cookies.Close()

	var (
		requests  auth.RequestStore
		redisPing func(context.Context) error
	)
	switch cfg.OAuth2.RequestStore {
	case config.RequestStoreRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parsing REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		defer client.Close()

		store := auth.NewRedisRequestStore(client, cfg.OAuth2.RequestTTL)
		if err := store.Ping(ctx); err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		requests, redisPing = store, store.Ping
	default:
		store := auth.NewMemoryRequestStore(ctx, cfg.OAuth2.RequestTTL, cfg.OAuth2.CleanupInterval, logger)
		defer store.Close()
		requests = store
	}

	users := database.NewUserStore(db)
	tokens := database.NewRefreshTokenStore(db)
	v := validation.New()
	issuer := auth.NewTokenIssuer(cfg.JWT)

	accounts := auth.NewService(users, tokens, issuer, auth.NewPasswordHasher(bcrypt.DefaultCost), v,
		mail.New(cfg.SendGridAPIKey, cfg.MailFrom, logger), logger)
	defer accounts.Wait()

	providers := server.UseProviders(cfg)
	logger.Info("oauth2 providers enabled", zap.Strings("providers", providers))

	var google auth.IDTokenVerifier
	if cfg.OAuth2.GoogleClientID != "" {
		google = auth.NewGoogleVerifier(cfg.OAuth2.GoogleClientID)
	}

	h := handler.New(
		accounts,
		profile.NewService(users, database.NewProfileStore(db), v),
		quiz.NewService(database.NewQuizStore(db), v),
		auth.NewOAuthFlow(requests, cookies, cfg.AllowedRedirectURIs, cfg.OAuth2.RequestTTL),
		google,
		logger,
	)
	h.AddReadinessCheck("database", db.PingContext)
	if redisPing != nil {
		h.AddReadinessCheck("redis", redisPing)
	}

	cleanup := worker.NewTokenCleanupWorker(tokens, cfg.TokenCleanupInterval, logger)
	go cleanup.Start(ctx)
	defer cleanup.Stop()

	if cfg.LogFormat != "console" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv, err := server.New(cfg, h, issuer, logger, reporter)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
