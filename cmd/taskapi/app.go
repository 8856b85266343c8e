package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/taskapi/internal/auth"
	"github.com/redmonkez12/taskapi/internal/config"
	"github.com/redmonkez12/taskapi/internal/database"
	httpServer "github.com/redmonkez12/taskapi/internal/http"
	"github.com/redmonkez12/taskapi/internal/logging"
	"github.com/redmonkez12/taskapi/internal/task"
	"github.com/redmonkez12/taskapi/internal/user"
)

// app holds the wired service and the resources it must release.
type app struct {
	server *httpServer.Server
	db     *bun.DB
	redis  *redis.Client
}

func newApp(ctx context.Context, cfg *config.Config, logger *logging.Logger, autoMigrate bool) (*app, error) {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a := &app{db: db}

	if autoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
	}

	userRepo := user.NewRepository(db)

	// The identity cache is optional; without Redis the gate reads the store.
	var identities auth.CredentialStore = userRepo
	if cfg.Redis.Enabled() {
		client, err := initRedis(ctx, cfg.Redis)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize Redis: %w", err)
		}
		a.redis = client
		identities = user.NewCachingRepository(userRepo, user.NewRedisCache(client, cfg.Auth.IdentityCacheTTL), logger)
		logger.Info("identity cache enabled", "addr", cfg.Redis.Address(), "ttl", cfg.Auth.IdentityCacheTTL.String())
	}

	tokenService, err := newTokenService(cfg.Auth)
	if err != nil {
		a.Close()
		return nil, err
	}

	hasher, err := auth.NewPasswordHasher(cfg.Auth.HashAlgorithm, cfg.Auth.BcryptCost)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize password hasher: %w", err)
	}

	authService := auth.NewService(identities, hasher, tokenService, logger, cfg.Auth.TokenDuration)
	taskService := task.NewService(task.NewRepository(db), logger)

	router := httpServer.NewRouter(cfg, httpServer.Handlers{
		Auth:           auth.NewHandler(authService),
		AuthMiddleware: auth.NewMiddleware(tokenService, identities),
		Tasks:          task.NewHandler(taskService),
	}, logger)

	a.server = httpServer.NewServer(
		":"+cfg.Server.Port,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)
	return a, nil
}

func (a *app) Close() {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

// newTokenService builds the issuer/verifier for the configured strategy.
func newTokenService(cfg config.AuthConfig) (auth.TokenService, error) {
	switch cfg.TokenStrategy {
	case config.TokenStrategyPaseto:
		svc, err := auth.NewPasetoService(cfg.PasetoKey)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PASETO service: %w", err)
		}
		return svc, nil
	default:
		svc, err := auth.NewJWTService(cfg.JWTSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
		}
		return svc, nil
	}
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
