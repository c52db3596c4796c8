package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/cashledger/internal/adapter/http"
	"github.com/iho/cashledger/internal/adapter/http/handler"
	"github.com/iho/cashledger/internal/adapter/http/middleware"
	"github.com/iho/cashledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/cashledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/cashledger/internal/adapter/repository/redis"
	"github.com/iho/cashledger/internal/infrastructure/auth"
	"github.com/iho/cashledger/internal/infrastructure/config"
	"github.com/iho/cashledger/internal/infrastructure/eventpublisher"
	"github.com/iho/cashledger/internal/infrastructure/idgen"
	"github.com/iho/cashledger/internal/infrastructure/metrics"
	"github.com/iho/cashledger/internal/infrastructure/postgres"
	"github.com/iho/cashledger/internal/infrastructure/reconciler"
	"github.com/iho/cashledger/internal/infrastructure/redis"
	"github.com/iho/cashledger/internal/infrastructure/retry"
	"github.com/iho/cashledger/internal/usecase"
)

const (
	limiterSweepEvery = time.Minute
	limiterMaxIdle    = 10 * time.Minute
	outboxRetention   = 7 * 24 * time.Hour
)

// app is the wired service: its router plus the background jobs that run
// alongside it.
type app struct {
	router  http.Handler
	jobs    []func(ctx context.Context) error
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func buildApp(ctx context.Context, cfg *config.Config, log zerolog.Logger, reg prometheus.Registerer) (*app, error) {
	a := &app{}
	checks := map[string]handler.Pinger{}
	idGen := idgen.NewULIDGenerator()

	var repos usecase.Repositories
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		repos = memory.New().Repositories(idGen)
		log.Warn().Msg("using in-memory store; data is lost on restart")
	default:
		if cfg.MigrateOnStart {
			if err := postgres.RunMigrations(cfg.DatabaseURL, log); err != nil {
				return nil, err
			}
		}

		pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
			DatabaseURL:    cfg.DatabaseURL,
			MaxConns:       cfg.DatabaseMaxConns,
			MinConns:       cfg.DatabaseMinConns,
			ConnectTimeout: cfg.DatabaseTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		checks["postgres"] = pool
		log.Info().Msg("connected to postgres")

		repos = postgresRepo.NewRepositories(pool, idGen)
	}

	var redisClient *goredis.Client
	if cfg.RedisEnabled {
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		redisClient = client
		a.closers = append(a.closers, func() { client.Close() })
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
		log.Info().Msg("connected to redis")
	}

	m := metrics.New(reg)
	retrier := retry.New(retry.WithMaxAttempts(cfg.LedgerMaxAttempts), retry.WithLogger(log))
	sequenceUC := usecase.NewSequenceUseCase(repos.TxManager, repos.Sequences)

	reconOpts := []usecase.ReconciliationOption{
		usecase.WithDriftRecorder(m),
		usecase.WithLogger(log),
	}
	if redisClient != nil {
		reconOpts = append(reconOpts, usecase.WithAggregateCache(redisRepo.NewCache(redisClient), cfg.AggregateCacheTTL))
	}
	reconUC := usecase.NewReconciliationUseCase(repos.Accounts, repos.Entries, reconOpts...)

	routerCfg := httpAdapter.RouterConfig{
		AccountHandler: handler.NewAccountHandler(usecase.NewAccountUseCase(repos)),
		EntryHandler: handler.NewEntryHandler(
			usecase.NewEntryUseCase(repos.Accounts, repos.Entries),
			usecase.NewLedgerUseCase(repos, sequenceUC, retrier),
		),
		TransferHandler: handler.NewTransferHandler(usecase.NewTransferUseCase(repos, sequenceUC, retrier)),
		SaleHandler:     handler.NewSaleHandler(usecase.NewSaleUseCase(repos, sequenceUC, retrier)),
		SequenceHandler: handler.NewSequenceHandler(sequenceUC),
		LedgerHandler:   handler.NewLedgerHandler(reconUC),
		AuditHandler:    handler.NewAuditHandler(usecase.NewAuditUseCase(repos.Audit)),
		HealthHandler:   handler.NewHealthHandler(checks),
		IdempotencyTTL:  cfg.IdempotencyTTL,
		Logger:          log,
	}
	if redisClient != nil {
		routerCfg.IdempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
	}
	if cfg.AuthEnabled {
		routerCfg.TokenVerifier = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	}
	if cfg.RateLimitRPS > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		routerCfg.RateLimiter = limiter
		a.jobs = append(a.jobs, sweepLimiters(limiter, m))
	}
	a.router = httpAdapter.NewRouter(routerCfg)

	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: repos.Outbox,
		Publisher:  eventpublisher.NewLogPublisher(log),
		Observer:   m,
		Logger:     log,
		Interval:   cfg.OutboxInterval,
		Retention:  outboxRetention,
	})
	a.jobs = append(a.jobs, publisher.Start)

	if cfg.ReconcileEvery > 0 {
		a.jobs = append(a.jobs, reconciler.NewScheduler(reconUC, cfg.ReconcileEvery, m, log).Start)
	}

	return a, nil
}

func sweepLimiters(limiter *middleware.RateLimiter, m *metrics.Metrics) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		ticker := time.NewTicker(limiterSweepEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				m.RateLimitEvictions.Add(float64(limiter.CleanupLimiters(limiterMaxIdle)))
			}
		}
	}
}
