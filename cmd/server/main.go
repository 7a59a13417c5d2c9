package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/gowallet/internal/adapter/http"
	"github.com/iho/gowallet/internal/adapter/http/handler"
	"github.com/iho/gowallet/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/gowallet/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/gowallet/internal/adapter/repository/redis"
	"github.com/iho/gowallet/internal/infrastructure/auth"
	"github.com/iho/gowallet/internal/infrastructure/broadcast"
	"github.com/iho/gowallet/internal/infrastructure/config"
	"github.com/iho/gowallet/internal/infrastructure/logger"
	"github.com/iho/gowallet/internal/infrastructure/metrics"
	"github.com/iho/gowallet/internal/infrastructure/postgres"
	"github.com/iho/gowallet/internal/infrastructure/redis"
	"github.com/iho/gowallet/internal/usecase"
)

const rateLimiterEvictInterval = 10 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Logger = logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "gowallet"})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log.Logger); err != nil {
		log.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	if cfg.AutoMigrate {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			return err
		}
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	logger.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	logger.Info().Msg("connected to redis")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	publisher, closer, err := newPublisher(cfg, redisClient, logger)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	dispatcher := broadcast.NewDispatcher(broadcast.Config{
		Publisher:  publisher,
		Logger:     logger,
		Recorder:   m,
		BufferSize: cfg.BroadcastBuffer,
	})

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	balanceLedger := postgresRepo.NewBalanceLedgerRepository(pool)
	commissionLedger := postgresRepo.NewCommissionLedgerRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	eventRepo := postgresRepo.NewEventRepository(pool)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	cache := redisRepo.NewCache(redisClient)
	idGen := postgresRepo.NewULIDGenerator()
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)

	// Initialize use cases
	recorder := usecase.NewEventRecorder(eventRepo)
	uow := usecase.NewUnitOfWork(txManager, logger)
	accountUC := usecase.NewAccountUseCase(accountRepo, jwtManager)
	transferUC := usecase.NewTransferUseCase(uow, accountRepo, transactionRepo, balanceLedger, commissionLedger,
		recorder, dispatcher, idGen, m, logger)
	queryUC := usecase.NewTransactionQueryUseCase(transactionRepo, accountRepo, balanceLedger, commissionLedger,
		recorder, cache, cfg.HistoryCacheTTL, logger)
	reconciliationUC := usecase.NewReconciliationUseCase(accountRepo, balanceLedger, ledgerRepo)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).OnLimit(m.RateLimited)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AuthHandler:        handler.NewAuthHandler(accountUC),
		TransactionHandler: handler.NewTransactionHandler(transferUC, queryUC, logger),
		LedgerHandler:      handler.NewLedgerHandler(reconciliationUC),
		HealthHandler: handler.NewHealthHandler(pool, handler.PingFunc(func(ctx context.Context) error {
			return redis.Ping(ctx, redisClient)
		})),
		Tokens:           jwtManager,
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      rateLimiter,
		Metrics:          m,
		MetricsHandler:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		CORSOrigins:      cfg.CORSAllowedOrigins,
		Logger:           logger,
	})

	server := newHTTPServer(cfg, router)
	logger.Info().Str("port", cfg.HTTPPort).Msg("http server configured")

	return serve(ctx, logger, server, cfg.HTTPShutdownTimeout, dispatcher.Start, func(ctx context.Context) error {
		return rateLimiter.Run(ctx, rateLimiterEvictInterval)
	})
}

type httpServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// serve runs the HTTP server next to the broadcast worker and the limiter janitor.
// The worker outlives the server: it is stopped only after Shutdown has let
// in-flight requests finish, so their after-commit notifications are delivered.
func serve(
	ctx context.Context,
	logger zerolog.Logger,
	server httpServer,
	shutdownTimeout time.Duration,
	worker func(context.Context) error,
	janitor func(context.Context) error,
) error {
	workerCtx, stopWorker := context.WithCancel(context.WithoutCancel(ctx))
	defer stopWorker()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		defer stopWorker()
		logger.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return ignoreCanceled(worker(workerCtx))
	})

	g.Go(func() error {
		return ignoreCanceled(janitor(gctx))
	})

	return g.Wait()
}

// newPublisher selects the broadcast driver. The returned closer may be nil.
func newPublisher(cfg *config.Config, client goredis.UniversalClient, logger zerolog.Logger) (broadcast.Publisher, io.Closer, error) {
	switch strings.ToLower(cfg.BroadcastDriver) {
	case broadcast.DriverRedis:
		return broadcast.NewRedisPublisher(client), nil, nil
	case broadcast.DriverAMQP:
		pub, err := broadcast.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to amqp: %w", err)
		}
		return pub, pub, nil
	case broadcast.DriverLog, "":
		return broadcast.NewLogPublisher(logger), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown broadcast driver %q", cfg.BroadcastDriver)
	}
}

func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           h,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
