package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pix-wallet/config"
	httpHandler "pix-wallet/internal/adapter/http/handler"
	"pix-wallet/internal/adapter/http/middleware"
	"pix-wallet/internal/adapter/messaging/kafka"
	memStorage "pix-wallet/internal/adapter/storage/memory"
	pgStorage "pix-wallet/internal/adapter/storage/postgres"
	redisStorage "pix-wallet/internal/adapter/storage/redis"
	"pix-wallet/internal/core/ports"
	"pix-wallet/internal/service"
	"pix-wallet/pkg/logger"

	"github.com/rs/zerolog"
)

// stores groups the persistence ports for the selected storage driver.
type stores struct {
	wallets      ports.WalletRepository
	walletTxns   ports.WalletTransactionRepository
	pixKeys      ports.PixKeyRepository
	transfers    ports.TransferRepository
	audit        ports.AuditRepository
	transactor   ports.Transactor
	healthChecks []ports.HealthChecker
	close        func()
}

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Str("storage", cfg.Storage.Driver).
		Int("port", cfg.Server.Port).
		Msg("Starting Pix Wallet")

	ctx := context.Background()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer st.close()

	healthCheckers := st.healthChecks

	// Redis backs rate limiting; without it limits are not enforced.
	var rateLimiter ports.RateLimiter
	if cfg.Redis.Enabled {
		rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		log.Info().Msg("Redis connected")

		rateLimiter = redisStorage.NewRateLimitStore(rdb)
		healthCheckers = append(healthCheckers, redisStorage.NewHealthCheck(rdb))
	} else {
		log.Warn().Msg("Redis disabled, rate limiting is off")
	}

	// Transfer lifecycle events
	var publisher ports.TransferEventPublisher = kafka.NopPublisher{}
	if cfg.Kafka.Enabled {
		kp := kafka.NewPublisher(cfg.Kafka, logger.Component(log, "kafka"))
		defer func() {
			if err := kp.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close Kafka publisher")
			}
		}()
		publisher = kp
	}

	// Initialize business services
	ledgerSvc := service.NewLedgerService(st.wallets, st.walletTxns, st.transactor, cfg.Ledger.MaxRetries, logger.Component(log, "ledger"))
	pixKeySvc := service.NewPixKeyService(st.pixKeys, st.wallets, service.NewFormatValidator(), logger.Component(log, "pix_keys"))
	transferSvc := service.NewTransferService(st.transfers, st.wallets, st.pixKeys, publisher, logger.Component(log, "transfers"))
	settlementSvc := service.NewSettlementService(st.transfers, ledgerSvc, st.transactor, publisher, cfg.Ledger.MaxRetries, logger.Component(log, "settlement"))
	webhookTokens := service.NewJWTWebhookTokenService(cfg.Webhook.Secret, cfg.Webhook.Issuer)
	auditSvc := service.NewAuditService(st.audit, logger.Component(log, "audit"))

	// Load OpenAPI spec for Swagger UI
	specBytes, err := os.ReadFile("docs/api/openapi.yaml")
	if err == nil {
		log.Info().Msg("OpenAPI spec loaded for Swagger UI at /swagger")
	} else {
		log.Warn().Err(err).Msg("OpenAPI spec not found, Swagger UI will be unavailable")
	}

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		Ledger:        ledgerSvc,
		PixKeys:       pixKeySvc,
		Transfers:     transferSvc,
		Settlement:    settlementSvc,
		WebhookTokens: webhookTokens,
		RateLimiter:   rateLimiter,
		RateLimit: middleware.RateLimitRule{
			Limit:  int64(cfg.RateLimit.Requests),
			Window: cfg.RateLimit.Window,
		},
		HealthCheckers: healthCheckers,
		AuditSvc:       auditSvc,
		OpenAPISpec:    specBytes,
		Mode:           cfg.Server.Mode,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	if cfg.Storage.Driver == config.StorageMemory {
		s := memStorage.NewStore()
		return &stores{
			wallets:    s.Wallets(),
			walletTxns: s.WalletTransactions(),
			pixKeys:    s.PixKeys(),
			transfers:  s.Transfers(),
			audit:      s.Audit(),
			transactor: s,
			close:      func() {},
		}, nil
	}

	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &stores{
		wallets:      pgStorage.NewWalletRepo(pool),
		walletTxns:   pgStorage.NewWalletTransactionRepo(pool),
		pixKeys:      pgStorage.NewPixKeyRepo(pool),
		transfers:    pgStorage.NewTransferRepo(pool),
		audit:        pgStorage.NewAuditRepo(pool),
		transactor:   pgStorage.NewTransactor(pool),
		healthChecks: []ports.HealthChecker{pgStorage.NewHealthCheck(pool)},
		close:        pool.Close,
	}, nil
}
