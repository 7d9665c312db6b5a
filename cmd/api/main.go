package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campus-wallet/config"
	httpHandler "campus-wallet/internal/adapter/http/handler"
	pgStorage "campus-wallet/internal/adapter/storage/postgres"
	redisStorage "campus-wallet/internal/adapter/storage/redis"
	"campus-wallet/internal/core/domain"
	"campus-wallet/internal/core/ports"
	"campus-wallet/internal/obs"
	"campus-wallet/internal/service"
	"campus-wallet/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Campus Wallet")

	ctx := context.Background()

	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Repositories
	userRepo := pgStorage.NewUserRepo(pool)
	walletRepo := pgStorage.NewWalletRepo(pool)
	txRepo := pgStorage.NewTransactionRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Core services
	hashSvc := service.NewArgon2HashService()
	tokenSvc := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	metrics := obs.NewMetrics()

	limits := domain.LimitPolicy{
		MinAmount:     domain.Money(cfg.Ledger.MinAmount),
		MaxAmount:     domain.Money(cfg.Ledger.MaxAmount),
		LoadMinAmount: domain.Money(cfg.Ledger.LoadMinAmount),
	}
	fees := domain.FeePolicy{
		FreeDailyTransactions: cfg.Ledger.FreeDailyTransactions,
		Fee:                   domain.Money(cfg.Ledger.TransactionFee),
	}
	loc := cfg.Location()

	// Business services
	authSvc := service.NewAuthService(userRepo, walletRepo, hashSvc, tokenSvc, domain.Money(cfg.Ledger.DailyLimit), log)
	ledgerSvc := service.NewLedgerService(userRepo, walletRepo, txRepo, transactor, limits, fees, loc, metrics, log)
	reportingSvc := service.NewReportingService(userRepo, walletRepo, txRepo, loc, log)
	adminSvc := service.NewAdminService(userRepo, walletRepo, txRepo, log)

	// Infrastructure
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		LedgerSvc:      ledgerSvc,
		ReportingSvc:   reportingSvc,
		AdminSvc:       adminSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Metrics:        metrics,
		Logger:         log,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
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
