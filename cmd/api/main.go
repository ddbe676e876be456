package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/helpermatch/credits-backend/internal/api"
	"github.com/helpermatch/credits-backend/internal/auth"
	"github.com/helpermatch/credits-backend/internal/config"
	"github.com/helpermatch/credits-backend/internal/db"
	"github.com/helpermatch/credits-backend/internal/gateway"
	"github.com/helpermatch/credits-backend/internal/logger"
	"github.com/helpermatch/credits-backend/internal/metrics"
	"github.com/helpermatch/credits-backend/internal/middleware"
	"github.com/helpermatch/credits-backend/internal/repository/postgres"
	"github.com/helpermatch/credits-backend/internal/services"
	"github.com/helpermatch/credits-backend/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if os.Getenv("APP_MIGRATE") == "true" {
		if err := db.RunMigrations(ctx, pool); err != nil {
			log.Error("migrations", "err", err)
			os.Exit(1)
		}
	}

	repos := postgres.NewRepositories(pool)
	wp := worker.NewPool(4)
	defer wp.Stop()

	gw := gateway.NewHTTPClient(cfg.GatewayBaseURL, cfg.GatewaySecret)
	tm := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, 15*time.Minute, 7*24*time.Hour)

	userSvc := services.NewUserService(repos.Users, tm)
	balanceSvc := services.NewBalanceService(repos.CreditAccounts, repos.CreditTransactions)
	purchaseSvc := services.NewPurchaseService(
		repos.Idempotency, repos.CreditAccounts, repos.Payments, repos.LedgerEvents,
		gw, wp, cfg.IdemRetention, nil,
	)
	contactSvc := services.NewContactService(
		repos.Idempotency, repos.CreditAccounts, repos.Payments, repos.LedgerEvents,
		wp, cfg.IdemRetention, nil,
	)

	reaper := services.NewReaper(repos.Idempotency, cfg.ReaperInterval, cfg.ReaperProcessGrace, nil, log)
	reaper.Start(ctx)

	metrics.Init()
	am := middleware.NewAuthMiddleware(tm, cfg.Env)
	r := api.NewRouter(cfg, am, userSvc, balanceSvc, purchaseSvc, contactSvc)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
