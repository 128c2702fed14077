package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/situationship/oracle/internal/config"
	"github.com/situationship/oracle/internal/events"
	kafkaevents "github.com/situationship/oracle/internal/events/kafka"
	"github.com/situationship/oracle/internal/fees"
	"github.com/situationship/oracle/internal/handler"
	"github.com/situationship/oracle/internal/logging"
	"github.com/situationship/oracle/internal/middleware"
	"github.com/situationship/oracle/internal/repository"
	"github.com/situationship/oracle/internal/resolver"
	"github.com/situationship/oracle/internal/service"
	"github.com/situationship/oracle/internal/stripeconn"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("oracle-api", cfg.LogLevel, cfg.AppEnv)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	})
	cancel()
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	policy, err := fees.NewPolicy(cfg.PlatformFeeBps)
	if err != nil {
		slog.Error("invalid fee policy", "error", err)
		os.Exit(1)
	}

	var publisher events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := kafkaevents.NewPublisher(cfg.KafkaBrokers, events.TopicOracleEarnings)
		defer kp.Close()
		publisher = kp
		slog.Info("earnings events enabled", "brokers", cfg.KafkaBrokers)
	}

	processor := stripeconn.NewClient(cfg.StripeAPIBase, cfg.StripeAPIKey)
	names := resolver.New(processor, time.Duration(cfg.AccountLookupTimeoutMS)*time.Millisecond)
	ledger := repository.NewLedgerRepository(db)
	earnings := service.NewEarnings(ledger, names, policy, publisher, cfg.ChargeDestinationField)

	webhookHandler := handler.NewWebhookHandler(earnings, cfg.StripeWebhookSecret, time.Duration(cfg.WebhookToleranceS)*time.Second)
	oracleHandler := handler.NewOracleHandler(ledger)
	onboardingHandler := handler.NewOnboardingHandler(processor, cfg.PublicBaseURL)
	checkoutHandler := handler.NewCheckoutHandler(processor, policy, cfg.PublicBaseURL)
	healthHandler := handler.NewHealthHandler(db)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)
	mux.HandleFunc("POST /webhook", webhookHandler.Receive)
	mux.HandleFunc("GET /oracles", oracleHandler.List)
	mux.HandleFunc("GET /oracles/{id}", oracleHandler.Get)
	mux.HandleFunc("GET /create-oracle-account", onboardingHandler.Start)
	mux.HandleFunc("GET /oracle-success", onboardingHandler.Success)
	mux.HandleFunc("POST /checkout", checkoutHandler.Create)

	chain := middleware.Tracing(middleware.Logging(middleware.Recovery(mux)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           chain,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
