package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/taxsuite/tax-filing-backend/internal/api"
	"github.com/taxsuite/tax-filing-backend/internal/config"
	"github.com/taxsuite/tax-filing-backend/internal/provider"
	"github.com/taxsuite/tax-filing-backend/internal/repository"
	"github.com/taxsuite/tax-filing-backend/internal/service"
	"github.com/taxsuite/tax-filing-backend/internal/taxengine"
	"github.com/taxsuite/tax-filing-backend/internal/telemetry"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	if err := telemetry.Init("tax-filing-backend", cfg.OTLPEndpoint); err != nil {
		panic(fmt.Sprintf("Failed to initialize telemetry: %v", err))
	}
	defer telemetry.Shutdown(context.Background())

	telemetry.Logger.Info("Starting Tax Filing Backend")

	// Connect to PostgreSQL
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		telemetry.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	paymentRepo := repository.NewPaymentRepository(db)
	if err := paymentRepo.InitDB(); err != nil {
		telemetry.Logger.Fatal("Failed to initialize payments table", zap.Error(err))
	}
	submissionRepo := repository.NewSubmissionRepository(db)
	if err := submissionRepo.InitDB(); err != nil {
		telemetry.Logger.Fatal("Failed to initialize submissions table", zap.Error(err))
	}
	userRepo := repository.NewUserRepository(db)
	if err := userRepo.InitDB(); err != nil {
		telemetry.Logger.Fatal("Failed to initialize users table", zap.Error(err))
	}

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisURL,
	})

	// Connect to Kafka
	kafkaWriter := &kafka.Writer{
		Addr:     kafka.TCP(cfg.KafkaBrokers),
		Topic:    "payment.state.changed",
		Balancer: &kafka.LeastBytes{},
	}
	defer kafkaWriter.Close()

	// Provider adapters
	cardAdapter := provider.NewCardAdapter(cfg.CardProviderURL, cfg.CardProviderKey, cfg.ProviderTimeout)
	registry := provider.NewRegistry(cardAdapter, provider.NewWalletAdapter())

	orchestrator := service.NewOrchestrator(paymentRepo, registry, redisClient, kafkaWriter,
		cfg.DegradedFallback, cfg.ProviderTimeout)

	if cfg.DegradedFallback {
		telemetry.Logger.Warn("degraded provider fallback is ENABLED; unreachable providers will be recorded as succeeded")
	}

	r := api.NewRouter(api.Deps{
		Orchestrator: orchestrator,
		Payments:     paymentRepo,
		Submissions:  submissionRepo,
		Users:        userRepo,
		Calculator:   taxengine.NewBracketCalculator(),
		JWTSecret:    cfg.JWTSecret,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		telemetry.Logger.Info("Tax Filing Backend starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			telemetry.Logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	telemetry.Logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		telemetry.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	telemetry.Logger.Info("Server exited")
}
