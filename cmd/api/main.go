package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/streamcanvas/backend/internal/config"
	"github.com/streamcanvas/backend/internal/db"
	"github.com/streamcanvas/backend/internal/events"
	"github.com/streamcanvas/backend/internal/fees"
	apphttp "github.com/streamcanvas/backend/internal/http"
	"github.com/streamcanvas/backend/internal/http/handlers"
	"github.com/streamcanvas/backend/internal/repositories"
	"github.com/streamcanvas/backend/internal/services"
	"github.com/streamcanvas/backend/internal/ton"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, pool, "migrations", log); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis
	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repositories
	escrowRepo := repositories.NewEscrowRepo(pool)
	releaseRepo := repositories.NewReleaseRepo(pool)
	earningsRepo := repositories.NewEarningsRepo(pool)
	sessionRepo := repositories.NewSessionRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	// Events
	publisher := events.NewRedisPublisher(rdb, log)
	subscriber := events.NewRedisSubscriber(rdb, log)

	// Fee model
	estimator := &fees.Estimator{
		BaseFee:             cfg.FeeBaseFee,
		ComputeUnitPrice:    cfg.FeeComputeUnitPrice,
		UnitsPerInstruction: cfg.FeeUnitsPerInstruction,
		TolerancePct:        cfg.FeeTolerancePct,
		MaxOverageRatio:     cfg.FeeMaxOverageRatio,
	}

	// Payout transactor
	transactor, err := buildTransactor(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to set up transactor", zap.Error(err))
	}

	// Services
	escrowService := services.NewEscrowService(escrowRepo, sessionRepo, auditRepo, estimator, publisher, cfg, log)
	earningsService := services.NewEarningsService(earningsRepo, auditRepo, estimator, transactor, publisher, cfg, log)
	processor := services.NewBatchProcessor(releaseRepo, sessionRepo, auditRepo, estimator, transactor, publisher, cfg, log)

	// Handlers
	escrowHandler := handlers.NewEscrowHandler(escrowService, log)
	earningsHandler := handlers.NewEarningsHandler(earningsService, log)
	sessionHandler := handlers.NewSessionHandler(sessionRepo, log)
	settlementHandler := handlers.NewSettlementHandler(processor, releaseRepo, log)
	auditHandler := handlers.NewAuditHandler(auditRepo, log)
	wsHub := handlers.NewWSHub(cfg, subscriber, log)

	// Start WS hub
	wsHub.Start(ctx)

	// Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	apphttp.SetupRouter(app, cfg, log, rdb, escrowHandler, earningsHandler, sessionHandler, settlementHandler, auditHandler, wsHub)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")
		cancel()
		_ = app.Shutdown()
	}()

	addr := fmt.Sprintf(":%s", cfg.APIPort)
	log.Info("starting API server", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}

func buildTransactor(ctx context.Context, cfg *config.Config, log *zap.Logger) (ton.Transactor, error) {
	if cfg.SettlementMode == config.SettlementModeSim {
		log.Warn("settlement mode is sim, no real transfers will be sent")
		return ton.NewSimTransactor(cfg.FeeBaseFee, log), nil
	}

	api, err := ton.Connect(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return ton.NewWalletTransactor(ctx, api, cfg.TONHotWalletSeed, cfg.SendTimeout, log)
}
