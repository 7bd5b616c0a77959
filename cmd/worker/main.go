package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/streamcanvas/backend/internal/config"
	"github.com/streamcanvas/backend/internal/db"
	"github.com/streamcanvas/backend/internal/events"
	"github.com/streamcanvas/backend/internal/fees"
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

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	// Repos
	releaseRepo := repositories.NewReleaseRepo(pool)
	sessionRepo := repositories.NewSessionRepo(pool)
	auditRepo := repositories.NewAuditRepo(pool)

	publisher := events.NewRedisPublisher(rdb, log)

	estimator := &fees.Estimator{
		BaseFee:             cfg.FeeBaseFee,
		ComputeUnitPrice:    cfg.FeeComputeUnitPrice,
		UnitsPerInstruction: cfg.FeeUnitsPerInstruction,
		TolerancePct:        cfg.FeeTolerancePct,
		MaxOverageRatio:     cfg.FeeMaxOverageRatio,
	}

	transactor, err := buildTransactor(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to set up transactor", zap.Error(err))
	}

	processor := services.NewBatchProcessor(releaseRepo, sessionRepo, auditRepo, estimator, transactor, publisher, cfg, log)
	processor.Start(ctx)

	log.Info("settlement worker started",
		zap.Duration("batch_interval", cfg.BatchInterval),
		zap.Duration("min_settle_delay", cfg.MinSettleDelay),
		zap.Int("min_batch_size", cfg.MinBatchSize),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info("shutting down worker")
	case <-ctx.Done():
	}

	processor.Stop()
	cancel()
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
