package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/streamcanvas/backend/internal/config"
	"github.com/streamcanvas/backend/internal/events"
	"github.com/streamcanvas/backend/internal/fees"
	"github.com/streamcanvas/backend/internal/models"
	"github.com/streamcanvas/backend/internal/ton"
	"go.uber.org/zap"
)

type EarningsService struct {
	earningsRepo EarningsLedger
	auditRepo    AuditTrail
	estimator    *fees.Estimator
	transactor   ton.Transactor
	publisher    events.Publisher
	cfg          *config.Config
	log          *zap.Logger
}

func NewEarningsService(
	earningsRepo EarningsLedger,
	auditRepo AuditTrail,
	estimator *fees.Estimator,
	transactor ton.Transactor,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *EarningsService {
	return &EarningsService{
		earningsRepo: earningsRepo,
		auditRepo:    auditRepo,
		estimator:    estimator,
		transactor:   transactor,
		publisher:    publisher,
		cfg:          cfg,
		log:          log,
	}
}

// Summary aggregates a streamer's lifetime earnings across sessions.
func (s *EarningsService) Summary(ctx context.Context, streamerWallet string) (*models.EarningsSummary, error) {
	return s.earningsRepo.Summary(ctx, streamerWallet)
}

type ClaimResult struct {
	AmountClaimed float64 `json:"amount_claimed"`
	TxHash        string  `json:"tx_hash"`
	Simulated     bool    `json:"simulated"`
	SessionCount  int     `json:"session_count"`
}

// Claim settles the streamer's entire pending balance to zero as one
// direct transfer, outside the batching cadence. Bypassing the batch
// processor trades fee amortization for latency; deliberate, to be
// confirmed with stakeholders.
//
// The claimable rows are row-locked before the transfer is sent, so a
// racing claim for the same streamer waits and then finds nothing
// pending instead of triggering a second payout. If the transfer fails
// the locks release with no ledger row touched. A ledger failure after
// a successful send is logged with the tx hash for operator
// reconciliation.
func (s *EarningsService) Claim(ctx context.Context, streamerWallet string, sessionIDs []uuid.UUID) (*ClaimResult, error) {
	claim, err := s.earningsRepo.BeginClaim(ctx, streamerWallet, sessionIDs)
	if err != nil {
		return nil, fmt.Errorf("lock claimable earnings: %w", err)
	}

	rows := claim.Rows()
	var total float64
	for _, row := range rows {
		total += row.PendingAmount
	}
	if len(rows) == 0 || total <= 0 {
		_ = claim.Rollback(ctx)
		return nil, models.ErrNothingToClaim
	}

	estimate := s.estimator.Estimate(1)
	receipt, err := s.transactor.Send(ctx, streamerWallet, total, s.estimator.MaxAcceptableFee(estimate.TotalFee))
	if err != nil {
		_ = claim.Rollback(ctx)
		return nil, fmt.Errorf("claim transfer: %w", err)
	}

	if err := claim.Commit(ctx); err != nil {
		s.log.Error("claim transfer sent but ledger update failed, manual reconciliation required",
			zap.String("tx_hash", receipt.TxHash),
			zap.String("streamer_wallet", streamerWallet),
			zap.Float64("amount", total),
			zap.Bool("simulated", receipt.Simulated),
			zap.Error(err),
		)
		return nil, fmt.Errorf("apply claim: %w", err)
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorType:  "user",
		Action:     "earnings_claimed",
		EntityType: "earnings",
		Meta: map[string]any{
			"streamer_wallet": streamerWallet,
			"amount":          total,
			"tx_hash":         receipt.TxHash,
			"simulated":       receipt.Simulated,
			"sessions":        len(rows),
		},
	})

	_ = s.publisher.Publish(ctx, events.StreamSettlement, events.Event{
		Type: events.EventEarningsClaimed,
		Payload: map[string]any{
			"streamer_wallet": streamerWallet,
			"amount":          total,
			"tx_hash":         receipt.TxHash,
			"simulated":       receipt.Simulated,
		},
	})

	s.log.Info("earnings claimed",
		zap.String("streamer_wallet", streamerWallet),
		zap.Float64("amount", total),
		zap.Int("sessions", len(rows)),
		zap.String("tx_hash", receipt.TxHash),
		zap.Bool("simulated", receipt.Simulated),
	)

	return &ClaimResult{
		AmountClaimed: total,
		TxHash:        receipt.TxHash,
		Simulated:     receipt.Simulated,
		SessionCount:  len(rows),
	}, nil
}
