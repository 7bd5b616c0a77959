package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/streamcanvas/backend/internal/config"
	"github.com/streamcanvas/backend/internal/events"
	"github.com/streamcanvas/backend/internal/fees"
	"github.com/streamcanvas/backend/internal/models"
	"github.com/streamcanvas/backend/internal/ton"
	"go.uber.org/zap"
)

// BatchProcessor drains the pending-release queue on a fixed-period
// tick, one payout transfer per ready (session, payer) group. A single
// run may be in flight at a time; the guard is scoped to this value, so
// a second process instance would need a distributed lock instead.
type BatchProcessor struct {
	releaseRepo ReleaseQueue
	sessionRepo SessionStore
	auditRepo   AuditTrail
	estimator   *fees.Estimator
	transactor  ton.Transactor
	publisher   events.Publisher
	cfg         *config.Config
	log         *zap.Logger

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewBatchProcessor(
	releaseRepo ReleaseQueue,
	sessionRepo SessionStore,
	auditRepo AuditTrail,
	estimator *fees.Estimator,
	transactor ton.Transactor,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *BatchProcessor {
	return &BatchProcessor{
		releaseRepo: releaseRepo,
		sessionRepo: sessionRepo,
		auditRepo:   auditRepo,
		estimator:   estimator,
		transactor:  transactor,
		publisher:   publisher,
		cfg:         cfg,
		log:         log,
	}
}

// Start launches the recurring settlement loop.
func (p *BatchProcessor) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(1)

	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.cfg.BatchInterval)
		defer ticker.Stop()

		p.log.Info("batch settlement processor started",
			zap.Duration("interval", p.cfg.BatchInterval),
			zap.Int("min_batch_size", p.cfg.MinBatchSize),
			zap.Duration("max_wait", p.cfg.MaxWait),
		)

		for {
			select {
			case <-ticker.C:
				p.ProcessNow(ctx)
			case <-ctx.Done():
				p.log.Info("batch settlement processor stopped")
				return
			}
		}
	}()
}

// Stop halts the loop and waits for an in-flight run to finish.
func (p *BatchProcessor) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

// RunReport summarizes one settlement run.
type RunReport struct {
	Skipped       bool    `json:"skipped"`
	GroupsTotal   int     `json:"groups_total"`
	GroupsSettled int     `json:"groups_settled"`
	GroupsFailed  int     `json:"groups_failed"`
	AmountPaid    float64 `json:"amount_paid"`
	FeesPaid      float64 `json:"fees_paid"`
}

// ProcessNow executes one settlement run. Manual triggers and the
// ticker share the single-flight guard: a run that finds another in
// progress returns immediately with Skipped set.
func (p *BatchProcessor) ProcessNow(ctx context.Context) *RunReport {
	if !p.running.CompareAndSwap(false, true) {
		p.log.Debug("settlement run already in progress, skipping tick")
		return &RunReport{Skipped: true}
	}
	defer p.running.Store(false)

	report := &RunReport{}
	now := time.Now()

	releases, err := p.releaseRepo.ListSettleable(ctx, now.Add(-p.cfg.MinSettleDelay))
	if err != nil {
		p.log.Error("failed to read pending releases", zap.Error(err))
		return report
	}
	if len(releases) == 0 {
		return report
	}

	groups := GroupReleases(releases)
	report.GroupsTotal = len(groups)

	// One balance read per run; planned spends are deducted locally so
	// later groups see what earlier sends consumed.
	balance, err := p.transactor.Balance(ctx)
	if err != nil {
		p.log.Error("failed to read hot wallet balance", zap.Error(err))
		return report
	}

	for i := range groups {
		group := &groups[i]
		if !group.Ready(now, p.cfg.MinBatchSize, p.cfg.MaxWait) {
			continue
		}
		spent, ok := p.settleGroup(ctx, group, balance)
		// spent > 0 whenever the transfer left the wallet, even if the
		// batch commit then failed; later groups must not validate
		// against money that is already gone.
		balance -= spent
		if ok {
			report.GroupsSettled++
			report.AmountPaid += group.SumStreamer
			report.FeesPaid += spent - group.SumStreamer
		} else {
			report.GroupsFailed++
		}
	}

	if report.GroupsSettled > 0 || report.GroupsFailed > 0 {
		p.log.Info("settlement run finished",
			zap.Int("groups_total", report.GroupsTotal),
			zap.Int("groups_settled", report.GroupsSettled),
			zap.Int("groups_failed", report.GroupsFailed),
			zap.Float64("amount_paid", report.AmountPaid),
		)
	}
	return report
}

// settleGroup pays out one ready group. Returns the amount spent from
// the hot wallet (transfer + fee) and whether the group committed. Any
// failure leaves the group's queue rows intact for a future tick.
func (p *BatchProcessor) settleGroup(ctx context.Context, group *BatchGroup, balance float64) (float64, bool) {
	logFields := []zap.Field{
		zap.String("session_id", group.Key.SessionID.String()),
		zap.String("user_wallet", group.Key.UserWallet),
		zap.Int("members", len(group.Releases)),
	}

	session, err := p.sessionRepo.GetByID(ctx, group.Key.SessionID)
	if err != nil {
		p.log.Error("failed to resolve destination session", append(logFields, zap.Error(err))...)
		return 0, false
	}

	estimate := p.estimator.Estimate(len(group.Releases))
	if !fees.ValidateSufficientBalance(balance, group.TotalTransfer(), estimate.TotalFee) {
		// Deferred, not an error: the group retries next tick.
		p.log.Warn("insufficient balance for group, deferring",
			append(logFields,
				zap.Float64("balance", balance),
				zap.Float64("needed", group.TotalTransfer()+estimate.TotalFee),
			)...)
		return 0, false
	}

	// Only the streamer share is transferred; the platform share stays
	// in the hot wallet.
	receipt, err := p.transactor.Send(ctx, session.StreamerWallet,
		group.SumStreamer, p.estimator.MaxAcceptableFee(estimate.TotalFee))
	if err != nil {
		if errors.Is(err, models.ErrFeeTooHigh) {
			p.log.Warn("network fee above tolerance, retrying group later",
				append(logFields, zap.Error(err))...)
		} else {
			p.log.Error("payout transfer failed, retrying group later",
				append(logFields, zap.Error(err))...)
		}
		return 0, false
	}

	rec := p.estimator.Reconcile(group.SumStreamer, group.SumPlatform, receipt.ActualFee, estimate.TotalFee)
	feeByEscrow := SplitFees(group.Releases, rec.FeesDeducted)

	if err := p.releaseRepo.SettleBatch(ctx, feeByEscrow, group.ReleaseIDs()); err != nil {
		p.log.Error("payout sent but batch commit failed, manual reconciliation required",
			append(logFields,
				zap.String("tx_hash", receipt.TxHash),
				zap.Bool("simulated", receipt.Simulated),
				zap.Error(err),
			)...)
		return group.SumStreamer + receipt.ActualFee, false
	}

	_ = p.auditRepo.Log(ctx, models.AuditLog{
		ActorType:  "worker",
		Action:     "batch_settled",
		EntityType: "batch",
		Meta: map[string]any{
			"session_id":   group.Key.SessionID.String(),
			"user_wallet":  group.Key.UserWallet,
			"members":      len(group.Releases),
			"amount_paid":  group.SumStreamer,
			"actual_fee":   receipt.ActualFee,
			"fee_variance": rec.Variance,
			"tx_hash":      receipt.TxHash,
			"simulated":    receipt.Simulated,
		},
	})

	_ = p.publisher.Publish(ctx, events.StreamSettlement, events.Event{
		Type: events.EventBatchSettled,
		Payload: map[string]any{
			"session_id":  group.Key.SessionID.String(),
			"members":     len(group.Releases),
			"amount_paid": group.SumStreamer,
			"tx_hash":     receipt.TxHash,
			"simulated":   receipt.Simulated,
		},
	})

	p.log.Info("group settled",
		append(logFields,
			zap.Float64("amount_paid", group.SumStreamer),
			zap.Float64("actual_fee", receipt.ActualFee),
			zap.Float64("fee_variance", rec.Variance),
			zap.String("tx_hash", receipt.TxHash),
			zap.Bool("simulated", receipt.Simulated),
		)...)

	return group.SumStreamer + receipt.ActualFee, true
}
