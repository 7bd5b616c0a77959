package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/streamcanvas/backend/internal/config"
	"github.com/streamcanvas/backend/internal/events"
	"github.com/streamcanvas/backend/internal/fees"
	"github.com/streamcanvas/backend/internal/models"
	"github.com/streamcanvas/backend/internal/repositories"
	"go.uber.org/zap"
)

type EscrowService struct {
	escrowRepo  EscrowStore
	sessionRepo SessionStore
	auditRepo   AuditTrail
	estimator   *fees.Estimator
	publisher   events.Publisher
	cfg         *config.Config
	log         *zap.Logger
}

func NewEscrowService(
	escrowRepo EscrowStore,
	sessionRepo SessionStore,
	auditRepo AuditTrail,
	estimator *fees.Estimator,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *EscrowService {
	return &EscrowService{
		escrowRepo:  escrowRepo,
		sessionRepo: sessionRepo,
		auditRepo:   auditRepo,
		estimator:   estimator,
		publisher:   publisher,
		cfg:         cfg,
		log:         log,
	}
}

type PurchaseParams struct {
	SessionID    uuid.UUID
	UserWallet   string
	PurchaseType string
	// Tokens/AmountPaid override the catalog when both are set, for
	// payment flows that already settled a custom amount.
	Tokens     int
	AmountPaid float64
}

// Purchase opens a new escrow for a token pack. If the write fails no
// escrow is returned and the caller must not grant any tokens.
func (s *EscrowService) Purchase(ctx context.Context, p PurchaseParams) (*models.Escrow, error) {
	if _, err := s.sessionRepo.GetByID(ctx, p.SessionID); err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	tokens, amount := p.Tokens, p.AmountPaid
	if tokens == 0 || amount == 0 {
		pkg, ok := models.LookupPackage(p.PurchaseType)
		if !ok {
			return nil, fmt.Errorf("unknown purchase type %q", p.PurchaseType)
		}
		tokens, amount = pkg.Tokens, pkg.PriceTON
	}

	escrow := &models.Escrow{
		SessionID:            p.SessionID,
		UserWallet:           p.UserWallet,
		TotalTokensPurchased: tokens,
		TotalAmountPaid:      amount,
		EscrowWallet:         s.cfg.PlatformWallet,
		PurchaseType:         p.PurchaseType,
		Status:               models.EscrowStatusActive,
	}
	if err := s.escrowRepo.Create(ctx, escrow); err != nil {
		return nil, fmt.Errorf("create escrow: %w", err)
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorType:  "user",
		Action:     "escrow_created",
		EntityType: "escrow",
		EntityID:   &escrow.ID,
		Meta: map[string]any{
			"session_id":    p.SessionID.String(),
			"purchase_type": p.PurchaseType,
			"tokens":        tokens,
			"amount_paid":   amount,
		},
	})

	_ = s.publisher.Publish(ctx, events.StreamSettlement, events.Event{
		Type: events.EventTokenPurchased,
		Payload: map[string]any{
			"escrow_id":  escrow.ID.String(),
			"session_id": p.SessionID.String(),
			"tokens":     tokens,
		},
	})

	return escrow, nil
}

// TokenSpend reports the split of one consumed token.
type TokenSpend struct {
	Escrow         *models.Escrow `json:"escrow"`
	StreamerAmount float64        `json:"streamer_amount"`
	PlatformAmount float64        `json:"platform_amount"`
}

// UseToken spends one token from the escrow. The escrow decrement, the
// pending-release enqueue, and the earnings credit land in a single
// storage transaction; on any failure nothing is applied.
func (s *EscrowService) UseToken(ctx context.Context, escrowID uuid.UUID, tokenType string) (*TokenSpend, error) {
	escrow, err := s.escrowRepo.GetByID(ctx, escrowID)
	if err != nil {
		return nil, fmt.Errorf("escrow not found: %w", err)
	}
	if !escrow.CanConsume() {
		return nil, models.ErrNoTokensAvailable
	}

	session, err := s.sessionRepo.GetByID(ctx, escrow.SessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}

	tokenValue := escrow.TokenValue()
	streamerAmount := tokenValue * s.cfg.StreamerSharePct
	platformAmount := tokenValue - streamerAmount
	estimate := s.estimator.Estimate(1)

	updated, err := s.escrowRepo.ConsumeToken(ctx, repositories.ConsumeTokenParams{
		EscrowID:       escrowID,
		TokenType:      tokenType,
		TokenValue:     tokenValue,
		StreamerAmount: streamerAmount,
		PlatformAmount: platformAmount,
		EstimatedFees:  estimate.TotalFee,
		StreamerWallet: session.StreamerWallet,
	})
	if err != nil {
		return nil, err
	}

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorType:  "user",
		Action:     "token_consumed",
		EntityType: "escrow",
		EntityID:   &escrowID,
		Meta: map[string]any{
			"token_type":      tokenType,
			"streamer_amount": streamerAmount,
			"platform_amount": platformAmount,
		},
	})

	_ = s.publisher.Publish(ctx, events.StreamSettlement, events.Event{
		Type: events.EventTokenConsumed,
		Payload: map[string]any{
			"escrow_id":        escrowID.String(),
			"session_id":       escrow.SessionID.String(),
			"token_type":       tokenType,
			"tokens_remaining": updated.TokensRemaining,
		},
	})

	return &TokenSpend{
		Escrow:         updated,
		StreamerAmount: streamerAmount,
		PlatformAmount: platformAmount,
	}, nil
}

// Refund closes out the payer's active escrow in the session and
// returns the amount owed back: unused tokens at the purchase price.
// Returns 0 without error when there is nothing to refund; requests
// against exhausted or already-refunded escrows are expected.
func (s *EscrowService) Refund(ctx context.Context, sessionID uuid.UUID, userWallet string) (float64, error) {
	escrow, err := s.escrowRepo.GetActive(ctx, sessionID, userWallet)
	if err != nil {
		return 0, fmt.Errorf("look up active escrow: %w", err)
	}
	if escrow == nil {
		return 0, nil
	}

	refunded, err := s.escrowRepo.Refund(ctx, escrow.ID)
	if err != nil {
		return 0, fmt.Errorf("refund escrow: %w", err)
	}
	if refunded == nil {
		return 0, nil
	}

	amount := float64(refunded.TokensRemaining) * refunded.TokenValue()

	_ = s.auditRepo.Log(ctx, models.AuditLog{
		ActorType:  "user",
		Action:     "escrow_refunded",
		EntityType: "escrow",
		EntityID:   &refunded.ID,
		Meta: map[string]any{
			"refund_amount":    amount,
			"tokens_remaining": refunded.TokensRemaining,
		},
	})

	_ = s.publisher.Publish(ctx, events.StreamSettlement, events.Event{
		Type: events.EventEscrowRefunded,
		Payload: map[string]any{
			"escrow_id":     refunded.ID.String(),
			"session_id":    sessionID.String(),
			"refund_amount": amount,
		},
	})

	s.log.Info("escrow refunded",
		zap.String("escrow_id", refunded.ID.String()),
		zap.Float64("refund_amount", amount),
	)

	return amount, nil
}

// GetActiveEscrow returns the payer's open escrow in the session, or
// nil when none exists.
func (s *EscrowService) GetActiveEscrow(ctx context.Context, sessionID uuid.UUID, userWallet string) (*models.Escrow, error) {
	return s.escrowRepo.GetActive(ctx, sessionID, userWallet)
}
