package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/streamcanvas/backend/internal/models"
	"github.com/streamcanvas/backend/internal/repositories"
)

// Storage dependencies of the services, satisfied by the pgx
// repositories. Tests substitute in-memory fakes.

type EscrowStore interface {
	Create(ctx context.Context, e *models.Escrow) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Escrow, error)
	GetActive(ctx context.Context, sessionID uuid.UUID, userWallet string) (*models.Escrow, error)
	ConsumeToken(ctx context.Context, p repositories.ConsumeTokenParams) (*models.Escrow, error)
	Refund(ctx context.Context, id uuid.UUID) (*models.Escrow, error)
}

type SessionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error)
}

type EarningsLedger interface {
	BeginClaim(ctx context.Context, streamerWallet string, sessionIDs []uuid.UUID) (repositories.ClaimTx, error)
	Summary(ctx context.Context, streamerWallet string) (*models.EarningsSummary, error)
}

type ReleaseQueue interface {
	ListSettleable(ctx context.Context, cutoff time.Time) ([]models.PendingRelease, error)
	SettleBatch(ctx context.Context, feeByEscrow map[uuid.UUID]float64, releaseIDs []uuid.UUID) error
}

type AuditTrail interface {
	Log(ctx context.Context, entry models.AuditLog) error
}
