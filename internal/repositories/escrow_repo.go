package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/streamcanvas/backend/internal/models"
)

const escrowColumns = `
	id, session_id, user_wallet, total_tokens_purchased, tokens_used, tokens_remaining,
	total_amount_paid, amount_released, fees_deducted, escrow_wallet, purchase_type,
	status, created_at, updated_at`

type EscrowRepo struct {
	pool *pgxpool.Pool
}

func NewEscrowRepo(pool *pgxpool.Pool) *EscrowRepo {
	return &EscrowRepo{pool: pool}
}

func scanEscrow(row pgx.Row, e *models.Escrow) error {
	return row.Scan(
		&e.ID, &e.SessionID, &e.UserWallet, &e.TotalTokensPurchased, &e.TokensUsed, &e.TokensRemaining,
		&e.TotalAmountPaid, &e.AmountReleased, &e.FeesDeducted, &e.EscrowWallet, &e.PurchaseType,
		&e.Status, &e.CreatedAt, &e.UpdatedAt,
	)
}

func (r *EscrowRepo) Create(ctx context.Context, e *models.Escrow) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO escrows (
			session_id, user_wallet, total_tokens_purchased, tokens_used, tokens_remaining,
			total_amount_paid, amount_released, fees_deducted, escrow_wallet, purchase_type, status
		) VALUES ($1, $2, $3, 0, $3, $4, 0, 0, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, e.SessionID, e.UserWallet, e.TotalTokensPurchased, e.TotalAmountPaid,
		e.EscrowWallet, e.PurchaseType, models.EscrowStatusActive,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

func (r *EscrowRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Escrow, error) {
	var e models.Escrow
	err := scanEscrow(r.pool.QueryRow(ctx, `
		SELECT `+escrowColumns+` FROM escrows WHERE id = $1
	`, id), &e)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetActive returns the most recent active escrow for a (session, payer)
// pair, or nil when the payer has no open escrow there.
func (r *EscrowRepo) GetActive(ctx context.Context, sessionID uuid.UUID, userWallet string) (*models.Escrow, error) {
	var e models.Escrow
	err := scanEscrow(r.pool.QueryRow(ctx, `
		SELECT `+escrowColumns+`
		FROM escrows
		WHERE session_id = $1 AND user_wallet = $2 AND status = $3
		ORDER BY created_at DESC LIMIT 1
	`, sessionID, userWallet, models.EscrowStatusActive), &e)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ConsumeTokenParams carries the precomputed amounts for one token spend.
type ConsumeTokenParams struct {
	EscrowID       uuid.UUID
	TokenType      string
	TokenValue     float64
	StreamerAmount float64
	PlatformAmount float64
	EstimatedFees  float64
	StreamerWallet string
}

// ConsumeToken applies one token consumption as a single transaction:
// decrement the escrow, enqueue the pending release, and credit the
// earnings ledger plus the session mirror. The escrow update is
// conditional on status and remaining tokens, so two consumers racing
// on the last token resolve in the database: exactly one row update
// succeeds, the other caller gets ErrNoTokensAvailable.
func (r *EscrowRepo) ConsumeToken(ctx context.Context, p ConsumeTokenParams) (*models.Escrow, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var e models.Escrow
	err = scanEscrow(tx.QueryRow(ctx, `
		UPDATE escrows
		SET tokens_used = tokens_used + 1,
		    tokens_remaining = tokens_remaining - 1,
		    amount_released = amount_released + $2,
		    updated_at = now()
		WHERE id = $1 AND status = $3 AND tokens_remaining > 0
		RETURNING `+escrowColumns+`
	`, p.EscrowID, p.TokenValue, models.EscrowStatusActive), &e)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNoTokensAvailable
	}
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO pending_releases (
			escrow_id, session_id, user_wallet, token_type,
			amount_streamer, amount_platform, estimated_fees
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, e.SessionID, e.UserWallet, p.TokenType,
		p.StreamerAmount, p.PlatformAmount, p.EstimatedFees)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO streamer_earnings (session_id, streamer_wallet, total_earned, total_claimed, pending_amount)
		VALUES ($1, $2, $3, 0, $3)
		ON CONFLICT (session_id, streamer_wallet) DO UPDATE SET
			total_earned = streamer_earnings.total_earned + EXCLUDED.total_earned,
			pending_amount = streamer_earnings.pending_amount + EXCLUDED.pending_amount,
			updated_at = now()
	`, e.SessionID, p.StreamerWallet, p.StreamerAmount)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE sessions
		SET total_earnings = total_earnings + $2,
		    pending_earnings = pending_earnings + $2,
		    updated_at = now()
		WHERE id = $1
	`, e.SessionID, p.StreamerAmount)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &e, nil
}

// Refund flips an active escrow with unused tokens to refunded and
// returns it. A nil escrow with nil error means the refund was a no-op
// (already refunded, closed, or exhausted).
func (r *EscrowRepo) Refund(ctx context.Context, id uuid.UUID) (*models.Escrow, error) {
	var e models.Escrow
	err := scanEscrow(r.pool.QueryRow(ctx, `
		UPDATE escrows
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3 AND tokens_remaining > 0
		RETURNING `+escrowColumns+`
	`, id, models.EscrowStatusRefunded, models.EscrowStatusActive), &e)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}
