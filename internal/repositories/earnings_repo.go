package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/streamcanvas/backend/internal/models"
)

type EarningsRepo struct {
	pool *pgxpool.Pool
}

func NewEarningsRepo(pool *pgxpool.Pool) *EarningsRepo {
	return &EarningsRepo{pool: pool}
}

const earningsColumns = `
	id, session_id, streamer_wallet, total_earned, total_claimed, pending_amount,
	last_claim_at, created_at, updated_at`

// ClaimTx is an open claim, in the manner of pgx.Tx: the streamer's
// claimable rows stay row-locked until the payout transfer resolves.
// Commit applies the claim; Rollback releases the rows untouched. A
// concurrent claim for the same streamer blocks on the locks and, once
// they release, finds pending_amount already zeroed.
type ClaimTx interface {
	// Rows are the locked earnings rows with a positive pending balance.
	Rows() []models.StreamerEarnings
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type claimTx struct {
	tx   pgx.Tx
	rows []models.StreamerEarnings
}

// BeginClaim opens a claim over the streamer's pending earnings,
// optionally filtered to specific sessions. Rows are selected FOR
// UPDATE so two racing claims serialize in the database; the loser sees
// zero claimable rows instead of paying out a second time.
func (r *EarningsRepo) BeginClaim(ctx context.Context, streamerWallet string, sessionIDs []uuid.UUID) (ClaimTx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT ` + earningsColumns + `
		FROM streamer_earnings
		WHERE streamer_wallet = $1 AND pending_amount > 0`
	args := []any{streamerWallet}
	if len(sessionIDs) > 0 {
		query += ` AND session_id = ANY($2)`
		args = append(args, sessionIDs)
	}
	query += ` ORDER BY created_at ASC FOR UPDATE`

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}

	var out []models.StreamerEarnings
	for rows.Next() {
		var e models.StreamerEarnings
		if err := rows.Scan(
			&e.ID, &e.SessionID, &e.StreamerWallet, &e.TotalEarned, &e.TotalClaimed,
			&e.PendingAmount, &e.LastClaimAt, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			rows.Close()
			_ = tx.Rollback(ctx)
			return nil, err
		}
		out = append(out, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}

	return &claimTx{tx: tx, rows: out}, nil
}

func (c *claimTx) Rows() []models.StreamerEarnings {
	return c.rows
}

// Commit zeroes pending and bumps claimed on every locked row, clears
// the session mirrors, and commits. The update must touch exactly the
// locked rows; anything less rolls the whole claim back, which keeps
// total_earned == total_claimed + pending.
func (c *claimTx) Commit(ctx context.Context) error {
	defer c.tx.Rollback(ctx)

	rowIDs := make([]uuid.UUID, len(c.rows))
	sessionIDs := make([]uuid.UUID, len(c.rows))
	for i, row := range c.rows {
		rowIDs[i] = row.ID
		sessionIDs[i] = row.SessionID
	}

	tag, err := c.tx.Exec(ctx, `
		UPDATE streamer_earnings
		SET total_claimed = total_claimed + pending_amount,
		    pending_amount = 0,
		    last_claim_at = now(),
		    updated_at = now()
		WHERE id = ANY($1) AND pending_amount > 0
	`, rowIDs)
	if err != nil {
		return err
	}
	if int(tag.RowsAffected()) != len(rowIDs) {
		return fmt.Errorf("claim applied to %d of %d rows, rolling back", tag.RowsAffected(), len(rowIDs))
	}

	if _, err := c.tx.Exec(ctx, `
		UPDATE sessions
		SET pending_earnings = 0, last_claim_at = now(), updated_at = now()
		WHERE id = ANY($1)
	`, sessionIDs); err != nil {
		return err
	}

	return c.tx.Commit(ctx)
}

func (c *claimTx) Rollback(ctx context.Context) error {
	return c.tx.Rollback(ctx)
}

// Summary aggregates lifetime earnings for one streamer across sessions.
func (r *EarningsRepo) Summary(ctx context.Context, streamerWallet string) (*models.EarningsSummary, error) {
	s := models.EarningsSummary{StreamerWallet: streamerWallet}
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_earned), 0),
		       COALESCE(SUM(total_claimed), 0),
		       COALESCE(SUM(pending_amount), 0),
		       COUNT(*),
		       MAX(last_claim_at)
		FROM streamer_earnings
		WHERE streamer_wallet = $1
	`, streamerWallet).Scan(&s.TotalEarned, &s.TotalClaimed, &s.TotalPending, &s.SessionCount, &s.LastClaimAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
