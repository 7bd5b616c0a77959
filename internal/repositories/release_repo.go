package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/streamcanvas/backend/internal/models"
)

type ReleaseRepo struct {
	pool *pgxpool.Pool
}

func NewReleaseRepo(pool *pgxpool.Pool) *ReleaseRepo {
	return &ReleaseRepo{pool: pool}
}

const releaseColumns = `
	id, escrow_id, session_id, user_wallet, token_type,
	amount_streamer, amount_platform, estimated_fees, created_at`

// ListSettleable returns pending releases created before the cutoff,
// oldest first. The settle delay exists so consecutive spends can be
// amortized into one transfer.
func (r *ReleaseRepo) ListSettleable(ctx context.Context, cutoff time.Time) ([]models.PendingRelease, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+releaseColumns+`
		FROM pending_releases
		WHERE created_at < $1
		ORDER BY created_at ASC
	`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var releases []models.PendingRelease
	for rows.Next() {
		var pr models.PendingRelease
		if err := rows.Scan(
			&pr.ID, &pr.EscrowID, &pr.SessionID, &pr.UserWallet, &pr.TokenType,
			&pr.AmountStreamer, &pr.AmountPlatform, &pr.EstimatedFees, &pr.CreatedAt,
		); err != nil {
			return nil, err
		}
		releases = append(releases, pr)
	}
	return releases, rows.Err()
}

func (r *ReleaseRepo) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM pending_releases`).Scan(&n)
	return n, err
}

// SettleBatch commits one settled group atomically: every member
// escrow's fees_deducted is incremented by its share, then the settled
// queue rows are deleted. Any failure rolls the whole group back and
// the rows stay queued for a future run.
func (r *ReleaseRepo) SettleBatch(ctx context.Context, feeByEscrow map[uuid.UUID]float64, releaseIDs []uuid.UUID) error {
	if len(releaseIDs) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for escrowID, feeShare := range feeByEscrow {
		if _, err := tx.Exec(ctx, `
			UPDATE escrows
			SET fees_deducted = fees_deducted + $2, updated_at = now()
			WHERE id = $1
		`, escrowID, feeShare); err != nil {
			return fmt.Errorf("apply fee share to escrow %s: %w", escrowID, err)
		}
	}

	tag, err := tx.Exec(ctx, `DELETE FROM pending_releases WHERE id = ANY($1)`, releaseIDs)
	if err != nil {
		return err
	}
	if int(tag.RowsAffected()) != len(releaseIDs) {
		return fmt.Errorf("settled %d of %d queue rows, rolling back", tag.RowsAffected(), len(releaseIDs))
	}

	return tx.Commit(ctx)
}
