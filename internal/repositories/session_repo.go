package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/streamcanvas/backend/internal/models"
)

type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

const sessionColumns = `
	id, streamer_user_id, streamer_wallet, title, status,
	total_earnings, pending_earnings, last_claim_at, created_at, updated_at`

func (r *SessionRepo) Create(ctx context.Context, s *models.Session) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO sessions (streamer_user_id, streamer_wallet, title, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, s.StreamerUserID, s.StreamerWallet, s.Title, s.Status).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

func (r *SessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var s models.Session
	err := r.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+` FROM sessions WHERE id = $1
	`, id).Scan(
		&s.ID, &s.StreamerUserID, &s.StreamerWallet, &s.Title, &s.Status,
		&s.TotalEarnings, &s.PendingEarnings, &s.LastClaimAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE sessions SET status = $2, updated_at = now() WHERE id = $1
	`, id, status)
	return err
}
