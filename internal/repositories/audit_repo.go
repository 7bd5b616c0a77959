package repositories

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/streamcanvas/backend/internal/models"
)

type AuditRepo struct {
	pool *pgxpool.Pool
}

func NewAuditRepo(pool *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{pool: pool}
}

func (r *AuditRepo) Log(ctx context.Context, entry models.AuditLog) error {
	var meta []byte
	if entry.Meta != nil {
		meta, _ = json.Marshal(entry.Meta)
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_log (actor_type, action, entity_type, entity_id, meta)
		VALUES ($1, $2, $3, $4, $5)
	`, entry.ActorType, entry.Action, entry.EntityType, entry.EntityID, meta)
	return err
}

func (r *AuditRepo) GetByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]models.AuditLog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, actor_type, action, entity_type, entity_id, meta, created_at
		FROM audit_log
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`, entityType, entityID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.AuditLog
	for rows.Next() {
		var l models.AuditLog
		var meta []byte
		if err := rows.Scan(&l.ID, &l.ActorType, &l.Action, &l.EntityType, &l.EntityID, &meta, &l.CreatedAt); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			var m map[string]any
			if json.Unmarshal(meta, &m) == nil {
				l.Meta = m
			}
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
