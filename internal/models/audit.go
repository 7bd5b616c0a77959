package models

import (
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	ID         uuid.UUID  `json:"id"`
	ActorType  string     `json:"actor_type"` // user/system/worker
	Action     string     `json:"action"`
	EntityType string     `json:"entity_type"` // escrow/earnings/session/batch
	EntityID   *uuid.UUID `json:"entity_id,omitempty"`
	Meta       any        `json:"meta,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
