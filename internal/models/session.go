package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	SessionStatusLive  = "live"
	SessionStatusEnded = "ended"
)

// Session is a streamer's canvas session. The earnings columns mirror the
// sum of the session's StreamerEarnings rows; they are a denormalized read
// path, never an independent source of truth.
type Session struct {
	ID              uuid.UUID  `json:"id"`
	StreamerUserID  uuid.UUID  `json:"streamer_user_id"`
	StreamerWallet  string     `json:"streamer_wallet"`
	Title           string     `json:"title"`
	Status          string     `json:"status"`
	TotalEarnings   float64    `json:"total_earnings"`
	PendingEarnings float64    `json:"pending_earnings"`
	LastClaimAt     *time.Time `json:"last_claim_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
