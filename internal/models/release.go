package models

import (
	"time"

	"github.com/google/uuid"
)

// PendingRelease is a queued settlement obligation produced by a single
// token consumption. Rows are append-only: they are created when a token
// is spent and deleted only by a successful batch payout, never mutated.
type PendingRelease struct {
	ID             uuid.UUID `json:"id"`
	EscrowID       uuid.UUID `json:"escrow_id"`
	SessionID      uuid.UUID `json:"session_id"`
	UserWallet     string    `json:"user_wallet"`
	TokenType      string    `json:"token_type"`
	AmountStreamer float64   `json:"amount_streamer"`
	AmountPlatform float64   `json:"amount_platform"`
	EstimatedFees  float64   `json:"estimated_fees"`
	CreatedAt      time.Time `json:"created_at"`
}

// Age is how long the obligation has been waiting for settlement.
func (r *PendingRelease) Age(now time.Time) time.Duration {
	return now.Sub(r.CreatedAt)
}
