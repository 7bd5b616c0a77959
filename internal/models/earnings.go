package models

import (
	"time"

	"github.com/google/uuid"
)

// StreamerEarnings is the per (session, streamer) earnings ledger row.
// TotalEarned == TotalClaimed + PendingAmount holds after every operation.
type StreamerEarnings struct {
	ID             uuid.UUID  `json:"id"`
	SessionID      uuid.UUID  `json:"session_id"`
	StreamerWallet string     `json:"streamer_wallet"`
	TotalEarned    float64    `json:"total_earned"`
	TotalClaimed   float64    `json:"total_claimed"`
	PendingAmount  float64    `json:"pending_amount"`
	LastClaimAt    *time.Time `json:"last_claim_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// CheckBalance verifies the earnings conservation invariant.
func (e *StreamerEarnings) CheckBalance() bool {
	return e.TotalEarned >= 0 && e.TotalClaimed >= 0 && e.PendingAmount >= 0 &&
		almostEqual(e.TotalEarned, e.TotalClaimed+e.PendingAmount)
}

// EarningsSummary is the cross-session aggregate for one streamer.
type EarningsSummary struct {
	StreamerWallet string     `json:"streamer_wallet"`
	TotalEarned    float64    `json:"total_earned"`
	TotalClaimed   float64    `json:"total_claimed"`
	TotalPending   float64    `json:"total_pending"`
	SessionCount   int        `json:"session_count"`
	LastClaimAt    *time.Time `json:"last_claim_at,omitempty"`
}

// almostEqual compares accumulated TON amounts. Ledger math stays well
// above this epsilon (amounts have at most 9 decimal places).
func almostEqual(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
