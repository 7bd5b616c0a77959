package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	EscrowStatusActive   = "active"
	EscrowStatusClosed   = "closed"
	EscrowStatusRefunded = "refunded"
)

// Escrow tracks one token purchase from payment through full
// consumption or refund.
//
// Invariants (enforced by the storage layer, checked in tests):
//   - TokensUsed + TokensRemaining == TotalTokensPurchased
//   - AmountReleased <= TotalAmountPaid
type Escrow struct {
	ID                   uuid.UUID `json:"id"`
	SessionID            uuid.UUID `json:"session_id"`
	UserWallet           string    `json:"user_wallet"`
	TotalTokensPurchased int       `json:"total_tokens_purchased"`
	TokensUsed           int       `json:"tokens_used"`
	TokensRemaining      int       `json:"tokens_remaining"`
	TotalAmountPaid      float64   `json:"total_amount_paid"`
	AmountReleased       float64   `json:"amount_released"`
	FeesDeducted         float64   `json:"fees_deducted"`
	EscrowWallet         string    `json:"escrow_wallet"`
	PurchaseType         string    `json:"purchase_type"`
	Status               string    `json:"status"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// TokenValue is the gross value of a single token in this escrow.
func (e *Escrow) TokenValue() float64 {
	if e.TotalTokensPurchased == 0 {
		return 0
	}
	return e.TotalAmountPaid / float64(e.TotalTokensPurchased)
}

// RefundAmount is what a refund would return right now: the unused
// tokens at the per-token price. Zero for exhausted or non-active
// escrows; a refund request on those is a no-op, not an error.
func (e *Escrow) RefundAmount() float64 {
	if e.Status != EscrowStatusActive || e.TokensRemaining == 0 {
		return 0
	}
	return float64(e.TokensRemaining) * e.TokenValue()
}

// CanConsume reports whether one more token can be spent from this escrow.
func (e *Escrow) CanConsume() bool {
	return e.Status == EscrowStatusActive && e.TokensRemaining > 0
}

// CheckCounters verifies token-count and released-amount conservation.
func (e *Escrow) CheckCounters() bool {
	return e.TokensUsed >= 0 && e.TokensRemaining >= 0 &&
		e.TokensUsed+e.TokensRemaining == e.TotalTokensPurchased &&
		e.AmountReleased <= e.TotalAmountPaid
}
