package models

import "errors"

// Expected business conditions, surfaced to callers as declined
// operations rather than failures. Storage errors are wrapped pgx
// errors and stay distinguishable from these via errors.Is.
var (
	// ErrNoTokensAvailable: the escrow is not active or has no tokens left.
	ErrNoTokensAvailable = errors.New("no tokens available")

	// ErrNothingToClaim: the streamer has no pending earnings.
	ErrNothingToClaim = errors.New("nothing to claim")

	// ErrFeeTooHigh: the network fee exceeded the acceptable ceiling;
	// the transfer was not applied and the obligation stays queued.
	ErrFeeTooHigh = errors.New("network fee exceeds acceptable maximum")

	// ErrInsufficientBalance: hot wallet cannot cover transfer plus fees.
	ErrInsufficientBalance = errors.New("insufficient hot wallet balance")
)
