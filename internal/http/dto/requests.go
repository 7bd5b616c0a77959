package dto

type PurchaseRequest struct {
	SessionID    string  `json:"session_id"`
	PurchaseType string  `json:"purchase_type"`
	Tokens       int     `json:"tokens,omitempty"`
	AmountPaid   float64 `json:"amount_paid,omitempty"`
}

type UseTokenRequest struct {
	EscrowID  string `json:"escrow_id"`
	TokenType string `json:"token_type"`
}

type RefundRequest struct {
	SessionID string `json:"session_id"`
}

type ClaimRequest struct {
	SessionIDs []string `json:"session_ids,omitempty"`
}

type CreateSessionRequest struct {
	StreamerWallet string `json:"streamer_wallet"`
	Title          string `json:"title"`
}
