package dto

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type RefundResponse struct {
	RefundAmount float64 `json:"refund_amount"`
}

type PendingQueueResponse struct {
	PendingCount int `json:"pending_count"`
}
