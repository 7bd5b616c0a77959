package events

import "context"

// Event types published on the settlement stream.
const (
	EventTokenPurchased  = "token_purchased"
	EventTokenConsumed   = "token_consumed"
	EventEscrowRefunded  = "escrow_refunded"
	EventBatchSettled    = "batch_settled"
	EventEarningsClaimed = "earnings_claimed"
)

// StreamSettlement is the pub/sub channel settlement events go out on.
const StreamSettlement = "events:settlement"

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
