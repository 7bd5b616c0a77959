// Package ton moves funds on the TON network for batch payouts and
// claims. The real wallet transactor and the simulator sit behind one
// interface; which one runs is an explicit configuration choice, never
// a silent fallback, so a simulated settlement is always auditable.
package ton

import "context"

// Receipt reports a completed (or simulated) value transfer.
type Receipt struct {
	TxHash    string  `json:"tx_hash"`
	ActualFee float64 `json:"actual_fee"`
	Simulated bool    `json:"simulated"`
}

// Transactor sends TON from the platform hot wallet.
type Transactor interface {
	// Send transfers amount (in TON) to the destination address. When
	// maxAcceptableFee > 0 and the committed fee exceeds it, Send
	// returns models.ErrFeeTooHigh; callers must not mutate ledger
	// state in that case. Implementations bound the network wait.
	Send(ctx context.Context, to string, amount, maxAcceptableFee float64) (*Receipt, error)

	// Balance returns the hot wallet's spendable balance in TON.
	Balance(ctx context.Context) (float64, error)
}
