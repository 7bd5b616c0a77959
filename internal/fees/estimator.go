// Package fees computes settlement network fee estimates and reconciles
// them against the fees actually charged once a transfer commits.
package fees

// Defaults for the TON hot wallet. Base fee covers the outgoing message
// signature; compute fee scales with the number of transfer instructions
// packed into one transaction.
const (
	DefaultBaseFee             = 0.000005
	DefaultComputeUnitPrice    = 0.0000000025
	DefaultUnitsPerInstruction = 200
	DefaultTolerancePct        = 0.10
	DefaultMaxOverageRatio     = 0.10
)

type Estimator struct {
	BaseFee             float64
	ComputeUnitPrice    float64
	UnitsPerInstruction int
	TolerancePct        float64
	MaxOverageRatio     float64
}

func NewEstimator() *Estimator {
	return &Estimator{
		BaseFee:             DefaultBaseFee,
		ComputeUnitPrice:    DefaultComputeUnitPrice,
		UnitsPerInstruction: DefaultUnitsPerInstruction,
		TolerancePct:        DefaultTolerancePct,
		MaxOverageRatio:     DefaultMaxOverageRatio,
	}
}

type Estimate struct {
	BaseFee    float64 `json:"base_fee"`
	ComputeFee float64 `json:"compute_fee"`
	TotalFee   float64 `json:"total_fee"`
}

// Estimate prices a settlement transaction carrying instructionCount
// transfer instructions.
func (e *Estimator) Estimate(instructionCount int) Estimate {
	if instructionCount < 0 {
		instructionCount = 0
	}
	compute := e.ComputeUnitPrice * float64(instructionCount) * float64(e.UnitsPerInstruction)
	return Estimate{
		BaseFee:    e.BaseFee,
		ComputeFee: compute,
		TotalFee:   e.BaseFee + compute,
	}
}

type ToleranceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type EstimateWithTolerance struct {
	Estimate
	Tolerance ToleranceRange `json:"tolerance_range"`
}

// EstimateWithTolerance wraps Estimate with the ± band used to judge an
// after-the-fact actual fee.
func (e *Estimator) EstimateWithTolerance(instructionCount int) EstimateWithTolerance {
	est := e.Estimate(instructionCount)
	return EstimateWithTolerance{
		Estimate: est,
		Tolerance: ToleranceRange{
			Min: est.TotalFee * (1 - e.TolerancePct),
			Max: est.TotalFee * (1 + e.TolerancePct),
		},
	}
}

// IsFeeAcceptable reports whether the actual fee stays within the
// allowed overage above the estimate.
func (e *Estimator) IsFeeAcceptable(estimated, actual float64) bool {
	return actual <= estimated*(1+e.MaxOverageRatio)
}

// MaxAcceptableFee is the ceiling handed to the transactor for a given
// estimate.
func (e *Estimator) MaxAcceptableFee(estimated float64) float64 {
	return estimated * (1 + e.MaxOverageRatio)
}

// Reconciliation redistributes the actual network fee after settlement.
// The fee is deducted from the already-released gross amounts in
// proportion to each side's share of the pre-fee total, so
// AdjustedStreamerAmount + StreamerFeeShare == the original streamer
// amount.
type Reconciliation struct {
	AdjustedStreamerAmount float64 `json:"adjusted_streamer_amount"`
	AdjustedPlatformAmount float64 `json:"adjusted_platform_amount"`
	StreamerFeeShare       float64 `json:"streamer_fee_share"`
	PlatformFeeShare       float64 `json:"platform_fee_share"`
	FeesDeducted           float64 `json:"fees_deducted"`
	Variance               float64 `json:"variance"`
}

// Reconcile splits the actual fee across the streamer and platform
// amounts. Variance is actual minus estimated and may be negative.
func (e *Estimator) Reconcile(streamerAmount, platformAmount, actualFee, estimatedFee float64) Reconciliation {
	total := streamerAmount + platformAmount

	var streamerShare, platformShare float64
	if total > 0 {
		streamerShare = actualFee * (streamerAmount / total)
		platformShare = actualFee * (platformAmount / total)
	}

	return Reconciliation{
		AdjustedStreamerAmount: streamerAmount - streamerShare,
		AdjustedPlatformAmount: platformAmount - platformShare,
		StreamerFeeShare:       streamerShare,
		PlatformFeeShare:       platformShare,
		FeesDeducted:           actualFee,
		Variance:               actualFee - estimatedFee,
	}
}

// ValidateSufficientBalance is the pre-flight check before a batch send.
func ValidateSufficientBalance(availableBalance, plannedTransfer, estimatedFees float64) bool {
	return availableBalance >= plannedTransfer+estimatedFees
}
