package fees

import (
	"math"
	"testing"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-12
}

func TestEstimate(t *testing.T) {
	e := NewEstimator()

	tests := []struct {
		name         string
		instructions int
		wantCompute  float64
	}{
		{"single instruction", 1, DefaultComputeUnitPrice * 1 * DefaultUnitsPerInstruction},
		{"five instructions", 5, DefaultComputeUnitPrice * 5 * DefaultUnitsPerInstruction},
		{"zero instructions", 0, 0},
		{"negative clamped", -3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			est := e.Estimate(tt.instructions)
			if est.BaseFee != DefaultBaseFee {
				t.Errorf("BaseFee = %v, want %v", est.BaseFee, DefaultBaseFee)
			}
			if !approxEqual(est.ComputeFee, tt.wantCompute) {
				t.Errorf("ComputeFee = %v, want %v", est.ComputeFee, tt.wantCompute)
			}
			if !approxEqual(est.TotalFee, est.BaseFee+est.ComputeFee) {
				t.Errorf("TotalFee = %v, want base+compute = %v", est.TotalFee, est.BaseFee+est.ComputeFee)
			}
		})
	}
}

func TestEstimateWithTolerance(t *testing.T) {
	e := NewEstimator()
	est := e.EstimateWithTolerance(3)

	wantMin := est.TotalFee * (1 - DefaultTolerancePct)
	wantMax := est.TotalFee * (1 + DefaultTolerancePct)
	if !approxEqual(est.Tolerance.Min, wantMin) || !approxEqual(est.Tolerance.Max, wantMax) {
		t.Errorf("tolerance = [%v, %v], want [%v, %v]", est.Tolerance.Min, est.Tolerance.Max, wantMin, wantMax)
	}
}

func TestIsFeeAcceptable(t *testing.T) {
	e := NewEstimator()

	tests := []struct {
		name      string
		estimated float64
		actual    float64
		want      bool
	}{
		{"exact match", 0.001, 0.001, true},
		{"under estimate", 0.001, 0.0005, true},
		{"just under the ceiling", 0.001, 0.00109, true},
		{"over the ceiling", 0.001, 0.00111, false},
		{"way over", 0.001, 0.01, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.IsFeeAcceptable(tt.estimated, tt.actual); got != tt.want {
				t.Errorf("IsFeeAcceptable(%v, %v) = %v, want %v", tt.estimated, tt.actual, got, tt.want)
			}
		})
	}
}

func TestReconcileConservation(t *testing.T) {
	e := NewEstimator()

	// Zero variance: actual == estimated. The streamer's adjusted amount
	// plus their fee share must add back to the original amount.
	r := e.Reconcile(0.001, 0.001, 0.0000055, 0.0000055)

	if !approxEqual(r.AdjustedStreamerAmount+r.StreamerFeeShare, 0.001) {
		t.Errorf("streamer conservation broken: %v + %v != 0.001", r.AdjustedStreamerAmount, r.StreamerFeeShare)
	}
	if !approxEqual(r.AdjustedPlatformAmount+r.PlatformFeeShare, 0.001) {
		t.Errorf("platform conservation broken: %v + %v != 0.001", r.AdjustedPlatformAmount, r.PlatformFeeShare)
	}
	if !approxEqual(r.Variance, 0) {
		t.Errorf("variance = %v, want 0", r.Variance)
	}
	if !approxEqual(r.FeesDeducted, 0.0000055) {
		t.Errorf("FeesDeducted = %v, want actual fee", r.FeesDeducted)
	}
}

func TestReconcileProportionalSplit(t *testing.T) {
	e := NewEstimator()

	// 3:1 split, streamer carries 75% of the fee.
	r := e.Reconcile(0.003, 0.001, 0.0004, 0.0005)

	if !approxEqual(r.StreamerFeeShare, 0.0003) {
		t.Errorf("StreamerFeeShare = %v, want 0.0003", r.StreamerFeeShare)
	}
	if !approxEqual(r.PlatformFeeShare, 0.0001) {
		t.Errorf("PlatformFeeShare = %v, want 0.0001", r.PlatformFeeShare)
	}
	if r.Variance >= 0 {
		t.Errorf("variance = %v, want negative (actual below estimate)", r.Variance)
	}
}

func TestReconcileZeroTotal(t *testing.T) {
	e := NewEstimator()
	r := e.Reconcile(0, 0, 0.0001, 0.0001)
	if r.StreamerFeeShare != 0 || r.PlatformFeeShare != 0 {
		t.Errorf("zero amounts must carry no fee share, got %v / %v", r.StreamerFeeShare, r.PlatformFeeShare)
	}
}

func TestValidateSufficientBalance(t *testing.T) {
	tests := []struct {
		name     string
		balance  float64
		transfer float64
		fees     float64
		want     bool
	}{
		{"plenty", 1.0, 0.5, 0.001, true},
		{"exact", 0.75, 0.5, 0.25, true},
		{"short", 0.5, 0.5, 0.001, false},
		{"empty wallet", 0, 0.01, 0.001, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateSufficientBalance(tt.balance, tt.transfer, tt.fees); got != tt.want {
				t.Errorf("ValidateSufficientBalance(%v, %v, %v) = %v, want %v",
					tt.balance, tt.transfer, tt.fees, got, tt.want)
			}
		})
	}
}
