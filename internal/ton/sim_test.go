package ton

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/streamcanvas/backend/internal/models"
	"go.uber.org/zap"
)

func TestSimTransactorSend(t *testing.T) {
	tr := NewSimTransactor(0.000005, zap.NewNop())

	r, err := tr.Send(context.Background(), "EQDestination", 0.002, 0.00001)
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if !r.Simulated {
		t.Error("simulated receipt must be flagged Simulated")
	}
	if !strings.HasPrefix(r.TxHash, "sim-") {
		t.Errorf("fabricated hash %q should be marked with sim- prefix", r.TxHash)
	}
	if r.ActualFee != 0.000005 {
		t.Errorf("ActualFee = %v, want configured 0.000005", r.ActualFee)
	}
}

func TestSimTransactorFeeTooHigh(t *testing.T) {
	tr := NewSimTransactor(0.001, zap.NewNop())

	_, err := tr.Send(context.Background(), "EQDestination", 0.002, 0.0005)
	if !errors.Is(err, models.ErrFeeTooHigh) {
		t.Fatalf("expected ErrFeeTooHigh, got %v", err)
	}
}

func TestSimTransactorNoCeiling(t *testing.T) {
	tr := NewSimTransactor(0.001, zap.NewNop())

	// maxAcceptableFee of zero means no ceiling.
	if _, err := tr.Send(context.Background(), "EQDestination", 0.002, 0); err != nil {
		t.Fatalf("Send with no ceiling returned error: %v", err)
	}
}

func TestSimTransactorInsufficientBalance(t *testing.T) {
	tr := NewSimTransactor(0.000005, zap.NewNop())

	_, err := tr.Send(context.Background(), "EQDestination", 2_000_000, 0)
	if !errors.Is(err, models.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestSimTransactorContextCancelled(t *testing.T) {
	tr := NewSimTransactor(0.001, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := tr.Send(ctx, "EQDestination", 0.002, 0); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
