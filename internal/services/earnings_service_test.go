package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/streamcanvas/backend/internal/config"
	"github.com/streamcanvas/backend/internal/fees"
	"github.com/streamcanvas/backend/internal/models"
	"go.uber.org/zap"
)

func newEarningsServiceForTest(ledger *fakeLedger, tr *fakeTransactor) *EarningsService {
	return NewEarningsService(ledger, &fakeAudit{}, fees.NewEstimator(), tr, &fakePublisher{}, &config.Config{}, zap.NewNop())
}

func TestClaimSecondCallFindsNothing(t *testing.T) {
	wallet := "EQstreamer"
	ledger := &fakeLedger{rows: []models.StreamerEarnings{
		{ID: uuid.New(), SessionID: uuid.New(), StreamerWallet: wallet, TotalEarned: 0.003, PendingAmount: 0.003},
		{ID: uuid.New(), SessionID: uuid.New(), StreamerWallet: wallet, TotalEarned: 0.002, PendingAmount: 0.002},
	}}
	tr := &fakeTransactor{fee: 0.0000055}
	svc := newEarningsServiceForTest(ledger, tr)

	res, err := svc.Claim(context.Background(), wallet, nil)
	if err != nil {
		t.Fatalf("first claim failed: %v", err)
	}
	if !near(res.AmountClaimed, 0.005) {
		t.Errorf("AmountClaimed = %v, want 0.005", res.AmountClaimed)
	}
	if len(tr.sends) != 1 || !near(tr.sends[0].amount, 0.005) {
		t.Fatalf("sends = %+v, want one transfer of 0.005", tr.sends)
	}

	// The second claim must find nothing pending and move no money.
	_, err = svc.Claim(context.Background(), wallet, nil)
	if !errors.Is(err, models.ErrNothingToClaim) {
		t.Fatalf("second claim: expected ErrNothingToClaim, got %v", err)
	}
	if len(tr.sends) != 1 {
		t.Errorf("second claim sent a transfer: %d sends total", len(tr.sends))
	}
	if ledger.commits != 1 {
		t.Errorf("ledger committed %d times, want 1", ledger.commits)
	}
	for _, row := range ledger.rows {
		if row.PendingAmount != 0 {
			t.Errorf("row %s still pending %v after claim", row.ID, row.PendingAmount)
		}
		if !row.CheckBalance() {
			t.Errorf("row %s violates earnings conservation", row.ID)
		}
	}
}

func TestClaimTransferFailureTouchesNoLedgerRow(t *testing.T) {
	wallet := "EQstreamer"
	ledger := &fakeLedger{rows: []models.StreamerEarnings{
		{ID: uuid.New(), SessionID: uuid.New(), StreamerWallet: wallet, TotalEarned: 0.004, PendingAmount: 0.004},
	}}
	tr := &fakeTransactor{sendErr: errors.New("lite server unreachable")}
	svc := newEarningsServiceForTest(ledger, tr)

	if _, err := svc.Claim(context.Background(), wallet, nil); err == nil {
		t.Fatal("expected error when the transfer fails")
	}
	if ledger.commits != 0 {
		t.Errorf("ledger committed %d times after failed transfer, want 0", ledger.commits)
	}
	if ledger.rollbacks != 1 {
		t.Errorf("claim rolled back %d times, want 1", ledger.rollbacks)
	}
	if !near(ledger.rows[0].PendingAmount, 0.004) {
		t.Errorf("pending = %v after failed transfer, want untouched 0.004", ledger.rows[0].PendingAmount)
	}
}

func TestClaimEmptyLedger(t *testing.T) {
	ledger := &fakeLedger{}
	tr := &fakeTransactor{}
	svc := newEarningsServiceForTest(ledger, tr)

	_, err := svc.Claim(context.Background(), "EQstreamer", nil)
	if !errors.Is(err, models.ErrNothingToClaim) {
		t.Fatalf("expected ErrNothingToClaim, got %v", err)
	}
	if len(tr.sends) != 0 {
		t.Errorf("empty ledger triggered %d sends", len(tr.sends))
	}
}
