package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/streamcanvas/backend/internal/config"
	"github.com/streamcanvas/backend/internal/fees"
	"github.com/streamcanvas/backend/internal/models"
	"go.uber.org/zap"
)

func newProcessorForTest(queue *fakeQueue, sessions *fakeSessions, tr *fakeTransactor) *BatchProcessor {
	cfg := &config.Config{
		MinSettleDelay: 30 * time.Second,
		MinBatchSize:   3,
		MaxWait:        120 * time.Second,
	}
	return NewBatchProcessor(queue, sessions, &fakeAudit{}, fees.NewEstimator(), tr, &fakePublisher{}, cfg, zap.NewNop())
}

func twoGroupQueue(now time.Time, sessionA, sessionB uuid.UUID) *fakeQueue {
	return &fakeQueue{releases: []models.PendingRelease{
		mkRelease(sessionA, "EQpayer", 0.001, 0.001, 3*time.Minute, now),
		mkRelease(sessionA, "EQpayer", 0.001, 0.001, 3*time.Minute, now),
		mkRelease(sessionA, "EQpayer", 0.001, 0.001, 3*time.Minute, now),
		mkRelease(sessionB, "EQpayer", 0.001, 0.001, 2*time.Minute, now),
		mkRelease(sessionB, "EQpayer", 0.001, 0.001, 2*time.Minute, now),
		mkRelease(sessionB, "EQpayer", 0.001, 0.001, 2*time.Minute, now),
	}}
}

func TestProcessNowSettlesReadyGroups(t *testing.T) {
	now := time.Now()
	sessionA, sessionB := uuid.New(), uuid.New()
	queue := twoGroupQueue(now, sessionA, sessionB)
	sessions := &fakeSessions{sessions: map[uuid.UUID]*models.Session{
		sessionA: {ID: sessionA, StreamerWallet: "EQstreamerA"},
		sessionB: {ID: sessionB, StreamerWallet: "EQstreamerB"},
	}}
	tr := &fakeTransactor{balance: 1, fee: 0.000006}

	report := newProcessorForTest(queue, sessions, tr).ProcessNow(context.Background())

	if report.Skipped {
		t.Fatal("run reported skipped")
	}
	if report.GroupsSettled != 2 || report.GroupsFailed != 0 {
		t.Fatalf("settled/failed = %d/%d, want 2/0", report.GroupsSettled, report.GroupsFailed)
	}
	if len(tr.sends) != 2 {
		t.Fatalf("sends = %d, want one per group", len(tr.sends))
	}
	// Only the streamer share leaves the wallet.
	if !near(tr.sends[0].amount, 0.003) || !near(tr.sends[1].amount, 0.003) {
		t.Errorf("send amounts = %v/%v, want 0.003 each", tr.sends[0].amount, tr.sends[1].amount)
	}
	if len(queue.settled) != 2 {
		t.Errorf("committed %d batches, want 2", len(queue.settled))
	}
	if !near(report.AmountPaid, 0.006) {
		t.Errorf("AmountPaid = %v, want 0.006", report.AmountPaid)
	}
}

func TestProcessNowDeductsSpendAfterCommitFailure(t *testing.T) {
	now := time.Now()
	sessionA, sessionB := uuid.New(), uuid.New()
	queue := twoGroupQueue(now, sessionA, sessionB)
	queue.settleErr = errors.New("db down")
	sessions := &fakeSessions{sessions: map[uuid.UUID]*models.Session{
		sessionA: {ID: sessionA, StreamerWallet: "EQstreamerA"},
		sessionB: {ID: sessionB, StreamerWallet: "EQstreamerB"},
	}}
	// Enough for one group's transfer plus fees, not two.
	tr := &fakeTransactor{balance: 0.009, fee: 0.000006}

	report := newProcessorForTest(queue, sessions, tr).ProcessNow(context.Background())

	// The first group's transfer left the wallet even though its commit
	// failed; the second group must validate against the reduced balance
	// and defer instead of spending money that is no longer there.
	if len(tr.sends) != 1 {
		t.Fatalf("sends = %d, want 1 (second group deferred on balance)", len(tr.sends))
	}
	if report.GroupsSettled != 0 || report.GroupsFailed != 2 {
		t.Errorf("settled/failed = %d/%d, want 0/2", report.GroupsSettled, report.GroupsFailed)
	}
	if len(queue.settled) != 0 {
		t.Errorf("committed %d batches, want 0", len(queue.settled))
	}
}

func TestProcessNowYoungSmallGroupWaits(t *testing.T) {
	now := time.Now()
	session := uuid.New()
	queue := &fakeQueue{releases: []models.PendingRelease{
		mkRelease(session, "EQpayer", 0.001, 0.001, time.Minute, now),
		mkRelease(session, "EQpayer", 0.001, 0.001, time.Minute, now),
	}}
	sessions := &fakeSessions{sessions: map[uuid.UUID]*models.Session{
		session: {ID: session, StreamerWallet: "EQstreamer"},
	}}
	tr := &fakeTransactor{balance: 1, fee: 0.000006}

	report := newProcessorForTest(queue, sessions, tr).ProcessNow(context.Background())

	if len(tr.sends) != 0 {
		t.Errorf("below-minimum group settled: %d sends", len(tr.sends))
	}
	if report.GroupsTotal != 1 || report.GroupsSettled != 0 || report.GroupsFailed != 0 {
		t.Errorf("report = %+v, want one group neither settled nor failed", report)
	}
}
