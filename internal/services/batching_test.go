package services

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/streamcanvas/backend/internal/models"
)

func mkRelease(sessionID uuid.UUID, wallet string, streamer, platform float64, age time.Duration, now time.Time) models.PendingRelease {
	return models.PendingRelease{
		ID:             uuid.New(),
		EscrowID:       uuid.New(),
		SessionID:      sessionID,
		UserWallet:     wallet,
		TokenType:      "paint",
		AmountStreamer: streamer,
		AmountPlatform: platform,
		EstimatedFees:  0.0000055,
		CreatedAt:      now.Add(-age),
	}
}

func TestGroupReleases(t *testing.T) {
	now := time.Now()
	sessionA := uuid.New()
	sessionB := uuid.New()

	releases := []models.PendingRelease{
		mkRelease(sessionA, "wallet1", 0.001, 0.001, 3*time.Minute, now),
		mkRelease(sessionA, "wallet1", 0.001, 0.001, 2*time.Minute, now),
		mkRelease(sessionA, "wallet2", 0.002, 0.002, 1*time.Minute, now),
		mkRelease(sessionB, "wallet1", 0.001, 0.001, 5*time.Minute, now),
	}

	groups := GroupReleases(releases)
	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3", len(groups))
	}

	// Oldest group first.
	if groups[0].Key.SessionID != sessionB {
		t.Errorf("expected oldest group (sessionB) first")
	}

	for _, g := range groups {
		if g.Key.SessionID == sessionA && g.Key.UserWallet == "wallet1" {
			if len(g.Releases) != 2 {
				t.Errorf("sessionA/wallet1 has %d members, want 2", len(g.Releases))
			}
			if math.Abs(g.SumStreamer-0.002) > 1e-12 {
				t.Errorf("SumStreamer = %v, want 0.002", g.SumStreamer)
			}
			if math.Abs(g.TotalTransfer()-0.004) > 1e-12 {
				t.Errorf("TotalTransfer = %v, want 0.004", g.TotalTransfer())
			}
			wantOldest := now.Add(-3 * time.Minute)
			if !g.OldestCreated.Equal(wantOldest) {
				t.Errorf("OldestCreated = %v, want %v", g.OldestCreated, wantOldest)
			}
		}
	}
}

func TestBatchGroupReady(t *testing.T) {
	now := time.Now()
	session := uuid.New()
	const minBatch = 3
	maxWait := 2 * time.Minute

	tests := []struct {
		name string
		ages []time.Duration
		want bool
	}{
		{"two young members stay queued", []time.Duration{30 * time.Second, 40 * time.Second}, false},
		{"three members settle regardless of age", []time.Duration{10 * time.Second, 15 * time.Second, 20 * time.Second}, true},
		{"single old member settles", []time.Duration{3 * time.Minute}, true},
		{"two members with one past max wait settle", []time.Duration{30 * time.Second, 121 * time.Second}, true},
		{"single member exactly at max wait stays", []time.Duration{2 * time.Minute}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var releases []models.PendingRelease
			for _, age := range tt.ages {
				releases = append(releases, mkRelease(session, "w", 0.001, 0.001, age, now))
			}
			groups := GroupReleases(releases)
			if len(groups) != 1 {
				t.Fatalf("got %d groups, want 1", len(groups))
			}
			if got := groups[0].Ready(now, minBatch, maxWait); got != tt.want {
				t.Errorf("Ready() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplitFees(t *testing.T) {
	now := time.Now()
	session := uuid.New()

	r1 := mkRelease(session, "w", 0.001, 0.001, time.Minute, now)
	r2 := mkRelease(session, "w", 0.001, 0.001, time.Minute, now)
	r3 := mkRelease(session, "w", 0.001, 0.001, time.Minute, now)
	r3.EscrowID = r2.EscrowID // two spends from the same escrow

	shares := SplitFees([]models.PendingRelease{r1, r2, r3}, 0.0003)

	if len(shares) != 2 {
		t.Fatalf("got %d escrow entries, want 2", len(shares))
	}
	if math.Abs(shares[r1.EscrowID]-0.0001) > 1e-12 {
		t.Errorf("single-member escrow share = %v, want 0.0001", shares[r1.EscrowID])
	}
	if math.Abs(shares[r2.EscrowID]-0.0002) > 1e-12 {
		t.Errorf("double-member escrow share = %v, want 0.0002", shares[r2.EscrowID])
	}

	// Shares must add back to the deducted fee.
	var total float64
	for _, v := range shares {
		total += v
	}
	if math.Abs(total-0.0003) > 1e-12 {
		t.Errorf("fee shares sum to %v, want 0.0003", total)
	}
}

func TestSplitFeesEmpty(t *testing.T) {
	if got := SplitFees(nil, 0.01); len(got) != 0 {
		t.Errorf("expected empty map for no releases, got %v", got)
	}
}
