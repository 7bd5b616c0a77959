package services

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/streamcanvas/backend/internal/models"
)

// GroupKey identifies one settlement batch: all obligations a single
// payer created inside a single session.
type GroupKey struct {
	SessionID  uuid.UUID
	UserWallet string
}

// BatchGroup aggregates the pending releases for one GroupKey.
type BatchGroup struct {
	Key           GroupKey
	Releases      []models.PendingRelease
	SumStreamer   float64
	SumPlatform   float64
	SumEstimated  float64
	OldestCreated time.Time
}

// ReleaseIDs lists the member queue rows.
func (g *BatchGroup) ReleaseIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(g.Releases))
	for i, r := range g.Releases {
		ids[i] = r.ID
	}
	return ids
}

// TotalTransfer is the full value owed by the group, streamer and
// platform shares combined. Only the streamer share leaves the wallet;
// the platform share is retained.
func (g *BatchGroup) TotalTransfer() float64 {
	return g.SumStreamer + g.SumPlatform
}

// Ready applies the settlement gate: a group settles once it is large
// enough to amortize the network fee, or once its oldest member has
// waited past maxWait so earnings are not held indefinitely.
func (g *BatchGroup) Ready(now time.Time, minBatchSize int, maxWait time.Duration) bool {
	if len(g.Releases) >= minBatchSize {
		return true
	}
	return now.Sub(g.OldestCreated) > maxWait
}

// GroupReleases buckets queue rows by (session, payer) and sums each
// bucket. Output order is oldest group first, so starved groups settle
// before fresh ones when the wallet balance is tight.
func GroupReleases(releases []models.PendingRelease) []BatchGroup {
	byKey := make(map[GroupKey]*BatchGroup)
	for _, r := range releases {
		key := GroupKey{SessionID: r.SessionID, UserWallet: r.UserWallet}
		g, ok := byKey[key]
		if !ok {
			g = &BatchGroup{Key: key, OldestCreated: r.CreatedAt}
			byKey[key] = g
		}
		g.Releases = append(g.Releases, r)
		g.SumStreamer += r.AmountStreamer
		g.SumPlatform += r.AmountPlatform
		g.SumEstimated += r.EstimatedFees
		if r.CreatedAt.Before(g.OldestCreated) {
			g.OldestCreated = r.CreatedAt
		}
	}

	groups := make([]BatchGroup, 0, len(byKey))
	for _, g := range byKey {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].OldestCreated.Before(groups[j].OldestCreated)
	})
	return groups
}

// SplitFees spreads the reconciled fee equally over the group members,
// accumulated per owning escrow (an escrow with two members in the
// group carries two shares).
func SplitFees(releases []models.PendingRelease, feesDeducted float64) map[uuid.UUID]float64 {
	out := make(map[uuid.UUID]float64, len(releases))
	if len(releases) == 0 {
		return out
	}
	share := feesDeducted / float64(len(releases))
	for _, r := range releases {
		out[r.EscrowID] += share
	}
	return out
}
