package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/streamcanvas/backend/internal/events"
	"github.com/streamcanvas/backend/internal/models"
	"github.com/streamcanvas/backend/internal/repositories"
	"github.com/streamcanvas/backend/internal/ton"
)

// In-memory stand-ins for the storage and network dependencies.

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-12
}

type fakePublisher struct {
	events []events.Event
}

func (p *fakePublisher) Publish(_ context.Context, _ string, event events.Event) error {
	p.events = append(p.events, event)
	return nil
}

type fakeAudit struct {
	entries []models.AuditLog
}

func (a *fakeAudit) Log(_ context.Context, entry models.AuditLog) error {
	a.entries = append(a.entries, entry)
	return nil
}

type sentTransfer struct {
	to     string
	amount float64
	maxFee float64
}

type fakeTransactor struct {
	balance float64
	fee     float64
	sendErr error
	sends   []sentTransfer
}

func (t *fakeTransactor) Send(_ context.Context, to string, amount, maxAcceptableFee float64) (*ton.Receipt, error) {
	if t.sendErr != nil {
		return nil, t.sendErr
	}
	t.sends = append(t.sends, sentTransfer{to: to, amount: amount, maxFee: maxAcceptableFee})
	return &ton.Receipt{TxHash: fmt.Sprintf("tx-%d", len(t.sends)), ActualFee: t.fee, Simulated: true}, nil
}

func (t *fakeTransactor) Balance(_ context.Context) (float64, error) {
	return t.balance, nil
}

type fakeSessions struct {
	sessions map[uuid.UUID]*models.Session
}

func (s *fakeSessions) GetByID(_ context.Context, id uuid.UUID) (*models.Session, error) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s not found", id)
	}
	cp := *session
	return &cp, nil
}

// fakeEscrows holds a single escrow and mirrors the repository's
// consumption contract: the conditional decrement plus the release of
// one token's value.
type fakeEscrows struct {
	escrow   *models.Escrow
	consumed []repositories.ConsumeTokenParams
}

func (f *fakeEscrows) Create(_ context.Context, e *models.Escrow) error {
	e.ID = uuid.New()
	f.escrow = e
	return nil
}

func (f *fakeEscrows) GetByID(_ context.Context, id uuid.UUID) (*models.Escrow, error) {
	if f.escrow == nil || f.escrow.ID != id {
		return nil, fmt.Errorf("escrow %s not found", id)
	}
	cp := *f.escrow
	return &cp, nil
}

func (f *fakeEscrows) GetActive(_ context.Context, sessionID uuid.UUID, userWallet string) (*models.Escrow, error) {
	if f.escrow == nil || f.escrow.SessionID != sessionID || f.escrow.UserWallet != userWallet ||
		f.escrow.Status != models.EscrowStatusActive {
		return nil, nil
	}
	cp := *f.escrow
	return &cp, nil
}

func (f *fakeEscrows) ConsumeToken(_ context.Context, p repositories.ConsumeTokenParams) (*models.Escrow, error) {
	e := f.escrow
	if e == nil || e.ID != p.EscrowID || e.Status != models.EscrowStatusActive || e.TokensRemaining == 0 {
		return nil, models.ErrNoTokensAvailable
	}
	e.TokensUsed++
	e.TokensRemaining--
	e.AmountReleased += p.TokenValue
	f.consumed = append(f.consumed, p)
	cp := *e
	return &cp, nil
}

func (f *fakeEscrows) Refund(_ context.Context, id uuid.UUID) (*models.Escrow, error) {
	e := f.escrow
	if e == nil || e.ID != id || e.Status != models.EscrowStatusActive || e.TokensRemaining == 0 {
		return nil, nil
	}
	e.Status = models.EscrowStatusRefunded
	cp := *e
	return &cp, nil
}

// fakeLedger backs the claim flow: BeginClaim snapshots the rows with a
// positive pending balance, Commit zeroes them, Rollback leaves them be.
type fakeLedger struct {
	rows      []models.StreamerEarnings
	commits   int
	rollbacks int
}

func (l *fakeLedger) BeginClaim(_ context.Context, streamerWallet string, sessionIDs []uuid.UUID) (repositories.ClaimTx, error) {
	var claimable []models.StreamerEarnings
	for _, row := range l.rows {
		if row.StreamerWallet != streamerWallet || row.PendingAmount <= 0 {
			continue
		}
		if len(sessionIDs) > 0 {
			found := false
			for _, sid := range sessionIDs {
				if row.SessionID == sid {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		claimable = append(claimable, row)
	}
	return &fakeClaim{ledger: l, rows: claimable}, nil
}

func (l *fakeLedger) Summary(_ context.Context, streamerWallet string) (*models.EarningsSummary, error) {
	s := models.EarningsSummary{StreamerWallet: streamerWallet}
	for _, row := range l.rows {
		if row.StreamerWallet != streamerWallet {
			continue
		}
		s.TotalEarned += row.TotalEarned
		s.TotalClaimed += row.TotalClaimed
		s.TotalPending += row.PendingAmount
		s.SessionCount++
	}
	return &s, nil
}

type fakeClaim struct {
	ledger *fakeLedger
	rows   []models.StreamerEarnings
}

func (c *fakeClaim) Rows() []models.StreamerEarnings {
	return c.rows
}

func (c *fakeClaim) Commit(_ context.Context) error {
	for _, claimed := range c.rows {
		for i := range c.ledger.rows {
			if c.ledger.rows[i].ID == claimed.ID {
				c.ledger.rows[i].TotalClaimed += c.ledger.rows[i].PendingAmount
				c.ledger.rows[i].PendingAmount = 0
			}
		}
	}
	c.ledger.commits++
	return nil
}

func (c *fakeClaim) Rollback(_ context.Context) error {
	c.ledger.rollbacks++
	return nil
}

// fakeQueue backs the batch processor with a fixed set of pending
// releases and a controllable settle outcome.
type fakeQueue struct {
	releases  []models.PendingRelease
	settleErr error
	settled   [][]uuid.UUID
}

func (q *fakeQueue) ListSettleable(_ context.Context, cutoff time.Time) ([]models.PendingRelease, error) {
	var out []models.PendingRelease
	for _, r := range q.releases {
		if r.CreatedAt.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (q *fakeQueue) SettleBatch(_ context.Context, _ map[uuid.UUID]float64, releaseIDs []uuid.UUID) error {
	if q.settleErr != nil {
		return q.settleErr
	}
	q.settled = append(q.settled, releaseIDs)
	return nil
}
