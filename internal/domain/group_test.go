package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestGroup(maxMembers int) *Group {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	return &Group{
		ID:                 uuid.New(),
		CreatorID:          uuid.New(),
		Name:               "Test circle",
		JoinCode:           "TESTCODE",
		Status:             GroupOpen,
		MaxMembers:         maxMembers,
		ContributionAmount: 5000,
		Currency:           "USD",
		Frequency:          FundingWeekly,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

func fillGroup(t *testing.T, g *Group) []uuid.UUID {
	t.Helper()
	now := g.CreatedAt
	members := make([]uuid.UUID, 0, g.MaxMembers)
	for i := 0; i < g.MaxMembers; i++ {
		userID := uuid.New()
		if _, err := g.AddMember(userID, now); err != nil {
			t.Fatalf("failed to add member %d: %v", i+1, err)
		}
		members = append(members, userID)
	}
	return members
}

func TestAddMemberFillsAndLocksGroup(t *testing.T) {
	g := newTestGroup(3)
	members := fillGroup(t, g)

	if g.Status != GroupFilled {
		t.Fatalf("status = %s, want filled at capacity", g.Status)
	}
	if g.CurrentMembers != 3 {
		t.Fatalf("current members = %d, want 3", g.CurrentMembers)
	}
	if len(g.Rounds) != 3 {
		t.Fatalf("rounds = %d, want one per member", len(g.Rounds))
	}
	for i, round := range g.Rounds {
		if round.RoundNumber != i+1 {
			t.Errorf("round %d has number %d", i, round.RoundNumber)
		}
		if round.RecipientID != members[i] {
			t.Errorf("round %d recipient should follow join order", i+1)
		}
		if round.Status != RoundPending {
			t.Errorf("round %d status = %s, want pending", i+1, round.Status)
		}
		if round.ExpectedTotal != 15000 {
			t.Errorf("round %d expected total = %d, want 15000", i+1, round.ExpectedTotal)
		}
	}

	if _, err := g.AddMember(uuid.New(), time.Now()); !errors.Is(err, ErrGroupFull) {
		t.Errorf("joining a full group should fail with ErrGroupFull, got %v", err)
	}
}

func TestAddMemberRejectsDuplicates(t *testing.T) {
	g := newTestGroup(3)
	userID := uuid.New()
	if _, err := g.AddMember(userID, time.Now()); err != nil {
		t.Fatal(err)
	}
	if _, err := g.AddMember(userID, time.Now()); err == nil {
		t.Error("duplicate join should fail")
	}
}

func TestContributionsBlockedUntilFull(t *testing.T) {
	g := newTestGroup(3)
	userID := uuid.New()
	if _, err := g.AddMember(userID, time.Now()); err != nil {
		t.Fatal(err)
	}

	if _, err := g.ApplyContribution(userID, 5000, time.Now()); !errors.Is(err, ErrGroupNotReady) {
		t.Fatalf("contribution to a partially-filled group should fail, got %v", err)
	}
	if g.TotalBalance != 0 {
		t.Errorf("rejected contribution touched the pool: %d", g.TotalBalance)
	}
}

func TestContributionRejectsNonMembers(t *testing.T) {
	g := newTestGroup(2)
	fillGroup(t, g)

	if _, err := g.ApplyContribution(uuid.New(), 5000, time.Now()); !errors.Is(err, ErrNotAMember) {
		t.Fatalf("expected ErrNotAMember, got %v", err)
	}
}

func TestFirstContributionActivatesGroup(t *testing.T) {
	g := newTestGroup(2)
	members := fillGroup(t, g)

	payout, err := g.ApplyContribution(members[0], 5000, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if payout != nil {
		t.Fatal("half-funded round should not pay out")
	}
	if g.Status != GroupActive {
		t.Errorf("status = %s, want active after first contribution", g.Status)
	}
	if g.Rounds[0].Status != RoundInProgress {
		t.Errorf("round 1 status = %s, want in_progress", g.Rounds[0].Status)
	}
	if g.TotalBalance != 5000 {
		t.Errorf("pool = %d, want 5000", g.TotalBalance)
	}
}

func TestRoundCompletionPaysOutAndRotates(t *testing.T) {
	g := newTestGroup(2)
	members := fillGroup(t, g)
	now := time.Now()

	if _, err := g.ApplyContribution(members[0], 5000, now); err != nil {
		t.Fatal(err)
	}
	payout, err := g.ApplyContribution(members[1], 5000, now)
	if err != nil {
		t.Fatal(err)
	}
	if payout == nil {
		t.Fatal("completing the round should produce a payout")
	}
	if payout.RecipientID != members[0] {
		t.Errorf("round 1 payout should go to join position 1")
	}
	if payout.Amount != 10000 {
		t.Errorf("payout = %d, want full pool of 10000", payout.Amount)
	}
	if g.TotalBalance != 0 {
		t.Errorf("pool after payout = %d, want 0", g.TotalBalance)
	}
	if g.Rounds[0].Status != RoundCompleted {
		t.Errorf("round 1 status = %s, want completed", g.Rounds[0].Status)
	}
	if g.Rounds[1].Status != RoundInProgress {
		t.Errorf("round 2 status = %s, want in_progress", g.Rounds[1].Status)
	}

	// Second rotation completes the group.
	if _, err := g.ApplyContribution(members[0], 5000, now); err != nil {
		t.Fatal(err)
	}
	payout, err = g.ApplyContribution(members[1], 5000, now)
	if err != nil {
		t.Fatal(err)
	}
	if payout == nil || payout.RecipientID != members[1] {
		t.Fatal("round 2 payout should go to join position 2")
	}
	if g.Status != GroupCompleted {
		t.Errorf("status = %s, want completed after last round", g.Status)
	}
	if g.TotalContributed != 20000 {
		t.Errorf("total contributed = %d, want 20000", g.TotalContributed)
	}
}

func TestCancelledGroupRejectsEverything(t *testing.T) {
	g := newTestGroup(3)
	userID := uuid.New()
	if _, err := g.AddMember(userID, time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := g.Cancel(time.Now()); err != nil {
		t.Fatal(err)
	}
	if _, err := g.AddMember(uuid.New(), time.Now()); !errors.Is(err, ErrGroupClosed) {
		t.Errorf("join after cancel should fail with ErrGroupClosed, got %v", err)
	}
	if _, err := g.ApplyContribution(userID, 5000, time.Now()); !errors.Is(err, ErrGroupNotReady) {
		t.Errorf("contribution after cancel should fail, got %v", err)
	}
	if err := g.Cancel(time.Now()); !errors.Is(err, ErrGroupClosed) {
		t.Errorf("double cancel should fail, got %v", err)
	}
}
