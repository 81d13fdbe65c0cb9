/**
 * @description
 * Rotating savings circle (osusu) domain model. A group has a fixed membership
 * cap; nobody can contribute until the circle is full, so no escrow fund ever
 * exists with ambiguous ownership. Once active, contributions accumulate into
 * rounds and the pooled amount is paid out to one member per round, rotating
 * by join position.
 */

package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Group-engine validation errors, surfaced directly to the caller.
var (
	ErrGroupFull     = errors.New("group is full")
	ErrGroupNotReady = errors.New("group is not accepting contributions")
	ErrNotAMember    = errors.New("user is not a member of this group")
	ErrGroupClosed   = errors.New("group is closed")
)

// GroupStatus is the group state machine:
// open -> filled -> active -> completed, with cancelled reachable from any
// non-terminal state.
type GroupStatus string

const (
	GroupOpen      GroupStatus = "open"
	GroupFilled    GroupStatus = "filled"
	GroupActive    GroupStatus = "active"
	GroupCompleted GroupStatus = "completed"
	GroupCancelled GroupStatus = "cancelled"
)

// RoundStatus is the per-round state. Exactly one round is in_progress at a
// time; the rest are pending or completed in ascending round order.
type RoundStatus string

const (
	RoundPending    RoundStatus = "pending"
	RoundInProgress RoundStatus = "in_progress"
	RoundCompleted  RoundStatus = "completed"
)

// GroupMember is one participant. PayoutPosition is unique within the group
// and assigned in join order.
type GroupMember struct {
	UserID           uuid.UUID `json:"user_id"`
	JoinedAt         time.Time `json:"joined_at"`
	TotalContributed int64     `json:"total_contributed"`
	PayoutPosition   int       `json:"payout_position"`
}

// RoundContribution records one member's payment into a round.
type RoundContribution struct {
	UserID uuid.UUID `json:"user_id"`
	Amount int64     `json:"amount"`
	PaidAt time.Time `json:"paid_at"`
}

// GroupRound is one rotation of the circle: contributions accumulate until the
// expected total is reached, then the pool is paid to the recipient.
type GroupRound struct {
	RoundNumber      int                 `json:"round_number"`
	RecipientID      uuid.UUID           `json:"recipient_id"`
	DueDate          time.Time           `json:"due_date"`
	Status           RoundStatus         `json:"status"`
	Contributions    []RoundContribution `json:"contributions"`
	TotalContributed int64               `json:"total_contributed"`
	ExpectedTotal    int64               `json:"expected_total"`
}

// RoundPayout describes a completed round's disbursement to its recipient.
type RoundPayout struct {
	RoundNumber int
	RecipientID uuid.UUID
	Amount      int64
}

// Group is a fixed-membership rotating savings circle.
type Group struct {
	ID                 uuid.UUID        `json:"id"`
	CreatorID          uuid.UUID        `json:"creator_id"`
	Name               string           `json:"name"`
	JoinCode           string           `json:"join_code"`
	Status             GroupStatus      `json:"status"`
	MaxMembers         int              `json:"max_members"`
	CurrentMembers     int              `json:"current_members"`
	ContributionAmount int64            `json:"contribution_amount"` // per member per round
	Currency           string           `json:"currency"`
	Frequency          FundingFrequency `json:"frequency"`
	TotalBalance       int64            `json:"total_balance"` // escrow not yet paid out
	TotalContributed   int64            `json:"total_contributed"`
	Members            []GroupMember    `json:"members"`
	Rounds             []GroupRound     `json:"rounds"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// ReadyForContributions is the blocking gate: contributions are rejected
// unless the circle is at full membership.
func (g *Group) ReadyForContributions() bool {
	return (g.Status == GroupFilled || g.Status == GroupActive) && g.CurrentMembers == g.MaxMembers
}

// MemberByUserID returns a pointer into Members, or nil when absent.
func (g *Group) MemberByUserID(userID uuid.UUID) *GroupMember {
	for i := range g.Members {
		if g.Members[i].UserID == userID {
			return &g.Members[i]
		}
	}
	return nil
}

// AddMember appends a member with the next payout position. Reaching the
// membership cap transitions open -> filled and lays out the round schedule.
func (g *Group) AddMember(userID uuid.UUID, now time.Time) (*GroupMember, error) {
	switch g.Status {
	case GroupOpen:
	case GroupCompleted, GroupCancelled:
		return nil, ErrGroupClosed
	default:
		return nil, ErrGroupFull
	}
	if g.CurrentMembers >= g.MaxMembers {
		return nil, ErrGroupFull
	}
	if g.MemberByUserID(userID) != nil {
		return nil, fmt.Errorf("user %s already joined", userID)
	}
	now = now.UTC()
	g.Members = append(g.Members, GroupMember{
		UserID:         userID,
		JoinedAt:       now,
		PayoutPosition: g.CurrentMembers + 1,
	})
	g.CurrentMembers++
	g.UpdatedAt = now
	if g.CurrentMembers == g.MaxMembers {
		g.Status = GroupFilled
		g.layOutRounds(now)
	}
	return &g.Members[len(g.Members)-1], nil
}

// layOutRounds builds the fixed-length round sequence, one round per member in
// payout-position order. All rounds start pending; the first flips to
// in_progress on the first successful contribution.
func (g *Group) layOutRounds(now time.Time) {
	g.Rounds = make([]GroupRound, 0, g.CurrentMembers)
	expected := g.ContributionAmount * int64(g.CurrentMembers)
	for _, m := range g.Members {
		g.Rounds = append(g.Rounds, GroupRound{
			RoundNumber:   m.PayoutPosition,
			RecipientID:   m.UserID,
			DueDate:       g.roundDueDate(now, m.PayoutPosition),
			Status:        RoundPending,
			ExpectedTotal: expected,
		})
	}
}

func (g *Group) roundDueDate(from time.Time, roundNumber int) time.Time {
	switch g.Frequency {
	case FundingMonthly:
		return from.AddDate(0, roundNumber, 0)
	default:
		return from.AddDate(0, 0, 7*roundNumber)
	}
}

// currentRound returns the in_progress round, or nil.
func (g *Group) currentRound() *GroupRound {
	for i := range g.Rounds {
		if g.Rounds[i].Status == RoundInProgress {
			return &g.Rounds[i]
		}
	}
	return nil
}

// ApplyContribution records a member's contribution of `amount` minor units.
// The first successful contribution transitions filled -> active and opens
// round one. When the current round reaches its expected total it completes
// and a payout is returned; the next round opens with a fresh due date, and
// the last round completing completes the whole group.
//
// Validation failures leave the group untouched; the caller must only move
// money after this method succeeds, inside the same transaction.
func (g *Group) ApplyContribution(userID uuid.UUID, amount int64, now time.Time) (*RoundPayout, error) {
	if !g.ReadyForContributions() {
		return nil, ErrGroupNotReady
	}
	member := g.MemberByUserID(userID)
	if member == nil {
		return nil, ErrNotAMember
	}

	now = now.UTC()
	if g.Status == GroupFilled {
		g.Status = GroupActive
		if len(g.Rounds) > 0 {
			g.Rounds[0].Status = RoundInProgress
			g.Rounds[0].DueDate = g.roundDueDate(now, 1)
		}
	}

	member.TotalContributed += amount
	g.TotalBalance += amount
	g.TotalContributed += amount
	g.UpdatedAt = now

	round := g.currentRound()
	if round == nil {
		return nil, nil
	}
	round.Contributions = append(round.Contributions, RoundContribution{
		UserID: userID,
		Amount: amount,
		PaidAt: now,
	})
	round.TotalContributed += amount

	if round.TotalContributed < round.ExpectedTotal {
		return nil, nil
	}

	round.Status = RoundCompleted
	payout := &RoundPayout{
		RoundNumber: round.RoundNumber,
		RecipientID: round.RecipientID,
		Amount:      round.TotalContributed,
	}
	g.TotalBalance -= payout.Amount

	opened := false
	for i := range g.Rounds {
		if g.Rounds[i].Status == RoundPending {
			g.Rounds[i].Status = RoundInProgress
			g.Rounds[i].DueDate = g.roundDueDate(now, 1)
			opened = true
			break
		}
	}
	if !opened {
		g.Status = GroupCompleted
	}
	return payout, nil
}

// Cancel moves a non-terminal group to cancelled.
func (g *Group) Cancel(now time.Time) error {
	if g.Status == GroupCompleted || g.Status == GroupCancelled {
		return ErrGroupClosed
	}
	g.Status = GroupCancelled
	g.UpdatedAt = now.UTC()
	return nil
}
