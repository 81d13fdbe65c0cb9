/**
 * @description
 * SavingsPlan is a user's named savings goal with a target amount and a fixed
 * contribution pulled from the wallet on a recurring cadence.
 */

package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidPlan is returned when plan parameters fail validation.
var ErrInvalidPlan = errors.New("invalid savings plan")

// PlanCadence is how often the allocation engine contributes to a plan.
type PlanCadence string

const (
	CadenceDaily  PlanCadence = "daily"
	CadenceWeekly PlanCadence = "weekly"
)

// PlanStatus is the lifecycle state of a savings plan. `completed` is terminal:
// a completed plan must never receive further contributions.
type PlanStatus string

const (
	PlanActive    PlanStatus = "active"
	PlanPaused    PlanStatus = "paused"
	PlanCompleted PlanStatus = "completed"
	PlanCancelled PlanStatus = "cancelled"
)

// SavingsPlan tracks progress toward a savings goal. CurrentAmount never
// exceeds TargetAmount: the contribution that would overshoot is clamped to
// the remainder and completes the plan.
type SavingsPlan struct {
	ID                   uuid.UUID   `json:"id"`
	UserID               uuid.UUID   `json:"user_id"`
	Name                 string      `json:"name"`
	TargetAmount         int64       `json:"target_amount"`
	CurrentAmount        int64       `json:"current_amount"`
	ContributionAmount   int64       `json:"contribution_amount"` // per-period, minor units
	Cadence              PlanCadence `json:"cadence"`
	Status               PlanStatus  `json:"status"`
	TotalContributions   int64       `json:"total_contributions"`
	ContributionCount    int         `json:"contribution_count"`
	LastContributionDate *time.Time  `json:"last_contribution_date,omitempty"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

// NewSavingsPlan creates an active plan with no progress. An empty cadence
// defaults to daily.
func NewSavingsPlan(userID uuid.UUID, name string, targetAmount, contributionAmount int64, cadence PlanCadence) (*SavingsPlan, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidPlan)
	}
	if targetAmount <= 0 {
		return nil, fmt.Errorf("%w: target amount must be positive, got %d", ErrInvalidPlan, targetAmount)
	}
	if contributionAmount <= 0 || contributionAmount > targetAmount {
		return nil, fmt.Errorf("%w: contribution amount %d out of range for target %d", ErrInvalidPlan, contributionAmount, targetAmount)
	}
	switch cadence {
	case "":
		cadence = CadenceDaily
	case CadenceDaily, CadenceWeekly:
	default:
		return nil, fmt.Errorf("%w: unknown cadence %q", ErrInvalidPlan, cadence)
	}
	now := time.Now().UTC()
	return &SavingsPlan{
		ID:                 uuid.New(),
		UserID:             userID,
		Name:               name,
		TargetAmount:       targetAmount,
		ContributionAmount: contributionAmount,
		Cadence:            cadence,
		Status:             PlanActive,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// ContributionDue reports whether the allocation engine should contribute to
// this plan at the given run time. A plan already contributed to within the
// current cadence period is not due again; this is the engine-side guard that
// makes a second same-day run a no-op.
func (p *SavingsPlan) ContributionDue(now time.Time) bool {
	if p.Status != PlanActive {
		return false
	}
	if p.LastContributionDate == nil {
		return true
	}
	last := p.LastContributionDate.UTC()
	now = now.UTC()
	switch p.Cadence {
	case CadenceWeekly:
		return !now.Before(last.AddDate(0, 0, 7))
	default: // daily
		ly, lm, ld := last.Date()
		ny, nm, nd := now.Date()
		return ly != ny || lm != nm || ld != nd
	}
}

// NextContributionAmount returns how much the engine should pull for the
// current period: the configured contribution, clamped to what is left before
// the target. Zero means the plan is already at target.
func (p *SavingsPlan) NextContributionAmount() int64 {
	remaining := p.TargetAmount - p.CurrentAmount
	if remaining <= 0 {
		return 0
	}
	if p.ContributionAmount < remaining {
		return p.ContributionAmount
	}
	return remaining
}

// ApplyContribution records a successful wallet-to-plan movement of `amount`
// minor units. Reaching the target transitions the plan to completed.
func (p *SavingsPlan) ApplyContribution(amount int64, now time.Time) {
	p.CurrentAmount += amount
	if p.CurrentAmount > p.TargetAmount {
		p.CurrentAmount = p.TargetAmount
	}
	p.TotalContributions += amount
	p.ContributionCount++
	at := now.UTC()
	p.LastContributionDate = &at
	p.UpdatedAt = at
	if p.CurrentAmount >= p.TargetAmount {
		p.Status = PlanCompleted
	}
}
