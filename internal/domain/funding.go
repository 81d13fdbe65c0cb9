/**
 * @description
 * FundingSchedule is a recurring auto-debit: a pull from an external payment
 * method into the user's wallet on a weekly or monthly cadence, with a
 * failure-count-based suspension policy.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// FundingFrequency is how often the funding engine pulls from the payment method.
type FundingFrequency string

const (
	FundingWeekly  FundingFrequency = "weekly"
	FundingMonthly FundingFrequency = "monthly"
)

// FundingStatus is the lifecycle state of a schedule. `failed` is terminal
// until a user or admin explicitly reactivates the schedule.
type FundingStatus string

const (
	FundingActive    FundingStatus = "active"
	FundingPaused    FundingStatus = "paused"
	FundingFailed    FundingStatus = "failed"
	FundingCancelled FundingStatus = "cancelled"
)

// DefaultFundingMaxRetries is the observed suspension threshold: the third
// consecutive failure turns the schedule off.
const DefaultFundingMaxRetries = 3

// FundingSchedule describes one recurring auto-debit.
type FundingSchedule struct {
	ID              uuid.UUID        `json:"id"`
	UserID          uuid.UUID        `json:"user_id"`
	PaymentMethodID string           `json:"payment_method_id"`
	Amount          int64            `json:"amount"` // minor units
	Currency        string           `json:"currency"`
	Frequency       FundingFrequency `json:"frequency"`
	Status          FundingStatus    `json:"status"`
	NextRunDate     time.Time        `json:"next_run_date"`
	LastRunDate     *time.Time       `json:"last_run_date,omitempty"`
	FailureCount    int              `json:"failure_count"`
	MaxRetries      int              `json:"max_retries"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Due reports whether the funding engine should process this schedule now.
func (f *FundingSchedule) Due(now time.Time) bool {
	return f.Status == FundingActive && !f.NextRunDate.After(now)
}

// RegisterSuccess records a successful pull: the failure streak resets and the
// next run advances by one full frequency period from the current run time.
func (f *FundingSchedule) RegisterSuccess(now time.Time) {
	now = now.UTC()
	f.LastRunDate = &now
	f.FailureCount = 0
	switch f.Frequency {
	case FundingMonthly:
		f.NextRunDate = now.AddDate(0, 1, 0)
	default: // weekly
		f.NextRunDate = now.AddDate(0, 0, 7)
	}
	f.UpdatedAt = now
}

// RegisterFailure records a failed pull. Below the retry ceiling the next run
// advances by exactly one day, so the schedule is retried tomorrow and never
// reprocessed within the same day. At the ceiling the schedule transitions to
// the terminal failed status and stops rescheduling.
func (f *FundingSchedule) RegisterFailure(now time.Time) {
	now = now.UTC()
	f.FailureCount++
	maxRetries := f.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultFundingMaxRetries
	}
	if f.FailureCount >= maxRetries {
		f.Status = FundingFailed
	} else {
		f.NextRunDate = now.AddDate(0, 0, 1)
	}
	f.UpdatedAt = now
}

// Reactivate re-arms a terminally failed schedule after explicit user or admin
// intervention. The failure streak resets and the next pull happens at the
// given time.
func (f *FundingSchedule) Reactivate(nextRun time.Time) {
	f.Status = FundingActive
	f.FailureCount = 0
	f.NextRunDate = nextRun.UTC()
	f.UpdatedAt = time.Now().UTC()
}
