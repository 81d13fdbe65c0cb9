package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewSavingsPlanValidation(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name         string
		planName     string
		target       int64
		contribution int64
		cadence      PlanCadence
		wantErr      bool
	}{
		{name: "valid daily", planName: "Rainy day", target: 1000100, contribution: 2740},
		{name: "default cadence", planName: "Vacation", target: 50000, contribution: 5000, cadence: ""},
		{name: "missing name", planName: "", target: 1000, contribution: 100, wantErr: true},
		{name: "zero target", planName: "x", target: 0, contribution: 100, wantErr: true},
		{name: "contribution above target", planName: "x", target: 100, contribution: 200, wantErr: true},
		{name: "bad cadence", planName: "x", target: 1000, contribution: 100, cadence: "hourly", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			plan, err := NewSavingsPlan(userID, tc.planName, tc.target, tc.contribution, tc.cadence)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidPlan) {
					t.Fatalf("expected ErrInvalidPlan, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if plan.Status != PlanActive {
				t.Errorf("status = %s, want active", plan.Status)
			}
			if plan.Cadence != CadenceDaily && tc.cadence == "" {
				t.Errorf("empty cadence should default to daily, got %s", plan.Cadence)
			}
		})
	}
}

func TestContributionDueDaily(t *testing.T) {
	plan, err := NewSavingsPlan(uuid.New(), "Daily", 1000000, 2740, CadenceDaily)
	if err != nil {
		t.Fatal(err)
	}

	morning := time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	if !plan.ContributionDue(morning) {
		t.Fatal("fresh plan should be due")
	}

	plan.ApplyContribution(2740, morning)

	// Same calendar day, later hour: not due again.
	evening := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	if plan.ContributionDue(evening) {
		t.Error("plan contributed this morning should not be due tonight")
	}

	// Next calendar day, even one minute in: due.
	nextDay := time.Date(2026, 3, 11, 0, 1, 0, 0, time.UTC)
	if !plan.ContributionDue(nextDay) {
		t.Error("plan should be due the next calendar day")
	}
}

func TestContributionDueWeekly(t *testing.T) {
	plan, err := NewSavingsPlan(uuid.New(), "Weekly", 1000000, 10000, CadenceWeekly)
	if err != nil {
		t.Fatal(err)
	}
	start := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	plan.ApplyContribution(10000, start)

	if plan.ContributionDue(start.AddDate(0, 0, 6)) {
		t.Error("weekly plan should not be due after 6 days")
	}
	if !plan.ContributionDue(start.AddDate(0, 0, 7)) {
		t.Error("weekly plan should be due after 7 days")
	}
}

func TestContributionDuePausedPlan(t *testing.T) {
	plan, err := NewSavingsPlan(uuid.New(), "Paused", 1000000, 2740, CadenceDaily)
	if err != nil {
		t.Fatal(err)
	}
	plan.Status = PlanPaused
	if plan.ContributionDue(time.Now()) {
		t.Error("paused plan should never be due")
	}
}

func TestNextContributionAmountClampsToRemainder(t *testing.T) {
	plan, err := NewSavingsPlan(uuid.New(), "Almost there", 10000, 2740, CadenceDaily)
	if err != nil {
		t.Fatal(err)
	}
	plan.CurrentAmount = 9000

	if got := plan.NextContributionAmount(); got != 1000 {
		t.Errorf("clamped contribution = %d, want 1000", got)
	}

	now := time.Now()
	plan.ApplyContribution(1000, now)
	if plan.CurrentAmount != 10000 {
		t.Errorf("current = %d, want exactly target", plan.CurrentAmount)
	}
	if plan.Status != PlanCompleted {
		t.Errorf("status = %s, want completed at target", plan.Status)
	}
	if got := plan.NextContributionAmount(); got != 0 {
		t.Errorf("completed plan next amount = %d, want 0", got)
	}
}

func TestApplyContributionBookkeeping(t *testing.T) {
	plan, err := NewSavingsPlan(uuid.New(), "Ledger", 100000, 2740, CadenceDaily)
	if err != nil {
		t.Fatal(err)
	}
	day1 := time.Date(2026, 5, 1, 6, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	plan.ApplyContribution(2740, day1)
	plan.ApplyContribution(2740, day2)

	if plan.ContributionCount != 2 {
		t.Errorf("count = %d, want 2", plan.ContributionCount)
	}
	if plan.TotalContributions != 5480 {
		t.Errorf("total = %d, want 5480", plan.TotalContributions)
	}
	if plan.LastContributionDate == nil || !plan.LastContributionDate.Equal(day2) {
		t.Errorf("last contribution date = %v, want %v", plan.LastContributionDate, day2)
	}
}
