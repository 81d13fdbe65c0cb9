/**
 * @description
 * Daily allocation engine: walks every active savings plan and moves its
 * per-period contribution from the owner's wallet into the plan. Each plan is
 * its own transaction, so one failure never blocks the rest of the run.
 */

package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sharjeelx567-pixel/save2740-sub005/internal/domain"
	"github.com/sharjeelx567-pixel/save2740-sub005/internal/store"
	"github.com/sharjeelx567-pixel/save2740-sub005/pkg/rabbitmq"
)

// AllocationSummary is the outcome of one allocation run.
type AllocationSummary struct {
	RunAt       time.Time `json:"run_at"`
	Processed   int       `json:"processed"`
	Contributed int       `json:"contributed"`
	Skipped     int       `json:"skipped"` // not yet due this period
	Missed      int       `json:"missed"`  // insufficient wallet funds
	Failed      int       `json:"failed"`
	TotalMoved  int64     `json:"total_moved"` // minor units
}

// AllocationEngine runs the recurring savings contribution sweep.
type AllocationEngine struct {
	repo     store.Repository
	producer rabbitmq.Publisher
	logger   *slog.Logger
}

// NewAllocationEngine creates a new allocation engine.
func NewAllocationEngine(repo store.Repository, producer rabbitmq.Publisher, logger *slog.Logger) *AllocationEngine {
	return &AllocationEngine{repo: repo, producer: producer, logger: logger}
}

// RunDailyAllocation contributes to every active plan that is due. Plans
// already contributed to within the current period are skipped; a wallet
// without enough available balance is recorded as missed, an event is
// published, and the plan stays active for the next run.
func (e *AllocationEngine) RunDailyAllocation(ctx context.Context) (*AllocationSummary, error) {
	runAt := time.Now().UTC()
	summary := &AllocationSummary{RunAt: runAt}

	plans, err := e.repo.ListActivePlans(ctx)
	if err != nil {
		e.logger.Error("failed to list active plans", "error", err)
		return nil, err
	}
	e.logger.Info("starting allocation run", "plans", len(plans))

	for _, plan := range plans {
		summary.Processed++
		result, err := e.repo.ContributeToPlan(ctx, plan.ID, runAt)
		switch {
		case err == nil:
			summary.Contributed++
			summary.TotalMoved += result.Entry.Amount
			e.logger.Info("allocated contribution",
				"plan_id", plan.ID, "user_id", plan.UserID,
				"amount", result.Entry.Amount, "plan_status", result.Plan.Status)
		case errors.Is(err, store.ErrContributionNotDue):
			summary.Skipped++
		case errors.Is(err, domain.ErrInsufficientFunds):
			summary.Missed++
			e.logger.Warn("allocation missed: insufficient funds",
				"plan_id", plan.ID, "user_id", plan.UserID, "amount", plan.NextContributionAmount())
			e.publishShortfall(ctx, &plan, runAt)
		default:
			summary.Failed++
			e.logger.Error("allocation failed", "plan_id", plan.ID, "error", err)
		}
	}

	e.logger.Info("allocation run finished",
		"processed", summary.Processed, "contributed", summary.Contributed,
		"skipped", summary.Skipped, "missed", summary.Missed,
		"failed", summary.Failed, "total_moved", summary.TotalMoved)
	return summary, nil
}

func (e *AllocationEngine) publishShortfall(ctx context.Context, plan *domain.SavingsPlan, runAt time.Time) {
	event := rabbitmq.AllocationShortfallEvent{
		UserID:    plan.UserID,
		PlanID:    plan.ID,
		Amount:    plan.NextContributionAmount(),
		Timestamp: runAt,
	}
	if err := e.producer.Publish(ctx, rabbitmq.EventsExchange, rabbitmq.KeyAllocationInsufficientFunds, event); err != nil {
		e.logger.Warn("failed to publish shortfall event", "plan_id", plan.ID, "error", err)
	}
}
