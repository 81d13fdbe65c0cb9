/**
 * @description
 * Funding engine: processes recurring auto-debit schedules, pulling money from
 * external payment methods through the gateway and crediting user wallets.
 * A schedule that fails three consecutive pulls is suspended until the user
 * explicitly reactivates it.
 */

package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sharjeelx567-pixel/save2740-sub005/internal/domain"
	"github.com/sharjeelx567-pixel/save2740-sub005/internal/store"
	"github.com/sharjeelx567-pixel/save2740-sub005/pkg/gatewayclient"
	"github.com/sharjeelx567-pixel/save2740-sub005/pkg/rabbitmq"
)

// FundingSummary is the outcome of one funding run.
type FundingSummary struct {
	RunAt     time.Time `json:"run_at"`
	Processed int       `json:"processed"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Suspended int       `json:"suspended"`
	TotalIn   int64     `json:"total_in"` // minor units, gross
}

// FundingEngine runs the recurring auto-debit sweep.
type FundingEngine struct {
	repo     store.Repository
	gateway  PaymentGateway
	producer rabbitmq.Publisher
	fees     *FeeService
	logger   *slog.Logger
}

// NewFundingEngine creates a new funding engine.
func NewFundingEngine(repo store.Repository, gateway PaymentGateway, producer rabbitmq.Publisher, fees *FeeService, logger *slog.Logger) *FundingEngine {
	return &FundingEngine{repo: repo, gateway: gateway, producer: producer, fees: fees, logger: logger}
}

// CreateScheduleParams are the caller-supplied fields for a new schedule.
type CreateScheduleParams struct {
	PaymentMethodID string
	Amount          int64
	Currency        string
	Frequency       domain.FundingFrequency
	FirstRunDate    time.Time
}

// CreateSchedule registers a new recurring auto-debit for the user.
func (e *FundingEngine) CreateSchedule(ctx context.Context, userID uuid.UUID, params CreateScheduleParams) (*domain.FundingSchedule, error) {
	if params.PaymentMethodID == "" {
		return nil, fmt.Errorf("payment method is required")
	}
	if params.Amount <= 0 {
		return nil, fmt.Errorf("funding amount must be positive, got %d", params.Amount)
	}
	switch params.Frequency {
	case "":
		params.Frequency = domain.FundingWeekly
	case domain.FundingWeekly, domain.FundingMonthly:
	default:
		return nil, fmt.Errorf("unknown funding frequency %q", params.Frequency)
	}
	if params.Currency == "" {
		params.Currency = "USD"
	}
	firstRun := params.FirstRunDate
	if firstRun.IsZero() {
		firstRun = time.Now()
	}

	now := time.Now().UTC()
	schedule := &domain.FundingSchedule{
		ID:              uuid.New(),
		UserID:          userID,
		PaymentMethodID: params.PaymentMethodID,
		Amount:          params.Amount,
		Currency:        params.Currency,
		Frequency:       params.Frequency,
		Status:          domain.FundingActive,
		NextRunDate:     firstRun.UTC(),
		MaxRetries:      domain.DefaultFundingMaxRetries,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := e.repo.CreateFundingSchedule(ctx, schedule); err != nil {
		return nil, fmt.Errorf("failed to create funding schedule: %w", err)
	}
	return schedule, nil
}

// GetSchedule returns a single funding schedule.
func (e *FundingEngine) GetSchedule(ctx context.Context, scheduleID uuid.UUID) (*domain.FundingSchedule, error) {
	return e.repo.FindFundingScheduleByID(ctx, scheduleID)
}

// PauseSchedule stops future pulls without losing the schedule.
func (e *FundingEngine) PauseSchedule(ctx context.Context, scheduleID, userID uuid.UUID) (*domain.FundingSchedule, error) {
	schedule, err := e.ownedSchedule(ctx, scheduleID, userID)
	if err != nil {
		return nil, err
	}
	schedule.Status = domain.FundingPaused
	schedule.UpdatedAt = time.Now().UTC()
	if err := e.repo.UpdateFundingSchedule(ctx, schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

// ReactivateSchedule re-arms a paused or suspended schedule. The failure
// streak resets and the next pull happens at the given time (or now).
func (e *FundingEngine) ReactivateSchedule(ctx context.Context, scheduleID, userID uuid.UUID, nextRun time.Time) (*domain.FundingSchedule, error) {
	schedule, err := e.ownedSchedule(ctx, scheduleID, userID)
	if err != nil {
		return nil, err
	}
	if nextRun.IsZero() {
		nextRun = time.Now()
	}
	schedule.Reactivate(nextRun)
	if err := e.repo.UpdateFundingSchedule(ctx, schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

func (e *FundingEngine) ownedSchedule(ctx context.Context, scheduleID, userID uuid.UUID) (*domain.FundingSchedule, error) {
	schedule, err := e.repo.FindFundingScheduleByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if schedule.UserID != userID {
		return nil, store.ErrScheduleNotFound
	}
	return schedule, nil
}

// RunFundingCycle processes every schedule that is due. Each schedule is
// handled independently; a gateway outage for one card never blocks the rest.
func (e *FundingEngine) RunFundingCycle(ctx context.Context) (*FundingSummary, error) {
	runAt := time.Now().UTC()
	summary := &FundingSummary{RunAt: runAt}

	schedules, err := e.repo.ListDueFundingSchedules(ctx, runAt)
	if err != nil {
		e.logger.Error("failed to list due funding schedules", "error", err)
		return nil, err
	}
	e.logger.Info("starting funding run", "due", len(schedules))

	for i := range schedules {
		schedule := schedules[i]
		summary.Processed++
		if err := e.processSchedule(ctx, &schedule, runAt); err != nil {
			summary.Failed++
			if schedule.Status == domain.FundingFailed {
				summary.Suspended++
			}
			continue
		}
		summary.Succeeded++
		summary.TotalIn += schedule.Amount
	}

	e.logger.Info("funding run finished",
		"processed", summary.Processed, "succeeded", summary.Succeeded,
		"failed", summary.Failed, "suspended", summary.Suspended, "total_in", summary.TotalIn)
	return summary, nil
}

func (e *FundingEngine) processSchedule(ctx context.Context, schedule *domain.FundingSchedule, runAt time.Time) error {
	// The idempotency key is stable for the whole calendar day, so a crashed
	// run retried later cannot double-charge the same schedule.
	idempotencyKey := fmt.Sprintf("%s:%s", schedule.ID, runAt.Format("2006-01-02"))

	resp, err := e.gateway.Charge(ctx, gatewayclient.ChargeRequest{
		PaymentMethodID: schedule.PaymentMethodID,
		Amount:          schedule.Amount,
		Currency:        schedule.Currency,
		Description:     "Scheduled wallet funding",
		IdempotencyKey:  idempotencyKey,
	})
	if err != nil || !resp.Succeeded() {
		if err == nil {
			err = fmt.Errorf("gateway charge not settled: status=%s", resp.Status)
		}
		e.registerFailure(ctx, schedule, runAt, err)
		return err
	}

	feeResult, err := e.fees.CalculateFee(ctx, domain.EntryDeposit, schedule.Currency, schedule.Amount)
	if err != nil {
		e.logger.Error("fee calculation failed for funding deposit", "schedule_id", schedule.ID, "error", err)
		return err
	}
	entry, err := domain.NewLedgerEntry(schedule.UserID, domain.EntryDeposit, domain.DirectionCredit, schedule.Amount, feeResult.Fee, schedule.Currency)
	if err != nil {
		return err
	}
	entry.RelatedTransactionID = &schedule.ID
	entry.Description = "Scheduled wallet funding"

	schedule.RegisterSuccess(runAt)
	if _, err := e.repo.RecordFundingDeposit(ctx, schedule, entry); err != nil {
		// The gateway already captured the money; surface loudly.
		e.logger.Error("CRITICAL: gateway charge captured but funding deposit not recorded",
			"schedule_id", schedule.ID, "gateway_tx", resp.ID, "error", err)
		return err
	}

	e.logger.Info("funding deposit recorded",
		"schedule_id", schedule.ID, "user_id", schedule.UserID,
		"amount", schedule.Amount, "fee", feeResult.Fee, "next_run", schedule.NextRunDate)
	return nil
}

func (e *FundingEngine) registerFailure(ctx context.Context, schedule *domain.FundingSchedule, runAt time.Time, cause error) {
	schedule.RegisterFailure(runAt)
	if err := e.repo.UpdateFundingSchedule(ctx, schedule); err != nil {
		e.logger.Error("failed to persist funding failure", "schedule_id", schedule.ID, "error", err)
		return
	}

	if schedule.Status == domain.FundingFailed {
		e.logger.Warn("funding schedule suspended after repeated failures",
			"schedule_id", schedule.ID, "user_id", schedule.UserID,
			"failure_count", schedule.FailureCount, "cause", cause)
		event := rabbitmq.FundingFailedEvent{
			UserID:       schedule.UserID,
			ScheduleID:   schedule.ID,
			FailureCount: schedule.FailureCount,
			Timestamp:    runAt,
		}
		if err := e.producer.Publish(ctx, rabbitmq.EventsExchange, rabbitmq.KeyFundingScheduleFailed, event); err != nil {
			e.logger.Warn("failed to publish funding failure event", "schedule_id", schedule.ID, "error", err)
		}
		return
	}

	e.logger.Warn("funding pull failed; retrying tomorrow",
		"schedule_id", schedule.ID, "failure_count", schedule.FailureCount,
		"next_run", schedule.NextRunDate, "cause", cause)
}
