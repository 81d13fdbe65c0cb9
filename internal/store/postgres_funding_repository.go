/**
 * @description
 * PostgreSQL repository methods for funding schedules. The funding engine
 * reads due schedules with ListDueFundingSchedules, charges the gateway, and
 * then either records the deposit (wallet credit + schedule advance in one
 * transaction) or persists the failure bookkeeping via UpdateFundingSchedule.
 */

package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sharjeelx567-pixel/save2740-sub005/internal/domain"
)

const scheduleColumns = `id, user_id, payment_method_id, amount, currency, frequency, status,
	next_run_date, last_run_date, failure_count, max_retries, created_at, updated_at`

// CreateFundingSchedule inserts a new recurring auto-debit schedule.
func (r *PostgresRepository) CreateFundingSchedule(ctx context.Context, schedule *domain.FundingSchedule) error {
	query := `
		INSERT INTO funding_schedules (
			id, user_id, payment_method_id, amount, currency, frequency, status,
			next_run_date, last_run_date, failure_count, max_retries, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.Exec(ctx, query,
		schedule.ID, schedule.UserID, schedule.PaymentMethodID, schedule.Amount, schedule.Currency,
		schedule.Frequency, schedule.Status, schedule.NextRunDate, schedule.LastRunDate,
		schedule.FailureCount, schedule.MaxRetries, schedule.CreatedAt, schedule.UpdatedAt)
	return err
}

func scanSchedule(row pgx.Row) (*domain.FundingSchedule, error) {
	var s domain.FundingSchedule
	err := row.Scan(
		&s.ID, &s.UserID, &s.PaymentMethodID, &s.Amount, &s.Currency, &s.Frequency, &s.Status,
		&s.NextRunDate, &s.LastRunDate, &s.FailureCount, &s.MaxRetries, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	return &s, nil
}

// FindFundingScheduleByID retrieves a single funding schedule.
func (r *PostgresRepository) FindFundingScheduleByID(ctx context.Context, scheduleID uuid.UUID) (*domain.FundingSchedule, error) {
	return scanSchedule(r.db.QueryRow(ctx, `SELECT `+scheduleColumns+` FROM funding_schedules WHERE id = $1`, scheduleID))
}

// ListDueFundingSchedules returns active schedules whose next run is at or
// before now, oldest first so the most overdue schedules process first.
func (r *PostgresRepository) ListDueFundingSchedules(ctx context.Context, now time.Time) ([]domain.FundingSchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM funding_schedules
		WHERE status = 'active' AND next_run_date <= $1
		ORDER BY next_run_date
	`
	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []domain.FundingSchedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, *s)
	}
	return schedules, rows.Err()
}

// UpdateFundingSchedule persists schedule state changes that do not move
// money: failure counts, pauses, reactivations.
func (r *PostgresRepository) UpdateFundingSchedule(ctx context.Context, schedule *domain.FundingSchedule) error {
	tag, err := r.db.Exec(ctx, fundingUpdateQuery,
		schedule.Status, schedule.NextRunDate, schedule.LastRunDate,
		schedule.FailureCount, schedule.UpdatedAt, schedule.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

const fundingUpdateQuery = `
	UPDATE funding_schedules
	SET status = $1, next_run_date = $2, last_run_date = $3, failure_count = $4, updated_at = $5
	WHERE id = $6
`

// RecordFundingDeposit commits the outcome of a successful gateway charge:
// the wallet credit, its ledger entry, and the schedule advance land in one
// transaction. The gateway already captured the money, so a partial write
// here would strand real funds; all-or-nothing is the only acceptable shape.
func (r *PostgresRepository) RecordFundingDeposit(ctx context.Context, schedule *domain.FundingSchedule, entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	wallet, err := r.lockWallet(ctx, tx, entry.UserID)
	if err != nil {
		return nil, err
	}
	if err := wallet.ApplyEntry(entry); err != nil {
		return nil, err
	}
	if err := r.saveWallet(ctx, tx, wallet); err != nil {
		return nil, err
	}
	if err := r.insertEntry(ctx, tx, entry); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, fundingUpdateQuery,
		schedule.Status, schedule.NextRunDate, schedule.LastRunDate,
		schedule.FailureCount, schedule.UpdatedAt, schedule.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return entry, nil
}
