/**
 * @description
 * PostgreSQL repository methods for savings plans, including the atomic
 * daily-allocation mutation: due-date guard, wallet debit, ledger append and
 * plan progress update all inside one transaction.
 */

package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sharjeelx567-pixel/save2740-sub005/internal/domain"
)

const planColumns = `id, user_id, name, target_amount, current_amount, contribution_amount,
	cadence, status, total_contributions, contribution_count, last_contribution_date, created_at, updated_at`

// CreatePlan inserts a new savings plan.
func (r *PostgresRepository) CreatePlan(ctx context.Context, plan *domain.SavingsPlan) error {
	query := `
		INSERT INTO savings_plans (
			id, user_id, name, target_amount, current_amount, contribution_amount,
			cadence, status, total_contributions, contribution_count, last_contribution_date, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.Exec(ctx, query,
		plan.ID, plan.UserID, plan.Name, plan.TargetAmount, plan.CurrentAmount, plan.ContributionAmount,
		plan.Cadence, plan.Status, plan.TotalContributions, plan.ContributionCount, plan.LastContributionDate,
		plan.CreatedAt, plan.UpdatedAt)
	return err
}

func scanPlan(row pgx.Row) (*domain.SavingsPlan, error) {
	var p domain.SavingsPlan
	err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.TargetAmount, &p.CurrentAmount, &p.ContributionAmount,
		&p.Cadence, &p.Status, &p.TotalContributions, &p.ContributionCount, &p.LastContributionDate,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindPlanByID retrieves a single savings plan.
func (r *PostgresRepository) FindPlanByID(ctx context.Context, planID uuid.UUID) (*domain.SavingsPlan, error) {
	return scanPlan(r.db.QueryRow(ctx, `SELECT `+planColumns+` FROM savings_plans WHERE id = $1`, planID))
}

// ListPlansByUserID returns all of a user's plans, newest first.
func (r *PostgresRepository) ListPlansByUserID(ctx context.Context, userID uuid.UUID) ([]domain.SavingsPlan, error) {
	query := `SELECT ` + planColumns + ` FROM savings_plans WHERE user_id = $1 ORDER BY created_at DESC`
	return r.collectPlans(ctx, query, userID)
}

// ListActivePlans returns every plan eligible for the allocation run.
func (r *PostgresRepository) ListActivePlans(ctx context.Context) ([]domain.SavingsPlan, error) {
	query := `SELECT ` + planColumns + ` FROM savings_plans WHERE status = 'active' ORDER BY created_at`
	return r.collectPlans(ctx, query)
}

func (r *PostgresRepository) collectPlans(ctx context.Context, query string, args ...any) ([]domain.SavingsPlan, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []domain.SavingsPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

// UpdatePlanStatus applies a user-initiated lifecycle change (pause, resume,
// cancel). Completed plans are terminal and cannot be transitioned.
func (r *PostgresRepository) UpdatePlanStatus(ctx context.Context, planID, userID uuid.UUID, status domain.PlanStatus) error {
	query := `
		UPDATE savings_plans SET status = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3 AND status NOT IN ('completed', 'cancelled')
	`
	tag, err := r.db.Exec(ctx, query, status, planID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}

// ContributeToPlan moves the plan's per-period contribution from the owner's
// wallet to the plan, as one all-or-nothing transaction. The plan and wallet
// rows are locked for the duration; the due-date re-check inside the lock is
// what makes a second same-day run a no-op instead of a double allocation.
func (r *PostgresRepository) ContributeToPlan(ctx context.Context, planID uuid.UUID, runTime time.Time) (*PlanContribution, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	plan, err := scanPlan(tx.QueryRow(ctx, `SELECT `+planColumns+` FROM savings_plans WHERE id = $1 FOR UPDATE`, planID))
	if err != nil {
		return nil, err
	}
	if plan.Status != domain.PlanActive {
		return nil, ErrPlanNotActive
	}
	if !plan.ContributionDue(runTime) {
		return nil, ErrContributionNotDue
	}
	amount := plan.NextContributionAmount()
	if amount <= 0 {
		// Plan is already at target but was never flipped; close it out.
		plan.Status = domain.PlanCompleted
		plan.UpdatedAt = runTime.UTC()
		if err := r.savePlan(ctx, tx, plan); err != nil {
			return nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}
		return nil, ErrContributionNotDue
	}

	wallet, err := r.lockWallet(ctx, tx, plan.UserID)
	if err != nil {
		return nil, err
	}

	entry, err := domain.NewLedgerEntry(plan.UserID, domain.EntrySavingsContribution, domain.DirectionDebit, amount, 0, wallet.Currency)
	if err != nil {
		return nil, err
	}
	entry.RelatedTransactionID = &plan.ID
	entry.Description = "Daily savings allocation: " + plan.Name

	if err := wallet.ApplyEntry(entry); err != nil {
		return nil, err
	}
	plan.ApplyContribution(amount, runTime)

	if err := r.saveWallet(ctx, tx, wallet); err != nil {
		return nil, err
	}
	if err := r.insertEntry(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := r.savePlan(ctx, tx, plan); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &PlanContribution{Plan: plan, Entry: entry}, nil
}

func (r *PostgresRepository) savePlan(ctx context.Context, tx pgx.Tx, p *domain.SavingsPlan) error {
	query := `
		UPDATE savings_plans
		SET current_amount = $1, status = $2, total_contributions = $3, contribution_count = $4,
			last_contribution_date = $5, updated_at = $6
		WHERE id = $7
	`
	_, err := tx.Exec(ctx, query,
		p.CurrentAmount, p.Status, p.TotalContributions, p.ContributionCount,
		p.LastContributionDate, p.UpdatedAt, p.ID)
	return err
}
