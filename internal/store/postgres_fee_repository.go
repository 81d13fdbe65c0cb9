/**
 * @description
 * PostgreSQL repository methods for fee disclosures. Disclosures are versioned
 * rows; lookup picks the newest row whose effectivity window covers the
 * requested instant.
 */

package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sharjeelx567-pixel/save2740-sub005/internal/domain"
)

// CreateFeeDisclosure inserts a new fee-structure row.
func (r *PostgresRepository) CreateFeeDisclosure(ctx context.Context, d *domain.FeeDisclosure) error {
	query := `
		INSERT INTO fee_disclosures (
			id, transaction_type, currency, structure_type, fixed_amount, percentage_rate,
			minimum_fee, maximum_fee, effective_date, expiry_date, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query,
		d.ID, d.TransactionType, d.Currency, d.StructureType, d.FixedAmount, d.PercentageRate,
		d.MinimumFee, d.MaximumFee, d.EffectiveDate, d.ExpiryDate, d.CreatedAt)
	return err
}

// FindActiveFeeDisclosure returns the disclosure governing the given
// transaction type and currency at the given time. When several windows
// overlap, the most recently effective row wins.
func (r *PostgresRepository) FindActiveFeeDisclosure(ctx context.Context, txType domain.EntryType, currency string, at time.Time) (*domain.FeeDisclosure, error) {
	query := `
		SELECT id, transaction_type, currency, structure_type, fixed_amount, percentage_rate,
			minimum_fee, maximum_fee, effective_date, expiry_date, created_at
		FROM fee_disclosures
		WHERE transaction_type = $1 AND currency = $2
			AND effective_date <= $3
			AND (expiry_date IS NULL OR expiry_date >= $3)
		ORDER BY effective_date DESC
		LIMIT 1
	`
	var d domain.FeeDisclosure
	err := r.db.QueryRow(ctx, query, txType, currency, at).Scan(
		&d.ID, &d.TransactionType, &d.Currency, &d.StructureType, &d.FixedAmount, &d.PercentageRate,
		&d.MinimumFee, &d.MaximumFee, &d.EffectiveDate, &d.ExpiryDate, &d.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrFeeDisclosureNotFound
		}
		return nil, err
	}
	return &d, nil
}
