/**
 * @description
 * Fee calculation service. Fees come from versioned disclosure rows in the
 * database; when no disclosure covers a transaction type, a hard-coded
 * fallback applies so fee calculation can never fail open (charging nothing
 * for card-funded deposits) or fail closed (blocking money movement).
 *
 * All percentage math runs on decimal values and rounds half away from zero
 * to whole minor units, so a 2.9% fee on $10.01 is exactly 29 cents.
 */

package app

import (
	"context"
	"errors"
	"time"

	"github.com/sharjeelx567-pixel/save2740-sub005/internal/domain"
	"github.com/sharjeelx567-pixel/save2740-sub005/internal/store"
	"github.com/shopspring/decimal"
)

// Fallback deposit fee: 2.9% + $0.30, the standard card processing rate.
var fallbackDepositRate = decimal.NewFromFloat(2.9)

const fallbackDepositFixed = 30 // minor units

// FeeService computes fees from disclosure rows with a built-in fallback.
type FeeService struct {
	repo store.Repository
}

// NewFeeService creates a fee service backed by the given repository.
func NewFeeService(repo store.Repository) *FeeService {
	return &FeeService{repo: repo}
}

// CalculateFee returns the fee and net amount for a transaction of the given
// type. Disclosure lookup misses fall back to the card rate for deposits and
// to zero for internal movements, which never touch a card network.
func (s *FeeService) CalculateFee(ctx context.Context, txType domain.EntryType, currency string, amount int64) (*domain.FeeResult, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidEntry
	}

	disclosure, err := s.repo.FindActiveFeeDisclosure(ctx, txType, currency, time.Now().UTC())
	if err != nil {
		if !errors.Is(err, store.ErrFeeDisclosureNotFound) {
			return nil, err
		}
		return s.fallbackFee(txType, amount), nil
	}
	return computeDisclosedFee(disclosure, amount), nil
}

func (s *FeeService) fallbackFee(txType domain.EntryType, amount int64) *domain.FeeResult {
	breakdown := domain.FeeBreakdown{UsedFallback: true}
	var fee int64
	if txType == domain.EntryDeposit {
		breakdown.StructureType = domain.FeePercentagePlusFixed
		breakdown.PercentageRate = fallbackDepositRate
		breakdown.PercentPortion = percentOf(amount, fallbackDepositRate)
		breakdown.FixedPortion = fallbackDepositFixed
		fee = breakdown.PercentPortion + breakdown.FixedPortion
	} else {
		breakdown.StructureType = domain.FeeFixed
		breakdown.PercentageRate = decimal.Zero
	}
	if fee > amount {
		fee = amount
	}
	return &domain.FeeResult{Fee: fee, NetAmount: amount - fee, Breakdown: breakdown}
}

func computeDisclosedFee(d *domain.FeeDisclosure, amount int64) *domain.FeeResult {
	breakdown := domain.FeeBreakdown{
		StructureType:  d.StructureType,
		PercentageRate: d.PercentageRate,
	}
	switch d.StructureType {
	case domain.FeeFixed:
		breakdown.FixedPortion = d.FixedAmount
	case domain.FeePercentage:
		breakdown.PercentPortion = percentOf(amount, d.PercentageRate)
	case domain.FeePercentagePlusFixed:
		breakdown.FixedPortion = d.FixedAmount
		breakdown.PercentPortion = percentOf(amount, d.PercentageRate)
	}
	fee := breakdown.FixedPortion + breakdown.PercentPortion

	if d.MinimumFee != nil && fee < *d.MinimumFee {
		fee = *d.MinimumFee
		breakdown.ClampedToMin = true
	}
	if d.MaximumFee != nil && fee > *d.MaximumFee {
		fee = *d.MaximumFee
		breakdown.ClampedToMax = true
	}
	if fee > amount {
		fee = amount
	}
	return &domain.FeeResult{Fee: fee, NetAmount: amount - fee, Breakdown: breakdown}
}

// percentOf computes rate% of amount in minor units, rounding half away from
// zero so the fee is always a whole number of cents.
func percentOf(amount int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).
		Mul(rate).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}
