/**
 * @description
 * Fee disclosure domain model. Disclosures are versioned fee-structure rows
 * keyed by (transaction type, currency) with an effectivity window; the fee
 * service picks the active row and computes the fee from it.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeeStructureType selects how the fee is derived from the amount.
type FeeStructureType string

const (
	FeeFixed               FeeStructureType = "fixed"
	FeePercentage          FeeStructureType = "percentage"
	FeePercentagePlusFixed FeeStructureType = "percentage-plus-fixed"
)

// FeeDisclosure is one configured fee-structure row.
type FeeDisclosure struct {
	ID              uuid.UUID        `json:"id"`
	TransactionType EntryType        `json:"transaction_type"`
	Currency        string           `json:"currency"`
	StructureType   FeeStructureType `json:"structure_type"`
	FixedAmount     int64            `json:"fixed_amount"` // minor units
	PercentageRate  decimal.Decimal  `json:"percentage_rate"`
	MinimumFee      *int64           `json:"minimum_fee,omitempty"`
	MaximumFee      *int64           `json:"maximum_fee,omitempty"`
	EffectiveDate   time.Time        `json:"effective_date"`
	ExpiryDate      *time.Time       `json:"expiry_date,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// ActiveAt reports whether this disclosure applies at the given time.
func (d *FeeDisclosure) ActiveAt(now time.Time) bool {
	if now.Before(d.EffectiveDate) {
		return false
	}
	return d.ExpiryDate == nil || !now.After(*d.ExpiryDate)
}

// FeeBreakdown itemizes how a fee was derived.
type FeeBreakdown struct {
	StructureType  FeeStructureType `json:"structure_type"`
	FixedPortion   int64            `json:"fixed_portion"`
	PercentPortion int64            `json:"percent_portion"`
	PercentageRate decimal.Decimal  `json:"percentage_rate"`
	ClampedToMin   bool             `json:"clamped_to_min"`
	ClampedToMax   bool             `json:"clamped_to_max"`
	UsedFallback   bool             `json:"used_fallback"`
}

// FeeResult is the outcome of a fee calculation.
type FeeResult struct {
	Fee       int64        `json:"fee"`
	NetAmount int64        `json:"net_amount"`
	Breakdown FeeBreakdown `json:"breakdown"`
}
