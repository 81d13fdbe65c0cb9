/**
 * @description
 * Core ledger domain model: immutable ledger entries and the per-user wallet
 * aggregate they mutate. Amounts are stored as `int64` in minor currency units
 * (cents), which avoids floating-point inaccuracies with financial data.
 *
 * @notes
 * - The wallet's balance fields are unexported on purpose. The only way any
 *   balance can change is through the entry-applying methods below, so a code
 *   path that moves money without producing a ledger entry cannot compile.
 */

package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EntryType classifies a balance-affecting event.
type EntryType string

const (
	EntryDeposit             EntryType = "deposit"
	EntryWithdrawal          EntryType = "withdrawal"
	EntryTransfer            EntryType = "transfer"
	EntrySavingsContribution EntryType = "savings-contribution"
	EntryRefund              EntryType = "refund"
	EntryFee                 EntryType = "fee"
)

// EntryDirection tells which way money moves relative to the wallet.
// The entry type alone is not enough: a `transfer` is a debit for a group
// contribution and a credit for a round payout.
type EntryDirection string

const (
	DirectionCredit EntryDirection = "credit"
	DirectionDebit  EntryDirection = "debit"
)

// EntryStatus is the lifecycle state of a ledger entry. Entries are append-only;
// the status transition pending -> completed|failed|cancelled is the only
// permitted mutation.
type EntryStatus string

const (
	EntryPending   EntryStatus = "pending"
	EntryCompleted EntryStatus = "completed"
	EntryFailed    EntryStatus = "failed"
	EntryCancelled EntryStatus = "cancelled"
)

// Wallet-related sentinel errors surfaced by the entry-applying methods.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrWalletFrozen      = errors.New("wallet is frozen")
	ErrInvalidEntry      = errors.New("invalid ledger entry")
)

// LedgerEntry is the immutable record of one balance-affecting event.
// BalanceBefore/BalanceAfter capture the actual wallet state at the instant
// the balance moved; for entries that never moved the balance (pending holds,
// failed attempts) the two are equal.
type LedgerEntry struct {
	ID                   uuid.UUID      `json:"id"`
	UserID               uuid.UUID      `json:"user_id"`
	Type                 EntryType      `json:"type"`
	Direction            EntryDirection `json:"direction"`
	Status               EntryStatus    `json:"status"`
	Amount               int64          `json:"amount"` // gross, in minor units
	Fee                  int64          `json:"fee"`
	NetAmount            int64          `json:"net_amount"`
	Currency             string         `json:"currency"`
	BalanceBefore        int64          `json:"balance_before"`
	BalanceAfter         int64          `json:"balance_after"`
	RelatedTransactionID *uuid.UUID     `json:"related_transaction_id,omitempty"`
	Description          string         `json:"description"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// NewLedgerEntry builds an entry for a money movement that has not yet been
// applied to a wallet. Balance captures are stamped by the wallet methods.
func NewLedgerEntry(userID uuid.UUID, entryType EntryType, direction EntryDirection, amount, fee int64, currency string) (*LedgerEntry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive, got %d", ErrInvalidEntry, amount)
	}
	if fee < 0 || fee > amount {
		return nil, fmt.Errorf("%w: fee %d out of range for amount %d", ErrInvalidEntry, fee, amount)
	}
	now := time.Now().UTC()
	return &LedgerEntry{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      entryType,
		Direction: direction,
		Status:    EntryPending,
		Amount:    amount,
		Fee:       fee,
		NetAmount: amount - fee,
		Currency:  currency,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// SignedMovement returns the balance delta this entry causes when settled.
// Debits remove the gross amount (principal plus fee) from the wallet; credits
// land the net amount, the fee having been skimmed before arrival. Either way
// the fee never transits the wallet as its own movement: an outbound fee rides
// inside the gross debit and an inbound fee is taken before funds land, so
// balanceAfter minus balanceBefore equals this value exactly, not the
// entry's face amount.
func (e *LedgerEntry) SignedMovement() int64 {
	if e.Direction == DirectionDebit {
		return -e.Amount
	}
	return e.NetAmount
}

// Validate checks the arithmetic invariants of an entry. Completed entries must
// show the balance moving by exactly the signed movement; entries that never
// settled must show no movement.
func (e *LedgerEntry) Validate() error {
	if e.NetAmount != e.Amount-e.Fee {
		return fmt.Errorf("%w: net %d != amount %d - fee %d", ErrInvalidEntry, e.NetAmount, e.Amount, e.Fee)
	}
	switch e.Status {
	case EntryCompleted:
		if e.BalanceAfter-e.BalanceBefore != e.SignedMovement() {
			return fmt.Errorf("%w: balance moved %d, expected %d", ErrInvalidEntry, e.BalanceAfter-e.BalanceBefore, e.SignedMovement())
		}
	case EntryPending, EntryFailed, EntryCancelled:
		if e.BalanceAfter != e.BalanceBefore {
			return fmt.Errorf("%w: %s entry must not move the balance", ErrInvalidEntry, e.Status)
		}
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidEntry, e.Status)
	}
	return nil
}

// WalletStatus gates mutation, not existence. Wallets are never deleted.
type WalletStatus string

const (
	WalletActive WalletStatus = "active"
	WalletFrozen WalletStatus = "frozen"
)

// Wallet is the per-user spendable balance aggregate. The invariant
// available == balance - locked holds before and after every operation.
type Wallet struct {
	UserID    uuid.UUID
	Currency  string
	Status    WalletStatus
	CreatedAt time.Time
	UpdatedAt time.Time

	balance int64
	locked  int64
}

// NewWallet creates an empty active wallet. Called once at user signup.
func NewWallet(userID uuid.UUID, currency string) *Wallet {
	now := time.Now().UTC()
	return &Wallet{
		UserID:    userID,
		Currency:  currency,
		Status:    WalletActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RehydrateWallet reconstructs a wallet from persisted state. For use by the
// storage layer only.
func RehydrateWallet(userID uuid.UUID, currency string, balance, locked int64, status WalletStatus, createdAt, updatedAt time.Time) *Wallet {
	return &Wallet{
		UserID:    userID,
		Currency:  currency,
		Status:    status,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
		balance:   balance,
		locked:    locked,
	}
}

// Balance returns the total balance in minor units.
func (w *Wallet) Balance() int64 { return w.balance }

// Locked returns the portion of the balance held against pending operations.
func (w *Wallet) Locked() int64 { return w.locked }

// Available returns the spendable balance: balance - locked.
func (w *Wallet) Available() int64 { return w.balance - w.locked }

func (w *Wallet) mutable() error {
	if w.Status == WalletFrozen {
		return ErrWalletFrozen
	}
	return nil
}

// ApplyEntry settles an entry against the wallet immediately, moving the
// balance and stamping the entry's before/after captures. Debits fail with
// ErrInsufficientFunds when the gross amount exceeds the available balance,
// leaving both wallet and entry untouched.
func (w *Wallet) ApplyEntry(e *LedgerEntry) error {
	if err := w.mutable(); err != nil {
		return err
	}
	if e.Status != EntryPending {
		return fmt.Errorf("%w: cannot apply %s entry", ErrInvalidEntry, e.Status)
	}
	if e.Direction == DirectionDebit && w.Available() < e.Amount {
		return ErrInsufficientFunds
	}
	e.BalanceBefore = w.balance
	w.balance += e.SignedMovement()
	e.BalanceAfter = w.balance
	e.Status = EntryCompleted
	e.UpdatedAt = time.Now().UTC()
	w.UpdatedAt = e.UpdatedAt
	return nil
}

// HoldForEntry reserves the gross amount of a pending debit without moving the
// balance. Used for withdrawals awaiting gateway confirmation.
func (w *Wallet) HoldForEntry(e *LedgerEntry) error {
	if err := w.mutable(); err != nil {
		return err
	}
	if e.Status != EntryPending || e.Direction != DirectionDebit {
		return fmt.Errorf("%w: hold requires a pending debit", ErrInvalidEntry)
	}
	if w.Available() < e.Amount {
		return ErrInsufficientFunds
	}
	w.locked += e.Amount
	e.BalanceBefore = w.balance
	e.BalanceAfter = w.balance
	e.UpdatedAt = time.Now().UTC()
	w.UpdatedAt = e.UpdatedAt
	return nil
}

// SettleHold completes a previously held entry: the hold is released, the
// balance is debited, and the entry captures the pre/post state at this
// instant, which is when the money actually moved.
func (w *Wallet) SettleHold(e *LedgerEntry) error {
	if e.Status != EntryPending {
		return fmt.Errorf("%w: cannot settle %s entry", ErrInvalidEntry, e.Status)
	}
	if w.locked < e.Amount {
		return fmt.Errorf("%w: hold of %d not found (locked=%d)", ErrInvalidEntry, e.Amount, w.locked)
	}
	w.locked -= e.Amount
	e.BalanceBefore = w.balance
	w.balance += e.SignedMovement()
	e.BalanceAfter = w.balance
	e.Status = EntryCompleted
	e.UpdatedAt = time.Now().UTC()
	w.UpdatedAt = e.UpdatedAt
	return nil
}

// VoidHold abandons a previously held entry, releasing the reserved funds and
// marking the entry with the given terminal status. No balance movement occurs.
func (w *Wallet) VoidHold(e *LedgerEntry, status EntryStatus) error {
	if e.Status != EntryPending {
		return fmt.Errorf("%w: cannot void %s entry", ErrInvalidEntry, e.Status)
	}
	if status != EntryFailed && status != EntryCancelled {
		return fmt.Errorf("%w: void status must be failed or cancelled", ErrInvalidEntry)
	}
	if w.locked < e.Amount {
		return fmt.Errorf("%w: hold of %d not found (locked=%d)", ErrInvalidEntry, e.Amount, w.locked)
	}
	w.locked -= e.Amount
	e.BalanceBefore = w.balance
	e.BalanceAfter = w.balance
	e.Status = status
	e.UpdatedAt = time.Now().UTC()
	w.UpdatedAt = e.UpdatedAt
	return nil
}
