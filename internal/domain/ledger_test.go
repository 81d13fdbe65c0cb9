package domain

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestNewLedgerEntryValidation(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name    string
		amount  int64
		fee     int64
		wantErr bool
	}{
		{name: "valid entry", amount: 10000, fee: 320},
		{name: "zero fee", amount: 2740, fee: 0},
		{name: "fee equal to amount", amount: 100, fee: 100},
		{name: "zero amount", amount: 0, fee: 0, wantErr: true},
		{name: "negative amount", amount: -50, fee: 0, wantErr: true},
		{name: "negative fee", amount: 100, fee: -1, wantErr: true},
		{name: "fee exceeds amount", amount: 100, fee: 101, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			entry, err := NewLedgerEntry(userID, EntryDeposit, DirectionCredit, tc.amount, tc.fee, "USD")
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidEntry) {
					t.Fatalf("expected ErrInvalidEntry, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if entry.Status != EntryPending {
				t.Errorf("new entry status = %s, want pending", entry.Status)
			}
			if entry.NetAmount != tc.amount-tc.fee {
				t.Errorf("net = %d, want %d", entry.NetAmount, tc.amount-tc.fee)
			}
		})
	}
}

func TestSignedMovement(t *testing.T) {
	userID := uuid.New()

	credit, err := NewLedgerEntry(userID, EntryDeposit, DirectionCredit, 10000, 320, "USD")
	if err != nil {
		t.Fatal(err)
	}
	if got := credit.SignedMovement(); got != 9680 {
		t.Errorf("credit movement = %d, want 9680 (net lands, fee skimmed)", got)
	}

	debit, err := NewLedgerEntry(userID, EntryWithdrawal, DirectionDebit, 10000, 320, "USD")
	if err != nil {
		t.Fatal(err)
	}
	if got := debit.SignedMovement(); got != -10000 {
		t.Errorf("debit movement = %d, want -10000 (gross leaves)", got)
	}
}

func fundedWallet(t *testing.T, balance int64) *Wallet {
	t.Helper()
	w := NewWallet(uuid.New(), "USD")
	entry, err := NewLedgerEntry(w.UserID, EntryDeposit, DirectionCredit, balance, 0, "USD")
	if err != nil {
		t.Fatal(err)
	}
	if err := w.ApplyEntry(entry); err != nil {
		t.Fatal(err)
	}
	return w
}

func TestApplyEntryCreditThenDebit(t *testing.T) {
	w := fundedWallet(t, 10000)
	if w.Balance() != 10000 || w.Available() != 10000 {
		t.Fatalf("after credit: balance=%d available=%d", w.Balance(), w.Available())
	}

	debit, err := NewLedgerEntry(w.UserID, EntrySavingsContribution, DirectionDebit, 2740, 0, "USD")
	if err != nil {
		t.Fatal(err)
	}
	if err := w.ApplyEntry(debit); err != nil {
		t.Fatal(err)
	}
	if w.Balance() != 7260 {
		t.Errorf("balance = %d, want 7260", w.Balance())
	}
	if debit.BalanceBefore != 10000 || debit.BalanceAfter != 7260 {
		t.Errorf("captures = %d/%d, want 10000/7260", debit.BalanceBefore, debit.BalanceAfter)
	}
	if debit.Status != EntryCompleted {
		t.Errorf("status = %s, want completed", debit.Status)
	}
	if err := debit.Validate(); err != nil {
		t.Errorf("settled entry failed validation: %v", err)
	}
}

func TestApplyEntryInsufficientFunds(t *testing.T) {
	w := fundedWallet(t, 1000)
	debit, err := NewLedgerEntry(w.UserID, EntryWithdrawal, DirectionDebit, 2740, 0, "USD")
	if err != nil {
		t.Fatal(err)
	}
	if err := w.ApplyEntry(debit); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if w.Balance() != 1000 {
		t.Errorf("failed debit moved the balance: %d", w.Balance())
	}
	if debit.Status != EntryPending {
		t.Errorf("failed debit changed entry status: %s", debit.Status)
	}
}

func TestApplyEntryFrozenWallet(t *testing.T) {
	w := fundedWallet(t, 5000)
	w.Status = WalletFrozen

	debit, err := NewLedgerEntry(w.UserID, EntryWithdrawal, DirectionDebit, 100, 0, "USD")
	if err != nil {
		t.Fatal(err)
	}
	if err := w.ApplyEntry(debit); !errors.Is(err, ErrWalletFrozen) {
		t.Fatalf("expected ErrWalletFrozen, got %v", err)
	}
}

func TestHoldSettleLifecycle(t *testing.T) {
	w := fundedWallet(t, 10000)

	hold, err := NewLedgerEntry(w.UserID, EntryWithdrawal, DirectionDebit, 4000, 100, "USD")
	if err != nil {
		t.Fatal(err)
	}
	if err := w.HoldForEntry(hold); err != nil {
		t.Fatal(err)
	}
	if w.Balance() != 10000 || w.Locked() != 4000 || w.Available() != 6000 {
		t.Fatalf("after hold: balance=%d locked=%d available=%d", w.Balance(), w.Locked(), w.Available())
	}
	if err := hold.Validate(); err != nil {
		t.Errorf("pending hold failed validation: %v", err)
	}

	// Held funds are not spendable.
	overdraw, err := NewLedgerEntry(w.UserID, EntryWithdrawal, DirectionDebit, 6001, 0, "USD")
	if err != nil {
		t.Fatal(err)
	}
	if err := w.ApplyEntry(overdraw); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds against held funds, got %v", err)
	}

	if err := w.SettleHold(hold); err != nil {
		t.Fatal(err)
	}
	if w.Balance() != 6000 || w.Locked() != 0 {
		t.Fatalf("after settle: balance=%d locked=%d", w.Balance(), w.Locked())
	}
	if hold.Status != EntryCompleted {
		t.Errorf("settled hold status = %s", hold.Status)
	}
	if err := hold.Validate(); err != nil {
		t.Errorf("settled hold failed validation: %v", err)
	}
}

func TestVoidHoldReleasesFunds(t *testing.T) {
	w := fundedWallet(t, 10000)

	hold, err := NewLedgerEntry(w.UserID, EntryWithdrawal, DirectionDebit, 4000, 0, "USD")
	if err != nil {
		t.Fatal(err)
	}
	if err := w.HoldForEntry(hold); err != nil {
		t.Fatal(err)
	}
	if err := w.VoidHold(hold, EntryFailed); err != nil {
		t.Fatal(err)
	}
	if w.Balance() != 10000 || w.Locked() != 0 || w.Available() != 10000 {
		t.Fatalf("after void: balance=%d locked=%d available=%d", w.Balance(), w.Locked(), w.Available())
	}
	if hold.Status != EntryFailed {
		t.Errorf("voided hold status = %s, want failed", hold.Status)
	}
	if err := hold.Validate(); err != nil {
		t.Errorf("voided hold failed validation: %v", err)
	}

	if err := w.VoidHold(hold, EntryCancelled); !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("double void should fail, got %v", err)
	}
}

func TestHoldRequiresPendingDebit(t *testing.T) {
	w := fundedWallet(t, 10000)

	credit, err := NewLedgerEntry(w.UserID, EntryDeposit, DirectionCredit, 100, 0, "USD")
	if err != nil {
		t.Fatal(err)
	}
	if err := w.HoldForEntry(credit); !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("hold on a credit should fail, got %v", err)
	}
}
