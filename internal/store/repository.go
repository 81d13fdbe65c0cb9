/**
 * @description
 * This file defines the `Repository` interface: the contract for all data
 * access the savings core needs. The interface deliberately exposes no way to
 * set a wallet balance directly: every balance-affecting method both moves
 * the balance and produces (or finalizes) a ledger entry atomically, so the
 * ledger and the wallet can never disagree.
 *
 * @dependencies
 * - github.com/google/uuid: For UUID handling.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sharjeelx567-pixel/save2740-sub005/internal/domain"
)

var (
	ErrWalletNotFound        = errors.New("wallet not found")
	ErrEntryNotFound         = errors.New("ledger entry not found")
	ErrPlanNotFound          = errors.New("savings plan not found")
	ErrPlanNotActive         = errors.New("savings plan is not active")
	ErrContributionNotDue    = errors.New("plan already contributed for this period")
	ErrScheduleNotFound      = errors.New("funding schedule not found")
	ErrGroupNotFound         = errors.New("group not found")
	ErrFeeDisclosureNotFound = errors.New("no fee disclosure matches")
)

// PlanContribution is the outcome of one atomic wallet-to-plan movement.
type PlanContribution struct {
	Plan  *domain.SavingsPlan
	Entry *domain.LedgerEntry
}

// GroupContribution is the outcome of one atomic wallet-to-group movement,
// including the round payout when the contribution completed a round.
type GroupContribution struct {
	Group       *domain.Group
	Entry       *domain.LedgerEntry
	Payout      *domain.RoundPayout
	PayoutEntry *domain.LedgerEntry
}

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Wallet and ledger methods. ApplyWalletEntry settles an entry against the
	// wallet immediately; HoldWalletEntry reserves funds for a pending debit;
	// SettleHeldEntry / VoidHeldEntry finalize a held entry. Each is a single
	// all-or-nothing transaction serialized on the wallet row.
	CreateWallet(ctx context.Context, wallet *domain.Wallet) error
	FindWalletByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	ApplyWalletEntry(ctx context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error)
	HoldWalletEntry(ctx context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error)
	SettleHeldEntry(ctx context.Context, entryID uuid.UUID) (*domain.LedgerEntry, error)
	VoidHeldEntry(ctx context.Context, entryID uuid.UUID, status domain.EntryStatus) (*domain.LedgerEntry, error)
	FindLedgerEntryByID(ctx context.Context, entryID uuid.UUID) (*domain.LedgerEntry, error)
	ListLedgerEntriesByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, error)

	// Savings plan methods. ContributeToPlan performs the whole daily
	// allocation for one plan in a single transaction: due-date guard, wallet
	// debit, ledger append, and plan progress update (clamp and complete).
	CreatePlan(ctx context.Context, plan *domain.SavingsPlan) error
	FindPlanByID(ctx context.Context, planID uuid.UUID) (*domain.SavingsPlan, error)
	ListPlansByUserID(ctx context.Context, userID uuid.UUID) ([]domain.SavingsPlan, error)
	ListActivePlans(ctx context.Context) ([]domain.SavingsPlan, error)
	UpdatePlanStatus(ctx context.Context, planID, userID uuid.UUID, status domain.PlanStatus) error
	ContributeToPlan(ctx context.Context, planID uuid.UUID, runTime time.Time) (*PlanContribution, error)

	// Funding schedule methods. RecordFundingDeposit credits the wallet and
	// advances the schedule in one transaction after a successful gateway
	// charge; UpdateFundingSchedule persists failure/reactivation state.
	CreateFundingSchedule(ctx context.Context, schedule *domain.FundingSchedule) error
	FindFundingScheduleByID(ctx context.Context, scheduleID uuid.UUID) (*domain.FundingSchedule, error)
	ListDueFundingSchedules(ctx context.Context, now time.Time) ([]domain.FundingSchedule, error)
	UpdateFundingSchedule(ctx context.Context, schedule *domain.FundingSchedule) error
	RecordFundingDeposit(ctx context.Context, schedule *domain.FundingSchedule, entry *domain.LedgerEntry) (*domain.LedgerEntry, error)

	// Group methods. AddGroupMember and ContributeToGroup lock the group row
	// (and, for contributions, the wallet rows) for the duration of the state
	// transition.
	CreateGroup(ctx context.Context, group *domain.Group) error
	FindGroupByID(ctx context.Context, groupID uuid.UUID) (*domain.Group, error)
	FindGroupByJoinCode(ctx context.Context, joinCode string) (*domain.Group, error)
	ListGroupsByMember(ctx context.Context, userID uuid.UUID) ([]domain.Group, error)
	AddGroupMember(ctx context.Context, groupID, userID uuid.UUID) (*domain.Group, error)
	ContributeToGroup(ctx context.Context, groupID, userID uuid.UUID, amount, fee int64) (*GroupContribution, error)

	// Fee disclosure methods.
	CreateFeeDisclosure(ctx context.Context, disclosure *domain.FeeDisclosure) error
	FindActiveFeeDisclosure(ctx context.Context, txType domain.EntryType, currency string, at time.Time) (*domain.FeeDisclosure, error)
}
