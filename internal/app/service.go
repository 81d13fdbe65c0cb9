/**
 * @description
 * This file contains the core business logic for the savings service. The
 * `Service` struct orchestrates all money movement operations, coordinating
 * between the database repository, the payment gateway client, and the
 * message broker.
 *
 * Key features:
 * - Implements wallet funding (deposits) and withdrawals via the gateway.
 * - Withdrawals use a hold-then-settle lifecycle so funds stay reserved while
 *   the gateway payout is in flight and return to the wallet on failure.
 * - Publishes events to RabbitMQ for asynchronous processing by other services.
 *
 * @dependencies
 * - context, errors, fmt, log, time: Standard Go libraries.
 * - github.com/google/uuid: For UUID generation.
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/gatewayclient, pkg/rabbitmq: For external service communication.
 */

package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/sharjeelx567-pixel/save2740-sub005/internal/domain"
	"github.com/sharjeelx567-pixel/save2740-sub005/internal/store"
	"github.com/sharjeelx567-pixel/save2740-sub005/pkg/gatewayclient"
	"github.com/sharjeelx567-pixel/save2740-sub005/pkg/rabbitmq"
)

// DefaultDailyAmount is the default per-day savings contribution in minor
// units: $27.40, or $10,001 over a year.
const DefaultDailyAmount = 2740

// PaymentGateway is the subset of the gateway client the service needs.
// Declared here so tests can substitute a scripted gateway.
type PaymentGateway interface {
	Charge(ctx context.Context, req gatewayclient.ChargeRequest) (*gatewayclient.TransactionResponse, error)
	Payout(ctx context.Context, req gatewayclient.PayoutRequest) (*gatewayclient.TransactionResponse, error)
}

// Service provides the core business logic for the savings ledger.
type Service struct {
	repo          store.Repository
	gateway       PaymentGateway
	eventProducer rabbitmq.Publisher
	fees          *FeeService
	dailyAmount   int64
}

// NewService creates a new savings service instance.
func NewService(repo store.Repository, gateway PaymentGateway, producer rabbitmq.Publisher, fees *FeeService, dailyAmount int64) *Service {
	if dailyAmount <= 0 {
		dailyAmount = DefaultDailyAmount
	}
	return &Service{
		repo:          repo,
		gateway:       gateway,
		eventProducer: producer,
		fees:          fees,
		dailyAmount:   dailyAmount,
	}
}

// CreateWallet provisions an empty wallet for a new user.
func (s *Service) CreateWallet(ctx context.Context, userID uuid.UUID, currency string) (*domain.Wallet, error) {
	if currency == "" {
		currency = "USD"
	}
	wallet := domain.NewWallet(userID, currency)
	if err := s.repo.CreateWallet(ctx, wallet); err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	return wallet, nil
}

// GetWallet returns the user's wallet.
func (s *Service) GetWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	return s.repo.FindWalletByUserID(ctx, userID)
}

// Deposit pulls funds from the user's payment method through the gateway and
// credits the net amount to their wallet. The gateway captures the gross; the
// deposit fee is skimmed before the balance moves.
func (s *Service) Deposit(ctx context.Context, userID uuid.UUID, paymentMethodID string, amount int64) (*domain.LedgerEntry, error) {
	wallet, err := s.repo.FindWalletByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	feeResult, err := s.fees.CalculateFee(ctx, domain.EntryDeposit, wallet.Currency, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate deposit fee: %w", err)
	}

	entry, err := domain.NewLedgerEntry(userID, domain.EntryDeposit, domain.DirectionCredit, amount, feeResult.Fee, wallet.Currency)
	if err != nil {
		return nil, err
	}
	entry.Description = "Wallet deposit"

	resp, err := s.gateway.Charge(ctx, gatewayclient.ChargeRequest{
		PaymentMethodID: paymentMethodID,
		Amount:          amount,
		Currency:        wallet.Currency,
		Description:     "Wallet deposit",
		IdempotencyKey:  entry.ID.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("gateway charge failed: %w", err)
	}
	if !resp.Succeeded() {
		return nil, fmt.Errorf("gateway charge not settled: status=%s", resp.Status)
	}

	externalID, err := uuid.Parse(resp.ID)
	if err == nil {
		entry.RelatedTransactionID = &externalID
	}

	applied, err := s.repo.ApplyWalletEntry(ctx, entry)
	if err != nil {
		// The gateway already captured the money. This needs manual
		// reconciliation, so log loudly and surface the error.
		log.Printf("CRITICAL: gateway charge %s captured but wallet credit failed for user %s: %v", resp.ID, userID, err)
		return nil, fmt.Errorf("failed to credit wallet after gateway capture: %w", err)
	}
	return applied, nil
}

// Withdraw pushes funds from the wallet out to the user's payment method.
// The gross amount is held first; the gateway payout then settles or voids
// the hold, so a failed payout leaves the balance untouched.
func (s *Service) Withdraw(ctx context.Context, userID uuid.UUID, paymentMethodID string, amount int64) (*domain.LedgerEntry, error) {
	wallet, err := s.repo.FindWalletByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	feeResult, err := s.fees.CalculateFee(ctx, domain.EntryWithdrawal, wallet.Currency, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate withdrawal fee: %w", err)
	}

	entry, err := domain.NewLedgerEntry(userID, domain.EntryWithdrawal, domain.DirectionDebit, amount, feeResult.Fee, wallet.Currency)
	if err != nil {
		return nil, err
	}
	entry.Description = "Wallet withdrawal"

	held, err := s.repo.HoldWalletEntry(ctx, entry)
	if err != nil {
		return nil, err
	}

	resp, err := s.gateway.Payout(ctx, gatewayclient.PayoutRequest{
		PaymentMethodID: paymentMethodID,
		Amount:          entry.NetAmount,
		Currency:        wallet.Currency,
		Description:     "Wallet withdrawal",
		IdempotencyKey:  entry.ID.String(),
	})
	if err != nil || !resp.Succeeded() {
		if voided, voidErr := s.repo.VoidHeldEntry(ctx, held.ID, domain.EntryFailed); voidErr != nil {
			log.Printf("CRITICAL: failed to void withdrawal hold %s for user %s: %v", held.ID, userID, voidErr)
		} else {
			held = voided
		}
		if err != nil {
			return nil, fmt.Errorf("gateway payout failed: %w", err)
		}
		return nil, fmt.Errorf("gateway payout not settled: status=%s", resp.Status)
	}

	settled, err := s.repo.SettleHeldEntry(ctx, held.ID)
	if err != nil {
		log.Printf("CRITICAL: gateway payout %s settled but hold %s could not be finalized: %v", resp.ID, held.ID, err)
		return nil, fmt.Errorf("failed to settle withdrawal hold: %w", err)
	}
	return settled, nil
}

// GetLedgerEntry returns a single ledger entry.
func (s *Service) GetLedgerEntry(ctx context.Context, entryID uuid.UUID) (*domain.LedgerEntry, error) {
	return s.repo.FindLedgerEntryByID(ctx, entryID)
}

// ListLedgerHistory returns the user's ledger, newest first.
func (s *Service) ListLedgerHistory(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, error) {
	return s.repo.ListLedgerEntriesByUserID(ctx, userID, limit, offset)
}

// CreatePlanParams are the caller-supplied fields for a new savings plan.
type CreatePlanParams struct {
	Name               string
	TargetAmount       int64
	ContributionAmount int64
	Cadence            domain.PlanCadence
}

// CreatePlan creates a savings plan. A zero contribution amount falls back to
// the configured daily default.
func (s *Service) CreatePlan(ctx context.Context, userID uuid.UUID, params CreatePlanParams) (*domain.SavingsPlan, error) {
	if params.ContributionAmount == 0 {
		params.ContributionAmount = s.dailyAmount
	}
	plan, err := domain.NewSavingsPlan(userID, params.Name, params.TargetAmount, params.ContributionAmount, params.Cadence)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreatePlan(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}
	return plan, nil
}

// GetPlan returns a single savings plan.
func (s *Service) GetPlan(ctx context.Context, planID uuid.UUID) (*domain.SavingsPlan, error) {
	return s.repo.FindPlanByID(ctx, planID)
}

// ListPlans returns all of a user's savings plans.
func (s *Service) ListPlans(ctx context.Context, userID uuid.UUID) ([]domain.SavingsPlan, error) {
	return s.repo.ListPlansByUserID(ctx, userID)
}

// PausePlan suspends a plan from future allocation runs.
func (s *Service) PausePlan(ctx context.Context, planID, userID uuid.UUID) error {
	return s.repo.UpdatePlanStatus(ctx, planID, userID, domain.PlanPaused)
}

// ResumePlan re-enables a paused plan.
func (s *Service) ResumePlan(ctx context.Context, planID, userID uuid.UUID) error {
	return s.repo.UpdatePlanStatus(ctx, planID, userID, domain.PlanActive)
}

// CancelPlan terminally cancels a plan. Saved funds stay in the wallet.
func (s *Service) CancelPlan(ctx context.Context, planID, userID uuid.UUID) error {
	return s.repo.UpdatePlanStatus(ctx, planID, userID, domain.PlanCancelled)
}

// ContributeNow runs the allocation for a single plan immediately, outside
// the scheduled run. The same per-period idempotency guard applies.
func (s *Service) ContributeNow(ctx context.Context, planID uuid.UUID) (*store.PlanContribution, error) {
	return s.repo.ContributeToPlan(ctx, planID, time.Now().UTC())
}
