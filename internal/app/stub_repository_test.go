package app

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sharjeelx567-pixel/save2740-sub005/internal/domain"
	"github.com/sharjeelx567-pixel/save2740-sub005/internal/store"
	"github.com/sharjeelx567-pixel/save2740-sub005/pkg/gatewayclient"
)

// stubRepository is an in-memory Repository backed by the domain types, so
// its money math matches the real store. Error fields let tests script
// failures for specific operations.
type stubRepository struct {
	wallets     map[uuid.UUID]*domain.Wallet
	entries     map[uuid.UUID]*domain.LedgerEntry
	entryOrder  []uuid.UUID
	plans       map[uuid.UUID]*domain.SavingsPlan
	schedules   map[uuid.UUID]*domain.FundingSchedule
	groups      map[uuid.UUID]*domain.Group
	disclosures []*domain.FeeDisclosure

	listPlansErr     error
	listSchedulesErr error
	contributeErr    error
}

func newStubRepository() *stubRepository {
	return &stubRepository{
		wallets:   make(map[uuid.UUID]*domain.Wallet),
		entries:   make(map[uuid.UUID]*domain.LedgerEntry),
		plans:     make(map[uuid.UUID]*domain.SavingsPlan),
		schedules: make(map[uuid.UUID]*domain.FundingSchedule),
		groups:    make(map[uuid.UUID]*domain.Group),
	}
}

func (s *stubRepository) CreateWallet(ctx context.Context, wallet *domain.Wallet) error {
	s.wallets[wallet.UserID] = wallet
	return nil
}

func (s *stubRepository) FindWalletByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	wallet, ok := s.wallets[userID]
	if !ok {
		return nil, store.ErrWalletNotFound
	}
	return wallet, nil
}

func (s *stubRepository) recordEntry(e *domain.LedgerEntry) {
	s.entries[e.ID] = e
	s.entryOrder = append(s.entryOrder, e.ID)
}

func (s *stubRepository) ApplyWalletEntry(ctx context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
	wallet, ok := s.wallets[entry.UserID]
	if !ok {
		return nil, store.ErrWalletNotFound
	}
	if err := wallet.ApplyEntry(entry); err != nil {
		return nil, err
	}
	s.recordEntry(entry)
	return entry, nil
}

func (s *stubRepository) HoldWalletEntry(ctx context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
	wallet, ok := s.wallets[entry.UserID]
	if !ok {
		return nil, store.ErrWalletNotFound
	}
	if err := wallet.HoldForEntry(entry); err != nil {
		return nil, err
	}
	s.recordEntry(entry)
	return entry, nil
}

func (s *stubRepository) SettleHeldEntry(ctx context.Context, entryID uuid.UUID) (*domain.LedgerEntry, error) {
	entry, ok := s.entries[entryID]
	if !ok {
		return nil, store.ErrEntryNotFound
	}
	wallet := s.wallets[entry.UserID]
	if err := wallet.SettleHold(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *stubRepository) VoidHeldEntry(ctx context.Context, entryID uuid.UUID, status domain.EntryStatus) (*domain.LedgerEntry, error) {
	entry, ok := s.entries[entryID]
	if !ok {
		return nil, store.ErrEntryNotFound
	}
	wallet := s.wallets[entry.UserID]
	if err := wallet.VoidHold(entry, status); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *stubRepository) FindLedgerEntryByID(ctx context.Context, entryID uuid.UUID) (*domain.LedgerEntry, error) {
	entry, ok := s.entries[entryID]
	if !ok {
		return nil, store.ErrEntryNotFound
	}
	return entry, nil
}

func (s *stubRepository) ListLedgerEntriesByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, error) {
	var out []domain.LedgerEntry
	for i := len(s.entryOrder) - 1; i >= 0; i-- {
		e := s.entries[s.entryOrder[i]]
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *stubRepository) CreatePlan(ctx context.Context, plan *domain.SavingsPlan) error {
	s.plans[plan.ID] = plan
	return nil
}

func (s *stubRepository) FindPlanByID(ctx context.Context, planID uuid.UUID) (*domain.SavingsPlan, error) {
	plan, ok := s.plans[planID]
	if !ok {
		return nil, store.ErrPlanNotFound
	}
	return plan, nil
}

func (s *stubRepository) ListPlansByUserID(ctx context.Context, userID uuid.UUID) ([]domain.SavingsPlan, error) {
	var out []domain.SavingsPlan
	for _, p := range s.plans {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *stubRepository) ListActivePlans(ctx context.Context) ([]domain.SavingsPlan, error) {
	if s.listPlansErr != nil {
		return nil, s.listPlansErr
	}
	var out []domain.SavingsPlan
	for _, p := range s.plans {
		if p.Status == domain.PlanActive {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *stubRepository) UpdatePlanStatus(ctx context.Context, planID, userID uuid.UUID, status domain.PlanStatus) error {
	plan, ok := s.plans[planID]
	if !ok || plan.UserID != userID {
		return store.ErrPlanNotFound
	}
	plan.Status = status
	return nil
}

func (s *stubRepository) ContributeToPlan(ctx context.Context, planID uuid.UUID, runTime time.Time) (*store.PlanContribution, error) {
	if s.contributeErr != nil {
		return nil, s.contributeErr
	}
	plan, ok := s.plans[planID]
	if !ok {
		return nil, store.ErrPlanNotFound
	}
	if plan.Status != domain.PlanActive {
		return nil, store.ErrPlanNotActive
	}
	if !plan.ContributionDue(runTime) {
		return nil, store.ErrContributionNotDue
	}
	amount := plan.NextContributionAmount()
	if amount <= 0 {
		plan.Status = domain.PlanCompleted
		return nil, store.ErrContributionNotDue
	}
	wallet, ok := s.wallets[plan.UserID]
	if !ok {
		return nil, store.ErrWalletNotFound
	}
	entry, err := domain.NewLedgerEntry(plan.UserID, domain.EntrySavingsContribution, domain.DirectionDebit, amount, 0, wallet.Currency)
	if err != nil {
		return nil, err
	}
	if err := wallet.ApplyEntry(entry); err != nil {
		return nil, err
	}
	plan.ApplyContribution(amount, runTime)
	s.recordEntry(entry)
	return &store.PlanContribution{Plan: plan, Entry: entry}, nil
}

func (s *stubRepository) CreateFundingSchedule(ctx context.Context, schedule *domain.FundingSchedule) error {
	s.schedules[schedule.ID] = schedule
	return nil
}

func (s *stubRepository) FindFundingScheduleByID(ctx context.Context, scheduleID uuid.UUID) (*domain.FundingSchedule, error) {
	schedule, ok := s.schedules[scheduleID]
	if !ok {
		return nil, store.ErrScheduleNotFound
	}
	return schedule, nil
}

func (s *stubRepository) ListDueFundingSchedules(ctx context.Context, now time.Time) ([]domain.FundingSchedule, error) {
	if s.listSchedulesErr != nil {
		return nil, s.listSchedulesErr
	}
	var out []domain.FundingSchedule
	for _, sched := range s.schedules {
		if sched.Due(now) {
			out = append(out, *sched)
		}
	}
	return out, nil
}

func (s *stubRepository) UpdateFundingSchedule(ctx context.Context, schedule *domain.FundingSchedule) error {
	if _, ok := s.schedules[schedule.ID]; !ok {
		return store.ErrScheduleNotFound
	}
	s.schedules[schedule.ID] = schedule
	return nil
}

func (s *stubRepository) RecordFundingDeposit(ctx context.Context, schedule *domain.FundingSchedule, entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
	wallet, ok := s.wallets[entry.UserID]
	if !ok {
		return nil, store.ErrWalletNotFound
	}
	if err := wallet.ApplyEntry(entry); err != nil {
		return nil, err
	}
	s.recordEntry(entry)
	s.schedules[schedule.ID] = schedule
	return entry, nil
}

func (s *stubRepository) CreateGroup(ctx context.Context, group *domain.Group) error {
	s.groups[group.ID] = group
	return nil
}

func (s *stubRepository) FindGroupByID(ctx context.Context, groupID uuid.UUID) (*domain.Group, error) {
	group, ok := s.groups[groupID]
	if !ok {
		return nil, store.ErrGroupNotFound
	}
	return group, nil
}

func (s *stubRepository) FindGroupByJoinCode(ctx context.Context, joinCode string) (*domain.Group, error) {
	for _, g := range s.groups {
		if g.JoinCode == joinCode {
			return g, nil
		}
	}
	return nil, store.ErrGroupNotFound
}

func (s *stubRepository) ListGroupsByMember(ctx context.Context, userID uuid.UUID) ([]domain.Group, error) {
	var out []domain.Group
	for _, g := range s.groups {
		if g.MemberByUserID(userID) != nil {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (s *stubRepository) AddGroupMember(ctx context.Context, groupID, userID uuid.UUID) (*domain.Group, error) {
	group, ok := s.groups[groupID]
	if !ok {
		return nil, store.ErrGroupNotFound
	}
	if _, err := group.AddMember(userID, time.Now()); err != nil {
		return nil, err
	}
	return group, nil
}

func (s *stubRepository) ContributeToGroup(ctx context.Context, groupID, userID uuid.UUID, amount, fee int64) (*store.GroupContribution, error) {
	group, ok := s.groups[groupID]
	if !ok {
		return nil, store.ErrGroupNotFound
	}
	payout, err := group.ApplyContribution(userID, amount, time.Now())
	if err != nil {
		return nil, err
	}
	wallet, ok := s.wallets[userID]
	if !ok {
		return nil, store.ErrWalletNotFound
	}
	entry, err := domain.NewLedgerEntry(userID, domain.EntryTransfer, domain.DirectionDebit, amount+fee, fee, wallet.Currency)
	if err != nil {
		return nil, err
	}
	if err := wallet.ApplyEntry(entry); err != nil {
		return nil, err
	}
	s.recordEntry(entry)

	result := &store.GroupContribution{Group: group, Entry: entry, Payout: payout}
	if payout != nil {
		recipient, ok := s.wallets[payout.RecipientID]
		if !ok {
			return nil, store.ErrWalletNotFound
		}
		payoutEntry, err := domain.NewLedgerEntry(payout.RecipientID, domain.EntryTransfer, domain.DirectionCredit, payout.Amount, 0, recipient.Currency)
		if err != nil {
			return nil, err
		}
		if err := recipient.ApplyEntry(payoutEntry); err != nil {
			return nil, err
		}
		s.recordEntry(payoutEntry)
		result.PayoutEntry = payoutEntry
	}
	return result, nil
}

func (s *stubRepository) CreateFeeDisclosure(ctx context.Context, disclosure *domain.FeeDisclosure) error {
	s.disclosures = append(s.disclosures, disclosure)
	return nil
}

func (s *stubRepository) FindActiveFeeDisclosure(ctx context.Context, txType domain.EntryType, currency string, at time.Time) (*domain.FeeDisclosure, error) {
	var best *domain.FeeDisclosure
	for _, d := range s.disclosures {
		if d.TransactionType != txType || d.Currency != currency || !d.ActiveAt(at) {
			continue
		}
		if best == nil || d.EffectiveDate.After(best.EffectiveDate) {
			best = d
		}
	}
	if best == nil {
		return nil, store.ErrFeeDisclosureNotFound
	}
	return best, nil
}

// fundWallet seeds a wallet with an opening balance.
func (s *stubRepository) fundWallet(userID uuid.UUID, balance int64) *domain.Wallet {
	wallet := domain.NewWallet(userID, "USD")
	if balance > 0 {
		entry, err := domain.NewLedgerEntry(userID, domain.EntryDeposit, domain.DirectionCredit, balance, 0, "USD")
		if err != nil {
			panic(err)
		}
		if err := wallet.ApplyEntry(entry); err != nil {
			panic(err)
		}
	}
	s.wallets[userID] = wallet
	return wallet
}

// scriptedGateway is a PaymentGateway whose outcomes are preset per test.
type scriptedGateway struct {
	chargeErr    error
	chargeStatus string
	payoutErr    error
	payoutStatus string
	chargeCalls  []gatewayclient.ChargeRequest
	payoutCalls  []gatewayclient.PayoutRequest
}

func (g *scriptedGateway) Charge(ctx context.Context, req gatewayclient.ChargeRequest) (*gatewayclient.TransactionResponse, error) {
	g.chargeCalls = append(g.chargeCalls, req)
	if g.chargeErr != nil {
		return nil, g.chargeErr
	}
	status := g.chargeStatus
	if status == "" {
		status = "succeeded"
	}
	return &gatewayclient.TransactionResponse{
		ID:     uuid.NewString(),
		Status: status,
		Amount: req.Amount,
	}, nil
}

func (g *scriptedGateway) Payout(ctx context.Context, req gatewayclient.PayoutRequest) (*gatewayclient.TransactionResponse, error) {
	g.payoutCalls = append(g.payoutCalls, req)
	if g.payoutErr != nil {
		return nil, g.payoutErr
	}
	status := g.payoutStatus
	if status == "" {
		status = "succeeded"
	}
	return &gatewayclient.TransactionResponse{
		ID:     uuid.NewString(),
		Status: status,
		Amount: req.Amount,
	}, nil
}

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	published []publishedEvent
}

type publishedEvent struct {
	exchange   string
	routingKey string
	body       interface{}
}

func (p *recordingPublisher) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	p.published = append(p.published, publishedEvent{exchange: exchange, routingKey: routingKey, body: body})
	return nil
}

func (p *recordingPublisher) Close() {}

func (p *recordingPublisher) keys() []string {
	out := make([]string, 0, len(p.published))
	for _, e := range p.published {
		out = append(out, e.routingKey)
	}
	return out
}
