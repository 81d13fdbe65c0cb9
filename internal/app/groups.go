/**
 * @description
 * Rotating savings group (osusu) service: create, join by invite code, and
 * contribute. Contributions are rejected until the circle is at full
 * membership; completed rounds pay the pool out to the rotating recipient.
 */

package app

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sharjeelx567-pixel/save2740-sub005/internal/domain"
	"github.com/sharjeelx567-pixel/save2740-sub005/internal/store"
	"github.com/sharjeelx567-pixel/save2740-sub005/pkg/rabbitmq"
)

// ContributionRateLimiter throttles how often one member may submit
// contributions to a single group. A nil limiter disables throttling.
type ContributionRateLimiter interface {
	AllowContribution(ctx context.Context, groupID, userID uuid.UUID) (allowed bool, retryAfterSeconds int, err error)
}

// ErrRateLimited is returned when a user submits contributions too quickly.
var ErrRateLimited = fmt.Errorf("too many contribution attempts")

// GroupService provides the rotating-group business logic.
type GroupService struct {
	repo     store.Repository
	producer rabbitmq.Publisher
	fees     *FeeService
	limiter  ContributionRateLimiter
	logger   *slog.Logger
}

// NewGroupService creates a new group service. limiter may be nil.
func NewGroupService(repo store.Repository, producer rabbitmq.Publisher, fees *FeeService, limiter ContributionRateLimiter, logger *slog.Logger) *GroupService {
	return &GroupService{repo: repo, producer: producer, fees: fees, limiter: limiter, logger: logger}
}

// CreateGroupParams are the caller-supplied fields for a new group.
type CreateGroupParams struct {
	Name               string
	MaxMembers         int
	ContributionAmount int64
	Currency           string
	Frequency          domain.FundingFrequency
}

// CreateGroup creates a group with the creator as its first member.
func (s *GroupService) CreateGroup(ctx context.Context, creatorID uuid.UUID, params CreateGroupParams) (*domain.Group, error) {
	if params.Name == "" {
		return nil, fmt.Errorf("group name is required")
	}
	if params.MaxMembers < 2 {
		return nil, fmt.Errorf("a group needs at least 2 members, got %d", params.MaxMembers)
	}
	if params.ContributionAmount <= 0 {
		return nil, fmt.Errorf("contribution amount must be positive, got %d", params.ContributionAmount)
	}
	switch params.Frequency {
	case "":
		params.Frequency = domain.FundingWeekly
	case domain.FundingWeekly, domain.FundingMonthly:
	default:
		return nil, fmt.Errorf("unknown group frequency %q", params.Frequency)
	}
	if params.Currency == "" {
		params.Currency = "USD"
	}

	joinCode, err := newJoinCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate join code: %w", err)
	}

	now := time.Now().UTC()
	group := &domain.Group{
		ID:                 uuid.New(),
		CreatorID:          creatorID,
		Name:               params.Name,
		JoinCode:           joinCode,
		Status:             domain.GroupOpen,
		MaxMembers:         params.MaxMembers,
		ContributionAmount: params.ContributionAmount,
		Currency:           params.Currency,
		Frequency:          params.Frequency,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if _, err := group.AddMember(creatorID, now); err != nil {
		return nil, err
	}
	if err := s.repo.CreateGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	s.logger.Info("group created", "group_id", group.ID, "creator_id", creatorID, "max_members", group.MaxMembers)
	return group, nil
}

// joinCodeAlphabet omits ambiguous characters (0/O, 1/I/L).
const joinCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

func newJoinCode() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = joinCodeAlphabet[int(b)%len(joinCodeAlphabet)]
	}
	return string(buf), nil
}

// GetGroup returns a group with its members and rounds.
func (s *GroupService) GetGroup(ctx context.Context, groupID uuid.UUID) (*domain.Group, error) {
	return s.repo.FindGroupByID(ctx, groupID)
}

// ListGroups returns every group the user belongs to.
func (s *GroupService) ListGroups(ctx context.Context, userID uuid.UUID) ([]domain.Group, error) {
	return s.repo.ListGroupsByMember(ctx, userID)
}

// JoinGroup adds the user to the group behind the invite code. Filling the
// last seat locks membership and lays out the payout rotation.
func (s *GroupService) JoinGroup(ctx context.Context, userID uuid.UUID, joinCode string) (*domain.Group, error) {
	group, err := s.repo.FindGroupByJoinCode(ctx, joinCode)
	if err != nil {
		return nil, err
	}
	joined, err := s.repo.AddGroupMember(ctx, group.ID, userID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("member joined group",
		"group_id", joined.ID, "user_id", userID,
		"members", joined.CurrentMembers, "status", joined.Status)
	return joined, nil
}

// Contribute moves one member's per-round contribution from their wallet into
// the group pool. The wallet is debited the contribution plus its fee; the
// pool receives the contribution. Completing a round pays the pool out to the
// round's recipient and publishes a payout event.
func (s *GroupService) Contribute(ctx context.Context, groupID, userID uuid.UUID) (*store.GroupContribution, error) {
	if s.limiter != nil {
		allowed, retryAfter, err := s.limiter.AllowContribution(ctx, groupID, userID)
		if err != nil {
			s.logger.Warn("contribution rate limiter unavailable; allowing request", "user_id", userID, "error", err)
		} else if !allowed {
			return nil, fmt.Errorf("%w: retry after %ds", ErrRateLimited, retryAfter)
		}
	}

	group, err := s.repo.FindGroupByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.ReadyForContributions() {
		return nil, domain.ErrGroupNotReady
	}

	feeResult, err := s.fees.CalculateFee(ctx, domain.EntryTransfer, group.Currency, group.ContributionAmount)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate contribution fee: %w", err)
	}

	result, err := s.repo.ContributeToGroup(ctx, groupID, userID, group.ContributionAmount, feeResult.Fee)
	if err != nil {
		return nil, err
	}

	s.logger.Info("group contribution recorded",
		"group_id", groupID, "user_id", userID,
		"amount", group.ContributionAmount, "fee", feeResult.Fee)

	if result.Payout != nil {
		s.logger.Info("group round paid out",
			"group_id", groupID, "round", result.Payout.RoundNumber,
			"recipient_id", result.Payout.RecipientID, "amount", result.Payout.Amount)
		event := rabbitmq.RoundPayoutEvent{
			GroupID:     groupID,
			RoundNumber: result.Payout.RoundNumber,
			RecipientID: result.Payout.RecipientID,
			Amount:      result.Payout.Amount,
			Timestamp:   time.Now().UTC(),
		}
		if err := s.producer.Publish(ctx, rabbitmq.EventsExchange, rabbitmq.KeyGroupRoundPaidOut, event); err != nil {
			s.logger.Warn("failed to publish round payout event", "group_id", groupID, "error", err)
		}
	}
	return result, nil
}
