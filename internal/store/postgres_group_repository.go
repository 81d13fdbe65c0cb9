/**
 * @description
 * PostgreSQL repository methods for rotating savings groups. Group state
 * transitions (join, contribute, payout) lock the group row for the duration,
 * so two members contributing at the same instant serialize and the round
 * accounting stays exact. Round contribution lists are stored as JSONB since
 * they are only ever read and written as a whole with their round.
 */

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sharjeelx567-pixel/save2740-sub005/internal/domain"
)

const groupColumns = `id, creator_id, name, join_code, status, max_members, current_members,
	contribution_amount, currency, frequency, total_balance, total_contributed, created_at, updated_at`

// CreateGroup inserts a new group and its creator as the first member.
func (r *PostgresRepository) CreateGroup(ctx context.Context, group *domain.Group) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO groups (
			id, creator_id, name, join_code, status, max_members, current_members,
			contribution_amount, currency, frequency, total_balance, total_contributed, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err = tx.Exec(ctx, query,
		group.ID, group.CreatorID, group.Name, group.JoinCode, group.Status,
		group.MaxMembers, group.CurrentMembers, group.ContributionAmount, group.Currency,
		group.Frequency, group.TotalBalance, group.TotalContributed, group.CreatedAt, group.UpdatedAt)
	if err != nil {
		return err
	}
	for _, m := range group.Members {
		if err := r.insertGroupMember(ctx, tx, group.ID, &m); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func scanGroup(row pgx.Row) (*domain.Group, error) {
	var g domain.Group
	err := row.Scan(
		&g.ID, &g.CreatorID, &g.Name, &g.JoinCode, &g.Status, &g.MaxMembers, &g.CurrentMembers,
		&g.ContributionAmount, &g.Currency, &g.Frequency, &g.TotalBalance, &g.TotalContributed,
		&g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return &g, nil
}

// FindGroupByID retrieves a group with its members and rounds.
func (r *PostgresRepository) FindGroupByID(ctx context.Context, groupID uuid.UUID) (*domain.Group, error) {
	group, err := scanGroup(r.db.QueryRow(ctx, `SELECT `+groupColumns+` FROM groups WHERE id = $1`, groupID))
	if err != nil {
		return nil, err
	}
	if err := r.loadGroupChildren(ctx, r.db, group); err != nil {
		return nil, err
	}
	return group, nil
}

// FindGroupByJoinCode resolves an invite code to its group.
func (r *PostgresRepository) FindGroupByJoinCode(ctx context.Context, joinCode string) (*domain.Group, error) {
	group, err := scanGroup(r.db.QueryRow(ctx, `SELECT `+groupColumns+` FROM groups WHERE join_code = $1`, joinCode))
	if err != nil {
		return nil, err
	}
	if err := r.loadGroupChildren(ctx, r.db, group); err != nil {
		return nil, err
	}
	return group, nil
}

// ListGroupsByMember returns all groups the user belongs to, without the
// per-group member and round detail.
func (r *PostgresRepository) ListGroupsByMember(ctx context.Context, userID uuid.UUID) ([]domain.Group, error) {
	query := `
		SELECT ` + groupColumns + `
		FROM groups g
		JOIN group_members gm ON gm.group_id = g.id
		WHERE gm.user_id = $1
		ORDER BY g.created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []domain.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, *g)
	}
	return groups, rows.Err()
}

type querier interface {
	queryRower
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *PostgresRepository) loadGroupChildren(ctx context.Context, q querier, group *domain.Group) error {
	memberQuery := `
		SELECT user_id, joined_at, total_contributed, payout_position
		FROM group_members WHERE group_id = $1 ORDER BY payout_position
	`
	rows, err := q.Query(ctx, memberQuery, group.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	group.Members = group.Members[:0]
	for rows.Next() {
		var m domain.GroupMember
		if err := rows.Scan(&m.UserID, &m.JoinedAt, &m.TotalContributed, &m.PayoutPosition); err != nil {
			return err
		}
		group.Members = append(group.Members, m)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	roundQuery := `
		SELECT round_number, recipient_id, due_date, status, contributions, total_contributed, expected_total
		FROM group_rounds WHERE group_id = $1 ORDER BY round_number
	`
	rows, err = q.Query(ctx, roundQuery, group.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	group.Rounds = group.Rounds[:0]
	for rows.Next() {
		var (
			round    domain.GroupRound
			contribs []byte
		)
		if err := rows.Scan(&round.RoundNumber, &round.RecipientID, &round.DueDate,
			&round.Status, &contribs, &round.TotalContributed, &round.ExpectedTotal); err != nil {
			return err
		}
		if err := json.Unmarshal(contribs, &round.Contributions); err != nil {
			return err
		}
		group.Rounds = append(group.Rounds, round)
	}
	return rows.Err()
}

func (r *PostgresRepository) insertGroupMember(ctx context.Context, tx pgx.Tx, groupID uuid.UUID, m *domain.GroupMember) error {
	query := `
		INSERT INTO group_members (group_id, user_id, joined_at, total_contributed, payout_position)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := tx.Exec(ctx, query, groupID, m.UserID, m.JoinedAt, m.TotalContributed, m.PayoutPosition)
	return err
}

func (r *PostgresRepository) saveGroup(ctx context.Context, tx pgx.Tx, g *domain.Group) error {
	query := `
		UPDATE groups
		SET status = $1, current_members = $2, total_balance = $3, total_contributed = $4, updated_at = $5
		WHERE id = $6
	`
	_, err := tx.Exec(ctx, query, g.Status, g.CurrentMembers, g.TotalBalance, g.TotalContributed, g.UpdatedAt, g.ID)
	return err
}

func (r *PostgresRepository) saveGroupRound(ctx context.Context, tx pgx.Tx, groupID uuid.UUID, round *domain.GroupRound) error {
	contribs, err := json.Marshal(round.Contributions)
	if err != nil {
		return err
	}
	if contribs == nil {
		contribs = []byte("[]")
	}
	query := `
		INSERT INTO group_rounds (group_id, round_number, recipient_id, due_date, status, contributions, total_contributed, expected_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (group_id, round_number) DO UPDATE
		SET due_date = EXCLUDED.due_date, status = EXCLUDED.status,
			contributions = EXCLUDED.contributions, total_contributed = EXCLUDED.total_contributed
	`
	_, err = tx.Exec(ctx, query, groupID, round.RoundNumber, round.RecipientID, round.DueDate,
		round.Status, contribs, round.TotalContributed, round.ExpectedTotal)
	return err
}

func (r *PostgresRepository) lockGroup(ctx context.Context, tx pgx.Tx, groupID uuid.UUID) (*domain.Group, error) {
	group, err := scanGroup(tx.QueryRow(ctx, `SELECT `+groupColumns+` FROM groups WHERE id = $1 FOR UPDATE`, groupID))
	if err != nil {
		return nil, err
	}
	if err := r.loadGroupChildren(ctx, tx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// AddGroupMember joins a user to a group. Filling the last seat lays out the
// full round schedule inside the same transaction.
func (r *PostgresRepository) AddGroupMember(ctx context.Context, groupID, userID uuid.UUID) (*domain.Group, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	group, err := r.lockGroup(ctx, tx, groupID)
	if err != nil {
		return nil, err
	}
	member, err := group.AddMember(userID, time.Now())
	if err != nil {
		return nil, err
	}
	if err := r.insertGroupMember(ctx, tx, group.ID, member); err != nil {
		return nil, err
	}
	if err := r.saveGroup(ctx, tx, group); err != nil {
		return nil, err
	}
	for i := range group.Rounds {
		if err := r.saveGroupRound(ctx, tx, group.ID, &group.Rounds[i]); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return group, nil
}

// walletLockOrder returns the distinct owner IDs sorted by their UUID bytes.
// Every transaction that locks more than one wallet row acquires the locks in
// this order, so two concurrent transactions touching the same pair of wallets
// cannot deadlock by locking them in opposite directions.
func walletLockOrder(ids ...uuid.UUID) []uuid.UUID {
	ordered := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(ordered, id) {
			ordered = append(ordered, id)
		}
	}
	slices.SortFunc(ordered, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
	return ordered
}

// ContributeToGroup moves one member's contribution from their wallet into the
// group pool. The contributor's wallet is debited the gross amount (pool
// amount plus fee) while the pool receives the net. When the contribution
// completes the current round, the recipient's wallet is credited the payout
// in the same transaction, so the pool drawdown and the payout cannot diverge.
func (r *PostgresRepository) ContributeToGroup(ctx context.Context, groupID, userID uuid.UUID, amount, fee int64) (*GroupContribution, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	group, err := r.lockGroup(ctx, tx, groupID)
	if err != nil {
		return nil, err
	}
	payout, err := group.ApplyContribution(userID, amount, time.Now())
	if err != nil {
		return nil, err
	}

	owners := []uuid.UUID{userID}
	if payout != nil {
		owners = append(owners, payout.RecipientID)
	}
	wallets := make(map[uuid.UUID]*domain.Wallet, len(owners))
	for _, ownerID := range walletLockOrder(owners...) {
		w, err := r.lockWallet(ctx, tx, ownerID)
		if err != nil {
			return nil, err
		}
		wallets[ownerID] = w
	}

	wallet := wallets[userID]
	entry, err := domain.NewLedgerEntry(userID, domain.EntryTransfer, domain.DirectionDebit, amount+fee, fee, wallet.Currency)
	if err != nil {
		return nil, err
	}
	entry.RelatedTransactionID = &group.ID
	entry.Description = "Group contribution: " + group.Name
	if err := wallet.ApplyEntry(entry); err != nil {
		return nil, err
	}
	if err := r.saveWallet(ctx, tx, wallet); err != nil {
		return nil, err
	}
	if err := r.insertEntry(ctx, tx, entry); err != nil {
		return nil, err
	}

	result := &GroupContribution{Group: group, Entry: entry, Payout: payout}
	if payout != nil {
		// Already locked above; for a self-payout this is the same wallet, so
		// the credit chains onto the debit's balance.
		recipientWallet := wallets[payout.RecipientID]
		payoutEntry, err := domain.NewLedgerEntry(payout.RecipientID, domain.EntryTransfer, domain.DirectionCredit, payout.Amount, 0, recipientWallet.Currency)
		if err != nil {
			return nil, err
		}
		payoutEntry.RelatedTransactionID = &group.ID
		payoutEntry.Description = "Group round payout: " + group.Name
		if err := recipientWallet.ApplyEntry(payoutEntry); err != nil {
			return nil, err
		}
		if err := r.saveWallet(ctx, tx, recipientWallet); err != nil {
			return nil, err
		}
		if err := r.insertEntry(ctx, tx, payoutEntry); err != nil {
			return nil, err
		}
		result.PayoutEntry = payoutEntry
	}

	memberUpdate := `UPDATE group_members SET total_contributed = $1 WHERE group_id = $2 AND user_id = $3`
	member := group.MemberByUserID(userID)
	if _, err := tx.Exec(ctx, memberUpdate, member.TotalContributed, group.ID, userID); err != nil {
		return nil, err
	}
	if err := r.saveGroup(ctx, tx, group); err != nil {
		return nil, err
	}
	for i := range group.Rounds {
		if err := r.saveGroupRound(ctx, tx, group.ID, &group.Rounds[i]); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return result, nil
}
