/**
 * @description
 * PostgreSQL implementation of the `Repository` interface: wallet and ledger
 * operations. Every balance-affecting method runs inside a single database
 * transaction with the wallet row locked via `SELECT ... FOR UPDATE`, so
 * concurrent mutations against the same wallet serialize and the ledger entry
 * and the balance change commit or roll back together.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sharjeelx567-pixel/save2740-sub005/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

// PostgresRepository is a concrete implementation of the Repository interface.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema applies the embedded schema idempotently.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, schemaSQL)
	return err
}

// CreateWallet inserts a new wallet row. Called once at user signup.
func (r *PostgresRepository) CreateWallet(ctx context.Context, wallet *domain.Wallet) error {
	query := `
		INSERT INTO wallets (user_id, currency, balance, locked, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		wallet.UserID, wallet.Currency, wallet.Balance(), wallet.Locked(),
		wallet.Status, wallet.CreatedAt, wallet.UpdatedAt)
	return err
}

// FindWalletByUserID retrieves a wallet without locking it.
func (r *PostgresRepository) FindWalletByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	return r.scanWallet(ctx, r.db, userID, false)
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *PostgresRepository) scanWallet(ctx context.Context, q queryRower, userID uuid.UUID, forUpdate bool) (*domain.Wallet, error) {
	query := `SELECT user_id, currency, balance, locked, status, created_at, updated_at FROM wallets WHERE user_id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}
	var (
		id                   uuid.UUID
		currency, status     string
		balance, locked      int64
		createdAt, updatedAt time.Time
	)
	err := q.QueryRow(ctx, query, userID).Scan(&id, &currency, &balance, &locked, &status, &createdAt, &updatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return domain.RehydrateWallet(id, currency, balance, locked, domain.WalletStatus(status), createdAt, updatedAt), nil
}

// lockWallet loads the wallet row inside tx with a row lock held until commit.
func (r *PostgresRepository) lockWallet(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*domain.Wallet, error) {
	return r.scanWallet(ctx, tx, userID, true)
}

func (r *PostgresRepository) saveWallet(ctx context.Context, tx pgx.Tx, w *domain.Wallet) error {
	query := `UPDATE wallets SET balance = $1, locked = $2, status = $3, updated_at = $4 WHERE user_id = $5`
	_, err := tx.Exec(ctx, query, w.Balance(), w.Locked(), w.Status, w.UpdatedAt, w.UserID)
	return err
}

func (r *PostgresRepository) insertEntry(ctx context.Context, tx pgx.Tx, e *domain.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (
			id, user_id, type, direction, status, amount, fee, net_amount, currency,
			balance_before, balance_after, related_transaction_id, description, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := tx.Exec(ctx, query,
		e.ID, e.UserID, e.Type, e.Direction, e.Status, e.Amount, e.Fee, e.NetAmount, e.Currency,
		e.BalanceBefore, e.BalanceAfter, e.RelatedTransactionID, e.Description, e.CreatedAt, e.UpdatedAt)
	return err
}

func (r *PostgresRepository) finalizeEntry(ctx context.Context, tx pgx.Tx, e *domain.LedgerEntry) error {
	// Only the status transition and the balance captures at settlement time
	// are writable; everything else is append-only.
	query := `
		UPDATE ledger_entries
		SET status = $1, balance_before = $2, balance_after = $3, updated_at = $4
		WHERE id = $5
	`
	_, err := tx.Exec(ctx, query, e.Status, e.BalanceBefore, e.BalanceAfter, e.UpdatedAt, e.ID)
	return err
}

// ApplyWalletEntry settles a ledger entry against the wallet immediately:
// lock, validate, move balance, append entry, commit. Insufficient funds roll
// the whole transaction back with no state change anywhere.
func (r *PostgresRepository) ApplyWalletEntry(ctx context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	wallet, err := r.lockWallet(ctx, tx, entry.UserID)
	if err != nil {
		return nil, err
	}
	if err := wallet.ApplyEntry(entry); err != nil {
		return nil, err
	}
	if err := r.saveWallet(ctx, tx, wallet); err != nil {
		return nil, err
	}
	if err := r.insertEntry(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return entry, nil
}

// HoldWalletEntry records a pending debit and reserves its gross amount
// against the wallet's available balance.
func (r *PostgresRepository) HoldWalletEntry(ctx context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	wallet, err := r.lockWallet(ctx, tx, entry.UserID)
	if err != nil {
		return nil, err
	}
	if err := wallet.HoldForEntry(entry); err != nil {
		return nil, err
	}
	if err := r.saveWallet(ctx, tx, wallet); err != nil {
		return nil, err
	}
	if err := r.insertEntry(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return entry, nil
}

// SettleHeldEntry completes a previously held entry, releasing the hold and
// debiting the balance at this instant.
func (r *PostgresRepository) SettleHeldEntry(ctx context.Context, entryID uuid.UUID) (*domain.LedgerEntry, error) {
	return r.resolveHeldEntry(ctx, entryID, domain.EntryCompleted)
}

// VoidHeldEntry abandons a previously held entry with the given terminal
// status; the reserved funds return to the available balance.
func (r *PostgresRepository) VoidHeldEntry(ctx context.Context, entryID uuid.UUID, status domain.EntryStatus) (*domain.LedgerEntry, error) {
	return r.resolveHeldEntry(ctx, entryID, status)
}

func (r *PostgresRepository) resolveHeldEntry(ctx context.Context, entryID uuid.UUID, status domain.EntryStatus) (*domain.LedgerEntry, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	entry, err := r.scanEntry(ctx, tx, `SELECT `+entryColumns+` FROM ledger_entries WHERE id = $1 FOR UPDATE`, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Status != domain.EntryPending {
		return nil, fmt.Errorf("%w: entry %s is %s, not pending", domain.ErrInvalidEntry, entryID, entry.Status)
	}

	wallet, err := r.lockWallet(ctx, tx, entry.UserID)
	if err != nil {
		return nil, err
	}
	if status == domain.EntryCompleted {
		err = wallet.SettleHold(entry)
	} else {
		err = wallet.VoidHold(entry, status)
	}
	if err != nil {
		return nil, err
	}
	if err := r.saveWallet(ctx, tx, wallet); err != nil {
		return nil, err
	}
	if err := r.finalizeEntry(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return entry, nil
}

const entryColumns = `id, user_id, type, direction, status, amount, fee, net_amount, currency,
	balance_before, balance_after, related_transaction_id, description, created_at, updated_at`

func (r *PostgresRepository) scanEntry(ctx context.Context, q queryRower, query string, args ...any) (*domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	err := q.QueryRow(ctx, query, args...).Scan(
		&e.ID, &e.UserID, &e.Type, &e.Direction, &e.Status, &e.Amount, &e.Fee, &e.NetAmount, &e.Currency,
		&e.BalanceBefore, &e.BalanceAfter, &e.RelatedTransactionID, &e.Description, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrEntryNotFound
		}
		return nil, err
	}
	return &e, nil
}

// FindLedgerEntryByID retrieves a single ledger entry.
func (r *PostgresRepository) FindLedgerEntryByID(ctx context.Context, entryID uuid.UUID) (*domain.LedgerEntry, error) {
	return r.scanEntry(ctx, r.db, `SELECT `+entryColumns+` FROM ledger_entries WHERE id = $1`, entryID)
}

// ListLedgerEntriesByUserID returns a user's ledger history, newest first.
func (r *PostgresRepository) ListLedgerEntriesByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := `SELECT ` + entryColumns + ` FROM ledger_entries WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.Type, &e.Direction, &e.Status, &e.Amount, &e.Fee, &e.NetAmount, &e.Currency,
			&e.BalanceBefore, &e.BalanceAfter, &e.RelatedTransactionID, &e.Description, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
