package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foxcode/shorter/internal/models"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// PostgresStore implements Store on database/sql with the lib/pq driver.
type PostgresStore struct {
	db *sql.DB
	q  querier
	tx *sql.Tx
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, q: db}
}

func (s *PostgresStore) Accounts() AccountRepository     { return &pgAccounts{q: s.q} }
func (s *PostgresStore) Shortlinks() ShortlinkRepository { return &pgShortlinks{q: s.q} }
func (s *PostgresStore) Entries() LedgerEntryRepository  { return &pgEntries{q: s.q} }
func (s *PostgresStore) Payments() PaymentRepository     { return &pgPayments{q: s.q} }
func (s *PostgresStore) Close() error                    { return s.db.Close() }

func (s *PostgresStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(err)
	}

	if err := fn(&PostgresStore{db: s.db, q: tx, tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Printf("[STORE] CRITICAL: rollback failed after error %v: %v", err, rbErr)
			return &RollbackError{Cause: err, RollbackErr: rbErr}
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return classify(err)
	}
	return nil
}

// Accounts

type pgAccounts struct {
	q querier
}

const accountColumns = `id, identity, display_name, balance, status, version, created_at, updated_at`

func scanAccount(row rowScanner) (*models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.Identity, &a.DisplayName, &a.Balance, &a.Status, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, classify(err)
	}
	return &a, nil
}

func (r *pgAccounts) Create(ctx context.Context, a *models.Account) (bool, error) {
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO accounts (identity, display_name, balance, status, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 1, $5, $5)
		ON CONFLICT (identity) DO NOTHING
		RETURNING id, version`,
		a.Identity, a.DisplayName, a.Balance, a.Status, a.CreatedAt).Scan(&a.ID, &a.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, classify(err)
	}
	a.UpdatedAt = a.CreatedAt
	return true, nil
}

func (r *pgAccounts) GetByIdentity(ctx context.Context, identity string) (*models.Account, error) {
	return scanAccount(r.q.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE identity = $1`, identity))
}

func (r *pgAccounts) LockByIdentity(ctx context.Context, identity string) (*models.Account, error) {
	return scanAccount(r.q.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE identity = $1
		FOR UPDATE`, identity))
}

func (r *pgAccounts) UpdateBalance(ctx context.Context, id int64, newBalance decimal.Decimal, version int, at time.Time) error {
	result, err := r.q.ExecContext(ctx, `
		UPDATE accounts
		SET balance = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4`,
		newBalance, at, id, version)
	if err != nil {
		return classify(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return classify(err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w for account %d", models.ErrVersionConflict, id)
	}
	return nil
}

func (r *pgAccounts) UpdateStatus(ctx context.Context, identity, status string, at time.Time) error {
	result, err := r.q.ExecContext(ctx, `
		UPDATE accounts
		SET status = $1, updated_at = $2
		WHERE identity = $3`,
		status, at, identity)
	if err != nil {
		return classify(err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Shortlinks

type pgShortlinks struct {
	q querier
}

const shortlinkColumns = `id, account_id, destination_url, short_code, status, clicks, debit_reference, created_at, expires_at, last_clicked_at`

func scanShortlink(row rowScanner) (*models.Shortlink, error) {
	var l models.Shortlink
	var expiresAt, lastClickedAt sql.NullTime
	err := row.Scan(&l.ID, &l.AccountID, &l.DestinationURL, &l.ShortCode, &l.Status, &l.Clicks,
		&l.DebitReference, &l.CreatedAt, &expiresAt, &lastClickedAt)
	if err != nil {
		return nil, classify(err)
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		l.ExpiresAt = &t
	}
	if lastClickedAt.Valid {
		t := lastClickedAt.Time
		l.LastClickedAt = &t
	}
	return &l, nil
}

func (r *pgShortlinks) ReserveCode(ctx context.Context, code string, at time.Time) (bool, error) {
	var reserved string
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO short_codes (code, reserved_at)
		VALUES ($1, $2)
		ON CONFLICT (code) DO NOTHING
		RETURNING code`, code, at).Scan(&reserved)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, classify(err)
	}
	return true, nil
}

func (r *pgShortlinks) Insert(ctx context.Context, l *models.Shortlink) error {
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO shortlinks (account_id, destination_url, short_code, status, clicks, debit_reference, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		l.AccountID, l.DestinationURL, l.ShortCode, l.Status, l.Clicks, l.DebitReference, l.CreatedAt, l.ExpiresAt).Scan(&l.ID)
	return classify(err)
}

func (r *pgShortlinks) GetByCode(ctx context.Context, code string) (*models.Shortlink, error) {
	return scanShortlink(r.q.QueryRowContext(ctx, `
		SELECT `+shortlinkColumns+`
		FROM shortlinks
		WHERE short_code = $1`, code))
}

func (r *pgShortlinks) LockByCode(ctx context.Context, code string) (*models.Shortlink, error) {
	return scanShortlink(r.q.QueryRowContext(ctx, `
		SELECT `+shortlinkColumns+`
		FROM shortlinks
		WHERE short_code = $1
		FOR UPDATE`, code))
}

func (r *pgShortlinks) RecordHit(ctx context.Context, id int64, at time.Time) (int64, error) {
	var clicks int64
	err := r.q.QueryRowContext(ctx, `
		UPDATE shortlinks
		SET clicks = clicks + 1, last_clicked_at = $1
		WHERE id = $2
		RETURNING clicks`, at, id).Scan(&clicks)
	if err != nil {
		return 0, classify(err)
	}
	return clicks, nil
}

func (r *pgShortlinks) MarkExpired(ctx context.Context, id int64) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE shortlinks
		SET status = $1
		WHERE id = $2`, models.LinkStatusExpired, id)
	return classify(err)
}

func (r *pgShortlinks) ExpireOverdue(ctx context.Context, now time.Time, accountID int64) (int64, error) {
	query := `
		UPDATE shortlinks
		SET status = $1
		WHERE status = $2 AND expires_at IS NOT NULL AND expires_at <= $3`
	args := []any{models.LinkStatusExpired, models.LinkStatusActive, now}
	if accountID != 0 {
		query += ` AND account_id = $4`
		args = append(args, accountID)
	}

	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, classify(err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

func (r *pgShortlinks) ListByAccount(ctx context.Context, accountID int64) ([]models.Shortlink, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT `+shortlinkColumns+`
		FROM shortlinks
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC`, accountID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	links := []models.Shortlink{}
	for rows.Next() {
		l, err := scanShortlink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, *l)
	}
	return links, classify(rows.Err())
}

func (r *pgShortlinks) Delete(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM shortlinks WHERE id = $1`, id)
	if err != nil {
		return classify(err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Ledger entries

type pgEntries struct {
	q querier
}

func (r *pgEntries) Append(ctx context.Context, e *models.LedgerEntry) error {
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO ledger_entries (account_id, reference, entry_type, amount, balance_after, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		e.AccountID, e.Reference, e.EntryType, e.Amount, e.BalanceAfter, e.Description, e.CreatedAt).Scan(&e.ID)
	return classify(err)
}

func (r *pgEntries) ListByAccount(ctx context.Context, accountID int64, limit int) ([]models.LedgerEntry, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, account_id, reference, entry_type, amount, balance_after, description, created_at
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, accountID, limit)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	entries := []models.LedgerEntry{}
	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(&e.ID, &e.AccountID, &e.Reference, &e.EntryType, &e.Amount, &e.BalanceAfter, &e.Description, &e.CreatedAt); err != nil {
			return nil, classify(err)
		}
		entries = append(entries, e)
	}
	return entries, classify(rows.Err())
}

// Payments

type pgPayments struct {
	q querier
}

const paymentSelect = `
		SELECT p.id, p.account_id, a.identity, p.amount, p.method, p.payment_proof, p.status,
			p.created_at, p.processed_at, p.processed_by, p.notes
		FROM payments p
		JOIN accounts a ON a.id = p.account_id`

func scanPayment(row rowScanner) (*models.Payment, error) {
	var p models.Payment
	var processedAt sql.NullTime
	err := row.Scan(&p.ID, &p.AccountID, &p.Identity, &p.Amount, &p.Method, &p.Proof, &p.Status,
		&p.CreatedAt, &processedAt, &p.ProcessedBy, &p.Notes)
	if err != nil {
		return nil, classify(err)
	}
	if processedAt.Valid {
		t := processedAt.Time
		p.ProcessedAt = &t
	}
	return &p, nil
}

func (r *pgPayments) Insert(ctx context.Context, p *models.Payment) error {
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO payments (account_id, amount, method, payment_proof, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		p.AccountID, p.Amount, p.Method, p.Proof, p.Status, p.CreatedAt).Scan(&p.ID)
	return classify(err)
}

func (r *pgPayments) GetByID(ctx context.Context, id int64) (*models.Payment, error) {
	return scanPayment(r.q.QueryRowContext(ctx, paymentSelect+`
		WHERE p.id = $1`, id))
}

func (r *pgPayments) LockByID(ctx context.Context, id int64) (*models.Payment, error) {
	return scanPayment(r.q.QueryRowContext(ctx, paymentSelect+`
		WHERE p.id = $1
		FOR UPDATE OF p`, id))
}

func (r *pgPayments) Resolve(ctx context.Context, id int64, status, processedBy, notes string, at time.Time) error {
	result, err := r.q.ExecContext(ctx, `
		UPDATE payments
		SET status = $1, processed_by = $2, notes = $3, processed_at = $4
		WHERE id = $5 AND status = $6`,
		status, processedBy, notes, at, id, models.PaymentStatusPending)
	if err != nil {
		return classify(err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: payment %d", models.ErrAlreadyProcessed, id)
	}
	return nil
}

func (r *pgPayments) List(ctx context.Context, accountID int64, status string, limit int) ([]models.Payment, error) {
	query := paymentSelect + `
		WHERE ($1 = 0 OR p.account_id = $1) AND ($2 = '' OR p.status = $2)
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $3`
	rows, err := r.q.QueryContext(ctx, query, accountID, status, limit)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, classify(rows.Err())
}

var _ Store = (*PostgresStore)(nil)
