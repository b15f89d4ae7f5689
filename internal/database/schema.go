package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is idempotent. short_codes rows are never deleted so a code stays
// claimed after its shortlink is removed.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id BIGSERIAL PRIMARY KEY,
		identity VARCHAR(128) NOT NULL UNIQUE,
		display_name VARCHAR(255) NOT NULL DEFAULT '',
		balance NUMERIC(20, 4) NOT NULL DEFAULT 0 CHECK (balance >= 0),
		status VARCHAR(16) NOT NULL DEFAULT 'active',
		version INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS short_codes (
		code VARCHAR(32) PRIMARY KEY,
		reserved_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS shortlinks (
		id BIGSERIAL PRIMARY KEY,
		account_id BIGINT NOT NULL REFERENCES accounts(id),
		destination_url TEXT NOT NULL,
		short_code VARCHAR(32) NOT NULL UNIQUE REFERENCES short_codes(code),
		status VARCHAR(16) NOT NULL DEFAULT 'active',
		clicks BIGINT NOT NULL DEFAULT 0,
		debit_reference VARCHAR(64) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ,
		last_clicked_at TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_shortlinks_account ON shortlinks (account_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_shortlinks_expiry ON shortlinks (expires_at) WHERE status = 'active'`,
	`CREATE TABLE IF NOT EXISTS ledger_entries (
		id BIGSERIAL PRIMARY KEY,
		account_id BIGINT NOT NULL REFERENCES accounts(id),
		reference VARCHAR(64) NOT NULL,
		entry_type VARCHAR(16) NOT NULL,
		amount NUMERIC(20, 4) NOT NULL CHECK (amount >= 0),
		balance_after NUMERIC(20, 4) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_entries_account ON ledger_entries (account_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS payments (
		id BIGSERIAL PRIMARY KEY,
		account_id BIGINT NOT NULL REFERENCES accounts(id),
		amount NUMERIC(20, 4) NOT NULL CHECK (amount > 0),
		method VARCHAR(32) NOT NULL DEFAULT 'manual',
		payment_proof TEXT NOT NULL DEFAULT '',
		status VARCHAR(16) NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL,
		processed_at TIMESTAMPTZ,
		processed_by VARCHAR(128) NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_status ON payments (status, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_account ON payments (account_id, created_at DESC)`,
}

// Migrate creates the tables the store needs.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
