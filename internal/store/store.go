package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foxcode/shorter/internal/models"
)

// Store is the persistence boundary for accounts, shortlinks, ledger entries
// and payment requests. Repositories obtained from the Store passed to an InTx callback
// share that transaction; calling InTx on such a Store joins the outer
// transaction instead of opening a new one.
type Store interface {
	Accounts() AccountRepository
	Shortlinks() ShortlinkRepository
	Entries() LedgerEntryRepository
	Payments() PaymentRepository

	// InTx runs fn in one storage transaction. The transaction commits when
	// fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(tx Store) error) error

	Close() error
}

// AccountRepository persists wallet accounts.
type AccountRepository interface {
	// Create inserts the account unless the identity already exists.
	// created is false when another row already holds the identity.
	Create(ctx context.Context, a *models.Account) (created bool, err error)
	GetByIdentity(ctx context.Context, identity string) (*models.Account, error)
	// LockByIdentity reads the account and holds a row lock until the
	// surrounding transaction ends.
	LockByIdentity(ctx context.Context, identity string) (*models.Account, error)
	// UpdateBalance writes newBalance if the row still carries version.
	// Returns models.ErrVersionConflict otherwise.
	UpdateBalance(ctx context.Context, id int64, newBalance decimal.Decimal, version int, at time.Time) error
	UpdateStatus(ctx context.Context, identity, status string, at time.Time) error
}

// ShortlinkRepository persists shortlinks and the short code reservations.
type ShortlinkRepository interface {
	// ReserveCode claims code forever. reserved is false if the code was
	// ever claimed before.
	ReserveCode(ctx context.Context, code string, at time.Time) (reserved bool, err error)
	Insert(ctx context.Context, l *models.Shortlink) error
	GetByCode(ctx context.Context, code string) (*models.Shortlink, error)
	LockByCode(ctx context.Context, code string) (*models.Shortlink, error)
	// RecordHit increments the click counter and returns the new count.
	RecordHit(ctx context.Context, id int64, at time.Time) (int64, error)
	MarkExpired(ctx context.Context, id int64) error
	// ExpireOverdue marks active links whose expiry is at or before now as
	// expired. accountID limits the sweep to one owner when non-zero.
	ExpireOverdue(ctx context.Context, now time.Time, accountID int64) (int64, error)
	ListByAccount(ctx context.Context, accountID int64) ([]models.Shortlink, error)
	Delete(ctx context.Context, id int64) error
}

// LedgerEntryRepository persists the balance mutation history.
type LedgerEntryRepository interface {
	Append(ctx context.Context, e *models.LedgerEntry) error
	ListByAccount(ctx context.Context, accountID int64, limit int) ([]models.LedgerEntry, error)
}

// PaymentRepository persists top-up requests.
type PaymentRepository interface {
	Insert(ctx context.Context, p *models.Payment) error
	GetByID(ctx context.Context, id int64) (*models.Payment, error)
	// LockByID reads the payment and holds a row lock until the surrounding
	// transaction ends.
	LockByID(ctx context.Context, id int64) (*models.Payment, error)
	// Resolve moves a pending payment to status. It returns
	// models.ErrAlreadyProcessed when the payment is no longer pending.
	Resolve(ctx context.Context, id int64, status, processedBy, notes string, at time.Time) error
	// List returns payments newest first. accountID 0 means every account and
	// an empty status means every status.
	List(ctx context.Context, accountID int64, status string, limit int) ([]models.Payment, error)
}
