package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/foxcode/shorter/internal/audit"
	"github.com/foxcode/shorter/internal/models"
	"github.com/foxcode/shorter/internal/store"
)

// Balance adjustment directions
const (
	AdjustAdd    = "add"
	AdjustDeduct = "deduct"
)

// maxTxAttempts bounds retries of a standalone ledger transaction that lost an
// optimistic version check.
const maxTxAttempts = 3

// LedgerService owns account balances. Every balance change happens under the
// account row lock, is guarded by the row version and appends a ledger entry.
type LedgerService struct {
	store   store.Store
	audit   *audit.Logger
	nowFunc func() time.Time
}

func NewLedgerService(st store.Store, auditLogger *audit.Logger) *LedgerService {
	return &LedgerService{
		store:   st,
		audit:   auditLogger,
		nowFunc: time.Now,
	}
}

// EnsureAccount returns the account for identity, creating it with a zero
// balance on first contact. created reports whether this call inserted it.
func (s *LedgerService) EnsureAccount(ctx context.Context, identity, displayName string) (*models.Account, bool, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return nil, false, fmt.Errorf("%w: identity is required", models.ErrInvalidInput)
	}

	now := s.nowFunc()
	account := &models.Account{
		Identity:    identity,
		DisplayName: strings.TrimSpace(displayName),
		Balance:     decimal.Zero,
		Status:      models.AccountStatusActive,
		CreatedAt:   now,
	}

	created, err := s.store.Accounts().Create(ctx, account)
	if err != nil {
		return nil, false, err
	}
	if created {
		log.Printf("[LEDGER] account created - identity: %s, id: %d", identity, account.ID)
		return account, true, nil
	}

	existing, err := s.store.Accounts().GetByIdentity(ctx, identity)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (s *LedgerService) GetAccount(ctx context.Context, identity string) (*models.Account, error) {
	return s.store.Accounts().GetByIdentity(ctx, identity)
}

func (s *LedgerService) GetBalance(ctx context.Context, identity string) (decimal.Decimal, error) {
	account, err := s.GetAccount(ctx, identity)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// TryDebit takes amount from the account or fails with ErrInsufficientFunds
// leaving the balance untouched.
func (s *LedgerService) TryDebit(ctx context.Context, identity string, amount decimal.Decimal, description string) (*models.LedgerEntry, error) {
	reference := uuid.NewString()

	var account *models.Account
	var entry *models.LedgerEntry
	err := s.retryTx(ctx, func(tx store.Store) error {
		var err error
		account, entry, err = s.TryDebitTx(ctx, tx, identity, amount, reference, description)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogDebit(reference, account.Identity, amount, entry.BalanceAfter, map[string]string{"description": description})
	return entry, nil
}

// TryDebitTx is TryDebit inside the caller's transaction. The returned account
// reflects the debited balance.
func (s *LedgerService) TryDebitTx(ctx context.Context, tx store.Store, identity string, amount decimal.Decimal, reference, description string) (*models.Account, *models.LedgerEntry, error) {
	if amount.IsNegative() {
		return nil, nil, fmt.Errorf("%w: debit amount must not be negative", models.ErrInvalidInput)
	}

	account, err := tx.Accounts().LockByIdentity(ctx, identity)
	if err != nil {
		return nil, nil, err
	}
	if !account.IsActive() {
		return nil, nil, fmt.Errorf("%w: account %s is %s", models.ErrAccountInactive, identity, account.Status)
	}
	if account.Balance.LessThan(amount) {
		return nil, nil, models.ErrInsufficientFunds
	}

	entry, err := s.apply(ctx, tx, account, account.Balance.Sub(amount), amount, models.EntryTypeDebit, reference, description)
	if err != nil {
		return nil, nil, err
	}
	return account, entry, nil
}

// Credit adds a positive amount to the balance.
func (s *LedgerService) Credit(ctx context.Context, identity string, amount decimal.Decimal, description string) (*models.LedgerEntry, error) {
	reference := uuid.NewString()

	var entry *models.LedgerEntry
	err := s.retryTx(ctx, func(tx store.Store) error {
		var err error
		entry, err = s.CreditTx(ctx, tx, identity, amount, reference, description)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.audit.LogCredit(reference, identity, amount, entry.BalanceAfter)
	return entry, nil
}

// CreditTx is Credit inside the caller's transaction. Auditing is left to the
// caller, which knows when the transaction commits.
func (s *LedgerService) CreditTx(ctx context.Context, tx store.Store, identity string, amount decimal.Decimal, reference, description string) (*models.LedgerEntry, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: credit amount must be positive", models.ErrInvalidInput)
	}

	account, err := tx.Accounts().LockByIdentity(ctx, identity)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, tx, account, account.Balance.Add(amount), amount, models.EntryTypeCredit, reference, description)
}

// AdjustBalance applies an administrative add or deduct. A deduct larger than
// the balance leaves the balance at zero.
func (s *LedgerService) AdjustBalance(ctx context.Context, identity string, amount decimal.Decimal, action string) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: adjustment amount must be positive", models.ErrInvalidInput)
	}
	if action != AdjustAdd && action != AdjustDeduct {
		return decimal.Zero, fmt.Errorf("%w: action must be %q or %q", models.ErrInvalidInput, AdjustAdd, AdjustDeduct)
	}
	reference := uuid.NewString()

	var entry *models.LedgerEntry
	var applied decimal.Decimal
	err := s.retryTx(ctx, func(tx store.Store) error {
		account, err := tx.Accounts().LockByIdentity(ctx, identity)
		if err != nil {
			return err
		}

		newBalance := account.Balance.Add(amount)
		entryType := models.EntryTypeAdjustCredit
		if action == AdjustDeduct {
			newBalance = decimal.Max(decimal.Zero, account.Balance.Sub(amount))
			entryType = models.EntryTypeAdjustDebit
		}
		applied = newBalance.Sub(account.Balance).Abs()

		entry, err = s.apply(ctx, tx, account, newBalance, applied, entryType, reference, "admin adjustment")
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}

	s.audit.LogAdjustment(reference, identity, action, applied, entry.BalanceAfter)
	return entry.BalanceAfter, nil
}

// SetStatus blocks, bans or reactivates an account.
func (s *LedgerService) SetStatus(ctx context.Context, identity, status string) error {
	if !models.ValidAccountStatus(status) {
		return fmt.Errorf("%w: unknown status %q", models.ErrInvalidInput, status)
	}
	if err := s.store.Accounts().UpdateStatus(ctx, identity, status, s.nowFunc()); err != nil {
		return err
	}

	log.Printf("[LEDGER] status changed - identity: %s, status: %s", identity, status)
	s.audit.LogStatusChange(identity, status)
	return nil
}

// ListEntries returns the most recent ledger entries of an account.
func (s *LedgerService) ListEntries(ctx context.Context, identity string, limit int) ([]models.LedgerEntry, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", models.ErrInvalidInput)
	}
	account, err := s.GetAccount(ctx, identity)
	if err != nil {
		return nil, err
	}
	return s.store.Entries().ListByAccount(ctx, account.ID, limit)
}

func (s *LedgerService) apply(ctx context.Context, tx store.Store, account *models.Account, newBalance, amount decimal.Decimal, entryType, reference, description string) (*models.LedgerEntry, error) {
	now := s.nowFunc()
	if err := tx.Accounts().UpdateBalance(ctx, account.ID, newBalance, account.Version, now); err != nil {
		return nil, err
	}

	entry := &models.LedgerEntry{
		AccountID:    account.ID,
		Reference:    reference,
		EntryType:    entryType,
		Amount:       amount,
		BalanceAfter: newBalance,
		Description:  description,
		CreatedAt:    now,
	}
	if err := tx.Entries().Append(ctx, entry); err != nil {
		return nil, err
	}

	account.Balance = newBalance
	account.Version++
	account.UpdatedAt = now
	return entry, nil
}

func (s *LedgerService) retryTx(ctx context.Context, fn func(tx store.Store) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = s.store.InTx(ctx, fn)
		if !errors.Is(err, models.ErrVersionConflict) {
			return err
		}
		log.Printf("[LEDGER] version conflict, attempt %d/%d", attempt, maxTxAttempts)
	}
	return err
}
