package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/foxcode/shorter/internal/models"
)

// MemoryStore is a process-local Store. All transactions are serialised
// behind one mutex. Writes made inside a transaction push an undo step, and a
// failed transaction replays those steps in reverse. IDs are not reclaimed on
// rollback, the same as a Postgres sequence.
type MemoryStore struct {
	mu   *sync.Mutex
	data *memData
	undo *[]func()
}

type memData struct {
	nextAccountID int64
	nextLinkID    int64
	nextEntryID   int64
	nextPaymentID int64

	accounts     map[string]*models.Account
	accountsByID map[int64]*models.Account
	links        map[string]*models.Shortlink
	linksByID    map[int64]*models.Shortlink
	codes        map[string]time.Time
	entries      []models.LedgerEntry
	payments     map[int64]*models.Payment
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mu: &sync.Mutex{},
		data: &memData{
			accounts:     make(map[string]*models.Account),
			accountsByID: make(map[int64]*models.Account),
			links:        make(map[string]*models.Shortlink),
			linksByID:    make(map[int64]*models.Shortlink),
			codes:        make(map[string]time.Time),
			payments:     make(map[int64]*models.Payment),
		},
	}
}

func (s *MemoryStore) Accounts() AccountRepository     { return &memAccounts{s: s} }
func (s *MemoryStore) Shortlinks() ShortlinkRepository { return &memShortlinks{s: s} }
func (s *MemoryStore) Entries() LedgerEntryRepository  { return &memEntries{s: s} }
func (s *MemoryStore) Payments() PaymentRepository     { return &memPayments{s: s} }
func (s *MemoryStore) Close() error                    { return nil }

func (s *MemoryStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	if s.undo != nil {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrStorageUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var undo []func()
	if err := fn(&MemoryStore{mu: s.mu, data: s.data, undo: &undo}); err != nil {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
		return err
	}
	return nil
}

func (s *MemoryStore) lock() func() {
	if s.undo != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// onRollback registers step to run if the surrounding transaction fails.
// Outside a transaction writes are final and step is dropped.
func (s *MemoryStore) onRollback(step func()) {
	if s.undo != nil {
		*s.undo = append(*s.undo, step)
	}
}

// Accounts

type memAccounts struct {
	s *MemoryStore
}

func (r *memAccounts) Create(_ context.Context, a *models.Account) (bool, error) {
	defer r.s.lock()()

	d := r.s.data
	if _, ok := d.accounts[a.Identity]; ok {
		return false, nil
	}
	d.nextAccountID++
	a.ID = d.nextAccountID
	a.Version = 1
	a.UpdatedAt = a.CreatedAt
	stored := *a
	d.accounts[a.Identity] = &stored
	d.accountsByID[a.ID] = &stored

	r.s.onRollback(func() {
		delete(d.accounts, stored.Identity)
		delete(d.accountsByID, stored.ID)
	})
	return true, nil
}

func (r *memAccounts) GetByIdentity(_ context.Context, identity string) (*models.Account, error) {
	defer r.s.lock()()

	a, ok := r.s.data.accounts[identity]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := *a
	return &out, nil
}

func (r *memAccounts) LockByIdentity(ctx context.Context, identity string) (*models.Account, error) {
	return r.GetByIdentity(ctx, identity)
}

func (r *memAccounts) UpdateBalance(_ context.Context, id int64, newBalance decimal.Decimal, version int, at time.Time) error {
	defer r.s.lock()()

	a, ok := r.s.data.accountsByID[id]
	if !ok || a.Version != version {
		return fmt.Errorf("%w for account %d", models.ErrVersionConflict, id)
	}
	prev := *a
	r.s.onRollback(func() { *a = prev })

	a.Balance = newBalance
	a.Version++
	a.UpdatedAt = at
	return nil
}

func (r *memAccounts) UpdateStatus(_ context.Context, identity, status string, at time.Time) error {
	defer r.s.lock()()

	a, ok := r.s.data.accounts[identity]
	if !ok {
		return models.ErrNotFound
	}
	prev := *a
	r.s.onRollback(func() { *a = prev })

	a.Status = status
	a.UpdatedAt = at
	return nil
}

// Shortlinks

type memShortlinks struct {
	s *MemoryStore
}

func (r *memShortlinks) ReserveCode(_ context.Context, code string, at time.Time) (bool, error) {
	defer r.s.lock()()

	d := r.s.data
	if _, ok := d.codes[code]; ok {
		return false, nil
	}
	d.codes[code] = at
	r.s.onRollback(func() { delete(d.codes, code) })
	return true, nil
}

func (r *memShortlinks) Insert(_ context.Context, l *models.Shortlink) error {
	defer r.s.lock()()

	d := r.s.data
	if _, ok := d.links[l.ShortCode]; ok {
		return fmt.Errorf("duplicate short code %s", l.ShortCode)
	}
	d.nextLinkID++
	l.ID = d.nextLinkID
	stored := *l
	d.links[l.ShortCode] = &stored
	d.linksByID[l.ID] = &stored

	r.s.onRollback(func() {
		delete(d.links, stored.ShortCode)
		delete(d.linksByID, stored.ID)
	})
	return nil
}

func (r *memShortlinks) GetByCode(_ context.Context, code string) (*models.Shortlink, error) {
	defer r.s.lock()()

	l, ok := r.s.data.links[code]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := *l
	return &out, nil
}

func (r *memShortlinks) LockByCode(ctx context.Context, code string) (*models.Shortlink, error) {
	return r.GetByCode(ctx, code)
}

// update applies change to the stored link and registers its reversal.
func (r *memShortlinks) update(l *models.Shortlink, change func(l *models.Shortlink)) {
	prev := *l
	r.s.onRollback(func() { *l = prev })
	change(l)
}

func (r *memShortlinks) RecordHit(_ context.Context, id int64, at time.Time) (int64, error) {
	defer r.s.lock()()

	l, ok := r.s.data.linksByID[id]
	if !ok {
		return 0, models.ErrNotFound
	}
	r.update(l, func(l *models.Shortlink) {
		l.Clicks++
		l.LastClickedAt = &at
	})
	return l.Clicks, nil
}

func (r *memShortlinks) MarkExpired(_ context.Context, id int64) error {
	defer r.s.lock()()

	if l, ok := r.s.data.linksByID[id]; ok {
		r.update(l, func(l *models.Shortlink) { l.Status = models.LinkStatusExpired })
	}
	return nil
}

func (r *memShortlinks) ExpireOverdue(_ context.Context, now time.Time, accountID int64) (int64, error) {
	defer r.s.lock()()

	var n int64
	for _, l := range r.s.data.links {
		if accountID != 0 && l.AccountID != accountID {
			continue
		}
		if l.Status == models.LinkStatusActive && l.ExpiredAt(now) {
			r.update(l, func(l *models.Shortlink) { l.Status = models.LinkStatusExpired })
			n++
		}
	}
	return n, nil
}

func (r *memShortlinks) ListByAccount(_ context.Context, accountID int64) ([]models.Shortlink, error) {
	defer r.s.lock()()

	links := []models.Shortlink{}
	for _, l := range r.s.data.links {
		if l.AccountID == accountID {
			links = append(links, *l)
		}
	}
	sort.Slice(links, func(i, j int) bool {
		if !links[i].CreatedAt.Equal(links[j].CreatedAt) {
			return links[i].CreatedAt.After(links[j].CreatedAt)
		}
		return links[i].ID > links[j].ID
	})
	return links, nil
}

func (r *memShortlinks) Delete(_ context.Context, id int64) error {
	defer r.s.lock()()

	d := r.s.data
	l, ok := d.linksByID[id]
	if !ok {
		return models.ErrNotFound
	}
	delete(d.links, l.ShortCode)
	delete(d.linksByID, id)

	r.s.onRollback(func() {
		d.links[l.ShortCode] = l
		d.linksByID[id] = l
	})
	return nil
}

// Ledger entries

type memEntries struct {
	s *MemoryStore
}

func (r *memEntries) Append(_ context.Context, e *models.LedgerEntry) error {
	defer r.s.lock()()

	d := r.s.data
	d.nextEntryID++
	e.ID = d.nextEntryID
	n := len(d.entries)
	d.entries = append(d.entries, *e)

	r.s.onRollback(func() { d.entries = d.entries[:n] })
	return nil
}

func (r *memEntries) ListByAccount(_ context.Context, accountID int64, limit int) ([]models.LedgerEntry, error) {
	defer r.s.lock()()

	entries := []models.LedgerEntry{}
	for i := len(r.s.data.entries) - 1; i >= 0 && len(entries) < limit; i-- {
		if e := r.s.data.entries[i]; e.AccountID == accountID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// Payments

type memPayments struct {
	s *MemoryStore
}

// view copies p and fills the owner identity the way the SQL join does.
func (r *memPayments) view(p *models.Payment) models.Payment {
	out := *p
	if a, ok := r.s.data.accountsByID[p.AccountID]; ok {
		out.Identity = a.Identity
	}
	return out
}

func (r *memPayments) Insert(_ context.Context, p *models.Payment) error {
	defer r.s.lock()()

	d := r.s.data
	if _, ok := d.accountsByID[p.AccountID]; !ok {
		return fmt.Errorf("payment for unknown account %d", p.AccountID)
	}
	d.nextPaymentID++
	p.ID = d.nextPaymentID
	stored := *p
	d.payments[p.ID] = &stored

	r.s.onRollback(func() { delete(d.payments, stored.ID) })
	return nil
}

func (r *memPayments) GetByID(_ context.Context, id int64) (*models.Payment, error) {
	defer r.s.lock()()

	p, ok := r.s.data.payments[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := r.view(p)
	return &out, nil
}

func (r *memPayments) LockByID(ctx context.Context, id int64) (*models.Payment, error) {
	return r.GetByID(ctx, id)
}

func (r *memPayments) Resolve(_ context.Context, id int64, status, processedBy, notes string, at time.Time) error {
	defer r.s.lock()()

	p, ok := r.s.data.payments[id]
	if !ok || !p.IsPending() {
		return fmt.Errorf("%w: payment %d", models.ErrAlreadyProcessed, id)
	}
	prev := *p
	r.s.onRollback(func() { *p = prev })

	p.Status = status
	p.ProcessedBy = processedBy
	p.Notes = notes
	p.ProcessedAt = &at
	return nil
}

func (r *memPayments) List(_ context.Context, accountID int64, status string, limit int) ([]models.Payment, error) {
	defer r.s.lock()()

	payments := []models.Payment{}
	for _, p := range r.s.data.payments {
		if accountID != 0 && p.AccountID != accountID {
			continue
		}
		if status != "" && p.Status != status {
			continue
		}
		payments = append(payments, r.view(p))
	}
	sort.Slice(payments, func(i, j int) bool {
		if !payments[i].CreatedAt.Equal(payments[j].CreatedAt) {
			return payments[i].CreatedAt.After(payments[j].CreatedAt)
		}
		return payments[i].ID > payments[j].ID
	})
	if len(payments) > limit {
		payments = payments[:limit]
	}
	return payments, nil
}

var _ Store = (*MemoryStore)(nil)
