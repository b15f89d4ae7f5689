package services

import (
	"bytes"
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/foxcode/shorter/internal/audit"
	"github.com/foxcode/shorter/internal/config"
	"github.com/foxcode/shorter/internal/store"
)

type MockCodeGenerator struct {
	mock.Mock
}

func (m *MockCodeGenerator) NewCode() (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

// rollbackFailingStore reports every failed transaction as one whose rollback
// also failed.
type rollbackFailingStore struct {
	*store.MemoryStore
}

func (s *rollbackFailingStore) InTx(ctx context.Context, fn func(tx store.Store) error) error {
	if err := s.MemoryStore.InTx(ctx, fn); err != nil {
		return &store.RollbackError{Cause: err, RollbackErr: io.ErrClosedPipe}
	}
	return nil
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	store     store.Store
	clock     *testClock
	config    *config.ShortlinkConfig
	auditLog  *bytes.Buffer
	ledger    *LedgerService
	registry  *RegistryService
	shortlink *ShortlinkService
	payments  *PaymentService
}

func testConfig() *config.ShortlinkConfig {
	return &config.ShortlinkConfig{
		Cost:             decimal.NewFromInt(10),
		Domain:           "https://sho.rt",
		CodeLength:       8,
		CodeAlphabet:     "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789",
		MaxCodeAttempts:  1000,
		MaxURLLength:     2048,
		MaxExpiryDays:    3650,
		PaymentMinAmount: decimal.NewFromInt(50),
		PaymentMaxAmount: decimal.NewFromInt(10000),
	}
}

func newTestEnv(t *testing.T, st store.Store, codes CodeGenerator) *testEnv {
	t.Helper()

	cfg := testConfig()
	if st == nil {
		st = store.NewMemoryStore()
	}
	if codes == nil {
		codes = NewRandomCodeGenerator(cfg.CodeAlphabet, cfg.CodeLength)
	}

	var buf bytes.Buffer
	auditLogger := audit.NewLoggerTo(log.New(&lockedWriter{w: &buf}, "", 0))
	clock := newTestClock()

	ledger := NewLedgerService(st, auditLogger)
	ledger.nowFunc = clock.Now
	registry := NewRegistryService(st, codes, cfg.MaxCodeAttempts)
	registry.nowFunc = clock.Now
	payments := NewPaymentService(st, ledger, auditLogger, cfg)
	payments.nowFunc = clock.Now

	return &testEnv{
		store:     st,
		clock:     clock,
		config:    cfg,
		auditLog:  &buf,
		ledger:    ledger,
		registry:  registry,
		shortlink: NewShortlinkService(st, ledger, registry, nil, auditLogger, cfg),
		payments:  payments,
	}
}

// fund creates identity with the given balance.
func (e *testEnv) fund(t *testing.T, identity string, amount int64) {
	t.Helper()
	ctx := context.Background()

	_, _, err := e.ledger.EnsureAccount(ctx, identity, identity)
	require.NoError(t, err)
	if amount > 0 {
		_, err = e.ledger.Credit(ctx, identity, decimal.NewFromInt(amount), "top up")
		require.NoError(t, err)
	}
}

func (e *testEnv) balance(t *testing.T, identity string) decimal.Decimal {
	t.Helper()
	b, err := e.ledger.GetBalance(context.Background(), identity)
	require.NoError(t, err)
	return b
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func intPtr(v int) *int { return &v }
