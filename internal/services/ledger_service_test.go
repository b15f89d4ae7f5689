package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxcode/shorter/internal/models"
	"github.com/foxcode/shorter/internal/store"
)

func TestLedgerService_EnsureAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("idempotent and keeps balance", func(t *testing.T) {
		env := newTestEnv(t, nil, nil)

		first, created, err := env.ledger.EnsureAccount(ctx, "alice", "Alice")
		require.NoError(t, err)
		assert.True(t, created)
		assert.True(t, first.Balance.IsZero())
		assert.Equal(t, models.AccountStatusActive, first.Status)

		_, err = env.ledger.Credit(ctx, "alice", decimal.NewFromInt(50), "top up")
		require.NoError(t, err)

		second, created, err := env.ledger.EnsureAccount(ctx, "alice", "Alice Again")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)
		assert.True(t, second.Balance.Equal(decimal.NewFromInt(50)))
		assert.Equal(t, "Alice", second.DisplayName)
	})

	t.Run("concurrent first contact creates once", func(t *testing.T) {
		env := newTestEnv(t, nil, nil)

		var createdCount int32
		ids := make([]int64, 20)
		var wg sync.WaitGroup
		for i := range ids {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				account, created, err := env.ledger.EnsureAccount(ctx, "bob", "Bob")
				assert.NoError(t, err)
				if created {
					atomic.AddInt32(&createdCount, 1)
				}
				ids[i] = account.ID
			}(i)
		}
		wg.Wait()

		assert.Equal(t, int32(1), createdCount)
		for _, id := range ids {
			assert.Equal(t, ids[0], id)
		}
	})

	t.Run("blank identity", func(t *testing.T) {
		env := newTestEnv(t, nil, nil)
		_, _, err := env.ledger.EnsureAccount(ctx, "  ", "")
		assert.True(t, errors.Is(err, models.ErrInvalidInput))
	})
}

func TestLedgerService_TryDebit(t *testing.T) {
	ctx := context.Background()

	t.Run("successful debit", func(t *testing.T) {
		env := newTestEnv(t, nil, nil)
		env.fund(t, "alice", 100)

		entry, err := env.ledger.TryDebit(ctx, "alice", decimal.NewFromInt(30), "test")
		require.NoError(t, err)
		assert.Equal(t, models.EntryTypeDebit, entry.EntryType)
		assert.True(t, entry.BalanceAfter.Equal(decimal.NewFromInt(70)))
		assert.True(t, env.balance(t, "alice").Equal(decimal.NewFromInt(70)))
	})

	t.Run("insufficient balance leaves account untouched", func(t *testing.T) {
		env := newTestEnv(t, nil, nil)
		env.fund(t, "alice", 5)

		_, err := env.ledger.TryDebit(ctx, "alice", decimal.NewFromInt(10), "test")
		assert.True(t, errors.Is(err, models.ErrInsufficientFunds))
		assert.True(t, env.balance(t, "alice").Equal(decimal.NewFromInt(5)))

		entries, err := env.ledger.ListEntries(ctx, "alice", 10)
		require.NoError(t, err)
		assert.Len(t, entries, 1, "only the top up is recorded")
	})

	t.Run("unknown account", func(t *testing.T) {
		env := newTestEnv(t, nil, nil)
		_, err := env.ledger.TryDebit(ctx, "ghost", decimal.NewFromInt(1), "test")
		assert.True(t, models.IsNotFound(err))
	})

	t.Run("blocked account cannot spend", func(t *testing.T) {
		env := newTestEnv(t, nil, nil)
		env.fund(t, "alice", 100)
		require.NoError(t, env.ledger.SetStatus(ctx, "alice", models.AccountStatusBlocked))

		_, err := env.ledger.TryDebit(ctx, "alice", decimal.NewFromInt(10), "test")
		assert.True(t, errors.Is(err, models.ErrAccountInactive))
		assert.True(t, env.balance(t, "alice").Equal(decimal.NewFromInt(100)))
	})

	t.Run("negative amount", func(t *testing.T) {
		env := newTestEnv(t, nil, nil)
		env.fund(t, "alice", 100)
		_, err := env.ledger.TryDebit(ctx, "alice", decimal.NewFromInt(-1), "test")
		assert.True(t, errors.Is(err, models.ErrInvalidInput))
	})

	t.Run("concurrent debits never overdraw", func(t *testing.T) {
		env := newTestEnv(t, nil, nil)
		env.fund(t, "alice", 100)

		var succeeded, refused int32
		var wg sync.WaitGroup
		for i := 0; i < 25; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := env.ledger.TryDebit(ctx, "alice", decimal.NewFromInt(10), "race")
				switch {
				case err == nil:
					atomic.AddInt32(&succeeded, 1)
				case errors.Is(err, models.ErrInsufficientFunds):
					atomic.AddInt32(&refused, 1)
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(10), succeeded)
		assert.Equal(t, int32(15), refused)
		assert.True(t, env.balance(t, "alice").IsZero())
	})
}

func TestLedgerService_Credit(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil, nil)
	env.fund(t, "alice", 0)

	t.Run("adds to balance", func(t *testing.T) {
		entry, err := env.ledger.Credit(ctx, "alice", decimal.RequireFromString("12.50"), "payment approved")
		require.NoError(t, err)
		assert.Equal(t, models.EntryTypeCredit, entry.EntryType)
		assert.True(t, env.balance(t, "alice").Equal(decimal.RequireFromString("12.5")))
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		_, err := env.ledger.Credit(ctx, "alice", decimal.Zero, "nothing")
		assert.True(t, errors.Is(err, models.ErrInvalidInput))
	})

	t.Run("audited", func(t *testing.T) {
		assert.Contains(t, env.auditLog.String(), `"event_type":"CREDIT"`)
	})
}

func TestLedgerService_AdjustBalance(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		start    int64
		amount   int64
		action   string
		expected int64
		err      error
	}{
		{"add", 30, 20, AdjustAdd, 50, nil},
		{"deduct within balance", 30, 20, AdjustDeduct, 10, nil},
		{"deduct floors at zero", 30, 100, AdjustDeduct, 0, nil},
		{"deduct from empty wallet", 0, 5, AdjustDeduct, 0, nil},
		{"zero amount", 30, 0, AdjustAdd, 30, models.ErrInvalidInput},
		{"unknown action", 30, 10, "multiply", 30, models.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil, nil)
			env.fund(t, "alice", tt.start)

			newBalance, err := env.ledger.AdjustBalance(ctx, "alice", decimal.NewFromInt(tt.amount), tt.action)
			if tt.err != nil {
				assert.True(t, errors.Is(err, tt.err))
			} else {
				require.NoError(t, err)
				assert.True(t, newBalance.Equal(decimal.NewFromInt(tt.expected)), "got %s", newBalance)
			}
			assert.True(t, env.balance(t, "alice").Equal(decimal.NewFromInt(tt.expected)))
		})
	}

	t.Run("deduct records the amount actually taken", func(t *testing.T) {
		env := newTestEnv(t, nil, nil)
		env.fund(t, "alice", 30)

		_, err := env.ledger.AdjustBalance(ctx, "alice", decimal.NewFromInt(100), AdjustDeduct)
		require.NoError(t, err)

		entries, err := env.ledger.ListEntries(ctx, "alice", 1)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, models.EntryTypeAdjustDebit, entries[0].EntryType)
		assert.True(t, entries[0].Amount.Equal(decimal.NewFromInt(30)))
	})

	t.Run("unknown account", func(t *testing.T) {
		env := newTestEnv(t, nil, nil)
		_, err := env.ledger.AdjustBalance(ctx, "ghost", decimal.NewFromInt(10), AdjustAdd)
		assert.True(t, models.IsNotFound(err))
	})
}

func TestLedgerService_SetStatus(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil, nil)
	env.fund(t, "alice", 0)

	assert.NoError(t, env.ledger.SetStatus(ctx, "alice", models.AccountStatusBanned))
	account, err := env.ledger.GetAccount(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.AccountStatusBanned, account.Status)

	assert.True(t, errors.Is(env.ledger.SetStatus(ctx, "alice", "frozen"), models.ErrInvalidInput))
	assert.True(t, models.IsNotFound(env.ledger.SetStatus(ctx, "ghost", models.AccountStatusActive)))
}

func TestLedgerService_ListEntries(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil, nil)
	env.fund(t, "alice", 100)

	for i := 0; i < 3; i++ {
		env.clock.Advance(time.Minute)
		_, err := env.ledger.TryDebit(ctx, "alice", decimal.NewFromInt(10), "spend")
		require.NoError(t, err)
	}

	entries, err := env.ledger.ListEntries(ctx, "alice", 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].BalanceAfter.Equal(decimal.NewFromInt(70)))
	assert.True(t, entries[1].BalanceAfter.Equal(decimal.NewFromInt(80)))

	_, err = env.ledger.ListEntries(ctx, "alice", 0)
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
}

func TestLedgerService_TryDebitPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	env := newTestEnv(t, store.NewPostgresStore(db), nil)
	now := env.clock.Now()
	accountRows := []string{"id", "identity", "display_name", "balance", "status", "version", "created_at", "updated_at"}

	t.Run("successful debit", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM accounts WHERE identity = \\$1 FOR UPDATE").
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows(accountRows).
				AddRow(1, "alice", "Alice", "100", models.AccountStatusActive, 4, now, now))
		mock.ExpectExec("UPDATE accounts SET balance = \\$1, version = version \\+ 1, updated_at = \\$2 WHERE id = \\$3 AND version = \\$4").
			WithArgs(sqlmock.AnyArg(), now, 1, 4).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO ledger_entries").
			WithArgs(1, sqlmock.AnyArg(), models.EntryTypeDebit, sqlmock.AnyArg(), sqlmock.AnyArg(), "test", now).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
		mock.ExpectCommit()

		entry, err := env.ledger.TryDebit(context.Background(), "alice", decimal.NewFromInt(10), "test")
		require.NoError(t, err)
		assert.Equal(t, int64(9), entry.ID)
		assert.True(t, entry.BalanceAfter.Equal(decimal.NewFromInt(90)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insufficient balance rolls back", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM accounts WHERE identity = \\$1 FOR UPDATE").
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows(accountRows).
				AddRow(1, "alice", "Alice", "5", models.AccountStatusActive, 4, now, now))
		mock.ExpectRollback()

		_, err := env.ledger.TryDebit(context.Background(), "alice", decimal.NewFromInt(10), "test")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "insufficient balance")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("version conflict is retried", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM accounts WHERE identity = \\$1 FOR UPDATE").
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows(accountRows).
				AddRow(1, "alice", "Alice", "100", models.AccountStatusActive, 4, now, now))
		mock.ExpectExec("UPDATE accounts SET balance").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM accounts WHERE identity = \\$1 FOR UPDATE").
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows(accountRows).
				AddRow(1, "alice", "Alice", "100", models.AccountStatusActive, 5, now, now))
		mock.ExpectExec("UPDATE accounts SET balance").
			WithArgs(sqlmock.AnyArg(), now, 1, 5).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO ledger_entries").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
		mock.ExpectCommit()

		_, err := env.ledger.TryDebit(context.Background(), "alice", decimal.NewFromInt(10), "test")
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
