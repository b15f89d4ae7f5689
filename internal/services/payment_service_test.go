package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foxcode/shorter/internal/models"
	"github.com/foxcode/shorter/internal/store"
)

func TestPaymentService_RequestPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("files a pending request without touching the balance", func(t *testing.T) {
		env := newTestEnv(t, nil, nil)
		env.fund(t, "alice", 0)

		p, err := env.payments.RequestPayment(ctx, "alice", decimal.NewFromInt(100), " receipt-1.png ")
		require.NoError(t, err)
		assert.NotZero(t, p.ID)
		assert.Equal(t, models.PaymentStatusPending, p.Status)
		assert.Equal(t, models.PaymentMethodManual, p.Method)
		assert.Equal(t, "receipt-1.png", p.Proof)
		assert.Equal(t, env.clock.Now(), p.CreatedAt)
		assert.True(t, env.balance(t, "alice").IsZero())
	})

	t.Run("amount bounds", func(t *testing.T) {
		env := newTestEnv(t, nil, nil)
		env.fund(t, "alice", 0)

		for _, amount := range []int64{0, -5, 49, 10001} {
			_, err := env.payments.RequestPayment(ctx, "alice", decimal.NewFromInt(amount), "")
			assert.True(t, errors.Is(err, models.ErrInvalidInput), "amount %d", amount)
		}
		for _, amount := range []int64{50, 10000} {
			_, err := env.payments.RequestPayment(ctx, "alice", decimal.NewFromInt(amount), "")
			assert.NoError(t, err, "amount %d", amount)
		}
	})

	t.Run("oversized proof", func(t *testing.T) {
		env := newTestEnv(t, nil, nil)
		env.fund(t, "alice", 0)

		_, err := env.payments.RequestPayment(ctx, "alice", decimal.NewFromInt(100), strings.Repeat("x", maxProofLength+1))
		assert.True(t, errors.Is(err, models.ErrInvalidInput))
	})

	t.Run("unknown account", func(t *testing.T) {
		env := newTestEnv(t, nil, nil)
		_, err := env.payments.RequestPayment(ctx, "ghost", decimal.NewFromInt(100), "")
		assert.True(t, models.IsNotFound(err))
	})

	t.Run("blocked account", func(t *testing.T) {
		env := newTestEnv(t, nil, nil)
		env.fund(t, "alice", 0)
		require.NoError(t, env.ledger.SetStatus(ctx, "alice", models.AccountStatusBlocked))

		_, err := env.payments.RequestPayment(ctx, "alice", decimal.NewFromInt(100), "")
		assert.True(t, errors.Is(err, models.ErrAccountInactive))
	})
}

func TestPaymentService_ProcessPayment(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*testEnv, *models.Payment) {
		env := newTestEnv(t, nil, nil)
		env.fund(t, "alice", 20)
		p, err := env.payments.RequestPayment(ctx, "alice", decimal.NewFromInt(100), "receipt.png")
		require.NoError(t, err)
		return env, p
	}

	t.Run("approve credits the wallet once", func(t *testing.T) {
		env, p := setup(t)

		approved, err := env.payments.ProcessPayment(ctx, p.ID, PaymentApprove, "root", "looks fine")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusApproved, approved.Status)
		assert.Equal(t, "root", approved.ProcessedBy)
		require.NotNil(t, approved.ProcessedAt)
		assert.True(t, env.balance(t, "alice").Equal(decimal.NewFromInt(120)))

		_, err = env.payments.ProcessPayment(ctx, p.ID, PaymentApprove, "root", "")
		assert.True(t, errors.Is(err, models.ErrAlreadyProcessed))
		assert.True(t, env.balance(t, "alice").Equal(decimal.NewFromInt(120)))

		entries, err := env.ledger.ListEntries(ctx, "alice", 10)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
		assert.Equal(t, models.EntryTypeCredit, entries[0].EntryType)
		assert.Contains(t, env.auditLog.String(), `"event_type":"PAYMENT"`)
	})

	t.Run("reject leaves the balance alone and is final", func(t *testing.T) {
		env, p := setup(t)

		rejected, err := env.payments.ProcessPayment(ctx, p.ID, PaymentReject, "root", "blurry receipt")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusRejected, rejected.Status)
		assert.Equal(t, "blurry receipt", rejected.Notes)
		assert.True(t, env.balance(t, "alice").Equal(decimal.NewFromInt(20)))

		_, err = env.payments.ProcessPayment(ctx, p.ID, PaymentApprove, "root", "")
		assert.True(t, errors.Is(err, models.ErrAlreadyProcessed))
		assert.True(t, env.balance(t, "alice").Equal(decimal.NewFromInt(20)))
	})

	t.Run("concurrent approvals credit once", func(t *testing.T) {
		env, p := setup(t)

		var wg sync.WaitGroup
		var mu sync.Mutex
		var ok, processed int
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := env.payments.ProcessPayment(ctx, p.ID, PaymentApprove, "root", "")
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					ok++
				case errors.Is(err, models.ErrAlreadyProcessed):
					processed++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, ok)
		assert.Equal(t, 7, processed)
		assert.True(t, env.balance(t, "alice").Equal(decimal.NewFromInt(120)))
	})

	t.Run("unknown action", func(t *testing.T) {
		env, p := setup(t)
		_, err := env.payments.ProcessPayment(ctx, p.ID, "refund", "root", "")
		assert.True(t, errors.Is(err, models.ErrInvalidInput))
	})

	t.Run("unknown payment", func(t *testing.T) {
		env, _ := setup(t)
		_, err := env.payments.ProcessPayment(ctx, 999, PaymentApprove, "root", "")
		assert.True(t, models.IsNotFound(err))
	})

	t.Run("failed rollback is escalated", func(t *testing.T) {
		st := &rollbackFailingStore{MemoryStore: store.NewMemoryStore()}
		env := newTestEnv(t, st, nil)
		env.fund(t, "alice", 0)
		p, err := env.payments.RequestPayment(ctx, "alice", decimal.NewFromInt(100), "")
		require.NoError(t, err)
		_, err = env.payments.ProcessPayment(ctx, p.ID, PaymentApprove, "root", "")
		require.NoError(t, err)

		_, err = env.payments.ProcessPayment(ctx, p.ID, PaymentApprove, "root", "")
		var rbErr *store.RollbackError
		require.True(t, errors.As(err, &rbErr))
		assert.Contains(t, env.auditLog.String(), `"event_type":"INCONSISTENCY"`)
	})
}

func TestPaymentService_List(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil, nil)
	env.fund(t, "alice", 0)
	env.fund(t, "bob", 0)

	first, err := env.payments.RequestPayment(ctx, "alice", decimal.NewFromInt(100), "")
	require.NoError(t, err)
	env.clock.Advance(1)
	_, err = env.payments.RequestPayment(ctx, "alice", decimal.NewFromInt(200), "")
	require.NoError(t, err)
	_, err = env.payments.RequestPayment(ctx, "bob", decimal.NewFromInt(300), "")
	require.NoError(t, err)
	_, err = env.payments.ProcessPayment(ctx, first.ID, PaymentReject, "root", "")
	require.NoError(t, err)

	t.Run("per account, newest first", func(t *testing.T) {
		payments, err := env.payments.ListForAccount(ctx, "alice", 10)
		require.NoError(t, err)
		require.Len(t, payments, 2)
		assert.True(t, payments[0].Amount.Equal(decimal.NewFromInt(200)))
		assert.Equal(t, "alice", payments[0].Identity)
	})

	t.Run("pending across accounts", func(t *testing.T) {
		payments, err := env.payments.ListByStatus(ctx, models.PaymentStatusPending, 10)
		require.NoError(t, err)
		assert.Len(t, payments, 2)
		for _, p := range payments {
			assert.True(t, p.IsPending())
		}
	})

	t.Run("bad arguments", func(t *testing.T) {
		_, err := env.payments.ListByStatus(ctx, "lost", 10)
		assert.True(t, errors.Is(err, models.ErrInvalidInput))
		_, err = env.payments.ListForAccount(ctx, "alice", 0)
		assert.True(t, errors.Is(err, models.ErrInvalidInput))
		_, err = env.payments.ListForAccount(ctx, "ghost", 10)
		assert.True(t, models.IsNotFound(err))
	})
}

func TestPaymentService_ProcessPaymentPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	env := newTestEnv(t, store.NewPostgresStore(db), nil)
	now := env.clock.Now()
	paymentRows := []string{"id", "account_id", "identity", "amount", "method", "payment_proof", "status",
		"created_at", "processed_at", "processed_by", "notes"}
	accountRows := []string{"id", "identity", "display_name", "balance", "status", "version", "created_at", "updated_at"}

	t.Run("approval credits and settles in one transaction", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM payments p JOIN accounts a (.+) FOR UPDATE OF p").
			WithArgs(3).
			WillReturnRows(sqlmock.NewRows(paymentRows).
				AddRow(3, 1, "alice", "100", models.PaymentMethodManual, "", models.PaymentStatusPending, now, nil, "", ""))
		mock.ExpectQuery("SELECT (.+) FROM accounts WHERE identity = \\$1 FOR UPDATE").
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows(accountRows).
				AddRow(1, "alice", "Alice", "20", models.AccountStatusActive, 2, now, now))
		mock.ExpectExec("UPDATE accounts SET balance").
			WithArgs(sqlmock.AnyArg(), now, 1, 2).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO ledger_entries").
			WithArgs(1, sqlmock.AnyArg(), models.EntryTypeCredit, sqlmock.AnyArg(), sqlmock.AnyArg(), "payment 3 approved", now).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))
		mock.ExpectExec("UPDATE payments SET status = \\$1").
			WithArgs(models.PaymentStatusApproved, "root", "", now, 3, models.PaymentStatusPending).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		p, err := env.payments.ProcessPayment(context.Background(), 3, PaymentApprove, "root", "")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusApproved, p.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("settled payment rolls back without a credit", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM payments p JOIN accounts a (.+) FOR UPDATE OF p").
			WithArgs(3).
			WillReturnRows(sqlmock.NewRows(paymentRows).
				AddRow(3, 1, "alice", "100", models.PaymentMethodManual, "", models.PaymentStatusApproved, now, now, "root", ""))
		mock.ExpectRollback()

		_, err := env.payments.ProcessPayment(context.Background(), 3, PaymentApprove, "root", "")
		assert.True(t, errors.Is(err, models.ErrAlreadyProcessed))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed status flip undoes the credit", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM payments p JOIN accounts a (.+) FOR UPDATE OF p").
			WithArgs(4).
			WillReturnRows(sqlmock.NewRows(paymentRows).
				AddRow(4, 1, "alice", "100", models.PaymentMethodManual, "", models.PaymentStatusPending, now, nil, "", ""))
		mock.ExpectQuery("SELECT (.+) FROM accounts WHERE identity = \\$1 FOR UPDATE").
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows(accountRows).
				AddRow(1, "alice", "Alice", "120", models.AccountStatusActive, 3, now, now))
		mock.ExpectExec("UPDATE accounts SET balance").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO ledger_entries").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))
		mock.ExpectExec("UPDATE payments SET status = \\$1").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		_, err := env.payments.ProcessPayment(context.Background(), 4, PaymentApprove, "root", "")
		assert.True(t, errors.Is(err, models.ErrAlreadyProcessed))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
