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
	"github.com/foxcode/shorter/internal/config"
	"github.com/foxcode/shorter/internal/models"
	"github.com/foxcode/shorter/internal/store"
)

// Payment decisions
const (
	PaymentApprove = "approve"
	PaymentReject  = "reject"
)

const maxProofLength = 2048

// PaymentService handles wallet top-ups. A user files a pending request and
// an admin settles it. Approval credits the wallet in the same transaction
// that moves the request out of pending, so a request credits at most once.
type PaymentService struct {
	store   store.Store
	ledger  *LedgerService
	audit   *audit.Logger
	config  *config.ShortlinkConfig
	nowFunc func() time.Time
}

func NewPaymentService(st store.Store, ledger *LedgerService, auditLogger *audit.Logger, cfg *config.ShortlinkConfig) *PaymentService {
	return &PaymentService{
		store:   st,
		ledger:  ledger,
		audit:   auditLogger,
		config:  cfg,
		nowFunc: time.Now,
	}
}

// RequestPayment files a pending top-up for identity.
func (s *PaymentService) RequestPayment(ctx context.Context, identity string, amount decimal.Decimal, proof string) (*models.Payment, error) {
	if amount.LessThan(s.config.PaymentMinAmount) || amount.GreaterThan(s.config.PaymentMaxAmount) {
		return nil, fmt.Errorf("%w: amount must be between %s and %s",
			models.ErrInvalidInput, s.config.PaymentMinAmount, s.config.PaymentMaxAmount)
	}
	proof = strings.TrimSpace(proof)
	if len(proof) > maxProofLength {
		return nil, fmt.Errorf("%w: payment_proof is too long", models.ErrInvalidInput)
	}

	account, err := s.ledger.GetAccount(ctx, identity)
	if err != nil {
		return nil, err
	}
	if !account.IsActive() {
		return nil, fmt.Errorf("%w: account %s is %s", models.ErrAccountInactive, identity, account.Status)
	}

	payment := &models.Payment{
		AccountID: account.ID,
		Identity:  account.Identity,
		Amount:    amount,
		Method:    models.PaymentMethodManual,
		Proof:     proof,
		Status:    models.PaymentStatusPending,
		CreatedAt: s.nowFunc(),
	}
	if err := s.store.Payments().Insert(ctx, payment); err != nil {
		return nil, err
	}

	log.Printf("[PAYMENT] requested - id: %d, identity: %s, amount: %s", payment.ID, identity, amount)
	return payment, nil
}

// ProcessPayment approves or rejects a pending request. Deciding a request
// that is no longer pending fails with ErrAlreadyProcessed and changes
// nothing.
func (s *PaymentService) ProcessPayment(ctx context.Context, id int64, action, adminIdentity, notes string) (*models.Payment, error) {
	status := models.PaymentStatusApproved
	switch action {
	case PaymentApprove:
	case PaymentReject:
		status = models.PaymentStatusRejected
	default:
		return nil, fmt.Errorf("%w: action must be %q or %q", models.ErrInvalidInput, PaymentApprove, PaymentReject)
	}
	notes = strings.TrimSpace(notes)
	reference := uuid.NewString()

	var payment *models.Payment
	var entry *models.LedgerEntry
	err := s.ledger.retryTx(ctx, func(tx store.Store) error {
		var err error
		payment, err = tx.Payments().LockByID(ctx, id)
		if err != nil {
			return err
		}
		if !payment.IsPending() {
			return fmt.Errorf("%w: payment %d is %s", models.ErrAlreadyProcessed, id, payment.Status)
		}

		entry = nil
		if status == models.PaymentStatusApproved {
			entry, err = s.ledger.CreditTx(ctx, tx, payment.Identity, payment.Amount, reference,
				fmt.Sprintf("payment %d approved", payment.ID))
			if err != nil {
				return err
			}
		}

		at := s.nowFunc()
		if err := tx.Payments().Resolve(ctx, payment.ID, status, adminIdentity, notes, at); err != nil {
			return err
		}
		payment.Status = status
		payment.ProcessedBy = adminIdentity
		payment.Notes = notes
		payment.ProcessedAt = &at
		return nil
	})
	if err != nil {
		var rbErr *store.RollbackError
		if errors.As(err, &rbErr) {
			log.Printf("[PAYMENT] CRITICAL: decision on payment %d left storage inconsistent: %v", id, err)
			s.audit.LogInconsistency(reference, adminIdentity, "process_payment", err)
		}
		return nil, err
	}

	if entry != nil {
		s.audit.LogCredit(reference, payment.Identity, payment.Amount, entry.BalanceAfter)
	}
	s.audit.LogPayment(payment.ID, payment.Identity, status, adminIdentity, payment.Amount)
	log.Printf("[PAYMENT] %s - id: %d, identity: %s, by: %s", status, payment.ID, payment.Identity, adminIdentity)
	return payment, nil
}

// ListForAccount returns the requests filed by identity, newest first.
func (s *PaymentService) ListForAccount(ctx context.Context, identity string, limit int) ([]models.Payment, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", models.ErrInvalidInput)
	}
	account, err := s.ledger.GetAccount(ctx, identity)
	if err != nil {
		return nil, err
	}
	return s.store.Payments().List(ctx, account.ID, "", limit)
}

// ListByStatus returns requests across all accounts. An empty status matches
// every request.
func (s *PaymentService) ListByStatus(ctx context.Context, status string, limit int) ([]models.Payment, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", models.ErrInvalidInput)
	}
	if status != "" && !models.ValidPaymentStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", models.ErrInvalidInput, status)
	}
	return s.store.Payments().List(ctx, 0, status, limit)
}
