package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment status values
const (
	PaymentStatusPending  = "pending"
	PaymentStatusApproved = "approved"
	PaymentStatusRejected = "rejected"
)

// PaymentMethodManual is a top-up proven by an uploaded receipt.
const PaymentMethodManual = "manual"

// Payment is a top-up request. An admin approves it, which credits the
// wallet, or rejects it. Either decision is final.
type Payment struct {
	ID          int64           `json:"id" db:"id"`
	AccountID   int64           `json:"account_id" db:"account_id"`
	Identity    string          `json:"identity" db:"identity"`
	Amount      decimal.Decimal `json:"amount" db:"amount" swaggertype:"string"`
	Method      string          `json:"method" db:"method"`
	Proof       string          `json:"payment_proof,omitempty" db:"payment_proof"`
	Status      string          `json:"status" db:"status"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty" db:"processed_at"`
	ProcessedBy string          `json:"processed_by,omitempty" db:"processed_by"`
	Notes       string          `json:"notes,omitempty" db:"notes"`
}

func (p *Payment) IsPending() bool { return p.Status == PaymentStatusPending }

func ValidPaymentStatus(status string) bool {
	switch status {
	case PaymentStatusPending, PaymentStatusApproved, PaymentStatusRejected:
		return true
	}
	return false
}
