package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ledger entry types
const (
	EntryTypeDebit        = "DEBIT"
	EntryTypeCredit       = "CREDIT"
	EntryTypeAdjustCredit = "ADJUST_CREDIT"
	EntryTypeAdjustDebit  = "ADJUST_DEBIT"
)

// LedgerEntry records one balance mutation. Amount is always positive; the
// direction is carried by EntryType.
type LedgerEntry struct {
	ID           int64           `json:"id" db:"id"`
	AccountID    int64           `json:"account_id" db:"account_id"`
	Reference    string          `json:"reference" db:"reference"`
	EntryType    string          `json:"entry_type" db:"entry_type"`
	Amount       decimal.Decimal `json:"amount" db:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after" db:"balance_after"`
	Description  string          `json:"description" db:"description"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}
