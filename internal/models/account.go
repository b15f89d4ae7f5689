package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account status values
const (
	AccountStatusActive  = "active"
	AccountStatusBlocked = "blocked"
	AccountStatusBanned  = "banned"
)

// Account is a user's wallet. Identity is the stable external user identifier
// (the chat platform user id); it is unique and never changes.
type Account struct {
	ID          int64           `json:"id" db:"id"`
	Identity    string          `json:"identity" db:"identity"`
	DisplayName string          `json:"display_name" db:"display_name"`
	Balance     decimal.Decimal `json:"balance" db:"balance"`
	Status      string          `json:"status" db:"status"`
	Version     int             `json:"-" db:"version"` // for optimistic locking
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// IsActive reports whether the account may spend its balance.
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// ValidAccountStatus reports whether s is a known account status.
func ValidAccountStatus(s string) bool {
	switch s {
	case AccountStatusActive, AccountStatusBlocked, AccountStatusBanned:
		return true
	}
	return false
}
