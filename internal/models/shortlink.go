package models

import (
	"time"
)

// Shortlink status values
const (
	LinkStatusActive  = "active"
	LinkStatusExpired = "expired"
	LinkStatusDeleted = "deleted"
)

// Shortlink maps a short code to its destination URL.
type Shortlink struct {
	ID             int64      `json:"id" db:"id"`
	AccountID      int64      `json:"account_id" db:"account_id"`
	DestinationURL string     `json:"destination_url" db:"destination_url"`
	ShortCode      string     `json:"short_code" db:"short_code"`
	Status         string     `json:"status" db:"status"`
	Clicks         int64      `json:"clicks" db:"clicks"`
	DebitReference string     `json:"debit_reference" db:"debit_reference"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	LastClickedAt  *time.Time `json:"last_clicked_at,omitempty" db:"last_clicked_at"`
}

// ExpiredAt reports whether the link has lapsed at now. The expiry instant
// itself counts as expired.
func (s *Shortlink) ExpiredAt(now time.Time) bool {
	if s.ExpiresAt == nil {
		return false
	}
	return !now.Before(*s.ExpiresAt)
}
