package models

import "time"

// Session is the per-user conversational state the chat front end keeps
// between messages. It lives in a keyed store with a TTL.
type Session struct {
	Identity        string     `json:"identity"`
	TermsAccepted   bool       `json:"terms_accepted"`
	TermsAcceptedAt *time.Time `json:"terms_accepted_at,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
