package audit

import (
	"encoding/json"
	"log"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventDebit         = "DEBIT"
	EventCredit        = "CREDIT"
	EventAdjustment    = "ADJUSTMENT"
	EventStatusChange  = "STATUS_CHANGE"
	EventExpiry        = "EXPIRY"
	EventPayment       = "PAYMENT"
	EventInconsistency = "INCONSISTENCY"
)

type Event struct {
	Timestamp time.Time        `json:"timestamp"`
	EventType string           `json:"event_type"`
	Reference string           `json:"reference,omitempty"`
	Identity  string           `json:"identity,omitempty"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Balance   *decimal.Decimal `json:"balance_after,omitempty"`
	Status    string           `json:"status"`
	Details   any              `json:"details,omitempty"`
}

// Logger writes one "AUDIT: {json}" line per event.
type Logger struct {
	out *log.Logger
	now func() time.Time
}

func NewLogger() *Logger {
	return &Logger{out: log.Default(), now: time.Now}
}

// NewLoggerTo is NewLogger with a custom destination.
func NewLoggerTo(out *log.Logger) *Logger {
	return &Logger{out: out, now: time.Now}
}

func (a *Logger) LogDebit(reference, identity string, amount, balanceAfter decimal.Decimal, details map[string]string) {
	a.log(Event{
		EventType: EventDebit,
		Reference: reference,
		Identity:  identity,
		Amount:    &amount,
		Balance:   &balanceAfter,
		Status:    "SUCCESS",
		Details:   details,
	})
}

func (a *Logger) LogCredit(reference, identity string, amount, balanceAfter decimal.Decimal) {
	a.log(Event{
		EventType: EventCredit,
		Reference: reference,
		Identity:  identity,
		Amount:    &amount,
		Balance:   &balanceAfter,
		Status:    "SUCCESS",
	})
}

func (a *Logger) LogAdjustment(reference, identity, action string, amount, balanceAfter decimal.Decimal) {
	a.log(Event{
		EventType: EventAdjustment,
		Reference: reference,
		Identity:  identity,
		Amount:    &amount,
		Balance:   &balanceAfter,
		Status:    "SUCCESS",
		Details:   map[string]string{"action": action},
	})
}

func (a *Logger) LogStatusChange(identity, status string) {
	a.log(Event{
		EventType: EventStatusChange,
		Identity:  identity,
		Status:    "SUCCESS",
		Details:   map[string]string{"status": status},
	})
}

// LogPayment records an admin decision on a top-up request.
func (a *Logger) LogPayment(paymentID int64, identity, status, processedBy string, amount decimal.Decimal) {
	a.log(Event{
		EventType: EventPayment,
		Identity:  identity,
		Amount:    &amount,
		Status:    "SUCCESS",
		Details:   map[string]any{"payment_id": paymentID, "decision": status, "processed_by": processedBy},
	})
}

func (a *Logger) LogExpiry(scope string, count int64) {
	a.log(Event{
		EventType: EventExpiry,
		Status:    "SUCCESS",
		Details:   map[string]any{"scope": scope, "expired": count},
	})
}

// LogInconsistency records a failure that left storage in a state needing
// manual reconciliation.
func (a *Logger) LogInconsistency(reference, identity, operation string, err error) {
	a.log(Event{
		EventType: EventInconsistency,
		Reference: reference,
		Identity:  identity,
		Status:    "CRITICAL",
		Details:   map[string]string{"operation": operation, "error": err.Error()},
	})
}

func (a *Logger) log(event Event) {
	event.Timestamp = a.now()
	data, _ := json.Marshal(event)
	a.out.Printf("AUDIT: %s", string(data))
}
