package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Publisher delivers events to an external broker, fire-and-forget.
// Delivery failures never affect the committed operation that produced
// the event.
type Publisher interface {
	Publish(topic string, event any) error
}

const (
	TopicOperations = "ledger.operations"
	TopicAuth       = "ledger.auth"
)

// OperationCompleted is emitted after a ledger operation commits.
type OperationCompleted struct {
	Type          string          `json:"type"`
	AccountNumber string          `json:"account_number"`
	OwnerContact  string          `json:"owner_contact,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Balance       decimal.Decimal `json:"resulting_balance"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// VerificationRequested is emitted when a registration needs an email
// verification message sent.
type VerificationRequested struct {
	Email      string    `json:"email"`
	Token      string    `json:"token"`
	OccurredAt time.Time `json:"occurred_at"`
}
