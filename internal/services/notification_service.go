package services

import (
	"context"
	"database/sql"
	"log"

	"github.com/simplebank/backend/internal/events"
	"github.com/simplebank/backend/internal/ledger"
)

// OperationNotifier forwards committed ledger operations to the event
// broker. Each receipt carries the owner's contact so the mail worker can
// reach them without a database round trip of its own.
type OperationNotifier struct {
	db        *sql.DB
	publisher events.Publisher
}

func NewOperationNotifier(db *sql.DB, publisher events.Publisher) *OperationNotifier {
	return &OperationNotifier{db: db, publisher: publisher}
}

// Hook adapts the notifier to the engine's post-commit hook. Delivery is
// fire-and-forget; a failed publish never affects the committed operation.
func (n *OperationNotifier) Hook() ledger.CommitHook {
	return func(ctx context.Context, ev ledger.Event) {
		go n.Notify(ev)
	}
}

// Notify resolves the owner's contact and publishes the receipt.
func (n *OperationNotifier) Notify(ev ledger.Event) {
	receipt := events.OperationCompleted{
		Type:          string(ev.Type),
		AccountNumber: ev.AccountNumber,
		OwnerContact:  n.ownerContact(ev.UserID),
		Amount:        ev.Amount,
		Balance:       ev.Balance,
		OccurredAt:    ev.At,
	}

	if err := n.publisher.Publish(events.TopicOperations, receipt); err != nil {
		log.Printf("[NOTIFY] Failed to publish %s receipt for account %s: %v", ev.Type, ev.AccountNumber, err)
	}
}

func (n *OperationNotifier) ownerContact(userID string) string {
	var email string
	err := n.db.QueryRow(`SELECT email FROM users WHERE id = $1`, userID).Scan(&email)
	if err != nil {
		log.Printf("[NOTIFY] Failed to resolve contact for user %s: %v", userID, err)
		return ""
	}
	return email
}
