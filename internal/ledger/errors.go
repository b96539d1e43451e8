package ledger

import "errors"

// Sentinel errors returned by the engine and its stores. The HTTP layer
// maps these to status codes; use errors.Is to test them.
var (
	// ErrAccountNotFound is returned when no account matches the given
	// owner or account number.
	ErrAccountNotFound = errors.New("account not found")

	// ErrInsufficientFunds is returned when a debit would drive the
	// balance negative. No mutation is performed.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInvalidAccount is returned for a malformed or self-referential
	// transfer target.
	ErrInvalidAccount = errors.New("invalid account")

	// ErrInvalidAmount is returned when an operation amount is not a
	// positive quantity.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrConflict is returned when account creation violates a
	// uniqueness constraint (account number or display name).
	ErrConflict = errors.New("account already exists")

	// ErrOperationFailed is returned when the atomic unit could not
	// commit for an infrastructure reason. The abort guarantees no
	// partial effect, so the operation is always safe to retry.
	ErrOperationFailed = errors.New("operation failed")
)
