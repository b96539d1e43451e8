package ledger

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/simplebank/backend/internal/models"
)

// Store is the persistence contract the engine runs against. Reads outside
// an atomic unit see committed state only; all mutations happen inside
// Atomic.
type Store interface {
	// FindByOwner returns the account owned by userID, or ErrAccountNotFound.
	FindByOwner(ctx context.Context, userID string) (*models.Account, error)

	// FindByNumber returns the account with the given account number, or
	// ErrAccountNotFound.
	FindByNumber(ctx context.Context, number string) (*models.Account, error)

	// CreateAccount inserts a new account. Returns ErrConflict if the
	// account number or display name is already taken.
	CreateAccount(ctx context.Context, account *models.Account) error

	// ListByOwner returns the owner's transactions in insertion order,
	// sliced to the 1-indexed page, plus the owner's total count.
	ListByOwner(ctx context.Context, userID string, page, pageSize int) ([]models.Transaction, int, error)

	// Atomic runs fn as a single atomic, isolated unit. If fn returns an
	// error the unit is aborted and no mutation staged through ops is
	// applied; otherwise everything commits together.
	Atomic(ctx context.Context, fn func(ops AtomicOps) error) error
}

// AtomicOps is the view of the store inside one atomic unit. Locked reads
// and the balances they validate belong to the same isolation scope, so a
// sufficiency check cannot race a concurrent depletion.
type AtomicOps interface {
	// LockByOwner reads the account owned by userID for update.
	LockByOwner(userID string) (*models.Account, error)

	// LockByNumber reads the account with the given number for update.
	LockByNumber(number string) (*models.Account, error)

	// AdjustBalance applies balance += delta to a locked account and
	// returns the updated record. Fails with ErrInsufficientFunds if the
	// result would be negative; it never clamps.
	AdjustBalance(account *models.Account, delta decimal.Decimal) (*models.Account, error)

	// Append stores a transaction record, assigning its id and creation
	// timestamp. The entry is immutable once the unit commits.
	Append(tx *models.Transaction) (*models.Transaction, error)
}
