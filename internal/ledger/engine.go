package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simplebank/backend/internal/models"
)

// Engine orchestrates deposit, withdrawal, and transfer as atomic
// operations spanning the account store and the transaction log. It holds
// no in-process locks; mutual exclusion is delegated to the store's
// atomic unit.
type Engine struct {
	store Store
	hooks []CommitHook

	// NotifyOnBalanceRead mirrors the legacy behavior of emitting a
	// notification for a plain balance inquiry. Off by default.
	NotifyOnBalanceRead bool
}

// Event describes a committed operation (or, optionally, a balance read).
// It is handed to commit hooks after the atomic unit has committed.
type Event struct {
	Type          models.TransactionType
	UserID        string
	AccountNumber string
	Amount        decimal.Decimal
	Balance       decimal.Decimal
	Transfer      *models.TransferDetails
	At            time.Time
}

// CommitHook receives events after commit, fire-and-forget. Hook failures
// never affect the already-committed operation.
type CommitHook func(ctx context.Context, ev Event)

func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// OnCommit registers a post-commit hook. Hooks run synchronously in
// registration order; anything slow should spawn its own goroutine.
func (e *Engine) OnCommit(hook CommitHook) {
	e.hooks = append(e.hooks, hook)
}

// Deposit credits amount to the account with the given number and appends
// a deposit record, all in one atomic unit.
func (e *Engine) Deposit(ctx context.Context, accountNumber string, amount decimal.Decimal) (*models.Transaction, error) {
	if amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	var (
		rec     *models.Transaction
		balance decimal.Decimal
		owner   string
	)
	err := e.store.Atomic(ctx, func(ops AtomicOps) error {
		account, err := ops.LockByNumber(accountNumber)
		if err != nil {
			return err
		}

		updated, err := ops.AdjustBalance(account, amount)
		if err != nil {
			return err
		}
		balance = updated.Balance
		owner = account.UserID

		rec, err = ops.Append(&models.Transaction{
			UserID: account.UserID,
			Type:   models.TxDeposit,
			Amount: amount,
		})
		return err
	})
	if err != nil {
		return nil, e.failed("deposit", accountNumber, err)
	}

	e.fire(ctx, Event{
		Type:          models.TxDeposit,
		UserID:        owner,
		AccountNumber: accountNumber,
		Amount:        amount,
		Balance:       balance,
		At:            rec.CreatedAt,
	})
	return rec, nil
}

// Withdraw debits amount from the account with the given number after a
// sufficiency guard, and appends a withdrawal record. Guard, adjustment,
// and append share one atomic unit, so two concurrent withdrawals cannot
// both pass the guard against a stale balance.
func (e *Engine) Withdraw(ctx context.Context, accountNumber string, amount decimal.Decimal) (*models.Transaction, error) {
	if amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	var (
		rec     *models.Transaction
		balance decimal.Decimal
		owner   string
	)
	err := e.store.Atomic(ctx, func(ops AtomicOps) error {
		account, err := ops.LockByNumber(accountNumber)
		if err != nil {
			return err
		}

		if account.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}

		updated, err := ops.AdjustBalance(account, amount.Neg())
		if err != nil {
			return err
		}
		balance = updated.Balance
		owner = account.UserID

		rec, err = ops.Append(&models.Transaction{
			UserID: account.UserID,
			Type:   models.TxWithdrawal,
			Amount: amount,
		})
		return err
	})
	if err != nil {
		return nil, e.failed("withdrawal", accountNumber, err)
	}

	e.fire(ctx, Event{
		Type:          models.TxWithdrawal,
		UserID:        owner,
		AccountNumber: accountNumber,
		Amount:        amount,
		Balance:       balance,
		At:            rec.CreatedAt,
	})
	return rec, nil
}

// Transfer moves amount from the principal's own account to the account
// with targetNumber. Debit and credit both apply or neither does; the
// transfer record references both display names.
func (e *Engine) Transfer(ctx context.Context, principalUserID, targetNumber string, amount decimal.Decimal, remark string) (*models.Transaction, error) {
	if amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	sender, err := e.store.FindByOwner(ctx, principalUserID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidAccount
		}
		return nil, e.failed("transfer", targetNumber, err)
	}
	if sender.Number == targetNumber {
		return nil, ErrInvalidAccount
	}

	var (
		rec           *models.Transaction
		senderBalance decimal.Decimal
		details       models.TransferDetails
	)
	err = e.store.Atomic(ctx, func(ops AtomicOps) error {
		// Lock in deterministic order to prevent deadlocks.
		first, second := sender.Number, targetNumber
		if first > second {
			first, second = second, first
		}

		a, err := ops.LockByNumber(first)
		if err != nil {
			return err
		}
		b, err := ops.LockByNumber(second)
		if err != nil {
			return err
		}

		from, to := a, b
		if from.Number != sender.Number {
			from, to = b, a
		}

		if from.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}

		updatedFrom, err := ops.AdjustBalance(from, amount.Neg())
		if err != nil {
			return err
		}
		if _, err := ops.AdjustBalance(to, amount); err != nil {
			return err
		}
		senderBalance = updatedFrom.Balance

		details = models.TransferDetails{From: from.Name, To: to.Name, Remark: remark}
		rec, err = ops.Append(&models.Transaction{
			UserID:   from.UserID,
			Type:     models.TxTransfer,
			Amount:   amount,
			Transfer: &details,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrInvalidAccount
		}
		return nil, e.failed("transfer", targetNumber, err)
	}

	e.fire(ctx, Event{
		Type:          models.TxTransfer,
		UserID:        sender.UserID,
		AccountNumber: sender.Number,
		Amount:        amount,
		Balance:       senderBalance,
		Transfer:      &details,
		At:            rec.CreatedAt,
	})
	return rec, nil
}

// Account returns the principal's account. Pure read.
func (e *Engine) Account(ctx context.Context, principalUserID string) (*models.Account, error) {
	return e.store.FindByOwner(ctx, principalUserID)
}

// Balance returns a snapshot of the principal's account. Pure read;
// repeated calls with no intervening mutation return identical balances.
// When NotifyOnBalanceRead is set the read also emits a notification
// event, mirroring the legacy coupling.
func (e *Engine) Balance(ctx context.Context, principalUserID string) (*models.Account, error) {
	account, err := e.store.FindByOwner(ctx, principalUserID)
	if err != nil {
		return nil, err
	}

	if e.NotifyOnBalanceRead {
		e.fire(ctx, Event{
			Type:          models.TxBalanceInquiry,
			UserID:        account.UserID,
			AccountNumber: account.Number,
			Balance:       account.Balance,
			At:            time.Now(),
		})
	}
	return account, nil
}

// History returns one page of the principal's transactions in insertion
// order, plus the owner-scoped total count.
func (e *Engine) History(ctx context.Context, principalUserID string, page, pageSize int) ([]models.Transaction, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return e.store.ListByOwner(ctx, principalUserID, page, pageSize)
}

func (e *Engine) fire(ctx context.Context, ev Event) {
	for _, hook := range e.hooks {
		hook(ctx, ev)
	}
}

// failed passes domain sentinels through unchanged and wraps everything
// else (store unavailable, aborted commit) as ErrOperationFailed.
func (e *Engine) failed(op, accountNumber string, err error) error {
	for _, sentinel := range []error{ErrAccountNotFound, ErrInsufficientFunds, ErrInvalidAccount, ErrConflict} {
		if errors.Is(err, sentinel) {
			return err
		}
	}
	log.Printf("[LEDGER] %s on account %s aborted: %v", op, accountNumber, err)
	return fmt.Errorf("%w: %v", ErrOperationFailed, err)
}
