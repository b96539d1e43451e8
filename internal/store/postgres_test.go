package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/simplebank/backend/internal/ledger"
	"github.com/simplebank/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

var accountCols = []string{"id", "user_id", "account_number", "account_name", "account_type", "balance", "version", "created_at", "updated_at"}

func accountRow(id, userID, number, name string, balance string, version int) *sqlmock.Rows {
	return sqlmock.NewRows(accountCols).
		AddRow(id, userID, number, name, "savings", balance, version, time.Now(), time.Now())
}

func TestPostgres_FindByOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	p := NewPostgres(db)
	ctx := context.Background()

	t.Run("existing account", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, user_id, account_number, account_name, account_type, balance, version, created_at, updated_at FROM accounts WHERE user_id = \\$1").
			WithArgs("user1").
			WillReturnRows(accountRow("acc1", "user1", "1000000001", "Ada Obi", "5000", 1))

		account, err := p.FindByOwner(ctx, "user1")
		assert.NoError(t, err)
		assert.Equal(t, "1000000001", account.Number)
		assert.True(t, account.Balance.Equal(decimal.NewFromInt(5000)))
		assert.Equal(t, 1, account.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing account", func(t *testing.T) {
		mock.ExpectQuery("SELECT .+ FROM accounts WHERE user_id = \\$1").
			WithArgs("ghost").
			WillReturnRows(sqlmock.NewRows(accountCols))

		_, err := p.FindByOwner(ctx, "ghost")
		assert.ErrorIs(t, err, ledger.ErrAccountNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgres_CreateAccount(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	p := NewPostgres(db)
	ctx := context.Background()

	t.Run("successful create", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO accounts").
			WithArgs(sqlmock.AnyArg(), "user1", "1000000001", "Ada Obi", models.AccountSavings, decimal.Zero, 1).
			WillReturnResult(sqlmock.NewResult(1, 1))

		account := &models.Account{
			UserID:  "user1",
			Number:  "1000000001",
			Name:    "Ada Obi",
			Type:    models.AccountSavings,
			Balance: decimal.Zero,
		}
		err := p.CreateAccount(ctx, account)
		assert.NoError(t, err)
		assert.NotEmpty(t, account.ID)
		assert.Equal(t, 1, account.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation maps to conflict", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO accounts").
			WillReturnError(&pq.Error{Code: "23505"})

		err := p.CreateAccount(ctx, &models.Account{
			UserID: "user2",
			Number: "1000000001",
			Name:   "Bayo Oke",
			Type:   models.AccountSavings,
		})
		assert.ErrorIs(t, err, ledger.ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgres_Atomic(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	p := NewPostgres(db)
	ctx := context.Background()

	t.Run("lock, adjust, append, commit", func(t *testing.T) {
		mock.ExpectBegin()

		mock.ExpectQuery("SELECT .+ FROM accounts WHERE account_number = \\$1 FOR UPDATE").
			WithArgs("1000000001").
			WillReturnRows(accountRow("acc1", "user1", "1000000001", "Ada Obi", "5000", 3))

		mock.ExpectExec("UPDATE accounts SET balance = \\$1, version = version \\+ 1, updated_at = NOW\\(\\) WHERE id = \\$2 AND version = \\$3").
			WithArgs(decimal.NewFromInt(6000), "acc1", 3).
			WillReturnResult(sqlmock.NewResult(0, 1))

		mock.ExpectExec("INSERT INTO transactions").
			WithArgs(sqlmock.AnyArg(), "user1", models.TxDeposit, decimal.NewFromInt(1000),
				sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		mock.ExpectCommit()

		err := p.Atomic(ctx, func(ops ledger.AtomicOps) error {
			account, err := ops.LockByNumber("1000000001")
			if err != nil {
				return err
			}
			updated, err := ops.AdjustBalance(account, decimal.NewFromInt(1000))
			if err != nil {
				return err
			}
			assert.True(t, updated.Balance.Equal(decimal.NewFromInt(6000)))
			assert.Equal(t, 4, updated.Version)

			_, err = ops.Append(&models.Transaction{
				UserID: account.UserID,
				Type:   models.TxDeposit,
				Amount: decimal.NewFromInt(1000),
			})
			return err
		})
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("callback error rolls back", func(t *testing.T) {
		mock.ExpectBegin()

		mock.ExpectQuery("SELECT .+ FROM accounts WHERE account_number = \\$1 FOR UPDATE").
			WithArgs("1000000001").
			WillReturnRows(accountRow("acc1", "user1", "1000000001", "Ada Obi", "100", 1))

		mock.ExpectRollback()

		err := p.Atomic(ctx, func(ops ledger.AtomicOps) error {
			account, err := ops.LockByNumber("1000000001")
			if err != nil {
				return err
			}
			if account.Balance.LessThan(decimal.NewFromInt(500)) {
				return ledger.ErrInsufficientFunds
			}
			return nil
		})
		assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("optimistic lock failure", func(t *testing.T) {
		mock.ExpectBegin()

		mock.ExpectQuery("SELECT .+ FROM accounts WHERE account_number = \\$1 FOR UPDATE").
			WithArgs("1000000001").
			WillReturnRows(accountRow("acc1", "user1", "1000000001", "Ada Obi", "5000", 3))

		mock.ExpectExec("UPDATE accounts SET balance = \\$1, version = version \\+ 1").
			WithArgs(decimal.NewFromInt(4000), "acc1", 3).
			WillReturnResult(sqlmock.NewResult(0, 0)) // No rows affected

		mock.ExpectRollback()

		err := p.Atomic(ctx, func(ops ledger.AtomicOps) error {
			account, err := ops.LockByNumber("1000000001")
			if err != nil {
				return err
			}
			_, err = ops.AdjustBalance(account, decimal.NewFromInt(-1000))
			return err
		})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "optimistic lock failed")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("negative result refused before touching the row", func(t *testing.T) {
		mock.ExpectBegin()

		mock.ExpectQuery("SELECT .+ FROM accounts WHERE account_number = \\$1 FOR UPDATE").
			WithArgs("1000000001").
			WillReturnRows(accountRow("acc1", "user1", "1000000001", "Ada Obi", "100", 1))

		mock.ExpectRollback()

		err := p.Atomic(ctx, func(ops ledger.AtomicOps) error {
			account, err := ops.LockByNumber("1000000001")
			if err != nil {
				return err
			}
			_, err = ops.AdjustBalance(account, decimal.NewFromInt(-500))
			return err
		})
		assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgres_ListByOwner(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	p := NewPostgres(db)
	ctx := context.Background()

	txCols := []string{"id", "user_id", "transaction_type", "amount", "from_name", "to_name", "remark", "created_at"}

	t.Run("mixed page with transfer details", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM transactions WHERE user_id = \\$1").
			WithArgs("user1").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

		mock.ExpectQuery("SELECT id, user_id, transaction_type, amount, from_name, to_name, remark, created_at FROM transactions WHERE user_id = \\$1 ORDER BY seq ASC OFFSET \\$2 LIMIT \\$3").
			WithArgs("user1", 10, 10).
			WillReturnRows(sqlmock.NewRows(txCols).
				AddRow("tx11", "user1", "deposit", "500", nil, nil, nil, time.Now()).
				AddRow("tx12", "user1", "transfer", "200", "Ada Obi", "Bayo Oke", "rent", time.Now()))

		items, total, err := p.ListByOwner(ctx, "user1", 2, 10)
		assert.NoError(t, err)
		assert.Equal(t, 12, total)
		assert.Len(t, items, 2)

		assert.Equal(t, models.TxDeposit, items[0].Type)
		assert.Nil(t, items[0].Transfer)

		assert.Equal(t, models.TxTransfer, items[1].Type)
		if assert.NotNil(t, items[1].Transfer) {
			assert.Equal(t, "Ada Obi", items[1].Transfer.From)
			assert.Equal(t, "Bayo Oke", items[1].Transfer.To)
			assert.Equal(t, "rent", items[1].Transfer.Remark)
		}
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty history", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM transactions WHERE user_id = \\$1").
			WithArgs("user2").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		mock.ExpectQuery("SELECT id, user_id, transaction_type, amount, from_name, to_name, remark, created_at FROM transactions").
			WithArgs("user2", 0, 10).
			WillReturnRows(sqlmock.NewRows(txCols))

		items, total, err := p.ListByOwner(ctx, "user2", 1, 10)
		assert.NoError(t, err)
		assert.Equal(t, 0, total)
		assert.Empty(t, items)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
