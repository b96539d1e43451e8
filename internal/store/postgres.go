package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/simplebank/backend/internal/ledger"
	"github.com/simplebank/backend/internal/models"
)

const accountColumns = `id, user_id, account_number, account_name, account_type, balance, version, created_at, updated_at`

// Postgres implements ledger.Store on database/sql. Each atomic unit is a
// database transaction; locked reads use SELECT ... FOR UPDATE and balance
// writes are guarded by an optimistic version check.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

var _ ledger.Store = (*Postgres)(nil)

func (p *Postgres) FindByOwner(ctx context.Context, userID string) (*models.Account, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1`, userID)
	return scanAccount(row)
}

func (p *Postgres) FindByNumber(ctx context.Context, number string) (*models.Account, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE account_number = $1`, number)
	return scanAccount(row)
}

func (p *Postgres) CreateAccount(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	account.Version = 1

	_, err := p.db.ExecContext(ctx, `
		INSERT INTO accounts (id, user_id, account_number, account_name, account_type, balance, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())`,
		account.ID, account.UserID, account.Number, account.Name, account.Type, account.Balance, account.Version)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ledger.ErrConflict
		}
		return err
	}
	return nil
}

func (p *Postgres) ListByOwner(ctx context.Context, userID string, page, pageSize int) ([]models.Transaction, int, error) {
	var total int
	err := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT id, user_id, transaction_type, amount, from_name, to_name, remark, created_at
		FROM transactions
		WHERE user_id = $1
		ORDER BY seq ASC
		OFFSET $2 LIMIT $3`,
		userID, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := []models.Transaction{}
	for rows.Next() {
		var (
			tx               models.Transaction
			from, to, remark sql.NullString
		)
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Type, &tx.Amount, &from, &to, &remark, &tx.CreatedAt); err != nil {
			return nil, 0, err
		}
		if tx.Type == models.TxTransfer {
			tx.Transfer = &models.TransferDetails{From: from.String, To: to.String, Remark: remark.String}
		}
		items = append(items, tx)
	}
	return items, total, rows.Err()
}

// Atomic wraps fn in a database transaction. Any error aborts with a full
// rollback; commit happens only after fn succeeds.
func (p *Postgres) Atomic(ctx context.Context, fn func(ops ledger.AtomicOps) error) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(&pgOps{ctx: ctx, tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

type pgOps struct {
	ctx context.Context
	tx  *sql.Tx
}

func (o *pgOps) LockByOwner(userID string) (*models.Account, error) {
	row := o.tx.QueryRowContext(o.ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 FOR UPDATE`, userID)
	return scanAccount(row)
}

func (o *pgOps) LockByNumber(number string) (*models.Account, error) {
	row := o.tx.QueryRowContext(o.ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE account_number = $1 FOR UPDATE`, number)
	return scanAccount(row)
}

func (o *pgOps) AdjustBalance(account *models.Account, delta decimal.Decimal) (*models.Account, error) {
	newBalance := account.Balance.Add(delta)
	if newBalance.Sign() < 0 {
		return nil, ledger.ErrInsufficientFunds
	}

	result, err := o.tx.ExecContext(o.ctx, `
		UPDATE accounts SET balance = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND version = $3`,
		newBalance, account.ID, account.Version)
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("optimistic lock failed for account %s", account.ID)
	}

	updated := *account
	updated.Balance = newBalance
	updated.Version++
	return &updated, nil
}

func (o *pgOps) Append(tx *models.Transaction) (*models.Transaction, error) {
	stored := *tx
	stored.ID = uuid.NewString()
	stored.CreatedAt = time.Now().UTC()

	var from, to, remark sql.NullString
	if stored.Transfer != nil {
		from = sql.NullString{String: stored.Transfer.From, Valid: true}
		to = sql.NullString{String: stored.Transfer.To, Valid: true}
		remark = sql.NullString{String: stored.Transfer.Remark, Valid: stored.Transfer.Remark != ""}
	}

	_, err := o.tx.ExecContext(o.ctx, `
		INSERT INTO transactions (id, user_id, transaction_type, amount, from_name, to_name, remark, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		stored.ID, stored.UserID, stored.Type, stored.Amount, from, to, remark, stored.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var account models.Account
	err := row.Scan(&account.ID, &account.UserID, &account.Number, &account.Name,
		&account.Type, &account.Balance, &account.Version, &account.CreatedAt, &account.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ledger.ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}
