package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account holds a user's funds. Exactly one account per user, created at
// registration. Balance is a fixed-point decimal (NUMERIC in postgres) and
// is mutated only by the ledger engine inside an atomic unit.
type Account struct {
	ID        string          `json:"id" db:"id"`
	UserID    string          `json:"user_id" db:"user_id"`
	Number    string          `json:"account_number" db:"account_number"`
	Name      string          `json:"account_name" db:"account_name"`
	Type      AccountType     `json:"account_type" db:"account_type"`
	Balance   decimal.Decimal `json:"balance" db:"balance"`
	Version   int             `json:"-" db:"version"` // for optimistic locking
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}

type AccountType string

const (
	AccountSavings AccountType = "savings"
	AccountCurrent AccountType = "current"
)
