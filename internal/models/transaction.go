package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TxDeposit    TransactionType = "deposit"
	TxWithdrawal TransactionType = "withdrawal"
	TxTransfer   TransactionType = "transfer"

	// TxBalanceInquiry tags notification events for balance reads. It is
	// never stored in the transaction log.
	TxBalanceInquiry TransactionType = "balance_inquiry"
)

// TransferDetails is present only on transfer transactions. Accounts are
// referenced by display name, which is unique.
type TransferDetails struct {
	From   string `json:"from" db:"from_name"`
	To     string `json:"to" db:"to_name"`
	Remark string `json:"remark,omitempty" db:"remark"`
}

// Transaction is a single committed ledger operation. The amount is always
// a positive magnitude; the type tag carries the sign. Records are created
// exactly once when an operation commits and are never updated or deleted.
type Transaction struct {
	ID        string           `json:"id" db:"id"`
	UserID    string           `json:"user_id" db:"user_id"`
	Type      TransactionType  `json:"transaction_type" db:"transaction_type"`
	Amount    decimal.Decimal  `json:"amount" db:"amount"`
	Transfer  *TransferDetails `json:"transfer,omitempty"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

// Signed returns the amount as applied to the owner's account: negative
// for withdrawals and outgoing transfers, positive for deposits.
func (t *Transaction) Signed() decimal.Decimal {
	switch t.Type {
	case TxWithdrawal, TxTransfer:
		return t.Amount.Neg()
	default:
		return t.Amount
	}
}
