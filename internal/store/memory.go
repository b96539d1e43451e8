package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simplebank/backend/internal/ledger"
	"github.com/simplebank/backend/internal/models"
)

// Memory is an in-memory ledger.Store. A single store mutex serializes
// atomic units, and units stage their writes and apply them only on
// success, so an aborted unit leaves no trace. Intended for tests and
// local development.
type Memory struct {
	mu       sync.Mutex
	accounts map[string]*models.Account // keyed by account number
	byOwner  map[string]string          // user id -> account number
	byName   map[string]string          // display name -> account number
	log      []models.Transaction
}

func NewMemory() *Memory {
	return &Memory{
		accounts: make(map[string]*models.Account),
		byOwner:  make(map[string]string),
		byName:   make(map[string]string),
	}
}

var _ ledger.Store = (*Memory)(nil)

func (m *Memory) FindByOwner(ctx context.Context, userID string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	number, ok := m.byOwner[userID]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}
	cp := *m.accounts[number]
	return &cp, nil
}

func (m *Memory) FindByNumber(ctx context.Context, number string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[number]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}
	cp := *account
	return &cp, nil
}

func (m *Memory) CreateAccount(ctx context.Context, account *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.accounts[account.Number]; exists {
		return ledger.ErrConflict
	}
	if _, exists := m.byName[account.Name]; exists {
		return ledger.ErrConflict
	}
	if _, exists := m.byOwner[account.UserID]; exists {
		return ledger.ErrConflict
	}

	cp := *account
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	cp.Version = 1
	now := time.Now().UTC()
	cp.CreatedAt = now
	cp.UpdatedAt = now

	m.accounts[cp.Number] = &cp
	m.byOwner[cp.UserID] = cp.Number
	m.byName[cp.Name] = cp.Number
	*account = cp
	return nil
}

func (m *Memory) ListByOwner(ctx context.Context, userID string, page, pageSize int) ([]models.Transaction, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	owned := []models.Transaction{}
	for _, tx := range m.log {
		if tx.UserID == userID {
			owned = append(owned, tx)
		}
	}

	total := len(owned)
	start := (page - 1) * pageSize
	if start >= total {
		return []models.Transaction{}, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return owned[start:end], total, nil
}

// Atomic serializes the unit under the store mutex. fn works against a
// staged view; mutations become visible only if fn returns nil.
func (m *Memory) Atomic(ctx context.Context, fn func(ops ledger.AtomicOps) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ops := &memOps{store: m, balances: make(map[string]decimal.Decimal)}
	if err := fn(ops); err != nil {
		return err
	}

	now := time.Now().UTC()
	for number, balance := range ops.balances {
		account := m.accounts[number]
		account.Balance = balance
		account.Version++
		account.UpdatedAt = now
	}
	m.log = append(m.log, ops.appended...)
	return nil
}

type memOps struct {
	store    *Memory
	balances map[string]decimal.Decimal // staged balance by account number
	appended []models.Transaction
}

func (o *memOps) LockByOwner(userID string) (*models.Account, error) {
	number, ok := o.store.byOwner[userID]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}
	return o.LockByNumber(number)
}

func (o *memOps) LockByNumber(number string) (*models.Account, error) {
	account, ok := o.store.accounts[number]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}
	cp := *account
	if staged, ok := o.balances[number]; ok {
		cp.Balance = staged
	}
	return &cp, nil
}

func (o *memOps) AdjustBalance(account *models.Account, delta decimal.Decimal) (*models.Account, error) {
	current := account.Balance
	if staged, ok := o.balances[account.Number]; ok {
		current = staged
	}

	newBalance := current.Add(delta)
	if newBalance.Sign() < 0 {
		return nil, ledger.ErrInsufficientFunds
	}
	o.balances[account.Number] = newBalance

	cp := *account
	cp.Balance = newBalance
	return &cp, nil
}

func (o *memOps) Append(tx *models.Transaction) (*models.Transaction, error) {
	stored := *tx
	stored.ID = uuid.NewString()
	stored.CreatedAt = time.Now().UTC()
	o.appended = append(o.appended, stored)
	return &stored, nil
}
