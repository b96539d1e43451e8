package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/simplebank/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionService_ListTransactions(t *testing.T) {
	engine, mem := newTestEngine(t)
	service := NewTransactionService(engine)
	seedTestAccount(t, mem, "user1", "1000000001", "Ada Obi", 0)
	seedTestAccount(t, mem, "user2", "1000000002", "Bayo Oke", 0)

	ctx := context.Background()
	for i := 0; i < 12; i++ {
		_, err := engine.Deposit(ctx, "1000000001", decimal.NewFromInt(int64(i+1)))
		require.NoError(t, err)
	}
	_, err := engine.Deposit(ctx, "1000000002", decimal.NewFromInt(50))
	require.NoError(t, err)

	type listResponse struct {
		Transactions []models.Transaction `json:"transactions"`
		Total        int                  `json:"total"`
		TotalPages   int                  `json:"totalPages"`
		Page         int                  `json:"page"`
	}

	list := func(t *testing.T, userID, query string) (listResponse, int) {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions"+query, nil)
		w := httptest.NewRecorder()

		service.ListTransactions(w, authenticated(req, userID))

		var resp listResponse
		if w.Code == http.StatusOK {
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		}
		return resp, w.Code
	}

	t.Run("first page with defaults", func(t *testing.T) {
		resp, code := list(t, "user1", "")
		assert.Equal(t, http.StatusOK, code)
		assert.Len(t, resp.Transactions, 10)
		assert.Equal(t, 12, resp.Total)
		assert.Equal(t, 2, resp.TotalPages)
		assert.Equal(t, 1, resp.Page)
		assert.True(t, resp.Transactions[0].Amount.Equal(decimal.NewFromInt(1)), "history is in insertion order")
	})

	t.Run("second page holds the remainder", func(t *testing.T) {
		resp, code := list(t, "user1", "?page=2&limit=10")
		assert.Equal(t, http.StatusOK, code)
		require.Len(t, resp.Transactions, 2)
		assert.Equal(t, 12, resp.Total)
		assert.Equal(t, 2, resp.TotalPages)
		assert.Equal(t, 2, resp.Page)
		assert.True(t, resp.Transactions[0].Amount.Equal(decimal.NewFromInt(11)))
		assert.True(t, resp.Transactions[1].Amount.Equal(decimal.NewFromInt(12)))
	})

	t.Run("page past the end", func(t *testing.T) {
		resp, code := list(t, "user1", "?page=9")
		assert.Equal(t, http.StatusOK, code)
		assert.Empty(t, resp.Transactions)
		assert.Equal(t, 12, resp.Total)
	})

	t.Run("count scoped to the caller", func(t *testing.T) {
		resp, code := list(t, "user2", "")
		assert.Equal(t, http.StatusOK, code)
		assert.Len(t, resp.Transactions, 1)
		assert.Equal(t, 1, resp.Total)
		assert.Equal(t, 1, resp.TotalPages)
	})

	t.Run("bad paging falls back to defaults", func(t *testing.T) {
		resp, code := list(t, "user1", "?page=-3&limit=9999")
		assert.Equal(t, http.StatusOK, code)
		assert.Len(t, resp.Transactions, 10)
		assert.Equal(t, 1, resp.Page)
	})

	t.Run("missing auth context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions", nil)
		w := httptest.NewRecorder()

		service.ListTransactions(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
