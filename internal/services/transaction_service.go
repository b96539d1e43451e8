package services

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/simplebank/backend/internal/ledger"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// TransactionService serves the paginated, read-only transaction history.
type TransactionService struct {
	engine *ledger.Engine
}

func NewTransactionService(engine *ledger.Engine) *TransactionService {
	return &TransactionService{engine: engine}
}

// ListTransactions retrieves the caller's transaction history
// @Summary List transactions
// @Description Paginated transaction history for the authenticated user, in insertion order
// @Tags transactions
// @Produce json
// @Param page query int false "Page number (1-indexed, default 1)"
// @Param limit query int false "Page size (default 10, max 100)"
// @Success 200 {object} object{transactions=[]models.Transaction,total=int,totalPages=int,page=int}
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /transactions [get]
func (s *TransactionService) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	page := queryInt(r, "page", defaultPage)
	limit := queryInt(r, "limit", defaultLimit)
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 || limit > maxLimit {
		limit = defaultLimit
	}

	items, total, err := s.engine.History(r.Context(), userID, page, limit)
	if err != nil {
		log.Printf("[TRANSACTION] Listing failed for user %s: %v", userID, err)
		SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
		return
	}

	totalPages := (total + limit - 1) / limit

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"transactions": items,
		"total":        total,
		"totalPages":   totalPages,
		"page":         page,
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
