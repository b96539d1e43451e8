package services

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/simplebank/backend/internal/ledger"
)

// AccountService exposes the ledger engine's operations over HTTP. The
// routing layer authenticates the caller; request shape is checked here,
// business rules (existence, sufficiency) belong to the engine.
type AccountService struct {
	engine    *ledger.Engine
	validator *ValidationHelper
}

func NewAccountService(engine *ledger.Engine) *AccountService {
	return &AccountService{
		engine:    engine,
		validator: NewValidationHelper(),
	}
}

// DepositRequest represents a deposit request payload
// @Description Deposit request structure
type DepositRequest struct {
	AccountNumber string          `json:"accountNumber" validate:"required" example:"2348012345678"` // Target account number
	Amount        decimal.Decimal `json:"amount" swaggertype:"number" example:"5000.00"`             // Amount to credit
}

// WithdrawRequest represents a withdrawal request payload
// @Description Withdrawal request structure
type WithdrawRequest struct {
	AccountNumber string          `json:"accountNumber" validate:"required" example:"2348012345678"` // Source account number
	Amount        decimal.Decimal `json:"amount" swaggertype:"number" example:"1000.00"`             // Amount to debit
}

// TransferRequest represents a transfer request payload
// @Description Transfer request structure
type TransferRequest struct {
	AccountNumber string          `json:"accountNumber" validate:"required" example:"2348098765432"` // Receiver account number
	AccountName   string          `json:"accountName" validate:"required" example:"Jane Doe"`        // Receiver display name
	Amount        decimal.Decimal `json:"amount" swaggertype:"number" example:"2000.00"`             // Amount to transfer
	Remark        string          `json:"remark" validate:"max=200" example:"rent"`                  // Optional free-text remark
}

// Deposit credits an account
// @Summary Deposit funds
// @Description Credit an amount to an account and append a deposit transaction
// @Tags operations
// @Accept json
// @Produce json
// @Param request body DepositRequest true "Deposit request"
// @Success 201 {object} models.Transaction
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /operations/deposit [post]
func (s *AccountService) Deposit(w http.ResponseWriter, r *http.Request) {
	var req DepositRequest
	if !s.decode(w, r, &req) {
		return
	}

	rec, err := s.engine.Deposit(r.Context(), req.AccountNumber, req.Amount)
	if err != nil {
		log.Printf("[OPERATION] Deposit on %s failed: %v", req.AccountNumber, err)
		SendLedgerError(w, err)
		return
	}

	log.Printf("[OPERATION] Deposit %s on account %s committed (tx %s)", req.Amount, req.AccountNumber, rec.ID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"message":     "Deposit successful",
		"transaction": rec,
	})
}

// Withdraw debits an account
// @Summary Withdraw funds
// @Description Debit an amount from an account after a sufficiency check
// @Tags operations
// @Accept json
// @Produce json
// @Param request body WithdrawRequest true "Withdrawal request"
// @Success 201 {object} models.Transaction
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /operations/withdraw [post]
func (s *AccountService) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req WithdrawRequest
	if !s.decode(w, r, &req) {
		return
	}

	rec, err := s.engine.Withdraw(r.Context(), req.AccountNumber, req.Amount)
	if err != nil {
		log.Printf("[OPERATION] Withdrawal on %s failed: %v", req.AccountNumber, err)
		SendLedgerError(w, err)
		return
	}

	log.Printf("[OPERATION] Withdrawal %s on account %s committed (tx %s)", req.Amount, req.AccountNumber, rec.ID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"message":     "Withdrawal successful",
		"transaction": rec,
	})
}

// Transfer moves funds between accounts
// @Summary Transfer funds
// @Description Move an amount from the caller's account to another account; debit and credit commit together
// @Tags operations
// @Accept json
// @Produce json
// @Param request body TransferRequest true "Transfer request"
// @Success 201 {object} models.Transaction
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /operations/transfer [post]
func (s *AccountService) Transfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req TransferRequest
	if !s.decode(w, r, &req) {
		return
	}

	rec, err := s.engine.Transfer(r.Context(), userID, req.AccountNumber, req.Amount, req.Remark)
	if err != nil {
		log.Printf("[OPERATION] Transfer to %s by user %s failed: %v", req.AccountNumber, userID, err)
		SendLedgerError(w, err)
		return
	}

	log.Printf("[OPERATION] Transfer %s to account %s committed (tx %s)", req.Amount, req.AccountNumber, rec.ID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"message":     "Transfer successful",
		"transaction": rec,
	})
}

// Balance returns the caller's balance
// @Summary Balance inquiry
// @Description Return the authenticated user's account balance
// @Tags account
// @Produce json
// @Success 200 {object} object{accountNumber=string,balance=number}
// @Failure 404 {object} ErrorResponse
// @Router /account/balance [get]
func (s *AccountService) Balance(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok || userID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	account, err := s.engine.Balance(r.Context(), userID)
	if err != nil {
		SendLedgerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"accountNumber": account.Number,
		"accountName":   account.Name,
		"balance":       account.Balance,
	})
}

func (s *AccountService) decode(w http.ResponseWriter, r *http.Request, req any) bool {
	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}

	if err := s.validator.ValidateStruct(req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return false
	}
	return true
}
