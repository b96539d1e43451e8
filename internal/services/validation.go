package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/simplebank/backend/internal/ledger"
)

// ErrorResponse represents error response structure
type ErrorResponse struct {
	Error   string            `json:"error"`             // Error message
	Details map[string]string `json:"details,omitempty"` // Validation details
}

// ValidationHelper provides shared validation functionality
type ValidationHelper struct {
	validator *validator.Validate
}

func NewValidationHelper() *ValidationHelper {
	return &ValidationHelper{
		validator: validator.New(),
	}
}

// ValidateStruct validates a struct and returns validation errors
func (vh *ValidationHelper) ValidateStruct(s any) error {
	return vh.validator.Struct(s)
}

// SendErrorResponse sends a JSON error response
func SendErrorResponse(w http.ResponseWriter, message string, statusCode int, validationErr error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResp := ErrorResponse{Error: message}
	if validationErr != nil {
		errorResp.Details = make(map[string]string)
		for _, err := range validationErr.(validator.ValidationErrors) {
			errorResp.Details[err.Field()] = fmt.Sprintf("Field Validation Failed on '%s' tag", err.Tag())
		}
	}

	json.NewEncoder(w).Encode(errorResp)
}

// SendLedgerError maps engine sentinels to HTTP status codes. Failed
// operations leave balances exactly as before the call, so 502s are safe
// to retry.
func SendLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound):
		SendErrorResponse(w, "Account not found", http.StatusNotFound, nil)
	case errors.Is(err, ledger.ErrInsufficientFunds):
		SendErrorResponse(w, "Insufficient funds", http.StatusUnprocessableEntity, nil)
	case errors.Is(err, ledger.ErrInvalidAccount):
		SendErrorResponse(w, "Invalid account", http.StatusBadRequest, nil)
	case errors.Is(err, ledger.ErrInvalidAmount):
		SendErrorResponse(w, "Amount must be positive", http.StatusBadRequest, nil)
	case errors.Is(err, ledger.ErrConflict):
		SendErrorResponse(w, "Account already exists", http.StatusConflict, nil)
	default:
		SendErrorResponse(w, "Operation failed, no changes were applied", http.StatusBadGateway, nil)
	}
}
