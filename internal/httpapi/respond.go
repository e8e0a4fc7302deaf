package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vladislavdragonenkov/ims/internal/domain"
)

// headerUser — заголовок с непрозрачной идентичностью вызывающего.
// Аутентификация выполняется выше по стеку, значение не проверяется.
const headerUser = "X-User"

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError переводит доменную ошибку в HTTP-статус.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrConstraintViolation):
		return http.StatusConflict
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case isValidationError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func isValidationError(err error) bool {
	validation := []error{
		domain.ErrEmptyCart,
		domain.ErrProductNameRequired,
		domain.ErrPriceInvalid,
		domain.ErrStockNegative,
		domain.ErrThresholdInvalid,
		domain.ErrOwnerRequired,
		domain.ErrProductIDRequired,
		domain.ErrQtyInvalid,
		domain.ErrLinesRequired,
		domain.ErrAmountMismatch,
		domain.ErrUnknownEntryKind,
	}
	for _, sentinel := range validation {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
