package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"goldtrader/internal/db"
	"goldtrader/internal/services"
	"goldtrader/internal/validator"

	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondValidation(w http.ResponseWriter, errs validator.Errors) {
	respondJSON(w, http.StatusBadRequest, map[string]any{
		"error":  "validation failed",
		"fields": errs,
	})
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
// It writes the 400 response itself and reports whether the caller may go on.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return false
	}
	if err := validator.Struct(dst); err != nil {
		var fieldErrs validator.Errors
		if errors.As(err, &fieldErrs) {
			respondValidation(w, fieldErrs)
			return false
		}
		respondError(w, http.StatusBadRequest, "invalid payload")
		return false
	}
	return true
}

// respondServiceError maps the errors shared by every endpoint. Domain rule
// violations are 400, missing or foreign rows are 404 and storage conflicts
// are 503 so the client can retry.
func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, err error, op string) {
	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, sql.ErrNoRows):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInvalidTradeType),
		errors.Is(err, services.ErrInvalidCondition),
		errors.Is(err, services.ErrNoPriceData),
		errors.Is(err, services.ErrInsufficientBalance),
		errors.Is(err, services.ErrNoHolding),
		errors.Is(err, services.ErrInsufficientHolding),
		errors.Is(err, services.ErrLimitExceeded),
		errors.Is(err, services.ErrInvalidReference),
		errors.Is(err, services.ErrDepositFailed):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, db.ErrTransient):
		h.logger.Warn("transient storage failure", zap.String("op", op), zap.Error(err))
		respondError(w, http.StatusServiceUnavailable, "temporarily unavailable, retry")
	default:
		h.logger.Error("request failed",
			zap.String("op", op),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		respondError(w, http.StatusInternalServerError, op+" failed")
	}
}

func parseInt(raw string, fallback int) int {
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

// pagination reads ?page= and ?limit= (1-based page, capped limit).
func pagination(r *http.Request) (limit, offset int) {
	query := r.URL.Query()
	page := parseInt(query.Get("page"), 1)
	limit = parseInt(query.Get("limit"), defaultPageSize)
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return limit, (page - 1) * limit
}
