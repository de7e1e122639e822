package handlers

import (
	"net/http"

	"goldtrader/internal/middleware"
	"goldtrader/internal/money"
	"goldtrader/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type depositRequest struct {
	Amount        decimal.Decimal `json:"amount" validate:"dgt=0,dplaces=2"`
	PaymentMethod string          `json:"payment_method" validate:"omitempty,max=50"`
	Notes         string          `json:"notes" validate:"omitempty,max=500"`
}

func (r depositRequest) toService(userID string) services.DepositRequest {
	return services.DepositRequest{
		UserID:        userID,
		Amount:        r.Amount,
		PaymentMethod: r.PaymentMethod,
		Notes:         r.Notes,
	}
}

func (h *Handler) ListDeposits(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit, offset := pagination(r)
	rows, err := h.deposits.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		h.respondServiceError(w, r, err, "load deposits")
		return
	}
	out := make([]depositView, 0, len(rows))
	for _, row := range rows {
		out = append(out, newDepositView(row))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) GetDeposit(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	deposit, err := h.deposits.GetByIDForUser(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		h.respondServiceError(w, r, err, "load deposit")
		return
	}
	respondJSON(w, http.StatusOK, newDepositView(deposit))
}

func (h *Handler) CreateDeposit(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req depositRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	deposit, err := h.depositFlow.CreateDeposit(r.Context(), req.toService(userID))
	if err != nil {
		h.respondServiceError(w, r, err, "deposit")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"deposit": newDepositView(deposit),
	})
}

type completeDepositRequest struct {
	Reference string `json:"reference" validate:"required,max=64"`
}

func (h *Handler) CompleteDeposit(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req completeDepositRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	completed, balance, err := h.depositFlow.CompleteDeposit(r.Context(), services.CompleteDepositRequest{
		UserID:    userID,
		DepositID: chi.URLParam(r, "id"),
		Reference: req.Reference,
	})
	if err != nil {
		h.respondServiceError(w, r, err, "complete deposit")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"completed": completed,
		"balance":   money.FormatMoney(balance),
	})
}

func (h *Handler) MockDeposit(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req depositRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	deposit, balance, err := h.depositFlow.MockDeposit(r.Context(), req.toService(userID))
	if err != nil {
		h.respondServiceError(w, r, err, "deposit")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"deposit": newDepositView(deposit),
		"balance": money.FormatMoney(balance),
	})
}
