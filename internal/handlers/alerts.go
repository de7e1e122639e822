package handlers

import (
	"net/http"

	"goldtrader/internal/middleware"
	"goldtrader/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	rows, err := h.alerts.ListByUser(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, r, err, "load alerts")
		return
	}
	out := make([]alertView, 0, len(rows))
	for _, row := range rows {
		out = append(out, newAlertView(row))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) GetAlert(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	alert, err := h.alerts.GetByIDForUser(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		h.respondServiceError(w, r, err, "load alert")
		return
	}
	respondJSON(w, http.StatusOK, newAlertView(alert))
}

type createAlertRequest struct {
	TargetPrice decimal.Decimal `json:"target_price" validate:"dgt=0,dplaces=2"`
	Condition   string          `json:"condition" validate:"required,oneof=ABOVE BELOW"`
}

func (h *Handler) CreateAlert(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createAlertRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	alert, err := h.alertFlow.Create(r.Context(), services.CreateAlertRequest{
		UserID:      userID,
		TargetPrice: req.TargetPrice,
		Condition:   req.Condition,
	})
	if err != nil {
		h.respondServiceError(w, r, err, "create alert")
		return
	}
	respondJSON(w, http.StatusCreated, newAlertView(alert))
}

type updateAlertRequest struct {
	TargetPrice *decimal.Decimal `json:"target_price" validate:"omitempty,dgt=0,dplaces=2"`
	Condition   *string          `json:"condition" validate:"omitempty,oneof=ABOVE BELOW"`
	IsActive    *bool            `json:"is_active"`
}

func (h *Handler) UpdateAlert(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req updateAlertRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	alert, err := h.alertFlow.Update(r.Context(), services.UpdateAlertRequest{
		UserID:      userID,
		AlertID:     chi.URLParam(r, "id"),
		TargetPrice: req.TargetPrice,
		Condition:   req.Condition,
		IsActive:    req.IsActive,
	})
	if err != nil {
		h.respondServiceError(w, r, err, "update alert")
		return
	}
	respondJSON(w, http.StatusOK, newAlertView(alert))
}

func (h *Handler) ToggleAlert(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	alert, err := h.alertFlow.Toggle(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err, "toggle alert")
		return
	}
	respondJSON(w, http.StatusOK, newAlertView(alert))
}

func (h *Handler) DeleteAlert(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.alertFlow.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		h.respondServiceError(w, r, err, "delete alert")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
