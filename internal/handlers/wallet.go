package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"goldtrader/internal/middleware"
	"goldtrader/internal/models"
	"goldtrader/internal/money"

	"github.com/shopspring/decimal"
)

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, r, err, "load balance")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"email":      user.Email,
		"balance":    money.FormatMoney(user.Balance),
		"updated_at": user.UpdatedAt.Format(time.RFC3339),
	})
}

// GetHoldings lists the caller's holdings. A user has at most one row, so
// the list is empty or has a single entry.
func (h *Handler) GetHoldings(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	holding, err := h.holdings.GetByUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondJSON(w, http.StatusOK, []holdingView{})
			return
		}
		h.respondServiceError(w, r, err, "load holdings")
		return
	}
	respondJSON(w, http.StatusOK, []holdingView{newHoldingView(holding)})
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	holding, err := h.holdings.GetByUser(r.Context(), userID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			h.respondServiceError(w, r, err, "load summary")
			return
		}
		holding = models.NewHolding("", userID)
	}
	tick, err := h.prices.Latest(r.Context())
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			h.respondServiceError(w, r, err, "load summary")
			return
		}
		// without a price nothing can be valued, only cost is known
		summary := holding.Summarize(decimal.Zero)
		summary.ProfitLoss = decimal.Zero
		summary.ProfitLossPercent = decimal.Zero
		respondJSON(w, http.StatusOK, newSummaryView(summary))
		return
	}
	respondJSON(w, http.StatusOK, newSummaryView(holding.Summarize(tick.PricePerGram)))
}
