package handlers

import (
	"net/http"

	"goldtrader/internal/auth"
	"goldtrader/internal/broadcast"
	"goldtrader/internal/middleware"
	"goldtrader/internal/websocket"
)

func (h *Handler) AdminListTransactions(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	rows, err := h.transactions.ListAll(r.Context(), limit, offset)
	if err != nil {
		h.respondServiceError(w, r, err, "load transactions")
		return
	}
	respondJSON(w, http.StatusOK, transactionViews(rows, true))
}

func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	rows, err := h.audit.List(r.Context(), limit, offset)
	if err != nil {
		h.respondServiceError(w, r, err, "load audit logs")
		return
	}
	out := make([]auditView, 0, len(rows))
	for _, row := range rows {
		out = append(out, newAuditView(row))
	}
	respondJSON(w, http.StatusOK, out)
}

// WSPrices subscribes an anonymous client to the global price group.
func (h *Handler) WSPrices(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWS(w, r, h.hub, broadcast.PriceGroup)
}

// WSAlerts subscribes the token's user to their own alert group. Browsers
// cannot set headers on upgrade, so the token may come in ?token=.
func (h *Handler) WSAlerts(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = middleware.BearerToken(r)
	}
	if token == "" {
		respondError(w, http.StatusUnauthorized, "missing token")
		return
	}
	claims, err := auth.ParseToken(h.cfg.JWTSecret, token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	websocket.ServeWS(w, r, h.hub, broadcast.AlertGroup(claims.UserID))
}
