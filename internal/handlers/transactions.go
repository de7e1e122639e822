package handlers

import (
	"net/http"
	"strings"

	"goldtrader/internal/middleware"
	"goldtrader/internal/models"
	"goldtrader/internal/services"
	"goldtrader/internal/validator"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type tradeRequest struct {
	Type   string          `json:"type" validate:"required,oneof=BUY SELL"`
	Amount decimal.Decimal `json:"amount" validate:"dgt=0,dplaces=3"`
}

func (h *Handler) Trade(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req tradeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	txn, err := h.trades.ExecuteTrade(r.Context(), services.TradeRequest{
		UserID: userID,
		Type:   req.Type,
		Amount: req.Amount,
	})
	if err != nil {
		h.respondServiceError(w, r, err, "trade")
		return
	}
	h.logger.Info("trade executed",
		zap.String("user_id", userID),
		zap.String("transaction_id", txn.ID),
		zap.String("type", txn.TransactionType),
	)
	respondJSON(w, http.StatusCreated, map[string]any{
		"transaction": newTransactionView(txn),
	})
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	txType := strings.ToUpper(r.URL.Query().Get("type"))
	if txType != "" && !models.IsTradeType(txType) {
		respondValidation(w, validator.Errors{"type": "must be one of: BUY SELL"})
		return
	}
	limit, offset := pagination(r)
	rows, err := h.transactions.ListByUser(r.Context(), userID, txType, limit, offset)
	if err != nil {
		h.respondServiceError(w, r, err, "load transactions")
		return
	}
	respondJSON(w, http.StatusOK, transactionViews(rows, false))
}
