package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"goldtrader/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const staffSource = "MANUAL"

func (h *Handler) ListPrices(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	ticks, err := h.prices.List(r.Context(), limit, offset)
	if err != nil {
		h.respondServiceError(w, r, err, "load prices")
		return
	}
	out := make([]tickView, 0, len(ticks))
	for _, tick := range ticks {
		out = append(out, newTickView(tick))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *Handler) CurrentPrice(w http.ResponseWriter, r *http.Request) {
	tick, err := h.prices.Latest(r.Context())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "no price data")
			return
		}
		h.respondServiceError(w, r, err, "load price")
		return
	}
	respondJSON(w, http.StatusOK, newTickView(tick))
}

func (h *Handler) GetPrice(w http.ResponseWriter, r *http.Request) {
	tick, err := h.prices.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, r, err, "load price")
		return
	}
	respondJSON(w, http.StatusOK, newTickView(tick))
}

type createPriceRequest struct {
	PricePerGram decimal.Decimal `json:"price_per_gram" validate:"dgt=0,dplaces=2"`
	Currency     string          `json:"currency" validate:"omitempty,len=3"`
	Source       *string         `json:"source" validate:"omitempty,max=100"`
	Notes        *string         `json:"notes" validate:"omitempty,max=500"`
	Timestamp    *time.Time      `json:"timestamp"`
}

// CreatePrice records a staff-entered tick. It is stored, broadcast and run
// through alert evaluation like any simulator tick.
func (h *Handler) CreatePrice(w http.ResponseWriter, r *http.Request) {
	var req createPriceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	in := services.RecordPriceInput{
		PricePerGram: req.PricePerGram,
		Currency:     req.Currency,
		Source:       req.Source,
		Notes:        req.Notes,
		Persist:      true,
	}
	if in.Source == nil {
		source := staffSource
		in.Source = &source
	}
	if req.Timestamp != nil {
		in.Timestamp = req.Timestamp.UTC()
	}
	tick, err := h.priceFeed.RecordPrice(r.Context(), in)
	if err != nil {
		h.respondServiceError(w, r, err, "record price")
		return
	}
	respondJSON(w, http.StatusCreated, newTickView(tick))
}
