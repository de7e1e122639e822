package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"goldtrader/internal/db"
	"goldtrader/internal/models"
	"goldtrader/internal/services"
)

func TestTradeSuccess(t *testing.T) {
	var got services.TradeRequest
	h := newTestHandler(func(deps *Deps) {
		deps.Trades = stubTradeService{
			executeFn: func(_ context.Context, req services.TradeRequest) (models.Transaction, error) {
				got = req
				return models.Transaction{
					ID:               "tx-1",
					UserID:           req.UserID,
					TransactionType:  req.Type,
					GoldWeight:       req.Amount,
					GoldPricePerGram: d("2500"),
					TotalAmount:      d("5000"),
					Status:           models.StatusCompleted,
					TransactionDate:  time.Now(),
				}, nil
			},
		}
	})

	rr := serve(t, h, http.MethodPost, "/trade", `{"type":"BUY","amount":"2.0"}`, "user-1")
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if got.UserID != "user-1" || got.Type != models.TradeBuy || !got.Amount.Equal(d("2")) {
		t.Fatalf("unexpected trade request: %#v", got)
	}
	var resp struct {
		Transaction transactionView `json:"transaction"`
	}
	decodeBody(t, rr, &resp)
	if resp.Transaction.GoldWeight != "2.000" || resp.Transaction.TotalAmount != "5000.00" || resp.Transaction.GoldPricePerGram != "2500.00" {
		t.Fatalf("unexpected transaction: %#v", resp.Transaction)
	}
	if resp.Transaction.Status != models.StatusCompleted {
		t.Fatalf("unexpected status: %s", resp.Transaction.Status)
	}
}

func TestTradeAcceptsNumericAmount(t *testing.T) {
	h := newTestHandler(nil)
	rr := serve(t, h, http.MethodPost, "/trade", `{"type":"SELL","amount":1.25}`, "user-1")
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestTradeValidation(t *testing.T) {
	h := newTestHandler(func(deps *Deps) {
		deps.Trades = stubTradeService{
			executeFn: func(context.Context, services.TradeRequest) (models.Transaction, error) {
				t.Fatal("service must not be called for invalid input")
				return models.Transaction{}, nil
			},
		}
	})
	cases := []struct {
		body  string
		field string
	}{
		{`{"type":"HOLD","amount":"1"}`, "type"},
		{`{"type":"BUY","amount":"0"}`, "amount"},
		{`{"type":"BUY","amount":"-1"}`, "amount"},
		{`{"type":"BUY","amount":"1.2345"}`, "amount"},
		{`{"type":"BUY"}`, "amount"},
	}
	for _, tc := range cases {
		rr := serve(t, h, http.MethodPost, "/trade", tc.body, "user-1")
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.body, rr.Code)
		}
		var resp struct {
			Fields map[string]string `json:"fields"`
		}
		decodeBody(t, rr, &resp)
		if resp.Fields[tc.field] == "" {
			t.Fatalf("%s: expected %s field error, got %v", tc.body, tc.field, resp.Fields)
		}
	}
	if rr := serve(t, h, http.MethodPost, "/trade", `not json`, "user-1"); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rr.Code)
	}
}

func TestTradeErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{services.ErrInsufficientBalance, http.StatusBadRequest},
		{services.ErrNoPriceData, http.StatusBadRequest},
		{services.ErrNoHolding, http.StatusBadRequest},
		{services.ErrInsufficientHolding, http.StatusBadRequest},
		{services.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: %w", db.ErrTransient, errors.New("deadlock detected")), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		h := newTestHandler(func(deps *Deps) {
			deps.Trades = stubTradeService{
				executeFn: func(context.Context, services.TradeRequest) (models.Transaction, error) {
					return models.Transaction{}, tc.err
				},
			}
		})
		rr := serve(t, h, http.MethodPost, "/trade", `{"type":"BUY","amount":"1"}`, "user-1")
		if rr.Code != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, rr.Code)
		}
	}
}

func TestTradeRequiresAuth(t *testing.T) {
	h := newTestHandler(nil)
	if rr := serve(t, h, http.MethodPost, "/trade", `{"type":"BUY","amount":"1"}`, ""); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestTradeRateLimited(t *testing.T) {
	h := newTestHandler(func(deps *Deps) {
		deps.Config.TradeRatePerSecond = 0.001
		deps.Config.TradeRateBurst = 1
	})
	if rr := serve(t, h, http.MethodPost, "/trade", `{"type":"BUY","amount":"1"}`, "user-1"); rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	if rr := serve(t, h, http.MethodPost, "/trade", `{"type":"BUY","amount":"1"}`, "user-1"); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
}

func TestListTransactionsPagination(t *testing.T) {
	var gotType string
	var gotLimit, gotOffset int
	h := newTestHandler(func(deps *Deps) {
		deps.Transactions = stubTransactionStore{
			listByUserFn: func(_ context.Context, userID, txType string, limit, offset int) ([]models.Transaction, error) {
				gotType, gotLimit, gotOffset = txType, limit, offset
				return []models.Transaction{{ID: "tx-1", UserID: userID, TransactionType: models.TradeSell, GoldWeight: d("1.5")}}, nil
			},
		}
	})
	rr := serve(t, h, http.MethodGet, "/transactions?type=sell&page=3&limit=5", "", "user-1")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if gotType != models.TradeSell || gotLimit != 5 || gotOffset != 10 {
		t.Fatalf("unexpected query: type=%s limit=%d offset=%d", gotType, gotLimit, gotOffset)
	}
	var resp []transactionView
	decodeBody(t, rr, &resp)
	if len(resp) != 1 || resp[0].GoldWeight != "1.500" || resp[0].UserID != "" {
		t.Fatalf("unexpected transactions: %#v", resp)
	}

	serve(t, h, http.MethodGet, "/transactions?limit=1000", "", "user-1")
	if gotLimit != maxPageSize || gotOffset != 0 {
		t.Fatalf("expected capped limit, got limit=%d offset=%d", gotLimit, gotOffset)
	}
}

func TestListTransactionsRejectsUnknownType(t *testing.T) {
	h := newTestHandler(nil)
	if rr := serve(t, h, http.MethodGet, "/transactions?type=swap", "", "user-1"); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
