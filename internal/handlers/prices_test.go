package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"goldtrader/internal/models"
	"goldtrader/internal/money"
	"goldtrader/internal/services"
)

func TestCurrentPriceEmpty(t *testing.T) {
	h := newTestHandler(nil)
	rr := serve(t, h, http.MethodGet, "/prices/current", "", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	var resp map[string]string
	decodeBody(t, rr, &resp)
	if resp["error"] != "no price data" {
		t.Fatalf("unexpected error: %v", resp)
	}
}

func TestCurrentPrice(t *testing.T) {
	h := newTestHandler(func(deps *Deps) {
		deps.Prices = stubPriceStore{
			latestFn: func(context.Context) (models.PriceTick, error) {
				price := d("2850")
				return models.PriceTick{ID: "p-1", PricePerGram: price, PricePerBaht: money.PricePerBaht(price), Currency: "THB"}, nil
			},
		}
	})
	rr := serve(t, h, http.MethodGet, "/prices/current", "", "")
	var resp tickView
	decodeBody(t, rr, &resp)
	if resp.PricePerGram != "2850.00" || resp.PricePerBaht != "43445.40" {
		t.Fatalf("unexpected tick: %#v", resp)
	}
}

func TestGetPriceNotFound(t *testing.T) {
	h := newTestHandler(nil)
	if rr := serve(t, h, http.MethodGet, "/prices/missing", "", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestListPrices(t *testing.T) {
	var gotLimit int
	h := newTestHandler(func(deps *Deps) {
		deps.Prices = stubPriceStore{
			listFn: func(_ context.Context, limit, _ int) ([]models.PriceTick, error) {
				gotLimit = limit
				return []models.PriceTick{{ID: "p-2"}, {ID: "p-1"}}, nil
			},
		}
	})
	rr := serve(t, h, http.MethodGet, "/prices", "", "")
	var resp []tickView
	decodeBody(t, rr, &resp)
	if len(resp) != 2 || resp[0].ID != "p-2" || gotLimit != defaultPageSize {
		t.Fatalf("unexpected list: %#v limit=%d", resp, gotLimit)
	}
}

func TestCreatePriceRequiresStaff(t *testing.T) {
	h := newTestHandler(func(deps *Deps) {
		deps.PriceFeed = stubPriceService{
			recordFn: func(context.Context, services.RecordPriceInput) (models.PriceTick, error) {
				t.Fatal("non-staff must not record prices")
				return models.PriceTick{}, nil
			},
		}
	})
	if rr := serve(t, h, http.MethodPost, "/prices", `{"price_per_gram":"2850.00"}`, "user-1"); rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
	if rr := serve(t, h, http.MethodPost, "/prices", `{"price_per_gram":"2850.00"}`, ""); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestCreatePriceAsStaff(t *testing.T) {
	var got services.RecordPriceInput
	stamp := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	h := newTestHandler(func(deps *Deps) {
		deps.Users = stubUserStore{
			getByIDFn: func(_ context.Context, userID string) (models.User, error) {
				return models.User{ID: userID, IsStaff: true}, nil
			},
		}
		deps.PriceFeed = stubPriceService{
			recordFn: func(_ context.Context, in services.RecordPriceInput) (models.PriceTick, error) {
				got = in
				return models.PriceTick{ID: "p-1", PricePerGram: in.PricePerGram, Timestamp: in.Timestamp}, nil
			},
		}
	})
	rr := serve(t, h, http.MethodPost, "/prices", `{"price_per_gram":"2850.00","timestamp":"2024-05-01T10:00:00Z"}`, "staff-1")
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if !got.Persist || got.Source == nil || *got.Source != staffSource || !got.Timestamp.Equal(stamp) {
		t.Fatalf("unexpected record input: %#v", got)
	}

	if rr := serve(t, h, http.MethodPost, "/prices", `{"price_per_gram":"-5"}`, "staff-1"); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative price, got %d", rr.Code)
	}
}
