package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"goldtrader/internal/auth"
	"goldtrader/internal/config"
	"goldtrader/internal/models"
	"goldtrader/internal/services"
	"goldtrader/internal/store"
	"goldtrader/internal/websocket"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

const testSecret = "secret"

type fakeTxRunner struct {
	withTxFn func(ctx context.Context, fn func(context.Context, *sqlx.Tx) error) error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(context.Context, *sqlx.Tx) error) error {
	if f.withTxFn != nil {
		return f.withTxFn(ctx, fn)
	}
	return fn(ctx, nil)
}

type stubUserStore struct {
	createFn        func(ctx context.Context, tx store.Execer, user models.User) error
	getByEmailFn    func(ctx context.Context, email string) (models.User, error)
	getByUsernameFn func(ctx context.Context, username string) (models.User, error)
	getByIDFn       func(ctx context.Context, userID string) (models.User, error)
	updateProfileFn func(ctx context.Context, tx store.Execer, user models.User) error
}

func (s stubUserStore) Create(ctx context.Context, tx store.Execer, user models.User) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, user)
}

func (s stubUserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	if s.getByEmailFn == nil {
		return models.User{}, sql.ErrNoRows
	}
	return s.getByEmailFn(ctx, email)
}

func (s stubUserStore) GetByUsername(ctx context.Context, username string) (models.User, error) {
	if s.getByUsernameFn == nil {
		return models.User{}, sql.ErrNoRows
	}
	return s.getByUsernameFn(ctx, username)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	if s.getByIDFn == nil {
		return models.User{ID: userID}, nil
	}
	return s.getByIDFn(ctx, userID)
}

func (s stubUserStore) UpdateProfile(ctx context.Context, tx store.Execer, user models.User) error {
	if s.updateProfileFn == nil {
		return nil
	}
	return s.updateProfileFn(ctx, tx, user)
}

type stubHoldingStore struct {
	getByUserFn func(ctx context.Context, userID string) (models.Holding, error)
}

func (s stubHoldingStore) GetByUser(ctx context.Context, userID string) (models.Holding, error) {
	if s.getByUserFn == nil {
		return models.Holding{}, sql.ErrNoRows
	}
	return s.getByUserFn(ctx, userID)
}

type stubTransactionStore struct {
	listByUserFn func(ctx context.Context, userID, txType string, limit, offset int) ([]models.Transaction, error)
	listAllFn    func(ctx context.Context, limit, offset int) ([]models.Transaction, error)
}

func (s stubTransactionStore) ListByUser(ctx context.Context, userID, txType string, limit, offset int) ([]models.Transaction, error) {
	if s.listByUserFn == nil {
		return []models.Transaction{}, nil
	}
	return s.listByUserFn(ctx, userID, txType, limit, offset)
}

func (s stubTransactionStore) ListAll(ctx context.Context, limit, offset int) ([]models.Transaction, error) {
	if s.listAllFn == nil {
		return []models.Transaction{}, nil
	}
	return s.listAllFn(ctx, limit, offset)
}

type stubPriceStore struct {
	latestFn  func(ctx context.Context) (models.PriceTick, error)
	getByIDFn func(ctx context.Context, id string) (models.PriceTick, error)
	listFn    func(ctx context.Context, limit, offset int) ([]models.PriceTick, error)
}

func (s stubPriceStore) Latest(ctx context.Context) (models.PriceTick, error) {
	if s.latestFn == nil {
		return models.PriceTick{}, sql.ErrNoRows
	}
	return s.latestFn(ctx)
}

func (s stubPriceStore) GetByID(ctx context.Context, id string) (models.PriceTick, error) {
	if s.getByIDFn == nil {
		return models.PriceTick{}, sql.ErrNoRows
	}
	return s.getByIDFn(ctx, id)
}

func (s stubPriceStore) List(ctx context.Context, limit, offset int) ([]models.PriceTick, error) {
	if s.listFn == nil {
		return []models.PriceTick{}, nil
	}
	return s.listFn(ctx, limit, offset)
}

type stubDepositStore struct {
	getByIDForUserFn func(ctx context.Context, id, userID string) (models.Deposit, error)
	listByUserFn     func(ctx context.Context, userID string, limit, offset int) ([]models.Deposit, error)
}

func (s stubDepositStore) GetByIDForUser(ctx context.Context, id, userID string) (models.Deposit, error) {
	if s.getByIDForUserFn == nil {
		return models.Deposit{}, sql.ErrNoRows
	}
	return s.getByIDForUserFn(ctx, id, userID)
}

func (s stubDepositStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Deposit, error) {
	if s.listByUserFn == nil {
		return []models.Deposit{}, nil
	}
	return s.listByUserFn(ctx, userID, limit, offset)
}

type stubAlertStore struct {
	getByIDForUserFn func(ctx context.Context, id, userID string) (models.PriceAlert, error)
	listByUserFn     func(ctx context.Context, userID string) ([]models.PriceAlert, error)
}

func (s stubAlertStore) GetByIDForUser(ctx context.Context, id, userID string) (models.PriceAlert, error) {
	if s.getByIDForUserFn == nil {
		return models.PriceAlert{}, sql.ErrNoRows
	}
	return s.getByIDForUserFn(ctx, id, userID)
}

func (s stubAlertStore) ListByUser(ctx context.Context, userID string) ([]models.PriceAlert, error) {
	if s.listByUserFn == nil {
		return []models.PriceAlert{}, nil
	}
	return s.listByUserFn(ctx, userID)
}

type stubAuditStore struct {
	logFn  func(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID string, data any) error
	listFn func(ctx context.Context, limit, offset int) ([]store.AuditEntry, error)
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID string, data any) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorID, action, entityType, entityID, data)
}

func (s stubAuditStore) List(ctx context.Context, limit, offset int) ([]store.AuditEntry, error) {
	if s.listFn == nil {
		return []store.AuditEntry{}, nil
	}
	return s.listFn(ctx, limit, offset)
}

type stubTradeService struct {
	executeFn func(ctx context.Context, req services.TradeRequest) (models.Transaction, error)
}

func (s stubTradeService) ExecuteTrade(ctx context.Context, req services.TradeRequest) (models.Transaction, error) {
	if s.executeFn == nil {
		return models.Transaction{}, nil
	}
	return s.executeFn(ctx, req)
}

type stubDepositService struct {
	createFn   func(ctx context.Context, req services.DepositRequest) (models.Deposit, error)
	completeFn func(ctx context.Context, req services.CompleteDepositRequest) (bool, decimal.Decimal, error)
	mockFn     func(ctx context.Context, req services.DepositRequest) (models.Deposit, decimal.Decimal, error)
}

func (s stubDepositService) CreateDeposit(ctx context.Context, req services.DepositRequest) (models.Deposit, error) {
	if s.createFn == nil {
		return models.Deposit{}, nil
	}
	return s.createFn(ctx, req)
}

func (s stubDepositService) CompleteDeposit(ctx context.Context, req services.CompleteDepositRequest) (bool, decimal.Decimal, error) {
	if s.completeFn == nil {
		return false, decimal.Zero, nil
	}
	return s.completeFn(ctx, req)
}

func (s stubDepositService) MockDeposit(ctx context.Context, req services.DepositRequest) (models.Deposit, decimal.Decimal, error) {
	if s.mockFn == nil {
		return models.Deposit{}, decimal.Zero, nil
	}
	return s.mockFn(ctx, req)
}

type stubAlertService struct {
	createFn func(ctx context.Context, req services.CreateAlertRequest) (models.PriceAlert, error)
	updateFn func(ctx context.Context, req services.UpdateAlertRequest) (models.PriceAlert, error)
	toggleFn func(ctx context.Context, userID, alertID string) (models.PriceAlert, error)
	deleteFn func(ctx context.Context, userID, alertID string) error
}

func (s stubAlertService) Create(ctx context.Context, req services.CreateAlertRequest) (models.PriceAlert, error) {
	if s.createFn == nil {
		return models.PriceAlert{}, nil
	}
	return s.createFn(ctx, req)
}

func (s stubAlertService) Update(ctx context.Context, req services.UpdateAlertRequest) (models.PriceAlert, error) {
	if s.updateFn == nil {
		return models.PriceAlert{}, nil
	}
	return s.updateFn(ctx, req)
}

func (s stubAlertService) Toggle(ctx context.Context, userID, alertID string) (models.PriceAlert, error) {
	if s.toggleFn == nil {
		return models.PriceAlert{}, nil
	}
	return s.toggleFn(ctx, userID, alertID)
}

func (s stubAlertService) Delete(ctx context.Context, userID, alertID string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, userID, alertID)
}

type stubPriceService struct {
	recordFn func(ctx context.Context, in services.RecordPriceInput) (models.PriceTick, error)
}

func (s stubPriceService) RecordPrice(ctx context.Context, in services.RecordPriceInput) (models.PriceTick, error) {
	if s.recordFn == nil {
		return models.PriceTick{}, nil
	}
	return s.recordFn(ctx, in)
}

// newTestHandler builds a Handler whose collaborators are all default stubs.
// mutate may replace any of them.
func newTestHandler(mutate func(*Deps)) *Handler {
	deps := Deps{
		TxRunner: fakeTxRunner{},
		Config: config.Config{
			AppEnv:             "test",
			JWTSecret:          testSecret,
			TokenTTL:           time.Minute,
			AllowedOrigins:     "*",
			TradeRatePerSecond: 1000,
			TradeRateBurst:     1000,
		},
		Users:        stubUserStore{},
		Holdings:     stubHoldingStore{},
		Transactions: stubTransactionStore{},
		Prices:       stubPriceStore{},
		Deposits:     stubDepositStore{},
		Alerts:       stubAlertStore{},
		Audit:        stubAuditStore{},
		Trades:       stubTradeService{},
		DepositFlow:  stubDepositService{},
		AlertFlow:    stubAlertService{},
		PriceFeed:    stubPriceService{},
		Hub:          websocket.NewHub(),
	}
	if mutate != nil {
		mutate(&deps)
	}
	return New(deps)
}

// serve sends a request through the full router. A non-empty userID is
// sent as a bearer token.
func serve(t *testing.T, h *Handler, method, path, body, userID string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if userID != "" {
		token, err := auth.GenerateToken(testSecret, userID, time.Minute)
		if err != nil {
			t.Fatalf("failed to generate token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.Routes().ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("invalid json body %q: %v", rr.Body.String(), err)
	}
}

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func stringPtr(value string) *string {
	return &value
}
