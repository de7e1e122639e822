package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"goldtrader/internal/models"
	"goldtrader/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInvalidTradeType    = errors.New("transaction type must be BUY or SELL")
	ErrInvalidCondition    = errors.New("condition must be ABOVE or BELOW")
	ErrNoPriceData         = errors.New("no gold price data available")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNoHolding           = errors.New("no gold holding to sell")
	ErrInsufficientHolding = models.ErrInsufficientHolding
	ErrLimitExceeded       = errors.New("amount exceeds mock deposit limit")
	ErrInvalidReference    = errors.New("invalid reference")
	ErrDepositFailed       = errors.New("deposit has failed and cannot be completed")
	ErrNotFound            = errors.New("not found")
)

type UserStore interface {
	GetForUpdate(ctx context.Context, tx store.Getter, userID string) (models.User, error)
	UpdateBalance(ctx context.Context, tx store.Execer, userID string, balance decimal.Decimal) error
}

type HoldingStore interface {
	GetForUpdate(ctx context.Context, tx store.Getter, userID string) (models.Holding, error)
	Create(ctx context.Context, tx store.Execer, holding models.Holding) error
	Update(ctx context.Context, tx store.Execer, holding models.Holding) error
}

type TransactionStore interface {
	Create(ctx context.Context, tx store.Execer, t models.Transaction) error
}

type PriceStore interface {
	LatestTx(ctx context.Context, q store.Getter) (models.PriceTick, error)
	Create(ctx context.Context, tx store.Execer, tick models.PriceTick) error
}

type DepositStore interface {
	Create(ctx context.Context, tx store.Execer, d models.Deposit) error
	GetForUpdate(ctx context.Context, tx store.Getter, id, userID string) (models.Deposit, error)
	UpdateStatus(ctx context.Context, tx store.Execer, id, status string) error
}

type AlertStore interface {
	ListPending(ctx context.Context) ([]models.PriceAlert, error)
	MarkTriggered(ctx context.Context, id string) (time.Time, bool, error)
	Create(ctx context.Context, tx store.Execer, a models.PriceAlert) error
	GetForUpdate(ctx context.Context, tx store.Getter, id, userID string) (models.PriceAlert, error)
	Update(ctx context.Context, tx store.Execer, a models.PriceAlert) error
	Delete(ctx context.Context, tx store.Execer, id, userID string) (int64, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID string, data any) error
}

// notFound maps a missing row to ErrNotFound and leaves other errors alone.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func newReference() string {
	return "MOCK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}
