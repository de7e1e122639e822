package handlers

import (
	"context"

	"goldtrader/internal/models"
	"goldtrader/internal/services"
	"goldtrader/internal/store"

	"github.com/shopspring/decimal"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, user models.User) error
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
	GetByID(ctx context.Context, userID string) (models.User, error)
	UpdateProfile(ctx context.Context, tx store.Execer, user models.User) error
}

type HoldingStore interface {
	GetByUser(ctx context.Context, userID string) (models.Holding, error)
}

type TransactionStore interface {
	ListByUser(ctx context.Context, userID, txType string, limit, offset int) ([]models.Transaction, error)
	ListAll(ctx context.Context, limit, offset int) ([]models.Transaction, error)
}

type PriceStore interface {
	Latest(ctx context.Context) (models.PriceTick, error)
	GetByID(ctx context.Context, id string) (models.PriceTick, error)
	List(ctx context.Context, limit, offset int) ([]models.PriceTick, error)
}

type DepositStore interface {
	GetByIDForUser(ctx context.Context, id, userID string) (models.Deposit, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Deposit, error)
}

type AlertStore interface {
	GetByIDForUser(ctx context.Context, id, userID string) (models.PriceAlert, error)
	ListByUser(ctx context.Context, userID string) ([]models.PriceAlert, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID string, data any) error
	List(ctx context.Context, limit, offset int) ([]store.AuditEntry, error)
}

type TradeService interface {
	ExecuteTrade(ctx context.Context, req services.TradeRequest) (models.Transaction, error)
}

type DepositService interface {
	CreateDeposit(ctx context.Context, req services.DepositRequest) (models.Deposit, error)
	CompleteDeposit(ctx context.Context, req services.CompleteDepositRequest) (bool, decimal.Decimal, error)
	MockDeposit(ctx context.Context, req services.DepositRequest) (models.Deposit, decimal.Decimal, error)
}

type AlertService interface {
	Create(ctx context.Context, req services.CreateAlertRequest) (models.PriceAlert, error)
	Update(ctx context.Context, req services.UpdateAlertRequest) (models.PriceAlert, error)
	Toggle(ctx context.Context, userID, alertID string) (models.PriceAlert, error)
	Delete(ctx context.Context, userID, alertID string) error
}

type PriceService interface {
	RecordPrice(ctx context.Context, in services.RecordPriceInput) (models.PriceTick, error)
}
