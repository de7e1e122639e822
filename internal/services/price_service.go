package services

import (
	"context"
	"time"

	"goldtrader/internal/broadcast"
	"goldtrader/internal/db"
	"goldtrader/internal/metrics"
	"goldtrader/internal/models"
	"goldtrader/internal/money"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AlertChecker is the slice of AlertService the price path depends on.
type AlertChecker interface {
	CheckAndTrigger(ctx context.Context, current decimal.NullDecimal) ([]models.PriceAlert, error)
}

type PriceService struct {
	txRunner  db.TxRunner
	prices    PriceStore
	alerts    AlertChecker
	publisher broadcast.Publisher
	logger    *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewPriceService(txRunner db.TxRunner, prices PriceStore, alerts AlertChecker, publisher broadcast.Publisher, logger *zap.Logger, m *metrics.Metrics) *PriceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PriceService{
		txRunner:  txRunner,
		prices:    prices,
		alerts:    alerts,
		publisher: publisher,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

type RecordPriceInput struct {
	PricePerGram decimal.Decimal
	Currency     string
	Source       *string
	Notes        *string
	Timestamp    time.Time
	Persist      bool
}

// RecordPrice is the single entry point for a new tick: it optionally
// stores it, then always broadcasts it and evaluates alerts. Broadcast and
// alert failures are logged only.
func (s *PriceService) RecordPrice(ctx context.Context, in RecordPriceInput) (models.PriceTick, error) {
	if !in.PricePerGram.IsPositive() {
		return models.PriceTick{}, ErrInvalidAmount
	}
	price := money.Money(in.PricePerGram)
	tick := models.PriceTick{
		ID:           uuid.NewString(),
		PricePerGram: price,
		PricePerBaht: money.PricePerBaht(price),
		Currency:     in.Currency,
		Source:       in.Source,
		Notes:        in.Notes,
		Timestamp:    in.Timestamp,
	}
	if tick.Currency == "" {
		tick.Currency = models.DefaultCurrency
	}
	if tick.Timestamp.IsZero() {
		tick.Timestamp = s.now().UTC()
	}

	if in.Persist {
		err := s.txRunner.WithTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
			return s.prices.Create(ctx, tx, tick)
		})
		if err != nil {
			return models.PriceTick{}, err
		}
	}
	s.metrics.ObservePriceTick(price)

	if err := s.publisher.PublishPrice(ctx, broadcast.NewPriceUpdate(tick)); err != nil {
		s.logger.Error("failed to broadcast price update", zap.Error(err))
	}
	triggered, err := s.alerts.CheckAndTrigger(ctx, decimal.NullDecimal{Decimal: price, Valid: true})
	if err != nil {
		s.logger.Error("alert check failed", zap.String("price_per_gram", money.FormatMoney(price)), zap.Error(err))
	}
	s.logger.Info("price recorded",
		zap.String("price_per_gram", money.FormatMoney(price)),
		zap.Bool("persisted", in.Persist),
		zap.Int("alerts_triggered", len(triggered)),
	)
	return tick, nil
}
