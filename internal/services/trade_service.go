package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"goldtrader/internal/db"
	"goldtrader/internal/metrics"
	"goldtrader/internal/models"
	"goldtrader/internal/money"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type TradeService struct {
	txRunner     db.TxRunner
	users        UserStore
	holdings     HoldingStore
	transactions TransactionStore
	prices       PriceStore
	audit        AuditStore
	logger       *zap.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
}

func NewTradeService(txRunner db.TxRunner, users UserStore, holdings HoldingStore, transactions TransactionStore, prices PriceStore, audit AuditStore, logger *zap.Logger, m *metrics.Metrics) *TradeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TradeService{
		txRunner:     txRunner,
		users:        users,
		holdings:     holdings,
		transactions: transactions,
		prices:       prices,
		audit:        audit,
		logger:       logger,
		metrics:      m,
		now:          time.Now,
	}
}

type TradeRequest struct {
	UserID string
	Type   string
	Amount decimal.Decimal
}

// ExecuteTrade buys or sells gold at the latest price. Balance, holding and
// the transaction row change together or not at all.
func (s *TradeService) ExecuteTrade(ctx context.Context, req TradeRequest) (models.Transaction, error) {
	if !models.IsTradeType(req.Type) {
		return models.Transaction{}, ErrInvalidTradeType
	}
	if !req.Amount.IsPositive() || !money.HasPlaces(req.Amount, money.WeightPlaces) {
		return models.Transaction{}, ErrInvalidAmount
	}

	var result models.Transaction
	err := s.txRunner.WithTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		user, err := s.users.GetForUpdate(ctx, tx, req.UserID)
		if err != nil {
			return notFound(err)
		}
		tick, err := s.prices.LatestTx(ctx, tx)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNoPriceData
		}
		if err != nil {
			return err
		}
		price := tick.PricePerGram
		total := money.Money(req.Amount.Mul(price))

		holding, err := s.holdings.GetForUpdate(ctx, tx, req.UserID)
		exists := true
		if errors.Is(err, sql.ErrNoRows) {
			exists = false
		} else if err != nil {
			return err
		}

		var balance decimal.Decimal
		switch req.Type {
		case models.TradeBuy:
			if user.Balance.LessThan(total) {
				return ErrInsufficientBalance
			}
			if !exists {
				holding = models.NewHolding(uuid.NewString(), req.UserID)
			}
			holding.ApplyBuy(req.Amount, price)
			balance = user.Balance.Sub(total)
		case models.TradeSell:
			if !exists {
				return ErrNoHolding
			}
			if err := holding.ApplySell(req.Amount); err != nil {
				return err
			}
			balance = user.Balance.Add(total)
		}

		if err := s.users.UpdateBalance(ctx, tx, req.UserID, money.Money(balance)); err != nil {
			return err
		}
		if exists {
			err = s.holdings.Update(ctx, tx, holding)
		} else {
			err = s.holdings.Create(ctx, tx, holding)
		}
		if err != nil {
			return err
		}

		now := s.now().UTC()
		result = models.Transaction{
			ID:               uuid.NewString(),
			UserID:           req.UserID,
			TransactionType:  req.Type,
			GoldWeight:       money.Weight(req.Amount),
			GoldPricePerGram: price,
			TotalAmount:      total,
			Status:           models.StatusCompleted,
			TransactionDate:  now,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := s.transactions.Create(ctx, tx, result); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, req.UserID, "trade."+req.Type, "transaction", result.ID, map[string]string{
			"gold_weight":         money.FormatWeight(result.GoldWeight),
			"gold_price_per_gram": money.FormatMoney(price),
			"total_amount":        money.FormatMoney(total),
			"balance_after":       money.FormatMoney(balance),
		})
	})
	if err != nil {
		s.metrics.ObserveTrade(req.Type, outcome(err), req.Amount)
		return models.Transaction{}, err
	}
	s.metrics.ObserveTrade(req.Type, "ok", req.Amount)
	s.logger.Info("trade executed",
		zap.String("user_id", req.UserID),
		zap.String("type", req.Type),
		zap.String("gold_weight", money.FormatWeight(result.GoldWeight)),
		zap.String("total_amount", money.FormatMoney(result.TotalAmount)),
	)
	return result, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInsufficientBalance), errors.Is(err, ErrInsufficientHolding), errors.Is(err, ErrNoHolding), errors.Is(err, ErrNoPriceData):
		return "rejected"
	case errors.Is(err, db.ErrTransient):
		return "transient"
	default:
		return "error"
	}
}
