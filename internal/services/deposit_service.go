package services

import (
	"context"
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

const DefaultPaymentMethod = "BANK_TRANSFER"

type DepositService struct {
	txRunner  db.TxRunner
	users     UserStore
	deposits  DepositStore
	audit     AuditStore
	mockLimit decimal.Decimal
	logger    *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewDepositService(txRunner db.TxRunner, users UserStore, deposits DepositStore, audit AuditStore, mockLimit decimal.Decimal, logger *zap.Logger, m *metrics.Metrics) *DepositService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DepositService{
		txRunner:  txRunner,
		users:     users,
		deposits:  deposits,
		audit:     audit,
		mockLimit: mockLimit,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

type DepositRequest struct {
	UserID        string
	Amount        decimal.Decimal
	PaymentMethod string
	Notes         string
}

func (s *DepositService) newDeposit(req DepositRequest, status string) models.Deposit {
	method := req.PaymentMethod
	if method == "" {
		method = DefaultPaymentMethod
	}
	now := s.now().UTC()
	return models.Deposit{
		ID:            uuid.NewString(),
		UserID:        req.UserID,
		Amount:        req.Amount,
		Status:        status,
		Reference:     newReference(),
		PaymentMethod: method,
		Notes:         req.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func validDepositAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() && money.HasPlaces(amount, money.MoneyPlaces)
}

// CreateDeposit records a PENDING deposit with a fresh reference. The
// balance is untouched until CompleteDeposit.
func (s *DepositService) CreateDeposit(ctx context.Context, req DepositRequest) (models.Deposit, error) {
	if !validDepositAmount(req.Amount) {
		return models.Deposit{}, ErrInvalidAmount
	}
	deposit := s.newDeposit(req, models.StatusPending)
	err := s.txRunner.WithTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := s.deposits.Create(ctx, tx, deposit); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, req.UserID, "deposit.create", "deposit", deposit.ID, map[string]string{
			"amount":    money.FormatMoney(deposit.Amount),
			"reference": deposit.Reference,
		})
	})
	if err != nil {
		s.metrics.ObserveDeposit("pending", "error")
		return models.Deposit{}, err
	}
	s.metrics.ObserveDeposit("pending", "ok")
	return deposit, nil
}

type CompleteDepositRequest struct {
	UserID    string
	DepositID string
	Reference string
}

// CompleteDeposit credits a PENDING deposit once. It reports false with the
// current balance when the deposit was already completed.
func (s *DepositService) CompleteDeposit(ctx context.Context, req CompleteDepositRequest) (bool, decimal.Decimal, error) {
	var completed bool
	var balance decimal.Decimal
	err := s.txRunner.WithTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		user, err := s.users.GetForUpdate(ctx, tx, req.UserID)
		if err != nil {
			return notFound(err)
		}
		balance = user.Balance
		deposit, err := s.deposits.GetForUpdate(ctx, tx, req.DepositID, req.UserID)
		if err != nil {
			return notFound(err)
		}
		if deposit.Reference != req.Reference {
			return ErrInvalidReference
		}
		switch deposit.Status {
		case models.StatusCompleted:
			return nil
		case models.StatusFailed:
			return ErrDepositFailed
		}
		if err := s.deposits.UpdateStatus(ctx, tx, deposit.ID, models.StatusCompleted); err != nil {
			return err
		}
		balance = money.Money(user.Balance.Add(deposit.Amount))
		if err := s.users.UpdateBalance(ctx, tx, req.UserID, balance); err != nil {
			return err
		}
		completed = true
		return s.audit.Log(ctx, tx, req.UserID, "deposit.complete", "deposit", deposit.ID, map[string]string{
			"amount":        money.FormatMoney(deposit.Amount),
			"balance_after": money.FormatMoney(balance),
		})
	})
	if err != nil {
		s.metrics.ObserveDeposit("complete", "error")
		return false, decimal.Zero, err
	}
	if completed {
		s.metrics.ObserveDeposit("complete", "ok")
		s.logger.Info("deposit completed", zap.String("user_id", req.UserID), zap.String("deposit_id", req.DepositID))
	}
	return completed, balance, nil
}

// MockDeposit creates and completes a deposit in one step, bounded by the
// configured mock limit.
func (s *DepositService) MockDeposit(ctx context.Context, req DepositRequest) (models.Deposit, decimal.Decimal, error) {
	if !validDepositAmount(req.Amount) {
		return models.Deposit{}, decimal.Zero, ErrInvalidAmount
	}
	if req.Amount.GreaterThan(s.mockLimit) {
		return models.Deposit{}, decimal.Zero, ErrLimitExceeded
	}
	deposit := s.newDeposit(req, models.StatusCompleted)
	var balance decimal.Decimal
	err := s.txRunner.WithTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		user, err := s.users.GetForUpdate(ctx, tx, req.UserID)
		if err != nil {
			return notFound(err)
		}
		if err := s.deposits.Create(ctx, tx, deposit); err != nil {
			return err
		}
		balance = money.Money(user.Balance.Add(deposit.Amount))
		if err := s.users.UpdateBalance(ctx, tx, req.UserID, balance); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, req.UserID, "deposit.mock", "deposit", deposit.ID, map[string]string{
			"amount":        money.FormatMoney(deposit.Amount),
			"reference":     deposit.Reference,
			"balance_after": money.FormatMoney(balance),
		})
	})
	if err != nil {
		s.metrics.ObserveDeposit("mock", "error")
		return models.Deposit{}, decimal.Zero, err
	}
	s.metrics.ObserveDeposit("mock", "ok")
	s.logger.Info("mock deposit processed", zap.String("user_id", req.UserID), zap.String("amount", money.FormatMoney(deposit.Amount)))
	return deposit, balance, nil
}
