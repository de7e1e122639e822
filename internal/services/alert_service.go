package services

import (
	"context"

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

type AlertService struct {
	txRunner  db.TxRunner
	alerts    AlertStore
	audit     AuditStore
	publisher broadcast.Publisher
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

func NewAlertService(txRunner db.TxRunner, alerts AlertStore, audit AuditStore, publisher broadcast.Publisher, logger *zap.Logger, m *metrics.Metrics) *AlertService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertService{
		txRunner:  txRunner,
		alerts:    alerts,
		audit:     audit,
		publisher: publisher,
		logger:    logger,
		metrics:   m,
	}
}

// CheckAndTrigger fires every pending alert matched by current and returns
// the ones this call triggered. An invalid price is a no-op. Notification
// failures are logged and do not undo the trigger.
func (s *AlertService) CheckAndTrigger(ctx context.Context, current decimal.NullDecimal) ([]models.PriceAlert, error) {
	triggered := []models.PriceAlert{}
	if !current.Valid {
		s.logger.Warn("alert check skipped: no current price")
		return triggered, nil
	}
	pending, err := s.alerts.ListPending(ctx)
	if err != nil {
		return nil, err
	}
	for _, alert := range pending {
		if !alert.Matches(current.Decimal) {
			continue
		}
		at, ok, err := s.alerts.MarkTriggered(ctx, alert.ID)
		if err != nil {
			s.logger.Error("failed to trigger alert", zap.String("alert_id", alert.ID), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		alert.IsActive = false
		alert.IsTriggered = true
		alert.TriggeredAt = &at
		triggered = append(triggered, alert)
		s.logger.Info("alert triggered",
			zap.String("alert_id", alert.ID),
			zap.String("user_id", alert.UserID),
			zap.String("condition", alert.Condition),
			zap.String("target_price", money.FormatMoney(alert.TargetPrice)),
		)
		if err := s.publisher.PublishAlert(ctx, alert.UserID, broadcast.NewAlertEvent(alert, current.Decimal)); err != nil {
			s.logger.Error("failed to send alert notification", zap.String("alert_id", alert.ID), zap.Error(err))
		}
	}
	s.metrics.AlertsTriggered(len(triggered))
	return triggered, nil
}

type CreateAlertRequest struct {
	UserID      string
	TargetPrice decimal.Decimal
	Condition   string
}

func (s *AlertService) Create(ctx context.Context, req CreateAlertRequest) (models.PriceAlert, error) {
	if !req.TargetPrice.IsPositive() {
		return models.PriceAlert{}, ErrInvalidAmount
	}
	if !models.IsCondition(req.Condition) {
		return models.PriceAlert{}, ErrInvalidCondition
	}
	alert := models.PriceAlert{
		ID:          uuid.NewString(),
		UserID:      req.UserID,
		TargetPrice: money.Money(req.TargetPrice),
		Condition:   req.Condition,
		IsActive:    true,
	}
	err := s.txRunner.WithTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := s.alerts.Create(ctx, tx, alert); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, req.UserID, "alert.create", "price_alert", alert.ID, alertAuditData(alert))
	})
	if err != nil {
		return models.PriceAlert{}, err
	}
	return alert, nil
}

type UpdateAlertRequest struct {
	UserID      string
	AlertID     string
	TargetPrice *decimal.Decimal
	Condition   *string
	IsActive    *bool
}

// Update applies the non-nil fields. Trigger state is not reset.
func (s *AlertService) Update(ctx context.Context, req UpdateAlertRequest) (models.PriceAlert, error) {
	if req.TargetPrice != nil && !req.TargetPrice.IsPositive() {
		return models.PriceAlert{}, ErrInvalidAmount
	}
	if req.Condition != nil && !models.IsCondition(*req.Condition) {
		return models.PriceAlert{}, ErrInvalidCondition
	}
	return s.mutate(ctx, req.UserID, req.AlertID, "alert.update", func(alert *models.PriceAlert) {
		if req.TargetPrice != nil {
			alert.TargetPrice = money.Money(*req.TargetPrice)
		}
		if req.Condition != nil {
			alert.Condition = *req.Condition
		}
		if req.IsActive != nil {
			alert.IsActive = *req.IsActive
		}
	})
}

func (s *AlertService) Toggle(ctx context.Context, userID, alertID string) (models.PriceAlert, error) {
	return s.mutate(ctx, userID, alertID, "alert.toggle", func(alert *models.PriceAlert) {
		alert.IsActive = !alert.IsActive
	})
}

func (s *AlertService) mutate(ctx context.Context, userID, alertID, action string, apply func(*models.PriceAlert)) (models.PriceAlert, error) {
	var alert models.PriceAlert
	err := s.txRunner.WithTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		var err error
		alert, err = s.alerts.GetForUpdate(ctx, tx, alertID, userID)
		if err != nil {
			return notFound(err)
		}
		apply(&alert)
		if err := s.alerts.Update(ctx, tx, alert); err != nil {
			return err
		}
		return s.audit.Log(ctx, tx, userID, action, "price_alert", alert.ID, alertAuditData(alert))
	})
	if err != nil {
		return models.PriceAlert{}, err
	}
	return alert, nil
}

func (s *AlertService) Delete(ctx context.Context, userID, alertID string) error {
	return s.txRunner.WithTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		n, err := s.alerts.Delete(ctx, tx, alertID, userID)
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return s.audit.Log(ctx, tx, userID, "alert.delete", "price_alert", alertID, map[string]string{})
	})
}

func alertAuditData(alert models.PriceAlert) map[string]any {
	return map[string]any{
		"target_price": money.FormatMoney(alert.TargetPrice),
		"condition":    alert.Condition,
		"is_active":    alert.IsActive,
	}
}
