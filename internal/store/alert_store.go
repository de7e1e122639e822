package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"goldtrader/internal/models"
)

type AlertStore struct {
	db DB
}

func NewAlertStore(db DB) *AlertStore {
	return &AlertStore{db: db}
}

const alertColumns = `id, user_id, target_price, condition, is_active, is_triggered, triggered_at, created_at, updated_at`

func (s *AlertStore) Create(ctx context.Context, tx Execer, a models.PriceAlert) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO price_alerts (id, user_id, target_price, condition, is_active, is_triggered)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, a.ID, a.UserID, a.TargetPrice, a.Condition, a.IsActive, a.IsTriggered)
	return err
}

func (s *AlertStore) GetByIDForUser(ctx context.Context, id, userID string) (models.PriceAlert, error) {
	var row models.PriceAlert
	err := s.db.GetContext(ctx, &row, `SELECT `+alertColumns+` FROM price_alerts WHERE id = $1 AND user_id = $2`, id, userID)
	return row, err
}

func (s *AlertStore) GetForUpdate(ctx context.Context, tx Getter, id, userID string) (models.PriceAlert, error) {
	var row models.PriceAlert
	err := tx.GetContext(ctx, &row, `SELECT `+alertColumns+` FROM price_alerts WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID)
	return row, err
}

func (s *AlertStore) ListByUser(ctx context.Context, userID string) ([]models.PriceAlert, error) {
	rows := []models.PriceAlert{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+alertColumns+`
		FROM price_alerts
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListPending returns alerts that are active and not yet triggered.
func (s *AlertStore) ListPending(ctx context.Context) ([]models.PriceAlert, error) {
	rows := []models.PriceAlert{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+alertColumns+`
		FROM price_alerts
		WHERE is_active = TRUE AND is_triggered = FALSE
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *AlertStore) Update(ctx context.Context, tx Execer, a models.PriceAlert) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE price_alerts
		SET target_price = $1, condition = $2, is_active = $3, updated_at = NOW()
		WHERE id = $4 AND user_id = $5
	`, a.TargetPrice, a.Condition, a.IsActive, a.ID, a.UserID)
	return err
}

func (s *AlertStore) Delete(ctx context.Context, tx Execer, id, userID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM price_alerts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MarkTriggered flips the alert to triggered only if it is still active and
// nobody has done so yet. The boolean is false when the alert was already
// triggered, deactivated or deleted since it was listed.
func (s *AlertStore) MarkTriggered(ctx context.Context, id string) (time.Time, bool, error) {
	var triggeredAt time.Time
	err := s.db.GetContext(ctx, &triggeredAt, `
		UPDATE price_alerts
		SET is_triggered = TRUE, is_active = FALSE, triggered_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND is_active = TRUE AND is_triggered = FALSE
		RETURNING triggered_at
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return triggeredAt, true, nil
}
