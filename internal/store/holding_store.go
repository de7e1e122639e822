package store

import (
	"context"

	"goldtrader/internal/models"
)

type HoldingStore struct {
	db DB
}

func NewHoldingStore(db DB) *HoldingStore {
	return &HoldingStore{db: db}
}

const holdingColumns = `id, user_id, amount, avg_price, total_value, created_at, updated_at`

func (s *HoldingStore) GetByUser(ctx context.Context, userID string) (models.Holding, error) {
	var row models.Holding
	err := s.db.GetContext(ctx, &row, `SELECT `+holdingColumns+` FROM gold_holdings WHERE user_id = $1`, userID)
	return row, err
}

func (s *HoldingStore) GetForUpdate(ctx context.Context, tx Getter, userID string) (models.Holding, error) {
	var row models.Holding
	err := tx.GetContext(ctx, &row, `SELECT `+holdingColumns+` FROM gold_holdings WHERE user_id = $1 FOR UPDATE`, userID)
	return row, err
}

func (s *HoldingStore) Create(ctx context.Context, tx Execer, holding models.Holding) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO gold_holdings (id, user_id, amount, avg_price, total_value)
		VALUES ($1, $2, $3, $4, $5)
	`, holding.ID, holding.UserID, holding.Amount, holding.AvgPrice, holding.TotalValue)
	return err
}

func (s *HoldingStore) Update(ctx context.Context, tx Execer, holding models.Holding) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE gold_holdings
		SET amount = $1, avg_price = $2, total_value = $3, updated_at = NOW()
		WHERE id = $4
	`, holding.Amount, holding.AvgPrice, holding.TotalValue, holding.ID)
	return err
}
