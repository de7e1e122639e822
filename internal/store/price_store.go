package store

import (
	"context"

	"goldtrader/internal/models"
)

type PriceStore struct {
	db DB
}

func NewPriceStore(db DB) *PriceStore {
	return &PriceStore{db: db}
}

const priceColumns = `id, price_per_gram, price_per_baht, currency, source, notes, timestamp`

func (s *PriceStore) Create(ctx context.Context, tx Execer, tick models.PriceTick) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO price_history (id, price_per_gram, price_per_baht, currency, source, notes, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, tick.ID, tick.PricePerGram, tick.PricePerBaht, tick.Currency, tick.Source, tick.Notes, tick.Timestamp)
	return err
}

// Latest returns the tick with the greatest timestamp.
func (s *PriceStore) Latest(ctx context.Context) (models.PriceTick, error) {
	return s.LatestTx(ctx, s.db)
}

func (s *PriceStore) LatestTx(ctx context.Context, q Getter) (models.PriceTick, error) {
	var row models.PriceTick
	err := q.GetContext(ctx, &row, `SELECT `+priceColumns+` FROM price_history ORDER BY timestamp DESC LIMIT 1`)
	return row, err
}

func (s *PriceStore) GetByID(ctx context.Context, id string) (models.PriceTick, error) {
	var row models.PriceTick
	err := s.db.GetContext(ctx, &row, `SELECT `+priceColumns+` FROM price_history WHERE id = $1`, id)
	return row, err
}

func (s *PriceStore) List(ctx context.Context, limit, offset int) ([]models.PriceTick, error) {
	rows := []models.PriceTick{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+priceColumns+`
		FROM price_history
		ORDER BY timestamp DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
