package store

import (
	"context"

	"goldtrader/internal/models"
)

type DepositStore struct {
	db DB
}

func NewDepositStore(db DB) *DepositStore {
	return &DepositStore{db: db}
}

const depositColumns = `id, user_id, amount, status, reference, payment_method, notes, created_at, updated_at`

func (s *DepositStore) Create(ctx context.Context, tx Execer, d models.Deposit) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO deposits (id, user_id, amount, status, reference, payment_method, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, d.ID, d.UserID, d.Amount, d.Status, d.Reference, d.PaymentMethod, d.Notes)
	return err
}

// GetByIDForUser scopes the lookup to the owner so a foreign id reads as
// missing.
func (s *DepositStore) GetByIDForUser(ctx context.Context, id, userID string) (models.Deposit, error) {
	var row models.Deposit
	err := s.db.GetContext(ctx, &row, `SELECT `+depositColumns+` FROM deposits WHERE id = $1 AND user_id = $2`, id, userID)
	return row, err
}

func (s *DepositStore) GetForUpdate(ctx context.Context, tx Getter, id, userID string) (models.Deposit, error) {
	var row models.Deposit
	err := tx.GetContext(ctx, &row, `SELECT `+depositColumns+` FROM deposits WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID)
	return row, err
}

func (s *DepositStore) UpdateStatus(ctx context.Context, tx Execer, id, status string) error {
	_, err := tx.ExecContext(ctx, `UPDATE deposits SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	return err
}

func (s *DepositStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Deposit, error) {
	rows := []models.Deposit{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+depositColumns+`
		FROM deposits
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
