package store

import (
	"context"
	"strconv"

	"goldtrader/internal/models"
)

type TransactionStore struct {
	db DB
}

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

const transactionColumns = `id, user_id, transaction_type, gold_weight, gold_price_per_gram, total_amount, status, transaction_date, created_at, updated_at`

func (s *TransactionStore) Create(ctx context.Context, tx Execer, t models.Transaction) error {
	query := `
		INSERT INTO transactions (id, user_id, transaction_type, gold_weight, gold_price_per_gram, total_amount, status, transaction_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := tx.ExecContext(ctx, query,
		t.ID, t.UserID, t.TransactionType, t.GoldWeight, t.GoldPricePerGram, t.TotalAmount, t.Status, t.TransactionDate,
	)
	return err
}

// ListByUser returns the user's trades newest first. An empty txType lists
// both BUY and SELL.
func (s *TransactionStore) ListByUser(ctx context.Context, userID, txType string, limit, offset int) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = $1`
	args := []any{userID}
	param := 2
	if txType != "" {
		query += " AND transaction_type = $2"
		args = append(args, txType)
		param = 3
	}
	query += " ORDER BY transaction_date DESC LIMIT $" + strconv.Itoa(param) + " OFFSET $" + strconv.Itoa(param+1)
	args = append(args, limit, offset)
	rows := []models.Transaction{}
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *TransactionStore) ListAll(ctx context.Context, limit, offset int) ([]models.Transaction, error) {
	rows := []models.Transaction{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+transactionColumns+`
		FROM transactions
		ORDER BY transaction_date DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
