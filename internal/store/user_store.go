package store

import (
	"context"

	"goldtrader/internal/models"

	"github.com/shopspring/decimal"
)

type UserStore struct {
	db DB
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, username, email, password_hash, balance, is_staff, first_name, last_name, phone_number, date_of_birth, created_at, updated_at`

func (s *UserStore) Create(ctx context.Context, tx Execer, user models.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, balance, is_staff)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.ExecContext(ctx, query, user.ID, user.Username, user.Email, user.PasswordHash, user.Balance, user.IsStaff)
	return err
}

func (s *UserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	var row models.User
	err := s.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID)
	return row, err
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (models.User, error) {
	var row models.User
	err := s.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return row, err
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var row models.User
	err := s.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return row, err
}

// GetForUpdate locks the user row. Every balance change takes this lock
// before touching any other row owned by the user.
func (s *UserStore) GetForUpdate(ctx context.Context, tx Getter, userID string) (models.User, error) {
	var row models.User
	err := tx.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, userID)
	return row, err
}

func (s *UserStore) UpdateBalance(ctx context.Context, tx Execer, userID string, balance decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users
		SET balance = $1, updated_at = NOW()
		WHERE id = $2
	`, balance, userID)
	return err
}

// UpdateProfile writes the editable profile fields only. Balance and
// credentials are never touched here.
func (s *UserStore) UpdateProfile(ctx context.Context, tx Execer, user models.User) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE users
		SET first_name = $1, last_name = $2, phone_number = $3, date_of_birth = $4, updated_at = NOW()
		WHERE id = $5
	`, user.FirstName, user.LastName, user.PhoneNumber, user.DateOfBirth, user.ID)
	return err
}
