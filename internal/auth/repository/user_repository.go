package repository

import (
	"database/sql"
	"fmt"

	"github.com/openbank/openbank/internal/models"
)

// UserRepository is the auth service's read-only view of the users table.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	query := `
		SELECT id, username, full_name, email, password_hash, phone_number, created_at, updated_at
		FROM users
		WHERE email = $1 AND deleted_at IS NULL
	`
	var user models.User
	var phoneNumber sql.NullString

	err := r.db.QueryRow(query, email).Scan(
		&user.ID, &user.Username, &user.FullName, &user.Email,
		&user.PasswordHash, &phoneNumber, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.PhoneNumber = phoneNumber.String
	return &user, nil
}
