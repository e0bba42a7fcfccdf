package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"rootedinspeech/internal/models"
)

// CreateUser stores a new account. ErrEmailTaken is returned for a duplicate email.
func (db *DB) CreateUser(ctx context.Context, user models.User, passwordHash string) error {
	query := `INSERT INTO users (id, name, email, password_hash) VALUES (?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query, user.ID, user.Name, strings.TrimSpace(user.Email), passwordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail returns the account and its password hash.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, string, error) {
	query := `SELECT id, name, email, password_hash FROM users WHERE email = ?`

	var (
		user models.User
		hash string
	)
	err := db.QueryRowContext(ctx, query, strings.TrimSpace(email)).Scan(&user.ID, &user.Name, &user.Email, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	return &user, hash, nil
}

func (db *DB) UserExists(ctx context.Context, id string) (bool, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE id = ?`, id).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}
