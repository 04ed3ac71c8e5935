package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rogerio-castellano/restock-analytics/internal/models"
)

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var u models.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, role, created_at, updated_at FROM users WHERE username = $1`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return u, err
}

func (r *PostgresUserRepository) CreateUser(ctx context.Context, u models.User) (models.User, error) {
	query := `INSERT INTO users (username, password_hash, role, created_at, updated_at) VALUES ($1, $2, $3, $4, $4) RETURNING id`
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	now := time.Now().UTC()
	err := r.db.QueryRowContext(ctx, query, u.Username, u.PasswordHash, u.Role, now).Scan(&u.ID)
	if isUniqueViolation(err) {
		return models.User{}, ErrDuplicatedValueUnique
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to insert user: %w", err)
	}
	u.CreatedAt, u.UpdatedAt = now, now
	return u, nil
}
