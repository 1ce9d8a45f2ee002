package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/logger"
	"rental-marketplace-backend/internal/repository"
)

type userRepository struct {
	q queryer
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{q: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u := &domain.User{}
	query := `SELECT id, name, email, role FROM users WHERE id = $1`
	if err := r.q.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Name, &u.Email, &u.Role); err != nil {
		return nil, mapError("get user", "user not found", err)
	}
	return u, nil
}

func (r *userRepository) Upsert(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (id, name, email, role) VALUES ($1, $2, $3, $4)
	          ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, role = EXCLUDED.role, updated_at = NOW()`
	logger.DatabaseCall("UPSERT", "users", "userID", u.ID, "role", u.Role)
	_, err := r.q.ExecContext(ctx, query, u.ID, u.Name, u.Email, u.Role)
	logger.DatabaseResult("UPSERT", 1, err, "userID", u.ID)
	return mapError("upsert user", "", err)
}
