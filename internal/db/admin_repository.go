package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/udisondev/polebot/internal/model"
)

// AdminRepository управляет учётками административного API.
type AdminRepository struct {
	db *pgxpool.Pool
}

// NewAdminRepository создаёт новый AdminRepository.
func NewAdminRepository(db *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{db: db}
}

// AdminByEmail возвращает админа по email.
// Возвращает nil если админ не найден (не ошибка).
func (r *AdminRepository) AdminByEmail(ctx context.Context, email string) (*model.Admin, error) {
	var a model.Admin
	err := r.db.QueryRow(ctx,
		`SELECT id, email, password_hash FROM admins WHERE email = $1`,
		email,
	).Scan(&a.ID, &a.Email, &a.PasswordHash)
	if err == pgx.ErrNoRows {
		return nil, nil // NOT ERROR, just not found
	}
	if err != nil {
		return nil, fmt.Errorf("querying admin %q: %w", email, err)
	}
	return &a, nil
}

// EnsureAdmin создаёт админа из конфига при старте, если его ещё нет.
func (r *AdminRepository) EnsureAdmin(ctx context.Context, email, passwordHash string) error {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO admins (email, password_hash)
		 VALUES ($1, $2)
		 ON CONFLICT (email) DO NOTHING`,
		email, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("seeding admin %q: %w", email, err)
	}
	if tag.RowsAffected() > 0 {
		slog.Info("seeded admin account", "email", email)
	}
	return nil
}
