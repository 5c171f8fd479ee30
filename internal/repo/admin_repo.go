package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/litverse/server/internal/model"
)

// AdminRepo defines the interface for admin repository operations
type AdminRepo interface {
	GetByEmail(ctx context.Context, email string) (model.Admin, error)
	// EnsureDefault creates the bootstrap admin if no record exists for the
	// email. Idempotent; safe to call on every startup.
	EnsureDefault(ctx context.Context, email, passwordHash string) error
}

type adminRepo struct {
	db *sql.DB
}

// NewAdminRepo creates a new AdminRepo instance
func NewAdminRepo(db *sql.DB) AdminRepo {
	return &adminRepo{db: db}
}

// GetByEmail retrieves an admin by email
func (r *adminRepo) GetByEmail(ctx context.Context, email string) (model.Admin, error) {
	query := `
		SELECT id, email, password_hash, role, created_at
		FROM admins
		WHERE email = $1
	`
	var admin model.Admin
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&admin.ID, &admin.Email, &admin.PasswordHash, &admin.Role, &admin.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Admin{}, ErrNotFound
		}
		return model.Admin{}, fmt.Errorf("query admin: %w", err)
	}
	return admin, nil
}

// EnsureDefault inserts the bootstrap admin, ignoring the write when one
// already exists for the email.
func (r *adminRepo) EnsureDefault(ctx context.Context, email, passwordHash string) error {
	query := `
		INSERT INTO admins (email, password_hash, role)
		VALUES ($1, $2, 'admin')
		ON CONFLICT (email) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, email, passwordHash); err != nil {
		return fmt.Errorf("ensure default admin: %w", err)
	}
	return nil
}
