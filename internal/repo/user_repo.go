package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/litverse/server/internal/model"
)

// UserRepo defines the interface for user repository operations
type UserRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByPhone(ctx context.Context, phone string) (model.User, error)
	GetByResetToken(ctx context.Context, token string) (model.User, error)
	// Create inserts the user, relying on the unique email index for
	// dedup; a losing concurrent insert surfaces as ErrDuplicate.
	Create(ctx context.Context, user model.User) (model.User, error)
	Update(ctx context.Context, user model.User) (model.User, error)
	List(ctx context.Context, page, limit int, search string) ([]model.User, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type userRepo struct {
	db *sql.DB
}

// NewUserRepo creates a new UserRepo instance
func NewUserRepo(db *sql.DB) UserRepo {
	return &userRepo{db: db}
}

const userColumns = `
	id, first_name, second_name, last_name, email, phone, password_hash,
	google_id, facebook_id, is_active, email_verified, email_verified_at,
	reset_token, reset_token_expiry, created_at, updated_at`

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.FirstName, &u.SecondName, &u.LastName, &u.Email, &u.Phone,
		&u.PasswordHash, &u.GoogleID, &u.FacebookID, &u.IsActive,
		&u.EmailVerified, &u.EmailVerifiedAt, &u.ResetToken,
		&u.ResetTokenExpiry, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.User{}, ErrNotFound
		}
		return model.User{}, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

func (r *userRepo) getBy(ctx context.Context, where string, arg interface{}) (model.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE ` + where
	return scanUser(r.db.QueryRowContext(ctx, query, arg))
}

// GetByID retrieves a user by ID
func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	return r.getBy(ctx, "id = $1", id)
}

// GetByEmail retrieves a user by email
func (r *userRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return r.getBy(ctx, "email = $1", email)
}

// GetByPhone retrieves a user by phone number
func (r *userRepo) GetByPhone(ctx context.Context, phone string) (model.User, error) {
	return r.getBy(ctx, "phone = $1 AND phone <> ''", phone)
}

// GetByResetToken retrieves a user holding an unexpired reset token.
func (r *userRepo) GetByResetToken(ctx context.Context, token string) (model.User, error) {
	query := `SELECT` + userColumns + ` FROM users
		WHERE reset_token = $1 AND reset_token <> '' AND reset_token_expiry > now()`
	return scanUser(r.db.QueryRowContext(ctx, query, token))
}

// Create inserts a new user row.
func (r *userRepo) Create(ctx context.Context, user model.User) (model.User, error) {
	query := `
		INSERT INTO users (
			first_name, second_name, last_name, email, phone, password_hash,
			google_id, facebook_id, is_active, email_verified, email_verified_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING` + userColumns
	created, err := scanUser(r.db.QueryRowContext(ctx, query,
		user.FirstName, user.SecondName, user.LastName, user.Email, user.Phone,
		user.PasswordHash, user.GoogleID, user.FacebookID, user.IsActive,
		user.EmailVerified, user.EmailVerifiedAt,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, ErrDuplicate
		}
		return model.User{}, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

// Update persists all mutable fields of the user.
func (r *userRepo) Update(ctx context.Context, user model.User) (model.User, error) {
	query := `
		UPDATE users SET
			first_name = $2, second_name = $3, last_name = $4, email = $5,
			phone = $6, password_hash = $7, google_id = $8, facebook_id = $9,
			is_active = $10, email_verified = $11, email_verified_at = $12,
			reset_token = $13, reset_token_expiry = $14, updated_at = now()
		WHERE id = $1
		RETURNING` + userColumns
	updated, err := scanUser(r.db.QueryRowContext(ctx, query,
		user.ID, user.FirstName, user.SecondName, user.LastName, user.Email,
		user.Phone, user.PasswordHash, user.GoogleID, user.FacebookID,
		user.IsActive, user.EmailVerified, user.EmailVerifiedAt,
		user.ResetToken, user.ResetTokenExpiry,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, ErrDuplicate
		}
		return model.User{}, fmt.Errorf("update user: %w", err)
	}
	return updated, nil
}

// List returns a page of users, newest first, with an optional name/email
// search, plus the total match count.
func (r *userRepo) List(ctx context.Context, page, limit int, search string) ([]model.User, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	where := ""
	args := []interface{}{limit, (page - 1) * limit}
	if search != "" {
		where = `WHERE first_name ILIKE $3 OR last_name ILIKE $3 OR email ILIKE $3`
		args = append(args, "%"+search+"%")
	}

	query := `SELECT` + userColumns + ` FROM users ` + where + `
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(
			&u.ID, &u.FirstName, &u.SecondName, &u.LastName, &u.Email, &u.Phone,
			&u.PasswordHash, &u.GoogleID, &u.FacebookID, &u.IsActive,
			&u.EmailVerified, &u.EmailVerifiedAt, &u.ResetToken,
			&u.ResetTokenExpiry, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}

	countQuery := `SELECT COUNT(*) FROM users`
	countArgs := []interface{}{}
	if search != "" {
		countQuery += ` WHERE first_name ILIKE $1 OR last_name ILIKE $1 OR email ILIKE $1`
		countArgs = append(countArgs, "%"+search+"%")
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	return users, total, nil
}

// Delete removes a user by ID.
func (r *userRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
