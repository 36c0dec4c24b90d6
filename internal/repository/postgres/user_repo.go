package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventplanner/internal/domain"

	"github.com/lib/pq"
)

const userColumns = `id, email, name, is_admin, password_hash, salt, created_at, updated_at`

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{DB: db}
}

func scanUser(row rowScanner) (*domain.User, error) {
	u := &domain.User{}
	var hash, salt sql.NullString
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.IsAdmin, &hash, &salt, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.PasswordHash = hash.String
	u.Salt = salt.String
	return u, nil
}

func isUniqueViolation(err error) bool {
	var perr *pq.Error
	return errors.As(err, &perr) && perr.Code == "23505"
}

// isInvalidID reports a malformed uuid literal (invalid_text_representation).
// No row can match such an id, so callers treat it as not found.
func isInvalidID(err error) bool {
	var perr *pq.Error
	return errors.As(err, &perr) && perr.Code == "22P02"
}

func emptyAsNull(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (email, name, password_hash, salt, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, is_admin
	`
	err := r.DB.QueryRowContext(ctx, query,
		u.Email, u.Name, emptyAsNull(u.PasswordHash), emptyAsNull(u.Salt), u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID, &u.IsAdmin)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`
	return r.get(ctx, query, email)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.get(ctx, query, id)
}

func (r *userRepository) get(ctx context.Context, query string, arg string) (*domain.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// Update writes the display name and email. is_admin is managed outside the API.
func (r *userRepository) Update(ctx context.Context, u *domain.User) error {
	query := `
		UPDATE users
		SET name = $1, email = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := r.DB.ExecContext(ctx, query, u.Name, u.Email, u.UpdatedAt, u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
