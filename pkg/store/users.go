package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iscander13/back/pkg/auth"
)

// CreateUser inserts a new account and fills in its generated fields.
func (s *Store) CreateUser(ctx context.Context, user *User) error {
	start := time.Now()
	query := `
		INSERT INTO users (email, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		user.Email,
		user.PasswordHash,
		user.Role,
	).Scan(&user.ID, &user.CreatedAt)
	s.observe("create_user", start, err)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail fetches an account by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	start := time.Now()
	query := `
		SELECT id, email, password_hash, role, reset_code, reset_code_expiry, created_at
		FROM users
		WHERE email = $1
	`

	user, err := s.scanUser(s.db.QueryRowContext(ctx, query, email))
	s.observe("get_user_by_email", start, err)
	return user, err
}

// GetUserByID fetches an account by id.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*User, error) {
	start := time.Now()
	query := `
		SELECT id, email, password_hash, role, reset_code, reset_code_expiry, created_at
		FROM users
		WHERE id = $1
	`

	user, err := s.scanUser(s.db.QueryRowContext(ctx, query, id))
	s.observe("get_user_by_id", start, err)
	return user, err
}

func (s *Store) scanUser(row *sql.Row) (*User, error) {
	var user User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.ResetCode,
		&user.ResetCodeExpiry,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// ListUsers returns every account ordered by id.
func (s *Store) ListUsers(ctx context.Context) ([]*User, error) {
	start := time.Now()
	query := `
		SELECT id, email, password_hash, role, reset_code, reset_code_expiry, created_at
		FROM users
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query)
	s.observe("list_users", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		var user User
		if err := rows.Scan(
			&user.ID,
			&user.Email,
			&user.PasswordHash,
			&user.Role,
			&user.ResetCode,
			&user.ResetCodeExpiry,
			&user.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}
	return users, rows.Err()
}

// UpdateUserEmail changes an account's email.
func (s *Store) UpdateUserEmail(ctx context.Context, id int64, email string) error {
	start := time.Now()
	result, err := s.db.ExecContext(ctx, `UPDATE users SET email = $1 WHERE id = $2`, email, id)
	s.observe("update_user_email", start, err)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to update email: %w", err)
	}
	return requireRowAffected(result)
}

// UpdateUserPassword changes an account's password hash.
func (s *Store) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	start := time.Now()
	result, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, id)
	s.observe("update_user_password", start, err)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return requireRowAffected(result)
}

// UpdateUserRole changes an account's role. The role must already be
// validated against the closed role set by the caller.
func (s *Store) UpdateUserRole(ctx context.Context, id int64, role string) error {
	start := time.Now()
	result, err := s.db.ExecContext(ctx, `UPDATE users SET role = $1 WHERE id = $2`, role, id)
	s.observe("update_user_role", start, err)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	return requireRowAffected(result)
}

// DeleteUser removes an account. Owned polygons and chat history go with
// it via ON DELETE CASCADE.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	start := time.Now()
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	s.observe("delete_user", start, err)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return requireRowAffected(result)
}

// SetResetCode stores a password recovery code with its expiry.
func (s *Store) SetResetCode(ctx context.Context, email, code string, expiry time.Time) error {
	start := time.Now()
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET reset_code = $1, reset_code_expiry = $2 WHERE email = $3`,
		code, expiry, email)
	s.observe("set_reset_code", start, err)
	if err != nil {
		return fmt.Errorf("failed to set reset code: %w", err)
	}
	return requireRowAffected(result)
}

// ClearResetCode removes a consumed or invalidated recovery code.
func (s *Store) ClearResetCode(ctx context.Context, email string) error {
	start := time.Now()
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET reset_code = NULL, reset_code_expiry = NULL WHERE email = $1`, email)
	s.observe("clear_reset_code", start, err)
	if err != nil {
		return fmt.Errorf("failed to clear reset code: %w", err)
	}
	return nil
}

// ClearExpiredResetCodes sweeps recovery codes past their expiry.
// Returns the number of rows cleaned.
func (s *Store) ClearExpiredResetCodes(ctx context.Context) (int64, error) {
	start := time.Now()
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET reset_code = NULL, reset_code_expiry = NULL
		 WHERE reset_code IS NOT NULL AND reset_code_expiry < NOW()`)
	s.observe("clear_expired_reset_codes", start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired reset codes: %w", err)
	}
	return result.RowsAffected()
}

// CountUsers returns the number of registered accounts.
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

func requireRowAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Directory adapts the store to the token resolver's user lookup.
type Directory struct {
	store *Store
}

// NewDirectory wraps the store for use as an auth.UserDirectory.
func NewDirectory(store *Store) *Directory {
	return &Directory{store: store}
}

// FindByEmail implements auth.UserDirectory.
func (d *Directory) FindByEmail(ctx context.Context, email string) (*auth.DirectoryUser, error) {
	user, err := d.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}
	return &auth.DirectoryUser{
		ID:    user.ID,
		Email: user.Email,
		Role:  user.Role,
	}, nil
}
