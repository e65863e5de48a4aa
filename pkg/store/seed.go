package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/iscander13/back/pkg/auth"
	"github.com/iscander13/back/pkg/observability"
)

// SeedAccount describes a bootstrap account created at startup.
type SeedAccount struct {
	Email    string
	Password string
	Role     auth.Role
}

// EnsureSeedAccounts creates the bootstrap administrator accounts when
// they are absent. Existing accounts are left untouched, including their
// password and role.
func (s *Store) EnsureSeedAccounts(ctx context.Context, accounts []SeedAccount, log *observability.Logger) error {
	for _, account := range accounts {
		if account.Email == "" || account.Password == "" {
			continue
		}
		if !account.Role.Valid() {
			return fmt.Errorf("seed account %s: %w: %q", account.Email, auth.ErrInvalidRole, account.Role)
		}

		_, err := s.GetUserByEmail(ctx, account.Email)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("seed account %s: %w", account.Email, err)
		}

		hash, err := auth.HashPassword(account.Password)
		if err != nil {
			return fmt.Errorf("seed account %s: %w", account.Email, err)
		}
		user := &User{
			Email:        account.Email,
			PasswordHash: hash,
			Role:         string(account.Role),
		}
		if err := s.CreateUser(ctx, user); err != nil {
			// Lost a race against a parallel instance; the account exists.
			if errors.Is(err, ErrDuplicateEmail) {
				continue
			}
			return fmt.Errorf("seed account %s: %w", account.Email, err)
		}
		log.WithField("email", account.Email).WithField("role", account.Role).Info("created bootstrap account")
	}
	return nil
}
