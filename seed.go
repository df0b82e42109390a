package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// SeedAccount describes one account provisioned by [Engine.Seed].
type SeedAccount struct {
	ID            string
	Email         string
	Name          string
	Password      string
	Role          Role
	StaticMFACode string
}

// DefaultSeedAccounts returns the stock demo accounts: one administrator
// and one regular user, both approved and verified, each with a static
// fallback code usable when AllowStaticFallback is enabled. Demo use only.
func DefaultSeedAccounts() []SeedAccount {
	return []SeedAccount{
		{
			ID:            "usr_admin_001",
			Email:         "admin@vault.io",
			Name:          "Vault Administrator",
			Password:      "Admin@123",
			Role:          RoleAdmin,
			StaticMFACode: "247831",
		},
		{
			ID:            "usr_user_002",
			Email:         "user@vault.io",
			Name:          "Vault User",
			Password:      "User@123",
			Role:          RoleUser,
			StaticMFACode: "112233",
		},
	}
}

// Seed provisions the given accounts, or [DefaultSeedAccounts] when none
// are given, as approved and verified users. Accounts whose email already
// exists are left untouched, so Seed is safe to run on every startup.
func (e *Engine) Seed(ctx context.Context, accounts ...SeedAccount) error {
	if len(accounts) == 0 {
		accounts = DefaultSeedAccounts()
	}
	for _, acct := range accounts {
		if _, err := e.store.FindByEmail(ctx, normalizeEmail(acct.Email)); err == nil {
			continue
		} else if !errors.Is(err, ErrUserNotFound) {
			return err
		}

		hash, err := e.passwd.Hash(acct.Password)
		if err != nil {
			return fmt.Errorf("seed %s: %w", acct.Email, err)
		}
		user := User{
			ID:            acct.ID,
			Email:         normalizeEmail(acct.Email),
			Name:          acct.Name,
			PasswordHash:  hash,
			Role:          acct.Role,
			Approval:      ApprovalApproved,
			Verified:      true,
			StaticMFACode: acct.StaticMFACode,
			CreatedAt:     time.Now().UTC(),
		}
		if err := e.store.Insert(ctx, user); err != nil {
			if errors.Is(err, ErrDuplicateEmail) {
				continue
			}
			return fmt.Errorf("seed %s: %w", acct.Email, err)
		}
		e.emitAudit(ctx, auditEventUserRegistered, SeverityInfo, user.ID, user.Email,
			map[string]string{"seeded": "true"})
	}
	return nil
}
