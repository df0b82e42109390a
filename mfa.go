package authcore

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/vaultguard/authcore/internal"
)

// mfaEngine generates, stores, and validates one-time codes. Codes live on
// the user record with an absolute expiry; concurrent IssueCode calls for
// the same user overwrite each other last-write-wins, which can silently
// supersede a legitimately issued code. Accepted behavior.
type mfaEngine struct {
	store  UserStore
	digits int
	ttl    time.Duration
}

// IssueCode generates a fresh code, persists it with its expiry, and
// returns it for out-of-band delivery. The code must never be written to
// the audit trail or returned to the end client.
func (m *mfaEngine) IssueCode(ctx context.Context, userID string) (string, error) {
	code, err := internal.NewOTP(m.digits)
	if err != nil {
		return "", fmt.Errorf("otp generation: %w", err)
	}

	expiry := time.Now().Add(m.ttl)
	patch := UserPatch{MFACode: &code, MFAExpiresAt: &expiry}
	if err := m.store.UpdateFields(ctx, userID, patch); err != nil {
		return "", err
	}
	return code, nil
}

// VerifyCode checks submitted against the user's outstanding code. Every
// failure (no code outstanding, expired, mismatch) collapses to
// ErrInvalidChallenge. On success the code is cleared before returning, so
// a code verifies at most once; if the clear itself fails, the failure is
// surfaced and success is NOT reported.
//
// When allowStatic is set, the user's static fallback code is accepted as
// an always-valid alternative. Demo/legacy path.
func (m *mfaEngine) VerifyCode(ctx context.Context, user User, submitted string, allowStatic bool) error {
	if m.matchesDynamic(user, submitted) {
		return m.clear(ctx, user.ID)
	}

	if allowStatic && user.StaticMFACode != "" &&
		subtle.ConstantTimeCompare([]byte(submitted), []byte(user.StaticMFACode)) == 1 {
		if user.MFACode != "" {
			return m.clear(ctx, user.ID)
		}
		return nil
	}

	return ErrInvalidChallenge
}

func (m *mfaEngine) matchesDynamic(user User, submitted string) bool {
	if user.MFACode == "" || user.MFAExpiresAt.IsZero() {
		return false
	}
	if time.Now().After(user.MFAExpiresAt) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(user.MFACode)) == 1
}

func (m *mfaEngine) clear(ctx context.Context, userID string) error {
	empty := ""
	var zero time.Time
	return m.store.UpdateFields(ctx, userID, UserPatch{MFACode: &empty, MFAExpiresAt: &zero})
}
