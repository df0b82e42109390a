package authcore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vaultguard/authcore/internal"
)

// Register creates a pending, unverified account and sends the email
// verification code. When the email is already taken the call returns the
// exact result a fresh registration returns, writes nothing, and emits no
// audit entry, so the registry cannot be probed for known addresses.
func (e *Engine) Register(ctx context.Context, email, name, passwd string) (RegisterResult, error) {
	if !e.config.Registration.Enabled {
		return RegisterResult{}, fmt.Errorf("%w: registration disabled", ErrValidation)
	}

	email = normalizeEmail(email)
	if !validEmail(email) {
		return RegisterResult{}, fmt.Errorf("%w: malformed email", ErrValidation)
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return RegisterResult{}, fmt.Errorf("%w: name must be 1-100 characters", ErrValidation)
	}
	if len(passwd) < e.config.Password.MinLength || len(passwd) > e.config.Password.MaxLength {
		return RegisterResult{}, fmt.Errorf("%w: password length out of bounds", ErrValidation)
	}

	if _, err := e.store.FindByEmail(ctx, email); err == nil {
		e.metricInc(MetricRegisterDuplicate)
		return RegisterResult{Email: email, CodeDelivered: e.dispatcher != nil}, nil
	} else if !errors.Is(err, ErrUserNotFound) {
		return RegisterResult{}, err
	}

	hash, err := e.passwd.Hash(passwd)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("password hash: %w", err)
	}
	code, err := internal.NewOTP(e.config.MFA.CodeDigits)
	if err != nil {
		return RegisterResult{}, fmt.Errorf("otp generation: %w", err)
	}

	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         e.config.Registration.DefaultRole,
		Approval:     ApprovalPending,
		MFACode:      code,
		MFAExpiresAt: time.Now().Add(e.config.MFA.CodeTTL),
		CreatedAt:    time.Now().UTC(),
	}
	if err := e.store.Insert(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			// Lost a race with a concurrent registration. Same generic answer.
			e.metricInc(MetricRegisterDuplicate)
			return RegisterResult{Email: email, CodeDelivered: e.dispatcher != nil}, nil
		}
		return RegisterResult{}, err
	}

	// The result reports only whether a delivery channel is configured.
	// A failed send is logged and counted but never surfaced here, so the
	// fresh and duplicate answers stay byte-identical.
	e.deliverCode(ctx, email, code)

	e.emitAudit(ctx, auditEventUserRegistered, SeverityInfo, user.ID, user.Email, nil)
	e.metricInc(MetricRegisterSuccess)

	return RegisterResult{Email: email, CodeDelivered: e.dispatcher != nil}, nil
}

// VerifyEmail consumes the registration code and marks the account
// verified. Unknown email, already-verified account, and wrong or expired
// code all collapse to [ErrInvalidChallenge] with no audit entry.
//
// An access token is attached only when IssueTokenOnVerify is enabled and
// an administrator already approved the account; verification alone never
// bypasses the approval gate.
func (e *Engine) VerifyEmail(ctx context.Context, email, code string) (VerifyEmailResult, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return VerifyEmailResult{}, fmt.Errorf("%w: malformed email", ErrValidation)
	}
	if !validCode(code, e.config.MFA.CodeDigits) {
		return VerifyEmailResult{}, fmt.Errorf("%w: malformed code", ErrValidation)
	}

	user, err := e.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.metricInc(MetricEmailVerifyFailure)
			return VerifyEmailResult{}, ErrInvalidChallenge
		}
		return VerifyEmailResult{}, err
	}
	if user.Verified {
		e.metricInc(MetricEmailVerifyFailure)
		return VerifyEmailResult{}, ErrInvalidChallenge
	}

	if err := e.mfa.VerifyCode(ctx, user, code, false); err != nil {
		if errors.Is(err, ErrInvalidChallenge) {
			e.metricInc(MetricEmailVerifyFailure)
		}
		return VerifyEmailResult{}, err
	}

	verified := true
	if err := e.store.UpdateFields(ctx, user.ID, UserPatch{Verified: &verified}); err != nil {
		return VerifyEmailResult{}, err
	}

	e.emitAudit(ctx, auditEventEmailVerified, SeverityInfo, user.ID, user.Email, nil)
	e.metricInc(MetricEmailVerified)

	var access string
	if e.config.Registration.IssueTokenOnVerify && user.Approval == ApprovalApproved {
		access, err = e.tokens.IssueAccess(user.ID, user.Email, user.Name, string(user.Role), string(user.Approval))
		if err != nil {
			return VerifyEmailResult{}, fmt.Errorf("access token: %w", err)
		}
	}
	return VerifyEmailResult{AccessToken: access}, nil
}
