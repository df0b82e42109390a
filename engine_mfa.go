package authcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/vaultguard/authcore/token"
)

// VerifyMFA runs the second authentication stage. It validates the
// pre-auth token and the submitted code, re-applies the account gate, and
// issues the access token. Token failures, unknown subjects, and wrong or
// expired codes all collapse to [ErrInvalidChallenge].
//
// The account gate runs again here: an account rejected between the
// password stage and the MFA stage cannot finish logging in with a
// still-valid pre-auth token.
func (e *Engine) VerifyMFA(ctx context.Context, preAuthToken, code string) (MFAResult, error) {
	if !validCode(code, e.config.MFA.CodeDigits) {
		return MFAResult{}, fmt.Errorf("%w: malformed code", ErrValidation)
	}

	claims, err := e.tokens.Verify(preAuthToken, token.KindPreAuth)
	if err != nil {
		return MFAResult{}, e.failChallenge(ctx, ActorUnknown, "")
	}

	user, err := e.store.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return MFAResult{}, e.failChallenge(ctx, claims.Subject, claims.Email)
		}
		return MFAResult{}, err
	}

	if err := e.mfa.VerifyCode(ctx, user, code, e.config.MFA.AllowStaticFallback); err != nil {
		if errors.Is(err, ErrInvalidChallenge) {
			return MFAResult{}, e.failChallenge(ctx, user.ID, user.Email)
		}
		return MFAResult{}, err
	}

	if err := e.gateAccount(ctx, user); err != nil {
		return MFAResult{}, err
	}

	access, err := e.tokens.IssueAccess(user.ID, user.Email, user.Name, string(user.Role), string(user.Approval))
	if err != nil {
		return MFAResult{}, fmt.Errorf("access token: %w", err)
	}

	e.emitAudit(ctx, auditEventMFAVerified, SeverityInfo, user.ID, user.Email, nil)
	e.emitAudit(ctx, auditEventUserLogin, SeverityInfo, user.ID, user.Email, nil)
	e.metricInc(MetricMFASuccess)

	return MFAResult{
		AccessToken: access,
		User: UserSummary{
			ID:       user.ID,
			Email:    user.Email,
			Name:     user.Name,
			Role:     user.Role,
			Approval: user.Approval,
		},
	}, nil
}

func (e *Engine) failChallenge(ctx context.Context, userID, email string) error {
	e.emitAudit(ctx, auditEventMFAFailed, SeverityWarning, userID, email, nil)
	e.metricInc(MetricMFAFailure)
	return ErrInvalidChallenge
}
