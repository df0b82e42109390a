package authcore

import (
	"context"
	"errors"
	"fmt"
)

// Login runs the first authentication stage: it verifies the password,
// applies the account gate, issues a one-time code for out-of-band
// delivery, and returns a pre-auth token scoped to the MFA stage only.
//
// Unknown email and wrong password are indistinguishable to the caller:
// both return [ErrInvalidCredentials], and both pay the full password
// hashing cost. Each failed attempt lands in the audit trail as a
// critical entry attributed to the unknown actor.
func (e *Engine) Login(ctx context.Context, email, passwd string) (LoginResult, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return LoginResult{}, fmt.Errorf("%w: malformed email", ErrValidation)
	}
	if len(passwd) < e.config.Password.MinLength || len(passwd) > e.config.Password.MaxLength {
		return LoginResult{}, fmt.Errorf("%w: password length out of bounds", ErrValidation)
	}

	user, err := e.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Burn the same hashing cost as the known-email branch.
			_, _ = e.passwd.Verify(passwd, e.dummyHash)
			return LoginResult{}, e.failAuth(ctx, email)
		}
		return LoginResult{}, err
	}

	ok, err := e.passwd.Verify(passwd, user.PasswordHash)
	if err != nil {
		return LoginResult{}, fmt.Errorf("password verify: %w", err)
	}
	if !ok {
		return LoginResult{}, e.failAuth(ctx, email)
	}

	if err := e.gateAccount(ctx, user); err != nil {
		return LoginResult{}, err
	}

	e.maybeUpgradeHash(ctx, user, passwd)

	code, err := e.mfa.IssueCode(ctx, user.ID)
	if err != nil {
		return LoginResult{}, err
	}
	delivered := e.deliverCode(ctx, user.Email, code)

	preAuth, err := e.tokens.IssuePreAuth(user.ID, user.Email)
	if err != nil {
		return LoginResult{}, fmt.Errorf("pre-auth token: %w", err)
	}

	e.emitAudit(ctx, auditEventPasswordOK, SeverityInfo, user.ID, user.Email, nil)
	e.metricInc(MetricLoginSuccess)

	return LoginResult{Email: user.Email, PreAuthToken: preAuth, CodeDelivered: delivered}, nil
}

// failAuth records one enumeration-safe login failure.
func (e *Engine) failAuth(ctx context.Context, email string) error {
	e.emitAudit(ctx, auditEventFailedAuth, SeverityCritical, ActorUnknown, email, nil)
	e.metricInc(MetricLoginFailure)
	return ErrInvalidCredentials
}

// gateAccount enforces approval status and email verification. It runs on
// the password stage and again before any access token is issued, so an
// account rejected mid-flow cannot complete an in-flight login.
func (e *Engine) gateAccount(ctx context.Context, user User) error {
	switch user.Approval {
	case ApprovalApproved:
	case ApprovalRejected:
		e.denyAccount(ctx, user, "rejected")
		return ErrAccountRejected
	default:
		e.denyAccount(ctx, user, "pending")
		return ErrPendingApproval
	}
	if !user.Verified {
		e.denyAccount(ctx, user, "unverified")
		return ErrAccountUnverified
	}
	return nil
}

func (e *Engine) denyAccount(ctx context.Context, user User, reason string) {
	e.emitAudit(ctx, auditEventApprovalDenied, SeverityWarning, user.ID, user.Email,
		map[string]string{"reason": reason})
	e.metricInc(MetricLoginDenied)
}

// maybeUpgradeHash rehashes the password under the current cost parameters
// when the stored hash is weaker. Best effort; a failure only logs.
func (e *Engine) maybeUpgradeHash(ctx context.Context, user User, passwd string) {
	if !e.config.Password.UpgradeOnLogin {
		return
	}
	stale, err := e.passwd.NeedsUpgrade(user.PasswordHash)
	if err != nil || !stale {
		return
	}
	rehashed, err := e.passwd.Hash(passwd)
	if err != nil {
		e.logger.Printf("authcore: hash upgrade for %s: %v", user.ID, err)
		return
	}
	if err := e.store.UpdateFields(ctx, user.ID, UserPatch{PasswordHash: &rehashed}); err != nil {
		e.logger.Printf("authcore: hash upgrade for %s: %v", user.ID, err)
	}
}

// deliverCode hands the code to the dispatcher. Delivery problems never
// abort the login; the caller learns about them through CodeDelivered.
func (e *Engine) deliverCode(ctx context.Context, email, code string) bool {
	if e.dispatcher == nil {
		return false
	}
	if err := e.dispatcher.SendCode(ctx, email, code); err != nil {
		e.logger.Printf("authcore: code delivery to %s: %v", email, err)
		e.metricInc(MetricDispatchFailure)
		return false
	}
	return true
}
