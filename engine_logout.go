package authcore

import (
	"context"

	"github.com/vaultguard/authcore/token"
)

// Logout records the end of a session. Tokens are stateless, so nothing is
// revoked; the call exists to land a user_logout entry in the audit trail.
// An invalid or expired token fails with [ErrUnauthorized] and is itself
// audited.
func (e *Engine) Logout(ctx context.Context, accessToken string) error {
	claims, err := e.tokens.Verify(accessToken, token.KindAccess)
	if err != nil {
		e.emitAudit(ctx, auditEventLogoutFailed, SeverityWarning, ActorUnknown, "", nil)
		return ErrUnauthorized
	}

	e.emitAudit(ctx, auditEventUserLogout, SeverityInfo, claims.Subject, claims.Email, nil)
	e.metricInc(MetricLogout)
	return nil
}
