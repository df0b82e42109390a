package authcore

import (
	"context"

	"github.com/vaultguard/authcore/token"
)

// ApproveUser moves an account to the approved state. Only callers holding
// a valid admin access token may approve. The transition is idempotent:
// approving an already-approved account succeeds and is audited again,
// with the administrator as the acting user and the target in the entry
// metadata.
func (e *Engine) ApproveUser(ctx context.Context, adminAccessToken, userID string) error {
	claims, err := e.requireAdmin(adminAccessToken)
	if err != nil {
		return err
	}

	target, err := e.store.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := e.store.SetApprovalStatus(ctx, target.ID, ApprovalApproved); err != nil {
		return err
	}

	e.emitAudit(ctx, auditEventUserApproved, SeverityInfo, claims.Subject, claims.Email,
		map[string]string{"target_user_id": target.ID, "target_email": target.Email})
	e.metricInc(MetricApprovalGranted)
	return nil
}

// requireAdmin validates an access token and checks the admin role claim.
// The role is read from the token snapshot, not the live store record.
func (e *Engine) requireAdmin(accessToken string) (*token.Claims, error) {
	claims, err := e.tokens.Verify(accessToken, token.KindAccess)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if claims.Role != string(RoleAdmin) {
		return nil, ErrInsufficientRole
	}
	return claims, nil
}
