package authcore

import (
	"context"
	"fmt"

	"github.com/vaultguard/authcore/token"
)

// Me resolves an access token into the caller's summary. The summary is
// the snapshot taken at token issuance; role or approval changes made
// after issuance are not reflected until the next login.
func (e *Engine) Me(ctx context.Context, accessToken string) (UserSummary, error) {
	claims, err := e.tokens.Verify(accessToken, token.KindAccess)
	if err != nil {
		return UserSummary{}, ErrUnauthorized
	}
	return UserSummary{
		ID:       claims.Subject,
		Email:    claims.Email,
		Name:     claims.Name,
		Role:     Role(claims.Role),
		Approval: ApprovalStatus(claims.Approval),
	}, nil
}

// AuditLog returns the most recent audit entries, newest first. Admin
// only. Available when the configured audit sink also implements
// [AuditReader]; otherwise it fails with [ErrEngineNotReady].
func (e *Engine) AuditLog(ctx context.Context, adminAccessToken string, limit int) ([]AuditEntry, error) {
	if _, err := e.requireAdmin(adminAccessToken); err != nil {
		return nil, err
	}
	if e.reader == nil {
		return nil, fmt.Errorf("%w: audit sink is not readable", ErrEngineNotReady)
	}
	if limit <= 0 {
		limit = 50
	}
	return e.reader.Recent(ctx, limit)
}
