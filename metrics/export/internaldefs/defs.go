package internaldefs

import (
	"github.com/vaultguard/authcore"
)

// CounterDef names one engine counter for export.
type CounterDef struct {
	ID   authcore.MetricID
	Name string
	Help string
}

// CounterDefs lists every engine counter in export order.
var CounterDefs = []CounterDef{
	{ID: authcore.MetricLoginSuccess, Name: "authcore_login_success_total", Help: "Completed password stages."},
	{ID: authcore.MetricLoginFailure, Name: "authcore_login_failure_total", Help: "Invalid-credential login attempts."},
	{ID: authcore.MetricLoginDenied, Name: "authcore_login_denied_total", Help: "Logins denied by the account gate."},
	{ID: authcore.MetricMFASuccess, Name: "authcore_mfa_success_total", Help: "Completed MFA verifications."},
	{ID: authcore.MetricMFAFailure, Name: "authcore_mfa_failure_total", Help: "Rejected MFA challenges."},
	{ID: authcore.MetricLogout, Name: "authcore_logout_total", Help: "Logout operations."},
	{ID: authcore.MetricRegisterSuccess, Name: "authcore_register_success_total", Help: "Created accounts."},
	{ID: authcore.MetricRegisterDuplicate, Name: "authcore_register_duplicate_total", Help: "Suppressed duplicate registrations."},
	{ID: authcore.MetricEmailVerified, Name: "authcore_email_verified_total", Help: "Successful email verifications."},
	{ID: authcore.MetricEmailVerifyFailure, Name: "authcore_email_verify_failure_total", Help: "Rejected email verification codes."},
	{ID: authcore.MetricApprovalGranted, Name: "authcore_approval_granted_total", Help: "Account approvals, including idempotent repeats."},
	{ID: authcore.MetricDispatchFailure, Name: "authcore_dispatch_failure_total", Help: "Failed out-of-band code deliveries."},
}

// AuditDroppedName is the exported name of the audit backpressure counter,
// which lives outside the MetricID space.
const AuditDroppedName = "authcore_audit_dropped_total"

// AuditDroppedHelp documents the audit backpressure counter.
const AuditDroppedHelp = "Dropped audit entries due to dispatcher backpressure."
