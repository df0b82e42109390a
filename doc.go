// Package authcore implements the VaultGuard authentication core: a
// three-stage login flow (password, one-time code, approval gate) with an
// append-only audit trail for every security-relevant outcome.
//
// The package is transport-agnostic. HTTP routing, request schemas, rate
// limiting, and email delivery live outside; they reach the core through
// [Engine] methods and the collaborator interfaces [UserStore],
// [AuditSink], and [CodeDispatcher]. Engine methods are safe for
// concurrent use after construction through [Builder.Build].
//
// # Session model
//
// There is no server-held session object. All session state travels in two
// signed bearer tokens with independent secrets and lifetimes: a short-lived
// pre-auth token proving password-stage success, and an access token proving
// full authentication. Revocation before natural expiry is not supported;
// the access token carries a snapshot of role and approval status taken at
// issuance time.
//
// # Audit contract
//
// Every login, MFA, logout, registration, verification, and approval outcome
// produces exactly one audit entry (two on full login completion:
// mfa_verified plus user_login). Emission is asynchronous and best-effort:
// a sink failure is logged to the engine's diagnostic logger and never fails
// the operation that triggered it.
package authcore
