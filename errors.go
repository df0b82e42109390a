package authcore

import "errors"

var (
	// ErrValidation reports malformed input. Rejected before any store or
	// audit access; a validation failure produces no audit entry.
	ErrValidation = errors.New("invalid input")
	// ErrInvalidCredentials covers both unknown-email and wrong-password.
	// Callers must not be able to distinguish the two cases.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrPendingApproval means the password was correct but the account has
	// not been approved by an administrator yet. Deliberately distinct from
	// ErrInvalidCredentials: a successful password match already implies the
	// account exists.
	ErrPendingApproval = errors.New("account pending approval")
	// ErrAccountRejected means an administrator rejected the account.
	ErrAccountRejected = errors.New("account rejected")
	// ErrAccountUnverified means the account's email address was never
	// verified; no access token may be issued through the password path.
	ErrAccountUnverified = errors.New("account unverified")
	// ErrInvalidChallenge merges every pre-auth-token and MFA-code failure
	// (missing, expired, wrong digits, bad signature, wrong token kind) so
	// callers cannot learn which sub-check failed.
	ErrInvalidChallenge = errors.New("invalid or expired challenge")
	// ErrUnauthorized reports a missing or invalid access token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInsufficientRole reports an authorization failure on an admin-only
	// operation.
	ErrInsufficientRole = errors.New("insufficient role")
	// ErrDispatchFailed reports that out-of-band code delivery failed. It is
	// surfaced but non-fatal to the state transition that triggered it.
	ErrDispatchFailed = errors.New("code dispatch failed")

	// ErrUserNotFound is returned by UserStore lookups. The engine never
	// surfaces it from Login; it collapses into ErrInvalidCredentials.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned by UserStore.Insert when the normalized
	// email is already taken.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrStoreUnavailable wraps backend failures from UserStore and audit
	// log implementations.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrEngineNotReady is returned when the engine is used before Build
	// completed or a required collaborator is missing.
	ErrEngineNotReady = errors.New("engine not initialized")
)
