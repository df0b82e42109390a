package authcore

import (
	"context"
	"time"
)

// Role is the RBAC role carried by a user record and snapshotted into
// access tokens at issuance time.
type Role string

const (
	// RoleUser is the default role assigned at registration.
	RoleUser Role = "user"
	// RoleAdmin may approve accounts and read the audit trail.
	RoleAdmin Role = "admin"
)

// ApprovalStatus is the administrative lifecycle state of an account. It
// gates login independently of password and MFA correctness.
type ApprovalStatus string

const (
	// ApprovalPending is the state of every freshly registered account.
	ApprovalPending ApprovalStatus = "pending"
	// ApprovalApproved permits login. Only an administrator can set it.
	ApprovalApproved ApprovalStatus = "approved"
	// ApprovalRejected permanently denies login.
	ApprovalRejected ApprovalStatus = "rejected"
)

// User is the identity, credential, and lifecycle record held by a
// [UserStore]. PasswordHash is never logged and never leaves the core.
//
// MFACode and MFAExpiresAt are transient: present only while an OTP
// challenge is outstanding, cleared on successful verification. Concurrent
// logins overwrite them last-write-wins; a superseded code simply stops
// verifying.
type User struct {
	ID           string
	Email        string // unique; compared case-insensitively after normalization
	Name         string
	PasswordHash string
	Role         Role
	Approval     ApprovalStatus
	Verified     bool // set once, on successful email-code verification
	MFACode      string
	MFAExpiresAt time.Time
	// StaticMFACode is an always-valid fallback challenge for demo and seed
	// accounts. Honored only when Config.MFA.AllowStaticFallback is set.
	StaticMFACode string
	CreatedAt     time.Time
}

// UserPatch is a partial update applied by [UserStore.UpdateFields]. Nil
// fields are left untouched; a non-nil pointer to a zero value clears the
// field.
type UserPatch struct {
	PasswordHash *string
	Verified     *bool
	MFACode      *string
	MFAExpiresAt *time.Time
}

// UserStore is the credential-store collaborator. Implementations must
// guarantee atomic single-record reads and writes; the core never assumes
// multi-record transactions.
//
// Lookups return [ErrUserNotFound] for absent records, Insert returns
// [ErrDuplicateEmail] for an email collision, and backend failures wrap
// [ErrStoreUnavailable].
type UserStore interface {
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	Insert(ctx context.Context, user User) error
	UpdateFields(ctx context.Context, id string, patch UserPatch) error
	SetApprovalStatus(ctx context.Context, id string, status ApprovalStatus) error
}

// CodeDispatcher delivers one-time codes out of band (email in production).
// A delivery failure is reported to the caller but does not abort the flow
// that generated the code.
type CodeDispatcher interface {
	SendCode(ctx context.Context, toEmail, code string) error
}

// UserSummary is the non-sensitive projection of a user returned to
// callers after authentication. It reflects the token snapshot, not the
// live store record.
type UserSummary struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	Name     string         `json:"name"`
	Role     Role           `json:"role"`
	Approval ApprovalStatus `json:"approval"`
}

// LoginResult is returned by [Engine.Login] after the password stage
// succeeds. It never carries the MFA code itself.
type LoginResult struct {
	Email        string
	PreAuthToken string
	// CodeDelivered is false when the dispatcher reported a failure; the
	// login still progressed and the pre-auth token is valid.
	CodeDelivered bool
}

// MFAResult is returned by [Engine.VerifyMFA] on full authentication.
type MFAResult struct {
	AccessToken string
	User        UserSummary
}

// RegisterResult is returned by [Engine.Register]. A duplicate-email
// attempt returns the same result shape and values as a fresh registration
// so registered emails cannot be enumerated. CodeDelivered reports only
// whether a delivery channel is configured, never the send outcome.
type RegisterResult struct {
	Email         string
	CodeDelivered bool
}

// VerifyEmailResult is returned by [Engine.VerifyEmail]. AccessToken is
// empty unless Config.Registration.IssueTokenOnVerify is enabled AND the
// account has already passed the approval gate.
type VerifyEmailResult struct {
	AccessToken string
}
