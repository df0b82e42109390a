package authcore

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Severity classifies an audit entry.
type Severity string

const (
	// SeverityInfo marks routine security events.
	SeverityInfo Severity = "info"
	// SeverityWarning marks suspicious but non-critical events.
	SeverityWarning Severity = "warning"
	// SeverityCritical marks events that indicate a likely attack.
	SeverityCritical Severity = "critical"
)

// Actor sentinels used when no authenticated user is attributable.
const (
	// ActorUnknown attributes events from unauthenticated callers, such as
	// failed logins.
	ActorUnknown = "unknown"
	// ActorSystem attributes events generated by the core itself.
	ActorSystem = "system"
)

const (
	auditEventFailedAuth     = "failed_auth"
	auditEventPasswordOK     = "password_verified"
	auditEventMFAVerified    = "mfa_verified"
	auditEventMFAFailed      = "mfa_failed"
	auditEventUserLogin      = "user_login"
	auditEventUserLogout     = "user_logout"
	auditEventLogoutFailed   = "logout_failed"
	auditEventUserRegistered = "user_registered"
	auditEventEmailVerified  = "email_verified"
	auditEventUserApproved   = "user_approved"
	auditEventApprovalDenied = "approval_denied"
)

// AuditEntry is an immutable fact about a security event. The core fills
// ID and Timestamp at emission time; sinks must never mutate a stored
// entry.
type AuditEntry struct {
	ID        string            `json:"id"`
	Event     string            `json:"event"`
	UserID    string            `json:"user_id"`
	UserEmail string            `json:"user_email"`
	IP        string            `json:"ip"`
	Location  string            `json:"location"`
	Severity  Severity          `json:"severity"`
	Timestamp time.Time         `json:"timestamp"`
	Meta      map[string]string `json:"meta,omitempty"`
}

// AuditSink receives entries from the engine's audit dispatcher. Append
// returns the stored entry; an error is logged by the dispatcher and never
// propagated to the operation that produced the entry.
type AuditSink interface {
	Append(ctx context.Context, entry AuditEntry) (AuditEntry, error)
}

// AuditReader lists stored entries ordered by timestamp descending. Sinks
// that also implement AuditReader back [Engine.AuditLog].
type AuditReader interface {
	Recent(ctx context.Context, limit int) ([]AuditEntry, error)
}

// NoOpSink discards all entries.
type NoOpSink struct{}

// Append implements [AuditSink].
func (NoOpSink) Append(_ context.Context, entry AuditEntry) (AuditEntry, error) {
	return entry, nil
}

// ChannelSink is a buffered channel-based [AuditSink], useful for tests and
// for bridging entries into an external pipeline.
type ChannelSink struct {
	entries chan AuditEntry
}

// NewChannelSink creates a ChannelSink with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{entries: make(chan AuditEntry, buffer)}
}

// Append implements [AuditSink].
func (s *ChannelSink) Append(ctx context.Context, entry AuditEntry) (AuditEntry, error) {
	select {
	case s.entries <- entry:
	case <-ctx.Done():
		return entry, ctx.Err()
	}
	return entry, nil
}

// Entries exposes the receiving side of the sink.
func (s *ChannelSink) Entries() <-chan AuditEntry {
	return s.entries
}

// JSONWriterSink writes one JSON-encoded entry per line to an io.Writer.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterSink creates a JSONWriterSink that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{writer: w}
}

// Append implements [AuditSink].
func (s *JSONWriterSink) Append(_ context.Context, entry AuditEntry) (AuditEntry, error) {
	if s == nil || s.writer == nil {
		return entry, nil
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return entry, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.writer.Write(data); err != nil {
		return entry, err
	}
	_, err = s.writer.Write([]byte("\n"))
	return entry, err
}
