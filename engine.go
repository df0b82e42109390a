package authcore

import (
	"context"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vaultguard/authcore/password"
	"github.com/vaultguard/authcore/token"
)

// Engine is the transport-agnostic authentication core. Construct one with
// Builder; the zero value is not usable. All methods are safe for
// concurrent use.
type Engine struct {
	config Config

	store      UserStore
	dispatcher CodeDispatcher

	tokens   *token.Service
	passwd   *password.Hasher
	mfa      *mfaEngine
	audit    *auditDispatcher
	reader   AuditReader
	metrics  *Metrics
	logger   *log.Logger

	// dummyHash is verified against on unknown-email logins so the
	// password-hashing cost is paid on both branches.
	dummyHash string
}

// Close flushes the audit pipeline and releases background resources.
// The engine must not be used after Close returns.
func (e *Engine) Close() error {
	if e.audit != nil {
		e.audit.Close()
	}
	return nil
}

// MetricsSnapshot returns the current counter values. Empty when metrics
// are disabled.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit entries were discarded because the
// buffer was full. Always zero unless AuditConfig.DropIfFull is set.
func (e *Engine) AuditDropped() uint64 {
	if e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) metricInc(id MetricID) {
	e.metrics.Inc(id)
}

// emitAudit stamps and enqueues one audit entry. Emission is asynchronous
// and best-effort; it never fails the calling operation.
func (e *Engine) emitAudit(ctx context.Context, event string, severity Severity, userID, email string, meta map[string]string) {
	if e.audit == nil {
		return
	}
	e.audit.Emit(ctx, AuditEntry{
		ID:        uuid.NewString(),
		Event:     event,
		UserID:    userID,
		UserEmail: email,
		IP:        clientIPFromContext(ctx),
		Location:  locationFromContext(ctx),
		Severity:  severity,
		Timestamp: time.Now().UTC(),
		Meta:      meta,
	})
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	return email != "" && len(email) <= 254 && emailPattern.MatchString(email)
}

func validCode(code string, digits int) bool {
	if len(code) != digits {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
