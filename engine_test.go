package authcore_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vaultguard/authcore"
	"github.com/vaultguard/authcore/password"
	"github.com/vaultguard/authcore/store"
)

func testConfig() authcore.Config {
	cfg := authcore.DefaultConfig()
	cfg.Token.PreAuthSecret = []byte("pre-auth-test-secret-0123456789")
	cfg.Token.AccessSecret = []byte("access-test-secret-0123456789ab")
	// Cheapest parameters New accepts, to keep the suite fast.
	cfg.Password.Memory = 8192
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Password.KeyLength = 16
	return cfg
}

// captureDispatcher records the last code sent per email, or simulates an
// outage when fail is set.
type captureDispatcher struct {
	mu   sync.Mutex
	fail bool
	last map[string]string
}

func (d *captureDispatcher) SendCode(_ context.Context, email, code string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail {
		return errors.New("smtp unreachable")
	}
	if d.last == nil {
		d.last = make(map[string]string)
	}
	d.last[email] = code
	return nil
}

func (d *captureDispatcher) codeFor(email string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last[email]
}

func (d *captureDispatcher) setFail(fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail = fail
}

type testEnv struct {
	engine *authcore.Engine
	store  *store.MemoryStore
	audit  *store.MemoryAuditLog
	codes  *captureDispatcher
	hasher *password.Hasher
}

func newTestEngine(t *testing.T, mutate func(*authcore.Config)) *testEnv {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	st := store.NewMemoryStore()
	trail := store.NewMemoryAuditLog()
	codes := &captureDispatcher{}
	eng, err := authcore.New().
		WithConfig(cfg).
		WithUserStore(st).
		WithAuditSink(trail).
		WithCodeDispatcher(codes).
		Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(func() { eng.Close() })

	hasher, err := password.New(password.Config{
		Memory: cfg.Password.Memory, Time: cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength, KeyLength: cfg.Password.KeyLength,
	})
	if err != nil {
		t.Fatalf("build hasher: %v", err)
	}
	return &testEnv{engine: eng, store: st, audit: trail, codes: codes, hasher: hasher}
}

// addUser inserts a user directly, bypassing Register, so tests control
// approval and verification state without polluting the audit trail.
func (env *testEnv) addUser(t *testing.T, email, passwd string, role authcore.Role, approval authcore.ApprovalStatus, verified bool) authcore.User {
	t.Helper()
	hash, err := env.hasher.Hash(passwd)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := authcore.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         "Test User",
		PasswordHash: hash,
		Role:         role,
		Approval:     approval,
		Verified:     verified,
		CreatedAt:    time.Now().UTC(),
	}
	if err := env.store.Insert(context.Background(), user); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	return user
}

func (env *testEnv) activeUser(t *testing.T, email, passwd string) authcore.User {
	t.Helper()
	return env.addUser(t, email, passwd, authcore.RoleUser, authcore.ApprovalApproved, true)
}

func (env *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	env.addUser(t, "root@example.com", "RootPass99", authcore.RoleAdmin, authcore.ApprovalApproved, true)
	return env.fullLogin(t, "root@example.com", "RootPass99")
}

// fullLogin runs both stages and returns the access token.
func (env *testEnv) fullLogin(t *testing.T, email, passwd string) string {
	t.Helper()
	ctx := context.Background()
	login, err := env.engine.Login(ctx, email, passwd)
	if err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	res, err := env.engine.VerifyMFA(ctx, login.PreAuthToken, env.codes.codeFor(email))
	if err != nil {
		t.Fatalf("verify mfa %s: %v", email, err)
	}
	return res.AccessToken
}

// waitAudit blocks until at least want entries landed in the trail, then
// returns them newest first. Emission is asynchronous, hence the polling.
func waitAudit(t *testing.T, trail *store.MemoryAuditLog, want int) []authcore.AuditEntry {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if trail.Len() >= want {
			entries, err := trail.Recent(context.Background(), 0)
			if err != nil {
				t.Fatalf("read audit trail: %v", err)
			}
			return entries
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("audit trail has %d entries, want at least %d", trail.Len(), want)
	return nil
}

func countEvents(entries []authcore.AuditEntry, event string) int {
	n := 0
	for _, e := range entries {
		if e.Event == event {
			n++
		}
	}
	return n
}

func findEvent(t *testing.T, entries []authcore.AuditEntry, event string) authcore.AuditEntry {
	t.Helper()
	for _, e := range entries {
		if e.Event == event {
			return e
		}
	}
	t.Fatalf("no %q entry in audit trail", event)
	return authcore.AuditEntry{}
}
