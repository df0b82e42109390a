package authcore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/vaultguard/authcore"
)

func TestLogout(t *testing.T) {
	env := newTestEngine(t, nil)
	env.activeUser(t, "alice@example.com", "CorrectHorse9")
	access := env.fullLogin(t, "alice@example.com", "CorrectHorse9")

	if err := env.engine.Logout(context.Background(), access); err != nil {
		t.Fatalf("logout: %v", err)
	}

	entries := waitAudit(t, env.audit, 4)
	entry := findEvent(t, entries, "user_logout")
	if entry.UserEmail != "alice@example.com" {
		t.Fatalf("user_logout email = %q", entry.UserEmail)
	}
	if entry.Severity != authcore.SeverityInfo {
		t.Fatalf("user_logout severity = %s, want info", entry.Severity)
	}
}

func TestLogoutInvalidToken(t *testing.T) {
	env := newTestEngine(t, nil)

	if err := env.engine.Logout(context.Background(), "not.a.token"); !errors.Is(err, authcore.ErrUnauthorized) {
		t.Fatalf("invalid token error = %v", err)
	}

	entries := waitAudit(t, env.audit, 1)
	entry := findEvent(t, entries, "logout_failed")
	if entry.Severity != authcore.SeverityWarning {
		t.Fatalf("logout_failed severity = %s, want warning", entry.Severity)
	}
	if entry.UserID != authcore.ActorUnknown {
		t.Fatalf("logout_failed user id = %q", entry.UserID)
	}
}

func TestLogoutRejectsPreAuthToken(t *testing.T) {
	env := newTestEngine(t, nil)
	env.activeUser(t, "bob@example.com", "CorrectHorse9")

	login, err := env.engine.Login(context.Background(), "bob@example.com", "CorrectHorse9")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := env.engine.Logout(context.Background(), login.PreAuthToken); !errors.Is(err, authcore.ErrUnauthorized) {
		t.Fatalf("pre-auth token accepted for logout: %v", err)
	}
}
