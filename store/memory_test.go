package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/vaultguard/authcore"
)

func sampleUser(id, email string) authcore.User {
	return authcore.User{
		ID:           id,
		Email:        email,
		Name:         "Sample",
		PasswordHash: "$argon2id$...",
		Role:         authcore.RoleUser,
		Approval:     authcore.ApprovalPending,
		CreatedAt:    time.Now().UTC(),
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Insert(ctx, sampleUser("u1", "a@example.com")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	byEmail, err := s.FindByEmail(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	byID, err := s.FindByID(ctx, "u1")
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if byEmail.ID != byID.ID || byEmail.Email != "a@example.com" {
		t.Fatalf("lookups disagree: %+v vs %+v", byEmail, byID)
	}
}

func TestMemoryStoreNotFound(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.FindByEmail(ctx, "ghost@example.com"); !errors.Is(err, authcore.ErrUserNotFound) {
		t.Fatalf("find by email: %v", err)
	}
	if _, err := s.FindByID(ctx, "ghost"); !errors.Is(err, authcore.ErrUserNotFound) {
		t.Fatalf("find by id: %v", err)
	}
	if err := s.UpdateFields(ctx, "ghost", authcore.UserPatch{}); !errors.Is(err, authcore.ErrUserNotFound) {
		t.Fatalf("update: %v", err)
	}
	if err := s.SetApprovalStatus(ctx, "ghost", authcore.ApprovalApproved); !errors.Is(err, authcore.ErrUserNotFound) {
		t.Fatalf("set approval: %v", err)
	}
}

func TestMemoryStoreDuplicateEmail(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Insert(ctx, sampleUser("u1", "a@example.com")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.Insert(ctx, sampleUser("u2", "a@example.com")); !errors.Is(err, authcore.ErrDuplicateEmail) {
		t.Fatalf("duplicate insert: %v", err)
	}
}

func TestMemoryStorePatchSemantics(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	user := sampleUser("u1", "a@example.com")
	user.MFACode = "123456"
	user.MFAExpiresAt = time.Now().Add(time.Minute)
	if err := s.Insert(ctx, user); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Nil fields stay untouched.
	verified := true
	if err := s.UpdateFields(ctx, "u1", authcore.UserPatch{Verified: &verified}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := s.FindByID(ctx, "u1")
	if !got.Verified {
		t.Fatal("verified not set")
	}
	if got.MFACode != "123456" {
		t.Fatal("untouched field changed")
	}

	// A pointer to the zero value clears.
	empty := ""
	var zero time.Time
	if err := s.UpdateFields(ctx, "u1", authcore.UserPatch{MFACode: &empty, MFAExpiresAt: &zero}); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, _ = s.FindByID(ctx, "u1")
	if got.MFACode != "" || !got.MFAExpiresAt.IsZero() {
		t.Fatalf("code not cleared: %+v", got)
	}
}

func TestMemoryStoreReadsAreCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	if err := s.Insert(ctx, sampleUser("u1", "a@example.com")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, _ := s.FindByID(ctx, "u1")
	got.PasswordHash = "tampered"

	again, _ := s.FindByID(ctx, "u1")
	if again.PasswordHash == "tampered" {
		t.Fatal("caller mutation reached stored state")
	}
}

func TestMemoryAuditLogOrdering(t *testing.T) {
	l := NewMemoryAuditLog()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		entry := authcore.AuditEntry{
			ID:        string(rune('a' + i)),
			Event:     "user_login",
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}
		if _, err := l.Append(ctx, entry); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	recent, err := l.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("entries = %d, want 3", len(recent))
	}
	if recent[0].ID != "e" || recent[2].ID != "c" {
		t.Fatalf("ordering = %s %s %s, want newest first", recent[0].ID, recent[1].ID, recent[2].ID)
	}

	all, err := l.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("recent all: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("all entries = %d, want 5", len(all))
	}
}
