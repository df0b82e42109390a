package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/vaultguard/authcore"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	user := sampleUser("u1", "a@example.com")
	user.MFACode = "123456"
	user.MFAExpiresAt = time.Now().Add(time.Minute).UTC()
	if err := s.Insert(ctx, user); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := s.FindByEmail(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if got.ID != "u1" || got.MFACode != "123456" || got.Role != authcore.RoleUser {
		t.Fatalf("stored user = %+v", got)
	}
	if !got.MFAExpiresAt.Equal(user.MFAExpiresAt) {
		t.Fatalf("expiry = %v, want %v", got.MFAExpiresAt, user.MFAExpiresAt)
	}
}

func TestRedisStoreNotFound(t *testing.T) {
	s := newTestRedisStore(t)
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
}

func TestRedisStoreDuplicateEmail(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	if err := s.Insert(ctx, sampleUser("u1", "a@example.com")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.Insert(ctx, sampleUser("u2", "a@example.com")); !errors.Is(err, authcore.ErrDuplicateEmail) {
		t.Fatalf("duplicate insert: %v", err)
	}

	// The original record survived the collision.
	got, err := s.FindByEmail(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ID != "u1" {
		t.Fatalf("record id = %q, want u1", got.ID)
	}
}

func TestRedisStoreUpdateFields(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	user := sampleUser("u1", "a@example.com")
	user.MFACode = "123456"
	if err := s.Insert(ctx, user); err != nil {
		t.Fatalf("insert: %v", err)
	}

	empty := ""
	verified := true
	if err := s.UpdateFields(ctx, "u1", authcore.UserPatch{MFACode: &empty, Verified: &verified}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := s.FindByID(ctx, "u1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.MFACode != "" || !got.Verified {
		t.Fatalf("patched user = %+v", got)
	}
	if got.Email != "a@example.com" {
		t.Fatal("untouched field changed")
	}
}

func TestRedisStoreSetApprovalStatus(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	if err := s.Insert(ctx, sampleUser("u1", "a@example.com")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.SetApprovalStatus(ctx, "u1", authcore.ApprovalApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}
	got, err := s.FindByID(ctx, "u1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Approval != authcore.ApprovalApproved {
		t.Fatalf("approval = %s", got.Approval)
	}
}

func TestRedisStoreAuditTrail(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		entry := authcore.AuditEntry{
			ID:        string(rune('a' + i)),
			Event:     "user_login",
			UserID:    "u1",
			Severity:  authcore.SeverityInfo,
			Timestamp: base.Add(time.Duration(i) * time.Second),
		}
		if _, err := s.Append(ctx, entry); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	recent, err := s.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("entries = %d, want 3", len(recent))
	}
	if recent[0].ID != "e" || recent[2].ID != "c" {
		t.Fatalf("ordering = %s %s %s, want newest first", recent[0].ID, recent[1].ID, recent[2].ID)
	}
}
