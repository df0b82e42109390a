package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vaultguard/authcore"
)

const (
	redisUserKeyPrefix  = "authcore:user:"
	redisEmailKeyPrefix = "authcore:email:"
	redisAuditKey       = "authcore:audit"
)

// RedisStore keeps user records as JSON values with a secondary email
// index, and the audit trail as a sorted set scored by timestamp. It
// implements UserStore, AuditSink, and AuditReader.
//
// Writes are read-modify-write without WATCH. The engine's update surface
// is narrow enough (per-field patches, last-write-wins OTP semantics) that
// lost updates are acceptable here; use PostgresStore when they are not.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing client. The caller owns the client's
// lifecycle.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

type redisUser struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	PasswordHash  string    `json:"password_hash"`
	Role          string    `json:"role"`
	Approval      string    `json:"approval"`
	Verified      bool      `json:"verified"`
	MFACode       string    `json:"mfa_code,omitempty"`
	MFAExpiresAt  time.Time `json:"mfa_expires_at,omitempty"`
	StaticMFACode string    `json:"static_mfa_code,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func toRedisUser(u authcore.User) redisUser {
	return redisUser{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		PasswordHash:  u.PasswordHash,
		Role:          string(u.Role),
		Approval:      string(u.Approval),
		Verified:      u.Verified,
		MFACode:       u.MFACode,
		MFAExpiresAt:  u.MFAExpiresAt,
		StaticMFACode: u.StaticMFACode,
		CreatedAt:     u.CreatedAt,
	}
}

func (r redisUser) user() authcore.User {
	return authcore.User{
		ID:            r.ID,
		Email:         r.Email,
		Name:          r.Name,
		PasswordHash:  r.PasswordHash,
		Role:          authcore.Role(r.Role),
		Approval:      authcore.ApprovalStatus(r.Approval),
		Verified:      r.Verified,
		MFACode:       r.MFACode,
		MFAExpiresAt:  r.MFAExpiresAt,
		StaticMFACode: r.StaticMFACode,
		CreatedAt:     r.CreatedAt,
	}
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", authcore.ErrStoreUnavailable, op, err)
}

func (s *RedisStore) FindByEmail(ctx context.Context, email string) (authcore.User, error) {
	id, err := s.client.Get(ctx, redisEmailKeyPrefix+email).Result()
	if errors.Is(err, redis.Nil) {
		return authcore.User{}, authcore.ErrUserNotFound
	}
	if err != nil {
		return authcore.User{}, storeErr("email lookup", err)
	}
	return s.FindByID(ctx, id)
}

func (s *RedisStore) FindByID(ctx context.Context, id string) (authcore.User, error) {
	raw, err := s.client.Get(ctx, redisUserKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return authcore.User{}, authcore.ErrUserNotFound
	}
	if err != nil {
		return authcore.User{}, storeErr("user lookup", err)
	}
	var ru redisUser
	if err := json.Unmarshal(raw, &ru); err != nil {
		return authcore.User{}, storeErr("user decode", err)
	}
	return ru.user(), nil
}

func (s *RedisStore) Insert(ctx context.Context, user authcore.User) error {
	claimed, err := s.client.SetNX(ctx, redisEmailKeyPrefix+user.Email, user.ID, 0).Result()
	if err != nil {
		return storeErr("email claim", err)
	}
	if !claimed {
		return authcore.ErrDuplicateEmail
	}
	if err := s.write(ctx, user); err != nil {
		// Roll the index claim back so the email is not wedged.
		s.client.Del(ctx, redisEmailKeyPrefix+user.Email)
		return err
	}
	return nil
}

func (s *RedisStore) UpdateFields(ctx context.Context, id string, patch authcore.UserPatch) error {
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if patch.PasswordHash != nil {
		user.PasswordHash = *patch.PasswordHash
	}
	if patch.Verified != nil {
		user.Verified = *patch.Verified
	}
	if patch.MFACode != nil {
		user.MFACode = *patch.MFACode
	}
	if patch.MFAExpiresAt != nil {
		user.MFAExpiresAt = *patch.MFAExpiresAt
	}
	return s.write(ctx, user)
}

func (s *RedisStore) SetApprovalStatus(ctx context.Context, id string, status authcore.ApprovalStatus) error {
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return err
	}
	user.Approval = status
	return s.write(ctx, user)
}

func (s *RedisStore) write(ctx context.Context, user authcore.User) error {
	raw, err := json.Marshal(toRedisUser(user))
	if err != nil {
		return storeErr("user encode", err)
	}
	if err := s.client.Set(ctx, redisUserKeyPrefix+user.ID, raw, 0).Err(); err != nil {
		return storeErr("user write", err)
	}
	return nil
}

// Append stores one audit entry in the trail sorted set.
func (s *RedisStore) Append(ctx context.Context, entry authcore.AuditEntry) (authcore.AuditEntry, error) {
	raw, err := json.Marshal(entry)
	if err != nil {
		return authcore.AuditEntry{}, storeErr("audit encode", err)
	}
	member := redis.Z{Score: float64(entry.Timestamp.UnixNano()), Member: raw}
	if err := s.client.ZAdd(ctx, redisAuditKey, member).Err(); err != nil {
		return authcore.AuditEntry{}, storeErr("audit write", err)
	}
	return entry, nil
}

// Recent returns up to limit entries, newest first.
func (s *RedisStore) Recent(ctx context.Context, limit int) ([]authcore.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	raws, err := s.client.ZRevRange(ctx, redisAuditKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, storeErr("audit read", err)
	}
	entries := make([]authcore.AuditEntry, 0, len(raws))
	for _, raw := range raws {
		var entry authcore.AuditEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return nil, storeErr("audit decode", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
