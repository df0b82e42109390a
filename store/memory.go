// Package store provides UserStore and audit trail implementations:
// in-memory for tests and demos, Redis for shared-nothing deployments,
// and Postgres for durable single-writer setups.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/vaultguard/authcore"
)

// MemoryStore is a map-backed UserStore safe for concurrent use. Records
// are copied on the way in and out, so callers can never mutate stored
// state through a returned User.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]authcore.User
	byEmail map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]authcore.User),
		byEmail: make(map[string]string),
	}
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (authcore.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return authcore.User{}, authcore.ErrUserNotFound
	}
	return s.byID[id], nil
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (authcore.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.byID[id]
	if !ok {
		return authcore.User{}, authcore.ErrUserNotFound
	}
	return user, nil
}

func (s *MemoryStore) Insert(_ context.Context, user authcore.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[user.Email]; taken {
		return authcore.ErrDuplicateEmail
	}
	if _, taken := s.byID[user.ID]; taken {
		return authcore.ErrDuplicateEmail
	}
	s.byID[user.ID] = user
	s.byEmail[user.Email] = user.ID
	return nil
}

func (s *MemoryStore) UpdateFields(_ context.Context, id string, patch authcore.UserPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byID[id]
	if !ok {
		return authcore.ErrUserNotFound
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
	s.byID[id] = user
	return nil
}

func (s *MemoryStore) SetApprovalStatus(_ context.Context, id string, status authcore.ApprovalStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byID[id]
	if !ok {
		return authcore.ErrUserNotFound
	}
	user.Approval = status
	s.byID[id] = user
	return nil
}

// MemoryAuditLog is an append-only in-memory audit trail. It implements
// both AuditSink and AuditReader.
type MemoryAuditLog struct {
	mu      sync.RWMutex
	entries []authcore.AuditEntry
}

// NewMemoryAuditLog returns an empty MemoryAuditLog.
func NewMemoryAuditLog() *MemoryAuditLog {
	return &MemoryAuditLog{}
}

func (l *MemoryAuditLog) Append(_ context.Context, entry authcore.AuditEntry) (authcore.AuditEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	return entry, nil
}

// Recent returns up to limit entries ordered newest first.
func (l *MemoryAuditLog) Recent(_ context.Context, limit int) ([]authcore.AuditEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]authcore.AuditEntry, len(l.entries))
	copy(out, l.entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// Len reports the number of stored entries.
func (l *MemoryAuditLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
