package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/vaultguard/authcore"
)

// PostgresStore is a database/sql UserStore, AuditSink, and AuditReader
// backed by Postgres via lib/pq. Run Migrate once before first use.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an existing connection pool. The caller owns the
// pool's lifecycle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const pqUniqueViolation = "23505"

const postgresSchema = `
CREATE TABLE IF NOT EXISTS authcore_users (
	id              TEXT PRIMARY KEY,
	email           TEXT NOT NULL UNIQUE,
	name            TEXT NOT NULL,
	password_hash   TEXT NOT NULL,
	role            TEXT NOT NULL,
	approval        TEXT NOT NULL,
	verified        BOOLEAN NOT NULL DEFAULT FALSE,
	mfa_code        TEXT NOT NULL DEFAULT '',
	mfa_expires_at  TIMESTAMPTZ,
	static_mfa_code TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS authcore_audit (
	id         TEXT PRIMARY KEY,
	event      TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	user_email TEXT NOT NULL,
	ip         TEXT NOT NULL,
	location   TEXT NOT NULL,
	severity   TEXT NOT NULL,
	ts         TIMESTAMPTZ NOT NULL,
	meta       JSONB
);

CREATE INDEX IF NOT EXISTS authcore_audit_ts_idx ON authcore_audit (ts DESC);
`

// Migrate creates the tables and indexes if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, postgresSchema); err != nil {
		return storeErr("migrate", err)
	}
	return nil
}

const userColumns = `id, email, name, password_hash, role, approval, verified, mfa_code, mfa_expires_at, static_mfa_code, created_at`

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (authcore.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM authcore_users WHERE email = $1`, email)
	return scanUser(row)
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (authcore.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM authcore_users WHERE id = $1`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (authcore.User, error) {
	var u authcore.User
	var expires sql.NullTime
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.Approval,
		&u.Verified, &u.MFACode, &expires, &u.StaticMFACode, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return authcore.User{}, authcore.ErrUserNotFound
	}
	if err != nil {
		return authcore.User{}, storeErr("user scan", err)
	}
	if expires.Valid {
		u.MFAExpiresAt = expires.Time
	}
	return u, nil
}

func (s *PostgresStore) Insert(ctx context.Context, user authcore.User) error {
	var expires any
	if !user.MFAExpiresAt.IsZero() {
		expires = user.MFAExpiresAt
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO authcore_users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		user.ID, user.Email, user.Name, user.PasswordHash, string(user.Role),
		string(user.Approval), user.Verified, user.MFACode, expires,
		user.StaticMFACode, user.CreatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return authcore.ErrDuplicateEmail
	}
	if err != nil {
		return storeErr("user insert", err)
	}
	return nil
}

func (s *PostgresStore) UpdateFields(ctx context.Context, id string, patch authcore.UserPatch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin", err)
	}
	defer tx.Rollback()

	apply := func(query string, args ...any) error {
		_, execErr := tx.ExecContext(ctx, query, args...)
		return execErr
	}

	var one int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM authcore_users WHERE id = $1 FOR UPDATE`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return authcore.ErrUserNotFound
	}
	if err != nil {
		return storeErr("user lock", err)
	}

	if patch.PasswordHash != nil {
		err = apply(`UPDATE authcore_users SET password_hash = $2 WHERE id = $1`, id, *patch.PasswordHash)
	}
	if err == nil && patch.Verified != nil {
		err = apply(`UPDATE authcore_users SET verified = $2 WHERE id = $1`, id, *patch.Verified)
	}
	if err == nil && patch.MFACode != nil {
		err = apply(`UPDATE authcore_users SET mfa_code = $2 WHERE id = $1`, id, *patch.MFACode)
	}
	if err == nil && patch.MFAExpiresAt != nil {
		var expires any
		if !patch.MFAExpiresAt.IsZero() {
			expires = *patch.MFAExpiresAt
		}
		err = apply(`UPDATE authcore_users SET mfa_expires_at = $2 WHERE id = $1`, id, expires)
	}
	if err != nil {
		return storeErr("user update", err)
	}
	if err := tx.Commit(); err != nil {
		return storeErr("commit", err)
	}
	return nil
}

func (s *PostgresStore) SetApprovalStatus(ctx context.Context, id string, status authcore.ApprovalStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE authcore_users SET approval = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return storeErr("approval update", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return authcore.ErrUserNotFound
	}
	return nil
}

// Append inserts one audit row.
func (s *PostgresStore) Append(ctx context.Context, entry authcore.AuditEntry) (authcore.AuditEntry, error) {
	var meta []byte
	if len(entry.Meta) > 0 {
		var err error
		if meta, err = json.Marshal(entry.Meta); err != nil {
			return authcore.AuditEntry{}, storeErr("audit encode", err)
		}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO authcore_audit (id, event, user_id, user_email, ip, location, severity, ts, meta)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.Event, entry.UserID, entry.UserEmail, entry.IP,
		entry.Location, string(entry.Severity), entry.Timestamp, meta)
	if err != nil {
		return authcore.AuditEntry{}, storeErr("audit insert", err)
	}
	return entry, nil
}

// Recent returns up to limit entries, newest first.
func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]authcore.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event, user_id, user_email, ip, location, severity, ts, meta
		 FROM authcore_audit ORDER BY ts DESC LIMIT $1`, limit)
	if err != nil {
		return nil, storeErr("audit query", err)
	}
	defer rows.Close()

	var entries []authcore.AuditEntry
	for rows.Next() {
		var entry authcore.AuditEntry
		var ts time.Time
		var meta []byte
		if err := rows.Scan(&entry.ID, &entry.Event, &entry.UserID, &entry.UserEmail,
			&entry.IP, &entry.Location, &entry.Severity, &ts, &meta); err != nil {
			return nil, storeErr("audit scan", err)
		}
		entry.Timestamp = ts
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &entry.Meta); err != nil {
				return nil, storeErr("audit decode", err)
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("audit rows", err)
	}
	return entries, nil
}
