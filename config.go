package authcore

import (
	"bytes"
	"errors"
	"time"
)

// Config holds all engine tuning. Configure once, pass to
// [Builder.WithConfig], and treat as immutable afterwards; Build clones it.
type Config struct {
	Token        TokenConfig
	Password     PasswordConfig
	MFA          MFAConfig
	Registration RegistrationConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
}

// TokenConfig configures the two signed-token kinds. The secrets MUST
// differ: a leaked pre-auth secret must not allow forging full sessions.
type TokenConfig struct {
	PreAuthSecret []byte
	AccessSecret  []byte
	PreAuthTTL    time.Duration
	AccessTTL     time.Duration
	Issuer        string
	Leeway        time.Duration
}

// PasswordConfig holds the argon2id parameters and password policy.
type PasswordConfig struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	MinLength   int
	MaxLength   int
	// UpgradeOnLogin transparently rehashes stored credentials whose
	// parameters fall below the configured ones.
	UpgradeOnLogin bool
}

// MFAConfig configures the one-time-code challenge.
type MFAConfig struct {
	CodeDigits int
	CodeTTL    time.Duration
	// AllowStaticFallback accepts a user's StaticMFACode as an always-valid
	// alternative to the dynamic code. Demo/legacy path; leave off in
	// production.
	AllowStaticFallback bool
}

// RegistrationConfig configures the self-registration sub-flow.
type RegistrationConfig struct {
	Enabled     bool
	DefaultRole Role
	// IssueTokenOnVerify returns an access token directly from VerifyEmail.
	// The approval gate is still applied: a pending account never receives
	// a token from this path either.
	IssueTokenOnVerify bool
}

// AuditConfig configures the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops entries instead of blocking when the buffer is full.
	// Dropped entries are counted and visible via Engine.AuditDropped.
	DropIfFull bool
}

// MetricsConfig enables the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the production defaults: 5-minute pre-auth tokens,
// 8-hour access tokens, 6-digit codes with a 5-minute expiry, and the
// static MFA fallback disabled.
func DefaultConfig() Config {
	return Config{
		Token: TokenConfig{
			PreAuthTTL: 5 * time.Minute,
			AccessTTL:  8 * time.Hour,
			Issuer:     "authcore",
			Leeway:     30 * time.Second,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
			MinLength:   8,
			MaxLength:   128,
		},
		MFA: MFAConfig{
			CodeDigits: 6,
			CodeTTL:    5 * time.Minute,
		},
		Registration: RegistrationConfig{
			Enabled:     true,
			DefaultRole: RoleUser,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate checks the configuration for internal consistency. Build calls
// it; callers constructing configs by hand may call it early.
func (c *Config) Validate() error {
	if len(c.Token.PreAuthSecret) == 0 || len(c.Token.AccessSecret) == 0 {
		return errors.New("token secrets required")
	}
	if bytes.Equal(c.Token.PreAuthSecret, c.Token.AccessSecret) {
		return errors.New("pre-auth and access secrets must differ")
	}
	if c.Token.PreAuthTTL <= 0 || c.Token.AccessTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("token leeway out of range")
	}
	if c.MFA.CodeDigits < 6 || c.MFA.CodeDigits > 10 {
		return errors.New("mfa code digits must be between 6 and 10")
	}
	if c.MFA.CodeTTL <= 0 {
		return errors.New("mfa code TTL must be positive")
	}
	if c.Password.MinLength < 8 {
		return errors.New("password min length must be >= 8")
	}
	if c.Password.MaxLength < c.Password.MinLength {
		return errors.New("password max length below min length")
	}
	if c.Registration.Enabled {
		switch c.Registration.DefaultRole {
		case RoleUser, RoleAdmin:
		default:
			return errors.New("registration default role invalid")
		}
	}
	if c.Audit.Enabled && c.Audit.BufferSize < 0 {
		return errors.New("audit buffer size must not be negative")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.PreAuthSecret = cloneBytes(cfg.Token.PreAuthSecret)
	out.Token.AccessSecret = cloneBytes(cfg.Token.AccessSecret)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
