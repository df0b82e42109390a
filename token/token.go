// Package token signs and verifies the two bearer-token kinds used by the
// authentication core: short-lived pre-auth tokens proving password-stage
// success, and access tokens proving full authentication.
//
// The two kinds use independent HMAC secrets. A token of one kind is never
// accepted where the other is expected, even when its signature would
// verify under the wrong kind's secret; the kind tag is checked in addition
// to the signature, not instead of it.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalid is the single error returned for every verification failure:
// bad signature, expiry, malformed token, or kind mismatch. Callers learn
// nothing about which check failed.
var ErrInvalid = errors.New("invalid token")

// Kind tags a claim set as pre-auth or access.
type Kind string

const (
	// KindPreAuth marks tokens issued after password verification, before
	// MFA. Accepted only by the MFA-verification step.
	KindPreAuth Kind = "pre-auth"
	// KindAccess marks tokens issued after full authentication.
	KindAccess Kind = "access"
)

// Claims is the signed claim set. Subject carries the user id. Name, Role,
// and Approval are populated on access tokens only and reflect the record
// at issuance time.
type Claims struct {
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role,omitempty"`
	Approval string `json:"approval,omitempty"`
	Kind     Kind   `json:"typ"`
	jwt.RegisteredClaims
}

// Config holds the secrets and lifetimes for both token kinds.
type Config struct {
	PreAuthSecret []byte
	AccessSecret  []byte
	PreAuthTTL    time.Duration
	AccessTTL     time.Duration
	Issuer        string
	Leeway        time.Duration
}

// Service issues and verifies tokens. Stateless and safe for concurrent
// use.
type Service struct {
	config Config
}

// NewService validates cfg and returns a Service. The two secrets must be
// non-empty and distinct.
func NewService(cfg Config) (*Service, error) {
	if len(cfg.PreAuthSecret) == 0 || len(cfg.AccessSecret) == 0 {
		return nil, errors.New("both token secrets required")
	}
	if string(cfg.PreAuthSecret) == string(cfg.AccessSecret) {
		return nil, errors.New("token secrets must differ")
	}
	if cfg.PreAuthTTL <= 0 || cfg.AccessTTL <= 0 {
		return nil, errors.New("token TTLs must be positive")
	}
	if cfg.Leeway < 0 {
		return nil, errors.New("token leeway must not be negative")
	}
	return &Service{config: cfg}, nil
}

// IssuePreAuth signs a pre-auth claim set for the given user.
func (s *Service) IssuePreAuth(userID, email string) (string, error) {
	claims := Claims{
		Email: email,
		Kind:  KindPreAuth,
		RegisteredClaims: s.registered(userID, s.config.PreAuthTTL),
	}
	return s.sign(claims, s.config.PreAuthSecret)
}

// IssueAccess signs an access claim set carrying the identity snapshot.
func (s *Service) IssueAccess(userID, email, name, role, approval string) (string, error) {
	claims := Claims{
		Email:    email,
		Name:     name,
		Role:     role,
		Approval: approval,
		Kind:     KindAccess,
		RegisteredClaims: s.registered(userID, s.config.AccessTTL),
	}
	return s.sign(claims, s.config.AccessSecret)
}

// Verify validates signature and expiry under the expected kind's secret,
// then checks the kind tag. Any failure returns [ErrInvalid].
func (s *Service) Verify(tokenStr string, expected Kind) (*Claims, error) {
	secret := s.config.AccessSecret
	if expected == KindPreAuth {
		secret = s.config.PreAuthSecret
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if s.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(s.config.Leeway))
	}
	if s.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(s.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return nil, ErrInvalid
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Kind != expected || claims.Subject == "" {
		return nil, ErrInvalid
	}
	return claims, nil
}

func (s *Service) registered(userID string, ttl time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    s.config.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (s *Service) sign(claims Claims, secret []byte) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}
