package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/99minutos/tasklist/internal/core/domain"
)

const (
	DefaultAccessTTL  = 60 * time.Second
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// TokenConfig holds the signing secrets and lifetimes. An empty secret is
// only reported when a token of that kind is issued or verified.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// Claims are the JWT claims carried by both token kinds.
type Claims struct {
	jwt.RegisteredClaims
	Kind domain.TokenKind `json:"kind"`
}

// Tokens issues and verifies HS256 access and refresh tokens.
type Tokens struct {
	secrets map[domain.TokenKind][]byte
	ttls    map[domain.TokenKind]time.Duration
	now     func() time.Time
}

// NewTokens builds a token engine. A nil clock means time.Now.
func NewTokens(cfg TokenConfig, now func() time.Time) *Tokens {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Tokens{
		secrets: map[domain.TokenKind][]byte{
			domain.TokenAccess:  []byte(cfg.AccessSecret),
			domain.TokenRefresh: []byte(cfg.RefreshSecret),
		},
		ttls: map[domain.TokenKind]time.Duration{
			domain.TokenAccess:  cfg.AccessTTL,
			domain.TokenRefresh: cfg.RefreshTTL,
		},
		now: now,
	}
}

func (t *Tokens) secret(op string, kind domain.TokenKind) ([]byte, error) {
	if !kind.Valid() {
		return nil, domain.Failf(op, domain.ErrInvalidInput, "unknown token kind %q", kind)
	}
	key := t.secrets[kind]
	if len(key) == 0 {
		return nil, domain.Failf(op, domain.ErrMissingSigningKey, "no %s token secret configured", kind)
	}
	return key, nil
}

// Issue signs a token of the given kind for userID.
func (t *Tokens) Issue(kind domain.TokenKind, userID string) (string, time.Time, error) {
	const op = "tokens.issue"
	key, err := t.secret(op, kind)
	if err != nil {
		return "", time.Time{}, err
	}

	now := t.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttls[kind])),
		},
		Kind: kind,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", time.Time{}, domain.Wrap(op, domain.ErrInvalidToken, err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

// IssueAccess signs a short-lived access token.
func (t *Tokens) IssueAccess(userID string) (string, time.Time, error) {
	return t.Issue(domain.TokenAccess, userID)
}

// IssueRefresh signs a long-lived refresh token.
func (t *Tokens) IssueRefresh(userID string) (string, time.Time, error) {
	return t.Issue(domain.TokenRefresh, userID)
}

// Verify checks the signature first and the expiry second, so a tampered
// token is always reported as invalid even when it is also stale.
func (t *Tokens) Verify(kind domain.TokenKind, token string) (string, error) {
	const op = "tokens.verify"
	key, err := t.secret(op, kind)
	if err != nil {
		return "", err
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return "", domain.Wrap(op, domain.ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return "", domain.Fail(op, domain.ErrInvalidToken, "signature rejected")
	}
	if claims.Kind != kind {
		return "", domain.Failf(op, domain.ErrInvalidToken, "expected %s token, got %q", kind, claims.Kind)
	}
	if claims.Subject == "" {
		return "", domain.Fail(op, domain.ErrInvalidToken, "missing subject")
	}
	if claims.ExpiresAt == nil {
		return "", domain.Fail(op, domain.ErrInvalidToken, "missing expiry")
	}
	if !t.now().Before(claims.ExpiresAt.Time) {
		return "", domain.Wrap(op, domain.ErrExpiredToken, jwt.ErrTokenExpired)
	}
	return claims.Subject, nil
}

// IsRetryableWithRefresh reports whether err means the access token merely
// expired, as opposed to being forged or malformed.
func IsRetryableWithRefresh(err error) bool {
	return errors.Is(err, domain.ErrExpiredToken)
}
