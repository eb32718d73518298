package ports

import (
	"time"

	"github.com/99minutos/tasklist/internal/core/domain"
)

// PasswordHasher derives and checks salted password hashes.
type PasswordHasher interface {
	GenerateSalt() (string, error)
	Hash(secret, salt string) string
	Verify(candidate, salt, expectedHash string) bool
}

// TokenIssuer signs and verifies access and refresh tokens.
type TokenIssuer interface {
	Issue(kind domain.TokenKind, userID string) (token string, expiresAt time.Time, err error)
	// Verify returns the token subject. Failures carry domain.ErrInvalidToken,
	// domain.ErrExpiredToken or domain.ErrMissingSigningKey.
	Verify(kind domain.TokenKind, token string) (string, error)
}
