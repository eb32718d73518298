package domain

import "time"

// TokenKind distinguishes short-lived access tokens from long-lived refresh
// tokens. Each kind is signed with its own secret.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

func (k TokenKind) Valid() bool {
	return k == TokenAccess || k == TokenRefresh
}

// TokenPair is handed out by registration and login.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
