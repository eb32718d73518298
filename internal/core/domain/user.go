package domain

import "strings"

const (
	MinUserIDLength   = 3
	MaxUserIDLength   = 8
	MinPasswordLength = 8
)

// User models a registered account. Users are immutable after registration.
type User struct {
	ID           string `json:"id"`
	PasswordHash string `json:"passwordHash"`
	Salt         string `json:"salt"`
}

func (u User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return Fail("user.validate", ErrInvalidSnapshot, "user id is required")
	}
	if u.PasswordHash == "" || u.Salt == "" {
		return Failf("user.validate", ErrInvalidSnapshot, "user %q has no credentials", u.ID)
	}
	return nil
}
