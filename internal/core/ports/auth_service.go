package ports

import (
	"context"

	"github.com/99minutos/tasklist/internal/core/domain"
)

// Credentials selects the login path: either ID and Password, or a bare
// RefreshToken. RefreshToken wins when both are set.
type Credentials struct {
	ID           string
	Password     string
	RefreshToken string
}

type AuthService interface {
	Register(ctx context.Context, id, password string) (domain.TokenPair, error)
	Login(ctx context.Context, creds Credentials) (domain.TokenPair, error)
	Whoami(ctx context.Context, accessToken string) (string, error)
}
