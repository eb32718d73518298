package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/99minutos/tasklist/internal/core/domain"
	"github.com/99minutos/tasklist/internal/core/ports"
	"github.com/99minutos/tasklist/internal/pkg/metrics"
)

// AuthService implements registration and login.
type AuthService struct {
	store    ports.SnapshotStore
	hasher   ports.PasswordHasher
	tokens   ports.TokenIssuer
	validate *inputValidator
	log      zerolog.Logger
}

func NewAuthService(store ports.SnapshotStore, hasher ports.PasswordHasher, tokens ports.TokenIssuer, log zerolog.Logger) *AuthService {
	return &AuthService{
		store:    store,
		hasher:   hasher,
		tokens:   tokens,
		validate: newInputValidator(),
		log:      log.With().Str("component", "auth").Logger(),
	}
}

// Register creates a user and returns a fresh token pair. The store is only
// written once the tokens have been issued, so a signing failure leaves no
// half-registered user behind.
func (s *AuthService) Register(ctx context.Context, id, password string) (domain.TokenPair, error) {
	pair, err := s.register(ctx, id, password)
	observeAuth("register", err)
	return pair, err
}

func (s *AuthService) register(ctx context.Context, id, password string) (domain.TokenPair, error) {
	const op = "auth.register"
	if err := s.validate.check(op, registerInput{ID: id, Password: password}); err != nil {
		return domain.TokenPair{}, err
	}

	snap, err := s.store.Load(ctx)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}
	if snap.FindUser(id) >= 0 {
		return domain.TokenPair{}, domain.Failf(op, domain.ErrDuplicateUser, "%q is taken", id)
	}

	salt, err := s.hasher.GenerateSalt()
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.issuePair(id)
	if err != nil {
		return domain.TokenPair{}, err
	}

	snap.Users = append(snap.Users, domain.User{
		ID:           id,
		PasswordHash: s.hasher.Hash(password, salt),
		Salt:         salt,
	})
	if err := s.store.Save(ctx, &snap); err != nil {
		return domain.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info().Str("user_id", id).Msg("user registered")
	return pair, nil
}

// Login issues a new token pair from either a password or a refresh token.
// Neither path writes the store.
func (s *AuthService) Login(ctx context.Context, creds ports.Credentials) (domain.TokenPair, error) {
	switch {
	case creds.RefreshToken != "":
		pair, err := s.loginWithRefresh(ctx, creds.RefreshToken)
		observeAuth("login_refresh", err)
		return pair, err
	case creds.ID != "" || creds.Password != "":
		pair, err := s.loginWithPassword(ctx, creds.ID, creds.Password)
		observeAuth("login_password", err)
		return pair, err
	default:
		err := domain.Fail("auth.login", domain.ErrInvalidInput, "either id and password or a refresh token is required")
		observeAuth("login_password", err)
		return domain.TokenPair{}, err
	}
}

func (s *AuthService) loginWithPassword(ctx context.Context, id, password string) (domain.TokenPair, error) {
	const op = "auth.login"
	snap, err := s.store.Load(ctx)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	idx := snap.FindUser(id)
	if idx < 0 {
		return domain.TokenPair{}, domain.Failf(op, domain.ErrNotFound, "user %q", id)
	}
	user := snap.Users[idx]
	if !s.hasher.Verify(password, user.Salt, user.PasswordHash) {
		s.log.Warn().Str("user_id", id).Msg("password mismatch")
		return domain.TokenPair{}, domain.Fail(op, domain.ErrAccessDenied, "wrong password")
	}

	s.log.Debug().Str("user_id", id).Str("method", "password").Msg("login")
	return s.issuePair(id)
}

func (s *AuthService) loginWithRefresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	const op = "auth.refresh"
	userID, err := s.tokens.Verify(domain.TokenRefresh, refreshToken)
	if err != nil {
		return domain.TokenPair{}, err
	}

	snap, err := s.store.Load(ctx)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}
	if snap.FindUser(userID) < 0 {
		return domain.TokenPair{}, domain.Failf(op, domain.ErrNotFound, "user %q no longer exists", userID)
	}

	s.log.Debug().Str("user_id", userID).Str("method", "refresh").Msg("login")
	return s.issuePair(userID)
}

// Whoami resolves an access token to its user id.
func (s *AuthService) Whoami(_ context.Context, accessToken string) (string, error) {
	return s.tokens.Verify(domain.TokenAccess, accessToken)
}

func (s *AuthService) issuePair(userID string) (domain.TokenPair, error) {
	access, accessExp, err := s.tokens.Issue(domain.TokenAccess, userID)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, refreshExp, err := s.tokens.Issue(domain.TokenRefresh, userID)
	if err != nil {
		return domain.TokenPair{}, err
	}
	return domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func observeAuth(op string, err error) {
	metrics.AuthOperationsTotal.WithLabelValues(op, metrics.Result(err, domain.KindOf(err))).Inc()
}
