package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/tasklist/internal/core/domain"
	"github.com/99minutos/tasklist/internal/infrastructure/security"
)

// ---------------------------------------------------------------------------
// In-memory stub store
// ---------------------------------------------------------------------------

type stubStore struct {
	snap    domain.Snapshot
	saves   int
	saveErr error // if set, Save returns this error
	loadErr error // if set, Load returns this error
}

func newStubStore() *stubStore {
	return &stubStore{snap: domain.EmptySnapshot()}
}

func cloneSnapshot(s domain.Snapshot) domain.Snapshot {
	out := domain.Snapshot{
		Users: make([]domain.User, len(s.Users)),
		Tasks: make([]domain.Task, len(s.Tasks)),
	}
	copy(out.Users, s.Users)
	copy(out.Tasks, s.Tasks)
	return out
}

func (s *stubStore) Load(_ context.Context) (domain.Snapshot, error) {
	if s.loadErr != nil {
		return domain.Snapshot{}, s.loadErr
	}
	return cloneSnapshot(s.snap), nil
}

func (s *stubStore) Save(_ context.Context, snap *domain.Snapshot) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	if snap == nil {
		return domain.Fail("stub.save", domain.ErrInvalidSnapshot, "nil snapshot")
	}
	s.saves++
	s.snap = cloneSnapshot(*snap)
	return nil
}

var errDiskFull = errors.New("disk full")

// ---------------------------------------------------------------------------
// Clock and fixtures
// ---------------------------------------------------------------------------

type testClock struct{ now time.Time }

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	store  *stubStore
	clock  *testClock
	tokens *security.Tokens
	auth   *AuthService
	tasks  *TaskService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newStubStore()
	clock := newTestClock()
	tokens := security.NewTokens(security.TokenConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
	}, clock.Now)
	hasher := security.NewCredentials(security.Argon2Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32}, nil)

	return &fixture{
		store:  store,
		clock:  clock,
		tokens: tokens,
		auth:   NewAuthService(store, hasher, tokens, zerolog.Nop()),
		tasks:  NewTaskService(store, tokens, zerolog.Nop(), WithClock(clock.Now)),
	}
}

// register creates a user and returns its access token.
func (f *fixture) register(t *testing.T, id string) string {
	t.Helper()
	pair, err := f.auth.Register(context.Background(), id, "password123")
	require.NoError(t, err, "register %s", id)
	return pair.AccessToken
}
