package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/tasklist/internal/core/domain"
	"github.com/99minutos/tasklist/internal/core/ports"
	"github.com/99minutos/tasklist/internal/infrastructure/config"
	"github.com/99minutos/tasklist/internal/infrastructure/queue"
	"github.com/99minutos/tasklist/internal/infrastructure/security"
)

var cheapArgon2 = security.Argon2Params{Time: 1, Memory: 8, Threads: 1, KeyLen: 16}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Env:   "test",
		Store: config.StoreConfig{Path: filepath.Join(t.TempDir(), "data", "db.json")},
		Auth: config.AuthConfig{
			AccessSecret:  "access-secret",
			RefreshSecret: "refresh-secret",
			AccessTTL:     60 * time.Second,
			RefreshTTL:    7 * 24 * time.Hour,
		},
	}
}

func newTestApp(t *testing.T, cfg *config.Config, c *clock) *App {
	t.Helper()
	a, err := New(context.Background(), cfg, zerolog.Nop(), WithClock(c.Now), WithArgon2Params(cheapArgon2))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestApp_AliceScenario(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	c := &clock{now: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)}
	a := newTestApp(t, cfg, c)

	pair, err := a.Register(ctx, "alice", "password123")
	require.NoError(t, err)

	first, err := a.CreateTask(ctx, pair.AccessToken, "buy milk")
	require.NoError(t, err)
	second, err := a.CreateTask(ctx, pair.AccessToken, "walk dog")
	require.NoError(t, err)

	toggled, err := a.ToggleTask(ctx, pair.AccessToken, first.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsDone)

	content := "walk the dog"
	edited, err := a.UpdateTask(ctx, pair.AccessToken, second.ID, domain.TaskPatch{Content: &content})
	require.NoError(t, err)
	assert.Equal(t, "walk the dog", edited.Content)

	require.NoError(t, a.DeleteTask(ctx, pair.AccessToken, first.ID))

	tasks, err := a.ListTasks(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, second.ID, tasks[0].ID)

	_, found, err := a.GetTask(ctx, pair.AccessToken, first.ID)
	require.NoError(t, err)
	assert.False(t, found)

	raw, err := os.ReadFile(cfg.Store.Path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"walk the dog"`)
	assert.NotContains(t, string(raw), `"buy milk"`)
}

func TestApp_StatePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	c := &clock{now: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)}

	first := newTestApp(t, cfg, c)
	pair, err := first.Register(ctx, "bob", "password123")
	require.NoError(t, err)
	task, err := first.CreateTask(ctx, pair.AccessToken, "persist me")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := newTestApp(t, cfg, c)
	relogged, err := second.Login(ctx, ports.Credentials{ID: "bob", Password: "password123"})
	require.NoError(t, err)

	got, found, err := second.GetTask(ctx, relogged.AccessToken, task.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "persist me", got.Content)
}

func TestApp_ExpiredAccessTokenRefreshAndRetry(t *testing.T) {
	ctx := context.Background()
	c := &clock{now: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)}
	a := newTestApp(t, testConfig(t), c)

	pair, err := a.Register(ctx, "carol", "password123")
	require.NoError(t, err)

	c.Advance(61 * time.Second)
	_, err = a.CreateTask(ctx, pair.AccessToken, "late")
	require.ErrorIs(t, err, domain.ErrExpiredToken)
	require.True(t, security.IsRetryableWithRefresh(err))

	fresh, err := a.Login(ctx, ports.Credentials{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)

	task, err := a.CreateTask(ctx, fresh.AccessToken, "late")
	require.NoError(t, err)
	assert.Equal(t, "carol", task.OwnerID)
}

func TestApp_ConcurrentCreatesAreNotLost(t *testing.T) {
	ctx := context.Background()
	c := &clock{now: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)}
	a := newTestApp(t, testConfig(t), c)

	pair, err := a.Register(ctx, "dave", "password123")
	require.NoError(t, err)

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := a.CreateTask(ctx, pair.AccessToken, fmt.Sprintf("task %d", i))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	tasks, err := a.ListTasks(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Len(t, tasks, workers)
}

func TestApp_ConcurrentRegistrationOfSameIDKeepsOne(t *testing.T) {
	ctx := context.Background()
	c := &clock{now: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)}
	a := newTestApp(t, testConfig(t), c)

	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := a.Register(ctx, "erin", "password123")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, dup int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrDuplicateUser):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, attempts-1, dup)
}

func TestApp_CrossOwnerAccessDenied(t *testing.T) {
	ctx := context.Background()
	c := &clock{now: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)}
	a := newTestApp(t, testConfig(t), c)

	alice, err := a.Register(ctx, "alice", "password123")
	require.NoError(t, err)
	mallory, err := a.Register(ctx, "mallory", "password123")
	require.NoError(t, err)

	task, err := a.CreateTask(ctx, alice.AccessToken, "secret")
	require.NoError(t, err)

	_, _, err = a.GetTask(ctx, mallory.AccessToken, task.ID)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
	_, err = a.ToggleTask(ctx, mallory.AccessToken, task.ID)
	assert.ErrorIs(t, err, domain.ErrAccessDenied)
	assert.ErrorIs(t, a.DeleteTask(ctx, mallory.AccessToken, task.ID), domain.ErrAccessDenied)
}

func TestApp_MutationsAfterCloseFail(t *testing.T) {
	ctx := context.Background()
	c := &clock{now: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)}
	a := newTestApp(t, testConfig(t), c)

	require.NoError(t, a.Close())
	_, err := a.Register(ctx, "frank", "password123")
	assert.ErrorIs(t, err, queue.ErrStopped)
}

func TestNew_RequiresStorePath(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Path = "  "
	_, err := New(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
}

func TestApp_ReadsOnMissingFileDoNotWipeRegistrations(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	c := &clock{now: time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)}
	a := newTestApp(t, cfg, c)

	for i := 0; i < 50; i++ {
		require.NoError(t, os.RemoveAll(cfg.Store.Path))
		id := fmt.Sprintf("u%03d", i)

		var wg sync.WaitGroup
		var regErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, regErr = a.Register(ctx, id, "password123")
		}()
		go func() {
			defer wg.Done()
			_, _ = a.Login(ctx, ports.Credentials{ID: "bob", Password: "password123"})
		}()
		wg.Wait()
		require.NoError(t, regErr)

		_, err := a.Login(ctx, ports.Credentials{ID: id, Password: "password123"})
		require.NoError(t, err, "registration of %s was lost", id)
	}
}
