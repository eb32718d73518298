// Package app wires the store, security engines and services into the
// public tasklist surface.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/tasklist/internal/core/domain"
	"github.com/99minutos/tasklist/internal/core/ports"
	"github.com/99minutos/tasklist/internal/core/service"
	"github.com/99minutos/tasklist/internal/infrastructure/config"
	"github.com/99minutos/tasklist/internal/infrastructure/db/filestore"
	"github.com/99minutos/tasklist/internal/infrastructure/queue"
	"github.com/99minutos/tasklist/internal/infrastructure/security"
)

type options struct {
	now    func() time.Time
	argon2 security.Argon2Params
}

// Option tweaks how New builds the App.
type Option func(*options)

// WithClock replaces time.Now for token expiry and task timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithArgon2Params overrides the password hashing cost.
func WithArgon2Params(p security.Argon2Params) Option {
	return func(o *options) { o.argon2 = p }
}

// App is the tasklist entry point. Mutations run one at a time through a
// serializer so concurrent callers in this process never lose updates.
type App struct {
	store  *filestore.Store
	auth   ports.AuthService
	tasks  ports.TaskService
	writes *queue.Serializer
	log    zerolog.Logger
}

func New(ctx context.Context, cfg *config.Config, log zerolog.Logger, opts ...Option) (*App, error) {
	o := options{now: time.Now, argon2: security.DefaultArgon2Params}
	for _, opt := range opts {
		opt(&o)
	}

	store, err := filestore.Open(filestore.Config{Path: cfg.Store.Path}, log)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	// --- Dependencies ---
	hasher := security.NewCredentials(o.argon2, nil)
	tokens := security.NewTokens(security.TokenConfig{
		AccessSecret:  cfg.Auth.AccessSecret,
		RefreshSecret: cfg.Auth.RefreshSecret,
		AccessTTL:     cfg.Auth.AccessTTL,
		RefreshTTL:    cfg.Auth.RefreshTTL,
	}, o.now)

	writes := queue.NewSerializer(log)
	writes.Start(ctx)

	log.Info().Str("path", store.Path()).Str("env", cfg.Env).Msg("tasklist ready")

	return &App{
		store:  store,
		auth:   service.NewAuthService(store, hasher, tokens, log),
		tasks:  service.NewTaskService(store, tokens, log, service.WithClock(o.now)),
		writes: writes,
		log:    log,
	}, nil
}

// Close stops the write serializer. Calls made after Close fail with
// queue.ErrStopped.
func (a *App) Close() error {
	a.writes.Stop()
	a.log.Debug().Str("path", a.store.Path()).Msg("tasklist closed")
	return nil
}

func (a *App) Register(ctx context.Context, id, password string) (domain.TokenPair, error) {
	var pair domain.TokenPair
	err := a.writes.Do(ctx, "register", func(ctx context.Context) error {
		var err error
		pair, err = a.auth.Register(ctx, id, password)
		return err
	})
	return pair, err
}

// Login accepts either id and password or a refresh token. It never writes
// the store and so bypasses the serializer.
func (a *App) Login(ctx context.Context, creds ports.Credentials) (domain.TokenPair, error) {
	return a.auth.Login(ctx, creds)
}

func (a *App) CreateTask(ctx context.Context, token, content string) (domain.Task, error) {
	var task domain.Task
	err := a.writes.Do(ctx, "create_task", func(ctx context.Context) error {
		var err error
		task, err = a.tasks.Create(ctx, token, content)
		return err
	})
	return task, err
}

func (a *App) ListTasks(ctx context.Context, token string) ([]domain.Task, error) {
	return a.tasks.ListMine(ctx, token)
}

func (a *App) GetTask(ctx context.Context, token, id string) (domain.Task, bool, error) {
	return a.tasks.FindByID(ctx, token, id)
}

func (a *App) UpdateTask(ctx context.Context, token, id string, patch domain.TaskPatch) (domain.Task, error) {
	var task domain.Task
	err := a.writes.Do(ctx, "update_task", func(ctx context.Context) error {
		var err error
		task, err = a.tasks.Update(ctx, token, id, patch)
		return err
	})
	return task, err
}

func (a *App) ToggleTask(ctx context.Context, token, id string) (domain.Task, error) {
	var task domain.Task
	err := a.writes.Do(ctx, "toggle_task", func(ctx context.Context) error {
		var err error
		task, err = a.tasks.ToggleDone(ctx, token, id)
		return err
	})
	return task, err
}

func (a *App) DeleteTask(ctx context.Context, token, id string) error {
	return a.writes.Do(ctx, "delete_task", func(ctx context.Context) error {
		return a.tasks.Delete(ctx, token, id)
	})
}
