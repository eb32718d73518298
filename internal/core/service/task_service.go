package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/99minutos/tasklist/internal/core/domain"
	"github.com/99minutos/tasklist/internal/core/ports"
	"github.com/99minutos/tasklist/internal/pkg/metrics"
)

// TaskOption customises a TaskService.
type TaskOption func(*TaskService)

// WithClock replaces time.Now as the source of task timestamps.
func WithClock(now func() time.Time) TaskOption {
	return func(s *TaskService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRandom replaces crypto/rand as the source of task ids.
func WithRandom(r io.Reader) TaskOption {
	return func(s *TaskService) {
		if r != nil {
			s.random = r
		}
	}
}

// TaskService implements owner-scoped task operations over a SnapshotStore.
// Each mutation is a load → modify → save sequence without locking; callers
// sharing one store must serialise mutations themselves or they risk lost
// updates.
type TaskService struct {
	store    ports.SnapshotStore
	tokens   ports.TokenIssuer
	validate *inputValidator
	now      func() time.Time
	random   io.Reader
	log      zerolog.Logger
}

func NewTaskService(store ports.SnapshotStore, tokens ports.TokenIssuer, log zerolog.Logger, opts ...TaskOption) *TaskService {
	s := &TaskService{
		store:    store,
		tokens:   tokens,
		validate: newInputValidator(),
		now:      time.Now,
		random:   rand.Reader,
		log:      log.With().Str("component", "tasks").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create adds a task owned by the token's subject.
func (s *TaskService) Create(ctx context.Context, token, content string) (domain.Task, error) {
	task, err := s.create(ctx, token, content)
	observeTask("create", err)
	return task, err
}

func (s *TaskService) create(ctx context.Context, token, content string) (domain.Task, error) {
	const op = "tasks.create"
	userID, err := s.tokens.Verify(domain.TokenAccess, token)
	if err != nil {
		return domain.Task{}, err
	}

	content = domain.NormalizeContent(content)
	if err := s.validate.check(op, contentInput{Content: content}); err != nil {
		return domain.Task{}, err
	}

	snap, err := s.store.Load(ctx)
	if err != nil {
		return domain.Task{}, fmt.Errorf("%s: %w", op, err)
	}

	id, err := uuid.NewRandomFromReader(s.random)
	if err != nil {
		return domain.Task{}, fmt.Errorf("%s: generate id: %w", op, err)
	}
	now := s.now().UTC()
	task := domain.Task{
		ID:        id.String(),
		OwnerID:   userID,
		Content:   content,
		IsDone:    false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	snap.Tasks = append(snap.Tasks, task)
	if err := s.store.Save(ctx, &snap); err != nil {
		return domain.Task{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Debug().Str("user_id", userID).Str("task_id", task.ID).Msg("task created")
	return task, nil
}

// ListMine returns the caller's tasks in insertion order.
func (s *TaskService) ListMine(ctx context.Context, token string) ([]domain.Task, error) {
	tasks, err := s.listMine(ctx, token)
	observeTask("list", err)
	return tasks, err
}

func (s *TaskService) listMine(ctx context.Context, token string) ([]domain.Task, error) {
	const op = "tasks.list"
	userID, err := s.tokens.Verify(domain.TokenAccess, token)
	if err != nil {
		return nil, err
	}

	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	mine := make([]domain.Task, 0)
	for _, t := range snap.Tasks {
		if t.OwnedBy(userID) {
			mine = append(mine, t)
		}
	}
	return mine, nil
}

// FindByID looks a task up across all owners. An unknown id is reported as
// found=false; a task owned by someone else as domain.ErrAccessDenied.
func (s *TaskService) FindByID(ctx context.Context, token, id string) (domain.Task, bool, error) {
	task, found, err := s.findByID(ctx, token, id)
	observeTask("find", err)
	return task, found, err
}

func (s *TaskService) findByID(ctx context.Context, token, id string) (domain.Task, bool, error) {
	const op = "tasks.find"
	userID, err := s.tokens.Verify(domain.TokenAccess, token)
	if err != nil {
		return domain.Task{}, false, err
	}

	snap, err := s.store.Load(ctx)
	if err != nil {
		return domain.Task{}, false, fmt.Errorf("%s: %w", op, err)
	}

	idx, err := locate(op, &snap, userID, id)
	if err != nil {
		return domain.Task{}, false, err
	}
	if idx < 0 {
		return domain.Task{}, false, nil
	}
	return snap.Tasks[idx], true, nil
}

// Update merges the mutable fields of patch into the task.
func (s *TaskService) Update(ctx context.Context, token, id string, patch domain.TaskPatch) (domain.Task, error) {
	task, err := s.update(ctx, "tasks.update", token, id, patch)
	observeTask("update", err)
	return task, err
}

// UpdateContent replaces the task content.
func (s *TaskService) UpdateContent(ctx context.Context, token, id, content string) (domain.Task, error) {
	task, err := s.update(ctx, "tasks.update_content", token, id, domain.TaskPatch{Content: &content})
	observeTask("update", err)
	return task, err
}

func (s *TaskService) update(ctx context.Context, op, token, id string, patch domain.TaskPatch) (domain.Task, error) {
	userID, err := s.tokens.Verify(domain.TokenAccess, token)
	if err != nil {
		return domain.Task{}, err
	}
	if fields := patch.ImmutableFields(); len(fields) > 0 {
		return domain.Task{}, domain.Failf(op, domain.ErrImmutableField, "cannot change %v", fields)
	}

	var content string
	if patch.Content != nil {
		content = domain.NormalizeContent(*patch.Content)
		if err := s.validate.check(op, contentInput{Content: content}); err != nil {
			return domain.Task{}, err
		}
	}

	return s.mutate(ctx, op, userID, id, func(t *domain.Task) {
		if patch.Content != nil {
			t.Content = content
		}
		if patch.IsDone != nil {
			t.IsDone = *patch.IsDone
		}
	})
}

// ToggleDone flips the done flag.
func (s *TaskService) ToggleDone(ctx context.Context, token, id string) (domain.Task, error) {
	task, err := s.toggleDone(ctx, token, id)
	observeTask("toggle", err)
	return task, err
}

func (s *TaskService) toggleDone(ctx context.Context, token, id string) (domain.Task, error) {
	const op = "tasks.toggle"
	userID, err := s.tokens.Verify(domain.TokenAccess, token)
	if err != nil {
		return domain.Task{}, err
	}
	return s.mutate(ctx, op, userID, id, func(t *domain.Task) {
		t.IsDone = !t.IsDone
	})
}

// Delete removes the task after the same checks as FindByID.
func (s *TaskService) Delete(ctx context.Context, token, id string) error {
	err := s.delete(ctx, token, id)
	observeTask("delete", err)
	return err
}

func (s *TaskService) delete(ctx context.Context, token, id string) error {
	const op = "tasks.delete"
	userID, err := s.tokens.Verify(domain.TokenAccess, token)
	if err != nil {
		return err
	}

	snap, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	idx, err := locate(op, &snap, userID, id)
	if err != nil {
		return err
	}
	if idx < 0 {
		return domain.Failf(op, domain.ErrNotFound, "task %s", id)
	}

	snap.RemoveTask(idx)
	if err := s.store.Save(ctx, &snap); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Debug().Str("user_id", userID).Str("task_id", id).Msg("task deleted")
	return nil
}

// mutate resolves the task, applies fn, stamps UpdatedAt and persists.
func (s *TaskService) mutate(ctx context.Context, op, userID, id string, fn func(*domain.Task)) (domain.Task, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return domain.Task{}, fmt.Errorf("%s: %w", op, err)
	}
	idx, err := locate(op, &snap, userID, id)
	if err != nil {
		return domain.Task{}, err
	}
	if idx < 0 {
		return domain.Task{}, domain.Failf(op, domain.ErrNotFound, "task %s", id)
	}

	task := &snap.Tasks[idx]
	fn(task)
	task.UpdatedAt = s.stamp(task.UpdatedAt)

	if err := s.store.Save(ctx, &snap); err != nil {
		return domain.Task{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Debug().Str("user_id", userID).Str("task_id", id).Str("op", op).Msg("task updated")
	return *task, nil
}

// stamp returns the current time, nudged past prev when the clock has not
// moved, so UpdatedAt strictly increases on every mutation.
func (s *TaskService) stamp(prev time.Time) time.Time {
	now := s.now().UTC()
	if !now.After(prev) {
		now = prev.Add(time.Nanosecond)
	}
	return now
}

// locate returns the index of task id in snap, or -1 when no task has that
// id. Ownership is checked only after existence is established.
func locate(op string, snap *domain.Snapshot, userID, id string) (int, error) {
	idx := snap.FindTask(id)
	if idx < 0 {
		return -1, nil
	}
	if !snap.Tasks[idx].OwnedBy(userID) {
		return -1, domain.Failf(op, domain.ErrAccessDenied, "task %s belongs to another user", id)
	}
	return idx, nil
}

func observeTask(op string, err error) {
	metrics.TaskOperationsTotal.WithLabelValues(op, metrics.Result(err, domain.KindOf(err))).Inc()
}
