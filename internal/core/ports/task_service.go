package ports

import (
	"context"

	"github.com/99minutos/tasklist/internal/core/domain"
)

// TaskService defines owner-scoped task operations. Every method takes the
// caller's access token and resolves the owner from it before anything else.
type TaskService interface {
	Create(ctx context.Context, token, content string) (domain.Task, error)
	// ListMine returns the caller's tasks in insertion order.
	ListMine(ctx context.Context, token string) ([]domain.Task, error)
	// FindByID reports found=false with a nil error when no task has the id.
	// A task owned by someone else yields domain.ErrAccessDenied.
	FindByID(ctx context.Context, token, id string) (task domain.Task, found bool, err error)
	Update(ctx context.Context, token, id string, patch domain.TaskPatch) (domain.Task, error)
	UpdateContent(ctx context.Context, token, id, content string) (domain.Task, error)
	ToggleDone(ctx context.Context, token, id string) (domain.Task, error)
	Delete(ctx context.Context, token, id string) error
}
