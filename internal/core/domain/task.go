package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Task is a single to-do entry. ID, OwnerID and CreatedAt never change after
// creation.
type Task struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Content   string    `json:"content"`
	IsDone    bool      `json:"isDone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t Task) Validate() error {
	if _, err := uuid.Parse(t.ID); err != nil {
		return &OpError{Op: "task.validate", Kind: ErrInvalidSnapshot, Detail: "task id must be a uuid", Err: err}
	}
	if strings.TrimSpace(t.OwnerID) == "" {
		return Failf("task.validate", ErrInvalidSnapshot, "task %s has no owner", t.ID)
	}
	if strings.TrimSpace(t.Content) == "" {
		return Failf("task.validate", ErrInvalidSnapshot, "task %s has empty content", t.ID)
	}
	if t.CreatedAt.IsZero() || t.UpdatedAt.IsZero() {
		return Failf("task.validate", ErrInvalidSnapshot, "task %s is missing timestamps", t.ID)
	}
	return nil
}

// OwnedBy reports whether userID owns the task.
func (t Task) OwnedBy(userID string) bool {
	return t.OwnerID == userID
}

// TaskPatch carries a partial update. ID, OwnerID and CreatedAt exist only so
// that attempts to rewrite them can be detected and rejected.
type TaskPatch struct {
	ID        *string    `json:"id,omitempty"`
	OwnerID   *string    `json:"ownerId,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`

	Content *string `json:"content,omitempty"`
	IsDone  *bool   `json:"isDone,omitempty"`
}

// ImmutableFields lists the immutable fields the patch tries to set.
func (p TaskPatch) ImmutableFields() []string {
	var fields []string
	if p.ID != nil {
		fields = append(fields, "id")
	}
	if p.OwnerID != nil {
		fields = append(fields, "ownerId")
	}
	if p.CreatedAt != nil {
		fields = append(fields, "createdAt")
	}
	return fields
}

// NormalizeContent trims surrounding whitespace from task content.
func NormalizeContent(content string) string {
	return strings.TrimSpace(content)
}
