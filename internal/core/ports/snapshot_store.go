package ports

import (
	"context"

	"github.com/99minutos/tasklist/internal/core/domain"
)

// SnapshotStore persists the whole database as one unit.
//
// Load never reports a data-shape problem: a missing, corrupt or mismatched
// file is replaced by an empty snapshot. Save replaces the stored snapshot
// atomically. The store does no locking; a load → mutate → save sequence is
// the caller's critical section.
type SnapshotStore interface {
	Load(ctx context.Context) (domain.Snapshot, error)
	Save(ctx context.Context, snap *domain.Snapshot) error
}
