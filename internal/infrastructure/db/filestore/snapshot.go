package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/99minutos/tasklist/internal/core/domain"
	"github.com/99minutos/tasklist/internal/pkg/metrics"
)

// loadState classifies what Load found on disk.
type loadState string

const (
	stateValid    loadState = "valid"
	stateAbsent   loadState = "absent"
	stateCorrupt  loadState = "corrupt"
	stateMismatch loadState = "schema_mismatch"
)

var errSchemaMismatch = errors.New("snapshot schema mismatch")

// Load returns the stored snapshot. An absent, corrupt or mismatched file is
// replaced by a freshly persisted empty snapshot; the only error returned is
// a failure to write that replacement (or a cancelled ctx).
func (s *Store) Load(ctx context.Context) (domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}

	snap, state, _ := s.read()
	if state == stateValid {
		return snap, nil
	}
	return s.reinitialise()
}

// reinitialise replaces the file with an empty snapshot. The file is read
// again under the write lock: a Save that landed after the first read wins.
func (s *Store) reinitialise() (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, state, cause := s.read()
	if state == stateValid {
		return snap, nil
	}

	ev := s.log.Warn()
	if state == stateAbsent {
		ev = s.log.Info()
	}
	ev.Err(cause).Str("reason", string(state)).Msg("reinitialising snapshot")
	metrics.StoreReinitializationsTotal.WithLabelValues(string(state)).Inc()

	empty := domain.EmptySnapshot()
	if err := s.write(&empty); err != nil {
		return domain.Snapshot{}, fmt.Errorf("filestore: reinitialise snapshot: %w", err)
	}
	return empty, nil
}

// Save validates snap and atomically replaces the stored snapshot.
func (s *Store) Save(ctx context.Context, snap *domain.Snapshot) error {
	const op = "store.save"
	if snap == nil {
		return domain.Fail(op, domain.ErrInvalidSnapshot, "nil snapshot")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	normalized := *snap
	normalized.Normalize()
	if err := normalized.Validate(); err != nil {
		return domain.Wrap(op, domain.ErrInvalidSnapshot, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	defer func() { metrics.StoreSaveDuration.Observe(time.Since(start).Seconds()) }()

	if err := s.write(&normalized); err != nil {
		s.log.Error().Err(err).Msg("snapshot write failed")
		return fmt.Errorf("filestore: save snapshot: %w", err)
	}
	return nil
}

func (s *Store) read() (domain.Snapshot, loadState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Snapshot{}, stateAbsent, nil
		}
		return domain.Snapshot{}, stateCorrupt, err
	}
	return decodeSnapshot(data)
}

func (s *Store) write(snap *domain.Snapshot) error {
	data, err := jsonMarshalStable(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	return writeFileAtomicDurable(s.path, data, s.perm, s.dirPerm)
}

// decodeSnapshot is the schema boundary: it tells corrupt bytes apart from
// well-formed JSON that does not have the snapshot shape. Unknown keys are
// ignored so that a stray field never wipes the database.
func decodeSnapshot(data []byte) (domain.Snapshot, loadState, error) {
	if !json.Valid(data) {
		return domain.Snapshot{}, stateCorrupt, errors.New("snapshot is not valid JSON")
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return domain.Snapshot{}, stateMismatch, fmt.Errorf("%w: top level is not an object", errSchemaMismatch)
	}

	var snap domain.Snapshot
	if err := decodeCollection(top, "users", &snap.Users); err != nil {
		return domain.Snapshot{}, stateMismatch, err
	}
	if err := decodeCollection(top, "tasks", &snap.Tasks); err != nil {
		return domain.Snapshot{}, stateMismatch, err
	}
	if err := snap.Validate(); err != nil {
		return domain.Snapshot{}, stateMismatch, fmt.Errorf("%w: %w", errSchemaMismatch, err)
	}
	return snap, stateValid, nil
}

func decodeCollection(top map[string]json.RawMessage, key string, dst any) error {
	raw, ok := top[key]
	if !ok {
		return fmt.Errorf("%w: %q is missing", errSchemaMismatch, key)
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return fmt.Errorf("%w: %q is not an array", errSchemaMismatch, key)
	}
	if err := json.Unmarshal(trimmed, dst); err != nil {
		return fmt.Errorf("%w: %q: %w", errSchemaMismatch, key, err)
	}
	return nil
}
