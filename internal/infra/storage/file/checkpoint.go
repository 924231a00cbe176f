// Package file provides the file-backed repositories used as the
// engine's durability boundary: the run checkpoint and the small JSON
// key-value caches.
package file

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/rxmeter/collector/internal/infra/storage"
)

// CheckpointRepo implements storage.CheckpointRepository on a single
// JSON file. Every MarkDone rewrites the file via a rename so a crash
// never leaves it partially written.
type CheckpointRepo struct {
	path      string
	completed map[string]struct{}
	order     []string
	failed    []string
	processed int
}

// NewCheckpointRepo creates a repository backed by the given file. The
// file does not need to exist yet.
func NewCheckpointRepo(path string) *CheckpointRepo {
	return &CheckpointRepo{
		path:      path,
		completed: make(map[string]struct{}),
	}
}

// Load reads prior progress from the backing file. Unreadable or
// corrupt state is logged and treated as an empty checkpoint.
func (r *CheckpointRepo) Load() (*storage.Checkpoint, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Could not read checkpoint file, starting fresh", "path", r.path, "error", err)
		}
		return r.snapshot(), nil
	}

	var cp storage.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		slog.Warn("Corrupt checkpoint file, starting fresh", "path", r.path, "error", err)
		return r.snapshot(), nil
	}

	r.completed = make(map[string]struct{}, len(cp.Completed))
	r.order = cp.Completed
	for _, key := range cp.Completed {
		r.completed[key] = struct{}{}
	}
	r.failed = cp.Failed
	r.processed = cp.TotalProcessed

	return r.snapshot(), nil
}

// Done reports whether a key has already been processed.
func (r *CheckpointRepo) Done(key string) bool {
	_, ok := r.completed[key]
	return ok
}

// MarkDone records a key and synchronously persists the full state.
func (r *CheckpointRepo) MarkDone(key string, failed bool) error {
	if _, ok := r.completed[key]; !ok {
		r.completed[key] = struct{}{}
		r.order = append(r.order, key)
		r.processed++
	}
	if failed {
		r.failed = append(r.failed, key)
	}
	return r.persist()
}

// TotalProcessed returns the running processed counter.
func (r *CheckpointRepo) TotalProcessed() int {
	return r.processed
}

// FailedKeys returns the keys recorded as failed, in order.
func (r *CheckpointRepo) FailedKeys() []string {
	return r.failed
}

func (r *CheckpointRepo) snapshot() *storage.Checkpoint {
	return &storage.Checkpoint{
		Completed:      r.order,
		Failed:         r.failed,
		TotalProcessed: r.processed,
	}
}

func (r *CheckpointRepo) persist() error {
	data, err := json.Marshal(r.snapshot())
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".checkpoint-*")
	if err != nil {
		return fmt.Errorf("failed to create temp checkpoint: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close checkpoint: %w", err)
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace checkpoint: %w", err)
	}
	return nil
}
