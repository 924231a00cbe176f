// Package memory provides in-memory repositories, used as test doubles
// for the file-backed stores.
package memory

import (
	"github.com/rxmeter/collector/internal/infra/storage"
)

// CheckpointRepo is an in-memory storage.CheckpointRepository.
type CheckpointRepo struct {
	completed map[string]struct{}
	order     []string
	failed    []string
	processed int

	// MarkDoneCalls counts persist operations for assertions.
	MarkDoneCalls int
}

// NewCheckpointRepo creates an empty in-memory checkpoint.
func NewCheckpointRepo() *CheckpointRepo {
	return &CheckpointRepo{completed: make(map[string]struct{})}
}

// Seed pre-marks keys as completed, as if loaded from a prior run.
func (r *CheckpointRepo) Seed(keys ...string) {
	for _, key := range keys {
		if _, ok := r.completed[key]; !ok {
			r.completed[key] = struct{}{}
			r.order = append(r.order, key)
			r.processed++
		}
	}
}

func (r *CheckpointRepo) Load() (*storage.Checkpoint, error) {
	return &storage.Checkpoint{
		Completed:      r.order,
		Failed:         r.failed,
		TotalProcessed: r.processed,
	}, nil
}

func (r *CheckpointRepo) Done(key string) bool {
	_, ok := r.completed[key]
	return ok
}

func (r *CheckpointRepo) MarkDone(key string, failed bool) error {
	r.MarkDoneCalls++
	if _, ok := r.completed[key]; !ok {
		r.completed[key] = struct{}{}
		r.order = append(r.order, key)
		r.processed++
	}
	if failed {
		r.failed = append(r.failed, key)
	}
	return nil
}

func (r *CheckpointRepo) TotalProcessed() int {
	return r.processed
}

func (r *CheckpointRepo) FailedKeys() []string {
	return r.failed
}
