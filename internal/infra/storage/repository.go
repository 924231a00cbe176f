package storage

// Checkpoint is the persisted record of run progress. Completed holds
// every combination key that has been processed, success or permanent
// failure alike; a key present here is never re-requested. Failed
// additionally records the keys whose unit ultimately failed, so a
// later run can be pointed at them without changing resume semantics.
type Checkpoint struct {
	Completed      []string `json:"completed"`
	Failed         []string `json:"failed,omitempty"`
	TotalProcessed int      `json:"total_processed"`
}

// CheckpointRepository persists the set of completed work-unit keys.
//
// MarkDone must persist the full updated state synchronously before
// returning; durability is prioritized over throughput since request
// latency already dominates the loop.
type CheckpointRepository interface {
	// Load reads prior progress. Missing or corrupt state is treated
	// as no prior progress, not an error.
	Load() (*Checkpoint, error)

	// Done reports whether a key has already been processed.
	Done(key string) bool

	// MarkDone records a key as processed. A failed unit is still
	// marked done (it will never be re-requested within or across
	// runs) but is additionally tracked in the failed list.
	MarkDone(key string, failed bool) error

	// TotalProcessed returns the running processed counter.
	TotalProcessed() int

	// FailedKeys returns the keys recorded as failed, in order.
	FailedKeys() []string
}
