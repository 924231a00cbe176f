package collect

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// runSuffix builds the filename suffix identifying a run's scope, so
// test runs, region subsets, and batches each get independent output
// and checkpoint files.
func runSuffix(opts Options) string {
	var b strings.Builder
	if opts.TestMode {
		b.WriteString("_test")
	}
	for _, r := range opts.Regions {
		b.WriteString("_")
		b.WriteString(string(r))
	}
	if opts.Batch != nil {
		fmt.Fprintf(&b, "_batch%s", opts.Batch.String())
	}
	return b.String()
}

// OutputPath returns the timestamped output file path for a run.
func OutputPath(resultsDir string, opts Options, now time.Time) string {
	name := fmt.Sprintf("care_data%s_%s.csv", runSuffix(opts), now.Format("20060102_150405"))
	return filepath.Join(resultsDir, name)
}

// CheckpointPath returns the checkpoint file path for a run's scope.
// Unlike the output file it carries no timestamp: progress accumulates
// across restarts of the same scope.
func CheckpointPath(resultsDir string, opts Options) string {
	return filepath.Join(resultsDir, fmt.Sprintf("checkpoint%s.json", runSuffix(opts)))
}
