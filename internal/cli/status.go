package cli

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rxmeter/collector/internal/collect"
	"github.com/rxmeter/collector/internal/infra/storage/file"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show checkpoint progress for the selected run scope",
	Run:   runStatus,
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := setup()

	opts, err := runOptions()
	if err != nil {
		slog.Error("Invalid flags", "error", err)
		os.Exit(1)
	}

	path := collect.CheckpointPath(cfg.Paths.ResultsDir, opts)
	cp, err := file.NewCheckpointRepo(path).Load()
	if err != nil {
		slog.Error("Failed to load checkpoint", "path", path, "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	fmt.Fprintln(w, "CHECKPOINT\tPROCESSED\tFAILED")
	fmt.Fprintf(w, "%s\t%d\t%d\n", path, cp.TotalProcessed, len(cp.Failed))
	w.Flush()

	if len(cp.Failed) > 0 {
		fmt.Println("\nFailed units:")
		for _, key := range cp.Failed {
			fmt.Println("  " + key)
		}
	}
}
