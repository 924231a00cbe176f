package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rxmeter/collector/internal/catalog"
	"github.com/rxmeter/collector/internal/collect/pacer"
	"github.com/rxmeter/collector/internal/infra/auth"
	"github.com/rxmeter/collector/internal/infra/careapi"
	"github.com/rxmeter/collector/internal/infra/storage/file"
	"github.com/rxmeter/collector/internal/preprocess"
)

var preprocessCmd = &cobra.Command{
	Use:   "preprocess",
	Short: "Resolve catalog drug identifiers via the search API",
	Run:   runPreprocess,
}

func runPreprocess(cmd *cobra.Command, args []string) {
	cfg := setup()

	path := catalogPath
	if path == "" {
		path = cfg.Paths.Catalog
	}
	entries, err := catalog.LoadEntries(path, 0)
	if err != nil {
		slog.Error("Failed to read catalog", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	creds := &meteredCreds{inner: auth.NewProvider(cfg.Auth)}
	if _, err := creds.Get(ctx); err != nil {
		slog.Error("Failed to acquire credentials", "error", err)
		os.Exit(1)
	}
	client := careapi.NewClient(cfg.API, creds)

	cache := file.OpenCache[string](cfg.Paths.UUIDCache)
	job := preprocess.New(client, cache, pacer.New(cfg.API.RequestInterval))

	res, err := job.Run(ctx, entries)
	if err != nil && ctx.Err() == nil {
		slog.Error("Identifier resolution failed", "error", err)
		os.Exit(1)
	}
	if res.Missing+res.Failed > 0 {
		slog.Warn("Some drugs remain unresolved; they will be skipped at collection time",
			"missing", res.Missing, "failed", res.Failed)
	}
}
