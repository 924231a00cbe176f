package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rxmeter/collector/internal/collect"
	"github.com/rxmeter/collector/internal/collect/breaker"
	"github.com/rxmeter/collector/internal/collect/metrics"
	"github.com/rxmeter/collector/internal/collect/pacer"
	"github.com/rxmeter/collector/internal/collect/sink"
	"github.com/rxmeter/collector/internal/collect/status"
	"github.com/rxmeter/collector/internal/core/domain"
	"github.com/rxmeter/collector/internal/infra/auth"
	"github.com/rxmeter/collector/internal/infra/careapi"
	"github.com/rxmeter/collector/internal/infra/geocode"
	"github.com/rxmeter/collector/internal/infra/storage/file"
)

func runCollect(cmd *cobra.Command, args []string) {
	cfg := setup()

	opts, err := runOptions()
	if err != nil {
		slog.Error("Invalid flags", "error", err)
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

	locationCache := file.OpenCache[geocode.Entry](cfg.Paths.LocationCache)
	resolver := geocode.NewResolver(cfg.Geocode, locationCache)
	uuidCache := file.OpenCache[string](cfg.Paths.UUIDCache)

	drugs, locations, err := collect.LoadInputs(ctx, cfg, opts, resolver, uuidCache)
	if err != nil {
		slog.Error("Failed to load inputs", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.Paths.ResultsDir, 0o755); err != nil {
		slog.Error("Failed to create results directory", "error", err)
		os.Exit(1)
	}

	checkpoint := file.NewCheckpointRepo(collect.CheckpointPath(cfg.Paths.ResultsDir, opts))
	if _, err := checkpoint.Load(); err != nil {
		slog.Error("Failed to load checkpoint", "error", err)
		os.Exit(1)
	}

	out, err := sink.Open(collect.OutputPath(cfg.Paths.ResultsDir, opts, time.Now()))
	if err != nil {
		slog.Error("Failed to open output file", "error", err)
		os.Exit(1)
	}
	defer out.Close()

	collector := collect.New(
		client,
		pacer.New(cfg.API.RequestInterval),
		breaker.New(cfg.API.MaxConsecutive),
		checkpoint,
		out,
		collect.Observers{collect.LogObserver{}},
		drugs,
		locations,
	)

	srv := status.NewServer(collector.Snapshot, cfg.Server.Port)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Status server stopped", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			slog.Error("Error stopping status server", "error", err)
		}
	}()

	summary, err := collector.Run(ctx)
	if err != nil {
		slog.Error("Collection failed", "error", err)
		os.Exit(1)
	}
	if summary.State == collect.StateTripped {
		os.Exit(1)
	}
}

// meteredCreds instruments a credential provider with refresh metrics.
type meteredCreds struct {
	inner *auth.Provider
}

func (m *meteredCreds) Get(ctx context.Context) (domain.Credentials, error) {
	return m.inner.Get(ctx)
}

func (m *meteredCreds) Refresh(ctx context.Context) (domain.Credentials, error) {
	c, err := m.inner.Refresh(ctx)
	if err != nil {
		metrics.CredentialRefreshes.WithLabelValues("failure").Inc()
		return c, err
	}
	metrics.CredentialRefreshes.WithLabelValues("success").Inc()
	return c, nil
}
