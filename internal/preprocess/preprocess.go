// Package preprocess resolves catalog procedure codes to care resource
// uuids via the search API. The collection run only requests drugs that
// have a resolved identifier, so this job runs first and persists its
// results to the identifier cache.
package preprocess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/rxmeter/collector/internal/catalog"
	"github.com/rxmeter/collector/internal/collect/pacer"
	"github.com/rxmeter/collector/internal/infra/careapi"
)

// Searcher performs one care search call.
type Searcher interface {
	Search(ctx context.Context, query string) (*careapi.SearchResponse, error)
}

// UUIDCache stores resolved identifiers keyed by procedure code.
// file.Cache[string] satisfies this.
type UUIDCache interface {
	Get(key string) (string, bool)
	Put(key string, value string)
	Persist() error
}

// Result summarizes one preprocessing run.
type Result struct {
	Total    int
	Cached   int
	Resolved int
	Missing  int
	Failed   int
}

// Job resolves identifiers for a set of catalog entries.
type Job struct {
	search Searcher
	cache  UUIDCache
	pace   *pacer.Pacer

	// persistEvery controls how often the cache is flushed mid-run,
	// so an interrupted job keeps most of its work.
	persistEvery int
}

// New creates a preprocessing job.
func New(search Searcher, cache UUIDCache, pace *pacer.Pacer) *Job {
	return &Job{
		search:       search,
		cache:        cache,
		pace:         pace,
		persistEvery: 20,
	}
}

// Run resolves every entry not already in the cache. Entries the search
// cannot match are counted as missing and logged; transient search
// failures are retried with backoff and then counted as failed. The
// cache is persisted even when Run returns early.
func (j *Job) Run(ctx context.Context, entries []catalog.Entry) (Result, error) {
	res := Result{Total: len(entries)}
	slog.Info("Starting identifier resolution", "entries", len(entries))

	sinceFlush := 0
	for _, entry := range entries {
		if _, ok := j.cache.Get(entry.Code); ok {
			res.Cached++
			continue
		}
		if ctx.Err() != nil {
			return res, j.finish(res, ctx.Err())
		}

		if err := j.pace.Wait(ctx); err != nil {
			return res, j.finish(res, err)
		}

		uuid, err := j.resolve(ctx, entry)
		switch {
		case err != nil && errors.Is(err, careapi.ErrAuth):
			// Credentials are gone for good; no point continuing.
			return res, j.finish(res, err)
		case err != nil:
			res.Failed++
			slog.Error("Search failed for drug", "code", entry.Code, "name", entry.Name, "error", err)
			continue
		case uuid == "":
			res.Missing++
			slog.Warn("No search match for drug", "code", entry.Code, "name", entry.Name)
			continue
		}

		j.cache.Put(entry.Code, uuid)
		res.Resolved++
		sinceFlush++
		if sinceFlush >= j.persistEvery {
			if err := j.cache.Persist(); err != nil {
				slog.Warn("Failed to persist identifier cache", "error", err)
			}
			sinceFlush = 0
		}
	}

	return res, j.finish(res, nil)
}

// resolve searches by procedure code with bounded retries and picks
// the matching result: an exact name match when present, otherwise the
// first hit.
func (j *Job) resolve(ctx context.Context, entry catalog.Entry) (string, error) {
	var resp *careapi.SearchResponse

	backoff := retry.WithMaxRetries(2, retry.NewExponential(time.Second))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		r, err := j.search.Search(ctx, entry.Code)
		if err != nil {
			if errors.Is(err, careapi.ErrAuth) {
				return err
			}
			return retry.RetryableError(err)
		}
		resp = r
		return nil
	})
	if err != nil {
		return "", err
	}
	if len(resp.Content) == 0 {
		return "", nil
	}

	want := strings.ToLower(strings.TrimSpace(entry.Name))
	for _, hit := range resp.Content {
		if strings.ToLower(strings.TrimSpace(hit.Name)) == want {
			return hit.UUID, nil
		}
	}
	return resp.Content[0].UUID, nil
}

func (j *Job) finish(res Result, cause error) error {
	if err := j.cache.Persist(); err != nil {
		return fmt.Errorf("failed to persist identifier cache: %w", err)
	}
	slog.Info("Identifier resolution finished",
		"total", res.Total,
		"cached", res.Cached,
		"resolved", res.Resolved,
		"missing", res.Missing,
		"failed", res.Failed,
	)
	return cause
}
