// Package geocode resolves zip codes to coordinates through a
// Nominatim-style lookup service, backed by a persistent cache.
// Coordinates are immutable, so cached entries never expire.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/rxmeter/collector/internal/core/config"
	"github.com/rxmeter/collector/internal/core/domain"
)

// Entry is one cached geocoding result.
type Entry struct {
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	City string  `json:"city"`
}

// Cache persists geocoding results across runs.
type Cache interface {
	Get(key string) (Entry, bool)
	Put(key string, e Entry)
	Persist() error
}

// Resolver looks up zip code coordinates.
type Resolver struct {
	cfg        config.GeocodeConfig
	cache      Cache
	httpClient *http.Client
	sleep      func(context.Context, time.Duration) error
}

// NewResolver creates a resolver over the given cache.
func NewResolver(cfg config.GeocodeConfig, cache Cache) *Resolver {
	return &Resolver{
		cfg:        cfg,
		cache:      cache,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		sleep: func(ctx context.Context, d time.Duration) error {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-timer.C:
				return nil
			}
		},
	}
}

// Lookup resolves a zip code to a location. A zip the service cannot
// resolve yields (nil, nil); the caller skips it. Fresh lookups respect
// a politeness delay toward the free service.
func (r *Resolver) Lookup(ctx context.Context, zip string, region domain.Region) (*domain.Location, error) {
	key := domain.Location{Zip: zip, Region: region}.CacheKey()
	if e, ok := r.cache.Get(key); ok {
		return &domain.Location{Zip: zip, Lat: e.Lat, Lng: e.Lng, Region: region, City: e.City}, nil
	}

	var results []nominatimResult
	backoff := retry.WithMaxRetries(2, retry.NewExponential(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		results, err = r.query(ctx, zip, region)
		if err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("geocode %s, %s: %w", zip, region, err)
	}

	if len(results) == 0 {
		return nil, nil
	}

	res := results[0]
	lat, latErr := strconv.ParseFloat(res.Lat, 64)
	lng, lngErr := strconv.ParseFloat(res.Lon, 64)
	if latErr != nil || lngErr != nil {
		return nil, fmt.Errorf("geocode %s, %s: bad coordinates %q/%q", zip, region, res.Lat, res.Lon)
	}

	city := cityFromDisplayName(res.DisplayName, zip)
	r.cache.Put(key, Entry{Lat: lat, Lng: lng, City: city})

	if err := r.sleep(ctx, r.cfg.Delay); err != nil {
		return nil, err
	}

	return &domain.Location{Zip: zip, Lat: lat, Lng: lng, Region: region, City: city}, nil
}

// PersistCache flushes the underlying cache to disk.
func (r *Resolver) PersistCache() error {
	return r.cache.Persist()
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (r *Resolver) query(ctx context.Context, zip string, region domain.Region) ([]nominatimResult, error) {
	params := url.Values{}
	params.Set("q", fmt.Sprintf("%s, %s, USA", zip, region))
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		r.cfg.URL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.cfg.UserAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("geocode http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("parse geocode response: %w", err)
	}
	return results, nil
}

// cityFromDisplayName pulls the city out of a comma-separated display
// name, skipping a leading component that is just the zip itself.
func cityFromDisplayName(displayName, zip string) string {
	parts := strings.Split(displayName, ", ")
	if len(parts) < 2 {
		return ""
	}
	if parts[1] != zip {
		return parts[1]
	}
	if len(parts) > 2 {
		return parts[2]
	}
	return ""
}
