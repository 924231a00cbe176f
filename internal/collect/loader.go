package collect

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/rxmeter/collector/internal/catalog"
	"github.com/rxmeter/collector/internal/core/config"
	"github.com/rxmeter/collector/internal/core/domain"
	"github.com/rxmeter/collector/internal/core/partition"
	"github.com/rxmeter/collector/internal/infra/geocode"
)

// Test mode trims the workload to a quick smoke-test subset.
const (
	testDrugLimit = 10
	testZipLimit  = 2
)

// Options selects the workload for one run invocation.
type Options struct {
	TestMode    bool
	Regions     []domain.Region
	Batch       *partition.Batch
	CatalogPath string
}

func (o Options) wantsRegion(code domain.Region) bool {
	if len(o.Regions) == 0 {
		return true
	}
	for _, r := range o.Regions {
		if r == code {
			return true
		}
	}
	return false
}

// LoadInputs resolves the catalog and the geocoded location list for a
// run. Batch partitioning applies per region, so all batches of a
// region together cover its zip list exactly once.
func LoadInputs(
	ctx context.Context,
	cfg *config.AppConfig,
	opts Options,
	resolver *geocode.Resolver,
	uuids catalog.UUIDSource,
) ([]domain.Drug, []domain.Location, error) {
	catalogPath := opts.CatalogPath
	if catalogPath == "" {
		catalogPath = cfg.Paths.Catalog
	}

	drugLimit := 0
	if opts.TestMode {
		drugLimit = testDrugLimit
	}
	drugs, err := catalog.LoadDrugs(catalogPath, uuids, drugLimit)
	if err != nil {
		return nil, nil, err
	}
	if len(drugs) == 0 {
		return nil, nil, fmt.Errorf("no collectible drugs in %s", catalogPath)
	}

	var locations []domain.Location
	for _, region := range cfg.Regions {
		if !opts.wantsRegion(region.Code) {
			continue
		}
		if _, err := os.Stat(region.ZipFile); err != nil {
			slog.Warn("Zip list not found, skipping region",
				"region", region.Code, "path", region.ZipFile)
			continue
		}

		zips, err := catalog.ReadZips(region.ZipFile, 0)
		if err != nil {
			return nil, nil, err
		}

		if opts.Batch != nil {
			zips, err = partition.Slice(zips, *opts.Batch)
			if err != nil {
				return nil, nil, err
			}
			slog.Info("Batch selected",
				"region", region.Code, "batch", opts.Batch.String(), "zips", len(zips))
		}
		if opts.TestMode && len(zips) > testZipLimit {
			zips = zips[:testZipLimit]
			slog.Info("Test mode: truncating zip list", "region", region.Code, "zips", len(zips))
		}

		for i, zip := range zips {
			if i > 0 && i%100 == 0 {
				slog.Info("Geocoding progress", "region", region.Code, "done", i, "total", len(zips))
				if err := resolver.PersistCache(); err != nil {
					slog.Warn("Could not persist location cache", "error", err)
				}
			}

			loc, err := resolver.Lookup(ctx, zip, region.Code)
			if err != nil {
				if ctx.Err() != nil {
					return nil, nil, ctx.Err()
				}
				slog.Warn("Could not geocode zip", "zip", zip, "region", region.Code, "error", err)
				continue
			}
			if loc == nil {
				slog.Warn("Zip not found by geocoder", "zip", zip, "region", region.Code)
				continue
			}
			if loc.City == "" {
				loc.City = fmt.Sprintf("%s_City", region.Code)
			}
			locations = append(locations, *loc)
		}

		if err := resolver.PersistCache(); err != nil {
			slog.Warn("Could not persist location cache", "error", err)
		}
		slog.Info("Region geocoding complete", "region", region.Code)
	}

	slog.Info("Inputs loaded", "drugs", len(drugs), "locations", len(locations))
	return drugs, locations, nil
}
