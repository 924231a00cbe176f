package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/rxmeter/collector/internal/collect"
	"github.com/rxmeter/collector/internal/core/config"
	"github.com/rxmeter/collector/internal/core/domain"
	"github.com/rxmeter/collector/internal/core/partition"
)

var (
	cfgPath     string
	isDebug     bool
	testMode    bool
	regionCodes []string
	batchIndex  int
	batchCount  int
	catalogPath string
)

var rootCmd = &cobra.Command{
	Use:   "collector",
	Short: "Drug pricing collection engine",
	Long:  `Collector gathers pharmacy-level drug pricing from the care API across a drug catalog and regional zip code lists, with checkpointed resume.`,
	Run:   runCollect,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&testMode, "test", false, "test mode: small drug and zip subsets")
	rootCmd.PersistentFlags().StringSliceVar(&regionCodes, "regions", nil, "region codes to collect (default all configured)")
	rootCmd.PersistentFlags().IntVar(&batchIndex, "batch", 0, "1-based batch index (requires --batch-count)")
	rootCmd.PersistentFlags().IntVar(&batchCount, "batch-count", 0, "total number of batches (requires --batch)")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "", "override the catalog CSV path")

	rootCmd.AddCommand(preprocessCmd)
	rootCmd.AddCommand(statusCmd)
}

// setup loads the environment and configuration and initializes
// logging. Called at the top of every command.
func setup() *config.AppConfig {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	slogLevel := slog.LevelInfo
	if isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}
	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})

	return cfg
}

// runOptions translates the command flags into workload options.
func runOptions() (collect.Options, error) {
	opts := collect.Options{
		TestMode:    testMode,
		CatalogPath: catalogPath,
	}
	for _, code := range regionCodes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code != "" {
			opts.Regions = append(opts.Regions, domain.Region(code))
		}
	}

	if (batchIndex == 0) != (batchCount == 0) {
		return opts, fmt.Errorf("--batch and --batch-count must be given together")
	}
	if batchIndex > 0 {
		b := partition.Batch{Index: batchIndex, Count: batchCount}
		if err := b.Validate(); err != nil {
			return opts, err
		}
		opts.Batch = &b
	}
	return opts, nil
}
