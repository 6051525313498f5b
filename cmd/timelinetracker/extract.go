package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"TimelineTracker/internal/app"
	"TimelineTracker/internal/config"
	"TimelineTracker/internal/logging"
)

var (
	extractCachePath string
	extractModel     string
	extractDelay     float64
)

var extractCmd = &cobra.Command{
	Use:   "extract <snapshot.json> <table.tsv>",
	Short: "Extract timeline records from a snapshot and merge them into the table",
	Long: `Extract runs the cache-gated pipeline: each comment in the snapshot is
looked up in the extraction cache and only new or edited comments trigger a
model call. Results are merged into the existing table; deleted source
comments keep their previously extracted contributions.`,
	Args: cobra.ExactArgs(2),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVar(&extractCachePath, "cache", "extraction_cache.json", "Extraction cache file")
	extractCmd.Flags().StringVar(&extractModel, "model", "", "Model name (overrides config and OPENAI_MODEL)")
	extractCmd.Flags().Float64Var(&extractDelay, "delay", 0, "Rate-limit delay between model calls in seconds")
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if extractModel != "" {
		cfg.OpenAI.Model = extractModel
	}
	if extractDelay > 0 {
		cfg.OpenAI.RateLimitDelaySec = extractDelay
	}

	logger := logging.New(cfg.Logging.Level)

	summary, err := app.New(cfg, logger).Run(cmd.Context(), app.RunRequest{
		SnapshotPath: args[0],
		TablePath:    args[1],
		CachePath:    extractCachePath,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Run %s finished:\n", summary.RunID)
	fmt.Printf("  rows created:        %d\n", summary.RowsCreated)
	fmt.Printf("  rows updated:        %d\n", summary.RowsUpdated)
	fmt.Printf("  cache hits:          %d\n", summary.CacheHits)
	fmt.Printf("  model calls:         %d\n", summary.ExtractionsRun)
	fmt.Printf("  extraction failures: %d\n", summary.ExtractionFailures)
	fmt.Printf("  non-timeline:        %d\n", summary.NonTimeline)
	fmt.Printf("  skipped deleted:     %d\n", summary.SkippedDeleted)
	fmt.Printf("  ambiguous merges:    %d\n", len(summary.Ambiguous))
	for _, a := range summary.Ambiguous {
		fmt.Printf("    comment %s: handle %q matches %d rows\n", a.CommentID, a.Handle, a.Rows)
	}
	return nil
}
