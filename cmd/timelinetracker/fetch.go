package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"TimelineTracker/internal/config"
	"TimelineTracker/internal/infrastructure/reddit"
	"TimelineTracker/internal/logging"
)

const defaultThreadURL = "https://www.reddit.com/r/ukvisa/comments/1hkp9zl/naturalisation_citizenship_application_processing/"

var fetchOutput string

var fetchCmd = &cobra.Command{
	Use:   "fetch [thread-url]",
	Short: "Fetch the thread and all top-level comments into a raw snapshot file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().StringVarP(&fetchOutput, "output", "o", "processing_timelines_raw_data.json", "Output JSON file")
}

func runFetch(cmd *cobra.Command, args []string) error {
	threadURL := defaultThreadURL
	if len(args) == 1 {
		threadURL = args[0]
	}

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	fetcher := reddit.NewFetcher(nil, cfg.Fetch, logger.With("component", "fetcher"))
	snap, err := fetcher.FetchThread(cmd.Context(), threadURL)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(snap, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(fetchOutput, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	fmt.Printf("Saved %d comments (%d edited) to %s\n",
		snap.Metadata.TotalComments, snap.Metadata.EditedComments, fetchOutput)
	return nil
}
