package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "timelinetracker",
	Short: "Track UK naturalisation application timelines from a discussion thread",
	Long: `timelinetracker ingests community-reported timeline comments from a public
discussion thread, extracts structured application-progress records with a
language model, and maintains a deduplicated, update-aware TSV table of
those records across repeated runs.

Typical workflow:

  # Snapshot the thread
  timelinetracker fetch https://www.reddit.com/r/ukvisa/comments/.../ -o raw.json

  # Extract and merge into the table (cache-gated model calls)
  timelinetracker extract raw.json processing_timelines.tsv

  # Overlay manually curated corrections
  timelinetracker merge-manual-edits processing_timelines.tsv corrections.tsv`,
	SilenceUsage: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
