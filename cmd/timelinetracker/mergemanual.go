package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"TimelineTracker/internal/infrastructure/storage"
	"TimelineTracker/internal/merge"
)

var mergeManualOutput string

var mergeManualCmd = &cobra.Command{
	Use:   "merge-manual-edits <table.tsv> <corrections.tsv>",
	Short: "Overlay manually curated corrections onto the pipeline table",
	Long: `Corrections use the same TSV columns as the output table, keyed by
handle. Any value a correction row states wins over the pipeline value;
fields left as N/A keep the pipeline value. Correction rows with no
matching handle are appended.`,
	Args: cobra.ExactArgs(2),
	RunE: runMergeManual,
}

func init() {
	rootCmd.AddCommand(mergeManualCmd)
	mergeManualCmd.Flags().StringVarP(&mergeManualOutput, "output", "o", "", "Output table (default: overwrite the input table)")
}

func runMergeManual(cmd *cobra.Command, args []string) error {
	tablePath, correctionsPath := args[0], args[1]
	output := mergeManualOutput
	if output == "" {
		output = tablePath
	}

	store := storage.NewTableStore()
	rows, err := store.Load(tablePath)
	if err != nil {
		return err
	}
	corrections, err := store.Load(correctionsPath)
	if err != nil {
		return err
	}

	merged, overridden := merge.ApplyManual(rows, corrections)
	if err := store.Save(output, merged); err != nil {
		return err
	}

	fmt.Printf("Merged %d correction(s) into %s (%d rows)\n", overridden, output, len(merged))
	return nil
}
