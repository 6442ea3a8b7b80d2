// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/impact-observatory/internal/checkpoint"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show checkpoint progress per category",
	Long: `Status reads the checkpoints of one annotation mode and prints a
progress table: documents attempted, succeeded, and failed per category,
and whether the category ran to completion.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().String("output-dir", "data/extracted", "root directory of annotation output")
	statusCmd.Flags().String("mode", "impact", "annotation mode: impact or contribution")
	statusCmd.Flags().Bool("json", false, "output progress as JSON")

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	outputDir, _ := cmd.Flags().GetString("output-dir")
	mode, _ := cmd.Flags().GetString("mode")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	store := checkpoint.NewStore(filepath.Join(outputDir, mode))
	summaries, err := store.Summaries()
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}

	if len(summaries) == 0 {
		fmt.Println("No progress recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-24s  %10s  %10s  %8s  %s\n",
		"Category", "Processed", "Succeeded", "Failed", "State")

	var processed, succeeded, failed int
	for _, s := range summaries {
		state := "in progress"
		if s.Completed {
			state = "completed"
		}
		fmt.Fprintf(os.Stdout, "%-24s  %10d  %10d  %8d  %s\n",
			s.Category, s.Processed, s.Succeeded, s.Failed, state)
		processed += s.Processed
		succeeded += s.Succeeded
		failed += s.Failed
	}

	fmt.Fprintf(os.Stdout, "\n%d categories: %d processed, %d succeeded, %d failed\n",
		len(summaries), processed, succeeded, failed)
	return nil
}
