package commands

import (
	"fmt"

	"github.com/benvon/focus-board/internal/similarity"
	"github.com/spf13/cobra"
)

// NewSimilarityCmd creates the similarity command
func NewSimilarityCmd() *cobra.Command {
	var threshold float64

	cmd := &cobra.Command{
		Use:   "similarity <title> <title>",
		Short: "Score two titles for duplicate detection",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if threshold <= 0 || threshold > 1 {
				return fmt.Errorf("--threshold must be in (0, 1], got %v", threshold)
			}
			score := similarity.Similarity(args[0], args[1])
			fmt.Fprintf(cmd.OutOrStdout(), "score: %.3f\nduplicate: %t\n", score, score >= threshold)
			return nil
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", similarity.DefaultThreshold, "Score at or above which titles count as duplicates")

	return cmd
}
