package main

import (
	"fmt"
	"os"

	"github.com/benvon/focus-board/cmd/boardctl/commands"
	"github.com/spf13/cobra"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "boardctl",
		Short: "Operator tool for Focus Board",
		Long:  "CLI tool for previewing recurrence rules, enhancement rules and duplicate scoring, and for inspecting boards",
	}

	rootCmd.AddCommand(commands.NewOccurrencesCmd())
	rootCmd.AddCommand(commands.NewRulesCmd())
	rootCmd.AddCommand(commands.NewSimilarityCmd())
	rootCmd.AddCommand(commands.NewBoardCmd())
	rootCmd.AddCommand(commands.NewTaskCmd())
	rootCmd.AddCommand(commands.NewMigrateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
