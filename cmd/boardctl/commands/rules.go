package commands

import (
	"fmt"

	"github.com/benvon/focus-board/internal/enhance"
	"github.com/spf13/cobra"
)

// NewRulesCmd creates the rules command
func NewRulesCmd() *cobra.Command {
	var (
		file    string
		preview string
	)

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Print the effective enhancement rule table",
		Long:  "Print the keyword rule table used to infer category, priority, energy and duration. With --file the table is loaded and validated first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			rules := enhance.DefaultRules()
			if file != "" {
				var err error
				if rules, err = enhance.LoadRuleTable(file); err != nil {
					return err
				}
			}
			out := cmd.OutOrStdout()

			if preview != "" {
				engine := enhance.NewEngine(rules)
				category := engine.Categorize(preview)
				fmt.Fprintf(out, "category: %s\n", category)
				fmt.Fprintf(out, "priority: %s\n", engine.PredictPriority(preview))
				fmt.Fprintf(out, "energy:   %s\n", engine.PredictEnergy(preview))
				fmt.Fprintf(out, "duration: %d min\n", engine.PredictDuration(preview))
				fmt.Fprintf(out, "labels:   %v\n", engine.GenerateLabels(preview, nil, category))
				return nil
			}

			data, err := rules.Marshal()
			if err != nil {
				return fmt.Errorf("failed to encode rule table: %w", err)
			}
			_, err = out.Write(data)
			return err
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "YAML rule table to load instead of the built-in one")
	cmd.Flags().StringVar(&preview, "preview", "", "Show what the rules infer for this title")

	return cmd
}
