package commands

import (
	"fmt"
	"time"

	"github.com/benvon/focus-board/internal/models"
	"github.com/benvon/focus-board/internal/recurrence"
	"github.com/spf13/cobra"
)

// NewOccurrencesCmd creates the occurrences command
func NewOccurrencesCmd() *cobra.Command {
	var (
		pattern  string
		interval int
		days     []int
		count    int
		base     string
		end      string
		from     string
		to       string
	)

	cmd := &cobra.Command{
		Use:   "occurrences",
		Short: "Expand a recurrence rule",
		Long:  "Print the dates a recurrence rule produces inside a window, without touching any board",
		Example: `  boardctl occurrences --pattern weekly --days 1,3,5 --base 2024-01-01 --to 2024-01-14
  boardctl occurrences --pattern daily --count 3 --base 2024-01-01T09:00:00Z --to 2024-02-01`,
		RunE: func(cmd *cobra.Command, args []string) error {
			baseDate, err := parseDate("base", base)
			if err != nil {
				return err
			}
			windowStart := baseDate
			if from != "" {
				if windowStart, err = parseDate("from", from); err != nil {
					return err
				}
			}
			windowEnd, err := parseDate("to", to)
			if err != nil {
				return err
			}
			if windowEnd.Before(windowStart) {
				return fmt.Errorf("--to must not be before the window start")
			}

			rule := models.RecurrenceRule{
				Pattern:    models.RecurrencePattern(pattern),
				Interval:   interval,
				DaysOfWeek: days,
			}
			if cmd.Flags().Changed("count") {
				rule.Count = &count
			}
			if end != "" {
				endDate, err := parseDate("end", end)
				if err != nil {
					return err
				}
				rule.EndDate = &endDate
			}
			if err := recurrence.Validate(rule); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			dates := recurrence.GenerateOccurrences(baseDate, rule, windowStart, windowEnd)
			for _, d := range dates {
				fmt.Fprintf(out, "%s  %s\n", d.Format(time.RFC3339), d.Weekday())
			}
			fmt.Fprintf(out, "%d occurrence(s)\n", len(dates))
			return nil
		},
	}

	cmd.Flags().StringVar(&pattern, "pattern", string(models.RecurrenceDaily), "Recurrence pattern: daily, weekly, monthly or custom")
	cmd.Flags().IntVar(&interval, "interval", 1, "Step multiplier")
	cmd.Flags().IntSliceVar(&days, "days", nil, "Weekdays for weekly rules (0=Sunday)")
	cmd.Flags().IntVar(&count, "count", 0, "Stop after this many occurrences")
	cmd.Flags().StringVar(&base, "base", "", "First due date")
	cmd.Flags().StringVar(&end, "end", "", "Last date an occurrence may fall on")
	cmd.Flags().StringVar(&from, "from", "", "Window start (defaults to --base)")
	cmd.Flags().StringVar(&to, "to", "", "Window end")
	_ = cmd.MarkFlagRequired("base")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}
