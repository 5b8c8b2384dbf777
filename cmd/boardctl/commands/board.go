package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/benvon/focus-board/internal/config"
	"github.com/benvon/focus-board/internal/database"
	"github.com/benvon/focus-board/internal/recurrence"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// openDB loads configuration and connects to the board database
func openDB(ctx context.Context) (*database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func closeDB(db *database.DB) {
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
	}
}

// NewBoardCmd creates the board command
func NewBoardCmd() *cobra.Command {
	var (
		from string
		to   string
	)

	cmd := &cobra.Command{
		Use:   "board <board-id>",
		Short: "Show a board and its calendar",
		Long:  "Print a board's tasks and, when --to is given, every occurrence of its repeatable tasks in the window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			boardID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid board id: %w", err)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			db, err := openDB(ctx)
			if err != nil {
				return err
			}
			defer closeDB(db)

			board, err := database.NewTaskRepository(db).FetchBoard(ctx, boardID)
			if err != nil {
				return fmt.Errorf("failed to fetch board: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Board: %s (%s)\n", board.Name, board.ID)
			for _, task := range board.Tasks {
				marker := " "
				if task.IsRepeatable {
					marker = "*"
				}
				fmt.Fprintf(out, "  %s %s  %s\n", marker, task.ID, task.Title)
			}

			if to == "" {
				return nil
			}
			windowStart := time.Now().UTC()
			if from != "" {
				if windowStart, err = parseDate("from", from); err != nil {
					return err
				}
			}
			windowEnd, err := parseDate("to", to)
			if err != nil {
				return err
			}

			fmt.Fprintln(out, "\nOccurrences:")
			for _, occ := range recurrence.ExpandTasks(board.Tasks, windowStart, windowEnd) {
				fmt.Fprintf(out, "  %s  %s\n", occ.Date.Format(time.RFC3339), occ.Title)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Calendar window start (defaults to now)")
	cmd.Flags().StringVar(&to, "to", "", "Calendar window end")

	return cmd
}

// NewMigrateCmd creates the migrate command
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the board schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			db, err := openDB(ctx)
			if err != nil {
				return err
			}
			defer closeDB(db)

			if err := db.Migrate(ctx); err != nil {
				return fmt.Errorf("failed to migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
			return nil
		},
	}
}
