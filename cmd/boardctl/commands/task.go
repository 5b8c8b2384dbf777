package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/benvon/focus-board/internal/database"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// NewTaskCmd creates the task command
func NewTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Inspect or remove committed board tasks",
	}
	cmd.AddCommand(newTaskShowCmd())
	cmd.AddCommand(newTaskDeleteCmd())
	return cmd
}

func parseTaskID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid task id: %w", err)
	}
	return id, nil
}

func newTaskShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Print a committed task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
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

			task, err := database.NewTaskRepository(db).GetTask(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get task: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Task:     %s\n", task.ID)
			fmt.Fprintf(out, "Board:    %s\n", task.BoardID)
			fmt.Fprintf(out, "Title:    %s\n", task.Title)
			fmt.Fprintf(out, "Priority: %s\n", task.Priority)
			if task.DueAt != nil {
				fmt.Fprintf(out, "Due:      %s\n", task.DueAt.Format(time.RFC3339))
			}
			if task.IsRepeatable && task.RecurrenceRule != nil {
				fmt.Fprintf(out, "Repeats:  %s every %d\n", task.RecurrenceRule.Pattern, task.RecurrenceRule.EffectiveInterval())
			}
			return nil
		},
	}
}

func newTaskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a committed task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTaskID(args[0])
			if err != nil {
				return err
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

			if err := database.NewTaskRepository(db).DeleteTask(ctx, id); err != nil {
				return fmt.Errorf("failed to delete task: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", id)
			return nil
		},
	}
}
