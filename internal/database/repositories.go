package database

import (
	"context"

	"github.com/benvon/focus-board/internal/models"
	"github.com/google/uuid"
)

// TaskRepositoryInterface defines the board operations used by the staging and calendar layers
// This interface enables better testability by allowing mock implementations
type TaskRepositoryInterface interface {
	CreateBoard(ctx context.Context, name string) (*models.Board, error)
	CreateTask(ctx context.Context, boardID uuid.UUID, input models.TaskInput) (*models.Task, error)
	FetchBoard(ctx context.Context, boardID uuid.UUID) (*models.Board, error)
}

// Ensure concrete types implement the interfaces
var (
	_ TaskRepositoryInterface = (*TaskRepository)(nil)
)
