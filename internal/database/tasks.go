package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/focus-board/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	// ErrBoardNotFound is returned when a board id is unknown
	ErrBoardNotFound = errors.New("board not found")
	// ErrTaskNotFound is returned when a task id is unknown
	ErrTaskNotFound = errors.New("task not found")
)

const taskColumns = `id, board_id, title, summary, priority, energy, estimate_min, due_at, labels,
	is_repeatable, recurrence_rule, created_at, updated_at`

// TaskRepository handles board and task database operations
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// CreateBoard creates an empty board
func (r *TaskRepository) CreateBoard(ctx context.Context, name string) (*models.Board, error) {
	board := &models.Board{ID: uuid.New(), Name: name, Tasks: []*models.Task{}}
	query := `
		INSERT INTO boards (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		RETURNING created_at, updated_at
	`

	now := time.Now().UTC()
	if err := r.db.QueryRowContext(ctx, query, board.ID, board.Name, now).Scan(&board.CreatedAt, &board.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}
	return board, nil
}

// CreateTask inserts a task on a board
func (r *TaskRepository) CreateTask(ctx context.Context, boardID uuid.UUID, input models.TaskInput) (*models.Task, error) {
	ruleJSON, err := encodeRule(input.RecurrenceRule)
	if err != nil {
		return nil, err
	}

	labels := input.Labels
	if labels == nil {
		labels = []string{}
	}

	task := &models.Task{
		ID:             uuid.New(),
		BoardID:        boardID,
		Title:          input.Title,
		Summary:        input.Summary,
		Priority:       input.Priority,
		Energy:         input.Energy,
		EstimateMin:    input.EstimateMin,
		DueAt:          input.DueAt,
		Labels:         labels,
		IsRepeatable:   input.IsRepeatable,
		RecurrenceRule: input.RecurrenceRule,
	}

	query := `
		INSERT INTO tasks (id, board_id, title, summary, priority, energy, estimate_min, due_at, labels,
			is_repeatable, recurrence_rule, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		RETURNING created_at, updated_at
	`

	now := time.Now().UTC()
	err = r.db.QueryRowContext(ctx, query,
		task.ID,
		task.BoardID,
		task.Title,
		nullString(task.Summary),
		task.Priority,
		task.Energy,
		nullInt(task.EstimateMin),
		nullTime(task.DueAt),
		pq.Array(task.Labels),
		task.IsRepeatable,
		ruleJSON,
		now,
	).Scan(&task.CreatedAt, &task.UpdatedAt)

	if isForeignKeyViolation(err) {
		return nil, fmt.Errorf("failed to create task: %w", ErrBoardNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

// GetTask retrieves a task by ID
func (r *TaskRepository) GetTask(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// FetchBoard retrieves a board with its tasks, oldest first
func (r *TaskRepository) FetchBoard(ctx context.Context, boardID uuid.UUID) (*models.Board, error) {
	board := &models.Board{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, updated_at FROM boards WHERE id = $1`, boardID,
	).Scan(&board.ID, &board.Name, &board.CreatedAt, &board.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBoardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get board: %w", err)
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE board_id = $1 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	board.Tasks = []*models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		board.Tasks = append(board.Tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return board, nil
}

// DeleteTask deletes a task by ID
func (r *TaskRepository) DeleteTask(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	task := &models.Task{}
	var (
		summary     sql.NullString
		estimateMin sql.NullInt64
		dueAt       sql.NullTime
		labels      pq.StringArray
		ruleJSON    []byte
	)

	err := row.Scan(
		&task.ID,
		&task.BoardID,
		&task.Title,
		&summary,
		&task.Priority,
		&task.Energy,
		&estimateMin,
		&dueAt,
		&labels,
		&task.IsRepeatable,
		&ruleJSON,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if summary.Valid {
		task.Summary = &summary.String
	}
	if estimateMin.Valid {
		v := int(estimateMin.Int64)
		task.EstimateMin = &v
	}
	if dueAt.Valid {
		task.DueAt = &dueAt.Time
	}
	task.Labels = []string(labels)

	rule, err := decodeRule(ruleJSON)
	if err != nil {
		return nil, err
	}
	task.RecurrenceRule = rule

	return task, nil
}

func encodeRule(rule *models.RecurrenceRule) (sql.NullString, error) {
	if rule == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(rule)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal recurrence rule: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeRule(data []byte) (*models.RecurrenceRule, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var rule models.RecurrenceRule
	if err := json.Unmarshal(data, &rule); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recurrence rule: %w", err)
	}
	return &rule, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
