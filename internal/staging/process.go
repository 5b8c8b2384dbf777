package staging

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/benvon/focus-board/internal/logger"
	"github.com/benvon/focus-board/internal/metrics"
	"github.com/benvon/focus-board/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNoBoardClient is returned when a repository has no board to commit to
var ErrNoBoardClient = errors.New("no board client configured")

// ErrAlreadyProcessing is returned while another caller is committing the same staged task
var ErrAlreadyProcessing = errors.New("staged task is already being processed")

// BulkResult reports the outcome of BulkProcessTasks
type BulkResult struct {
	Processed int                  `json:"processed"`
	Failed    map[uuid.UUID]error  `json:"-"`
	Tasks     []*models.Task       `json:"tasks"`
	Errors    map[uuid.UUID]string `json:"errors,omitempty"`
}

// ProcessToBoard commits a staged task to a board and removes it from staging.
// The id is reserved for the duration of the board call, so a concurrent caller
// gets ErrAlreadyProcessing. On failure the reservation is released, the task
// stays staged and the error is returned; nothing is retried.
func (r *Repository) ProcessToBoard(ctx context.Context, id uuid.UUID, boardID uuid.UUID) (*models.Task, error) {
	if r.board == nil {
		return nil, ErrNoBoardClient
	}

	r.mu.Lock()
	staged := r.find(id)
	if staged == nil {
		r.mu.Unlock()
		return nil, ErrNotFound
	}
	if _, busy := r.inFlight[id]; busy {
		r.mu.Unlock()
		return nil, ErrAlreadyProcessing
	}
	r.inFlight[id] = struct{}{}
	input := resolveTaskInput(staged)
	r.mu.Unlock()

	task, err := r.board.CreateTask(ctx, boardID, input)
	metrics.RecordBoardCommit(err)
	if err != nil {
		r.mu.Lock()
		delete(r.inFlight, id)
		r.mu.Unlock()
		r.logger.Warn("staged_task_commit_failed",
			zap.String("staged_task_id", id.String()),
			zap.String("board_id", boardID.String()),
			zap.String("error", logger.SanitizeError(err)),
		)
		return nil, fmt.Errorf("failed to commit staged task %s: %w", id, err)
	}

	r.mu.Lock()
	delete(r.inFlight, id)
	if current := r.find(id); current != nil {
		current.Processed = true
		r.remove(id)
	}
	size := len(r.items)
	r.mu.Unlock()

	metrics.StagingSize.Set(float64(size))
	r.logger.Info("staged_task_committed",
		zap.String("staged_task_id", id.String()),
		zap.String("board_id", boardID.String()),
		zap.String("task_id", task.ID.String()),
	)
	return task, nil
}

// BulkProcessTasks commits ids one at a time, in order. A failure never stops the
// remaining ids; failed tasks stay staged.
func (r *Repository) BulkProcessTasks(ctx context.Context, ids []uuid.UUID, boardID uuid.UUID) BulkResult {
	result := BulkResult{
		Failed: make(map[uuid.UUID]error),
		Tasks:  make([]*models.Task, 0, len(ids)),
	}

	for _, id := range ids {
		task, err := r.ProcessToBoard(ctx, id, boardID)
		if err != nil {
			result.Failed[id] = err
			continue
		}
		result.Processed++
		result.Tasks = append(result.Tasks, task)
	}

	if len(result.Failed) > 0 {
		result.Errors = make(map[uuid.UUID]string, len(result.Failed))
		for id, err := range result.Failed {
			result.Errors[id] = err.Error()
		}
	}

	r.logger.Info("staging_bulk_processed",
		zap.String("board_id", boardID.String()),
		zap.Int("requested", len(ids)),
		zap.Int("processed", result.Processed),
		zap.Int("failed", len(result.Failed)),
	)
	return result
}

// resolveTaskInput prefers explicit fields and falls back to advisory ones
func resolveTaskInput(t *models.StagedTask) models.TaskInput {
	input := models.TaskInput{
		Title:          t.Title,
		Summary:        cloneString(t.Summary),
		Priority:       t.Priority,
		Energy:         t.Energy,
		EstimateMin:    cloneInt(t.EstimateMin),
		DueAt:          cloneTime(t.DueAt),
		Labels:         models.MergeLabels(t.Labels, t.SuggestedLabels),
		IsRepeatable:   t.IsRepeatable,
		RecurrenceRule: t.RecurrenceRule.Clone(),
	}
	if input.Priority == "" {
		input.Priority = t.SuggestedPriority
	}
	if input.Priority == "" {
		input.Priority = models.PriorityMedium
	}
	if input.Energy == "" {
		input.Energy = t.SuggestedEnergy
	}
	if input.Energy == "" {
		input.Energy = models.EnergyMedium
	}
	if input.EstimateMin == nil {
		input.EstimateMin = cloneInt(t.PredictedDuration)
	}
	if input.DueAt == nil {
		input.DueAt = cloneTime(t.SuggestedDueDate)
	}
	return input
}

func applyPatch(t *models.StagedTask, p models.StagedTaskPatch) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Summary != nil {
		t.Summary = cloneString(p.Summary)
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Energy != nil {
		t.Energy = *p.Energy
	}
	if p.EstimateMin != nil {
		t.EstimateMin = cloneInt(p.EstimateMin)
	}
	if p.DueAt != nil {
		t.DueAt = cloneTime(p.DueAt)
	}
	if p.Labels != nil {
		t.Labels = models.MergeLabels(*p.Labels, nil)
	}
	for _, label := range p.AddLabels {
		t.AddLabel(label)
	}
	for _, label := range p.RemoveLabels {
		t.RemoveLabel(label)
	}
	if p.IsRepeatable != nil {
		t.IsRepeatable = *p.IsRepeatable
	}
	if p.RecurrenceRule != nil {
		t.RecurrenceRule = p.RecurrenceRule.Clone()
	}
	if p.Confidence != nil {
		t.Confidence = clampConfidence(*p.Confidence)
	}
}

// applyFix copies the advisory value for kind into its explicit field.
// It reports false when there is nothing to copy.
func applyFix(t *models.StagedTask, kind models.ImprovementKind) bool {
	switch kind {
	case models.ImprovementDuration:
		if t.EstimateMin == nil && t.PredictedDuration != nil {
			t.EstimateMin = cloneInt(t.PredictedDuration)
			return true
		}
	case models.ImprovementPriority:
		if t.Priority == "" && t.SuggestedPriority != "" {
			t.Priority = t.SuggestedPriority
			return true
		}
	case models.ImprovementEnergy:
		if t.Energy == "" && t.SuggestedEnergy != "" {
			t.Energy = t.SuggestedEnergy
			return true
		}
	}
	return false
}

var defaultConfidence = map[models.StagedTaskSource]float64{
	models.SourceManual:       1.0,
	models.SourceImport:       0.9,
	models.SourceCalendarSync: 0.9,
	models.SourceAIChat:       0.7,
	models.SourceVoice:        0.6,
}

func resolveConfidence(c *float64, source models.StagedTaskSource) float64 {
	if c != nil {
		return clampConfidence(*c)
	}
	if v, ok := defaultConfidence[source]; ok {
		return v
	}
	return 0.5
}

func clampConfidence(c float64) float64 {
	switch {
	case math.IsNaN(c):
		return 0
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
