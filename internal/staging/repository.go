// Package staging holds candidate tasks for review before they are committed to a board.
//
// AddToStaging returns the unenhanced record. Enhancement runs once per item, either
// inline or through an EnhanceScheduler, and is observable through Enhance or Get.
package staging

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/benvon/focus-board/internal/logger"
	"github.com/benvon/focus-board/internal/metrics"
	"github.com/benvon/focus-board/internal/models"
	"github.com/benvon/focus-board/internal/similarity"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxItems caps the staging collection; the oldest items are dropped first
const DefaultMaxItems = 100

// ErrNotFound is returned when a staged task id is unknown
var ErrNotFound = errors.New("staged task not found")

// Config tunes a Repository
type Config struct {
	MaxItems           int
	DuplicateDetection bool
	DuplicateThreshold float64
	AutoEnhance        bool
}

// DefaultConfig returns the default staging behaviour
func DefaultConfig() Config {
	return Config{
		MaxItems:           DefaultMaxItems,
		DuplicateDetection: true,
		DuplicateThreshold: similarity.DefaultThreshold,
		AutoEnhance:        true,
	}
}

// BoardClient commits resolved tasks to a board
type BoardClient interface {
	CreateTask(ctx context.Context, boardID uuid.UUID, input models.TaskInput) (*models.Task, error)
}

// Enhancer infers advisory fields for a staged task
type Enhancer interface {
	Enhance(task *models.StagedTask)
	Categorize(text string) models.Category
}

// EnhanceScheduler defers enhancement of a freshly staged task
type EnhanceScheduler interface {
	ScheduleEnhance(ctx context.Context, id uuid.UUID) error
}

// Repository is the staging collection. All methods are safe for concurrent use.
type Repository struct {
	mu    sync.Mutex
	items []*models.StagedTask // insertion order, oldest first

	inFlight map[uuid.UUID]struct{} // ids whose board commit is in progress

	cfg        Config
	board      BoardClient
	enhancer   Enhancer
	scheduler  EnhanceScheduler
	similarity similarity.Func
	now        func() time.Time
	logger     *zap.Logger
}

// NewRepository creates an empty staging repository
func NewRepository(cfg Config, board BoardClient, enhancer Enhancer, log *zap.Logger) *Repository {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = DefaultMaxItems
	}
	if cfg.DuplicateThreshold <= 0 {
		cfg.DuplicateThreshold = similarity.DefaultThreshold
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Repository{
		inFlight:   make(map[uuid.UUID]struct{}),
		cfg:        cfg,
		board:      board,
		enhancer:   enhancer,
		similarity: similarity.Similarity,
		now:        time.Now,
		logger:     log,
	}
}

// SetClock replaces the time source
func (r *Repository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

// SetSimilarity replaces the title scorer used for duplicate detection
func (r *Repository) SetSimilarity(fn similarity.Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.similarity = fn
}

// SetScheduler routes auto-enhancement through s instead of running it inline
func (r *Repository) SetScheduler(s EnhanceScheduler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scheduler = s
}

// AddToStaging inserts a candidate and returns the stored record before enhancement.
// A blank title is logged and dropped; the result is then nil.
func (r *Repository) AddToStaging(ctx context.Context, input models.StagedTaskInput) *models.StagedTask {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		metrics.StagingRejectedTotal.WithLabelValues("blank_title").Inc()
		r.logger.Warn("staged_task_rejected",
			zap.String("reason", "blank_title"),
			zap.String("source", string(input.Source)),
		)
		return nil
	}

	r.mu.Lock()
	task := r.newStagedTask(input)
	if r.cfg.DuplicateDetection {
		r.markDuplicates(task)
	}
	if r.enhancer != nil {
		task.DetectedCategory = r.enhancer.Categorize(taskText(task))
	}
	r.items = append(r.items, task)
	dropped := r.enforceCap()
	size := len(r.items)
	result := task.Clone()
	scheduler := r.scheduler
	autoEnhance := r.cfg.AutoEnhance && r.enhancer != nil
	r.mu.Unlock()

	metrics.StagedTasksTotal.WithLabelValues(string(result.Source)).Inc()
	metrics.StagingSize.Set(float64(size))
	for _, id := range dropped {
		metrics.StagingRejectedTotal.WithLabelValues("capacity").Inc()
		r.logger.Info("staged_task_evicted", zap.String("staged_task_id", id.String()))
	}
	r.logger.Info("staged_task_added",
		zap.String("staged_task_id", result.ID.String()),
		zap.String("title", logger.SanitizeString(result.Title, logger.MaxGeneralStringLength)),
		zap.String("source", string(result.Source)),
		zap.Float64("confidence", result.Confidence),
		zap.Bool("duplicate", result.DuplicateOf != nil),
	)

	if autoEnhance {
		r.scheduleEnhance(ctx, scheduler, result.ID)
	}
	return result
}

func (r *Repository) scheduleEnhance(ctx context.Context, scheduler EnhanceScheduler, id uuid.UUID) {
	if scheduler != nil {
		err := scheduler.ScheduleEnhance(ctx, id)
		if err == nil {
			return
		}
		r.logger.Warn("enhance_schedule_failed_running_inline",
			zap.String("staged_task_id", id.String()),
			zap.String("error", logger.SanitizeError(err)),
		)
	}
	if _, err := r.Enhance(id); err != nil && !errors.Is(err, ErrNotFound) {
		r.logger.Error("enhance_failed", zap.String("staged_task_id", id.String()), zap.Error(err))
	}
}

// Enhance runs the enhancer on a staged task once. Later calls return the stored record unchanged.
func (r *Repository) Enhance(id uuid.UUID) (*models.StagedTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task := r.find(id)
	if task == nil {
		return nil, ErrNotFound
	}
	if task.EnhancedAt != nil || r.enhancer == nil {
		return task.Clone(), nil
	}

	r.enhancer.Enhance(task)
	now := r.now()
	task.EnhancedAt = &now
	metrics.EnhancementsTotal.Inc()
	r.logger.Debug("staged_task_enhanced",
		zap.String("staged_task_id", id.String()),
		zap.Int("improvements", len(task.SuggestedImprovements)),
	)
	return task.Clone(), nil
}

// UpdateStagedTask applies the explicit fields of patch and refreshes UpdatedAt
func (r *Repository) UpdateStagedTask(id uuid.UUID, patch models.StagedTaskPatch) (*models.StagedTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task := r.find(id)
	if task == nil {
		return nil, ErrNotFound
	}
	applyPatch(task, patch)
	task.UpdatedAt = r.now()
	return task.Clone(), nil
}

// ApplyAutoFixes copies advisory values into explicit fields that are still unset
// and drops the improvements they resolve.
func (r *Repository) ApplyAutoFixes(id uuid.UUID) (*models.StagedTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task := r.find(id)
	if task == nil {
		return nil, ErrNotFound
	}

	kept := task.SuggestedImprovements[:0]
	for _, imp := range task.SuggestedImprovements {
		if imp.AutoFix && applyFix(task, imp.Kind) {
			continue
		}
		kept = append(kept, imp)
	}
	task.SuggestedImprovements = kept
	task.UpdatedAt = r.now()
	return task.Clone(), nil
}

// RemoveFromStaging deletes a staged task. Unknown ids are ignored.
func (r *Repository) RemoveFromStaging(id uuid.UUID) {
	r.mu.Lock()
	removed := r.remove(id)
	size := len(r.items)
	r.mu.Unlock()

	if removed {
		metrics.StagingSize.Set(float64(size))
		r.logger.Info("staged_task_removed", zap.String("staged_task_id", id.String()))
	}
}

// Get returns a copy of one staged task
func (r *Repository) Get(id uuid.UUID) (*models.StagedTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task := r.find(id)
	if task == nil {
		return nil, ErrNotFound
	}
	return task.Clone(), nil
}

// List returns copies of every staged task, oldest first
func (r *Repository) List() []*models.StagedTask {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneAll(r.items)
}

// Snapshot returns the collection for persistence, oldest first
func (r *Repository) Snapshot() []*models.StagedTask {
	return r.List()
}

// Restore replaces the collection with tasks. Nil and processed records are skipped,
// later duplicates of an id are ignored and the cap is applied.
func (r *Repository) Restore(tasks []*models.StagedTask) {
	r.mu.Lock()
	seen := make(map[uuid.UUID]bool, len(tasks))
	items := make([]*models.StagedTask, 0, len(tasks))
	for _, t := range tasks {
		if t == nil || t.Processed || seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		items = append(items, t.Clone())
	}
	r.items = items
	r.enforceCap()
	size := len(r.items)
	r.mu.Unlock()

	metrics.StagingSize.Set(float64(size))
	r.logger.Info("staging_restored", zap.Int("count", size))
}

func (r *Repository) newStagedTask(input models.StagedTaskInput) *models.StagedTask {
	now := r.now()
	source := input.Source
	if source == "" {
		source = models.SourceManual
	}

	task := &models.StagedTask{
		ID:             uuid.New(),
		Title:          strings.TrimSpace(input.Title),
		Summary:        cloneString(input.Summary),
		Priority:       input.Priority,
		Energy:         input.Energy,
		EstimateMin:    cloneInt(input.EstimateMin),
		DueAt:          cloneTime(input.DueAt),
		Labels:         models.MergeLabels(input.Labels, nil),
		IsRepeatable:   input.IsRepeatable,
		RecurrenceRule: input.RecurrenceRule.Clone(),
		Source:         source,
		Confidence:     resolveConfidence(input.Confidence, source),
		StagedAt:       now,
		UpdatedAt:      now,
	}
	if len(task.Labels) == 0 {
		task.Labels = nil
	}
	return task
}

// markDuplicates must be called with the lock held, before task is inserted
func (r *Repository) markDuplicates(task *models.StagedTask) {
	matches := similarity.FindDuplicates(task.ID, task.Title, r.items, r.cfg.DuplicateThreshold, r.similarity)
	if len(matches) == 0 {
		return
	}

	original := matches[0]
	task.DuplicateOf = &original
	task.RelatedTasks = matches
	task.SuggestedImprovements = append(task.SuggestedImprovements, models.Improvement{
		Kind:       models.ImprovementSimilarTask,
		Message:    "A similar task is already staged",
		Suggestion: strPtr(original.String()),
		AutoFix:    false,
	})
	metrics.DuplicatesDetectedTotal.Inc()
}

// enforceCap drops the oldest items beyond MaxItems and returns their ids
func (r *Repository) enforceCap() []uuid.UUID {
	excess := len(r.items) - r.cfg.MaxItems
	if excess <= 0 {
		return nil
	}
	dropped := make([]uuid.UUID, 0, excess)
	for _, t := range r.items[:excess] {
		dropped = append(dropped, t.ID)
	}
	r.items = append([]*models.StagedTask(nil), r.items[excess:]...)
	return dropped
}

func (r *Repository) find(id uuid.UUID) *models.StagedTask {
	if i := r.indexOf(id); i >= 0 {
		return r.items[i]
	}
	return nil
}

func (r *Repository) indexOf(id uuid.UUID) int {
	for i, t := range r.items {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (r *Repository) remove(id uuid.UUID) bool {
	i := r.indexOf(id)
	if i < 0 {
		return false
	}
	r.items = append(r.items[:i], r.items[i+1:]...)
	return true
}

func cloneAll(items []*models.StagedTask) []*models.StagedTask {
	out := make([]*models.StagedTask, 0, len(items))
	for _, t := range items {
		out = append(out, t.Clone())
	}
	return out
}

func taskText(task *models.StagedTask) string {
	text := task.Title
	if task.Summary != nil {
		text += " " + *task.Summary
	}
	return strings.ToLower(text)
}

func strPtr(s string) *string {
	return &s
}
