package models

import (
	"time"

	"github.com/google/uuid"
)

// StagedTaskSource represents where a staged candidate came from
type StagedTaskSource string

const (
	SourceVoice        StagedTaskSource = "voice"
	SourceAIChat       StagedTaskSource = "ai_chat"
	SourceManual       StagedTaskSource = "manual"
	SourceImport       StagedTaskSource = "import"
	SourceCalendarSync StagedTaskSource = "calendar_sync"
)

// IsValid reports whether s is one of the known sources
func (s StagedTaskSource) IsValid() bool {
	switch s {
	case SourceVoice, SourceAIChat, SourceManual, SourceImport, SourceCalendarSync:
		return true
	default:
		return false
	}
}

// Category is the detected life area of a staged task
type Category string

const (
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
	CategoryHealth   Category = "health"
	CategoryLearning Category = "learning"
	CategoryAdmin    Category = "admin"
	CategoryCreative Category = "creative"
	CategoryUrgent   Category = "urgent"
)

// ImprovementKind identifies the gap an improvement addresses
type ImprovementKind string

const (
	ImprovementSimilarTask    ImprovementKind = "similar_task"
	ImprovementDuration       ImprovementKind = "duration_estimate"
	ImprovementPriority       ImprovementKind = "priority_suggestion"
	ImprovementEnergy         ImprovementKind = "energy_level"
	ImprovementMissingContext ImprovementKind = "missing_context"
)

// Improvement is a suggested change to a staged task
type Improvement struct {
	Kind       ImprovementKind `json:"kind"`
	Message    string          `json:"message"`
	Suggestion *string         `json:"suggestion,omitempty"`
	AutoFix    bool            `json:"auto_fix"`
}

// StagedTask is a candidate task held for review before it is committed to a board.
// Suggested* fields and PredictedDuration are advisory and never replace explicit input.
type StagedTask struct {
	ID             uuid.UUID       `json:"id"`
	Title          string          `json:"title"`
	Summary        *string         `json:"summary,omitempty"`
	Priority       Priority        `json:"priority,omitempty"`
	Energy         EnergyLevel     `json:"energy,omitempty"`
	EstimateMin    *int            `json:"estimate_min,omitempty"`
	DueAt          *time.Time      `json:"due_at,omitempty"`
	Labels         []string        `json:"labels,omitempty"`
	IsRepeatable   bool            `json:"is_repeatable"`
	RecurrenceRule *RecurrenceRule `json:"recurrence_rule,omitempty"`

	Source                StagedTaskSource `json:"source"`
	Confidence            float64          `json:"confidence"`
	StagedAt              time.Time        `json:"staged_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
	EnhancedAt            *time.Time       `json:"enhanced_at,omitempty"`
	Processed             bool             `json:"processed"`
	SuggestedImprovements []Improvement    `json:"suggested_improvements"`
	DetectedCategory      Category         `json:"detected_category"`
	DuplicateOf           *uuid.UUID       `json:"duplicate_of,omitempty"`
	RelatedTasks          []uuid.UUID      `json:"related_tasks,omitempty"`

	SuggestedEnergy   EnergyLevel `json:"suggested_energy,omitempty"`
	SuggestedPriority Priority    `json:"suggested_priority,omitempty"`
	SuggestedDueDate  *time.Time  `json:"suggested_due_date,omitempty"`
	PredictedDuration *int        `json:"predicted_duration,omitempty"`
	SuggestedLabels   []string    `json:"suggested_labels,omitempty"`
}

// Clone returns a deep copy so callers cannot mutate repository state
func (t *StagedTask) Clone() *StagedTask {
	if t == nil {
		return nil
	}
	c := *t
	c.Summary = cloneString(t.Summary)
	c.EstimateMin = cloneInt(t.EstimateMin)
	c.DueAt = cloneTime(t.DueAt)
	c.Labels = cloneStrings(t.Labels)
	c.RecurrenceRule = t.RecurrenceRule.Clone()
	c.EnhancedAt = cloneTime(t.EnhancedAt)
	c.SuggestedImprovements = append([]Improvement(nil), t.SuggestedImprovements...)
	if t.DuplicateOf != nil {
		id := *t.DuplicateOf
		c.DuplicateOf = &id
	}
	c.RelatedTasks = append([]uuid.UUID(nil), t.RelatedTasks...)
	c.SuggestedDueDate = cloneTime(t.SuggestedDueDate)
	c.PredictedDuration = cloneInt(t.PredictedDuration)
	c.SuggestedLabels = cloneStrings(t.SuggestedLabels)
	return &c
}

// HasImprovement reports whether an improvement of the given kind is attached
func (t *StagedTask) HasImprovement(kind ImprovementKind) bool {
	for _, imp := range t.SuggestedImprovements {
		if imp.Kind == kind {
			return true
		}
	}
	return false
}

// StagedTaskInput is the untrusted candidate shape produced by voice, AI, import and manual entry.
// Every field except Title is optional.
type StagedTaskInput struct {
	Title          string           `json:"title"`
	Summary        *string          `json:"summary,omitempty" validate:"omitempty,max=10000"`
	Priority       Priority         `json:"priority,omitempty" validate:"omitempty,priority"`
	Energy         EnergyLevel      `json:"energy,omitempty" validate:"omitempty,energy"`
	EstimateMin    *int             `json:"estimate_min,omitempty" validate:"omitempty,min=1"`
	DueAt          *time.Time       `json:"due_at,omitempty"`
	Labels         []string         `json:"labels,omitempty" validate:"omitempty,dive,max=64"`
	IsRepeatable   bool             `json:"is_repeatable"`
	RecurrenceRule *RecurrenceRule  `json:"recurrence_rule,omitempty"`
	Source         StagedTaskSource `json:"source,omitempty" validate:"omitempty,staging_source"`
	Confidence     *float64         `json:"confidence,omitempty" validate:"omitempty,min=0,max=1"`
}

// StagedTaskPatch lists the explicit fields a caller may change on a staged task.
// Nil fields are left untouched. Advisory fields are not patchable.
type StagedTaskPatch struct {
	Title          *string         `json:"title,omitempty"`
	Summary        *string         `json:"summary,omitempty"`
	Priority       *Priority       `json:"priority,omitempty" validate:"omitempty,priority"`
	Energy         *EnergyLevel    `json:"energy,omitempty" validate:"omitempty,energy"`
	EstimateMin    *int            `json:"estimate_min,omitempty" validate:"omitempty,min=1"`
	DueAt          *time.Time      `json:"due_at,omitempty"`
	Labels         *[]string       `json:"labels,omitempty"`
	AddLabels      []string        `json:"add_labels,omitempty" validate:"omitempty,dive,max=64"`
	RemoveLabels   []string        `json:"remove_labels,omitempty" validate:"omitempty,dive,max=64"`
	IsRepeatable   *bool           `json:"is_repeatable,omitempty"`
	RecurrenceRule *RecurrenceRule `json:"recurrence_rule,omitempty"`
	Confidence     *float64        `json:"confidence,omitempty" validate:"omitempty,min=0,max=1"`
}

// StagingStats aggregates the current staging collection
type StagingStats struct {
	Total             int                      `json:"total"`
	HighConfidence    int                      `json:"high_confidence"`
	NeedsReview       int                      `json:"needs_review"`
	Duplicates        int                      `json:"duplicates"`
	BySource          map[StagedTaskSource]int `json:"by_source"`
	AverageConfidence float64                  `json:"average_confidence"`
}

// Clone returns a deep copy of the rule
func (r *RecurrenceRule) Clone() *RecurrenceRule {
	if r == nil {
		return nil
	}
	c := *r
	c.DaysOfWeek = append([]int(nil), r.DaysOfWeek...)
	c.Count = cloneInt(r.Count)
	c.EndDate = cloneTime(r.EndDate)
	return &c
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

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}
