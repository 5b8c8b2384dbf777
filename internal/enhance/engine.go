// Package enhance infers advisory fields for staged tasks from keyword heuristics.
//
// Every prediction reads the lower-cased concatenation of a task's title and summary.
// The heuristics come from a RuleTable, so they can be replaced without touching the engine.
package enhance

import (
	"fmt"
	"strings"

	"github.com/benvon/focus-board/internal/models"
)

// MinContextLength is the summary length below which a task is flagged as missing context
const MinContextLength = 20

// Engine applies a rule table to staged tasks. It holds no mutable state.
type Engine struct {
	rules *RuleTable
}

// NewEngine creates an engine over rules. A nil table selects DefaultRules.
func NewEngine(rules *RuleTable) *Engine {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Engine{rules: rules}
}

var defaultEngine = NewEngine(nil)

// Rules returns the table the engine evaluates
func (e *Engine) Rules() *RuleTable {
	return e.rules
}

// PredictDuration returns the estimated minutes for text using the default rules
func PredictDuration(text string) int { return defaultEngine.PredictDuration(text) }

// PredictPriority returns the inferred priority for text using the default rules
func PredictPriority(text string) models.Priority { return defaultEngine.PredictPriority(text) }

// PredictEnergy returns the inferred energy level for text using the default rules
func PredictEnergy(text string) models.EnergyLevel { return defaultEngine.PredictEnergy(text) }

// Categorize returns the detected category for text using the default rules
func Categorize(text string) models.Category { return defaultEngine.Categorize(text) }

// GenerateLabels returns suggested labels using the default rules
func GenerateLabels(title string, summary *string, category models.Category) []string {
	return defaultEngine.GenerateLabels(title, summary, category)
}

// PredictDuration returns the minutes of the first matching duration rule
func (e *Engine) PredictDuration(text string) int {
	text = strings.ToLower(text)
	for _, r := range e.rules.Duration {
		if (KeywordRule{Keywords: r.Keywords}).Matches(text) {
			return r.Minutes
		}
	}
	return e.rules.DefaultDuration
}

// PredictPriority returns the result of the first matching priority rule
func (e *Engine) PredictPriority(text string) models.Priority {
	return models.Priority(firstMatch(e.rules.Priority, strings.ToLower(text), e.rules.DefaultPriority))
}

// PredictEnergy returns the result of the first matching energy rule
func (e *Engine) PredictEnergy(text string) models.EnergyLevel {
	return models.EnergyLevel(firstMatch(e.rules.Energy, strings.ToLower(text), e.rules.DefaultEnergy))
}

// Categorize returns the first matching category. Rule order is significant.
func (e *Engine) Categorize(text string) models.Category {
	return models.Category(firstMatch(e.rules.Category, strings.ToLower(text), e.rules.DefaultCategory))
}

// GenerateLabels returns the category (unless personal) followed by every keyword label
// found in the title and summary, deduplicated in order of first appearance.
func (e *Engine) GenerateLabels(title string, summary *string, category models.Category) []string {
	text := taskText(title, summary)

	var labels []string
	if category != "" && category != models.CategoryPersonal {
		labels = append(labels, string(category))
	}
	for _, r := range e.rules.Labels {
		if r.Matches(text) {
			labels = models.MergeLabels(labels, []string{r.Result})
		}
	}
	return labels
}

// Enhance fills the advisory fields of task in place. Explicit fields are never written.
// An improvement kind already attached to the task is not attached again.
func (e *Engine) Enhance(task *models.StagedTask) {
	if task == nil {
		return
	}
	text := taskText(task.Title, task.Summary)

	if task.EstimateMin == nil {
		minutes := e.PredictDuration(text)
		task.PredictedDuration = &minutes
		addImprovement(task, models.Improvement{
			Kind:       models.ImprovementDuration,
			Message:    "No time estimate set",
			Suggestion: strPtr(fmt.Sprintf("%d minutes", minutes)),
			AutoFix:    true,
		})
	}

	if task.Priority == "" {
		priority := e.PredictPriority(text)
		task.SuggestedPriority = priority
		addImprovement(task, models.Improvement{
			Kind:       models.ImprovementPriority,
			Message:    "No priority set",
			Suggestion: strPtr(string(priority)),
			AutoFix:    true,
		})
	}

	if task.Energy == "" {
		energy := e.PredictEnergy(text)
		task.SuggestedEnergy = energy
		addImprovement(task, models.Improvement{
			Kind:       models.ImprovementEnergy,
			Message:    "No energy level set",
			Suggestion: strPtr(string(energy)),
			AutoFix:    true,
		})
	}

	if task.Summary == nil || len([]rune(strings.TrimSpace(*task.Summary))) < MinContextLength {
		addImprovement(task, models.Improvement{
			Kind:    models.ImprovementMissingContext,
			Message: "Add a short description with enough context to act on this task later",
			AutoFix: false,
		})
	}

	category := task.DetectedCategory
	if category == "" {
		category = e.Categorize(text)
		task.DetectedCategory = category
	}
	task.SuggestedLabels = models.MergeLabels(task.SuggestedLabels, e.GenerateLabels(task.Title, task.Summary, category))
}

func firstMatch(rules []KeywordRule, text, fallback string) string {
	for _, r := range rules {
		if r.Matches(text) {
			return r.Result
		}
	}
	return fallback
}

func taskText(title string, summary *string) string {
	text := title
	if summary != nil {
		text += " " + *summary
	}
	return strings.ToLower(text)
}

func addImprovement(task *models.StagedTask, imp models.Improvement) {
	if task.HasImprovement(imp.Kind) {
		return
	}
	task.SuggestedImprovements = append(task.SuggestedImprovements, imp)
}

func strPtr(s string) *string {
	return &s
}
