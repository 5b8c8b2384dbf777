package recurrence

import (
	"bytes"
	"fmt"
	"sort"
	"time"

	"github.com/benvon/focus-board/internal/models"
)

// Expand returns the occurrences of a single repeatable task inside [from, to].
// Tasks that are not repeatable, or have no rule or due date, yield nothing.
func Expand(task *models.Task, from, to time.Time) []models.Occurrence {
	if task == nil || !task.IsRepeatable || task.RecurrenceRule == nil || task.DueAt == nil {
		return nil
	}

	dates := GenerateOccurrences(*task.DueAt, *task.RecurrenceRule, from, to)
	occurrences := make([]models.Occurrence, 0, len(dates))
	for i, d := range dates {
		occurrences = append(occurrences, models.Occurrence{
			TaskID:   task.ID,
			Title:    task.Title,
			Date:     d,
			Sequence: i,
		})
	}
	return occurrences
}

// ExpandTasks expands every repeatable task and returns the occurrences ordered by date,
// then by task id for a stable calendar rendering.
func ExpandTasks(tasks []*models.Task, from, to time.Time) []models.Occurrence {
	var all []models.Occurrence
	for _, task := range tasks {
		all = append(all, Expand(task, from, to)...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		if !all[i].Date.Equal(all[j].Date) {
			return all[i].Date.Before(all[j].Date)
		}
		return bytes.Compare(all[i].TaskID[:], all[j].TaskID[:]) < 0
	})
	return all
}

// Validate reports the first structural problem with a rule.
// Expansion itself tolerates all of these; callers use Validate at input boundaries.
func Validate(rule models.RecurrenceRule) error {
	switch rule.Pattern {
	case models.RecurrenceDaily, models.RecurrenceWeekly, models.RecurrenceMonthly, models.RecurrenceCustom:
	default:
		return fmt.Errorf("invalid pattern: %q (must be 'daily', 'weekly', 'monthly', or 'custom')", rule.Pattern)
	}
	if rule.Interval < 0 {
		return fmt.Errorf("invalid interval: %d (must be positive)", rule.Interval)
	}
	for _, d := range rule.DaysOfWeek {
		if d < 0 || d > 6 {
			return fmt.Errorf("invalid day of week: %d (must be 0-6, Sunday=0)", d)
		}
	}
	if rule.Count != nil && *rule.Count <= 0 {
		return fmt.Errorf("invalid count: %d (must be positive)", *rule.Count)
	}
	return nil
}
