// Package recurrence expands recurrence rules into concrete occurrence dates.
//
// Expansion is pure and never fails: unknown patterns step weekly, and
// malformed rules stop early instead of looping.
package recurrence

import (
	"sort"
	"time"

	"github.com/benvon/focus-board/internal/models"
)

// MaxIterations bounds the number of steps taken for a single expansion
const MaxIterations = 10000

const (
	daysPerWeek  = 7
	daysPerMonth = 30
)

// GenerateOccurrences returns every occurrence date d of rule, stepping forward from
// baseDueDate, with windowStart <= d <= windowEnd. Dates are strictly increasing.
func GenerateOccurrences(baseDueDate time.Time, rule models.RecurrenceRule, windowStart, windowEnd time.Time) []time.Time {
	days := normalizeDays(rule.DaysOfWeek)
	useDays := rule.Pattern == models.RecurrenceWeekly && len(days) > 0

	current := baseDueDate
	if useDays && !containsDay(days, int(current.Weekday())) {
		current = nextListedWeekday(current, days, 1)
	}

	var occurrences []time.Time
	for i := 0; i < MaxIterations; i++ {
		if current.After(windowEnd) {
			break
		}
		if rule.EndDate != nil && current.After(*rule.EndDate) {
			break
		}
		if rule.Count != nil && len(occurrences) >= *rule.Count {
			break
		}

		if !current.Before(windowStart) {
			occurrences = append(occurrences, current)
		}

		next := step(current, rule, days)
		// A non-positive interval cannot make progress.
		if !next.After(current) {
			break
		}
		current = next
	}

	return occurrences
}

// step advances current by one recurrence period
func step(current time.Time, rule models.RecurrenceRule, days []int) time.Time {
	interval := rule.EffectiveInterval()

	switch rule.Pattern {
	case models.RecurrenceDaily:
		return current.AddDate(0, 0, interval)
	case models.RecurrenceWeekly:
		if len(days) > 0 {
			return nextListedWeekday(current, days, interval)
		}
		return current.AddDate(0, 0, daysPerWeek*interval)
	case models.RecurrenceMonthly:
		// Fixed 30-day offset, not calendar months. Drifts against month ends.
		return current.AddDate(0, 0, daysPerMonth*interval)
	default:
		return current.AddDate(0, 0, daysPerWeek)
	}
}

// nextListedWeekday moves to the next weekday in days within the same week, or wraps to
// the first listed weekday of the week interval weeks later.
func nextListedWeekday(current time.Time, days []int, interval int) time.Time {
	weekday := int(current.Weekday())
	for _, d := range days {
		if d > weekday {
			return current.AddDate(0, 0, d-weekday)
		}
	}
	return current.AddDate(0, 0, daysPerWeek-weekday+days[0]+daysPerWeek*(interval-1))
}

// normalizeDays sorts, dedupes and drops values outside 0-6
func normalizeDays(days []int) []int {
	if len(days) == 0 {
		return nil
	}
	seen := make(map[int]bool, len(days))
	out := make([]int, 0, len(days))
	for _, d := range days {
		if d < 0 || d > 6 || seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	sort.Ints(out)
	return out
}

func containsDay(days []int, day int) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}
