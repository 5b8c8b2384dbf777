package models

import (
	"time"

	"github.com/google/uuid"
)

// RecurrencePattern represents how a repeatable task steps forward
type RecurrencePattern string

const (
	RecurrenceDaily   RecurrencePattern = "daily"
	RecurrenceWeekly  RecurrencePattern = "weekly"
	RecurrenceMonthly RecurrencePattern = "monthly"
	RecurrenceCustom  RecurrencePattern = "custom"
)

// RecurrenceRule describes how a task repeats.
// A zero Interval is treated as 1. DaysOfWeek uses Sunday=0.
type RecurrenceRule struct {
	Pattern    RecurrencePattern `json:"pattern" validate:"recurrence_pattern"`
	Interval   int               `json:"interval,omitempty"`
	DaysOfWeek []int             `json:"days_of_week,omitempty" validate:"omitempty,dive,min=0,max=6"`
	Count      *int              `json:"count,omitempty"`
	EndDate    *time.Time        `json:"end_date,omitempty"`
}

// EffectiveInterval returns the interval with the unset value defaulted to 1
func (r RecurrenceRule) EffectiveInterval() int {
	if r.Interval == 0 {
		return 1
	}
	return r.Interval
}

// Occurrence is one concrete date on which a repeatable task is due
type Occurrence struct {
	TaskID   uuid.UUID `json:"task_id"`
	Title    string    `json:"title,omitempty"`
	Date     time.Time `json:"date"`
	Sequence int       `json:"sequence"`
}
