package models

import (
	"time"

	"github.com/google/uuid"
)

// Priority represents how pressing a task is
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// IsValid reports whether p is one of the known priorities
func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

// EnergyLevel represents how much focus a task demands
type EnergyLevel string

const (
	EnergyLow    EnergyLevel = "LOW"
	EnergyMedium EnergyLevel = "MEDIUM"
	EnergyHigh   EnergyLevel = "HIGH"
)

// IsValid reports whether e is one of the known energy levels
func (e EnergyLevel) IsValid() bool {
	switch e {
	case EnergyLow, EnergyMedium, EnergyHigh:
		return true
	default:
		return false
	}
}

// Task represents a committed task on a board
type Task struct {
	ID             uuid.UUID       `json:"id"`
	BoardID        uuid.UUID       `json:"board_id"`
	Title          string          `json:"title"`
	Summary        *string         `json:"summary,omitempty"`
	Priority       Priority        `json:"priority,omitempty"`
	Energy         EnergyLevel     `json:"energy,omitempty"`
	EstimateMin    *int            `json:"estimate_min,omitempty"`
	DueAt          *time.Time      `json:"due_at,omitempty"`
	Labels         []string        `json:"labels,omitempty"`
	IsRepeatable   bool            `json:"is_repeatable"`
	RecurrenceRule *RecurrenceRule `json:"recurrence_rule,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TaskInput holds the fields handed to the board when a task is created
type TaskInput struct {
	Title          string          `json:"title"`
	Summary        *string         `json:"summary,omitempty"`
	Priority       Priority        `json:"priority,omitempty"`
	Energy         EnergyLevel     `json:"energy,omitempty"`
	EstimateMin    *int            `json:"estimate_min,omitempty"`
	DueAt          *time.Time      `json:"due_at,omitempty"`
	Labels         []string        `json:"labels,omitempty"`
	IsRepeatable   bool            `json:"is_repeatable"`
	RecurrenceRule *RecurrenceRule `json:"recurrence_rule,omitempty"`
}

// Board represents a board and the tasks placed on it
type Board struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Tasks     []*Task   `json:"tasks"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
