package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeEnhanceStaged runs the enhancement engine on one staged task
	JobTypeEnhanceStaged JobType = "enhance_staged"
)

// DefaultMaxRetries is the retry budget given to new jobs
const DefaultMaxRetries = 3

// Job represents a job in the queue
type Job struct {
	ID           uuid.UUID      `json:"id"`
	Type         JobType        `json:"type"`
	StagedTaskID *uuid.UUID     `json:"staged_task_id,omitempty"`
	NotBefore    *time.Time     `json:"not_before,omitempty"` // nil = immediate
	NotAfter     *time.Time     `json:"not_after,omitempty"`  // nil = no expiration
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	RetryCount   int            `json:"retry_count"`
	MaxRetries   int            `json:"max_retries"`
}

// NewJob creates a new job
func NewJob(jobType JobType, stagedTaskID *uuid.UUID) *Job {
	return &Job{
		ID:           uuid.New(),
		Type:         jobType,
		StagedTaskID: stagedTaskID,
		Metadata:     make(map[string]any),
		CreatedAt:    time.Now(),
		RetryCount:   0,
		MaxRetries:   DefaultMaxRetries,
	}
}

// NewEnhanceJob creates a job that enhances one staged task
func NewEnhanceJob(stagedTaskID uuid.UUID) *Job {
	return NewJob(JobTypeEnhanceStaged, &stagedTaskID)
}

// ShouldProcess checks if the job should be processed now
func (j *Job) ShouldProcess() bool {
	now := time.Now()

	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}
	if j.NotAfter != nil && now.After(*j.NotAfter) {
		return false
	}
	return true
}

// IsExpired checks if the job has expired
func (j *Job) IsExpired() bool {
	if j.NotAfter == nil {
		return false
	}
	return time.Now().After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}

// RetryAfter returns the backoff before the next attempt: 2^retry seconds, capped at one minute
func (j *Job) RetryAfter() time.Duration {
	switch {
	case j.RetryCount <= 0:
		return time.Second
	case j.RetryCount >= 6:
		return time.Minute
	default:
		return time.Second << j.RetryCount
	}
}
