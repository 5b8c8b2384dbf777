package queue

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// EnhanceScheduler turns staged-task enhancement requests into queue jobs
type EnhanceScheduler struct {
	queue JobQueue
}

// NewEnhanceScheduler creates a scheduler publishing to q
func NewEnhanceScheduler(q JobQueue) *EnhanceScheduler {
	return &EnhanceScheduler{queue: q}
}

// ScheduleEnhance enqueues an enhance job for a staged task
func (s *EnhanceScheduler) ScheduleEnhance(ctx context.Context, id uuid.UUID) error {
	if err := s.queue.Enqueue(ctx, NewEnhanceJob(id)); err != nil {
		return fmt.Errorf("failed to schedule enhancement: %w", err)
	}
	return nil
}
