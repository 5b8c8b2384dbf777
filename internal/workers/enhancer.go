package workers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/focus-board/internal/metrics"
	"github.com/benvon/focus-board/internal/models"
	"github.com/benvon/focus-board/internal/queue"
	"github.com/benvon/focus-board/internal/staging"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StagingRepository is the part of the staging repository the worker drives
type StagingRepository interface {
	Enhance(id uuid.UUID) (*models.StagedTask, error)
	Snapshot() []*models.StagedTask
}

// SnapshotStore persists a copy of the staging collection
type SnapshotStore interface {
	Save(ctx context.Context, tasks []*models.StagedTask) error
}

// StagingEnhancer processes staging jobs taken off the queue
type StagingEnhancer struct {
	repo     StagingRepository
	jobQueue queue.JobQueue // For re-enqueueing failed jobs with a delay
	logger   *zap.Logger
	now      func() time.Time
}

// NewStagingEnhancer creates a new staging job processor. jobQueue may be nil.
func NewStagingEnhancer(repo StagingRepository, jobQueue queue.JobQueue, log *zap.Logger) *StagingEnhancer {
	if log == nil {
		log = zap.NewNop()
	}
	return &StagingEnhancer{
		repo:     repo,
		jobQueue: jobQueue,
		logger:   log,
		now:      time.Now,
	}
}

// ProcessJob runs one job and settles its message
func (e *StagingEnhancer) ProcessJob(ctx context.Context, msg queue.MessageInterface) error {
	job := msg.GetJob()
	if job == nil {
		if nackErr := msg.Nack(false); nackErr != nil {
			e.logger.Warn("failed_to_nack_empty_message", zap.Error(nackErr))
		}
		return errors.New("message carries no job")
	}

	if job.IsExpired() {
		if nackErr := msg.Nack(false); nackErr != nil {
			e.logger.Warn("failed_to_nack_expired_job", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
		}
		metrics.JobsProcessedTotal.WithLabelValues(string(job.Type), "expired").Inc()
		return nil
	}

	if !job.ShouldProcess() {
		// Not ready yet; hand it back to the broker
		if nackErr := msg.Nack(true); nackErr != nil {
			e.logger.Warn("failed_to_requeue_job", zap.String("job_id", job.ID.String()), zap.Error(nackErr))
		}
		return nil
	}

	var err error
	switch job.Type {
	case queue.JobTypeEnhanceStaged:
		err = e.enhance(job)
	default:
		if nackErr := msg.Nack(false); nackErr != nil { // Unknown job type, send to DLQ
			e.logger.Warn("failed_to_nack_unknown_job", zap.Error(nackErr))
		}
		metrics.JobsProcessedTotal.WithLabelValues(string(job.Type), "dead_lettered").Inc()
		return fmt.Errorf("unknown job type: %s", job.Type)
	}

	if err != nil {
		return e.handleJobError(ctx, msg, job, err)
	}

	if ackErr := msg.Ack(); ackErr != nil {
		return fmt.Errorf("failed to ack job: %w", ackErr)
	}
	metrics.JobsProcessedTotal.WithLabelValues(string(job.Type), "success").Inc()
	return nil
}

func (e *StagingEnhancer) enhance(job *queue.Job) error {
	if job.StagedTaskID == nil {
		return errors.New("staged_task_id is required for enhance job")
	}

	task, err := e.repo.Enhance(*job.StagedTaskID)
	if errors.Is(err, staging.ErrNotFound) {
		// Committed or removed before the job ran
		e.logger.Debug("enhance_skipped_missing_task",
			zap.String("staged_task_id", job.StagedTaskID.String()),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to enhance staged task: %w", err)
	}

	e.logger.Debug("staged_task_enhanced",
		zap.String("staged_task_id", task.ID.String()),
		zap.Int("improvements", len(task.SuggestedImprovements)),
	)
	return nil
}

// handleJobError re-enqueues failed jobs with backoff while retries remain, otherwise dead-letters them
func (e *StagingEnhancer) handleJobError(ctx context.Context, msg queue.MessageInterface, job *queue.Job, err error) error {
	if job.CanRetry() && e.jobQueue != nil {
		notBefore := e.now().Add(job.RetryAfter())
		retry := *job
		retry.NotBefore = &notBefore
		retry.IncrementRetry()

		enqueueErr := e.jobQueue.Enqueue(ctx, &retry)
		if enqueueErr == nil {
			if ackErr := msg.Ack(); ackErr != nil {
				e.logger.Warn("failed_to_ack_retried_job", zap.String("job_id", job.ID.String()), zap.Error(ackErr))
			}
			e.logger.Warn("job_failed_retrying",
				zap.String("job_id", job.ID.String()),
				zap.String("job_type", string(job.Type)),
				zap.Int("attempt", retry.RetryCount),
				zap.Int("max_retries", job.MaxRetries),
				zap.Time("not_before", notBefore),
				zap.Error(err),
			)
			metrics.JobsProcessedTotal.WithLabelValues(string(job.Type), "retried").Inc()
			return fmt.Errorf("job failed (will retry): %w", err)
		}
		e.logger.Warn("failed_to_reenqueue_job", zap.String("job_id", job.ID.String()), zap.Error(enqueueErr))
	}

	e.logger.Error("job_failed_dead_lettered",
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
		zap.Int("retry_count", job.RetryCount),
		zap.Error(err),
	)
	if nackErr := msg.Nack(false); nackErr != nil {
		e.logger.Warn("failed_to_nack_job_to_dlq", zap.Error(nackErr))
	}
	metrics.JobsProcessedTotal.WithLabelValues(string(job.Type), "dead_lettered").Inc()
	return fmt.Errorf("job failed (max retries): %w", err)
}

// Run consumes jobs until ctx is cancelled or the queue closes its channels
func (e *StagingEnhancer) Run(ctx context.Context, msgs <-chan *queue.Message, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			e.logger.Error("queue_error", zap.Error(err))
		case msg, ok := <-msgs:
			if !ok {
				e.logger.Info("message_channel_closed")
				return
			}
			if err := e.ProcessJob(ctx, msg); err != nil {
				e.logger.Warn("job_processing_failed", zap.Error(err))
			}
		}
	}
}
