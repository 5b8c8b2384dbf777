package workers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// finalSaveTimeout bounds the save made after the loop is cancelled
const finalSaveTimeout = 10 * time.Second

// Snapshotter periodically persists the staging collection so a restart can restore it
type Snapshotter struct {
	repo     StagingRepository
	store    SnapshotStore
	interval time.Duration
	logger   *zap.Logger
}

// NewSnapshotter creates a snapshot loop saving repo to store every interval
func NewSnapshotter(repo StagingRepository, store SnapshotStore, interval time.Duration, log *zap.Logger) *Snapshotter {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Snapshotter{
		repo:     repo,
		store:    store,
		interval: interval,
		logger:   log,
	}
}

// Start saves on every tick until ctx is cancelled, then makes one last save
func (s *Snapshotter) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalSaveTimeout)
			defer cancel()
			if err := s.save(saveCtx); err != nil {
				s.logger.Warn("staging_final_snapshot_failed", zap.Error(err))
			}
			return ctx.Err()
		case <-ticker.C:
			if err := s.save(ctx); err != nil {
				s.logger.Warn("staging_snapshot_failed", zap.Error(err))
			}
		}
	}
}

func (s *Snapshotter) save(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	tasks := s.repo.Snapshot()
	if err := s.store.Save(ctx, tasks); err != nil {
		return fmt.Errorf("staging snapshot: %w", err)
	}
	s.logger.Debug("staging_snapshot_saved", zap.Int("count", len(tasks)))
	return nil
}
