package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benvon/focus-board/internal/models"
	"github.com/google/uuid"
)

func TestSnapshotter_SavesOnTickAndShutdown(t *testing.T) {
	t.Parallel()

	store := &mockSnapshotStore{}
	repo := &mockStagingRepo{tasks: []*models.StagedTask{{ID: uuid.New(), Title: "Call mom"}}}
	s := NewSnapshotter(repo, store, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for store.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	before := store.count()
	if before < 2 {
		t.Fatalf("Expected periodic saves, got %d", before)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if store.count() <= before {
		t.Error("Expected a final save on shutdown")
	}
}

func TestSnapshotter_FinalSaveIgnoresCancellation(t *testing.T) {
	t.Parallel()

	var saveErr error
	store := &mockSnapshotStore{
		saveFunc: func(ctx context.Context, _ []*models.StagedTask) error {
			saveErr = ctx.Err()
			return nil
		},
	}
	s := NewSnapshotter(&mockStagingRepo{}, store, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = s.Start(ctx)

	if store.count() != 1 {
		t.Fatalf("Expected exactly one final save, got %d", store.count())
	}
	if saveErr != nil {
		t.Errorf("Expected the final save to get a live context, got %v", saveErr)
	}
}

func TestSnapshotter_NilStore(t *testing.T) {
	t.Parallel()

	s := NewSnapshotter(&mockStagingRepo{}, nil, 0, nil)
	if s.interval != time.Minute {
		t.Errorf("Expected default interval of one minute, got %s", s.interval)
	}
	if err := s.save(context.Background()); err != nil {
		t.Errorf("Expected nil store to be a no-op, got %v", err)
	}
}
