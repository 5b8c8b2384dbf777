package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/benvon/focus-board/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func TestSnapshotEncoding(t *testing.T) {
	t.Parallel()

	stagedAt := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	summary := "Quarterly numbers"
	duplicateOf := uuid.New()
	tasks := []*models.StagedTask{
		{
			ID:               uuid.New(),
			Title:            "Write report",
			Summary:          &summary,
			Source:           models.SourceVoice,
			Confidence:       0.6,
			StagedAt:         stagedAt,
			UpdatedAt:        stagedAt,
			DetectedCategory: models.CategoryWork,
		},
		nil,
		{
			ID:          uuid.New(),
			Title:       "Write reports",
			Source:      models.SourceManual,
			Confidence:  1,
			StagedAt:    stagedAt.Add(time.Minute),
			UpdatedAt:   stagedAt.Add(time.Minute),
			DuplicateOf: &duplicateOf,
		},
	}

	records, err := encodeSnapshot(tasks)
	if err != nil {
		t.Fatalf("encodeSnapshot() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected nil records to be skipped, got %d records", len(records))
	}
	first, ok := records[0].(string)
	if !ok {
		t.Fatalf("Expected string records, got %T", records[0])
	}
	if !strings.Contains(first, `"staged_at":"2024-01-15T09:30:00Z"`) {
		t.Errorf("Expected ISO-8601 staged_at, got %s", first)
	}

	raw := make([]string, 0, len(records)+1)
	for _, r := range records {
		raw = append(raw, r.(string))
	}
	raw = append(raw, "{not json")

	decoded, skipped := decodeSnapshot(raw)
	if skipped != 1 {
		t.Errorf("Expected one skipped record, got %d", skipped)
	}
	if len(decoded) != 2 {
		t.Fatalf("Expected 2 decoded tasks, got %d", len(decoded))
	}
	if decoded[0].ID != tasks[0].ID || decoded[1].ID != tasks[2].ID {
		t.Error("Expected insertion order to be preserved")
	}
	if !decoded[0].StagedAt.Equal(stagedAt) || decoded[0].Summary == nil || *decoded[0].Summary != summary {
		t.Errorf("Unexpected decoded task: %+v", decoded[0])
	}
	if decoded[1].DuplicateOf == nil || *decoded[1].DuplicateOf != duplicateOf {
		t.Errorf("Expected duplicate_of to survive, got %v", decoded[1].DuplicateOf)
	}
}

func TestRedisStore_Defaults(t *testing.T) {
	t.Parallel()

	s := NewRedisStore(nil, "", 0, nil)
	if s.key != DefaultKey {
		t.Errorf("Expected default key %s, got %s", DefaultKey, s.key)
	}
	if s.logger == nil {
		t.Error("Expected a no-op logger")
	}
}

func TestRedisStore_UnreachableServer(t *testing.T) {
	t.Parallel()

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	s := NewRedisStore(client, "test:snapshot", time.Hour, nil)
	ctx := context.Background()

	if err := s.Save(ctx, []*models.StagedTask{{ID: uuid.New(), Title: "Call mom"}}); err == nil {
		t.Error("Expected Save to fail without a server")
	}
	if _, err := s.Load(ctx); err == nil {
		t.Error("Expected Load to fail without a server")
	}
}

func TestNewRedisClient_InvalidURL(t *testing.T) {
	t.Parallel()

	if _, err := NewRedisClient(context.Background(), "not-a-url"); err == nil {
		t.Error("Expected error for invalid Redis URL")
	}
}
