package recurrence

import (
	"testing"

	"github.com/benvon/focus-board/internal/models"
	"github.com/google/uuid"
)

func TestExpand(t *testing.T) {
	t.Parallel()

	due := day(0)
	tests := []struct {
		name      string
		task      *models.Task
		wantCount int
	}{
		{
			name:      "nil task",
			task:      nil,
			wantCount: 0,
		},
		{
			name: "not repeatable",
			task: &models.Task{
				ID:             uuid.New(),
				DueAt:          &due,
				RecurrenceRule: &models.RecurrenceRule{Pattern: models.RecurrenceDaily},
			},
			wantCount: 0,
		},
		{
			name:      "repeatable without rule",
			task:      &models.Task{ID: uuid.New(), DueAt: &due, IsRepeatable: true},
			wantCount: 0,
		},
		{
			name: "repeatable without due date",
			task: &models.Task{
				ID:             uuid.New(),
				IsRepeatable:   true,
				RecurrenceRule: &models.RecurrenceRule{Pattern: models.RecurrenceDaily},
			},
			wantCount: 0,
		},
		{
			name: "daily repeatable",
			task: &models.Task{
				ID:             uuid.New(),
				Title:          "Take meds",
				DueAt:          &due,
				IsRepeatable:   true,
				RecurrenceRule: &models.RecurrenceRule{Pattern: models.RecurrenceDaily, Interval: 1},
			},
			wantCount: 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Expand(tt.task, day(0), day(6))
			if len(got) != tt.wantCount {
				t.Fatalf("Expected %d occurrences, got %d", tt.wantCount, len(got))
			}
			for i, occ := range got {
				if occ.Sequence != i {
					t.Errorf("Expected sequence %d, got %d", i, occ.Sequence)
				}
				if occ.TaskID != tt.task.ID {
					t.Errorf("Expected task id %s, got %s", tt.task.ID, occ.TaskID)
				}
			}
		})
	}
}

func TestExpandTasks_OrderedByDate(t *testing.T) {
	t.Parallel()

	dueA := day(1)
	dueB := day(0)
	taskA := &models.Task{
		ID:             uuid.New(),
		Title:          "Water plants",
		DueAt:          &dueA,
		IsRepeatable:   true,
		RecurrenceRule: &models.RecurrenceRule{Pattern: models.RecurrenceDaily, Interval: 2},
	}
	taskB := &models.Task{
		ID:             uuid.New(),
		Title:          "Weekly review",
		DueAt:          &dueB,
		IsRepeatable:   true,
		RecurrenceRule: &models.RecurrenceRule{Pattern: models.RecurrenceWeekly},
	}
	plain := &models.Task{ID: uuid.New(), Title: "One-off"}

	got := ExpandTasks([]*models.Task{taskA, plain, taskB}, day(0), day(7))

	// B: day0, day7. A: day1, day3, day5, day7.
	if len(got) != 6 {
		t.Fatalf("Expected 6 occurrences, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Date.Before(got[i-1].Date) {
			t.Errorf("Expected occurrences ordered by date, got %s before %s", got[i-1].Date, got[i].Date)
		}
	}
	if got[0].TaskID != taskB.ID {
		t.Errorf("Expected first occurrence from %s, got %s", taskB.Title, got[0].Title)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	zero := 0
	tests := []struct {
		name    string
		rule    models.RecurrenceRule
		wantErr bool
	}{
		{"valid daily", models.RecurrenceRule{Pattern: models.RecurrenceDaily, Interval: 1}, false},
		{"valid weekly days", models.RecurrenceRule{Pattern: models.RecurrenceWeekly, DaysOfWeek: []int{0, 6}}, false},
		{"unknown pattern", models.RecurrenceRule{Pattern: "yearly"}, true},
		{"negative interval", models.RecurrenceRule{Pattern: models.RecurrenceDaily, Interval: -1}, true},
		{"day out of range", models.RecurrenceRule{Pattern: models.RecurrenceWeekly, DaysOfWeek: []int{7}}, true},
		{"zero count", models.RecurrenceRule{Pattern: models.RecurrenceDaily, Count: &zero}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Validate(tt.rule)
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}
