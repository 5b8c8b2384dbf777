package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benvon/focus-board/internal/models"
)

func TestParseProposalResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		content     string
		expectError bool
		validate    func(*testing.T, []models.StagedTaskInput)
	}{
		{
			name:    "plain json",
			content: `{"tasks":[{"title":"Call dentist","priority":"high","energy":"low","estimate_min":15,"labels":["Phone"," health "],"confidence":0.8}]}`,
			validate: func(t *testing.T, got []models.StagedTaskInput) {
				if len(got) != 1 {
					t.Fatalf("Expected 1 task, got %d", len(got))
				}
				in := got[0]
				if in.Title != "Call dentist" || in.Priority != models.PriorityHigh || in.Energy != models.EnergyLow {
					t.Errorf("Unexpected task: %+v", in)
				}
				if in.EstimateMin == nil || *in.EstimateMin != 15 {
					t.Errorf("Expected estimate 15, got %v", in.EstimateMin)
				}
				if strings.Join(in.Labels, ",") != "phone,health" {
					t.Errorf("Expected normalized labels, got %v", in.Labels)
				}
				if in.Confidence == nil || *in.Confidence != 0.8 {
					t.Errorf("Expected confidence 0.8, got %v", in.Confidence)
				}
				if in.Source != models.SourceVoice {
					t.Errorf("Expected source voice, got %s", in.Source)
				}
			},
		},
		{
			name:    "prose around json",
			content: "Sure! Here you go:\n{\"tasks\":[{\"title\":\"Buy milk\"}]}\nLet me know.",
			validate: func(t *testing.T, got []models.StagedTaskInput) {
				if len(got) != 1 || got[0].Title != "Buy milk" {
					t.Errorf("Expected Buy milk, got %+v", got)
				}
			},
		},
		{
			name:    "invalid fields dropped",
			content: `{"tasks":[{"title":"Plan trip","priority":"soonish","energy":"extreme","estimate_min":-5,"due_at":"next week"}]}`,
			validate: func(t *testing.T, got []models.StagedTaskInput) {
				in := got[0]
				if in.Priority != "" || in.Energy != "" || in.EstimateMin != nil || in.DueAt != nil {
					t.Errorf("Expected invalid fields to be dropped, got %+v", in)
				}
			},
		},
		{
			name:    "due date parsed",
			content: `{"tasks":[{"title":"Pay rent","due_at":"2024-02-01T09:00:00Z","summary":"  landlord  "}]}`,
			validate: func(t *testing.T, got []models.StagedTaskInput) {
				in := got[0]
				want := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
				if in.DueAt == nil || !in.DueAt.Equal(want) {
					t.Errorf("Expected due %s, got %v", want, in.DueAt)
				}
				if in.Summary == nil || *in.Summary != "landlord" {
					t.Errorf("Expected trimmed summary, got %v", in.Summary)
				}
			},
		},
		{
			name:    "blank titles skipped",
			content: `{"tasks":[{"title":"  "},{"title":"Water plants"}]}`,
			validate: func(t *testing.T, got []models.StagedTaskInput) {
				if len(got) != 1 || got[0].Title != "Water plants" {
					t.Errorf("Expected only Water plants, got %+v", got)
				}
			},
		},
		{
			name:    "empty list",
			content: `{"tasks":[]}`,
			validate: func(t *testing.T, got []models.StagedTaskInput) {
				if got == nil || len(got) != 0 {
					t.Errorf("Expected empty non-nil slice, got %v", got)
				}
			},
		},
		{
			name:        "not json",
			content:     "I could not find any tasks.",
			expectError: true,
		},
		{
			name:        "broken json",
			content:     `{"tasks":[{"title":}`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseProposalResponse(tt.content, models.SourceVoice)
			if (err != nil) != tt.expectError {
				t.Fatalf("parseProposalResponse() error = %v, expectError %v", err, tt.expectError)
			}
			if tt.validate != nil {
				tt.validate(t, got)
			}
		})
	}
}

func TestParseProposalResponse_CapsProposals(t *testing.T) {
	t.Parallel()

	tasks := make([]map[string]string, 0, MaxProposals+5)
	for i := 0; i < MaxProposals+5; i++ {
		tasks = append(tasks, map[string]string{"title": fmt.Sprintf("Task %d", i)})
	}
	body, err := json.Marshal(map[string]any{"tasks": tasks})
	if err != nil {
		t.Fatal(err)
	}

	got, err := parseProposalResponse(string(body), models.SourceAIChat)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(got) != MaxProposals {
		t.Errorf("Expected %d proposals, got %d", MaxProposals, len(got))
	}
}

func TestBuildProposalPrompt(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	prompt := buildProposalPrompt("remind me to call mom tomorrow", now)

	if !strings.Contains(prompt, "2024-03-15T10:00:00Z") {
		t.Error("Expected prompt to include the current time in RFC3339")
	}
	if !strings.Contains(prompt, "Friday") {
		t.Error("Expected prompt to include the weekday")
	}
	if !strings.HasSuffix(prompt, "remind me to call mom tomorrow") {
		t.Error("Expected prompt to end with the user text")
	}
}

func TestOpenAIProposer_ProposeTasks(t *testing.T) {
	t.Parallel()

	bodies := make(chan map[string]any, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		bodies <- body
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o-mini",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": "{\"tasks\":[{\"title\":\"Book flights\",\"confidence\":0.9}]}"}
			}]
		}`))
	}))
	defer server.Close()

	proposer := NewOpenAIProposer("test-key", server.URL+"/v1", "", nil, true)
	got, err := proposer.ProposeTasks(context.Background(), "I need to book flights", models.SourceAIChat)
	if err != nil {
		t.Fatalf("ProposeTasks() error = %v", err)
	}
	if len(got) != 1 || got[0].Title != "Book flights" || got[0].Source != models.SourceAIChat {
		t.Errorf("Unexpected proposals: %+v", got)
	}
	if body := <-bodies; body["model"] != DefaultOpenAIModel {
		t.Errorf("Expected default model, got %v", body["model"])
	}
}

func TestOpenAIProposer_BlankTextSkipsCall(t *testing.T) {
	t.Parallel()

	var called atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Store(true)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	proposer := NewOpenAIProposer("test-key", server.URL, "", nil, false)
	got, err := proposer.ProposeTasks(context.Background(), "   ", models.SourceVoice)
	if err != nil || len(got) != 0 {
		t.Errorf("Expected empty result, got %v, %v", got, err)
	}
	if called.Load() {
		t.Error("Expected no API call for blank text")
	}
}

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		rateLimit bool
		quota     bool
	}{
		{"nil", nil, false, false},
		{"plain error", errors.New("connection reset"), false, false},
		{"rate limit message", errors.New("POST: 429 Too Many Requests"), true, false},
		{"rate limit api error", &APIError{StatusCode: 429, Type: "rate_limit_error"}, true, false},
		{"quota api error", &APIError{StatusCode: 429, Code: "insufficient_quota", IsPermanent: true}, false, true},
		{"wrapped quota", fmt.Errorf("failed: %w", &APIError{StatusCode: 429, Code: "insufficient_quota", IsPermanent: true}), false, true},
		{"billing message", errors.New("billing hard limit reached"), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsRateLimitError(tt.err); got != tt.rateLimit {
				t.Errorf("IsRateLimitError() = %v, want %v", got, tt.rateLimit)
			}
			if got := IsQuotaError(tt.err); got != tt.quota {
				t.Errorf("IsQuotaError() = %v, want %v", got, tt.quota)
			}
		})
	}
}

func TestExtractAPIError(t *testing.T) {
	t.Parallel()

	if ExtractAPIError(errors.New("timeout")) != nil {
		t.Error("Expected nil for non rate limit errors")
	}

	apiErr := ExtractAPIError(errors.New(`429 {"message":"You exceeded your current quota","type":"insufficient_quota","code":"insufficient_quota"}`))
	if apiErr == nil {
		t.Fatal("Expected an API error")
	}
	if !apiErr.IsPermanent || apiErr.RetryAfter == nil || *apiErr.RetryAfter != time.Hour {
		t.Errorf("Expected permanent quota error with 1h retry, got %+v", apiErr)
	}

	apiErr = ExtractAPIError(errors.New("429 Too Many Requests"))
	if apiErr == nil || apiErr.IsPermanent || *apiErr.RetryAfter != time.Minute {
		t.Errorf("Expected transient rate limit with 1m retry, got %+v", apiErr)
	}
}

func TestSanitize(t *testing.T) {
	t.Parallel()

	if got := SanitizeAPIKey("sk-1234567890abcdef"); got != "sk-1"+RedactedValue+"cdef" {
		t.Errorf("Unexpected key redaction: %s", got)
	}
	if got := SanitizeAPIKey("short"); got != RedactedValue {
		t.Errorf("Expected short keys fully redacted, got %s", got)
	}
	if got := SanitizePrompt("line\x00one\x1b", false); got != "lineone" {
		t.Errorf("Expected control characters removed, got %q", got)
	}
	long := strings.Repeat("é", MaxPreviewLength)
	got := SanitizeResponse(long, false)
	if !strings.HasSuffix(got, "...") || !strings.HasPrefix(got, "é") {
		t.Errorf("Expected truncated preview, got %q", got)
	}
	if strings.ContainsRune(strings.TrimSuffix(got, "..."), '�') {
		t.Error("Expected truncation on a rune boundary")
	}
}
