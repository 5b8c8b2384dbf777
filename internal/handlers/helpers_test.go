package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

func TestRespondJSON(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	respondJSON(w, http.StatusCreated, map[string]string{"title": "Buy milk"})

	resp := w.Result()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if success, ok := body["success"].(bool); !ok || !success {
		t.Error("Expected success to be true")
	}
	data, ok := body["data"].(map[string]any)
	if !ok || data["title"] != "Buy milk" {
		t.Errorf("Expected data.title 'Buy milk', got %v", body["data"])
	}
	timestamp, ok := body["timestamp"].(string)
	if !ok {
		t.Fatal("Timestamp not found in response")
	}
	if _, err := time.Parse(time.RFC3339, timestamp); err != nil {
		t.Errorf("Timestamp '%s' is not valid RFC3339: %v", timestamp, err)
	}
}

func TestRespondJSONError(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	respondJSONError(w, http.StatusNotFound, "Not Found", "Staged task not found")

	body := decodeEnvelope(t, w)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
	if success, ok := body["success"].(bool); !ok || success {
		t.Error("Expected success to be false")
	}
	if body["error"] != "Not Found" {
		t.Errorf("Expected error 'Not Found', got '%v'", body["error"])
	}
	if body["message"] != "Staged task not found" {
		t.Errorf("Expected message 'Staged task not found', got '%v'", body["message"])
	}
}

func TestSanitizeErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		message string
		wantLen int
		suffix  bool
	}{
		{"short message kept", "Invalid input", len("Invalid input"), false},
		{"exact limit kept", strings.Repeat("a", maxErrorMessageLength), maxErrorMessageLength, false},
		{"long message truncated", strings.Repeat("a", 500), maxErrorMessageLength + 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := sanitizeErrorMessage(tt.message)
			if len(got) != tt.wantLen {
				t.Errorf("Expected length %d, got %d", tt.wantLen, len(got))
			}
			if strings.HasSuffix(got, "...") != tt.suffix {
				t.Errorf("Unexpected truncation marker in %q", got)
			}
		})
	}

	t.Run("multibyte boundary", func(t *testing.T) {
		t.Parallel()
		got := sanitizeErrorMessage(strings.Repeat("é", 150))
		if !utf8.ValidString(got) {
			t.Errorf("Expected valid UTF-8 after truncation, got %q", got)
		}
	})
}

func TestDecodeAndValidate(t *testing.T) {
	t.Parallel()

	type payload struct {
		Name string `json:"name" validate:"required,max=5"`
	}

	tests := []struct {
		name       string
		body       string
		limit      int64
		wantOK     bool
		wantStatus int
	}{
		{name: "valid", body: `{"name":"abc"}`, wantOK: true},
		{name: "malformed json", body: `{"name":`, wantStatus: http.StatusBadRequest},
		{name: "validation failure", body: `{"name":"abcdefgh"}`, wantStatus: http.StatusBadRequest},
		{name: "missing required", body: `{}`, wantStatus: http.StatusBadRequest},
		{name: "body too large", body: `{"name":"` + strings.Repeat("x", 64) + `"}`, limit: 16, wantStatus: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			if tt.limit > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, tt.limit)
			}

			var p payload
			ok := decodeAndValidate(w, r, &p)
			if ok != tt.wantOK {
				t.Fatalf("Expected ok=%v, got %v", tt.wantOK, ok)
			}
			if !ok && w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestPathUUID(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	w := httptest.NewRecorder()
	r := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": id.String()})
	got, ok := pathUUID(w, r, "id")
	if !ok || got != id {
		t.Errorf("Expected %s, got %s (ok=%v)", id, got, ok)
	}

	w = httptest.NewRecorder()
	r = mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": "nope"})
	if _, ok := pathUUID(w, r, "id"); ok {
		t.Error("Expected invalid id to be rejected")
	}
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestParseWindow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		query   string
		wantErr bool
	}{
		{"valid", "from=2024-01-01T00:00:00Z&to=2024-01-31T00:00:00Z", false},
		{"same instant", "from=2024-01-01T00:00:00Z&to=2024-01-01T00:00:00Z", false},
		{"missing to", "from=2024-01-01T00:00:00Z", true},
		{"bad from", "from=yesterday&to=2024-01-31T00:00:00Z", true},
		{"reversed", "from=2024-02-01T00:00:00Z&to=2024-01-01T00:00:00Z", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil)
			_, _, err := parseWindow(r)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseWindow() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// Test helper to create a test request with body
func newTestRequest(method, path string, body any) *http.Request {
	var bodyReader *bytes.Reader
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(bodyBytes)
	} else {
		bodyReader = bytes.NewReader(nil)
	}
	return httptest.NewRequest(method, path, bodyReader)
}

// decodeEnvelope decodes a response written by respondJSON or respondJSONError
func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return body
}
