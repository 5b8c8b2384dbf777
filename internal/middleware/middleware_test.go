package middleware

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestParseOrigins(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		list string
		want []string
	}{
		{"empty uses default", "", []string{DefaultAllowedOrigin}},
		{"trims and dedupes", " https://a.example , https://b.example,https://a.example,, ", []string{"https://a.example", "https://b.example"}},
		{"single", "https://app.example", []string{"https://app.example"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ParseOrigins(tt.list); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseOrigins(%q) = %v, want %v", tt.list, got, tt.want)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()

	mw := CORS([]string{"https://app.example"})(okHandler)

	tests := []struct {
		name       string
		method     string
		origin     string
		wantOrigin string
		wantStatus int
	}{
		{"allowed simple request", http.MethodGet, "https://app.example", "https://app.example", http.StatusOK},
		{"disallowed origin", http.MethodGet, "https://evil.example", "", http.StatusOK},
		{"allowed preflight", http.MethodOptions, "https://app.example", "https://app.example", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(tt.method, "/api/v1/staging", nil)
			r.Header.Set("Origin", tt.origin)
			if tt.method == http.MethodOptions {
				r.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			w := httptest.NewRecorder()
			mw.ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Expected Access-Control-Allow-Origin %q, got %q", tt.wantOrigin, got)
			}
		})
	}
}

func TestRateLimit_Memory(t *testing.T) {
	t.Parallel()

	mw, err := RateLimit(nil, "2-M")
	if err != nil {
		t.Fatalf("RateLimit() error = %v", err)
	}
	handler := mw(okHandler)

	send := func(ip string) int {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/staging", nil)
		r.RemoteAddr = ip
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w.Code
	}

	for i := 0; i < 2; i++ {
		if code := send("10.0.0.1:1000"); code != http.StatusOK {
			t.Fatalf("Request %d: expected 200, got %d", i, code)
		}
	}
	if code := send("10.0.0.1:1000"); code != http.StatusTooManyRequests {
		t.Errorf("Expected 429 once the limit is reached, got %d", code)
	}
	if code := send("10.0.0.2:1000"); code != http.StatusOK {
		t.Errorf("Expected another client to be unaffected, got %d", code)
	}
}

func TestRateLimit_InvalidRate(t *testing.T) {
	t.Parallel()

	if _, err := RateLimit(nil, "lots"); err == nil {
		t.Error("Expected error for malformed rate")
	}
}

func TestJSONBody(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		method      string
		body        string
		contentType string
		wantStatus  int
	}{
		{"json post", http.MethodPost, `{"title":"x"}`, "application/json", http.StatusOK},
		{"json with charset", http.MethodPatch, `{}`, "application/json; charset=utf-8", http.StatusOK},
		{"bodyless post", http.MethodPost, "", "", http.StatusOK},
		{"get ignores content type", http.MethodGet, "", "text/plain", http.StatusOK},
		{"missing content type", http.MethodPost, `{}`, "", http.StatusUnsupportedMediaType},
		{"form post", http.MethodPost, "a=b", "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType},
		{"too large", http.MethodPost, `{"title":"` + strings.Repeat("x", 64) + `"}`, "application/json", http.StatusRequestEntityTooLarge},
	}

	mw := JSONBody(32)(okHandler)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(tt.method, "/api/v1/staging", strings.NewReader(tt.body))
			if tt.contentType != "" {
				r.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()
			mw.ServeHTTP(w, r)
			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	SecurityHeaders(true)(okHandler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	for _, header := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy", "Cache-Control"} {
		if w.Header().Get(header) == "" {
			t.Errorf("Expected %s to be set", header)
		}
	}
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Error("Expected no HSTS over plain HTTP")
	}
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
			w.WriteHeader(http.StatusOK)
		}
	})

	w := httptest.NewRecorder()
	Timeout(10*time.Millisecond)(slow).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
}
