package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/benvon/focus-board/internal/enhance"
	"github.com/benvon/focus-board/internal/models"
	"github.com/gorilla/mux"
)

func newRulesRouter(engine *enhance.Engine) *mux.Router {
	router := mux.NewRouter()
	NewRulesHandler(engine).RegisterRoutes(router.PathPrefix("/api/v1").Subrouter())
	return router
}

func TestRulesHandler_ServeRuleTable(t *testing.T) {
	t.Parallel()

	router := newRulesRouter(nil)

	w := serve(router, http.MethodGet, "/api/v1/enhance/rules.yaml", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/x-yaml" {
		t.Errorf("Expected YAML content type, got %s", ct)
	}
	table, err := enhance.ParseRuleTable(w.Body.Bytes())
	if err != nil {
		t.Fatalf("Expected served YAML to parse as a rule table: %v", err)
	}
	if table.DefaultDuration != enhance.DefaultRules().DefaultDuration {
		t.Errorf("Expected default duration %d, got %d", enhance.DefaultRules().DefaultDuration, table.DefaultDuration)
	}

	w = serve(router, http.MethodGet, "/api/v1/enhance/rules.json", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var doc map[string]any
	if err := json.NewDecoder(w.Body).Decode(&doc); err != nil {
		t.Fatalf("Failed to decode JSON rule table: %v", err)
	}
	for _, key := range []string{"duration", "priority", "energy", "category", "labels", "default_category"} {
		if _, ok := doc[key]; !ok {
			t.Errorf("Expected key %q in JSON rule table", key)
		}
	}
}

func TestRulesHandler_ServeCustomTable(t *testing.T) {
	t.Parallel()

	rules := enhance.DefaultRules()
	rules.DefaultDuration = 15
	w := serve(newRulesRouter(enhance.NewEngine(rules)), http.MethodGet, "/api/v1/enhance/rules.yaml", nil)
	if !strings.Contains(w.Body.String(), "default_duration: 15") {
		t.Errorf("Expected the configured table to be served, got %s", w.Body.String())
	}
}

func TestRulesHandler_Preview(t *testing.T) {
	t.Parallel()

	router := newRulesRouter(nil)

	w := serve(router, http.MethodPost, "/api/v1/enhance/preview", PreviewRequest{Title: "Call client about urgent report"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp PreviewResponse
	decodeData(t, w, &resp)
	if resp.Category != models.CategoryUrgent {
		t.Errorf("Expected category urgent, got %s", resp.Category)
	}
	if resp.Priority != models.PriorityUrgent || resp.Energy != models.EnergyLow {
		t.Errorf("Expected URGENT/LOW, got %s/%s", resp.Priority, resp.Energy)
	}
	if resp.Duration == nil || *resp.Duration != 10 {
		t.Errorf("Expected predicted duration 10, got %v", resp.Duration)
	}
	if len(resp.Labels) == 0 || resp.Labels[0] != "urgent" {
		t.Errorf("Expected labels to lead with the category, got %v", resp.Labels)
	}

	if w := serve(router, http.MethodPost, "/api/v1/enhance/preview", map[string]any{}); w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 without a title, got %d", w.Code)
	}
}
