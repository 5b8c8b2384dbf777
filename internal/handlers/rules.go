package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/benvon/focus-board/internal/enhance"
	"github.com/benvon/focus-board/internal/models"
	"github.com/benvon/focus-board/internal/validation"
	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"
)

// RulesHandler exposes the enhancement rule table and a dry-run of the engine
type RulesHandler struct {
	engine *enhance.Engine
}

// NewRulesHandler creates a new rules handler
func NewRulesHandler(engine *enhance.Engine) *RulesHandler {
	if engine == nil {
		engine = enhance.NewEngine(nil)
	}
	return &RulesHandler{engine: engine}
}

// RegisterRoutes registers enhancement routes on the API router
func (h *RulesHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/enhance/rules.yaml", h.ServeYAML).Methods("GET")
	r.HandleFunc("/enhance/rules.json", h.ServeJSON).Methods("GET")
	r.HandleFunc("/enhance/preview", h.Preview).Methods("POST")
}

// PreviewRequest is the text to run through the engine
type PreviewRequest struct {
	Title   string  `json:"title" validate:"required,max=500"`
	Summary *string `json:"summary,omitempty" validate:"omitempty,max=10000"`
}

// PreviewResponse holds what enhancement would suggest for the text
type PreviewResponse struct {
	Category     models.Category      `json:"detected_category"`
	Priority     models.Priority      `json:"suggested_priority"`
	Energy       models.EnergyLevel   `json:"suggested_energy"`
	Duration     *int                 `json:"predicted_duration,omitempty"`
	Labels       []string             `json:"suggested_labels"`
	Improvements []models.Improvement `json:"suggested_improvements"`
}

// ServeYAML serves the effective rule table in YAML format
func (h *RulesHandler) ServeYAML(w http.ResponseWriter, r *http.Request) {
	data, err := h.engine.Rules().Marshal()
	if err != nil {
		http.Error(w, "Failed to encode rule table", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/x-yaml")
	if _, err := w.Write(data); err != nil {
		http.Error(w, "Failed to write response", http.StatusInternalServerError)
		return
	}
}

// ServeJSON serves the effective rule table in JSON format, keyed like the YAML
func (h *RulesHandler) ServeJSON(w http.ResponseWriter, r *http.Request) {
	data, err := h.engine.Rules().Marshal()
	if err != nil {
		http.Error(w, "Failed to encode rule table", http.StatusInternalServerError)
		return
	}

	// Parse YAML into a map
	var yamlData map[string]any
	if err := yaml.Unmarshal(data, &yamlData); err != nil {
		http.Error(w, "Failed to parse rule table", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(yamlData); err != nil {
		http.Error(w, "Failed to encode JSON response", http.StatusInternalServerError)
		return
	}
}

// Preview runs enhancement on a throwaway task and returns the advisory fields
func (h *RulesHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	title := validation.SanitizeText(req.Title)
	if title == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title is required and cannot be empty after sanitization")
		return
	}

	task := &models.StagedTask{Title: title, Summary: req.Summary}
	h.engine.Enhance(task)

	respondJSON(w, http.StatusOK, PreviewResponse{
		Category:     task.DetectedCategory,
		Priority:     task.SuggestedPriority,
		Energy:       task.SuggestedEnergy,
		Duration:     task.PredictedDuration,
		Labels:       task.SuggestedLabels,
		Improvements: task.SuggestedImprovements,
	})
}
