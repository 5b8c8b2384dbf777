package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/benvon/focus-board/internal/database"
	"github.com/benvon/focus-board/internal/logger"
	"github.com/benvon/focus-board/internal/models"
	"github.com/benvon/focus-board/internal/recurrence"
	"github.com/benvon/focus-board/internal/request"
	"github.com/benvon/focus-board/internal/services/ai"
	"github.com/benvon/focus-board/internal/services/calendar"
	"github.com/benvon/focus-board/internal/staging"
	"github.com/benvon/focus-board/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Proposer turns free text into candidate tasks
type Proposer interface {
	ProposeTasks(ctx context.Context, text string, source models.StagedTaskSource) ([]models.StagedTaskInput, error)
}

// CalendarSource lists candidate tasks from calendar events in a window
type CalendarSource interface {
	Candidates(ctx context.Context, from, to time.Time) ([]models.StagedTaskInput, error)
}

// StagingHandler handles staging requests
type StagingHandler struct {
	repo     *staging.Repository
	proposer Proposer
	calendar CalendarSource
	logger   *zap.Logger
}

// NewStagingHandler creates a new staging handler. proposer and cal may be nil when
// the corresponding integration is not configured.
func NewStagingHandler(repo *staging.Repository, proposer Proposer, cal CalendarSource, log *zap.Logger) *StagingHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &StagingHandler{repo: repo, proposer: proposer, calendar: cal, logger: log}
}

// RegisterRoutes registers staging routes on the given router
// The router should already have the /staging prefix (e.g., from apiRouter.PathPrefix("/staging"))
func (h *StagingHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListStaged).Methods("GET")
	r.HandleFunc("", h.AddStaged).Methods("POST")
	r.HandleFunc("/stats", h.Stats).Methods("GET")
	r.HandleFunc("/bulk-process", h.BulkProcess).Methods("POST")
	r.HandleFunc("/propose", h.Propose).Methods("POST")
	r.HandleFunc("/import/calendar", h.ImportCalendar).Methods("POST")
	r.HandleFunc("/{id}", h.GetStaged).Methods("GET")
	r.HandleFunc("/{id}", h.UpdateStaged).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteStaged).Methods("DELETE")
	r.HandleFunc("/{id}/enhance", h.EnhanceStaged).Methods("POST")
	r.HandleFunc("/{id}/autofix", h.AutoFix).Methods("POST")
	r.HandleFunc("/{id}/process", h.ProcessStaged).Methods("POST")
}

// ProcessRequest names the board a staged task is committed to
type ProcessRequest struct {
	BoardID uuid.UUID `json:"board_id" validate:"required"`
}

// BulkProcessRequest commits several staged tasks to one board
type BulkProcessRequest struct {
	IDs     []uuid.UUID `json:"ids" validate:"required,min=1,max=100"`
	BoardID uuid.UUID   `json:"board_id" validate:"required"`
}

// ProposeRequest asks the AI proposer for candidates
type ProposeRequest struct {
	Text   string                  `json:"text" validate:"required,max=10000"`
	Source models.StagedTaskSource `json:"source,omitempty" validate:"omitempty,staging_source"`
}

// ImportCalendarRequest bounds a calendar import
type ImportCalendarRequest struct {
	From time.Time `json:"from" validate:"required"`
	To   time.Time `json:"to" validate:"required"`
}

// ProposeResponse lists what a proposal or import staged
type ProposeResponse struct {
	Staged   []*models.StagedTask `json:"staged"`
	Proposed int                  `json:"proposed"`
}

// ListStaged lists every staged task, oldest first
func (h *StagingHandler) ListStaged(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.repo.List())
}

// AddStaged stages one candidate task
func (h *StagingHandler) AddStaged(w http.ResponseWriter, r *http.Request) {
	var input models.StagedTaskInput
	if !decodeAndValidate(w, r, &input) {
		return
	}
	if input.RecurrenceRule != nil {
		if err := recurrence.Validate(*input.RecurrenceRule); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
	}

	input.Title = validation.SanitizeText(input.Title)
	if input.Source == "" {
		input.Source = models.SourceManual
	}

	staged := h.repo.AddToStaging(r.Context(), input)
	if staged == nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title is required and cannot be empty after sanitization")
		return
	}
	respondJSON(w, http.StatusCreated, staged)
}

// Stats reports aggregate staging figures
func (h *StagingHandler) Stats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.repo.GetStagingStats())
}

// GetStaged returns one staged task
func (h *StagingHandler) GetStaged(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	task, err := h.repo.Get(id)
	if err != nil {
		h.respondRepoError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// UpdateStaged applies explicit field changes to a staged task
func (h *StagingHandler) UpdateStaged(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}

	var patch models.StagedTaskPatch
	if !decodeAndValidate(w, r, &patch) {
		return
	}
	if patch.Title != nil {
		title := validation.SanitizeText(*patch.Title)
		if title == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Title cannot be empty")
			return
		}
		patch.Title = &title
	}
	if patch.RecurrenceRule != nil {
		if err := recurrence.Validate(*patch.RecurrenceRule); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
	}

	task, err := h.repo.UpdateStagedTask(id, patch)
	if err != nil {
		h.respondRepoError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// DeleteStaged discards a staged task. Unknown ids are not an error.
func (h *StagingHandler) DeleteStaged(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	h.repo.RemoveFromStaging(id)
	w.WriteHeader(http.StatusNoContent)
}

// EnhanceStaged runs enhancement on a staged task if it has not run yet
func (h *StagingHandler) EnhanceStaged(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	task, err := h.repo.Enhance(id)
	if err != nil {
		h.respondRepoError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// AutoFix applies every auto-fixable improvement of a staged task
func (h *StagingHandler) AutoFix(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	task, err := h.repo.ApplyAutoFixes(id)
	if err != nil {
		h.respondRepoError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, task)
}

// ProcessStaged commits a staged task to a board
func (h *StagingHandler) ProcessStaged(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req ProcessRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.repo.ProcessToBoard(r.Context(), id, req.BoardID)
	if err != nil {
		h.respondRepoError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, task)
}

// BulkProcess commits several staged tasks; failures are reported per id
func (h *StagingHandler) BulkProcess(w http.ResponseWriter, r *http.Request) {
	var req BulkProcessRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result := h.repo.BulkProcessTasks(r.Context(), req.IDs, req.BoardID)
	respondJSON(w, http.StatusOK, result)
}

// Propose asks the AI proposer for candidates and stages them
func (h *StagingHandler) Propose(w http.ResponseWriter, r *http.Request) {
	if h.proposer == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "AI proposals are not configured")
		return
	}

	var req ProposeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	text := validation.SanitizeText(req.Text)
	if text == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Text is required and cannot be empty after sanitization")
		return
	}
	source := req.Source
	if source == "" {
		source = models.SourceAIChat
	}

	inputs, err := h.proposer.ProposeTasks(r.Context(), text, source)
	if err != nil {
		h.logger.Warn("staging_proposal_failed",
			zap.String("request_id", request.RequestID(r.Context())),
			zap.String("error", logger.SanitizeError(err)),
		)
		if ai.IsRateLimitError(err) {
			respondJSONError(w, http.StatusTooManyRequests, "Too Many Requests", "AI provider rate limit reached, try again later")
			return
		}
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Failed to get proposals from AI provider")
		return
	}

	respondJSON(w, http.StatusCreated, h.stageAll(r.Context(), inputs))
}

// ImportCalendar stages candidates built from calendar events in a window
func (h *StagingHandler) ImportCalendar(w http.ResponseWriter, r *http.Request) {
	if h.calendar == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Calendar import is not configured")
		return
	}

	var req ImportCalendarRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	inputs, err := h.calendar.Candidates(r.Context(), req.From, req.To)
	if err != nil {
		if errors.Is(err, calendar.ErrInvalidRange) {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
		h.logger.Warn("calendar_import_failed", zap.String("error", logger.SanitizeError(err)))
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Failed to read calendar events")
		return
	}

	respondJSON(w, http.StatusCreated, h.stageAll(r.Context(), inputs))
}

func (h *StagingHandler) stageAll(ctx context.Context, inputs []models.StagedTaskInput) ProposeResponse {
	resp := ProposeResponse{
		Staged:   make([]*models.StagedTask, 0, len(inputs)),
		Proposed: len(inputs),
	}
	for _, input := range inputs {
		if input.RecurrenceRule != nil && recurrence.Validate(*input.RecurrenceRule) != nil {
			input.RecurrenceRule = nil
			input.IsRepeatable = false
		}
		input.Title = validation.SanitizeText(input.Title)
		if staged := h.repo.AddToStaging(ctx, input); staged != nil {
			resp.Staged = append(resp.Staged, staged)
		}
	}
	return resp
}

func (h *StagingHandler) respondRepoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, staging.ErrNotFound):
		respondJSONError(w, http.StatusNotFound, "Not Found", "Staged task not found")
	case errors.Is(err, database.ErrBoardNotFound):
		respondJSONError(w, http.StatusNotFound, "Not Found", "Board not found")
	case errors.Is(err, staging.ErrAlreadyProcessing):
		respondJSONError(w, http.StatusConflict, "Conflict", "Staged task is already being processed")
	case errors.Is(err, staging.ErrNoBoardClient):
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Board storage is not configured")
	default:
		h.logger.Error("staging_request_failed", zap.String("error", logger.SanitizeError(err)))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update staging")
	}
}
