package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/benvon/focus-board/internal/database"
	"github.com/benvon/focus-board/internal/logger"
	"github.com/benvon/focus-board/internal/metrics"
	"github.com/benvon/focus-board/internal/models"
	"github.com/benvon/focus-board/internal/recurrence"
	"github.com/benvon/focus-board/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// MaxCalendarWindow bounds how far a single expansion request may reach
const MaxCalendarWindow = 366 * 24 * time.Hour

// BoardStore is the board persistence used by BoardHandler
type BoardStore interface {
	CreateBoard(ctx context.Context, name string) (*models.Board, error)
	FetchBoard(ctx context.Context, boardID uuid.UUID) (*models.Board, error)
}

var _ BoardStore = (database.TaskRepositoryInterface)(nil)

// BoardHandler handles board and recurrence requests
type BoardHandler struct {
	boards BoardStore
	logger *zap.Logger
}

// NewBoardHandler creates a new board handler
func NewBoardHandler(boards BoardStore, log *zap.Logger) *BoardHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &BoardHandler{boards: boards, logger: log}
}

// RegisterRoutes registers board and recurrence routes on the API router
func (h *BoardHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/boards", h.CreateBoard).Methods("POST")
	r.HandleFunc("/boards/{id}", h.GetBoard).Methods("GET")
	r.HandleFunc("/boards/{id}/calendar", h.BoardCalendar).Methods("GET")
	r.HandleFunc("/recurrence/expand", h.ExpandRule).Methods("POST")
}

// CreateBoardRequest represents a create board request
type CreateBoardRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

// ExpandRuleRequest expands one rule from a base date over a window
type ExpandRuleRequest struct {
	BaseDate    time.Time             `json:"base_date" validate:"required"`
	Rule        models.RecurrenceRule `json:"rule"`
	WindowStart time.Time             `json:"window_start" validate:"required"`
	WindowEnd   time.Time             `json:"window_end" validate:"required"`
}

// ExpandRuleResponse lists the generated dates
type ExpandRuleResponse struct {
	Occurrences []time.Time `json:"occurrences"`
	Count       int         `json:"count"`
}

// CalendarResponse lists every occurrence on a board within a window
type CalendarResponse struct {
	BoardID     uuid.UUID           `json:"board_id"`
	From        time.Time           `json:"from"`
	To          time.Time           `json:"to"`
	Occurrences []models.Occurrence `json:"occurrences"`
}

// CreateBoard creates an empty board
func (h *BoardHandler) CreateBoard(w http.ResponseWriter, r *http.Request) {
	var req CreateBoardRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	name := validation.SanitizeText(req.Name)
	if name == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Name is required and cannot be empty after sanitization")
		return
	}

	board, err := h.boards.CreateBoard(r.Context(), name)
	if err != nil {
		h.logger.Error("board_create_failed", zap.String("error", logger.SanitizeError(err)))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create board")
		return
	}
	respondJSON(w, http.StatusCreated, board)
}

// GetBoard returns a board with its tasks
func (h *BoardHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	board, ok := h.fetchBoard(w, r, id)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, board)
}

// BoardCalendar expands every repeatable task on a board over [from, to]
func (h *BoardHandler) BoardCalendar(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	from, to, err := parseWindow(r)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if to.Sub(from) > MaxCalendarWindow {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Window exceeds one year")
		return
	}

	board, ok := h.fetchBoard(w, r, id)
	if !ok {
		return
	}

	occurrences := recurrence.ExpandTasks(board.Tasks, from, to)
	if occurrences == nil {
		occurrences = []models.Occurrence{}
	}
	metrics.OccurrencesExpanded.Observe(float64(len(occurrences)))
	respondJSON(w, http.StatusOK, CalendarResponse{
		BoardID:     id,
		From:        from,
		To:          to,
		Occurrences: occurrences,
	})
}

// ExpandRule expands a single rule without touching storage
func (h *BoardHandler) ExpandRule(w http.ResponseWriter, r *http.Request) {
	var req ExpandRuleRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := recurrence.Validate(req.Rule); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	if req.WindowEnd.Before(req.WindowStart) {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "window_end is before window_start")
		return
	}
	if req.WindowEnd.Sub(req.WindowStart) > MaxCalendarWindow {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Window exceeds one year")
		return
	}

	dates := recurrence.GenerateOccurrences(req.BaseDate, req.Rule, req.WindowStart, req.WindowEnd)
	if dates == nil {
		dates = []time.Time{}
	}
	metrics.OccurrencesExpanded.Observe(float64(len(dates)))
	respondJSON(w, http.StatusOK, ExpandRuleResponse{Occurrences: dates, Count: len(dates)})
}

func (h *BoardHandler) fetchBoard(w http.ResponseWriter, r *http.Request, id uuid.UUID) (*models.Board, bool) {
	board, err := h.boards.FetchBoard(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrBoardNotFound) {
			respondJSONError(w, http.StatusNotFound, "Not Found", "Board not found")
			return nil, false
		}
		h.logger.Error("board_fetch_failed",
			zap.String("board_id", id.String()),
			zap.String("error", logger.SanitizeError(err)),
		)
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve board")
		return nil, false
	}
	return board, true
}
