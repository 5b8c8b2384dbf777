// Package calendar imports Google Calendar events as staging candidates.
package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/benvon/focus-board/internal/models"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const (
	// DefaultCalendarID is the signed-in user's main calendar
	DefaultCalendarID = "primary"
	// MaxEvents bounds one import
	MaxEvents = 250

	allDayLayout = "2006-01-02"
)

// ErrInvalidRange is returned when the import window is empty or inverted
var ErrInvalidRange = errors.New("invalid time range")

// Importer reads events from one calendar
type Importer struct {
	srv        *gcal.Service
	calendarID string
	logger     *zap.Logger
}

// NewImporter creates an importer for calendarID on srv
func NewImporter(srv *gcal.Service, calendarID string, log *zap.Logger) *Importer {
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{srv: srv, calendarID: calendarID, logger: log}
}

// NewService builds a read-only Calendar service from an OAuth client secrets file and a stored token
func NewService(ctx context.Context, credentialsFile, tokenFile string) (*gcal.Service, error) {
	secrets, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file %s: %w", credentialsFile, err)
	}
	config, err := google.ConfigFromJSON(secrets, gcal.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file: %w", err)
	}

	tok, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, err
	}

	srv, err := gcal.NewService(ctx, option.WithHTTPClient(config.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("unable to create calendar service: %w", err)
	}
	return srv, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open token file %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("unable to decode token file %s: %w", path, err)
	}
	return tok, nil
}

// Candidates lists events overlapping [from, to) and maps them to staging input with source calendar_sync
func (i *Importer) Candidates(ctx context.Context, from, to time.Time) ([]models.StagedTaskInput, error) {
	if !to.After(from) {
		return nil, ErrInvalidRange
	}

	inputs := []models.StagedTaskInput{}
	skipped := 0
	errFull := errors.New("import full")

	err := i.srv.Events.List(i.calendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Pages(ctx, func(page *gcal.Events) error {
			for _, ev := range page.Items {
				input, ok := eventToInput(ev)
				if !ok {
					skipped++
					continue
				}
				inputs = append(inputs, input)
				if len(inputs) == MaxEvents {
					return errFull
				}
			}
			return nil
		})
	if err != nil && !errors.Is(err, errFull) {
		return nil, fmt.Errorf("unable to retrieve events from calendar: %w", err)
	}

	i.logger.Info("calendar_events_imported",
		zap.String("calendar_id", i.calendarID),
		zap.Int("candidates", len(inputs)),
		zap.Int("skipped", skipped),
		zap.Time("from", from),
		zap.Time("to", to),
	)
	return inputs, nil
}

// eventToInput converts one event; cancelled and untitled events are skipped
func eventToInput(ev *gcal.Event) (models.StagedTaskInput, bool) {
	if ev == nil || ev.Status == "cancelled" {
		return models.StagedTaskInput{}, false
	}
	title := strings.TrimSpace(ev.Summary)
	if title == "" {
		return models.StagedTaskInput{}, false
	}

	input := models.StagedTaskInput{
		Title:  title,
		Source: models.SourceCalendarSync,
		Labels: []string{"calendar"},
	}
	if desc := strings.TrimSpace(ev.Description); desc != "" {
		input.Summary = &desc
	}

	start, timed, ok := eventTime(ev.Start)
	if ok {
		input.DueAt = &start
	}
	if end, endTimed, endOK := eventTime(ev.End); ok && endOK && timed && endTimed {
		if minutes := int(end.Sub(start).Minutes()); minutes > 0 {
			input.EstimateMin = &minutes
		}
	}
	if len(ev.Attendees) > 1 {
		input.Labels = append(input.Labels, "meeting")
	}
	return input, true
}

// eventTime reads a start or end; timed reports whether it carried a clock time
func eventTime(dt *gcal.EventDateTime) (t time.Time, timed bool, ok bool) {
	if dt == nil {
		return time.Time{}, false, false
	}
	if dt.DateTime != "" {
		parsed, err := time.Parse(time.RFC3339, dt.DateTime)
		if err != nil {
			return time.Time{}, false, false
		}
		return parsed, true, true
	}
	if dt.Date != "" {
		parsed, err := time.Parse(allDayLayout, dt.Date)
		if err != nil {
			return time.Time{}, false, false
		}
		return parsed, false, true
	}
	return time.Time{}, false, false
}
