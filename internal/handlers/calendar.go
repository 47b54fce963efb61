package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/SebastianMoseres/Praxable/internal/calendar"
	"github.com/SebastianMoseres/Praxable/internal/models"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// CalendarHandler exposes today's busy intervals, free slots and event creation
type CalendarHandler struct {
	engine Engine
	sink   calendar.EventSink
	logger *zap.Logger
}

// NewCalendarHandler creates a new calendar handler. A nil sink rejects new events.
func NewCalendarHandler(engine Engine, sink calendar.EventSink, logger *zap.Logger) *CalendarHandler {
	if sink == nil {
		sink = calendar.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarHandler{engine: engine, sink: sink, logger: logger}
}

// RegisterRoutes registers calendar routes on a router already prefixed with /calendar
func (h *CalendarHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/today", h.GetToday).Methods("GET")
	r.HandleFunc("/events", h.AddEvent).Methods("POST")
}

// RegisterSchedulerRoutes registers routes on a router already prefixed with /scheduler
func (h *CalendarHandler) RegisterSchedulerRoutes(r *mux.Router) {
	r.HandleFunc("/free", h.GetFreeSlots).Methods("GET")
}

// CreateEventRequest represents an add-event request. Times are RFC 3339.
type CreateEventRequest struct {
	Summary string `json:"summary" validate:"required,max=200"`
	Start   string `json:"start" validate:"required"`
	End     string `json:"end" validate:"required"`
}

// GetToday returns today's busy intervals as calendar events
func (h *CalendarHandler) GetToday(w http.ResponseWriter, r *http.Request) {
	busy, err := h.engine.BusyIntervals(r.Context())
	if err != nil {
		h.logger.Warn("failed_to_fetch_calendar", zap.Error(err))
		respondEngineError(w, err, "Failed to fetch calendar events")
		return
	}

	events := make([]models.CalendarEvent, 0, len(busy))
	for _, b := range busy {
		events = append(events, models.CalendarEvent{
			Summary: b.Label,
			Start:   b.Start.Format(time.RFC3339),
			End:     b.End.Format(time.RFC3339),
		})
	}
	respondJSON(w, http.StatusOK, events)
}

// GetFreeSlots returns the usable gaps between now and the end of the day
func (h *CalendarHandler) GetFreeSlots(w http.ResponseWriter, r *http.Request) {
	slots, err := h.engine.GetFreeSlots(r.Context())
	if err != nil {
		h.logger.Warn("failed_to_compute_free_slots", zap.Error(err))
		respondEngineError(w, err, "Failed to compute free slots")
		return
	}
	if slots == nil {
		slots = []models.FreeSlot{}
	}
	respondJSON(w, http.StatusOK, slots)
}

// AddEvent creates an event in the configured calendar
func (h *CalendarHandler) AddEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	start, errStart := time.Parse(time.RFC3339, strings.TrimSpace(req.Start))
	end, errEnd := time.Parse(time.RFC3339, strings.TrimSpace(req.End))
	if errStart != nil || errEnd != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "start and end must be RFC 3339 timestamps")
		return
	}
	if !start.Before(end) {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "start must be before end")
		return
	}

	created, err := h.sink.AddEvent(r.Context(), models.CalendarEvent{
		Summary: strings.TrimSpace(req.Summary),
		Start:   start.Format(time.RFC3339),
		End:     end.Format(time.RFC3339),
	})
	if errors.Is(err, calendar.ErrNotConfigured) {
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Calendar is not configured")
		return
	}
	if err != nil {
		h.logger.Error("failed_to_create_calendar_event", zap.Error(err))
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Failed to create event in calendar")
		return
	}

	h.logger.Info("calendar_event_created", zap.String("event_id", created.ID))
	respondJSON(w, http.StatusCreated, created)
}
