package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/SebastianMoseres/Praxable/internal/models"
	"github.com/SebastianMoseres/Praxable/internal/services/planner"
	"github.com/SebastianMoseres/Praxable/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	// MaxPlannerInputLength bounds the free text sent to the planning assistant
	MaxPlannerInputLength = 2000
	// MaxAudioUploadSize bounds a voice note upload, matching the
	// transcription API's file limit
	MaxAudioUploadSize int64 = 25 << 20

	maxMultipartMemory = 8 << 20
	maxCoreValues      = 50
	maxValueLength     = 100
)

// ValueLister supplies the stored core values
type ValueLister interface {
	List(ctx context.Context) ([]models.CoreValue, error)
}

// PlannerHandler turns free-text plans into structured tasks
type PlannerHandler struct {
	planner     planner.Planner
	transcriber planner.Transcriber
	engine      Engine
	values      ValueLister
	logger      *zap.Logger
}

// PlannerHandlerOption configures a PlannerHandler
type PlannerHandlerOption func(*PlannerHandler)

// WithTranscriber enables voice notes on the audio planning route
func WithTranscriber(t planner.Transcriber) PlannerHandlerOption {
	return func(h *PlannerHandler) {
		if t != nil {
			h.transcriber = t
		}
	}
}

// NewPlannerHandler creates a new planner handler
func NewPlannerHandler(p planner.Planner, engine Engine, values ValueLister, logger *zap.Logger, opts ...PlannerHandlerOption) *PlannerHandler {
	if p == nil {
		p = planner.Disabled{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &PlannerHandler{
		planner:     p,
		transcriber: planner.Disabled{},
		engine:      engine,
		values:      values,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers routes on a router already prefixed with /planner
func (h *PlannerHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/generate", h.Generate).Methods("POST")
	r.HandleFunc("/generate_with_audio", h.GenerateWithAudio).Methods("POST")
}

// GeneratePlanRequest represents a planning request. When core_values is
// empty the stored values are used.
type GeneratePlanRequest struct {
	UserInput  string   `json:"user_input" validate:"required,max=2000"`
	CoreValues []string `json:"core_values" validate:"max=50,dive,max=100"`
}

// Generate asks the planning assistant for a structured plan that fits today's free slots
func (h *PlannerHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GeneratePlanRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	input := validation.SanitizeText(req.UserInput)
	if input == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "user_input cannot be empty after sanitization")
		return
	}

	h.generate(r.Context(), w, input, req.CoreValues)
}

// GenerateWithAudio accepts a multipart form with an optional audio_file
// voice note, optional user_input text and core_values as a JSON array. The
// transcript is planned together with the typed text.
func (h *PlannerHandler) GenerateWithAudio(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", "Audio upload is too large")
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Request must be multipart/form-data")
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			h.logger.Debug("multipart_cleanup_failed", zap.Error(err))
		}
	}()

	typed := validation.SanitizeText(r.FormValue("user_input"))
	if utf8.RuneCountInString(typed) > MaxPlannerInputLength {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "user_input is too long")
		return
	}

	values, err := parseFormValues(r.FormValue("core_values"))
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	ctx := r.Context()
	parts := []string{}
	file, header, err := r.FormFile("audio_file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid audio_file upload")
		return
	default:
		defer func() { _ = file.Close() }()
		transcript, err := h.transcriber.Transcribe(ctx, planner.Audio{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        file,
		})
		var apiErr *planner.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusBadRequest {
			h.logger.Info("planner_audio_rejected", zap.String("code", apiErr.Code))
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "audio_file could not be transcribed")
			return
		}
		if err != nil {
			h.respondPlannerError(w, err)
			return
		}
		if transcript = validation.SanitizeText(transcript); transcript != "" {
			parts = append(parts, transcript)
		}
	}
	if typed != "" {
		parts = append(parts, typed)
	}
	if len(parts) == 0 {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "audio_file or user_input is required")
		return
	}

	h.generate(ctx, w, strings.Join(parts, "\n"), values)
}

// parseFormValues decodes the core_values form field. An empty field means
// the stored values are used.
func parseFormValues(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, errors.New("core_values must be a JSON array of strings")
	}
	if len(values) > maxCoreValues {
		return nil, errors.New("too many core_values")
	}
	for _, v := range values {
		if utf8.RuneCountInString(v) > maxValueLength {
			return nil, errors.New("core_values entry is too long")
		}
	}
	return values, nil
}

func (h *PlannerHandler) generate(ctx context.Context, w http.ResponseWriter, input string, values []string) {
	if len(values) == 0 && h.values != nil {
		stored, err := h.values.List(ctx)
		if err != nil {
			h.logger.Error("failed_to_list_values", zap.Error(err))
			respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to load core values")
			return
		}
		for _, v := range stored {
			values = append(values, v.ValueName)
		}
	}

	// A calendar outage degrades the prompt rather than failing the plan.
	slots, err := h.engine.GetFreeSlots(ctx)
	if err != nil {
		h.logger.Warn("planner_free_slots_unavailable", zap.Error(err))
		slots = nil
	}

	plan, err := h.planner.GeneratePlan(ctx, planner.Request{
		UserInput:  input,
		CoreValues: values,
		FreeSlots:  slots,
	})
	if err != nil {
		h.respondPlannerError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, plan)
}

func (h *PlannerHandler) respondPlannerError(w http.ResponseWriter, err error) {
	var apiErr *planner.APIError
	switch {
	case errors.Is(err, planner.ErrNotConfigured):
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Planning assistant is not configured")
	case errors.Is(err, planner.ErrInvalidPlan):
		h.logger.Warn("planner_invalid_plan", zap.Error(err))
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Planning assistant returned an unusable plan")
	case errors.As(err, &apiErr) && apiErr.Temporary():
		h.logger.Warn("planner_temporarily_unavailable", zap.Int("status_code", apiErr.StatusCode))
		respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Planning assistant is temporarily unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		respondJSONError(w, http.StatusGatewayTimeout, "Gateway Timeout", "Planning assistant timed out")
	default:
		h.logger.Error("planner_failed", zap.Error(err))
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Planning assistant request failed")
	}
}
