package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/SebastianMoseres/Praxable/internal/alignment"
	"github.com/SebastianMoseres/Praxable/internal/models"
	"github.com/SebastianMoseres/Praxable/internal/recommend"
	"github.com/SebastianMoseres/Praxable/internal/validation"
	"github.com/gorilla/mux"
)

// maxErrorMessageLength bounds messages returned to clients
const maxErrorMessageLength = 200

// Engine is the alignment engine as seen by the HTTP layer
type Engine interface {
	BusyIntervals(ctx context.Context) ([]models.BusyInterval, error)
	GetFreeSlots(ctx context.Context) ([]models.FreeSlot, error)
	Predict(taskType, alignedValue string, energy, mood int) *float64
	GetRecommendations(ctx context.Context, values []string, minDuration int, c recommend.Context) ([]models.Recommendation, error)
	Activities() []models.Activity
}

var _ Engine = (*alignment.Service)(nil)

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   true,
		"data":      data,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// sanitizeErrorMessage truncates messages so internal detail cannot leak in bulk
func sanitizeErrorMessage(message string) string {
	if len(message) > maxErrorMessageLength {
		return message[:maxErrorMessageLength] + "..."
	}
	return message
}

// respondJSONError sends an error JSON response with sanitized error messages
func respondJSONError(w http.ResponseWriter, status int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success":   false,
		"error":     errorType,
		"message":   sanitizeErrorMessage(message),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// It writes the error response itself and reports whether decoding succeeded.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large",
				fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return false
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return false
	}

	if err := validation.Validate.Struct(dst); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed: "+validation.Message(err))
		return false
	}
	return true
}

// pathID parses the {id} route variable
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", mux.Vars(r)["id"])
	}
	return id, nil
}

// respondEngineError maps calendar failures to 502 and everything else to 500
func respondEngineError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, alignment.ErrCalendarUnavailable) {
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Calendar provider is unavailable")
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		respondJSONError(w, http.StatusGatewayTimeout, "Gateway Timeout", message)
		return
	}
	respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", message)
}
