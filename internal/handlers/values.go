package handlers

import (
	"errors"
	"net/http"

	"github.com/SebastianMoseres/Praxable/internal/database"
	"github.com/SebastianMoseres/Praxable/internal/models"
	"github.com/SebastianMoseres/Praxable/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// MaxValueNameLength is the maximum length of a core value name
const MaxValueNameLength = 100

// ValueHandler handles core value requests
type ValueHandler struct {
	repo   database.CoreValueRepositoryInterface
	logger *zap.Logger
}

// NewValueHandler creates a new core value handler
func NewValueHandler(repo database.CoreValueRepositoryInterface, logger *zap.Logger) *ValueHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ValueHandler{repo: repo, logger: logger}
}

// RegisterRoutes registers value routes on a router already prefixed with /values
func (h *ValueHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListValues).Methods("GET")
	r.HandleFunc("", h.CreateValue).Methods("POST")
	r.HandleFunc("/{name}", h.DeleteValue).Methods("DELETE")
}

// CreateValueRequest represents a create value request
type CreateValueRequest struct {
	ValueName string `json:"value_name" validate:"required,max=100"`
}

// ListValues returns every core value
func (h *ValueHandler) ListValues(w http.ResponseWriter, r *http.Request) {
	values, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed_to_list_values", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve values")
		return
	}
	if values == nil {
		values = []models.CoreValue{}
	}
	respondJSON(w, http.StatusOK, values)
}

// CreateValue adds a core value. Names are unique.
func (h *ValueHandler) CreateValue(w http.ResponseWriter, r *http.Request) {
	var req CreateValueRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	name := validation.SanitizeText(req.ValueName)
	if name == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "value_name cannot be empty after sanitization")
		return
	}

	value, err := h.repo.Create(r.Context(), name)
	if errors.Is(err, database.ErrDuplicate) {
		respondJSONError(w, http.StatusConflict, "Conflict", "Value already exists")
		return
	}
	if err != nil {
		h.logger.Error("failed_to_create_value", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create value")
		return
	}

	h.logger.Info("value_created", zap.String("value_name", value.ValueName))
	respondJSON(w, http.StatusCreated, value)
}

// DeleteValue removes a core value by name
func (h *ValueHandler) DeleteValue(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if name == "" || len(name) > MaxValueNameLength {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid value name")
		return
	}

	err := h.repo.Delete(r.Context(), name)
	if errors.Is(err, database.ErrNotFound) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Value not found")
		return
	}
	if err != nil {
		h.logger.Error("failed_to_delete_value", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete value")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
