package handlers

import (
	"context"
	"net/http"

	"github.com/SebastianMoseres/Praxable/internal/models"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// AnalyticsSource aggregates logged tasks
type AnalyticsSource interface {
	AlignmentAnalytics(ctx context.Context) (*models.AlignmentAnalytics, error)
}

// AnalyticsHandler serves value-alignment analytics
type AnalyticsHandler struct {
	source AnalyticsSource
	logger *zap.Logger
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(source AnalyticsSource, logger *zap.Logger) *AnalyticsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsHandler{source: source, logger: logger}
}

// RegisterRoutes registers analytics routes on a router already prefixed with /analytics
func (h *AnalyticsHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/alignment", h.GetAlignment).Methods("GET")
}

// GetAlignment returns the task count and average fulfillment per aligned value
func (h *AnalyticsHandler) GetAlignment(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.source.AlignmentAnalytics(r.Context())
	if err != nil {
		h.logger.Error("failed_to_compute_analytics", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to compute analytics")
		return
	}
	if analytics.Breakdown == nil {
		analytics.Breakdown = []models.ValueBreakdown{}
	}
	respondJSON(w, http.StatusOK, analytics)
}
