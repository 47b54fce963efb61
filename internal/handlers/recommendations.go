package handlers

import (
	"net/http"

	"github.com/SebastianMoseres/Praxable/internal/models"
	"github.com/SebastianMoseres/Praxable/internal/recommend"
	"github.com/SebastianMoseres/Praxable/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ReasonNoFit explains an empty recommendation list
const ReasonNoFit = "no fit found"

// RecommendationHandler serves the activity catalog and ranked suggestions
type RecommendationHandler struct {
	engine Engine
	logger *zap.Logger
}

// NewRecommendationHandler creates a new recommendation handler
func NewRecommendationHandler(engine Engine, logger *zap.Logger) *RecommendationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecommendationHandler{engine: engine, logger: logger}
}

// RegisterRoutes registers routes on a router already prefixed with /recommendations
func (h *RecommendationHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/activities", h.ListActivities).Methods("GET")
	r.HandleFunc("/suggest", h.Suggest).Methods("POST")
}

// SuggestRequest represents a recommendation request. Energy and mood are
// optional and default to the midpoint.
type SuggestRequest struct {
	ValueNames  []string `json:"value_names" validate:"max=50,dive,max=100"`
	MinDuration int      `json:"min_duration" validate:"gte=0,lte=1440"`
	EnergyLevel int      `json:"energy_level,omitempty" validate:"omitempty,score_1_10"`
	MoodBefore  int      `json:"mood_before,omitempty" validate:"omitempty,score_1_10"`
}

// SuggestResponse carries ranked recommendations or the reason there are none
type SuggestResponse struct {
	Recommendations []models.Recommendation `json:"recommendations"`
	Reason          string                  `json:"reason,omitempty"`
}

// ListActivities returns the full activity catalog
func (h *RecommendationHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.engine.Activities())
}

// Suggest ranks catalog activities against the selected values and today's free time
func (h *RecommendationHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	var req SuggestRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	values := make([]string, 0, len(req.ValueNames))
	for _, v := range req.ValueNames {
		if v = validation.SanitizeText(v); v != "" {
			values = append(values, v)
		}
	}

	recs, err := h.engine.GetRecommendations(r.Context(), values, req.MinDuration, recommend.Context{
		EnergyLevel: req.EnergyLevel,
		MoodBefore:  req.MoodBefore,
	})
	if err != nil {
		h.logger.Warn("failed_to_rank_recommendations", zap.Error(err))
		respondEngineError(w, err, "Failed to compute recommendations")
		return
	}

	resp := SuggestResponse{Recommendations: recs}
	if len(recs) == 0 {
		resp.Recommendations = []models.Recommendation{}
		resp.Reason = ReasonNoFit
	}
	respondJSON(w, http.StatusOK, resp)
}
