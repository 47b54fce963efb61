package handlers

import (
	"context"
	"net/http"

	"github.com/SebastianMoseres/Praxable/internal/fulfillment"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ReasonNotEnoughData explains an absent prediction
const ReasonNotEnoughData = "not enough data"

// Retrainer refits the fulfillment model
type Retrainer interface {
	Retrain(ctx context.Context) (fulfillment.TrainResult, error)
}

// ModelState reports whether a model is loaded
type ModelState interface {
	Trained() bool
}

// PredictHandler serves fulfillment predictions and manual retrains
type PredictHandler struct {
	engine    Engine
	retrainer Retrainer
	model     ModelState
	logger    *zap.Logger
}

// NewPredictHandler creates a new prediction handler
func NewPredictHandler(engine Engine, retrainer Retrainer, model ModelState, logger *zap.Logger) *PredictHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PredictHandler{engine: engine, retrainer: retrainer, model: model, logger: logger}
}

// RegisterRoutes registers prediction routes on a router already prefixed with /predict
func (h *PredictHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/fulfillment", h.PredictFulfillment).Methods("POST")
	r.HandleFunc("/retrain", h.Retrain).Methods("POST")
}

// PredictionRequest represents a fulfillment prediction request
type PredictionRequest struct {
	TaskType     string `json:"task_type" validate:"required,max=100"`
	AlignedValue string `json:"aligned_value" validate:"required,max=100"`
	EnergyLevel  int    `json:"energy_level" validate:"score_1_10"`
	MoodBefore   int    `json:"mood_before" validate:"score_1_10"`
}

// PredictionResponse carries a prediction or the reason there is none
type PredictionResponse struct {
	PredictedFulfillment *float64 `json:"predicted_fulfillment"`
	Reason               string   `json:"reason,omitempty"`
}

// RetrainResponse reports the outcome of a manual retrain
type RetrainResponse struct {
	Message   string `json:"message"`
	IsTrained bool   `json:"is_trained"`
	Samples   int    `json:"samples"`
	Version   string `json:"version,omitempty"`
}

// PredictFulfillment predicts how fulfilling a planned task will be
func (h *PredictHandler) PredictFulfillment(w http.ResponseWriter, r *http.Request) {
	var req PredictionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp := PredictionResponse{
		PredictedFulfillment: h.engine.Predict(req.TaskType, req.AlignedValue, req.EnergyLevel, req.MoodBefore),
	}
	if resp.PredictedFulfillment == nil {
		resp.Reason = ReasonNotEnoughData
	}
	respondJSON(w, http.StatusOK, resp)
}

// Retrain refits the model synchronously from every scored task
func (h *PredictHandler) Retrain(w http.ResponseWriter, r *http.Request) {
	result, err := h.retrainer.Retrain(r.Context())
	if err != nil {
		h.logger.Error("manual_retrain_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrain model")
		return
	}

	resp := RetrainResponse{
		Message:   "Model retraining triggered",
		IsTrained: h.model.Trained(),
		Samples:   result.Samples,
	}
	if result.Trained {
		resp.Version = result.Version.String()
	} else {
		resp.Message = "Not enough scored tasks to retrain the model"
	}

	h.logger.Info("manual_retrain_completed",
		zap.Bool("trained", result.Trained),
		zap.Int("samples", result.Samples),
	)
	respondJSON(w, http.StatusOK, resp)
}
