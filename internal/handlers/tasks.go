package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/SebastianMoseres/Praxable/internal/database"
	"github.com/SebastianMoseres/Praxable/internal/models"
	"github.com/SebastianMoseres/Praxable/internal/queue"
	"github.com/SebastianMoseres/Praxable/internal/validation"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	// MaxTaskTextLength is the maximum length for a task description
	MaxTaskTextLength = 500
	// DefaultRetrainDebounce delays retrain jobs so bursts of feedback coalesce
	DefaultRetrainDebounce = 5 * time.Second
)

// TaskHandler handles task logging and feedback requests
type TaskHandler struct {
	repo         database.TaskRepositoryInterface
	jobQueue     queue.JobQueue
	retrainDelay time.Duration
	now          func() time.Time
	logger       *zap.Logger
}

// TaskHandlerOption configures a TaskHandler
type TaskHandlerOption func(*TaskHandler)

// WithTaskJobQueue enqueues a debounced retrain job whenever feedback changes
func WithTaskJobQueue(q queue.JobQueue, debounce time.Duration) TaskHandlerOption {
	return func(h *TaskHandler) {
		h.jobQueue = q
		if debounce > 0 {
			h.retrainDelay = debounce
		}
	}
}

// WithTaskClock overrides the clock used to stamp feedback
func WithTaskClock(now func() time.Time) TaskHandlerOption {
	return func(h *TaskHandler) {
		h.now = now
	}
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(repo database.TaskRepositoryInterface, logger *zap.Logger, opts ...TaskHandlerOption) *TaskHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &TaskHandler{
		repo:         repo,
		retrainDelay: DefaultRetrainDebounce,
		now:          time.Now,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers task routes on a router already prefixed with /tasks
func (h *TaskHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListTasks).Methods("GET")
	r.HandleFunc("", h.CreateTask).Methods("POST")
	r.HandleFunc("/{id}", h.UpdateTask).Methods("PATCH")
	r.HandleFunc("/{id}/feedback", h.SaveFeedback).Methods("POST")
}

// flexBool accepts JSON booleans as well as 0/1, which older clients send
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	switch strings.TrimSpace(string(data)) {
	case "true", "1":
		*b = true
		return nil
	case "false", "0", "null":
		*b = false
		return nil
	}
	v, err := strconv.ParseBool(strings.Trim(string(data), `"`))
	if err != nil {
		return errors.New("did_it must be a boolean or 0/1")
	}
	*b = flexBool(v)
	return nil
}

// CreateTaskRequest represents a log task request
type CreateTaskRequest struct {
	Date         string   `json:"date" validate:"required,datetime=2006-01-02"`
	Task         string   `json:"task" validate:"required,max=500"`
	TaskType     string   `json:"task_type" validate:"required,max=100"`
	AlignedValue string   `json:"aligned_value" validate:"required,max=100"`
	DreadLevel   int      `json:"dread_level" validate:"score_1_10"`
	Location     string   `json:"location" validate:"max=200"`
	PlannedTime  string   `json:"planned_time" validate:"max=20"`
	ActualTime   string   `json:"actual_time" validate:"max=20"`
	DidIt        flexBool `json:"did_it"`
	MoodBefore   int      `json:"mood_before" validate:"score_1_10"`
	SleepQuality int      `json:"sleep_quality" validate:"score_1_10"`
	EnergyLevel  int      `json:"energy_level" validate:"score_1_10"`
}

// FeedbackRequest represents a post-task rating
type FeedbackRequest struct {
	MoodAfter        int `json:"mood_after" validate:"score_1_10"`
	FulfillmentScore int `json:"fulfillment_score" validate:"score_1_10"`
}

// UpdateTaskRequest is the set of fields that may be edited after logging.
// Unknown fields are ignored.
type UpdateTaskRequest struct {
	Task             *string `json:"task,omitempty" validate:"omitempty,max=500"`
	TaskType         *string `json:"task_type,omitempty" validate:"omitempty,max=100"`
	AlignedValue     *string `json:"aligned_value,omitempty" validate:"omitempty,max=100"`
	DreadLevel       *int    `json:"dread_level,omitempty" validate:"omitempty,score_1_10"`
	MoodAfter        *int    `json:"mood_after,omitempty" validate:"omitempty,score_1_10"`
	FulfillmentScore *int    `json:"fulfillment_score,omitempty" validate:"omitempty,score_1_10"`
	EnergyLevel      *int    `json:"energy_level,omitempty" validate:"omitempty,score_1_10"`
	MoodBefore       *int    `json:"mood_before,omitempty" validate:"omitempty,score_1_10"`
}

func sanitizedPtr(s *string) (*string, bool) {
	if s == nil {
		return nil, true
	}
	v := validation.SanitizeText(*s)
	return &v, v != ""
}

// toUpdate sanitizes text fields; ok is false when a text field is blank
func (req UpdateTaskRequest) toUpdate() (u models.TaskUpdate, ok bool) {
	var okTask, okType, okValue bool
	u.Task, okTask = sanitizedPtr(req.Task)
	u.TaskType, okType = sanitizedPtr(req.TaskType)
	u.AlignedValue, okValue = sanitizedPtr(req.AlignedValue)
	u.DreadLevel = req.DreadLevel
	u.MoodAfter = req.MoodAfter
	u.FulfillmentScore = req.FulfillmentScore
	u.EnergyLevel = req.EnergyLevel
	u.MoodBefore = req.MoodBefore
	return u, okTask && okType && okValue
}

// ListTasks returns every logged task, most recent first
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("failed_to_list_tasks", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve tasks")
		return
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}
	respondJSON(w, http.StatusOK, tasks)
}

// CreateTask logs a new task
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task := &models.Task{
		Date:         req.Date,
		Task:         validation.SanitizeText(req.Task),
		TaskType:     validation.SanitizeText(req.TaskType),
		AlignedValue: validation.SanitizeText(req.AlignedValue),
		DreadLevel:   req.DreadLevel,
		Location:     validation.SanitizeText(req.Location),
		PlannedTime:  strings.TrimSpace(req.PlannedTime),
		ActualTime:   strings.TrimSpace(req.ActualTime),
		DidIt:        bool(req.DidIt),
		MoodBefore:   req.MoodBefore,
		SleepQuality: req.SleepQuality,
		EnergyLevel:  req.EnergyLevel,
	}
	if task.Task == "" || task.TaskType == "" || task.AlignedValue == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "task, task_type and aligned_value cannot be empty after sanitization")
		return
	}

	if err := h.repo.Create(r.Context(), task); err != nil {
		h.logger.Error("failed_to_create_task", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create task")
		return
	}

	h.logger.Info("task_logged",
		zap.Int64("task_id", task.ID),
		zap.String("task_type", task.TaskType),
		zap.String("aligned_value", task.AlignedValue),
	)
	respondJSON(w, http.StatusCreated, task)
}

// UpdateTask applies an allow-listed partial update
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid task ID")
		return
	}

	var req UpdateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	update, ok := req.toUpdate()
	if !ok {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Text fields cannot be empty after sanitization")
		return
	}
	if update.Empty() {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "No updatable fields provided")
		return
	}

	task, err := h.repo.Update(r.Context(), id, update)
	if errors.Is(err, database.ErrNotFound) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}
	if err != nil {
		h.logger.Error("failed_to_update_task", zap.Int64("task_id", id), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update task")
		return
	}

	if affectsTraining(update) && task.FulfillmentScore != nil {
		h.enqueueRetrain(r.Context(), id)
	}
	respondJSON(w, http.StatusOK, task)
}

// affectsTraining reports whether the update touches a model feature or label
func affectsTraining(u models.TaskUpdate) bool {
	return u.TaskType != nil || u.AlignedValue != nil || u.FulfillmentScore != nil ||
		u.EnergyLevel != nil || u.MoodBefore != nil
}

// SaveFeedback records mood_after and fulfillment_score, marks the task done
// and schedules a model refresh.
func (h *TaskHandler) SaveFeedback(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid task ID")
		return
	}

	var req FeedbackRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.repo.RecordFeedback(r.Context(), id, models.TaskFeedback{
		MoodAfter:        req.MoodAfter,
		FulfillmentScore: req.FulfillmentScore,
	}, h.now())
	if errors.Is(err, database.ErrNotFound) {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Task not found")
		return
	}
	if err != nil {
		h.logger.Error("failed_to_save_feedback", zap.Int64("task_id", id), zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to save feedback")
		return
	}

	h.logger.Info("task_feedback_saved",
		zap.Int64("task_id", id),
		zap.Int("fulfillment_score", req.FulfillmentScore),
	)
	h.enqueueRetrain(r.Context(), id)
	respondJSON(w, http.StatusOK, task)
}

// enqueueRetrain schedules a debounced retrain. Failures are logged, not
// surfaced: the feedback is already stored and the daily retrain picks it up.
func (h *TaskHandler) enqueueRetrain(ctx context.Context, taskID int64) {
	if h.jobQueue == nil {
		h.logger.Debug("job_queue_not_available", zap.Int64("task_id", taskID))
		return
	}
	job := queue.NewRetrainJob(&taskID, h.retrainDelay)
	if err := h.jobQueue.Enqueue(ctx, job); err != nil {
		h.logger.Error("failed_to_enqueue_retrain_job",
			zap.Int64("task_id", taskID),
			zap.Error(err),
		)
		return
	}
	h.logger.Info("enqueued_retrain_job",
		zap.Int64("task_id", taskID),
		zap.String("job_id", job.ID.String()),
		zap.Duration("debounce_delay", h.retrainDelay),
	)
}
