package queue

import (
	"time"

	"github.com/google/uuid"
)

// JobType represents the type of job
type JobType string

const (
	// JobTypeRetrainModel refits the fulfillment model from stored feedback
	JobTypeRetrainModel JobType = "retrain_model"
)

// DefaultMaxRetries is the retry budget of a new job
const DefaultMaxRetries = 3

// Job represents a job in the queue
type Job struct {
	ID         uuid.UUID      `json:"id"`
	Type       JobType        `json:"type"`
	TaskID     *int64         `json:"task_id,omitempty"`    // task whose feedback triggered the job
	NotBefore  *time.Time     `json:"not_before,omitempty"` // nil = immediate
	NotAfter   *time.Time     `json:"not_after,omitempty"`  // nil = never expires
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	RetryCount int            `json:"retry_count"`
	MaxRetries int            `json:"max_retries"`
}

// NewJob creates a new job
func NewJob(jobType JobType, taskID *int64) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		TaskID:     taskID,
		Metadata:   make(map[string]any),
		CreatedAt:  time.Now(),
		MaxRetries: DefaultMaxRetries,
	}
}

// NewRetrainJob creates a model retrain job held back by debounce so that a
// burst of feedback results in a single effective retrain.
func NewRetrainJob(taskID *int64, debounce time.Duration) *Job {
	job := NewJob(JobTypeRetrainModel, taskID)
	if debounce > 0 {
		notBefore := job.CreatedAt.Add(debounce)
		job.NotBefore = &notBefore
	}
	return job
}

// ShouldProcess checks if the job should be processed now
func (j *Job) ShouldProcess() bool {
	return j.ShouldProcessAt(time.Now())
}

// ShouldProcessAt checks if the job is inside its processing window at now
func (j *Job) ShouldProcessAt(now time.Time) bool {
	if j.NotBefore != nil && now.Before(*j.NotBefore) {
		return false
	}
	return !j.expiredAt(now)
}

// IsExpired checks if the job has passed NotAfter
func (j *Job) IsExpired() bool {
	return j.expiredAt(time.Now())
}

func (j *Job) expiredAt(now time.Time) bool {
	return j.NotAfter != nil && now.After(*j.NotAfter)
}

// CanRetry checks if the job can be retried
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// IncrementRetry increments the retry count
func (j *Job) IncrementRetry() {
	j.RetryCount++
}
