package models

import "time"

// Task is a logged activity together with its optional post-task feedback
type Task struct {
	ID               int64     `json:"id"`
	Date             string    `json:"date"`
	Task             string    `json:"task"`
	TaskType         string    `json:"task_type"`
	AlignedValue     string    `json:"aligned_value"`
	DreadLevel       int       `json:"dread_level"`
	Location         string    `json:"location"`
	PlannedTime      string    `json:"planned_time"`
	ActualTime       string    `json:"actual_time"`
	DidIt            bool      `json:"did_it"`
	MoodBefore       int       `json:"mood_before"`
	SleepQuality     int       `json:"sleep_quality"`
	EnergyLevel      int       `json:"energy_level"`
	MoodAfter        *int      `json:"mood_after"`
	FulfillmentScore *int      `json:"fulfillment_score"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// HistoricalTaskRecord is the projection of a task used to train the fulfillment model.
// Only records with a non-nil FulfillmentScore are usable as training examples.
type HistoricalTaskRecord struct {
	TaskType         string `json:"task_type"`
	AlignedValue     string `json:"aligned_value"`
	EnergyLevel      int    `json:"energy_level"`
	MoodBefore       int    `json:"mood_before"`
	FulfillmentScore *int   `json:"fulfillment_score,omitempty"`
}

// Record projects a task onto the fields the fulfillment model consumes
func (t *Task) Record() HistoricalTaskRecord {
	return HistoricalTaskRecord{
		TaskType:         t.TaskType,
		AlignedValue:     t.AlignedValue,
		EnergyLevel:      t.EnergyLevel,
		MoodBefore:       t.MoodBefore,
		FulfillmentScore: t.FulfillmentScore,
	}
}

// TaskFeedback is the post-task rating that completes a task's feedback cycle
type TaskFeedback struct {
	MoodAfter        int `json:"mood_after"`
	FulfillmentScore int `json:"fulfillment_score"`
}

// TaskUpdate is a partial update of a task. Only these fields may be edited
// after a task is logged; nil fields are left unchanged.
type TaskUpdate struct {
	Task             *string `json:"task,omitempty"`
	TaskType         *string `json:"task_type,omitempty"`
	AlignedValue     *string `json:"aligned_value,omitempty"`
	DreadLevel       *int    `json:"dread_level,omitempty"`
	MoodAfter        *int    `json:"mood_after,omitempty"`
	FulfillmentScore *int    `json:"fulfillment_score,omitempty"`
	EnergyLevel      *int    `json:"energy_level,omitempty"`
	MoodBefore       *int    `json:"mood_before,omitempty"`
}

// Empty reports whether the update changes nothing
func (u TaskUpdate) Empty() bool {
	return u.Task == nil && u.TaskType == nil && u.AlignedValue == nil && u.DreadLevel == nil &&
		u.MoodAfter == nil && u.FulfillmentScore == nil && u.EnergyLevel == nil && u.MoodBefore == nil
}
