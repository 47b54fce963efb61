package models

// PlannedTask is a candidate task extracted by the planning assistant
type PlannedTask struct {
	TaskName       string `json:"task_name"`
	TaskType       string `json:"task_type"`
	TimePreference string `json:"time_preference"`
	AlignedValue   string `json:"aligned_value"`
}
