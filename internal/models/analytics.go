package models

// ValueBreakdown aggregates logged tasks for a single aligned value
type ValueBreakdown struct {
	ValueName      string  `json:"value_name"`
	TaskCount      int     `json:"task_count"`
	AvgFulfillment float64 `json:"avg_fulfillment"`
}

// AlignmentAnalytics summarises how logged tasks align with core values
type AlignmentAnalytics struct {
	TotalTasks int              `json:"total_tasks"`
	Breakdown  []ValueBreakdown `json:"breakdown"`
}
