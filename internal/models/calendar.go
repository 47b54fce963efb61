package models

// CalendarEvent is an event as exchanged with the calendar provider.
// Start and End are RFC 3339 timestamps.
type CalendarEvent struct {
	ID       string `json:"id,omitempty"`
	Summary  string `json:"summary"`
	Start    string `json:"start"`
	End      string `json:"end"`
	HTMLLink string `json:"html_link,omitempty"`
}
