package models

import (
	"encoding/json"
	"time"
)

// ClockLayout is the local-clock format used for slot boundaries on the wire
const ClockLayout = "15:04"

// BusyInterval is an externally sourced calendar block that cannot be scheduled over
type BusyInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Label string    `json:"label"`
}

// Valid reports whether the interval has a positive length
func (b BusyInterval) Valid() bool {
	return b.Start.Before(b.End)
}

// FreeSlot is a contiguous block of unscheduled time on the current day.
// Slots are derived on every request and never persisted.
type FreeSlot struct {
	Start           time.Time `json:"-"`
	End             time.Time `json:"-"`
	DurationMinutes int       `json:"duration_minutes"`
}

// NewFreeSlot builds a slot spanning [start, end) with its duration in whole minutes
func NewFreeSlot(start, end time.Time) FreeSlot {
	return FreeSlot{
		Start:           start,
		End:             end,
		DurationMinutes: int(end.Sub(start) / time.Minute),
	}
}

type freeSlotJSON struct {
	Start           string `json:"start"`
	End             string `json:"end"`
	DurationMinutes int    `json:"duration_minutes"`
}

// MarshalJSON renders the slot boundaries as "HH:MM" in the slot's own location.
// The scope is always "today", so no date or zone is emitted.
func (s FreeSlot) MarshalJSON() ([]byte, error) {
	return json.Marshal(freeSlotJSON{
		Start:           s.Start.Format(ClockLayout),
		End:             s.End.Format(ClockLayout),
		DurationMinutes: s.DurationMinutes,
	})
}
