// Package calendar adapts external calendars into busy intervals and accepts new events.
package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/SebastianMoseres/Praxable/internal/models"
)

// DefaultSummary labels events that have no title
const DefaultSummary = "Busy"

// ErrNotConfigured is returned when no calendar provider is available
var ErrNotConfigured = errors.New("calendar is not configured")

// Source supplies the busy intervals of a day, resolved to the day's location.
// All-day entries are not returned.
type Source interface {
	BusyIntervals(ctx context.Context, day time.Time) ([]models.BusyInterval, error)
}

// EventSink accepts new events
type EventSink interface {
	AddEvent(ctx context.Context, event models.CalendarEvent) (*models.CalendarEvent, error)
}

// Calendar is a provider that can both list and create events
type Calendar interface {
	Source
	EventSink
}

// Noop is the calendar used when no provider is configured. It reports an
// empty day and rejects new events.
type Noop struct{}

var _ Calendar = Noop{}

// BusyIntervals returns no intervals
func (Noop) BusyIntervals(context.Context, time.Time) ([]models.BusyInterval, error) {
	return nil, nil
}

// AddEvent always fails with ErrNotConfigured
func (Noop) AddEvent(context.Context, models.CalendarEvent) (*models.CalendarEvent, error) {
	return nil, ErrNotConfigured
}

// DayBounds returns midnight at the start of day and midnight of the following day
func DayBounds(day time.Time) (time.Time, time.Time) {
	y, m, d := day.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, day.Location())
	return start, start.AddDate(0, 0, 1)
}
