// Package availability derives usable free-time windows from busy calendar intervals.
package availability

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/SebastianMoseres/Praxable/internal/models"
)

// DefaultMinGap is the smallest gap considered usable
const DefaultMinGap = 15 * time.Minute

// Finder computes free slots with a configured usability threshold
type Finder struct {
	logger *zap.Logger
	minGap time.Duration
}

// NewFinder creates a Finder. A non-positive minGap falls back to DefaultMinGap.
func NewFinder(logger *zap.Logger, minGap time.Duration) *Finder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if minGap <= 0 {
		minGap = DefaultMinGap
	}
	return &Finder{logger: logger, minGap: minGap}
}

// MinGap returns the configured threshold
func (f *Finder) MinGap() time.Duration {
	return f.minGap
}

// FreeSlots returns the free windows between now and dayEnd, logging dropped intervals
func (f *Finder) FreeSlots(busy []models.BusyInterval, now, dayEnd time.Time) []models.FreeSlot {
	valid := make([]models.BusyInterval, 0, len(busy))
	for _, iv := range busy {
		if !iv.Valid() {
			f.logger.Warn("busy_interval_dropped",
				zap.String("label", iv.Label),
				zap.Time("start", iv.Start),
				zap.Time("end", iv.End))
			continue
		}
		valid = append(valid, iv)
	}

	slots := ComputeFreeSlots(valid, now, dayEnd, f.minGap)
	f.logger.Debug("free_slots_computed",
		zap.Int("busy_intervals", len(valid)),
		zap.Int("free_slots", len(slots)),
		zap.Time("now", now),
		zap.Time("day_end", dayEnd))
	return slots
}

// ComputeFreeSlots sweeps a cursor from now to dayEnd and emits every gap
// strictly longer than minGap. Intervals with End <= Start are ignored and
// the input slice is not modified. Output is in chronological order.
func ComputeFreeSlots(busy []models.BusyInterval, now, dayEnd time.Time, minGap time.Duration) []models.FreeSlot {
	slots := []models.FreeSlot{}
	if !now.Before(dayEnd) {
		return slots
	}

	pending := make([]models.BusyInterval, 0, len(busy))
	for _, iv := range busy {
		if iv.Valid() && iv.End.After(now) {
			pending = append(pending, iv)
		}
	}
	sort.SliceStable(pending, func(i, j int) bool {
		return pending[i].Start.Before(pending[j].Start)
	})

	cursor := now
	for _, iv := range pending {
		if !iv.Start.Before(dayEnd) {
			break
		}
		if iv.Start.Sub(cursor) > minGap {
			slots = append(slots, models.NewFreeSlot(cursor, iv.Start))
		}
		if iv.End.After(cursor) {
			cursor = iv.End
		}
		if !cursor.Before(dayEnd) {
			return slots
		}
	}

	if dayEnd.Sub(cursor) > minGap {
		slots = append(slots, models.NewFreeSlot(cursor, dayEnd))
	}
	return slots
}

// DayEnd returns the wall-clock cutoff on the same calendar day as now.
// clock is "HH:MM"; the result is in now's location.
func DayEnd(now time.Time, clock string) (time.Time, error) {
	t, err := time.Parse(models.ClockLayout, clock)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := now.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, now.Location()), nil
}
