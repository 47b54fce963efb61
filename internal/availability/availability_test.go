package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/SebastianMoseres/Praxable/internal/models"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, 3, 4, hour, minute, 0, 0, time.UTC)
}

func busy(sh, sm, eh, em int, label string) models.BusyInterval {
	return models.BusyInterval{Start: at(sh, sm), End: at(eh, em), Label: label}
}

type span struct {
	start, end string
	minutes    int
}

func spans(slots []models.FreeSlot) []span {
	out := make([]span, 0, len(slots))
	for _, s := range slots {
		out = append(out, span{
			start:   s.Start.Format(models.ClockLayout),
			end:     s.End.Format(models.ClockLayout),
			minutes: s.DurationMinutes,
		})
	}
	return out
}

func TestComputeFreeSlots(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		busy []models.BusyInterval
		now  time.Time
		want []span
	}{
		{
			name: "two meetings",
			busy: []models.BusyInterval{
				busy(10, 0, 11, 0, "Standup"),
				busy(14, 0, 15, 30, "Review"),
			},
			now: at(9, 0),
			want: []span{
				{"09:00", "10:00", 60},
				{"11:00", "14:00", 180},
				{"15:30", "22:00", 390},
			},
		},
		{
			name: "no busy intervals",
			now:  at(20, 0),
			want: []span{{"20:00", "22:00", 120}},
		},
		{
			name: "overlapping intervals collapse",
			busy: []models.BusyInterval{
				busy(10, 0, 12, 0, "a"),
				busy(11, 0, 11, 30, "b"),
				busy(11, 45, 13, 0, "c"),
			},
			now: at(9, 0),
			want: []span{
				{"09:00", "10:00", 60},
				{"13:00", "22:00", 540},
			},
		},
		{
			name: "gap of exactly the threshold is suppressed",
			busy: []models.BusyInterval{
				busy(9, 15, 21, 0, "long"),
			},
			now: at(9, 0),
			want: []span{
				{"21:00", "22:00", 60},
			},
		},
		{
			name: "gap just over the threshold is kept",
			busy: []models.BusyInterval{
				busy(9, 16, 21, 44, "long"),
			},
			now: at(9, 0),
			want: []span{
				{"09:00", "09:16", 16},
				{"21:44", "22:00", 16},
			},
		},
		{
			name: "intervals already over are ignored",
			busy: []models.BusyInterval{
				busy(7, 0, 8, 0, "breakfast"),
			},
			now:  at(21, 0),
			want: []span{{"21:00", "22:00", 60}},
		},
		{
			name: "interval in progress moves cursor",
			busy: []models.BusyInterval{
				busy(8, 0, 10, 0, "in progress"),
			},
			now:  at(9, 0),
			want: []span{{"10:00", "22:00", 720}},
		},
		{
			name: "unsorted input",
			busy: []models.BusyInterval{
				busy(15, 0, 16, 0, "later"),
				busy(12, 0, 13, 0, "earlier"),
			},
			now: at(11, 0),
			want: []span{
				{"11:00", "12:00", 60},
				{"13:00", "15:00", 120},
				{"16:00", "22:00", 360},
			},
		},
		{
			name: "interval past day end is clipped",
			busy: []models.BusyInterval{
				busy(21, 0, 23, 0, "late"),
			},
			now:  at(19, 0),
			want: []span{{"19:00", "21:00", 120}},
		},
		{
			name: "interval starting after day end is ignored",
			busy: []models.BusyInterval{
				busy(22, 30, 23, 0, "night"),
			},
			now:  at(21, 0),
			want: []span{{"21:00", "22:00", 60}},
		},
		{
			name: "malformed interval is dropped",
			busy: []models.BusyInterval{
				busy(12, 0, 11, 0, "inverted"),
			},
			now:  at(11, 0),
			want: []span{{"11:00", "22:00", 660}},
		},
		{
			name: "now after day end",
			now:  at(22, 30),
			want: []span{},
		},
		{
			name: "now equal to day end",
			now:  at(22, 0),
			want: []span{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ComputeFreeSlots(tt.busy, tt.now, at(22, 0), DefaultMinGap)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, spans(got))
		})
	}
}

func TestComputeFreeSlots_Invariants(t *testing.T) {
	t.Parallel()

	intervals := []models.BusyInterval{
		busy(9, 30, 10, 0, "a"),
		busy(9, 45, 10, 30, "b"),
		busy(12, 0, 12, 10, "c"),
		busy(12, 20, 13, 0, "d"),
		busy(17, 0, 18, 0, "e"),
	}
	now := at(8, 50)
	dayEnd := at(22, 0)

	first := ComputeFreeSlots(intervals, now, dayEnd, DefaultMinGap)
	second := ComputeFreeSlots(intervals, now, dayEnd, DefaultMinGap)
	assert.Equal(t, first, second, "same inputs must give same output")

	for i, slot := range first {
		assert.Greater(t, slot.End.Sub(slot.Start), DefaultMinGap)
		assert.False(t, slot.Start.Before(now))
		assert.False(t, slot.End.After(dayEnd))
		if i > 0 {
			assert.False(t, slot.Start.Before(first[i-1].End), "slots must be chronological and disjoint")
		}
		for _, iv := range intervals {
			overlaps := slot.Start.Before(iv.End) && iv.Start.Before(slot.End)
			assert.False(t, overlaps, "slot %v overlaps %s", spans([]models.FreeSlot{slot}), iv.Label)
		}
	}
}

func TestComputeFreeSlots_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	intervals := []models.BusyInterval{
		busy(15, 0, 16, 0, "later"),
		busy(12, 0, 13, 0, "earlier"),
	}
	ComputeFreeSlots(intervals, at(9, 0), at(22, 0), DefaultMinGap)
	assert.Equal(t, "later", intervals[0].Label)
	assert.Equal(t, "earlier", intervals[1].Label)
}

func TestFinder_FreeSlotsLogsDroppedIntervals(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	finder := NewFinder(zap.New(core), 0)
	assert.Equal(t, DefaultMinGap, finder.MinGap())

	slots := finder.FreeSlots([]models.BusyInterval{
		busy(12, 0, 12, 0, "empty"),
		busy(13, 0, 14, 0, "ok"),
	}, at(12, 0), at(22, 0))

	assert.Equal(t, []span{
		{"12:00", "13:00", 60},
		{"14:00", "22:00", 480},
	}, spans(slots))

	entries := logs.FilterMessage("busy_interval_dropped").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "empty", entries[0].ContextMap()["label"])
}

func TestDayEnd(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("test", -5*60*60)
	now := time.Date(2024, 3, 4, 9, 12, 0, 0, loc)

	end, err := DayEnd(now, "22:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 4, 22, 0, 0, 0, loc), end)

	_, err = DayEnd(now, "late")
	assert.Error(t, err)
}

func TestComputeFreeSlots_StandupAndLunch(t *testing.T) {
	t.Parallel()

	got := ComputeFreeSlots([]models.BusyInterval{
		busy(9, 0, 9, 30, "Standup"),
		busy(13, 0, 14, 0, "Lunch"),
	}, at(8, 0), at(22, 0), DefaultMinGap)

	assert.Equal(t, []span{
		{"08:00", "09:00", 60},
		{"09:30", "13:00", 210},
		{"14:00", "22:00", 480},
	}, spans(got))
}

func TestComputeFreeSlots_GapBetweenMeetings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		gap     int
		wantGap bool
	}{
		{"ten minutes", 10, false},
		{"sixteen minutes", 16, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ComputeFreeSlots([]models.BusyInterval{
				busy(9, 0, 10, 0, "first"),
				busy(10, tt.gap, 21, 50, "second"),
			}, at(9, 0), at(22, 0), DefaultMinGap)

			var between []models.FreeSlot
			for _, s := range got {
				if s.Start.Equal(at(10, 0)) {
					between = append(between, s)
				}
			}
			if tt.wantGap {
				require.Len(t, between, 1)
				assert.Equal(t, tt.gap, between[0].DurationMinutes)
			} else {
				assert.Empty(t, between)
			}
		})
	}
}

func TestComputeFreeSlots_CoverageInvariant(t *testing.T) {
	t.Parallel()

	now, dayEnd := at(8, 0), at(22, 0)
	intervals := []models.BusyInterval{
		busy(9, 0, 10, 0, "a"),
		busy(9, 30, 10, 30, "b"),
		busy(10, 40, 11, 0, "c"),
		busy(15, 0, 16, 0, "d"),
	}
	slots := ComputeFreeSlots(intervals, now, dayEnd, DefaultMinGap)

	// Walk the day minute by minute: every minute is busy, free, or part of a
	// suppressed gap no longer than the threshold.
	for m := now; m.Before(dayEnd); m = m.Add(time.Minute) {
		inBusy, inFree := false, 0
		for _, iv := range intervals {
			if !m.Before(iv.Start) && m.Before(iv.End) {
				inBusy = true
			}
		}
		for _, s := range slots {
			if !m.Before(s.Start) && m.Before(s.End) {
				inFree++
			}
		}
		assert.LessOrEqual(t, inFree, 1, "minute %s counted twice", m.Format(models.ClockLayout))
		if inBusy {
			assert.Zero(t, inFree, "minute %s is both busy and free", m.Format(models.ClockLayout))
		}
	}

	assert.Equal(t, []span{
		{"08:00", "09:00", 60},
		{"11:00", "15:00", 240},
		{"16:00", "22:00", 360},
	}, spans(slots))
}
