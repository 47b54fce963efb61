package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SebastianMoseres/Praxable/internal/queue"
)

func TestRetrainScheduler_ScheduleRetrainJobs(t *testing.T) {
	t.Parallel()

	jq := &mockJobQueue{}
	s := NewRetrainScheduler(jq, nil, time.UTC, nil)
	s.now = func() time.Time { return time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC) }

	if err := s.ScheduleRetrainJobs(context.Background()); err != nil {
		t.Fatalf("ScheduleRetrainJobs() error = %v", err)
	}

	jobs := jq.jobs()
	if len(jobs) != 2 {
		t.Fatalf("enqueued %d jobs, want 2", len(jobs))
	}

	want := []time.Time{
		time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 4, 20, 0, 0, 0, time.UTC),
	}
	for i, job := range jobs {
		if job.Type != queue.JobTypeRetrainModel {
			t.Errorf("job %d type = %s", i, job.Type)
		}
		if job.NotBefore == nil || !job.NotBefore.Equal(want[i]) {
			t.Errorf("job %d NotBefore = %v, want %v", i, job.NotBefore, want[i])
		}
		if job.NotAfter == nil || !job.NotAfter.Equal(want[i].Add(24*time.Hour)) {
			t.Errorf("job %d NotAfter = %v, want %v", i, job.NotAfter, want[i].Add(24*time.Hour))
		}
	}
}

func TestRetrainScheduler_EnqueueFailureContinues(t *testing.T) {
	t.Parallel()

	calls := 0
	jq := &mockJobQueue{enqueueFunc: func(context.Context, *queue.Job) error {
		calls++
		return errors.New("broker gone")
	}}
	s := NewRetrainScheduler(jq, []string{"08:00", "20:00"}, time.UTC, nil)

	if err := s.ScheduleRetrainJobs(context.Background()); err != nil {
		t.Fatalf("ScheduleRetrainJobs() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("Enqueue called %d times, want 2", calls)
	}
}

func TestRetrainScheduler_InvalidTime(t *testing.T) {
	t.Parallel()

	s := NewRetrainScheduler(&mockJobQueue{}, []string{"25:99"}, time.UTC, nil)
	if err := s.ScheduleRetrainJobs(context.Background()); err == nil {
		t.Error("expected error for invalid time")
	}
}

func TestNextOccurrence(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 4, 20, 0, 0, 0, time.UTC)
	tests := []struct {
		hhmm string
		want time.Time
	}{
		{"20:00", time.Date(2024, 3, 5, 20, 0, 0, 0, time.UTC)},
		{"20:01", time.Date(2024, 3, 4, 20, 1, 0, 0, time.UTC)},
		{"08:00", time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := nextOccurrence(now, tt.hhmm)
		if err != nil {
			t.Fatalf("nextOccurrence(%q) error = %v", tt.hhmm, err)
		}
		if !got.Equal(tt.want) {
			t.Errorf("nextOccurrence(%q) = %v, want %v", tt.hhmm, got, tt.want)
		}
	}
}
