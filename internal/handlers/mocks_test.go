package handlers

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/SebastianMoseres/Praxable/internal/database"
	"github.com/SebastianMoseres/Praxable/internal/fulfillment"
	"github.com/SebastianMoseres/Praxable/internal/models"
	"github.com/SebastianMoseres/Praxable/internal/queue"
	"github.com/SebastianMoseres/Praxable/internal/recommend"
	"github.com/SebastianMoseres/Praxable/internal/services/planner"
)

type mockEngine struct {
	busy       []models.BusyInterval
	slots      []models.FreeSlot
	recs       []models.Recommendation
	activities []models.Activity
	prediction *float64
	err        error

	mu        sync.Mutex
	gotValues []string
	gotMin    int
	gotCtx    recommend.Context
}

func (m *mockEngine) BusyIntervals(context.Context) ([]models.BusyInterval, error) {
	return m.busy, m.err
}

func (m *mockEngine) GetFreeSlots(context.Context) ([]models.FreeSlot, error) {
	return m.slots, m.err
}

func (m *mockEngine) Predict(string, string, int, int) *float64 {
	return m.prediction
}

func (m *mockEngine) GetRecommendations(_ context.Context, values []string, minDuration int, c recommend.Context) ([]models.Recommendation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gotValues, m.gotMin, m.gotCtx = values, minDuration, c
	return m.recs, m.err
}

func (m *mockEngine) Activities() []models.Activity {
	return m.activities
}

type mockValueRepo struct {
	values    []models.CoreValue
	listErr   error
	createErr error
	deleteErr error
}

func (m *mockValueRepo) List(context.Context) ([]models.CoreValue, error) {
	return m.values, m.listErr
}

func (m *mockValueRepo) Create(_ context.Context, name string) (*models.CoreValue, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	v := models.CoreValue{ID: int64(len(m.values) + 1), ValueName: name}
	m.values = append(m.values, v)
	return &v, nil
}

func (m *mockValueRepo) Delete(context.Context, string) error {
	return m.deleteErr
}

var _ database.CoreValueRepositoryInterface = (*mockValueRepo)(nil)

type mockTaskRepo struct {
	mu         sync.Mutex
	tasks      map[int64]*models.Task
	nextID     int64
	err        error
	feedbackAt time.Time
	lastUpdate models.TaskUpdate
	analytics  *models.AlignmentAnalytics
}

func newMockTaskRepo() *mockTaskRepo {
	return &mockTaskRepo{tasks: map[int64]*models.Task{}, nextID: 1}
}

func (m *mockTaskRepo) Create(_ context.Context, task *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	task.ID = m.nextID
	m.nextID++
	m.tasks[task.ID] = task
	return nil
}

func (m *mockTaskRepo) GetByID(_ context.Context, id int64) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return t, nil
}

func (m *mockTaskRepo) List(context.Context) ([]*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]*models.Task, 0, len(m.tasks))
	for id := m.nextID - 1; id > 0; id-- {
		if t, ok := m.tasks[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *mockTaskRepo) RecordFeedback(_ context.Context, id int64, fb models.TaskFeedback, at time.Time) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	t.DidIt = true
	t.ActualTime = at.Format(models.ClockLayout)
	t.MoodAfter = &fb.MoodAfter
	t.FulfillmentScore = &fb.FulfillmentScore
	m.feedbackAt = at
	return t, nil
}

func (m *mockTaskRepo) Update(_ context.Context, id int64, u models.TaskUpdate) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	m.lastUpdate = u
	if u.AlignedValue != nil {
		t.AlignedValue = *u.AlignedValue
	}
	if u.FulfillmentScore != nil {
		t.FulfillmentScore = u.FulfillmentScore
	}
	if u.MoodAfter != nil {
		t.MoodAfter = u.MoodAfter
	}
	return t, nil
}

func (m *mockTaskRepo) AlignmentAnalytics(context.Context) (*models.AlignmentAnalytics, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.analytics, nil
}

func (m *mockTaskRepo) TrainingRecords(context.Context) ([]models.HistoricalTaskRecord, error) {
	return nil, nil
}

var _ database.TaskRepositoryInterface = (*mockTaskRepo)(nil)

type mockJobQueue struct {
	mu         sync.Mutex
	enqueued   []*queue.Job
	enqueueErr error
	healthErr  error
}

func (m *mockJobQueue) Enqueue(_ context.Context, job *queue.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.enqueueErr != nil {
		return m.enqueueErr
	}
	m.enqueued = append(m.enqueued, job)
	return nil
}

func (m *mockJobQueue) Consume(context.Context, int) (<-chan *queue.Message, <-chan error, error) {
	return nil, nil, nil
}

func (m *mockJobQueue) Close() error { return nil }

func (m *mockJobQueue) HealthCheck(context.Context) error { return m.healthErr }

func (m *mockJobQueue) jobs() []*queue.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*queue.Job(nil), m.enqueued...)
}

var _ queue.JobQueue = (*mockJobQueue)(nil)

type mockRetrainer struct {
	result fulfillment.TrainResult
	err    error
	calls  int
}

func (m *mockRetrainer) Retrain(context.Context) (fulfillment.TrainResult, error) {
	m.calls++
	return m.result, m.err
}

type staticModel bool

func (s staticModel) Trained() bool { return bool(s) }

type mockPlanner struct {
	plan *planner.Plan
	err  error
	got  planner.Request
}

func (m *mockPlanner) GeneratePlan(_ context.Context, req planner.Request) (*planner.Plan, error) {
	m.got = req
	return m.plan, m.err
}

type mockTranscriber struct {
	text     string
	err      error
	filename string
	audio    string
}

func (m *mockTranscriber) Transcribe(_ context.Context, a planner.Audio) (string, error) {
	m.filename = a.Filename
	data, _ := io.ReadAll(a.Data)
	m.audio = string(data)
	return m.text, m.err
}

type mockChecker struct{ err error }

func (m mockChecker) HealthCheck(context.Context) error { return m.err }

func (m mockChecker) Ping(context.Context) error { return m.err }

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
