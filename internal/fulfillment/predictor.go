// Package fulfillment learns a mapping from task features to expected
// fulfillment scores and predicts scores for unseen tasks.
package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SebastianMoseres/Praxable/internal/models"
)

const (
	// MinTrainingSamples is the fewest labelled records a model is trained on
	MinTrainingSamples = 5
	// DefaultTrees is the ensemble size
	DefaultTrees = 100
	// DefaultSeed seeds bootstrap sampling
	DefaultSeed uint64 = 42
)

// ErrUntrained is returned by Predict before a model has been fitted
var ErrUntrained = errors.New("fulfillment model is not trained")

// Snapshot is an immutable fitted model
type Snapshot struct {
	Version     uuid.UUID `json:"version"`
	TrainedAt   time.Time `json:"trained_at"`
	SampleCount int       `json:"sample_count"`
	Encoder     *Encoder  `json:"encoder"`
	Forest      *Forest   `json:"forest"`
}

// Predict scores f against this snapshot without rounding
func (s *Snapshot) Predict(f Features) (float64, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}
	return s.Forest.Predict(s.Encoder.Transform(f)), nil
}

// MarshalSnapshot serializes a snapshot for persistence
func MarshalSnapshot(s *Snapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal model snapshot: %w", err)
	}
	return data, nil
}

// UnmarshalSnapshot decodes and sanity-checks a persisted snapshot
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal model snapshot: %w", err)
	}
	if s.Encoder == nil || s.Forest == nil || len(s.Forest.Trees) == 0 {
		return nil, errors.New("model snapshot is incomplete")
	}
	width := s.Encoder.Width()
	for i, t := range s.Forest.Trees {
		if len(t.Nodes) == 0 {
			return nil, fmt.Errorf("model snapshot tree %d is empty", i)
		}
		for j, n := range t.Nodes {
			if !n.valid(j, len(t.Nodes), width) {
				return nil, fmt.Errorf("model snapshot tree %d is malformed at node %d", i, j)
			}
		}
	}
	return &s, nil
}

// TrainResult describes the outcome of a training run
type TrainResult struct {
	Trained   bool      `json:"trained"`
	Samples   int       `json:"samples"`
	Version   uuid.UUID `json:"version,omitempty"`
	TrainedAt time.Time `json:"trained_at,omitempty"`
}

// Predictor owns the current model. Training is serialized; readers load the
// published snapshot atomically and never see a partially fitted model.
type Predictor struct {
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]

	trees  int
	seed   uint64
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Predictor
type Option func(*Predictor)

// WithTrees sets the ensemble size
func WithTrees(n int) Option {
	return func(p *Predictor) {
		if n > 0 {
			p.trees = n
		}
	}
}

// WithSeed sets the bootstrap seed
func WithSeed(seed uint64) Option {
	return func(p *Predictor) { p.seed = seed }
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(p *Predictor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock overrides the training timestamp source
func WithClock(now func() time.Time) Option {
	return func(p *Predictor) { p.now = now }
}

// NewPredictor creates an untrained predictor
func NewPredictor(opts ...Option) *Predictor {
	p := &Predictor{
		trees:  DefaultTrees,
		seed:   DefaultSeed,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Train fits a new model on the labelled, well-formed records. With fewer than
// MinTrainingSamples such records nothing changes and Trained is false.
func (p *Predictor) Train(ctx context.Context, records []models.HistoricalTaskRecord) (TrainResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	rows := make([]Features, 0, len(records))
	y := make([]float64, 0, len(records))
	skipped := 0
	for _, r := range records {
		if r.FulfillmentScore == nil {
			continue
		}
		f := Features{
			TaskType:     r.TaskType,
			AlignedValue: r.AlignedValue,
			EnergyLevel:  r.EnergyLevel,
			MoodBefore:   r.MoodBefore,
		}
		if err := f.Validate(); err != nil {
			skipped++
			continue
		}
		rows = append(rows, f)
		y = append(y, float64(*r.FulfillmentScore))
	}

	if len(rows) < MinTrainingSamples {
		p.logger.Info("model_training_skipped",
			zap.Int("samples", len(rows)),
			zap.Int("skipped", skipped),
			zap.Int("required", MinTrainingSamples))
		return TrainResult{Trained: false, Samples: len(rows)}, nil
	}

	enc := FitEncoder(rows)
	x := make([][]float64, len(rows))
	for i, f := range rows {
		x[i] = enc.Transform(f)
	}

	forest, err := fitForest(ctx, x, y, p.trees, p.seed)
	if err != nil {
		return TrainResult{}, fmt.Errorf("failed to fit model: %w", err)
	}

	snap := &Snapshot{
		Version:     uuid.New(),
		TrainedAt:   p.now().UTC(),
		SampleCount: len(rows),
		Encoder:     enc,
		Forest:      forest,
	}
	p.current.Store(snap)

	p.logger.Info("model_trained",
		zap.String("version", snap.Version.String()),
		zap.Int("samples", len(rows)),
		zap.Int("skipped", skipped),
		zap.Int("trees", len(forest.Trees)))

	return TrainResult{Trained: true, Samples: len(rows), Version: snap.Version, TrainedAt: snap.TrainedAt}, nil
}

// Predict returns the expected fulfillment for f, ErrUntrained when no model
// is available, or a *PredictionError for malformed features.
func (p *Predictor) Predict(f Features) (float64, error) {
	snap := p.current.Load()
	if snap == nil {
		return 0, ErrUntrained
	}
	return snap.Predict(f)
}

// Snapshot returns the published model, or nil when untrained
func (p *Predictor) Snapshot() *Snapshot {
	return p.current.Load()
}

// Trained reports whether a model is available
func (p *Predictor) Trained() bool {
	return p.current.Load() != nil
}

// Load installs s if it was trained after the current model. It reports
// whether the snapshot was installed.
func (p *Predictor) Load(s *Snapshot) bool {
	if s == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	cur := p.current.Load()
	if cur != nil && (cur.Version == s.Version || !s.TrainedAt.After(cur.TrainedAt)) {
		return false
	}
	p.current.Store(s)
	p.logger.Info("model_loaded",
		zap.String("version", s.Version.String()),
		zap.Int("samples", s.SampleCount))
	return true
}

// Round1 rounds v to one decimal place for display
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
