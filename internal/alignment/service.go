// Package alignment composes the calendar, gap finder, fulfillment model and
// activity catalog into the three engine operations used by the API and CLI.
package alignment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SebastianMoseres/Praxable/internal/availability"
	"github.com/SebastianMoseres/Praxable/internal/calendar"
	"github.com/SebastianMoseres/Praxable/internal/fulfillment"
	"github.com/SebastianMoseres/Praxable/internal/models"
	"github.com/SebastianMoseres/Praxable/internal/recommend"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultDayEnd is the wall-clock end of the plannable day
const DefaultDayEnd = "22:00"

// ErrCalendarUnavailable wraps failures of the busy-interval source
var ErrCalendarUnavailable = errors.New("calendar unavailable")

// Config holds the service's clock settings
type Config struct {
	// DayEnd is the "HH:MM" cutoff for free slots
	DayEnd string
	// Location is the user's time zone; defaults to time.Local
	Location *time.Location
	// Now overrides the clock in tests
	Now func() time.Time
}

// Service answers free-slot, prediction and recommendation queries for today
type Service struct {
	source     calendar.Source
	finder     *availability.Finder
	scorer     recommend.Scorer
	activities []models.Activity
	dayEnd     string
	location   *time.Location
	now        func() time.Time
	tracer     trace.Tracer
	logger     *zap.Logger
}

// NewService creates the engine facade. scorer may be nil, which disables
// predictions.
func NewService(
	source calendar.Source,
	finder *availability.Finder,
	scorer recommend.Scorer,
	activities []models.Activity,
	cfg Config,
	logger *zap.Logger,
) (*Service, error) {
	if source == nil {
		source = calendar.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if finder == nil {
		finder = availability.NewFinder(logger, 0)
	}
	if cfg.DayEnd == "" {
		cfg.DayEnd = DefaultDayEnd
	}
	if _, err := time.Parse(models.ClockLayout, cfg.DayEnd); err != nil {
		return nil, fmt.Errorf("invalid day end %q: %w", cfg.DayEnd, err)
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		source:     source,
		finder:     finder,
		scorer:     scorer,
		activities: activities,
		dayEnd:     cfg.DayEnd,
		location:   cfg.Location,
		now:        cfg.Now,
		tracer:     otel.Tracer("github.com/SebastianMoseres/Praxable/internal/alignment"),
		logger:     logger,
	}, nil
}

// Now returns the current time in the user's location
func (s *Service) Now() time.Time {
	return s.now().In(s.location)
}

// Location returns the user's time zone
func (s *Service) Location() *time.Location {
	return s.location
}

// Activities returns the catalog the service ranks
func (s *Service) Activities() []models.Activity {
	out := make([]models.Activity, len(s.activities))
	copy(out, s.activities)
	return out
}

// BusyIntervals returns today's busy intervals from the calendar source
func (s *Service) BusyIntervals(ctx context.Context) ([]models.BusyInterval, error) {
	busy, err := s.source.BusyIntervals(ctx, s.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCalendarUnavailable, err)
	}
	return busy, nil
}

// GetFreeSlots returns the gaps between now and the end of the day
func (s *Service) GetFreeSlots(ctx context.Context) ([]models.FreeSlot, error) {
	ctx, span := s.tracer.Start(ctx, "alignment.GetFreeSlots")
	defer span.End()

	slots, err := s.freeSlots(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "free slots unavailable")
		return nil, err
	}
	span.SetAttributes(attribute.Int("slots.count", len(slots)))
	return slots, nil
}

func (s *Service) freeSlots(ctx context.Context) ([]models.FreeSlot, error) {
	now := s.Now()
	dayEnd, err := availability.DayEnd(now, s.dayEnd)
	if err != nil {
		return nil, fmt.Errorf("invalid day end: %w", err)
	}
	busy, err := s.BusyIntervals(ctx)
	if err != nil {
		return nil, err
	}
	return s.finder.FreeSlots(busy, now, dayEnd), nil
}

// Predict returns the rounded predicted fulfillment, or nil when the model
// abstains or the inputs are malformed.
func (s *Service) Predict(taskType, alignedValue string, energy, mood int) *float64 {
	if s.scorer == nil {
		return nil
	}
	v, err := s.scorer.Predict(fulfillment.Features{
		TaskType:     taskType,
		AlignedValue: alignedValue,
		EnergyLevel:  energy,
		MoodBefore:   mood,
	})
	if err != nil {
		var perr *fulfillment.PredictionError
		if errors.As(err, &perr) {
			s.logger.Debug("prediction_rejected", zap.String("field", perr.Field), zap.String("reason", perr.Reason))
		}
		return nil
	}
	rounded := fulfillment.Round1(v)
	return &rounded
}

// GetRecommendations ranks catalog activities against the selected values
// and today's free slots.
func (s *Service) GetRecommendations(ctx context.Context, values []string, minDuration int, c recommend.Context) ([]models.Recommendation, error) {
	ctx, span := s.tracer.Start(ctx, "alignment.GetRecommendations",
		trace.WithAttributes(
			attribute.Int("values.count", len(values)),
			attribute.Int("min_duration", minDuration),
		))
	defer span.End()

	if len(values) == 0 {
		return []models.Recommendation{}, nil
	}

	slots, err := s.freeSlots(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "free slots unavailable")
		return nil, err
	}

	recs := recommend.Recommend(recommend.Request{
		Values:             values,
		MinDurationMinutes: minDuration,
		Context:            c,
	}, slots, s.activities, s.scorer)

	span.SetAttributes(attribute.Int("recommendations.count", len(recs)))
	s.logger.Debug("recommendations_ranked",
		zap.Int("slots", len(slots)),
		zap.Int("recommendations", len(recs)),
	)
	return recs, nil
}
