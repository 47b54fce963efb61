// Package recommend ranks catalog activities against selected values,
// available free time and predicted fulfillment.
package recommend

import (
	"sort"

	"github.com/SebastianMoseres/Praxable/internal/fulfillment"
	"github.com/SebastianMoseres/Praxable/internal/models"
)

const (
	// DefaultLevel is used for energy and mood when the caller does not provide them
	DefaultLevel = 5
	// valueWeight is the score contributed by each matching value
	valueWeight = 10
)

// Scorer predicts fulfillment for a feature vector. An error means no prediction.
type Scorer interface {
	Predict(f fulfillment.Features) (float64, error)
}

// Context is the user's current state, fed to the scorer
type Context struct {
	EnergyLevel int `json:"energy_level"`
	MoodBefore  int `json:"mood_before"`
}

func (c Context) withDefaults() Context {
	if c.EnergyLevel == 0 {
		c.EnergyLevel = DefaultLevel
	}
	if c.MoodBefore == 0 {
		c.MoodBefore = DefaultLevel
	}
	return c
}

// Request selects which activities to rank
type Request struct {
	Values             []string
	MinDurationMinutes int
	Context            Context
}

// Recommend returns the activities that match at least one selected value,
// meet the minimum duration and fit into at least one free slot, ordered by
// descending score. Ties keep catalog order. A nil scorer disables the
// prediction boost.
func Recommend(req Request, slots []models.FreeSlot, activities []models.Activity, scorer Scorer) []models.Recommendation {
	recs := []models.Recommendation{}
	if len(req.Values) == 0 {
		return recs
	}
	ctx := req.Context.withDefaults()

	for _, activity := range activities {
		match := Match(activity, req.Values)
		if match.Kind == NoMatch {
			continue
		}
		if activity.DurationMinutes < req.MinDurationMinutes {
			continue
		}

		fitting := fittingSlots(slots, activity.DurationMinutes)
		if len(fitting) == 0 {
			continue
		}

		rec := models.Recommendation{
			Activity:          activity,
			MatchingValues:    match.Values,
			MatchScore:        float64(valueWeight * len(match.Values)),
			SuggestedSlot:     fitting[0],
			AllAvailableSlots: fitting,
		}

		if scorer != nil {
			predicted, err := scorer.Predict(fulfillment.Features{
				TaskType:     activity.Category,
				AlignedValue: match.Values[0],
				EnergyLevel:  ctx.EnergyLevel,
				MoodBefore:   ctx.MoodBefore,
			})
			if err == nil {
				rec.MatchScore += predicted
				display := fulfillment.Round1(predicted)
				rec.PredictedFulfillment = &display
			}
		}

		recs = append(recs, rec)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].MatchScore > recs[j].MatchScore
	})
	return recs
}

func fittingSlots(slots []models.FreeSlot, minutes int) []models.FreeSlot {
	var out []models.FreeSlot
	for _, s := range slots {
		if s.DurationMinutes >= minutes {
			out = append(out, s)
		}
	}
	return out
}
