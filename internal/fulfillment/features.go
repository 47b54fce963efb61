package fulfillment

import (
	"fmt"
	"sort"
	"strings"
)

const (
	minLevel = 1
	maxLevel = 10
)

// Features are the inputs of a single fulfillment prediction
type Features struct {
	TaskType     string `json:"task_type"`
	AlignedValue string `json:"aligned_value"`
	EnergyLevel  int    `json:"energy_level"`
	MoodBefore   int    `json:"mood_before"`
}

// PredictionError reports a feature vector the model cannot score
type PredictionError struct {
	Field  string
	Reason string
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("invalid feature %s: %s", e.Field, e.Reason)
}

// Validate checks that categories are present and levels are within 1-10
func (f Features) Validate() error {
	if fold(f.TaskType) == "" {
		return &PredictionError{Field: "task_type", Reason: "missing"}
	}
	if fold(f.AlignedValue) == "" {
		return &PredictionError{Field: "aligned_value", Reason: "missing"}
	}
	if f.EnergyLevel < minLevel || f.EnergyLevel > maxLevel {
		return &PredictionError{Field: "energy_level", Reason: fmt.Sprintf("%d outside %d-%d", f.EnergyLevel, minLevel, maxLevel)}
	}
	if f.MoodBefore < minLevel || f.MoodBefore > maxLevel {
		return &PredictionError{Field: "mood_before", Reason: fmt.Sprintf("%d outside %d-%d", f.MoodBefore, minLevel, maxLevel)}
	}
	return nil
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Encoder one-hot encodes the categorical features and passes the numeric ones through.
// Column layout: task types, aligned values, energy, mood.
type Encoder struct {
	TaskTypes     []string `json:"task_types"`
	AlignedValues []string `json:"aligned_values"`
}

// FitEncoder learns the category vocabulary from training rows
func FitEncoder(rows []Features) *Encoder {
	types := map[string]struct{}{}
	values := map[string]struct{}{}
	for _, r := range rows {
		types[fold(r.TaskType)] = struct{}{}
		values[fold(r.AlignedValue)] = struct{}{}
	}
	return &Encoder{
		TaskTypes:     sortedKeys(types),
		AlignedValues: sortedKeys(values),
	}
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Width is the length of an encoded feature vector
func (e *Encoder) Width() int {
	return len(e.TaskTypes) + len(e.AlignedValues) + 2
}

// Transform encodes f. Categories not seen during fitting leave their block all zero.
func (e *Encoder) Transform(f Features) []float64 {
	x := make([]float64, e.Width())
	if i := sort.SearchStrings(e.TaskTypes, fold(f.TaskType)); i < len(e.TaskTypes) && e.TaskTypes[i] == fold(f.TaskType) {
		x[i] = 1
	}
	offset := len(e.TaskTypes)
	if i := sort.SearchStrings(e.AlignedValues, fold(f.AlignedValue)); i < len(e.AlignedValues) && e.AlignedValues[i] == fold(f.AlignedValue) {
		x[offset+i] = 1
	}
	offset += len(e.AlignedValues)
	x[offset] = float64(f.EnergyLevel)
	x[offset+1] = float64(f.MoodBefore)
	return x
}
