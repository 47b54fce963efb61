package models

// Recommendation is a ranked activity suggestion with the slots it fits into.
// PredictedFulfillment is nil when the model abstained.
type Recommendation struct {
	Activity
	MatchingValues       []string   `json:"matching_values"`
	MatchScore           float64    `json:"match_score"`
	PredictedFulfillment *float64   `json:"predicted_fulfillment"`
	SuggestedSlot        FreeSlot   `json:"suggested_slot"`
	AllAvailableSlots    []FreeSlot `json:"all_available_slots"`
}
