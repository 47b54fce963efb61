package recommend

import (
	"strings"

	"github.com/SebastianMoseres/Praxable/internal/models"
)

// MatchKind tags how an activity relates to the selected values
type MatchKind int

const (
	// NoMatch excludes the activity
	NoMatch MatchKind = iota
	// ExactValueMatch means at least one aligned value was selected
	ExactValueMatch
	// CategoryFallbackMatch means no aligned value matched but the category was selected
	CategoryFallbackMatch
)

func (k MatchKind) String() string {
	switch k {
	case ExactValueMatch:
		return "exact_value"
	case CategoryFallbackMatch:
		return "category_fallback"
	default:
		return "none"
	}
}

// MatchResult is the outcome of matching one activity. Values are lower-cased
// and, for an exact match, in the activity's own value order.
type MatchResult struct {
	Kind   MatchKind
	Values []string
}

// Match compares an activity against the selected values case-insensitively.
// Aligned values are tried first, then the activity category.
func Match(activity models.Activity, selected []string) MatchResult {
	wanted := make(map[string]struct{}, len(selected))
	for _, v := range selected {
		wanted[strings.ToLower(v)] = struct{}{}
	}

	var values []string
	for _, v := range activity.AlignedValues {
		lv := strings.ToLower(v)
		if _, ok := wanted[lv]; ok {
			values = append(values, lv)
		}
	}
	if len(values) > 0 {
		return MatchResult{Kind: ExactValueMatch, Values: values}
	}

	category := strings.ToLower(activity.Category)
	if _, ok := wanted[category]; ok {
		return MatchResult{Kind: CategoryFallbackMatch, Values: []string{category}}
	}
	return MatchResult{Kind: NoMatch}
}
