package habits

import "github.com/yungbote/studytrack-backend/internal/types"

// Confidence increments per habit type. Direct completion-time observations
// are the strongest signal, suggestion impressions the noisiest.
const (
	CompletionTimeIncrement     = 0.10
	CategoryPreferenceIncrement = 0.05
	SuggestionAccuracyIncrement = 0.02
)

// Increment returns the confidence increment for a habit type, 0 for
// unknown types.
func Increment(habitType string) float64 {
	switch habitType {
	case types.HabitOptimalCompletionTime:
		return CompletionTimeIncrement
	case types.HabitCategoryPreference:
		return CategoryPreferenceIncrement
	case types.HabitSuggestionAccuracy:
		return SuggestionAccuracyIncrement
	default:
		return 0
	}
}

// NextConfidence applies one reinforcement to an existing confidence score.
// Scores saturate at 1.0 and never decay. A missing record reinforces from
// an implicit baseline of 0.
func NextConfidence(existing, increment float64) float64 {
	next := existing + increment
	if next > 1.0 {
		return 1.0
	}
	return next
}
