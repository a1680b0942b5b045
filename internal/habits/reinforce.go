package habits

import "github.com/yungbote/studytrack-backend/internal/types"

// ReinforceCompletionTime counts one completion at hour (0-23).
func ReinforceCompletionTime(data *types.CompletionTimeData, hour int) {
	if data.HourCounts == nil {
		data.HourCounts = map[int]int{}
	}
	data.HourCounts[hour]++
}

// ReinforceCategory counts one completion in category.
func ReinforceCategory(data *types.CategoryPreferenceData, category string) {
	if data.Counts == nil {
		data.Counts = map[string]int{}
	}
	data.Counts[category]++
}

// ReinforceSuggestion records one suggestion impression and recomputes the
// acceptance ratio.
func ReinforceSuggestion(data *types.SuggestionAccuracyData, accepted bool) {
	data.Total++
	if accepted {
		data.Accepted++
	}
	data.Accuracy = float64(data.Accepted) / float64(data.Total)
}
