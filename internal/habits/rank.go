package habits

import (
	"sort"

	"github.com/yungbote/studytrack-backend/internal/types"
)

type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// TopHours returns up to n (hour, count) pairs sorted by count descending.
// Equal counts order by lower hour first so rankings are deterministic.
// Hours with zero occurrences are never included.
func TopHours(data *types.CompletionTimeData, n int) []HourCount {
	if data == nil || n <= 0 {
		return []HourCount{}
	}
	out := make([]HourCount, 0, len(data.HourCounts))
	for hour, count := range data.HourCounts {
		if count > 0 {
			out = append(out, HourCount{Hour: hour, Count: count})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Hour < out[j].Hour
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// TopCategories returns up to n (category, count) pairs sorted by count
// descending, ties broken by category label ascending.
func TopCategories(data *types.CategoryPreferenceData, n int) []CategoryCount {
	if data == nil || n <= 0 {
		return []CategoryCount{}
	}
	out := make([]CategoryCount, 0, len(data.Counts))
	for category, count := range data.Counts {
		if count > 0 {
			out = append(out, CategoryCount{Category: category, Count: count})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
