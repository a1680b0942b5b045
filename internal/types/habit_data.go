package types

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
)

// Habit types. The set is extensible; unknown types fail decoding rather
// than being shape-guessed.
const (
	HabitOptimalCompletionTime = "optimal_completion_time"
	HabitCategoryPreference    = "category_preference"
	HabitSuggestionAccuracy    = "suggestion_accuracy"
)

// HabitData is the tagged union over per-type aggregate shapes stored in
// HabitRecord.Data.
type HabitData interface {
	HabitType() string
}

// CompletionTimeData counts completions per hour of day (0-23).
type CompletionTimeData struct {
	HourCounts map[int]int `json:"hour_counts"`
}

func (CompletionTimeData) HabitType() string { return HabitOptimalCompletionTime }

// CategoryPreferenceData counts completions per category label.
type CategoryPreferenceData struct {
	Counts map[string]int `json:"counts"`
}

func (CategoryPreferenceData) HabitType() string { return HabitCategoryPreference }

// SuggestionAccuracyData tracks AI suggestion feedback. Accuracy is always
// Accepted/Total when Total > 0 and 0 otherwise.
type SuggestionAccuracyData struct {
	Total    int     `json:"total"`
	Accepted int     `json:"accepted"`
	Accuracy float64 `json:"accuracy"`
}

func (SuggestionAccuracyData) HabitType() string { return HabitSuggestionAccuracy }

// NewHabitData returns the zero-value aggregate for a habit type.
func NewHabitData(habitType string) (HabitData, error) {
	switch habitType {
	case HabitOptimalCompletionTime:
		return &CompletionTimeData{HourCounts: map[int]int{}}, nil
	case HabitCategoryPreference:
		return &CategoryPreferenceData{Counts: map[string]int{}}, nil
	case HabitSuggestionAccuracy:
		return &SuggestionAccuracyData{}, nil
	default:
		return nil, fmt.Errorf("unknown habit type %q", habitType)
	}
}

// DecodeHabitData unmarshals a stored jsonb blob into the typed aggregate
// for habitType. Empty blobs decode to the zero-value aggregate.
func DecodeHabitData(habitType string, raw datatypes.JSON) (HabitData, error) {
	data, err := NewHabitData(habitType)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("decode %s habit data: %w", habitType, err)
	}
	// Maps stay non-nil after decoding an empty object.
	switch d := data.(type) {
	case *CompletionTimeData:
		if d.HourCounts == nil {
			d.HourCounts = map[int]int{}
		}
	case *CategoryPreferenceData:
		if d.Counts == nil {
			d.Counts = map[string]int{}
		}
	}
	return data, nil
}

// EncodeHabitData marshals a typed aggregate back into jsonb.
func EncodeHabitData(data HabitData) (datatypes.JSON, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s habit data: %w", data.HabitType(), err)
	}
	return datatypes.JSON(raw), nil
}
