package habits

import (
	"math"
	"testing"

	"github.com/yungbote/studytrack-backend/internal/types"
)

func TestIncrement(t *testing.T) {
	cases := []struct {
		habitType string
		want      float64
	}{
		{types.HabitOptimalCompletionTime, 0.10},
		{types.HabitCategoryPreference, 0.05},
		{types.HabitSuggestionAccuracy, 0.02},
		{"unknown", 0},
	}
	for _, tc := range cases {
		if got := Increment(tc.habitType); got != tc.want {
			t.Errorf("Increment(%q) = %v, want %v", tc.habitType, got, tc.want)
		}
	}
}

func TestNextConfidenceSaturates(t *testing.T) {
	score := 0.0
	for i := 0; i < 15; i++ {
		score = NextConfidence(score, CompletionTimeIncrement)
	}
	if score != 1.0 {
		t.Fatalf("after 15 completion-time reinforcements score = %v, want 1.0", score)
	}
	// Once saturated it stays pinned.
	if got := NextConfidence(score, CompletionTimeIncrement); got != 1.0 {
		t.Fatalf("NextConfidence(1.0, inc) = %v, want 1.0", got)
	}
}

func TestNextConfidenceAccumulates(t *testing.T) {
	cases := []struct {
		name     string
		existing float64
		inc      float64
		want     float64
	}{
		{"from zero", 0, 0.10, 0.10},
		{"partial", 0.45, 0.05, 0.50},
		{"clamps at one", 0.95, 0.10, 1.0},
		{"exactly one", 0.98, 0.02, 1.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NextConfidence(tc.existing, tc.inc)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("NextConfidence(%v, %v) = %v, want %v", tc.existing, tc.inc, got, tc.want)
			}
		})
	}
}
