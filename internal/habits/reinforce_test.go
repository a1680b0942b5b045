package habits

import (
	"testing"

	"github.com/yungbote/studytrack-backend/internal/types"
)

func TestReinforceCompletionTime(t *testing.T) {
	data := &types.CompletionTimeData{}
	ReinforceCompletionTime(data, 9)
	ReinforceCompletionTime(data, 9)
	ReinforceCompletionTime(data, 14)
	if data.HourCounts[9] != 2 || data.HourCounts[14] != 1 {
		t.Fatalf("HourCounts = %v, want {9:2 14:1}", data.HourCounts)
	}
}

func TestReinforceCategory(t *testing.T) {
	data := &types.CategoryPreferenceData{}
	for i := 0; i < 3; i++ {
		ReinforceCategory(data, "Study")
	}
	ReinforceCategory(data, "Chores")
	if data.Counts["Study"] != 3 || data.Counts["Chores"] != 1 {
		t.Fatalf("Counts = %v, want {Study:3 Chores:1}", data.Counts)
	}
}

func TestReinforceSuggestion(t *testing.T) {
	data := &types.SuggestionAccuracyData{}
	for _, accepted := range []bool{true, true, false, true} {
		ReinforceSuggestion(data, accepted)
	}
	if data.Total != 4 || data.Accepted != 3 {
		t.Fatalf("counts = %d/%d, want 3/4", data.Accepted, data.Total)
	}
	if data.Accuracy != 0.75 {
		t.Fatalf("Accuracy = %v, want 0.75", data.Accuracy)
	}
}
