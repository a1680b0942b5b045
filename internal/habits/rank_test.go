package habits

import (
	"reflect"
	"testing"

	"github.com/yungbote/studytrack-backend/internal/types"
)

func TestTopHours(t *testing.T) {
	data := &types.CompletionTimeData{HourCounts: map[int]int{
		9:  3,
		14: 3,
		20: 5,
		7:  1,
		11: 0,
	}}
	cases := []struct {
		name string
		data *types.CompletionTimeData
		n    int
		want []HourCount
	}{
		{
			name: "ranked with hour tie-break",
			data: data,
			n:    3,
			want: []HourCount{{Hour: 20, Count: 5}, {Hour: 9, Count: 3}, {Hour: 14, Count: 3}},
		},
		{
			name: "n larger than distinct hours",
			data: &types.CompletionTimeData{HourCounts: map[int]int{9: 1}},
			n:    5,
			want: []HourCount{{Hour: 9, Count: 1}},
		},
		{
			name: "zero counts excluded",
			data: &types.CompletionTimeData{HourCounts: map[int]int{9: 0}},
			n:    3,
			want: []HourCount{},
		},
		{name: "nil data", data: nil, n: 3, want: []HourCount{}},
		{name: "n zero", data: data, n: 0, want: []HourCount{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := TopHours(tc.data, tc.n)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("TopHours = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTopCategories(t *testing.T) {
	data := &types.CategoryPreferenceData{Counts: map[string]int{
		"Study":    4,
		"Chores":   4,
		"Exercise": 7,
		"Reading":  1,
	}}
	got := TopCategories(data, 3)
	want := []CategoryCount{
		{Category: "Exercise", Count: 7},
		{Category: "Chores", Count: 4},
		{Category: "Study", Count: 4},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("TopCategories = %v, want %v", got, want)
	}

	if got := TopCategories(nil, 3); len(got) != 0 {
		t.Fatalf("TopCategories(nil) = %v, want empty", got)
	}
}
