package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/studytrack-backend/internal/repos"
	"github.com/yungbote/studytrack-backend/internal/types"
)

func seedHabits(t *testing.T, store *repos.MemStore, userID uuid.UUID) {
	t.Helper()
	tracker := NewHabitTrackerService(testLogger(t), store, store, nil)
	ctx := context.Background()
	deadline := time.Date(2026, 4, 1, 23, 0, 0, 0, time.UTC)
	completions := []struct {
		category string
		hour     int
	}{
		{"Study", 9}, {"Study", 9}, {"Study", 14},
		{"Exercise", 7}, {"Exercise", 7}, {"Exercise", 7}, {"Exercise", 18},
		{"Chores", 20},
	}
	for _, c := range completions {
		task := studyTask(userID, c.category, deadline)
		completedAt := time.Date(2026, 4, 1, c.hour, 0, 0, 0, time.UTC)
		if err := tracker.RecordCompletion(ctx, userID, task, completedAt); err != nil {
			t.Fatalf("RecordCompletion: %v", err)
		}
	}
	for _, accepted := range []bool{true, false} {
		if err := tracker.RecordSuggestionFeedback(ctx, userID, uuid.New().String(), accepted, nil); err != nil {
			t.Fatalf("RecordSuggestionFeedback: %v", err)
		}
	}
}

func TestGetHabitsOrderedByConfidence(t *testing.T) {
	store := repos.NewMemStore()
	userID := uuid.New()
	seedHabits(t, store, userID)

	query := NewHabitQueryService(testLogger(t), store)
	records := query.GetHabits(context.Background(), userID)
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i].ConfidenceScore > records[i-1].ConfidenceScore {
			t.Fatalf("records out of confidence order: %v then %v", records[i-1].ConfidenceScore, records[i].ConfidenceScore)
		}
	}
	if records[0].HabitType != types.HabitOptimalCompletionTime {
		t.Fatalf("highest-confidence habit = %s, want %s", records[0].HabitType, types.HabitOptimalCompletionTime)
	}
}

func TestGetTopHoursAndCategories(t *testing.T) {
	store := repos.NewMemStore()
	userID := uuid.New()
	seedHabits(t, store, userID)

	query := NewHabitQueryService(testLogger(t), store)
	ctx := context.Background()

	hours := query.GetTopHours(ctx, userID, 2)
	if len(hours) != 2 {
		t.Fatalf("top hours = %v, want 2 entries", hours)
	}
	if hours[0].Hour != 7 || hours[0].Count != 3 {
		t.Fatalf("hours[0] = %+v, want {7 3}", hours[0])
	}
	if hours[1].Hour != 9 || hours[1].Count != 2 {
		t.Fatalf("hours[1] = %+v, want {9 2}", hours[1])
	}

	categories := query.GetTopCategories(ctx, userID, 3)
	if len(categories) != 3 {
		t.Fatalf("top categories = %v, want 3 entries", categories)
	}
	if categories[0].Category != "Exercise" || categories[0].Count != 4 {
		t.Fatalf("categories[0] = %+v, want {Exercise 4}", categories[0])
	}
	if categories[1].Category != "Study" || categories[1].Count != 3 {
		t.Fatalf("categories[1] = %+v, want {Study 3}", categories[1])
	}
}

func TestGetSuggestionAccuracy(t *testing.T) {
	store := repos.NewMemStore()
	userID := uuid.New()
	seedHabits(t, store, userID)

	query := NewHabitQueryService(testLogger(t), store)
	accuracy := query.GetSuggestionAccuracy(context.Background(), userID)
	if accuracy.Total != 2 || accuracy.Accepted != 1 || accuracy.Accuracy != 0.5 {
		t.Fatalf("accuracy = %+v, want {2 1 0.5}", accuracy)
	}
}

func TestQueryDegradesOnEmptyAndFailure(t *testing.T) {
	store := repos.NewMemStore()
	query := NewHabitQueryService(testLogger(t), store)
	ctx := context.Background()
	userID := uuid.New()

	if records := query.GetHabits(ctx, userID); len(records) != 0 {
		t.Fatalf("GetHabits for new user = %v, want empty", records)
	}
	if hours := query.GetTopHours(ctx, userID, 3); len(hours) != 0 {
		t.Fatalf("GetTopHours for new user = %v, want empty", hours)
	}
	if accuracy := query.GetSuggestionAccuracy(ctx, userID); accuracy != (types.SuggestionAccuracyData{}) {
		t.Fatalf("GetSuggestionAccuracy for new user = %+v, want zero", accuracy)
	}

	store.FailReads = errors.New("store down")
	if records := query.GetHabits(ctx, userID); records == nil || len(records) != 0 {
		t.Fatalf("GetHabits during outage = %v, want empty non-nil", records)
	}
	if categories := query.GetTopCategories(ctx, userID, 3); len(categories) != 0 {
		t.Fatalf("GetTopCategories during outage = %v, want empty", categories)
	}
	if accuracy := query.GetSuggestionAccuracy(ctx, userID); accuracy != (types.SuggestionAccuracyData{}) {
		t.Fatalf("GetSuggestionAccuracy during outage = %+v, want zero", accuracy)
	}
}
