package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/studytrack-backend/internal/habits"
	"github.com/yungbote/studytrack-backend/internal/logger"
	"github.com/yungbote/studytrack-backend/internal/repos"
	"github.com/yungbote/studytrack-backend/internal/types"
)

// HabitQueryService is the read side of habit tracking. Store read failures
// degrade to empty or zero-value results with a log line so dashboards and
// prompt building never crash on a transient read error.
type HabitQueryService interface {
	GetHabits(ctx context.Context, userID uuid.UUID) []*types.HabitRecord
	GetTopHours(ctx context.Context, userID uuid.UUID, n int) []habits.HourCount
	GetTopCategories(ctx context.Context, userID uuid.UUID, n int) []habits.CategoryCount
	GetSuggestionAccuracy(ctx context.Context, userID uuid.UUID) types.SuggestionAccuracyData
}

type habitQueryService struct {
	log       *logger.Logger
	habitRepo repos.HabitRecordRepo
}

func NewHabitQueryService(log *logger.Logger, habitRepo repos.HabitRecordRepo) HabitQueryService {
	return &habitQueryService{
		log:       log.With("service", "HabitQueryService"),
		habitRepo: habitRepo,
	}
}

// GetHabits returns all habit records for the user ordered by confidence
// descending. A user with no interactions gets an empty list.
func (s *habitQueryService) GetHabits(ctx context.Context, userID uuid.UUID) []*types.HabitRecord {
	if userID == uuid.Nil {
		return []*types.HabitRecord{}
	}
	records, err := s.habitRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		s.log.Warn("Habit list read failed, returning empty", "error", err, "user_id", userID)
		return []*types.HabitRecord{}
	}
	if records == nil {
		return []*types.HabitRecord{}
	}
	return records
}

func (s *habitQueryService) GetTopHours(ctx context.Context, userID uuid.UUID, n int) []habits.HourCount {
	data := s.completionTimeData(ctx, userID)
	return habits.TopHours(data, n)
}

func (s *habitQueryService) GetTopCategories(ctx context.Context, userID uuid.UUID, n int) []habits.CategoryCount {
	record, err := s.habitRepo.GetByUserAndType(ctx, nil, userID, types.HabitCategoryPreference)
	if err != nil {
		s.log.Warn("Category habit read failed, returning empty", "error", err, "user_id", userID)
		return []habits.CategoryCount{}
	}
	if record == nil {
		return []habits.CategoryCount{}
	}
	data, err := types.DecodeHabitData(record.HabitType, record.Data)
	if err != nil {
		s.log.Warn("Category habit decode failed, returning empty", "error", err, "user_id", userID)
		return []habits.CategoryCount{}
	}
	categories, _ := data.(*types.CategoryPreferenceData)
	return habits.TopCategories(categories, n)
}

// GetSuggestionAccuracy always returns a value; a user with no suggestion
// feedback gets the zero aggregate, never a nil callers must check.
func (s *habitQueryService) GetSuggestionAccuracy(ctx context.Context, userID uuid.UUID) types.SuggestionAccuracyData {
	record, err := s.habitRepo.GetByUserAndType(ctx, nil, userID, types.HabitSuggestionAccuracy)
	if err != nil {
		s.log.Warn("Suggestion-accuracy read failed, returning zero", "error", err, "user_id", userID)
		return types.SuggestionAccuracyData{}
	}
	if record == nil {
		return types.SuggestionAccuracyData{}
	}
	data, err := types.DecodeHabitData(record.HabitType, record.Data)
	if err != nil {
		s.log.Warn("Suggestion-accuracy decode failed, returning zero", "error", err, "user_id", userID)
		return types.SuggestionAccuracyData{}
	}
	accuracy, ok := data.(*types.SuggestionAccuracyData)
	if !ok || accuracy == nil {
		return types.SuggestionAccuracyData{}
	}
	return *accuracy
}

func (s *habitQueryService) completionTimeData(ctx context.Context, userID uuid.UUID) *types.CompletionTimeData {
	record, err := s.habitRepo.GetByUserAndType(ctx, nil, userID, types.HabitOptimalCompletionTime)
	if err != nil {
		s.log.Warn("Completion-time habit read failed, returning empty", "error", err, "user_id", userID)
		return nil
	}
	if record == nil {
		return nil
	}
	data, err := types.DecodeHabitData(record.HabitType, record.Data)
	if err != nil {
		s.log.Warn("Completion-time habit decode failed, returning empty", "error", err, "user_id", userID)
		return nil
	}
	times, _ := data.(*types.CompletionTimeData)
	return times
}
