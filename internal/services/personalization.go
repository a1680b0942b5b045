package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/studytrack-backend/internal/habits"
	"github.com/yungbote/studytrack-backend/internal/logger"
	"github.com/yungbote/studytrack-backend/internal/repos"
	"github.com/yungbote/studytrack-backend/internal/types"
)

// PersonalizationCache is the read/write side of the context cache.
type PersonalizationCache interface {
	Get(ctx context.Context, userID uuid.UUID) (string, bool)
	Set(ctx context.Context, userID uuid.UUID, personalization string)
}

// PersonalizationService flattens a user's habit state into a short,
// bounded text block injected into outbound AI prompts. Output is
// deterministic for identical inputs and never exceeds six lines: only
// top-3 and last-10 slices are summarized, never full distributions.
type PersonalizationService interface {
	BuildForUser(ctx context.Context, userID uuid.UUID) string
	BuildContext(habitRecords []*types.HabitRecord, preferences []string, recentInteractions []*types.InteractionEvent) string
}

type personalizationService struct {
	log             *logger.Logger
	habitQuery      HabitQueryService
	interactionRepo repos.InteractionEventRepo
	contextCache    PersonalizationCache
}

func NewPersonalizationService(
	log *logger.Logger,
	habitQuery HabitQueryService,
	interactionRepo repos.InteractionEventRepo,
	contextCache PersonalizationCache,
) PersonalizationService {
	return &personalizationService{
		log:             log.With("service", "PersonalizationService"),
		habitQuery:      habitQuery,
		interactionRepo: interactionRepo,
		contextCache:    contextCache,
	}
}

func (s *personalizationService) BuildForUser(ctx context.Context, userID uuid.UUID) string {
	if userID == uuid.Nil {
		return s.BuildContext(nil, nil, nil)
	}
	if s.contextCache != nil {
		if cached, ok := s.contextCache.Get(ctx, userID); ok {
			return cached
		}
	}
	habitRecords := s.habitQuery.GetHabits(ctx, userID)
	recent, err := s.interactionRepo.GetRecentByUserID(ctx, nil, userID, []string{types.InteractionCompleted}, 10)
	if err != nil {
		s.log.Warn("Recent interaction read failed, building without them", "error", err, "user_id", userID)
		recent = nil
	}
	built := s.BuildContext(habitRecords, nil, recent)
	if s.contextCache != nil {
		s.contextCache.Set(ctx, userID, built)
	}
	return built
}

// BuildContext assembles the context block. Preferences are part of the
// contract but carry no ranking signal yet, so no line is emitted for them.
func (s *personalizationService) BuildContext(habitRecords []*types.HabitRecord, preferences []string, recentInteractions []*types.InteractionEvent) string {
	lines := []string{"Student behavior profile:"}

	for _, record := range habitRecords {
		if record == nil || record.HabitType != types.HabitOptimalCompletionTime {
			continue
		}
		data, err := types.DecodeHabitData(record.HabitType, record.Data)
		if err != nil {
			continue
		}
		times, _ := data.(*types.CompletionTimeData)
		top := habits.TopHours(times, 3)
		if len(top) == 0 {
			continue
		}
		parts := make([]string, 0, len(top))
		for _, hc := range top {
			parts = append(parts, fmt.Sprintf("%d:00", hc.Hour))
		}
		lines = append(lines, fmt.Sprintf("Most productive hours: %s (confidence %d%%)", strings.Join(parts, ", "), roundPercent(record.ConfidenceScore)))
		break
	}

	for _, record := range habitRecords {
		if record == nil || record.HabitType != types.HabitCategoryPreference {
			continue
		}
		data, err := types.DecodeHabitData(record.HabitType, record.Data)
		if err != nil {
			continue
		}
		categories, _ := data.(*types.CategoryPreferenceData)
		top := habits.TopCategories(categories, 3)
		if len(top) == 0 {
			continue
		}
		parts := make([]string, 0, len(top))
		for _, cc := range top {
			parts = append(parts, cc.Category)
		}
		lines = append(lines, "Preferred task categories: "+strings.Join(parts, ", "))
		break
	}

	for _, record := range habitRecords {
		if record == nil || record.HabitType != types.HabitSuggestionAccuracy {
			continue
		}
		data, err := types.DecodeHabitData(record.HabitType, record.Data)
		if err != nil {
			continue
		}
		accuracy, _ := data.(*types.SuggestionAccuracyData)
		if accuracy == nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("AI suggestion acceptance: %d%% (%d of %d accepted)", roundPercent(accuracy.Accuracy), accuracy.Accepted, accuracy.Total))
		break
	}

	if line, ok := onTimeLine(recentInteractions); ok {
		lines = append(lines, line)
	}

	if len(lines) == 1 {
		lines = append(lines, "Profile is still being built from early activity.")
	}
	return strings.Join(lines, "\n")
}

// onTimeLine computes the on-time rate over the last 10 completed
// interactions (or however many exist, if fewer).
func onTimeLine(recentInteractions []*types.InteractionEvent) (string, bool) {
	completions := 0
	onTime := 0
	for _, event := range recentInteractions {
		if event == nil || event.Type != types.InteractionCompleted {
			continue
		}
		if completions == 10 {
			break
		}
		completions++
		var payload types.CompletionPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			continue
		}
		if payload.CompletedOnTime {
			onTime++
		}
	}
	if completions == 0 {
		return "", false
	}
	rate := float64(onTime) / float64(completions)
	return fmt.Sprintf("Recent on-time completion rate: %d%% (%d of %d tasks)", roundPercent(rate), onTime, completions), true
}

func roundPercent(v float64) int {
	return int(math.Round(v * 100))
}
