package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/studytrack-backend/internal/habits"
	"github.com/yungbote/studytrack-backend/internal/logger"
	"github.com/yungbote/studytrack-backend/internal/repos"
	"github.com/yungbote/studytrack-backend/internal/types"
)

// ContextInvalidator drops a user's cached personalization context after a
// reinforcement changed the underlying habit data.
type ContextInvalidator interface {
	Invalidate(ctx context.Context, userID uuid.UUID)
}

// HabitTrackerService turns single user interactions into an appended
// interaction event plus zero or more habit reinforcements. Everything here
// is best-effort relative to the task flow that triggered it: failures are
// logged and returned, never retried, and callers must not block primary
// task mutations on them.
type HabitTrackerService interface {
	RecordCompletion(ctx context.Context, userID uuid.UUID, task *types.Task, completedAt time.Time) error
	RecordDelay(ctx context.Context, userID uuid.UUID, task *types.Task, reason string) error
	RecordSkip(ctx context.Context, userID uuid.UUID, task *types.Task, reason string) error
	RecordSuggestionFeedback(ctx context.Context, userID uuid.UUID, suggestionID string, accepted bool, suggestion map[string]any) error
	RecordCreation(ctx context.Context, userID uuid.UUID, task *types.Task) error
}

type habitTrackerService struct {
	log             *logger.Logger
	interactionRepo repos.InteractionEventRepo
	habitRepo       repos.HabitRecordRepo
	invalidator     ContextInvalidator
}

func NewHabitTrackerService(
	log *logger.Logger,
	interactionRepo repos.InteractionEventRepo,
	habitRepo repos.HabitRecordRepo,
	invalidator ContextInvalidator,
) HabitTrackerService {
	return &habitTrackerService{
		log:             log.With("service", "HabitTrackerService"),
		interactionRepo: interactionRepo,
		habitRepo:       habitRepo,
		invalidator:     invalidator,
	}
}

func (s *habitTrackerService) RecordCompletion(ctx context.Context, userID uuid.UUID, task *types.Task, completedAt time.Time) error {
	if userID == uuid.Nil || task == nil {
		return nil
	}
	hour := completedAt.Hour()
	payload := types.CompletionPayload{
		Category:        task.Category,
		Priority:        task.Priority,
		CompletionHour:  hour,
		CompletedOnTime: !completedAt.After(task.Deadline),
	}
	if err := s.appendEvent(ctx, userID, &task.ID, types.InteractionCompleted, "", payload, completedAt); err != nil {
		return err
	}

	if err := s.reinforceCompletionTime(ctx, userID, hour); err != nil {
		s.log.Error("Completion-time reinforcement failed", "error", err, "user_id", userID)
		return err
	}
	if err := s.reinforceCategory(ctx, userID, task.Category); err != nil {
		s.log.Error("Category reinforcement failed", "error", err, "user_id", userID)
		return err
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, userID)
	}
	return nil
}

// RecordDelay appends the event only. Delay carries negative signal, but a
// negative-reinforcement policy is a pending product decision, so the
// confidence model stays untouched and the reason is preserved for later.
func (s *habitTrackerService) RecordDelay(ctx context.Context, userID uuid.UUID, task *types.Task, reason string) error {
	return s.recordNegativeSignal(ctx, userID, task, types.InteractionDelayed, reason)
}

// RecordSkip appends the event only, same as RecordDelay.
func (s *habitTrackerService) RecordSkip(ctx context.Context, userID uuid.UUID, task *types.Task, reason string) error {
	return s.recordNegativeSignal(ctx, userID, task, types.InteractionSkipped, reason)
}

func (s *habitTrackerService) recordNegativeSignal(ctx context.Context, userID uuid.UUID, task *types.Task, eventType, reason string) error {
	if userID == uuid.Nil || task == nil {
		return nil
	}
	deadline := task.Deadline
	payload := types.DelayPayload{
		Category:         task.Category,
		Reason:           reason,
		OriginalDeadline: &deadline,
	}
	return s.appendEvent(ctx, userID, &task.ID, eventType, "", payload, time.Now().UTC())
}

func (s *habitTrackerService) RecordSuggestionFeedback(ctx context.Context, userID uuid.UUID, suggestionID string, accepted bool, suggestion map[string]any) error {
	if userID == uuid.Nil {
		return nil
	}
	eventType := types.InteractionSuggestionRejected
	if accepted {
		eventType = types.InteractionSuggestionAccepted
	}
	payload := types.SuggestionPayload{
		SuggestionID: suggestionID,
		Accepted:     accepted,
		Suggestion:   suggestion,
	}
	if err := s.appendEvent(ctx, userID, nil, eventType, types.SourceAISuggestion, payload, time.Now().UTC()); err != nil {
		return err
	}

	_, err := s.habitRepo.Reinforce(ctx, userID, types.HabitSuggestionAccuracy, func(record *types.HabitRecord, data types.HabitData) error {
		accuracy, ok := data.(*types.SuggestionAccuracyData)
		if !ok {
			return fmt.Errorf("unexpected aggregate %T for %s", data, record.HabitType)
		}
		habits.ReinforceSuggestion(accuracy, accepted)
		record.ConfidenceScore = habits.NextConfidence(record.ConfidenceScore, habits.Increment(record.HabitType))
		return nil
	})
	if err != nil {
		s.log.Error("Suggestion-accuracy reinforcement failed", "error", err, "user_id", userID)
		return err
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, userID)
	}
	return nil
}

func (s *habitTrackerService) RecordCreation(ctx context.Context, userID uuid.UUID, task *types.Task) error {
	if userID == uuid.Nil || task == nil {
		return nil
	}
	payload := map[string]any{
		"category": task.Category,
		"priority": task.Priority,
	}
	return s.appendEvent(ctx, userID, &task.ID, types.InteractionCreated, types.SourceManualCreation, payload, time.Now().UTC())
}

func (s *habitTrackerService) reinforceCompletionTime(ctx context.Context, userID uuid.UUID, hour int) error {
	_, err := s.habitRepo.Reinforce(ctx, userID, types.HabitOptimalCompletionTime, func(record *types.HabitRecord, data types.HabitData) error {
		times, ok := data.(*types.CompletionTimeData)
		if !ok {
			return fmt.Errorf("unexpected aggregate %T for %s", data, record.HabitType)
		}
		habits.ReinforceCompletionTime(times, hour)
		record.ConfidenceScore = habits.NextConfidence(record.ConfidenceScore, habits.Increment(record.HabitType))
		return nil
	})
	return err
}

func (s *habitTrackerService) reinforceCategory(ctx context.Context, userID uuid.UUID, category string) error {
	_, err := s.habitRepo.Reinforce(ctx, userID, types.HabitCategoryPreference, func(record *types.HabitRecord, data types.HabitData) error {
		categories, ok := data.(*types.CategoryPreferenceData)
		if !ok {
			return fmt.Errorf("unexpected aggregate %T for %s", data, record.HabitType)
		}
		habits.ReinforceCategory(categories, category)
		record.ConfidenceScore = habits.NextConfidence(record.ConfidenceScore, habits.Increment(record.HabitType))
		return nil
	})
	return err
}

func (s *habitTrackerService) appendEvent(ctx context.Context, userID uuid.UUID, taskID *uuid.UUID, eventType, source string, payload any, occurredAt time.Time) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	event := &types.InteractionEvent{
		ID:         uuid.New(),
		UserID:     userID,
		TaskID:     taskID,
		Type:       eventType,
		Source:     source,
		Data:       datatypes.JSON(raw),
		OccurredAt: occurredAt,
	}
	if _, err := s.interactionRepo.Append(ctx, nil, []*types.InteractionEvent{event}); err != nil {
		s.log.Error("Interaction append failed", "error", err, "user_id", userID, "type", eventType)
		return fmt.Errorf("append %s event: %w", eventType, err)
	}
	return nil
}
