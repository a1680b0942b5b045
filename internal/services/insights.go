package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/studytrack-backend/internal/logger"
	apperrors "github.com/yungbote/studytrack-backend/internal/pkg/errors"
	"github.com/yungbote/studytrack-backend/internal/repos"
	"github.com/yungbote/studytrack-backend/internal/types"
)

type TaskSuggestion struct {
	Title             string `json:"title"`
	Description       string `json:"description"`
	Category          string `json:"category"`
	Priority          string `json:"priority"`
	EstimatedDuration string `json:"estimatedDuration"`
}

type DeadlinePrediction struct {
	SuggestedDeadline string `json:"suggestedDeadline"`
	Reasoning         string `json:"reasoning"`
	Confidence        string `json:"confidence"`
}

type ScheduleSession struct {
	Time     string `json:"time"`
	Task     string `json:"task"`
	Type     string `json:"type"`
	Priority string `json:"priority"`
}

type ScheduleDay struct {
	Day      string            `json:"day"`
	Sessions []ScheduleSession `json:"sessions"`
}

type StudySchedule struct {
	Schedule        []ScheduleDay `json:"schedule"`
	Tips            []string      `json:"tips"`
	TotalStudyHours float64       `json:"totalStudyHours"`
}

// TaskDraft is the partially-filled task a deadline is predicted for.
type TaskDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
}

type ActivityItem struct {
	ID              uuid.UUID `json:"id"`
	InteractionType string    `json:"interaction_type"`
	OccurredAt      time.Time `json:"occurred_at"`
}

type LearningSummary struct {
	CompletionRate     float64        `json:"completion_rate"`
	SuggestionAccuracy float64        `json:"suggestion_accuracy"`
	TotalInteractions  int64          `json:"total_interactions"`
	RecentActivity     []ActivityItem `json:"recent_activity"`
}

// InsightsService drives the AI-facing features: task suggestions, deadline
// prediction, schedule optimization, and the study assistant chat. Every
// prompt gets the user's personalization context, which is the whole point of
// the habit subsystem. LLM failures surface to the caller; nothing here
// touches habit state.
type InsightsService interface {
	SuggestTasks(ctx context.Context, userID uuid.UUID) ([]TaskSuggestion, error)
	PredictDeadline(ctx context.Context, userID uuid.UUID, draft TaskDraft) (*DeadlinePrediction, error)
	OptimizeSchedule(ctx context.Context, userID uuid.UUID) (*StudySchedule, error)
	LearningSummary(ctx context.Context, userID uuid.UUID) (*LearningSummary, error)
	Chat(ctx context.Context, userID uuid.UUID, message string, history []ChatMessage) (string, error)
}

// chatHistoryLimit caps how many prior turns are forwarded to the model.
const chatHistoryLimit = 10

type insightsService struct {
	log             *logger.Logger
	taskRepo        repos.TaskRepo
	interactionRepo repos.InteractionEventRepo
	habitQuery      HabitQueryService
	personalization PersonalizationService
	aiClient        OpenAIClient
}

func NewInsightsService(
	log *logger.Logger,
	taskRepo repos.TaskRepo,
	interactionRepo repos.InteractionEventRepo,
	habitQuery HabitQueryService,
	personalization PersonalizationService,
	aiClient OpenAIClient,
) InsightsService {
	return &insightsService{
		log:             log.With("service", "InsightsService"),
		taskRepo:        taskRepo,
		interactionRepo: interactionRepo,
		habitQuery:      habitQuery,
		personalization: personalization,
		aiClient:        aiClient,
	}
}

func (s *insightsService) SuggestTasks(ctx context.Context, userID uuid.UUID) ([]TaskSuggestion, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user required")
	}
	personalization, taskJSON, err := s.promptInputs(ctx, userID)
	if err != nil {
		return nil, err
	}

	system := "You are an AI study assistant that analyzes study patterns and suggests intelligent tasks. " +
		"Based on the user's task history, suggest 3-5 relevant tasks that would help them improve their studies. " +
		"Consider their subjects, completion patterns, and academic goals."
	user := personalization + "\n\nExisting tasks: " + taskJSON + "\n\n" +
		`Suggest 3-5 new tasks that would be beneficial for the user's study progress. Consider subjects they're working on, gaps in their study routine, review sessions for completed topics, and preparation for upcoming deadlines. Return ONLY a JSON object: {"suggestions": [{"title": "...", "description": "...", "category": "Assignment|Exam|Study|Personal", "priority": "High|Medium|Low", "estimatedDuration": "estimated time in minutes"}]}`

	raw, err := s.aiClient.CompleteJSON(ctx, system, user)
	if err != nil {
		return nil, fmt.Errorf("suggest tasks: %w", err)
	}
	suggestions, err := parseSuggestions(raw)
	if err != nil {
		s.log.Warn("Suggestion reply did not parse", "error", err, "user_id", userID)
		return nil, err
	}
	return suggestions, nil
}

func (s *insightsService) PredictDeadline(ctx context.Context, userID uuid.UUID, draft TaskDraft) (*DeadlinePrediction, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user required")
	}
	personalization, taskJSON, err := s.promptInputs(ctx, userID)
	if err != nil {
		return nil, err
	}
	draftJSON, err := json.Marshal(draft)
	if err != nil {
		return nil, fmt.Errorf("marshal draft: %w", err)
	}

	system := "You are an AI deadline prediction assistant. Based on task complexity, the user's completion patterns, and workload, predict realistic deadlines."
	user := personalization + "\n\nNew task: " + string(draftJSON) + "\nTask history: " + taskJSON + "\n\n" +
		`Analyze the user's completion patterns and suggest a realistic deadline. Consider task complexity and category, the user's average completion time for similar tasks, current workload, and buffer time for unexpected delays. Return ONLY a JSON object: {"suggestedDeadline": "YYYY-MM-DD", "reasoning": "...", "confidence": "High|Medium|Low"}`

	raw, err := s.aiClient.CompleteJSON(ctx, system, user)
	if err != nil {
		return nil, fmt.Errorf("predict deadline: %w", err)
	}
	prediction, err := parseDeadline(raw)
	if err != nil {
		s.log.Warn("Deadline reply did not parse", "error", err, "user_id", userID)
		return nil, err
	}
	return prediction, nil
}

func (s *insightsService) OptimizeSchedule(ctx context.Context, userID uuid.UUID) (*StudySchedule, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user required")
	}
	personalization, taskJSON, err := s.openTaskPromptInputs(ctx, userID)
	if err != nil {
		return nil, err
	}

	system := "You are an AI study schedule optimizer. Create an optimal study schedule based on task priorities, deadlines, and learning patterns."
	user := personalization + "\n\nOpen tasks: " + taskJSON + "\n\n" +
		`Create an optimized study schedule for the next 7 days. Consider task priorities and deadlines, optimal study session lengths (25-50 minutes), brain-friendly study patterns, work-life balance, and review sessions for retention. Return ONLY a JSON object: {"schedule": [{"day": "Monday", "sessions": [{"time": "HH:MM", "task": "...", "type": "Study|Review|Break", "priority": "High|Medium|Low"}]}], "tips": ["..."], "totalStudyHours": 0}`

	raw, err := s.aiClient.CompleteJSON(ctx, system, user)
	if err != nil {
		return nil, fmt.Errorf("optimize schedule: %w", err)
	}
	schedule, err := parseSchedule(raw)
	if err != nil {
		s.log.Warn("Schedule reply did not parse", "error", err, "user_id", userID)
		return nil, err
	}
	return schedule, nil
}

// Chat answers a free-form study question. The system prompt carries the
// user's behavior profile so replies reflect their habits, and only the most
// recent history turns ride along.
func (s *insightsService) Chat(ctx context.Context, userID uuid.UUID, message string, history []ChatMessage) (string, error) {
	if userID == uuid.Nil {
		return "", fmt.Errorf("user required")
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("%w: message required", apperrors.ErrInvalidArgument)
	}

	system := "You are an AI study assistant for StudyTrack, a task management app for students. " +
		"You help with task management and organization, study schedule planning, productivity tips and techniques, " +
		"deadline management, motivation and stress management, and academic goal setting. " +
		"Keep responses helpful, encouraging, and focused on study productivity. Be concise but thorough." +
		"\n\n" + s.personalization.BuildForUser(ctx, userID)

	if len(history) > chatHistoryLimit {
		history = history[len(history)-chatHistoryLimit:]
	}
	messages := make([]ChatMessage, 0, len(history)+2)
	messages = append(messages, ChatMessage{Role: "system", Content: system})
	for _, turn := range history {
		if turn.Role != "user" && turn.Role != "assistant" {
			continue
		}
		if strings.TrimSpace(turn.Content) == "" {
			continue
		}
		messages = append(messages, turn)
	}
	messages = append(messages, ChatMessage{Role: "user", Content: message})

	reply, err := s.aiClient.CompleteText(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}
	return reply, nil
}

// LearningSummary backs the dashboard insight card: completion rate over
// the 20 most recent tasks, suggestion accuracy, interaction volume, and
// the 10 latest interactions.
func (s *insightsService) LearningSummary(ctx context.Context, userID uuid.UUID) (*LearningSummary, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("user required")
	}

	var (
		tasks  []*types.Task
		recent []*types.InteractionEvent
		total  int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tasks, err = s.taskRepo.GetByUserID(gctx, nil, userID, 20)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.interactionRepo.GetRecentByUserID(gctx, nil, userID, nil, 10)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.interactionRepo.CountByUserID(gctx, nil, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load learning summary: %w", err)
	}

	completed := 0
	for _, task := range tasks {
		if task.Completed {
			completed++
		}
	}
	completionRate := 0.0
	if len(tasks) > 0 {
		completionRate = float64(completed) / float64(len(tasks))
	}

	accuracy := s.habitQuery.GetSuggestionAccuracy(ctx, userID)

	activity := make([]ActivityItem, 0, len(recent))
	for _, event := range recent {
		activity = append(activity, ActivityItem{
			ID:              event.ID,
			InteractionType: event.Type,
			OccurredAt:      event.OccurredAt,
		})
	}

	return &LearningSummary{
		CompletionRate:     completionRate,
		SuggestionAccuracy: accuracy.Accuracy,
		TotalInteractions:  total,
		RecentActivity:     activity,
	}, nil
}

// promptInputs loads the personalization context and recent task history in
// parallel and serializes the tasks for prompt injection.
func (s *insightsService) promptInputs(ctx context.Context, userID uuid.UUID) (string, string, error) {
	var (
		personalization string
		tasks           []*types.Task
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		personalization = s.personalization.BuildForUser(gctx, userID)
		return nil
	})
	g.Go(func() error {
		var err error
		tasks, err = s.taskRepo.GetByUserID(gctx, nil, userID, 20)
		return err
	})
	if err := g.Wait(); err != nil {
		return "", "", fmt.Errorf("load prompt inputs: %w", err)
	}
	taskJSON, err := marshalTasksForPrompt(tasks)
	if err != nil {
		return "", "", err
	}
	return personalization, taskJSON, nil
}

func (s *insightsService) openTaskPromptInputs(ctx context.Context, userID uuid.UUID) (string, string, error) {
	personalization, _, err := s.promptInputs(ctx, userID)
	if err != nil {
		return "", "", err
	}
	tasks, err := s.taskRepo.GetByUserID(ctx, nil, userID, 50)
	if err != nil {
		return "", "", fmt.Errorf("load open tasks: %w", err)
	}
	open := make([]*types.Task, 0, len(tasks))
	for _, task := range tasks {
		if !task.Completed {
			open = append(open, task)
		}
	}
	taskJSON, err := marshalTasksForPrompt(open)
	if err != nil {
		return "", "", err
	}
	return personalization, taskJSON, nil
}

type promptTask struct {
	Title     string `json:"title"`
	Category  string `json:"category"`
	Priority  string `json:"priority"`
	Deadline  string `json:"deadline"`
	Completed bool   `json:"completed"`
}

func marshalTasksForPrompt(tasks []*types.Task) (string, error) {
	out := make([]promptTask, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, promptTask{
			Title:     task.Title,
			Category:  task.Category,
			Priority:  task.Priority,
			Deadline:  task.Deadline.Format("2006-01-02"),
			Completed: task.Completed,
		})
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("marshal tasks for prompt: %w", err)
	}
	return string(raw), nil
}

func parseSuggestions(raw string) ([]TaskSuggestion, error) {
	var wrapped struct {
		Suggestions []TaskSuggestion `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), &wrapped); err == nil && len(wrapped.Suggestions) > 0 {
		return wrapped.Suggestions, nil
	}
	// Some models reply with a bare array despite the object instruction.
	var bare []TaskSuggestion
	if err := json.Unmarshal([]byte(stripFences(raw)), &bare); err == nil && len(bare) > 0 {
		return bare, nil
	}
	return nil, fmt.Errorf("unparseable suggestions reply: %s", truncateForLog(raw))
}

func parseDeadline(raw string) (*DeadlinePrediction, error) {
	var prediction DeadlinePrediction
	if err := json.Unmarshal([]byte(stripFences(raw)), &prediction); err != nil {
		return nil, fmt.Errorf("unparseable deadline reply: %w", err)
	}
	if prediction.SuggestedDeadline == "" {
		return nil, fmt.Errorf("deadline reply missing suggestedDeadline: %s", truncateForLog(raw))
	}
	return &prediction, nil
}

func parseSchedule(raw string) (*StudySchedule, error) {
	var schedule StudySchedule
	if err := json.Unmarshal([]byte(stripFences(raw)), &schedule); err != nil {
		return nil, fmt.Errorf("unparseable schedule reply: %w", err)
	}
	if len(schedule.Schedule) == 0 {
		return nil, fmt.Errorf("schedule reply had no days: %s", truncateForLog(raw))
	}
	return &schedule, nil
}

// stripFences drops markdown code fences some models wrap JSON in.
func stripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func truncateForLog(raw string) string {
	if len(raw) > 200 {
		return raw[:200] + "..."
	}
	return raw
}
