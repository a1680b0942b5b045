package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studytrack-backend/internal/logger"
	apperrors "github.com/yungbote/studytrack-backend/internal/pkg/errors"
	"github.com/yungbote/studytrack-backend/internal/repos"
	"github.com/yungbote/studytrack-backend/internal/types"
)

type CreateTaskInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Priority    string    `json:"priority"`
	Deadline    time.Time `json:"deadline"`
}

type UpdateTaskInput struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Category    *string    `json:"category,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Completed   *bool      `json:"completed,omitempty"`
}

// TaskService owns task CRUD. Habit tracking hangs off task state
// transitions as a fire-and-forget side channel: tracking failures are
// logged but never fail or roll back the task mutation that triggered
// them.
type TaskService interface {
	CreateTask(ctx context.Context, userID uuid.UUID, input CreateTaskInput) (*types.Task, error)
	GetUserTasks(ctx context.Context, userID uuid.UUID) ([]*types.Task, error)
	UpdateTask(ctx context.Context, userID, taskID uuid.UUID, input UpdateTaskInput) (*types.Task, error)
	DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error
	DelayTask(ctx context.Context, userID, taskID uuid.UUID, reason string) error
	SkipTask(ctx context.Context, userID, taskID uuid.UUID, reason string) error
}

type taskService struct {
	db       *gorm.DB
	log      *logger.Logger
	taskRepo repos.TaskRepo
	tracker  HabitTrackerService

	// trackTimeout bounds the detached tracking goroutines.
	trackTimeout time.Duration
}

func NewTaskService(db *gorm.DB, log *logger.Logger, taskRepo repos.TaskRepo, tracker HabitTrackerService) TaskService {
	return &taskService{
		db:           db,
		log:          log.With("service", "TaskService"),
		taskRepo:     taskRepo,
		tracker:      tracker,
		trackTimeout: 10 * time.Second,
	}
}

func (s *taskService) CreateTask(ctx context.Context, userID uuid.UUID, input CreateTaskInput) (*types.Task, error) {
	if userID == uuid.Nil {
		return nil, apperrors.ErrUnauthorized
	}
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title required", apperrors.ErrInvalidArgument)
	}
	category := input.Category
	if category == "" {
		category = "Other"
	}
	priority := input.Priority
	if priority == "" {
		priority = "Medium"
	}
	task := &types.Task{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       input.Title,
		Description: input.Description,
		Category:    category,
		Priority:    priority,
		Deadline:    input.Deadline,
	}
	if _, err := s.taskRepo.Create(ctx, nil, []*types.Task{task}); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.trackAsync(userID, "creation", func(trackCtx context.Context) error {
		return s.tracker.RecordCreation(trackCtx, userID, task)
	})
	return task, nil
}

func (s *taskService) GetUserTasks(ctx context.Context, userID uuid.UUID) ([]*types.Task, error) {
	if userID == uuid.Nil {
		return nil, apperrors.ErrUnauthorized
	}
	tasks, err := s.taskRepo.GetByUserID(ctx, nil, userID, 0)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	return tasks, nil
}

func (s *taskService) UpdateTask(ctx context.Context, userID, taskID uuid.UUID, input UpdateTaskInput) (*types.Task, error) {
	if userID == uuid.Nil {
		return nil, apperrors.ErrUnauthorized
	}
	task, err := s.taskRepo.GetByIDForUser(ctx, nil, userID, taskID)
	if err != nil {
		return nil, fmt.Errorf("load task: %w", err)
	}
	if task == nil {
		return nil, apperrors.ErrNotFound
	}

	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Category != nil && *input.Category != "" {
		task.Category = *input.Category
	}
	if input.Priority != nil && *input.Priority != "" {
		task.Priority = *input.Priority
	}
	if input.Deadline != nil {
		task.Deadline = *input.Deadline
	}

	completedNow := false
	if input.Completed != nil && *input.Completed && !task.Completed {
		completedNow = true
		now := time.Now().UTC()
		task.Completed = true
		task.CompletedAt = &now
	} else if input.Completed != nil && !*input.Completed {
		task.Completed = false
		task.CompletedAt = nil
	}

	if err := s.taskRepo.Update(ctx, nil, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}

	if completedNow {
		completedAt := *task.CompletedAt
		s.trackAsync(userID, "completion", func(trackCtx context.Context) error {
			return s.tracker.RecordCompletion(trackCtx, userID, task, completedAt)
		})
	}
	return task, nil
}

func (s *taskService) DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error {
	if userID == uuid.Nil {
		return apperrors.ErrUnauthorized
	}
	if err := s.taskRepo.SoftDeleteByIDForUser(ctx, nil, userID, taskID); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func (s *taskService) DelayTask(ctx context.Context, userID, taskID uuid.UUID, reason string) error {
	return s.recordSetback(ctx, userID, taskID, reason, false)
}

func (s *taskService) SkipTask(ctx context.Context, userID, taskID uuid.UUID, reason string) error {
	return s.recordSetback(ctx, userID, taskID, reason, true)
}

func (s *taskService) recordSetback(ctx context.Context, userID, taskID uuid.UUID, reason string, skipped bool) error {
	if userID == uuid.Nil {
		return apperrors.ErrUnauthorized
	}
	task, err := s.taskRepo.GetByIDForUser(ctx, nil, userID, taskID)
	if err != nil {
		return fmt.Errorf("load task: %w", err)
	}
	if task == nil {
		return apperrors.ErrNotFound
	}
	kind := "delay"
	if skipped {
		kind = "skip"
	}
	s.trackAsync(userID, kind, func(trackCtx context.Context) error {
		if skipped {
			return s.tracker.RecordSkip(trackCtx, userID, task, reason)
		}
		return s.tracker.RecordDelay(trackCtx, userID, task, reason)
	})
	return nil
}

// trackAsync runs one tracking call on a detached context so habit writes
// never block the request and a canceled request never aborts them.
func (s *taskService) trackAsync(userID uuid.UUID, kind string, track func(ctx context.Context) error) {
	if s.tracker == nil {
		return
	}
	go func() {
		trackCtx, cancel := context.WithTimeout(context.Background(), s.trackTimeout)
		defer cancel()
		if err := track(trackCtx); err != nil {
			s.log.Warn("Habit tracking failed", "error", err, "user_id", userID, "interaction", kind)
		}
	}()
}
