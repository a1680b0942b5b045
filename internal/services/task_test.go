package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/yungbote/studytrack-backend/internal/pkg/errors"
	"github.com/yungbote/studytrack-backend/internal/repos"
	"github.com/yungbote/studytrack-backend/internal/types"
)

func newTaskFixture(t *testing.T) (TaskService, *fakeTaskRepo, *repos.MemStore) {
	t.Helper()
	store := repos.NewMemStore()
	taskRepo := &fakeTaskRepo{}
	tracker := NewHabitTrackerService(testLogger(t), store, store, nil)
	svc := NewTaskService(nil, testLogger(t), taskRepo, tracker)
	return svc, taskRepo, store
}

// waitForEvents polls for async tracking writes to land.
func waitForEvents(t *testing.T, store *repos.MemStore, userID uuid.UUID, want int64) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		count, err := store.CountByUserID(context.Background(), nil, userID)
		if err != nil {
			t.Fatalf("CountByUserID: %v", err)
		}
		if count >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d tracked events", want)
}

func TestCreateTaskDefaults(t *testing.T) {
	svc, _, store := newTaskFixture(t)
	userID := uuid.New()

	task, err := svc.CreateTask(context.Background(), userID, CreateTaskInput{
		Title:    "Finish essay",
		Deadline: time.Now().Add(48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.Category != "Other" {
		t.Fatalf("Category = %q, want Other", task.Category)
	}
	if task.Priority != "Medium" {
		t.Fatalf("Priority = %q, want Medium", task.Priority)
	}
	waitForEvents(t, store, userID, 1)

	events, err := store.GetRecentByUserID(context.Background(), nil, userID, []string{types.InteractionCreated}, 0)
	if err != nil || len(events) != 1 {
		t.Fatalf("creation events: err=%v len=%d", err, len(events))
	}
	if events[0].Source != types.SourceManualCreation {
		t.Fatalf("Source = %q, want %q", events[0].Source, types.SourceManualCreation)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	svc, _, _ := newTaskFixture(t)

	if _, err := svc.CreateTask(context.Background(), uuid.Nil, CreateTaskInput{Title: "x"}); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("nil user: err = %v, want ErrUnauthorized", err)
	}
	if _, err := svc.CreateTask(context.Background(), uuid.New(), CreateTaskInput{}); !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("empty title: err = %v, want ErrInvalidArgument", err)
	}
}

func TestUpdateTaskCompletionTracksOnce(t *testing.T) {
	svc, _, store := newTaskFixture(t)
	userID := uuid.New()
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, userID, CreateTaskInput{
		Title:    "Read chapter 4",
		Category: "Study",
		Deadline: time.Now().Add(48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	waitForEvents(t, store, userID, 1)

	completed := true
	updated, err := svc.UpdateTask(ctx, userID, task.ID, UpdateTaskInput{Completed: &completed})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if !updated.Completed || updated.CompletedAt == nil {
		t.Fatalf("task not marked completed: %+v", updated)
	}
	// Creation event plus completion event.
	waitForEvents(t, store, userID, 2)

	// Completing an already-completed task reinforces nothing.
	if _, err := svc.UpdateTask(ctx, userID, task.ID, UpdateTaskInput{Completed: &completed}); err != nil {
		t.Fatalf("UpdateTask again: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	count, err := store.CountByUserID(ctx, nil, userID)
	if err != nil {
		t.Fatalf("CountByUserID: %v", err)
	}
	if count != 2 {
		t.Fatalf("events = %d, want 2 (no double completion)", count)
	}

	record, err := store.GetByUserAndType(ctx, nil, userID, types.HabitCategoryPreference)
	if err != nil || record == nil {
		t.Fatalf("category record: err=%v record=%v", err, record)
	}
}

func TestUpdateTaskNotFound(t *testing.T) {
	svc, _, _ := newTaskFixture(t)
	completed := true
	_, err := svc.UpdateTask(context.Background(), uuid.New(), uuid.New(), UpdateTaskInput{Completed: &completed})
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDelaySkipRecordEvents(t *testing.T) {
	svc, _, store := newTaskFixture(t)
	userID := uuid.New()
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, userID, CreateTaskInput{
		Title:    "Lab writeup",
		Category: "Assignment",
		Deadline: time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	waitForEvents(t, store, userID, 1)

	if err := svc.DelayTask(ctx, userID, task.ID, "not ready"); err != nil {
		t.Fatalf("DelayTask: %v", err)
	}
	if err := svc.SkipTask(ctx, userID, task.ID, ""); err != nil {
		t.Fatalf("SkipTask: %v", err)
	}
	waitForEvents(t, store, userID, 3)

	delayed, err := store.GetRecentByUserID(ctx, nil, userID, []string{types.InteractionDelayed}, 0)
	if err != nil || len(delayed) != 1 {
		t.Fatalf("delayed events: err=%v len=%d", err, len(delayed))
	}
	if err := svc.DelayTask(ctx, userID, uuid.New(), ""); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("missing task: err = %v, want ErrNotFound", err)
	}
}
