package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/yungbote/studytrack-backend/internal/pkg/errors"
	"github.com/yungbote/studytrack-backend/internal/repos"
	"github.com/yungbote/studytrack-backend/internal/types"
)

// fakeTaskRepo serves canned tasks ordered newest first, like the gorm repo.
type fakeTaskRepo struct {
	mu    sync.Mutex
	tasks []*types.Task
}

func (f *fakeTaskRepo) Create(ctx context.Context, tx *gorm.DB, tasks []*types.Task) ([]*types.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, tasks...)
	return tasks, nil
}

func (f *fakeTaskRepo) GetByIDForUser(ctx context.Context, tx *gorm.DB, userID, taskID uuid.UUID) (*types.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, task := range f.tasks {
		if task.UserID == userID && task.ID == taskID {
			return task, nil
		}
	}
	return nil, nil
}

func (f *fakeTaskRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.Task
	for _, task := range f.tasks {
		if task.UserID == userID {
			out = append(out, task)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeTaskRepo) Update(ctx context.Context, tx *gorm.DB, task *types.Task) error {
	return nil
}

func (f *fakeTaskRepo) SoftDeleteByIDForUser(ctx context.Context, tx *gorm.DB, userID, taskID uuid.UUID) error {
	return nil
}

// fakeAIClient records the prompt and returns a canned reply.
type fakeAIClient struct {
	reply        string
	err          error
	lastSystem   string
	lastUser     string
	lastMessages []ChatMessage
}

func (f *fakeAIClient) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	f.lastSystem = system
	f.lastUser = user
	return f.reply, f.err
}

func (f *fakeAIClient) CompleteText(ctx context.Context, messages []ChatMessage) (string, error) {
	f.lastMessages = messages
	return f.reply, f.err
}

func newInsightsFixture(t *testing.T, store *repos.MemStore, taskRepo *fakeTaskRepo, ai *fakeAIClient) InsightsService {
	t.Helper()
	query := NewHabitQueryService(testLogger(t), store)
	personalization := NewPersonalizationService(testLogger(t), query, store, nil)
	return NewInsightsService(testLogger(t), taskRepo, store, query, personalization, ai)
}

func TestSuggestTasksInjectsPersonalization(t *testing.T) {
	store := repos.NewMemStore()
	userID := uuid.New()
	seedHabits(t, store, userID)

	ai := &fakeAIClient{reply: `{"suggestions":[{"title":"Review algebra","description":"Go over chapter 3","category":"Study","priority":"Medium","estimatedDuration":"45"}]}`}
	svc := newInsightsFixture(t, store, &fakeTaskRepo{}, ai)

	suggestions, err := svc.SuggestTasks(context.Background(), userID)
	if err != nil {
		t.Fatalf("SuggestTasks: %v", err)
	}
	if len(suggestions) != 1 || suggestions[0].Title != "Review algebra" {
		t.Fatalf("suggestions = %+v", suggestions)
	}
	if !strings.Contains(ai.lastUser, "Student behavior profile:") {
		t.Fatal("prompt missing personalization context")
	}
	if !strings.Contains(ai.lastUser, "Most productive hours:") {
		t.Fatal("prompt missing productive-hours line")
	}
}

func TestSuggestTasksRequiresUser(t *testing.T) {
	svc := newInsightsFixture(t, repos.NewMemStore(), &fakeTaskRepo{}, &fakeAIClient{})
	if _, err := svc.SuggestTasks(context.Background(), uuid.Nil); err == nil {
		t.Fatal("expected error for nil user")
	}
}

func TestChatInjectsPersonalization(t *testing.T) {
	store := repos.NewMemStore()
	userID := uuid.New()
	seedHabits(t, store, userID)

	ai := &fakeAIClient{reply: "Try scheduling your reviews in the morning."}
	svc := newInsightsFixture(t, store, &fakeTaskRepo{}, ai)

	history := []ChatMessage{
		{Role: "user", Content: "When should I study?"},
		{Role: "assistant", Content: "Mornings tend to work well."},
	}
	reply, err := svc.Chat(context.Background(), userID, "What about reviews?", history)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if reply != ai.reply {
		t.Fatalf("reply = %q", reply)
	}
	if len(ai.lastMessages) != 4 {
		t.Fatalf("messages = %d, want system + 2 history + user", len(ai.lastMessages))
	}
	system := ai.lastMessages[0]
	if system.Role != "system" || !strings.Contains(system.Content, "Student behavior profile:") {
		t.Fatalf("system message missing behavior profile: %+v", system)
	}
	if !strings.Contains(system.Content, "Most productive hours:") {
		t.Fatal("system message missing productive-hours line")
	}
	last := ai.lastMessages[len(ai.lastMessages)-1]
	if last.Role != "user" || last.Content != "What about reviews?" {
		t.Fatalf("last message = %+v", last)
	}
}

func TestChatKeepsOnlyRecentHistory(t *testing.T) {
	ai := &fakeAIClient{reply: "ok"}
	svc := newInsightsFixture(t, repos.NewMemStore(), &fakeTaskRepo{}, ai)

	history := make([]ChatMessage, 0, 14)
	for i := 0; i < 14; i++ {
		history = append(history, ChatMessage{Role: "user", Content: fmt.Sprintf("turn %d", i)})
	}
	if _, err := svc.Chat(context.Background(), uuid.New(), "latest question", history); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if len(ai.lastMessages) != 12 {
		t.Fatalf("messages = %d, want system + 10 history + user", len(ai.lastMessages))
	}
	if got := ai.lastMessages[1].Content; got != "turn 4" {
		t.Fatalf("oldest forwarded turn = %q, want %q", got, "turn 4")
	}
}

func TestChatValidation(t *testing.T) {
	svc := newInsightsFixture(t, repos.NewMemStore(), &fakeTaskRepo{}, &fakeAIClient{})

	if _, err := svc.Chat(context.Background(), uuid.Nil, "hello", nil); err == nil {
		t.Fatal("expected error for nil user")
	}
	_, err := svc.Chat(context.Background(), uuid.New(), "   ", nil)
	if !errors.Is(err, apperrors.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for blank message, got %v", err)
	}
}

func TestLearningSummary(t *testing.T) {
	store := repos.NewMemStore()
	userID := uuid.New()
	taskRepo := &fakeTaskRepo{}
	tracker := NewHabitTrackerService(testLogger(t), store, store, nil)
	ctx := context.Background()

	now := time.Now().UTC()
	for i := 0; i < 4; i++ {
		task := studyTask(userID, "Study", now.Add(24*time.Hour))
		task.CreatedAt = now.Add(time.Duration(i) * time.Minute)
		if i < 3 {
			task.Completed = true
			completedAt := now.Add(time.Duration(i) * time.Minute)
			task.CompletedAt = &completedAt
			if err := tracker.RecordCompletion(ctx, userID, task, completedAt); err != nil {
				t.Fatalf("RecordCompletion: %v", err)
			}
		}
		if _, err := taskRepo.Create(ctx, nil, []*types.Task{task}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	for _, accepted := range []bool{true, false, true, true} {
		if err := tracker.RecordSuggestionFeedback(ctx, userID, uuid.New().String(), accepted, nil); err != nil {
			t.Fatalf("RecordSuggestionFeedback: %v", err)
		}
	}

	svc := newInsightsFixture(t, store, taskRepo, &fakeAIClient{})
	summary, err := svc.LearningSummary(ctx, userID)
	if err != nil {
		t.Fatalf("LearningSummary: %v", err)
	}
	if summary.CompletionRate != 0.75 {
		t.Fatalf("CompletionRate = %v, want 0.75", summary.CompletionRate)
	}
	if summary.SuggestionAccuracy != 0.75 {
		t.Fatalf("SuggestionAccuracy = %v, want 0.75", summary.SuggestionAccuracy)
	}
	if summary.TotalInteractions != 7 {
		t.Fatalf("TotalInteractions = %d, want 7", summary.TotalInteractions)
	}
	if len(summary.RecentActivity) != 7 {
		t.Fatalf("RecentActivity = %d entries, want 7", len(summary.RecentActivity))
	}
}

func TestParseSuggestions(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{
			name: "wrapped object",
			raw:  `{"suggestions":[{"title":"a"},{"title":"b"}]}`,
			want: 2,
		},
		{
			name: "bare array",
			raw:  `[{"title":"a"}]`,
			want: 1,
		},
		{
			name: "fenced",
			raw:  "```json\n{\"suggestions\":[{\"title\":\"a\"}]}\n```",
			want: 1,
		},
		{name: "empty object", raw: `{}`, wantErr: true},
		{name: "prose", raw: `Sorry, I cannot help.`, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseSuggestions(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseSuggestions: %v", err)
			}
			if len(got) != tc.want {
				t.Fatalf("len = %d, want %d", len(got), tc.want)
			}
		})
	}
}

func TestParseDeadline(t *testing.T) {
	prediction, err := parseDeadline(`{"suggestedDeadline":"2026-09-04","reasoning":"light week","confidence":"High"}`)
	if err != nil {
		t.Fatalf("parseDeadline: %v", err)
	}
	if prediction.SuggestedDeadline != "2026-09-04" || prediction.Confidence != "High" {
		t.Fatalf("prediction = %+v", prediction)
	}

	if _, err := parseDeadline(`{"reasoning":"no date"}`); err == nil {
		t.Fatal("expected error for missing suggestedDeadline")
	}
}

func TestParseSchedule(t *testing.T) {
	raw := `{"schedule":[{"day":"Monday","sessions":[{"time":"09:00","task":"Math review","type":"Study","priority":"High"}]}],"tips":["take breaks"],"totalStudyHours":2.5}`
	schedule, err := parseSchedule(raw)
	if err != nil {
		t.Fatalf("parseSchedule: %v", err)
	}
	if len(schedule.Schedule) != 1 || schedule.Schedule[0].Day != "Monday" {
		t.Fatalf("schedule = %+v", schedule)
	}
	if schedule.TotalStudyHours != 2.5 {
		t.Fatalf("TotalStudyHours = %v", schedule.TotalStudyHours)
	}

	if _, err := parseSchedule(`{"schedule":[]}`); err == nil {
		t.Fatal("expected error for empty schedule")
	}
}

func TestStripFences(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```\n{\"a\":1}\n```", "{\"a\":1}"},
		{"  {\"a\":1}  ", "{\"a\":1}"},
	}
	for _, tc := range cases {
		if got := stripFences(tc.raw); got != tc.want {
			t.Errorf("stripFences(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
