package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Interaction event types.
const (
	InteractionCreated            = "created"
	InteractionCompleted          = "completed"
	InteractionDelayed            = "delayed"
	InteractionSkipped            = "skipped"
	InteractionSuggestionAccepted = "suggestion_accepted"
	InteractionSuggestionRejected = "suggestion_rejected"
)

// Interaction sources, meaningful for suggestion-related types only.
const (
	SourceAISuggestion   = "ai_suggestion"
	SourceManualCreation = "manual_creation"
)

// InteractionEvent is an append-only fact about one user action. Rows are
// never mutated once written; habit records are derived from them.
type InteractionEvent struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User       *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	TaskID     *uuid.UUID     `gorm:"type:uuid;index" json:"task_id,omitempty"`
	Task       *Task          `gorm:"constraint:OnDelete:SET NULL;foreignKey:TaskID;references:ID" json:"task,omitempty"`
	Type       string         `gorm:"column:type;not null;index" json:"type"`
	Source     string         `gorm:"column:source" json:"source,omitempty"`
	Data       datatypes.JSON `gorm:"type:jsonb;column:data" json:"data"`
	OccurredAt time.Time      `gorm:"column:occurred_at;not null;index" json:"occurred_at"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (InteractionEvent) TableName() string { return "interaction_event" }

// CompletionPayload is the Data shape for "completed" events.
type CompletionPayload struct {
	Category        string `json:"category"`
	Priority        string `json:"priority"`
	CompletionHour  int    `json:"completion_hour"`
	CompletedOnTime bool   `json:"completed_on_time"`
}

// DelayPayload is the Data shape for "delayed" and "skipped" events.
type DelayPayload struct {
	Category         string     `json:"category"`
	Reason           string     `json:"reason,omitempty"`
	OriginalDeadline *time.Time `json:"original_deadline,omitempty"`
}

// SuggestionPayload is the Data shape for suggestion feedback events.
type SuggestionPayload struct {
	SuggestionID string         `json:"suggestion_id"`
	Accepted     bool           `json:"accepted"`
	Suggestion   map[string]any `json:"suggestion,omitempty"`
}
