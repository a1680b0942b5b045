package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// HabitRecord holds one per-user, per-type behavioral aggregate derived from
// interaction events. The (user_id, habit_type) pair is unique; writes go
// through an upsert so the row is never duplicated. Data is the jsonb
// encoding of the typed aggregate in habit_data.go.
type HabitRecord struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index:idx_user_habit_type,unique,priority:1" json:"user_id"`
	User            *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	HabitType       string         `gorm:"column:habit_type;not null;index:idx_user_habit_type,unique,priority:2" json:"habit_type"`
	Data            datatypes.JSON `gorm:"type:jsonb;column:data" json:"data"`
	ConfidenceScore float64        `gorm:"column:confidence_score;not null;default:0" json:"confidence_score"` // 0..1
	CreatedAt       time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (HabitRecord) TableName() string { return "habit_record" }
