package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studytrack-backend/internal/logger"
	"github.com/yungbote/studytrack-backend/internal/types"
)

// InteractionEventRepo is the append-only interaction log. Events are never
// updated; retention is a concern of the surrounding platform, not this
// service.
type InteractionEventRepo interface {
	Append(ctx context.Context, tx *gorm.DB, events []*types.InteractionEvent) ([]*types.InteractionEvent, error)
	GetRecentByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, eventTypes []string, limit int) ([]*types.InteractionEvent, error)
	CountByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error)
}

type interactionEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInteractionEventRepo(db *gorm.DB, baseLog *logger.Logger) InteractionEventRepo {
	return &interactionEventRepo{db: db, log: baseLog.With("repo", "InteractionEventRepo")}
}

func (r *interactionEventRepo) Append(ctx context.Context, tx *gorm.DB, events []*types.InteractionEvent) ([]*types.InteractionEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(events) == 0 {
		return []*types.InteractionEvent{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *interactionEventRepo) GetRecentByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, eventTypes []string, limit int) ([]*types.InteractionEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.InteractionEvent
	if userID == uuid.Nil {
		return results, nil
	}
	q := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("occurred_at DESC")
	if len(eventTypes) > 0 {
		q = q.Where("type IN ?", eventTypes)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *interactionEventRepo) CountByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil {
		return 0, nil
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.InteractionEvent{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
