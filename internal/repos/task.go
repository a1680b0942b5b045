package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studytrack-backend/internal/logger"
	"github.com/yungbote/studytrack-backend/internal/types"
)

type TaskRepo interface {
	Create(ctx context.Context, tx *gorm.DB, tasks []*types.Task) ([]*types.Task, error)
	GetByIDForUser(ctx context.Context, tx *gorm.DB, userID, taskID uuid.UUID) (*types.Task, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.Task, error)
	Update(ctx context.Context, tx *gorm.DB, task *types.Task) error
	SoftDeleteByIDForUser(ctx context.Context, tx *gorm.DB, userID, taskID uuid.UUID) error
}

type taskRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTaskRepo(db *gorm.DB, baseLog *logger.Logger) TaskRepo {
	return &taskRepo{db: db, log: baseLog.With("repo", "TaskRepo")}
}

func (r *taskRepo) Create(ctx context.Context, tx *gorm.DB, tasks []*types.Task) ([]*types.Task, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(tasks) == 0 {
		return []*types.Task{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepo) GetByIDForUser(ctx context.Context, tx *gorm.DB, userID, taskID uuid.UUID) (*types.Task, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil || taskID == uuid.Nil {
		return nil, nil
	}
	var row types.Task
	err := transaction.WithContext(ctx).
		Where("id = ? AND user_id = ?", taskID, userID).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *taskRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.Task, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Task
	if userID == uuid.Nil {
		return results, nil
	}
	q := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *taskRepo) Update(ctx context.Context, tx *gorm.DB, task *types.Task) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if task == nil || task.ID == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).Save(task).Error
}

func (r *taskRepo) SoftDeleteByIDForUser(ctx context.Context, tx *gorm.DB, userID, taskID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil || taskID == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id = ? AND user_id = ?", taskID, userID).
		Delete(&types.Task{}).Error
}
