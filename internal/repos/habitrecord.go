package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/studytrack-backend/internal/logger"
	"github.com/yungbote/studytrack-backend/internal/types"
)

// ReinforceFunc mutates a loaded habit record in place: the decoded typed
// aggregate plus the record's confidence score. The repo handles locking
// and jsonb round-tripping around it.
type ReinforceFunc func(record *types.HabitRecord, data types.HabitData) error

type HabitRecordRepo interface {
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.HabitRecord, error)
	GetByUserAndType(ctx context.Context, tx *gorm.DB, userID uuid.UUID, habitType string) (*types.HabitRecord, error)
	// Reinforce runs a read-modify-write of the (userID, habitType) row as a
	// single transaction with a row lock, creating the row from the
	// zero-value aggregate on first reinforcement. Concurrent completions
	// must not lose counts.
	Reinforce(ctx context.Context, userID uuid.UUID, habitType string, apply ReinforceFunc) (*types.HabitRecord, error)
}

type habitRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHabitRecordRepo(db *gorm.DB, baseLog *logger.Logger) HabitRecordRepo {
	return &habitRecordRepo{db: db, log: baseLog.With("repo", "HabitRecordRepo")}
}

func (r *habitRecordRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.HabitRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.HabitRecord
	if userID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("confidence_score DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *habitRecordRepo) GetByUserAndType(ctx context.Context, tx *gorm.DB, userID uuid.UUID, habitType string) (*types.HabitRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil || habitType == "" {
		return nil, nil
	}
	var row types.HabitRecord
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND habit_type = ?", userID, habitType).
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

func (r *habitRecordRepo) Reinforce(ctx context.Context, userID uuid.UUID, habitType string, apply ReinforceFunc) (*types.HabitRecord, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	var out *types.HabitRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := r.lockRow(ctx, tx, userID, habitType)
		if err != nil {
			return err
		}
		if row == nil {
			// First reinforcement for this (user, type). Insert-or-skip so a
			// concurrent first reinforcement cannot duplicate the row, then
			// lock whichever row won.
			fresh := &types.HabitRecord{
				ID:        uuid.New(),
				UserID:    userID,
				HabitType: habitType,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "habit_type"}},
				DoNothing: true,
			}).Create(fresh).Error; err != nil {
				return fmt.Errorf("insert habit record: %w", err)
			}
			row, err = r.lockRow(ctx, tx, userID, habitType)
			if err != nil {
				return err
			}
			if row == nil {
				return fmt.Errorf("habit record missing after insert for type %s", habitType)
			}
		}

		data, err := types.DecodeHabitData(habitType, row.Data)
		if err != nil {
			return err
		}
		if err := apply(row, data); err != nil {
			return err
		}
		encoded, err := types.EncodeHabitData(data)
		if err != nil {
			return err
		}
		row.Data = encoded
		row.UpdatedAt = time.Now().UTC()
		if err := tx.Save(row).Error; err != nil {
			return fmt.Errorf("save habit record: %w", err)
		}
		out = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *habitRecordRepo) lockRow(ctx context.Context, tx *gorm.DB, userID uuid.UUID, habitType string) (*types.HabitRecord, error) {
	var row types.HabitRecord
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND habit_type = ?", userID, habitType).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, fmt.Errorf("lock habit record: %w", err)
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}
