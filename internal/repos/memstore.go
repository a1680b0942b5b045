package repos

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/studytrack-backend/internal/types"
)

// MemStore is an in-memory InteractionEventRepo + HabitRecordRepo for
// tests. It is never wired into production paths; production code always
// gets the gorm-backed repos. The tx parameter is accepted for interface
// compatibility and ignored.
type MemStore struct {
	mu     sync.Mutex
	events []*types.InteractionEvent
	habits map[uuid.UUID]map[string]*types.HabitRecord

	// FailWrites / FailReads force errors, for exercising the degraded
	// paths.
	FailWrites error
	FailReads  error
}

var _ InteractionEventRepo = (*MemStore)(nil)
var _ HabitRecordRepo = (*MemStore)(nil)

func NewMemStore() *MemStore {
	return &MemStore{habits: map[uuid.UUID]map[string]*types.HabitRecord{}}
}

func (m *MemStore) Append(ctx context.Context, tx *gorm.DB, events []*types.InteractionEvent) ([]*types.InteractionEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return nil, m.FailWrites
	}
	for _, event := range events {
		if event.ID == uuid.Nil {
			event.ID = uuid.New()
		}
		m.events = append(m.events, event)
	}
	return events, nil
}

func (m *MemStore) GetRecentByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID, eventTypes []string, limit int) ([]*types.InteractionEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads != nil {
		return nil, m.FailReads
	}
	var out []*types.InteractionEvent
	for _, event := range m.events {
		if event.UserID != userID {
			continue
		}
		if len(eventTypes) > 0 && !containsType(eventTypes, event.Type) {
			continue
		}
		out = append(out, event)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemStore) CountByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads != nil {
		return 0, m.FailReads
	}
	var count int64
	for _, event := range m.events {
		if event.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (m *MemStore) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.HabitRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads != nil {
		return nil, m.FailReads
	}
	var out []*types.HabitRecord
	for _, record := range m.habits[userID] {
		out = append(out, record)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ConfidenceScore > out[j].ConfidenceScore
	})
	return out, nil
}

func (m *MemStore) GetByUserAndType(ctx context.Context, tx *gorm.DB, userID uuid.UUID, habitType string) (*types.HabitRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads != nil {
		return nil, m.FailReads
	}
	record, ok := m.habits[userID][habitType]
	if !ok {
		return nil, nil
	}
	return record, nil
}

func (m *MemStore) Reinforce(ctx context.Context, userID uuid.UUID, habitType string, apply ReinforceFunc) (*types.HabitRecord, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return nil, m.FailWrites
	}
	byType, ok := m.habits[userID]
	if !ok {
		byType = map[string]*types.HabitRecord{}
		m.habits[userID] = byType
	}
	record, ok := byType[habitType]
	if !ok {
		record = &types.HabitRecord{
			ID:        uuid.New(),
			UserID:    userID,
			HabitType: habitType,
		}
		byType[habitType] = record
	}
	data, err := types.DecodeHabitData(habitType, record.Data)
	if err != nil {
		return nil, err
	}
	if err := apply(record, data); err != nil {
		return nil, err
	}
	encoded, err := types.EncodeHabitData(data)
	if err != nil {
		return nil, err
	}
	record.Data = encoded
	record.UpdatedAt = time.Now().UTC()
	return record, nil
}

func containsType(eventTypes []string, eventType string) bool {
	for _, t := range eventTypes {
		if t == eventType {
			return true
		}
	}
	return false
}
