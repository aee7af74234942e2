// internal/repository/memory_history.go
package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"printer-service/internal/model"
)

// memoryHistoryRepository keeps the most recent print records in a ring
// when no database is configured
type memoryHistoryRepository struct {
	mu      sync.RWMutex
	records []*model.PrintRecord
	limit   int
}

// NewMemoryHistoryRepository creates a history repository holding at most limit records
func NewMemoryHistoryRepository(limit int) HistoryRepository {
	if limit <= 0 {
		limit = 500
	}
	return &memoryHistoryRepository{limit: limit}
}

func (r *memoryHistoryRepository) Create(ctx context.Context, record *model.PrintRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	stored := *record
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = append(r.records, &stored)
	if over := len(r.records) - r.limit; over > 0 {
		r.records = append(r.records[:0:0], r.records[over:]...)
	}
	return nil
}

func (r *memoryHistoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PrintRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, record := range r.records {
		if record.ID == id {
			found := *record
			return &found, nil
		}
	}
	return nil, fmt.Errorf("print record not found with id: %s", id)
}

// List returns matching records, newest first
func (r *memoryHistoryRepository) List(ctx context.Context, filter *model.HistoryFilter) ([]*model.PrintRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit := 50
	if filter != nil && filter.Limit > 0 {
		limit = filter.Limit
	}

	records := []*model.PrintRecord{}
	for i := len(r.records) - 1; i >= 0 && len(records) < limit; i-- {
		record := r.records[i]
		if !matches(record, filter) {
			continue
		}
		found := *record
		records = append(records, &found)
	}
	return records, nil
}

func (r *memoryHistoryRepository) Stats(ctx context.Context) (*model.HistoryStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &model.HistoryStats{
		Total:    len(r.records),
		ByStatus: make(map[model.PrintStatus]int),
		ByRole:   make(map[model.PrinterRole]int),
	}
	for _, record := range r.records {
		stats.ByStatus[record.Status]++
		stats.ByRole[record.Role]++
	}
	return stats, nil
}

func (r *memoryHistoryRepository) DeleteOlderThan(ctx context.Context, olderThan time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.records[:0]
	var removed int64
	for _, record := range r.records {
		if record.StartedAt.Before(olderThan) {
			removed++
			continue
		}
		kept = append(kept, record)
	}
	r.records = kept
	return removed, nil
}

func matches(record *model.PrintRecord, filter *model.HistoryFilter) bool {
	if filter == nil {
		return true
	}
	if filter.Role != nil && record.Role != *filter.Role {
		return false
	}
	if filter.Status != nil && record.Status != *filter.Status {
		return false
	}
	if filter.DeviceID != nil && record.DeviceID != *filter.DeviceID {
		return false
	}
	return true
}
