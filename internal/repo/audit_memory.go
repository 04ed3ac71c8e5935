package repo

import (
	"context"
	"sync"
	"time"

	"github.com/rogerio-castellano/restock-analytics/internal/models"
)

type InMemoryAuditLogRepository struct {
	mu      sync.RWMutex
	entries []models.AuditLog
	now     func() time.Time
}

func NewInMemoryAuditLogRepository() *InMemoryAuditLogRepository {
	return &InMemoryAuditLogRepository{entries: []models.AuditLog{}, now: time.Now}
}

// SetClock replaces the timestamp source for entries recorded without one.
func (r *InMemoryAuditLogRepository) SetClock(now func() time.Time) {
	r.now = now
}

func (r *InMemoryAuditLogRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = []models.AuditLog{}
}

func (r *InMemoryAuditLogRepository) Record(_ context.Context, entry models.AuditLog) (models.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = r.now()
	}
	entry.Timestamp = entry.Timestamp.UTC()
	entry.ID = len(r.entries) + 1
	r.entries = append(r.entries, entry)
	return entry, nil
}

func (r *InMemoryAuditLogRepository) List(_ context.Context, af AuditFilter) ([]models.AuditLog, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	filtered := []models.AuditLog{}
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if (af.Since != nil && e.Timestamp.Before(*af.Since)) ||
			(af.Until != nil && e.Timestamp.After(*af.Until)) {
			continue
		}
		filtered = append(filtered, e)
	}

	start := 0
	if af.Offset != nil {
		start = clamp(*af.Offset, 0, len(filtered))
	}
	limit := defaultLimit
	if af.Limit != nil && *af.Limit > 0 {
		limit = min(*af.Limit, defaultLimit)
	}
	end := min(len(filtered), start+limit)

	return filtered[start:end], len(filtered), nil
}
