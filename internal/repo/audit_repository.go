package repo

import (
	"context"
	"time"

	"github.com/rogerio-castellano/restock-analytics/internal/models"
)

// AuditFilter narrows an audit listing. Since and Until are inclusive.
type AuditFilter struct {
	Since  *time.Time
	Until  *time.Time
	Offset *int
	Limit  *int
}

// AuditLogRepository appends audit entries and lists them newest first.
type AuditLogRepository interface {
	Record(ctx context.Context, entry models.AuditLog) (models.AuditLog, error)
	List(ctx context.Context, af AuditFilter) ([]models.AuditLog, int, error)
}
