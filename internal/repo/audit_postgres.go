package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rogerio-castellano/restock-analytics/internal/models"
)

type PostgresAuditLogRepository struct {
	db *sql.DB
}

func NewPostgresAuditLogRepository(db *sql.DB) *PostgresAuditLogRepository {
	return &PostgresAuditLogRepository{db: db}
}

func (r *PostgresAuditLogRepository) Record(ctx context.Context, entry models.AuditLog) (models.AuditLog, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	entry.Timestamp = entry.Timestamp.UTC()

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO audit_logs ("user", action, details, timestamp) VALUES ($1, $2, $3, $4) RETURNING id`,
		entry.User, entry.Action, entry.Details, entry.Timestamp).Scan(&entry.ID)
	if err != nil {
		return models.AuditLog{}, fmt.Errorf("failed to insert audit log: %w", err)
	}
	return entry, nil
}

// List returns audit entries newest first, optionally filtered by date range and paginated.
func (r *PostgresAuditLogRepository) List(ctx context.Context, af AuditFilter) ([]models.AuditLog, int, error) {
	where := "WHERE TRUE"
	args := []any{}
	if af.Since != nil {
		args = append(args, *af.Since)
		where += fmt.Sprintf(" AND timestamp >= $%d", len(args))
	}
	if af.Until != nil {
		args = append(args, *af.Until)
		where += fmt.Sprintf(" AND timestamp <= $%d", len(args))
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audit_logs "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	limit := defaultLimit
	if af.Limit != nil && *af.Limit > 0 {
		limit = min(*af.Limit, defaultLimit)
	}
	offset := 0
	if af.Offset != nil && *af.Offset > 0 {
		offset = *af.Offset
	}
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT id, "user", action, COALESCE(details, ''), timestamp FROM audit_logs %s
		ORDER BY timestamp DESC, id DESC LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	entries := []models.AuditLog{}
	for rows.Next() {
		var e models.AuditLog
		if err := rows.Scan(&e.ID, &e.User, &e.Action, &e.Details, &e.Timestamp); err != nil {
			return nil, 0, err
		}
		e.Timestamp = e.Timestamp.UTC()
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}
