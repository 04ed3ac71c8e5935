package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type PostgresMetricsRepository struct {
	db *sql.DB
}

func NewPostgresMetricsRepository(db *sql.DB) *PostgresMetricsRepository {
	return &PostgresMetricsRepository{db: db}
}

func (r *PostgresMetricsRepository) GetDashboardMetrics(ctx context.Context) (Metrics, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var m Metrics

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE NOT is_blacklisted AND date_deleted IS NULL),
			COUNT(*) FILTER (WHERE is_blacklisted),
			COUNT(*) FILTER (WHERE date_deleted IS NOT NULL),
			COUNT(*) FILTER (WHERE NOT is_blacklisted AND date_deleted IS NULL AND stock <= threshold)
		FROM products
	`).Scan(&m.TotalProducts, &m.ActiveProducts, &m.BlacklistedProducts, &m.DeletedProducts, &m.LowStockCount)
	if err != nil {
		return m, fmt.Errorf("failed to count products: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(quantity), 0) FROM sales`).Scan(&m.TotalSales, &m.UnitsSold)
	if err != nil {
		return m, fmt.Errorf("failed to count sales: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT p.name, SUM(s.quantity) AS units
		FROM sales s
		JOIN products p ON s.product_id = p.id
		GROUP BY p.id, p.name
		ORDER BY units DESC, p.id
		LIMIT 1
	`).Scan(&m.MostSoldProduct.Name, &m.MostSoldProduct.UnitsSold)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return m, fmt.Errorf("failed to find most sold product: %w", err)
	}

	return m, nil
}
