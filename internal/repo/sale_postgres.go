package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rogerio-castellano/restock-analytics/internal/models"
)

type PostgresSaleRepository struct {
	db *sql.DB
}

func NewPostgresSaleRepository(db *sql.DB) *PostgresSaleRepository {
	return &PostgresSaleRepository{db: db}
}

const defaultLimit = 100

// RecordCart decrements stock and inserts the sales of a cart in one transaction.
// Rows are locked in id order so concurrent carts cannot deadlock.
func (r *PostgresSaleRepository) RecordCart(ctx context.Context, lines []SaleLine) ([]models.Sale, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin sale transaction: %w", err)
	}
	defer tx.Rollback()

	wanted := map[int]int{}
	ids := []int{}
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if _, seen := wanted[l.ProductID]; !seen {
			ids = append(ids, l.ProductID)
		}
		wanted[l.ProductID] += l.Quantity
	}

	slices.Sort(ids)
	for _, id := range ids {
		var stock int
		var blacklisted, deleted bool
		err := tx.QueryRowContext(ctx,
			`SELECT stock, is_blacklisted, date_deleted IS NOT NULL FROM products WHERE id = $1 FOR UPDATE`, id).
			Scan(&stock, &blacklisted, &deleted)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, productErr(id, ErrProductNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to lock product %d: %w", id, err)
		}
		if blacklisted || deleted {
			return nil, productErr(id, ErrInactiveProduct)
		}
		if stock < wanted[id] {
			return nil, productErr(id, ErrInsufficientStock)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE products SET stock = stock - $1 WHERE id = $2`, wanted[id], id); err != nil {
			return nil, fmt.Errorf("failed to decrement stock of product %d: %w", id, err)
		}
	}

	ts := time.Now().UTC()
	created := make([]models.Sale, 0, len(lines))
	for _, l := range lines {
		sale := models.Sale{ProductID: l.ProductID, Quantity: l.Quantity, Price: l.Price, Timestamp: ts}
		err := tx.QueryRowContext(ctx,
			`INSERT INTO sales (product_id, quantity, price, timestamp) VALUES ($1, $2, $3, $4) RETURNING id`,
			l.ProductID, l.Quantity, l.Price, ts).Scan(&sale.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert sale: %w", err)
		}
		created = append(created, sale)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit sale: %w", err)
	}
	return created, nil
}

// GetByProductID returns a product's sales, newest first
func (r *PostgresSaleRepository) GetByProductID(ctx context.Context, productID int, sf SaleFilter) ([]models.Sale, int, error) {
	whereClause, args := r.buildWhereClause(productID, sf)

	if sf.Offset != nil && *sf.Offset < 0 {
		return nil, 0, fmt.Errorf("offset must be non-negative")
	}

	total, err := r.getTotal(ctx, whereClause, args)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get total count: %w", err)
	}

	// Early return if offset is beyond total
	if sf.Offset != nil && *sf.Offset >= total {
		return []models.Sale{}, total, nil
	}

	query, queryArgs := r.buildMainQuery(whereClause, args, sf)
	sales, err := r.executeQuery(ctx, query, queryArgs)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute query: %w", err)
	}

	return sales, total, nil
}

// buildWhereClause constructs the WHERE clause and returns arguments
func (r *PostgresSaleRepository) buildWhereClause(productID int, sf SaleFilter) (string, []any) {
	args := []any{productID}
	whereClause := "WHERE product_id = $1"
	argIndex := 2

	if sf.Since != nil {
		whereClause += fmt.Sprintf(" AND timestamp >= $%d", argIndex)
		args = append(args, *sf.Since)
		argIndex++
	}

	if sf.Until != nil {
		whereClause += fmt.Sprintf(" AND timestamp <= $%d", argIndex)
		args = append(args, *sf.Until)
	}

	return whereClause, args
}

// buildMainQuery constructs the main SELECT query with pagination
func (r *PostgresSaleRepository) buildMainQuery(whereClause string, baseArgs []any, sf SaleFilter) (string, []any) {
	query := fmt.Sprintf("SELECT id, product_id, quantity, price, timestamp FROM sales %s ORDER BY timestamp DESC, id DESC", whereClause)
	args := make([]any, len(baseArgs))
	copy(args, baseArgs)
	argIndex := len(baseArgs) + 1

	limit := defaultLimit
	if sf.Limit != nil && *sf.Limit > 0 {
		limit = min(*sf.Limit, defaultLimit)
	}
	query += fmt.Sprintf(" LIMIT $%d", argIndex)
	args = append(args, limit)
	argIndex++

	if sf.Offset != nil && *sf.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, *sf.Offset)
	}

	return query, args
}

func (r *PostgresSaleRepository) getTotal(ctx context.Context, whereClause string, args []any) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var total int
	err := r.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM sales %s", whereClause), args...).Scan(&total)
	return total, err
}

func (r *PostgresSaleRepository) executeQuery(ctx context.Context, query string, args []any) ([]models.Sale, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := []models.Sale{}
	for rows.Next() {
		var s models.Sale
		if err := rows.Scan(&s.ID, &s.ProductID, &s.Quantity, &s.Price, &s.Timestamp); err != nil {
			return nil, err
		}
		s.Timestamp = s.Timestamp.UTC()
		sales = append(sales, s)
	}

	// Check for iteration errors
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sales, nil
}

// windowClause renders w as a WHERE clause over sales.timestamp. Open bounds are omitted.
func windowClause(w SaleWindow) (string, []any) {
	clause := "WHERE TRUE"
	args := []any{}
	if !w.Since.IsZero() {
		args = append(args, w.Since.UTC())
		clause += fmt.Sprintf(" AND timestamp >= $%d", len(args))
	}
	if !w.Until.IsZero() {
		args = append(args, w.Until.UTC())
		clause += fmt.Sprintf(" AND timestamp < $%d", len(args))
	}
	return clause, args
}

func (r *PostgresSaleRepository) QuantityByProduct(ctx context.Context, w SaleWindow) (map[int]int, error) {
	where, args := windowClause(w)
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT product_id, SUM(quantity) FROM sales `+where+` GROUP BY product_id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := map[int]int{}
	for rows.Next() {
		var id, qty int
		if err := rows.Scan(&id, &qty); err != nil {
			return nil, err
		}
		totals[id] = qty
	}
	return totals, rows.Err()
}

func (r *PostgresSaleRepository) CountByHour(ctx context.Context, w SaleWindow) ([]models.SaleBucket, error) {
	where, args := windowClause(w)
	query := `
		SELECT to_char(timestamp AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day,
			EXTRACT(HOUR FROM timestamp AT TIME ZONE 'UTC')::int AS hour,
			COUNT(*)
		FROM sales ` + where + `
		GROUP BY day, hour
		ORDER BY day, hour`
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	buckets := []models.SaleBucket{}
	for rows.Next() {
		var b models.SaleBucket
		if err := rows.Scan(&b.Date, &b.Hour, &b.Count); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

func (r *PostgresSaleRepository) QuantityByDate(ctx context.Context, w SaleWindow) ([]models.DailyQuantity, error) {
	where, args := windowClause(w)
	query := `
		SELECT to_char(timestamp AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, SUM(quantity)
		FROM sales ` + where + `
		GROUP BY day
		ORDER BY day`
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.DailyQuantity{}
	for rows.Next() {
		var d models.DailyQuantity
		if err := rows.Scan(&d.Date, &d.Quantity); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
