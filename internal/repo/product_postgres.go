package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rogerio-castellano/restock-analytics/internal/models"
)

const productColumns = `id, name, price, stock, threshold, category, reorder_lead_time, safety_stock,
	is_blacklisted, last_restocked, date_added, date_blacklisted, date_deleted`

type PostgresProductRepository struct {
	db *sql.DB
}

func NewPostgresProductRepository(db *sql.DB) *PostgresProductRepository {
	return &PostgresProductRepository{db: db}
}

func scanProduct(s scanner) (models.Product, error) {
	var p models.Product
	var category sql.NullString
	err := s.Scan(&p.ID, &p.Name, &p.Price, &p.Stock, &p.Threshold, &category, &p.ReorderLeadTime, &p.SafetyStock,
		&p.IsBlacklisted, &p.LastRestocked, &p.DateAdded, &p.DateBlacklisted, &p.DateDeleted)
	p.Category = category.String
	return p, err
}

func (r *PostgresProductRepository) Create(ctx context.Context, p models.Product) (models.Product, error) {
	query := `INSERT INTO products (name, price, stock, threshold, category, reorder_lead_time, safety_stock, last_restocked, date_added)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	err := r.db.QueryRowContext(ctx, query, p.Name, p.Price, p.Stock, p.Threshold, nullString(p.Category),
		p.ReorderLeadTime, p.SafetyStock, p.LastRestocked, p.DateAdded).Scan(&p.ID)
	if isUniqueViolation(err) {
		return models.Product{}, ErrDuplicatedValueUnique
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("failed to insert product: %w", err)
	}
	return p, nil
}

func (r *PostgresProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	return r.query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
}

func (r *PostgresProductRepository) GetByID(ctx context.Context, id int) (models.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	p, err := scanProduct(r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, ErrProductNotFound
	}
	return p, err
}

func (r *PostgresProductRepository) GetByName(ctx context.Context, name string) (models.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	p, err := scanProduct(r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE name = $1 AND date_deleted IS NULL`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, ErrProductNotFound
	}
	return p, err
}

func (r *PostgresProductRepository) Update(ctx context.Context, p models.Product) (models.Product, error) {
	query := `
		UPDATE products
		SET name = $1, price = $2, threshold = $3, category = $4, reorder_lead_time = $5, safety_stock = $6,
			last_restocked = CASE WHEN $7 > stock THEN $8 ELSE last_restocked END,
			stock = $7
		WHERE id = $9
		RETURNING ` + productColumns
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	updated, err := scanProduct(r.db.QueryRowContext(ctx, query, p.Name, p.Price, p.Threshold, nullString(p.Category),
		p.ReorderLeadTime, p.SafetyStock, p.Stock, time.Now().UTC(), p.ID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, ErrProductNotFound
	}
	if isUniqueViolation(err) {
		return models.Product{}, ErrDuplicatedValueUnique
	}
	return updated, err
}

// Delete soft-deletes a product by stamping date_deleted.
func (r *PostgresProductRepository) Delete(ctx context.Context, id int) error {
	query := `UPDATE products SET date_deleted = COALESCE(date_deleted, $1) WHERE id = $2`
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	rowsAffected, _ := res.RowsAffected()
	if rowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *PostgresProductRepository) Blacklist(ctx context.Context, id int) (models.Product, error) {
	query := `
		UPDATE products
		SET is_blacklisted = TRUE, date_blacklisted = COALESCE(date_blacklisted, $1)
		WHERE id = $2
		RETURNING ` + productColumns
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, time.Now().UTC(), id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, ErrProductNotFound
	}
	return p, err
}

func (r *PostgresProductRepository) SetStock(ctx context.Context, id int, stock, threshold *int) (models.Product, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	if !current.Active() {
		return models.Product{}, ErrInactiveProduct
	}

	query := `
		UPDATE products
		SET last_restocked = CASE WHEN COALESCE($1, stock) > stock THEN $3 ELSE last_restocked END,
			stock = COALESCE($1, stock),
			threshold = COALESCE($2, threshold)
		WHERE id = $4 AND NOT is_blacklisted AND date_deleted IS NULL
		RETURNING ` + productColumns
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, stock, threshold, time.Now().UTC(), id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, ErrInactiveProduct
	}
	return p, err
}

func (r *PostgresProductRepository) Filter(ctx context.Context, pf ProductFilter) ([]models.Product, int, error) {
	conditions, args, argIdx := filterConditions(pf)

	countCtx, cancel := withTimeout(ctx)
	defer cancel()

	var totalCount int
	countQuery := "SELECT COUNT(*) FROM products WHERE date_deleted IS NULL" + conditions
	if err := r.db.QueryRowContext(countCtx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE date_deleted IS NULL`
	query += conditions
	query += " ORDER BY id"

	if pf.Limit != nil && *pf.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, *pf.Limit)
		argIdx++
	}
	if pf.Offset != nil && *pf.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, *pf.Offset)
	}

	products, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return products, totalCount, nil
}

func filterConditions(pf ProductFilter) (string, []any, int) {
	query := ""
	argIdx := 1
	args := []any{}

	if pf.Name != "" {
		query += fmt.Sprintf(" AND name ILIKE $%d", argIdx)
		args = append(args, "%"+pf.Name+"%")
		argIdx++
	}
	if pf.Category != "" {
		query += fmt.Sprintf(" AND category ILIKE $%d", argIdx)
		args = append(args, pf.Category)
		argIdx++
	}
	if pf.MinPrice != nil {
		query += fmt.Sprintf(" AND price >= $%d", argIdx)
		args = append(args, *pf.MinPrice)
		argIdx++
	}
	if pf.MaxPrice != nil {
		query += fmt.Sprintf(" AND price <= $%d", argIdx)
		args = append(args, *pf.MaxPrice)
		argIdx++
	}
	if pf.MinStock != nil {
		query += fmt.Sprintf(" AND stock >= $%d", argIdx)
		args = append(args, *pf.MinStock)
		argIdx++
	}
	if pf.MaxStock != nil {
		query += fmt.Sprintf(" AND stock <= $%d", argIdx)
		args = append(args, *pf.MaxStock)
		argIdx++
	}

	return query, args, argIdx
}

func (r *PostgresProductRepository) query(ctx context.Context, query string, args ...any) ([]models.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
