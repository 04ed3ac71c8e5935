// Package analytics derives replenishment signals from product and sale records:
// sales velocity, low-stock alerts, restock recommendations, trends and dead stock.
//
// Every report is recomputed from the store on each call. The engine never writes.
package analytics

import (
	"context"
	"time"

	"github.com/rogerio-castellano/restock-analytics/internal/models"
	"github.com/rogerio-castellano/restock-analytics/internal/repo"
)

// ProductSource lists products in id order, inactive ones included.
type ProductSource interface {
	GetAll(ctx context.Context) ([]models.Product, error)
}

// SaleAggregates are the grouped sale reads the reports are built on.
type SaleAggregates interface {
	QuantityByProduct(ctx context.Context, w repo.SaleWindow) (map[int]int, error)
	CountByHour(ctx context.Context, w repo.SaleWindow) ([]models.SaleBucket, error)
	QuantityByDate(ctx context.Context, w repo.SaleWindow) ([]models.DailyQuantity, error)
}

type Engine struct {
	products ProductSource
	sales    SaleAggregates
	cfg      Config
	now      func() time.Time
}

func NewEngine(products ProductSource, sales SaleAggregates, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		products: products,
		sales:    sales,
		cfg:      cfg.withDefaults(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the effective configuration, defaults applied.
func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) asOf() time.Time {
	return e.now().UTC()
}

const day = 24 * time.Hour

// trailing returns [asOf - days, asOf).
func trailing(asOf time.Time, days int) repo.SaleWindow {
	return repo.SaleWindow{Since: asOf.Add(-time.Duration(days) * day), Until: asOf}
}

func (e *Engine) validateWindow(field string, days int) error {
	if days <= 0 {
		return &ValidationError{Field: field, Value: days, Reason: "must be a positive number of days"}
	}
	if days > e.cfg.MaxWindowDays {
		return &ValidationError{Field: field, Value: days, Reason: "exceeds the maximum window"}
	}
	return nil
}

func (e *Engine) activeProducts(ctx context.Context, op string) ([]models.Product, error) {
	all, err := e.products.GetAll(ctx)
	if err != nil {
		return nil, unavailable(op, err)
	}
	active := make([]models.Product, 0, len(all))
	for _, p := range all {
		if p.Active() {
			active = append(active, p)
		}
	}
	return active, nil
}
