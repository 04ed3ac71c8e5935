package analytics

import (
	"context"

	"github.com/rogerio-castellano/restock-analytics/internal/models"
	"github.com/rogerio-castellano/restock-analytics/internal/repo"
)

type DeadStock struct {
	ProductID   int    `json:"productId"`
	ProductName string `json:"productName"`
	Stock       int    `json:"stock"`
}

// DeadStock lists active products with no sale at or after asOf - windowDays, in id order.
func (e *Engine) DeadStock(ctx context.Context, windowDays int) ([]DeadStock, error) {
	if err := e.validateWindow("windowDays", windowDays); err != nil {
		return nil, err
	}

	products, err := e.activeProducts(ctx, "dead stock")
	if err != nil {
		return nil, err
	}
	since := trailing(e.asOf(), windowDays).Since
	recent, err := e.sales.QuantityByProduct(ctx, repo.SaleWindow{Since: since})
	if err != nil {
		return nil, unavailable("dead stock", err)
	}

	dead := []DeadStock{}
	for _, p := range products {
		if _, sold := recent[p.ID]; !sold {
			dead = append(dead, DeadStock{ProductID: p.ID, ProductName: p.Name, Stock: p.Stock})
		}
	}
	return dead, nil
}

type LowStockCount struct {
	ProductID int    `json:"productId"`
	Product   string `json:"product"`
	Count     int    `json:"count"`
}

// LowStockFrequency reports, for each active product that has ever sold, 1 when its
// stock is currently below threshold and 0 otherwise.
func (e *Engine) LowStockFrequency(ctx context.Context) ([]LowStockCount, error) {
	products, err := e.activeProducts(ctx, "low stock frequency")
	if err != nil {
		return nil, err
	}
	sold, err := e.sales.QuantityByProduct(ctx, repo.SaleWindow{})
	if err != nil {
		return nil, unavailable("low stock frequency", err)
	}

	out := []LowStockCount{}
	for _, p := range products {
		if _, ok := sold[p.ID]; !ok {
			continue
		}
		out = append(out, LowStockCount{ProductID: p.ID, Product: p.Name, Count: belowThreshold(p)})
	}
	return out, nil
}

func belowThreshold(p models.Product) int {
	if p.Stock < p.Threshold {
		return 1
	}
	return 0
}

type LowStockItem struct {
	ProductID   int    `json:"productId"`
	ProductName string `json:"productName"`
	Stock       int    `json:"stock"`
}

// LowStock lists active products whose stock is at or under an absolute level, in id
// order. A nil level uses the configured LowStockLevel.
func (e *Engine) LowStock(ctx context.Context, level *int) ([]LowStockItem, error) {
	limit := e.cfg.LowStockLevel
	if level != nil {
		if *level < 0 {
			return nil, &ValidationError{Field: "level", Value: *level, Reason: "cannot be negative"}
		}
		limit = *level
	}

	products, err := e.activeProducts(ctx, "low stock")
	if err != nil {
		return nil, err
	}

	items := []LowStockItem{}
	for _, p := range products {
		if p.Stock <= limit {
			items = append(items, LowStockItem{ProductID: p.ID, ProductName: p.Name, Stock: p.Stock})
		}
	}
	return items, nil
}
