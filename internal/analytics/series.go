package analytics

import (
	"context"
	"sort"

	"github.com/rogerio-castellano/restock-analytics/internal/models"
	"github.com/rogerio-castellano/restock-analytics/internal/repo"
)

// SalesHeatmap counts sale transactions per UTC (date, hour) over the trailing window,
// ordered by date then hour. Empty cells are omitted.
func (e *Engine) SalesHeatmap(ctx context.Context, windowDays int) ([]models.SaleBucket, error) {
	if err := e.validateWindow("windowDays", windowDays); err != nil {
		return nil, err
	}
	buckets, err := e.sales.CountByHour(ctx, trailing(e.asOf(), windowDays))
	if err != nil {
		return nil, unavailable("sales heatmap", err)
	}
	if buckets == nil {
		buckets = []models.SaleBucket{}
	}
	return buckets, nil
}

// SalesOverTime sums units sold per UTC date, ascending. A nil window covers all history.
func (e *Engine) SalesOverTime(ctx context.Context, windowDays *int) ([]models.DailyQuantity, error) {
	var w repo.SaleWindow
	if windowDays != nil {
		if err := e.validateWindow("windowDays", *windowDays); err != nil {
			return nil, err
		}
		w = trailing(e.asOf(), *windowDays)
	}

	series, err := e.sales.QuantityByDate(ctx, w)
	if err != nil {
		return nil, unavailable("sales over time", err)
	}
	if series == nil {
		series = []models.DailyQuantity{}
	}
	return series, nil
}

const uncategorized = "Uncategorized"

type CategorySales struct {
	Category string `json:"category"`
	Sales    int    `json:"sales"`
}

// TopCategories ranks categories by all-time units sold, top N.
// Ties keep the order in which categories first appear among products.
func (e *Engine) TopCategories(ctx context.Context) ([]CategorySales, error) {
	products, err := e.products.GetAll(ctx)
	if err != nil {
		return nil, unavailable("top categories", err)
	}
	sold, err := e.sales.QuantityByProduct(ctx, repo.SaleWindow{})
	if err != nil {
		return nil, unavailable("top categories", err)
	}

	index := map[string]int{}
	ranked := []CategorySales{}
	for _, p := range products {
		qty := sold[p.ID]
		if qty == 0 {
			continue
		}
		name := p.Category
		if name == "" {
			name = uncategorized
		}
		i, seen := index[name]
		if !seen {
			i = len(ranked)
			index[name] = i
			ranked = append(ranked, CategorySales{Category: name})
		}
		ranked[i].Sales += qty
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Sales > ranked[j].Sales })
	if len(ranked) > e.cfg.TopN {
		ranked = ranked[:e.cfg.TopN]
	}
	return ranked, nil
}
