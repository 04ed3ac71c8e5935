package analytics

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rogerio-castellano/restock-analytics/internal/models"
	"github.com/rogerio-castellano/restock-analytics/internal/repo"
)

type StockLevel struct {
	ProductID int    `json:"productId"`
	Product   string `json:"product"`
	Stock     int    `json:"stock"`
}

// DailySales counts sale transactions on one UTC calendar day.
type DailySales struct {
	Date  string `json:"date"`
	Label string `json:"label"`
	Sales int    `json:"sales"`
}

type ProductSales struct {
	ProductID int    `json:"productId"`
	Product   string `json:"product"`
	Sales     int    `json:"sales"`
}

type Trends struct {
	StockLevels []StockLevel   `json:"stockLevels"`
	DailySales  []DailySales   `json:"dailySales"`
	TopProducts []ProductSales `json:"topProducts"`
}

// Trends returns the active stock snapshot, the transaction count of each of the
// last TrendDays UTC days (today included, oldest first) and the all-time top sellers.
func (e *Engine) Trends(ctx context.Context) (Trends, error) {
	asOf := e.asOf()
	today := asOf.Truncate(day)
	first := today.AddDate(0, 0, -(e.cfg.TrendDays - 1))

	var (
		products []models.Product
		buckets  []models.SaleBucket
		sold     map[int]int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if products, err = e.products.GetAll(gctx); err != nil {
			return unavailable("trends: products", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		w := repo.SaleWindow{Since: first, Until: today.Add(day)}
		if buckets, err = e.sales.CountByHour(gctx, w); err != nil {
			return unavailable("trends: daily sales", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if sold, err = e.sales.QuantityByProduct(gctx, repo.SaleWindow{}); err != nil {
			return unavailable("trends: top products", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Trends{}, err
	}

	return Trends{
		StockLevels: stockLevels(products),
		DailySales:  dailySeries(first, e.cfg.TrendDays, buckets),
		TopProducts: topProducts(products, sold, e.cfg.TopN),
	}, nil
}

func stockLevels(products []models.Product) []StockLevel {
	levels := []StockLevel{}
	for _, p := range products {
		if p.Active() {
			levels = append(levels, StockLevel{ProductID: p.ID, Product: p.Name, Stock: p.Stock})
		}
	}
	return levels
}

// dailySeries folds hourly buckets into n consecutive days starting at first.
// Days without sales are present with zero.
func dailySeries(first time.Time, n int, buckets []models.SaleBucket) []DailySales {
	perDay := map[string]int{}
	for _, b := range buckets {
		perDay[b.Date] += b.Count
	}

	series := make([]DailySales, 0, n)
	for i := range n {
		d := first.AddDate(0, 0, i)
		key := d.Format(models.DateLayout)
		series = append(series, DailySales{Date: key, Label: d.Format("Mon"), Sales: perDay[key]})
	}
	return series
}

// topProducts ranks products with sales by units sold. Ties keep product order.
func topProducts(products []models.Product, sold map[int]int, n int) []ProductSales {
	ranked := []ProductSales{}
	for _, p := range products {
		if qty := sold[p.ID]; qty > 0 {
			ranked = append(ranked, ProductSales{ProductID: p.ID, Product: p.Name, Sales: qty})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Sales > ranked[j].Sales })
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
