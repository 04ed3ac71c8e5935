package analytics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rogerio-castellano/restock-analytics/internal/analytics"
	"github.com/rogerio-castellano/restock-analytics/internal/models"
	"github.com/rogerio-castellano/restock-analytics/internal/repo"
)

// Sunday, mid-day.
var asOf = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

type fixture struct {
	products *repo.InMemoryProductRepository
	sales    *repo.InMemorySaleRepository
	engine   *analytics.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	products := repo.NewInMemoryProductRepository()
	sales := repo.NewInMemorySaleRepository(products)
	return &fixture{
		products: products,
		sales:    sales,
		engine:   analytics.NewEngine(products, sales, analytics.DefaultConfig(), analytics.WithClock(func() time.Time { return asOf })),
	}
}

func (f *fixture) product(id int, name string, stock, threshold int) models.Product {
	return f.products.Put(models.Product{ID: id, Name: name, Price: 1, Stock: stock, Threshold: threshold, DateAdded: asOf.AddDate(0, -6, 0)})
}

func (f *fixture) sell(productID, qty int, ago time.Duration) {
	f.sales.AddSale(models.Sale{ProductID: productID, Quantity: qty, Price: 1, Timestamp: asOf.Add(-ago)})
}

const day = 24 * time.Hour

func TestVelocity_HalfOpenWindow(t *testing.T) {
	f := newFixture(t)
	f.product(1, "Soap", 10, 5)
	f.product(2, "Rice", 10, 5)
	f.sell(1, 3, time.Hour)
	f.sell(1, 4, 6*day)
	f.sell(1, 100, 7*day)    // exactly on the lower bound: included
	f.sell(2, 9, 7*day+1)    // just outside
	f.sell(2, 5, -time.Hour) // after as-of: excluded

	v, err := f.engine.Velocity(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, map[int]int{1: 107}, v)
}

func TestVelocity_RejectsBadWindow(t *testing.T) {
	f := newFixture(t)

	for _, w := range []int{0, -3, 366} {
		_, err := f.engine.Velocity(context.Background(), w)
		var verr *analytics.ValidationError
		require.ErrorAs(t, err, &verr, "window %d", w)
		assert.Equal(t, "windowDays", verr.Field)
	}
}

func TestAlerts_Examples(t *testing.T) {
	f := newFixture(t)
	f.product(1, "Empty", 0, 10)
	f.product(2, "Low", 4, 10)
	f.product(3, "Plenty", 50, 10)
	f.sell(2, 14, 2*day)

	alerts, err := f.engine.Alerts(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 2)

	assert.Equal(t, analytics.Alert{
		ProductID:           1,
		ProductName:         "Empty",
		Stock:               0,
		Threshold:           10,
		Priority:            analytics.PriorityCritical,
		AvgDailySales:       0.1,
		EstDepletionDays:    0.0,
		SuggestedReorderQty: 10,
	}, alerts[0])

	low := alerts[1]
	assert.Equal(t, analytics.PriorityHigh, low.Priority)
	assert.InDelta(t, 2.0, low.AvgDailySales, 1e-9)
	assert.InDelta(t, 2.0, low.EstDepletionDays, 1e-9)
	assert.Equal(t, 12, low.SuggestedReorderQty)
}

func TestAlerts_SkipsInactiveAndKeepsOrder(t *testing.T) {
	f := newFixture(t)
	deleted := asOf.Add(-day)
	f.product(1, "A", 1, 5)
	f.products.Put(models.Product{ID: 2, Name: "Gone", Stock: 0, Threshold: 5, DateDeleted: &deleted})
	f.products.Put(models.Product{ID: 3, Name: "Banned", Stock: 0, Threshold: 5, IsBlacklisted: true})
	f.product(4, "B", 5, 5)

	alerts, err := f.engine.Alerts(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, 1, alerts[0].ProductID)
	assert.Equal(t, 4, alerts[1].ProductID)
	assert.Equal(t, analytics.PriorityModerate, alerts[1].Priority)
}

func TestClassify_PriorityTiers(t *testing.T) {
	e := analytics.NewEngine(nil, nil, analytics.DefaultConfig())

	tests := []struct {
		stock, threshold int
		want             analytics.Priority
	}{
		{0, 0, analytics.PriorityCritical},
		{0, 10, analytics.PriorityCritical},
		{1, 10, analytics.PriorityHigh},
		{4, 10, analytics.PriorityHigh},
		{5, 10, analytics.PriorityModerate},
		{10, 10, analytics.PriorityModerate},
		{2, 5, analytics.PriorityHigh},
		{3, 5, analytics.PriorityModerate},
	}
	for _, tt := range tests {
		a := e.Classify(models.Product{ID: 1, Stock: tt.stock, Threshold: tt.threshold}, nil, 7)
		assert.Equal(t, tt.want, a.Priority, "stock=%d threshold=%d", tt.stock, tt.threshold)
		assert.GreaterOrEqual(t, a.SuggestedReorderQty, 0)
	}
}

func TestClassify_ReorderNeverNegativeAndUsesConfig(t *testing.T) {
	cfg := analytics.DefaultConfig()
	cfg.LeadTimeDays = 10
	cfg.FallbackDailyVelocity = 1
	e := analytics.NewEngine(nil, nil, cfg)

	a := e.Classify(models.Product{ID: 1, Stock: 2, Threshold: 4}, map[int]int{}, 7)
	assert.InDelta(t, 1.0, a.AvgDailySales, 1e-9)
	assert.InDelta(t, 2.0, a.EstDepletionDays, 1e-9)
	assert.Equal(t, 12, a.SuggestedReorderQty) // 1*10 + 4 - 2

	b := e.Classify(models.Product{ID: 2, Stock: 40, Threshold: 0}, map[int]int{}, 7)
	assert.Equal(t, 0, b.SuggestedReorderQty)
}

func TestClassify_LastRestocked(t *testing.T) {
	e := analytics.NewEngine(nil, nil, analytics.DefaultConfig())
	restocked := time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC)

	a := e.Classify(models.Product{ID: 1, Stock: 1, Threshold: 2, LastRestocked: &restocked}, nil, 7)
	assert.Equal(t, "2025-06-01", a.LastRestocked)
}

func TestRestockRecommendations(t *testing.T) {
	f := newFixture(t)
	f.product(1, "Overstocked", 50, 0)
	f.product(2, "Short", 10, 0)
	f.product(3, "Idle", 0, 0)
	f.product(4, "AlsoShort", 1, 0)
	f.sell(1, 5, day)
	f.sell(2, 20, day)
	f.sell(2, 5, 3*day)
	f.sell(4, 16, 2*day)
	f.sell(2, 1000, 8*day) // outside the window

	recs, err := f.engine.RestockRecommendations(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, recs, 4)

	assert.Equal(t, []int{2, 4, 1, 3}, recIDs(recs))
	assert.Equal(t, 15, recs[0].RecommendedQuantity)
	assert.Equal(t, 25, recs[0].SalesVelocity)
	assert.Equal(t, recs[0].SalesVelocity, recs[0].History)
	assert.Equal(t, 15, recs[1].RecommendedQuantity)
	assert.Equal(t, 0, recs[2].RecommendedQuantity)
	assert.Equal(t, 0, recs[3].SalesVelocity)

	for i, r := range recs {
		assert.Equal(t, max(0, r.SalesVelocity-r.CurrentStock), r.RecommendedQuantity)
		if i > 0 {
			assert.LessOrEqual(t, r.RecommendedQuantity, recs[i-1].RecommendedQuantity)
		}
	}
}

func recIDs(recs []analytics.RestockRecommendation) []int {
	ids := make([]int, len(recs))
	for i, r := range recs {
		ids[i] = r.ProductID
	}
	return ids
}

func TestTrends(t *testing.T) {
	f := newFixture(t)
	f.product(1, "A", 5, 1)
	f.product(2, "B", 7, 1)
	f.products.Put(models.Product{ID: 3, Name: "Retired", Stock: 9, IsBlacklisted: true})
	f.sell(1, 2, time.Hour)    // today
	f.sell(3, 30, 2*time.Hour) // today, inactive product still counts
	f.sell(2, 8, 2*day)        // 2025-06-13
	f.sell(2, 1, 6*day)        // 2025-06-09, first day of the series
	f.sell(1, 1, 7*day)        // 2025-06-08, before the series

	trends, err := f.engine.Trends(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []analytics.StockLevel{
		{ProductID: 1, Product: "A", Stock: 5},
		{ProductID: 2, Product: "B", Stock: 7},
	}, trends.StockLevels)

	require.Len(t, trends.DailySales, 7)
	assert.Equal(t, analytics.DailySales{Date: "2025-06-09", Label: "Mon", Sales: 1}, trends.DailySales[0])
	assert.Equal(t, analytics.DailySales{Date: "2025-06-13", Label: "Fri", Sales: 1}, trends.DailySales[4])
	assert.Equal(t, analytics.DailySales{Date: "2025-06-15", Label: "Sun", Sales: 2}, trends.DailySales[6])
	for _, d := range trends.DailySales {
		assert.GreaterOrEqual(t, d.Sales, 0)
	}

	assert.Equal(t, []analytics.ProductSales{
		{ProductID: 3, Product: "Retired", Sales: 30},
		{ProductID: 2, Product: "B", Sales: 9},
		{ProductID: 1, Product: "A", Sales: 3},
	}, trends.TopProducts)
}

func TestTrends_TopProductsLimitedAndTiesKeepOrder(t *testing.T) {
	f := newFixture(t)
	for id := 1; id <= 7; id++ {
		f.product(id, string(rune('A'+id-1)), 1, 0)
		f.sell(id, 4, day)
	}
	f.sell(6, 1, day)

	trends, err := f.engine.Trends(context.Background())
	require.NoError(t, err)
	require.Len(t, trends.TopProducts, 5)
	assert.Equal(t, 6, trends.TopProducts[0].ProductID)
	assert.Equal(t, []int{1, 2, 3, 4}, []int{
		trends.TopProducts[1].ProductID,
		trends.TopProducts[2].ProductID,
		trends.TopProducts[3].ProductID,
		trends.TopProducts[4].ProductID,
	})
}

func TestDeadStock_SetExclusion(t *testing.T) {
	f := newFixture(t)
	f.product(1, "Fresh", 3, 1)
	f.product(2, "Stale", 8, 1)
	f.product(3, "Never", 2, 1)
	f.product(4, "Boundary", 4, 1)
	f.products.Put(models.Product{ID: 5, Name: "Banned", Stock: 1, IsBlacklisted: true})
	f.sell(1, 1, 2*day)
	f.sell(2, 1, 31*day)
	f.sell(4, 1, 30*day) // exactly at asOf - 30d counts as recent

	dead, err := f.engine.DeadStock(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, []analytics.DeadStock{
		{ProductID: 2, ProductName: "Stale", Stock: 8},
		{ProductID: 3, ProductName: "Never", Stock: 2},
	}, dead)

	_, err = f.engine.DeadStock(context.Background(), 0)
	var verr *analytics.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestLowStockFrequency(t *testing.T) {
	f := newFixture(t)
	f.product(1, "Below", 2, 5)
	f.product(2, "AtThreshold", 5, 5)
	f.product(3, "NoSales", 0, 5)
	f.sell(1, 1, 90*day)
	f.sell(2, 1, day)

	freq, err := f.engine.LowStockFrequency(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []analytics.LowStockCount{
		{ProductID: 1, Product: "Below", Count: 1},
		{ProductID: 2, Product: "AtThreshold", Count: 0},
	}, freq)
}

func TestLowStock_AbsoluteLevel(t *testing.T) {
	f := newFixture(t)
	f.product(1, "Empty", 0, 10)
	f.product(2, "AtLevel", 5, 1)
	f.product(3, "Above", 6, 50)
	banned := f.product(4, "Banned", 1, 10)
	banned.IsBlacklisted = true
	f.products.Put(banned)

	items, err := f.engine.LowStock(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []analytics.LowStockItem{
		{ProductID: 1, ProductName: "Empty", Stock: 0},
		{ProductID: 2, ProductName: "AtLevel", Stock: 5},
	}, items)

	level := 0
	items, err = f.engine.LowStock(context.Background(), &level)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].ProductID)

	level = -1
	_, err = f.engine.LowStock(context.Background(), &level)
	var verr *analytics.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "level", verr.Field)
}

func TestSalesHeatmap(t *testing.T) {
	f := newFixture(t)
	f.product(1, "A", 1, 0)
	f.sell(1, 5, time.Hour) // 2025-06-15 11h
	f.sell(1, 1, time.Hour+time.Minute)
	f.sell(1, 2, 2*day)  // 2025-06-13 12h
	f.sell(1, 2, 40*day) // outside

	cells, err := f.engine.SalesHeatmap(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, []models.SaleBucket{
		{Date: "2025-06-13", Hour: 12, Count: 1},
		{Date: "2025-06-15", Hour: 10, Count: 1},
		{Date: "2025-06-15", Hour: 11, Count: 1},
	}, cells)
}

func TestSalesOverTime(t *testing.T) {
	f := newFixture(t)
	f.product(1, "A", 1, 0)
	f.sell(1, 5, time.Hour)
	f.sell(1, 2, 2*time.Hour)
	f.sell(1, 4, 100*day)

	all, err := f.engine.SalesOverTime(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, models.DailyQuantity{Date: "2025-06-15", Quantity: 7}, all[1])

	week := 7
	recent, err := f.engine.SalesOverTime(context.Background(), &week)
	require.NoError(t, err)
	assert.Equal(t, []models.DailyQuantity{{Date: "2025-06-15", Quantity: 7}}, recent)
}

func TestTopCategories(t *testing.T) {
	f := newFixture(t)
	f.products.Put(models.Product{ID: 1, Name: "Soap", Category: "Home"})
	f.products.Put(models.Product{ID: 2, Name: "Rice", Category: "Food"})
	f.products.Put(models.Product{ID: 3, Name: "Mop", Category: "Home"})
	f.products.Put(models.Product{ID: 4, Name: "Thing"})
	f.sell(1, 2, day)
	f.sell(2, 5, day)
	f.sell(3, 3, day)
	f.sell(4, 1, day)

	cats, err := f.engine.TopCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []analytics.CategorySales{
		{Category: "Home", Sales: 5},
		{Category: "Food", Sales: 5},
		{Category: "Uncategorized", Sales: 1},
	}, cats)
}

func TestReports_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.product(1, "A", 3, 5)
	f.product(2, "B", 30, 5)
	f.sell(1, 4, day)
	f.sell(2, 9, 3*day)
	ctx := context.Background()

	a1, err := f.engine.Alerts(ctx)
	require.NoError(t, err)
	a2, _ := f.engine.Alerts(ctx)
	assert.Equal(t, a1, a2)

	r1, err := f.engine.RestockRecommendations(ctx, 7)
	require.NoError(t, err)
	r2, _ := f.engine.RestockRecommendations(ctx, 7)
	assert.Equal(t, r1, r2)

	t1, err := f.engine.Trends(ctx)
	require.NoError(t, err)
	t2, _ := f.engine.Trends(ctx)
	assert.Equal(t, t1, t2)
}

type failingSales struct{ err error }

func (s failingSales) QuantityByProduct(context.Context, repo.SaleWindow) (map[int]int, error) {
	return nil, s.err
}

func (s failingSales) CountByHour(context.Context, repo.SaleWindow) ([]models.SaleBucket, error) {
	return nil, s.err
}

func (s failingSales) QuantityByDate(context.Context, repo.SaleWindow) ([]models.DailyQuantity, error) {
	return nil, s.err
}

func TestReports_SurfaceDataUnavailable(t *testing.T) {
	cause := errors.New("connection refused")
	products := repo.NewInMemoryProductRepository()
	products.Put(models.Product{ID: 1, Name: "A", Stock: 0, Threshold: 1})
	e := analytics.NewEngine(products, failingSales{cause}, analytics.DefaultConfig())
	ctx := context.Background()

	calls := map[string]func() error{
		"alerts":   func() error { _, err := e.Alerts(ctx); return err },
		"restock":  func() error { _, err := e.RestockRecommendations(ctx, 7); return err },
		"trends":   func() error { _, err := e.Trends(ctx); return err },
		"lowstock": func() error { _, err := e.LowStockFrequency(ctx); return err },
		"dead":     func() error { _, err := e.DeadStock(ctx, 30); return err },
		"heatmap":  func() error { _, err := e.SalesHeatmap(ctx, 30); return err },
		"series":   func() error { _, err := e.SalesOverTime(ctx, nil); return err },
		"category": func() error { _, err := e.TopCategories(ctx); return err },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			err := call()
			var derr *analytics.DataUnavailableError
			require.ErrorAs(t, err, &derr)
			assert.ErrorIs(t, err, cause)
		})
	}
}

func TestNewEngine_FillsDefaults(t *testing.T) {
	e := analytics.NewEngine(nil, nil, analytics.Config{})
	assert.Equal(t, analytics.DefaultConfig().DefaultWindowDays, e.Config().DefaultWindowDays)
	assert.Equal(t, 30, e.Config().DeadStockWindowDays)
	assert.Equal(t, 5, e.Config().TopN)
}
