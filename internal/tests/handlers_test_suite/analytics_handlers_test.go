package handlers_test_suite

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/rogerio-castellano/restock-analytics/internal/analytics"
	api "github.com/rogerio-castellano/restock-analytics/internal/http"
	handler "github.com/rogerio-castellano/restock-analytics/internal/http/handlers"
	"github.com/rogerio-castellano/restock-analytics/internal/models"
)

type catalog struct {
	widget, gadget, bolt handler.ProductResponse
}

// seedCatalog creates an empty widget, a fast-selling gadget and an idle bolt.
// The gadget sold 14 units in one sale a day before now.
func seedCatalog(r http.Handler) catalog {
	c := catalog{
		widget: mustCreateProduct(r, handler.ProductRequest{Name: "Widget", Price: 3, Stock: 0, Threshold: 5}),
		gadget: mustCreateProduct(r, handler.ProductRequest{Name: "Gadget", Price: 9, Stock: 2, Threshold: 5, Category: "Tools"}),
		bolt:   mustCreateProduct(r, handler.ProductRequest{Name: "Bolt", Price: 0.2, Stock: 100, Threshold: 5}),
	}
	addSale(c.gadget.ID, 14, day)
	return c
}

func TestGetAlertsHandler(t *testing.T) {
	t.Cleanup(clearAllProducts)
	r := api.NewRouter()
	c := seedCatalog(r)

	w := doRequest(r, http.MethodGet, "/alerts", cashierToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}
	alerts, err := decode[[]analytics.Alert](w)
	if err != nil {
		t.Fatal(err)
	}
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(alerts))
	}

	widget := alerts[0]
	if widget.ProductID != c.widget.ID || widget.Priority != analytics.PriorityCritical {
		t.Errorf("expected critical widget alert first, got %+v", widget)
	}
	if widget.AvgDailySales != 0.1 || widget.EstDepletionDays != 0 || widget.SuggestedReorderQty != 5 {
		t.Errorf("unexpected widget figures: %+v", widget)
	}

	gadget := alerts[1]
	if gadget.ProductID != c.gadget.ID || gadget.Priority != analytics.PriorityHigh {
		t.Errorf("expected high gadget alert second, got %+v", gadget)
	}
	if gadget.AvgDailySales != 2 || gadget.EstDepletionDays != 1 || gadget.SuggestedReorderQty != 9 {
		t.Errorf("unexpected gadget figures: %+v", gadget)
	}
}

func TestGetAlertsHandler_SkipsBlacklisted(t *testing.T) {
	t.Cleanup(clearAllProducts)
	r := api.NewRouter()
	c := seedCatalog(r)

	doRequest(r, http.MethodPatch, fmt.Sprintf("/products/%d/blacklist", c.widget.ID), token, nil)

	w := doRequest(r, http.MethodGet, "/alerts", cashierToken, nil)
	alerts, _ := decode[[]analytics.Alert](w)
	if len(alerts) != 1 || alerts[0].ProductID != c.gadget.ID {
		t.Errorf("expected only the gadget alert, got %+v", alerts)
	}
}

func TestGetRestockRecommendationsHandler(t *testing.T) {
	t.Cleanup(clearAllProducts)
	r := api.NewRouter()
	c := seedCatalog(r)

	tests := []struct {
		name       string
		query      string
		expectCode int
		wantOrder  []int
	}{
		{"default window", "", http.StatusOK, []int{c.gadget.ID, c.widget.ID, c.bolt.ID}},
		{"explicit window", "?windowDays=30", http.StatusOK, []int{c.gadget.ID, c.widget.ID, c.bolt.ID}},
		{"not a number", "?windowDays=abc", http.StatusBadRequest, nil},
		{"zero", "?windowDays=0", http.StatusBadRequest, nil},
		{"negative", "?windowDays=-7", http.StatusBadRequest, nil},
		{"over the maximum", "?windowDays=366", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, http.MethodGet, "/analytics/restock-recommendations"+tt.query, cashierToken, nil)
			if w.Code != tt.expectCode {
				t.Fatalf("expected %d, got %d: %s", tt.expectCode, w.Code, w.Body.String())
			}

			if tt.expectCode != http.StatusOK {
				resp, err := decode[handler.ErrorResponse](w)
				if err != nil {
					t.Fatal(err)
				}
				if resp.Field != "windowDays" {
					t.Errorf("expected field windowDays, got %q", resp.Field)
				}
				return
			}

			recs, err := decode[[]analytics.RestockRecommendation](w)
			if err != nil {
				t.Fatal(err)
			}
			if len(recs) != len(tt.wantOrder) {
				t.Fatalf("expected %d recommendations, got %d", len(tt.wantOrder), len(recs))
			}
			for i, id := range tt.wantOrder {
				if recs[i].ProductID != id {
					t.Errorf("position %d: expected product %d, got %d", i, id, recs[i].ProductID)
				}
			}
			if recs[0].SalesVelocity != 14 || recs[0].RecommendedQuantity != 12 {
				t.Errorf("unexpected gadget recommendation: %+v", recs[0])
			}
		})
	}
}

func TestGetTrendsHandler(t *testing.T) {
	t.Cleanup(clearAllProducts)
	r := api.NewRouter()
	c := seedCatalog(r)

	w := doRequest(r, http.MethodGet, "/analytics/trends", cashierToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	trends, err := decode[analytics.Trends](w)
	if err != nil {
		t.Fatal(err)
	}

	if len(trends.StockLevels) != 3 {
		t.Errorf("expected 3 stock levels, got %d", len(trends.StockLevels))
	}
	if len(trends.DailySales) != 7 {
		t.Fatalf("expected 7 days, got %d", len(trends.DailySales))
	}
	last := trends.DailySales[6]
	if last.Date != "2025-06-15" || last.Label != "Sun" || last.Sales != 0 {
		t.Errorf("unexpected last day: %+v", last)
	}
	if trends.DailySales[5].Sales != 1 {
		t.Errorf("expected one sale on 2025-06-14, got %d", trends.DailySales[5].Sales)
	}
	if len(trends.TopProducts) != 1 || trends.TopProducts[0].ProductID != c.gadget.ID || trends.TopProducts[0].Sales != 14 {
		t.Errorf("unexpected top products: %+v", trends.TopProducts)
	}
}

func TestGetDeadStockHandler(t *testing.T) {
	t.Cleanup(clearAllProducts)
	r := api.NewRouter()
	c := seedCatalog(r)
	addSale(c.bolt.ID, 1, 40*day)

	w := doRequest(r, http.MethodGet, "/analytics/deadstock", cashierToken, nil)
	dead, err := decode[[]analytics.DeadStock](w)
	if err != nil {
		t.Fatal(err)
	}
	if len(dead) != 2 || dead[0].ProductID != c.widget.ID || dead[1].ProductID != c.bolt.ID {
		t.Errorf("expected widget and bolt as dead stock, got %+v", dead)
	}

	w = doRequest(r, http.MethodGet, "/analytics/deadstock?windowDays=60", cashierToken, nil)
	dead, _ = decode[[]analytics.DeadStock](w)
	if len(dead) != 1 || dead[0].ProductID != c.widget.ID {
		t.Errorf("expected only widget over 60 days, got %+v", dead)
	}

	w = doRequest(r, http.MethodGet, "/analytics/deadstock?windowDays=1.5", cashierToken, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a fractional window, got %d", w.Code)
	}
}

func TestGetLowStockFrequencyHandler(t *testing.T) {
	t.Cleanup(clearAllProducts)
	r := api.NewRouter()
	c := seedCatalog(r)
	addSale(c.bolt.ID, 1, 2*day)

	w := doRequest(r, http.MethodGet, "/analytics/low-stock-frequency", cashierToken, nil)
	counts, err := decode[[]analytics.LowStockCount](w)
	if err != nil {
		t.Fatal(err)
	}

	want := []analytics.LowStockCount{
		{ProductID: c.gadget.ID, Product: "Gadget", Count: 1},
		{ProductID: c.bolt.ID, Product: "Bolt", Count: 0},
	}
	if len(counts) != len(want) {
		t.Fatalf("expected %d entries, got %+v", len(want), counts)
	}
	for i := range want {
		if counts[i] != want[i] {
			t.Errorf("entry %d: expected %+v, got %+v", i, want[i], counts[i])
		}
	}
}

func TestGetLowStockHandler(t *testing.T) {
	t.Cleanup(clearAllProducts)
	r := api.NewRouter()
	c := seedCatalog(r)

	w := doRequest(r, http.MethodGet, "/analytics/low-stock", cashierToken, nil)
	items, err := decode[[]analytics.LowStockItem](w)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[0].ProductID != c.widget.ID || items[1].ProductID != c.gadget.ID {
		t.Errorf("expected widget and gadget at or under 5, got %+v", items)
	}

	w = doRequest(r, http.MethodGet, "/analytics/low-stock?level=100", cashierToken, nil)
	items, _ = decode[[]analytics.LowStockItem](w)
	if len(items) != 3 {
		t.Errorf("expected all 3 products at or under 100, got %+v", items)
	}

	for _, bad := range []string{"abc", "-1"} {
		w = doRequest(r, http.MethodGet, "/analytics/low-stock?level="+bad, cashierToken, nil)
		if w.Code != http.StatusBadRequest {
			t.Errorf("level=%s: expected 400, got %d", bad, w.Code)
		}
	}
}

func TestSalesSeriesHandlers(t *testing.T) {
	t.Cleanup(clearAllProducts)
	r := api.NewRouter()
	seedCatalog(r)

	w := doRequest(r, http.MethodGet, "/analytics/sales-heatmap", cashierToken, nil)
	buckets, err := decode[[]models.SaleBucket](w)
	if err != nil {
		t.Fatal(err)
	}
	if len(buckets) != 1 || buckets[0] != (models.SaleBucket{Date: "2025-06-14", Hour: 12, Count: 1}) {
		t.Errorf("unexpected heatmap: %+v", buckets)
	}

	w = doRequest(r, http.MethodGet, "/analytics/sales-over-time", cashierToken, nil)
	series, err := decode[[]models.DailyQuantity](w)
	if err != nil {
		t.Fatal(err)
	}
	if len(series) != 1 || series[0] != (models.DailyQuantity{Date: "2025-06-14", Quantity: 14}) {
		t.Errorf("unexpected sales over time: %+v", series)
	}

	w = doRequest(r, http.MethodGet, "/analytics/sales-over-time?windowDays=x", cashierToken, nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a bad window, got %d", w.Code)
	}

	w = doRequest(r, http.MethodGet, "/analytics/top-categories", cashierToken, nil)
	categories, err := decode[[]analytics.CategorySales](w)
	if err != nil {
		t.Fatal(err)
	}
	if len(categories) != 1 || categories[0] != (analytics.CategorySales{Category: "Tools", Sales: 14}) {
		t.Errorf("unexpected top categories: %+v", categories)
	}
}

func TestAnalyticsRoutes_RequireToken(t *testing.T) {
	r := api.NewRouter()

	routes := []string{
		"/alerts",
		"/analytics/restock-recommendations",
		"/analytics/trends",
		"/analytics/low-stock-frequency",
		"/analytics/low-stock",
		"/analytics/deadstock",
		"/analytics/sales-heatmap",
		"/analytics/sales-over-time",
		"/analytics/top-categories",
	}
	for _, route := range routes {
		t.Run(route, func(t *testing.T) {
			if w := doRequest(r, http.MethodGet, route, "", nil); w.Code != http.StatusUnauthorized {
				t.Errorf("expected 401 Unauthorized, got %d", w.Code)
			}
		})
	}
}
