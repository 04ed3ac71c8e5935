package handlers_test_suite

import (
	"fmt"
	"net/http"
	"testing"

	api "github.com/rogerio-castellano/restock-analytics/internal/http"
	handler "github.com/rogerio-castellano/restock-analytics/internal/http/handlers"
	"github.com/rogerio-castellano/restock-analytics/internal/repo"
)

func TestDashboardMetricsHandler(t *testing.T) {
	t.Cleanup(clearAllProducts)
	r := api.NewRouter()

	keyboard := mustCreateProduct(r, handler.ProductRequest{Name: "Keyboard", Price: 40, Stock: 10, Threshold: 5})
	mouse := mustCreateProduct(r, handler.ProductRequest{Name: "Mouse", Price: 20, Stock: 8, Threshold: 5})
	mustCreateProduct(r, handler.ProductRequest{Name: "Monitor", Price: 150, Stock: 2, Threshold: 3}) // below threshold
	cable := mustCreateProduct(r, handler.ProductRequest{Name: "Cable", Price: 5, Stock: 1, Threshold: 3})

	doRequest(r, http.MethodPatch, fmt.Sprintf("/products/%d/blacklist", cable.ID), token, nil)

	for range 3 {
		if w := sell(r, cashierToken, handler.SaleLineRequest{ID: mouse.ID, Quantity: 1, Price: 20}); w.Code != http.StatusCreated {
			t.Fatalf("sale failed: %d %s", w.Code, w.Body.String())
		}
	}
	sell(r, cashierToken, handler.SaleLineRequest{ID: keyboard.ID, Quantity: 1, Price: 40})

	w := doRequest(r, http.MethodGet, "/metrics/dashboard", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}

	m, err := decode[repo.Metrics](w)
	if err != nil {
		t.Fatalf("failed to decode metrics: %v", err)
	}

	if m.TotalProducts != 4 {
		t.Errorf("expected 4 products, got %v", m.TotalProducts)
	}
	if m.ActiveProducts != 3 || m.BlacklistedProducts != 1 {
		t.Errorf("expected 3 active and 1 blacklisted, got %v and %v", m.ActiveProducts, m.BlacklistedProducts)
	}
	// Mouse drops to 5 after three sales, the blacklisted cable is ignored.
	if m.LowStockCount != 2 {
		t.Errorf("expected 2 low stock products, got %v", m.LowStockCount)
	}
	if m.TotalSales != 4 || m.UnitsSold != 4 {
		t.Errorf("expected 4 sales and 4 units, got %v and %v", m.TotalSales, m.UnitsSold)
	}

	mp := m.MostSoldProduct
	if mp.Name != "Mouse" || mp.UnitsSold != 3 {
		t.Errorf("expected Mouse with 3 units as most sold, got %+v", mp)
	}
}

func TestDashboardMetricsHandler_AdminOnly(t *testing.T) {
	r := api.NewRouter()

	if w := doRequest(r, http.MethodGet, "/metrics/dashboard", cashierToken, nil); w.Code != http.StatusForbidden {
		t.Errorf("expected 403 Forbidden for a cashier, got %d", w.Code)
	}
	if w := doRequest(r, http.MethodGet, "/metrics/dashboard", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 Unauthorized without a token, got %d", w.Code)
	}
}
