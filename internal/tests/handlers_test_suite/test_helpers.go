// Package handlers_test_suite exercises the HTTP surface end to end over the in-memory store.
package handlers_test_suite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/rogerio-castellano/restock-analytics/internal/analytics"
	"github.com/rogerio-castellano/restock-analytics/internal/auth"
	api "github.com/rogerio-castellano/restock-analytics/internal/http"
	handler "github.com/rogerio-castellano/restock-analytics/internal/http/handlers"
	rl "github.com/rogerio-castellano/restock-analytics/internal/http/rate_limiter"
	"github.com/rogerio-castellano/restock-analytics/internal/logging"
	"github.com/rogerio-castellano/restock-analytics/internal/models"
	"github.com/rogerio-castellano/restock-analytics/internal/repo"
)

// now is the as-of instant of every report and the timestamp of every recorded cart.
var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

const day = 24 * time.Hour

var (
	token        string
	cashierToken string
	productRepo  *repo.InMemoryProductRepository
	saleRepo     *repo.InMemorySaleRepository
	userRepo     *repo.InMemoryUserRepository
	auditRepo    *repo.InMemoryAuditLogRepository
)

func init() {
	logging.Init(logging.Config{Level: "disabled"})
	auth.Configure("test-secret", 15*time.Minute)
	rl.Configure(100, 100)

	setupTestRepos("secret")
	r := api.NewRouter()

	var err error
	token, err = generateToken(r, "admin", "secret")
	if err != nil {
		panic(fmt.Sprintf("error generating token: %v", err))
	}
	cashierToken, err = generateToken(r, "cashier", "secret")
	if err != nil {
		panic(fmt.Sprintf("error generating token: %v", err))
	}
}

func setupTestRepos(password string) {
	productRepo = repo.NewInMemoryProductRepository()
	handler.SetProductRepo(productRepo)

	saleRepo = repo.NewInMemorySaleRepository(productRepo)
	saleRepo.SetClock(func() time.Time { return now })
	handler.SetSaleRepo(saleRepo)

	userRepo = repo.NewInMemoryUserRepository()
	handler.SetUserRepo(userRepo)

	hash, _ := auth.HashPassword(password)
	userRepo.CreateUser(context.Background(), models.User{Username: "admin", PasswordHash: hash, Role: models.RoleAdmin})
	userRepo.CreateUser(context.Background(), models.User{Username: "cashier", PasswordHash: hash, Role: models.RoleCashier})

	metricsRepo := repo.NewInMemoryMetricsRepository()
	metricsRepo.SetRepositories(productRepo, saleRepo)
	handler.SetMetricsRepo(metricsRepo)

	auditRepo = repo.NewInMemoryAuditLogRepository()
	auditRepo.SetClock(func() time.Time { return now })
	handler.SetAuditRepo(auditRepo)

	handler.SetAnalyticsEngine(analytics.NewEngine(productRepo, saleRepo, analytics.DefaultConfig(),
		analytics.WithClock(func() time.Time { return now })))
}

func clearAllProducts() {
	productRepo.Clear()
	saleRepo.Clear()
	auditRepo.Clear()
}

func generateToken(r http.Handler, username, password string) (string, error) {
	payload := handler.UserLogin{Username: username, Password: password}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp handler.LoginResult
	err := json.NewDecoder(w.Body).Decode(&resp)
	if err != nil {
		return "", fmt.Errorf("token decoding failed: %v", err)
	}
	return resp.Token, nil
}

func doRequest(r http.Handler, method, path, bearer string, payload any) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createProduct(r http.Handler, p handler.ProductRequest) *httptest.ResponseRecorder {
	return doRequest(r, http.MethodPost, "/products", token, p)
}

func mustCreateProduct(r http.Handler, p handler.ProductRequest) handler.ProductResponse {
	w := createProduct(r, p)
	if w.Code != http.StatusCreated {
		panic(fmt.Sprintf("product creation failed: %d %s", w.Code, w.Body.String()))
	}
	var resp handler.ProductResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		panic(err)
	}
	return resp
}

func sell(r http.Handler, bearer string, lines ...handler.SaleLineRequest) *httptest.ResponseRecorder {
	return doRequest(r, http.MethodPost, "/sales", bearer, handler.SaleRequest{Cart: lines})
}

// addSale seeds history ago before now without touching stock.
func addSale(productID, quantity int, ago time.Duration) {
	saleRepo.AddSale(models.Sale{ProductID: productID, Quantity: quantity, Price: 1, Timestamp: now.Add(-ago)})
}

func decode[T any](w *httptest.ResponseRecorder) (T, error) {
	var v T
	err := json.NewDecoder(w.Body).Decode(&v)
	return v, err
}
