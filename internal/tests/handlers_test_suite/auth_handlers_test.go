package handlers_test_suite

import (
	"net/http"
	"testing"

	"github.com/rogerio-castellano/restock-analytics/internal/auth"
	api "github.com/rogerio-castellano/restock-analytics/internal/http"
	handler "github.com/rogerio-castellano/restock-analytics/internal/http/handlers"
	rl "github.com/rogerio-castellano/restock-analytics/internal/http/rate_limiter"
	"github.com/rogerio-castellano/restock-analytics/internal/models"
)

func TestRegisterHandler(t *testing.T) {
	r := api.NewRouter()

	w := doRequest(r, http.MethodPost, "/register", "", handler.CredentialsRequest{Username: "  maria  ", Password: "secret-pass"})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 Created, got %d: %s", w.Code, w.Body.String())
	}
	res, err := decode[handler.RegisterResult](w)
	if err != nil {
		t.Fatal(err)
	}

	claims, err := auth.ParseToken(res.Token)
	if err != nil {
		t.Fatalf("expected a valid token: %v", err)
	}
	if claims.Username != "maria" || claims.Role != models.RoleCashier {
		t.Errorf("expected cashier maria, got %s/%s", claims.Username, claims.Role)
	}

	w = doRequest(r, http.MethodPost, "/register", "", handler.CredentialsRequest{Username: "maria", Password: "another-pass"})
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 Conflict for a duplicate, got %d", w.Code)
	}
}

func TestRegisterHandler_Invalid(t *testing.T) {
	r := api.NewRouter()

	tests := []struct {
		name  string
		creds handler.CredentialsRequest
		field string
	}{
		{"short password", handler.CredentialsRequest{Username: "joao", Password: "123"}, "password"},
		{"short username", handler.CredentialsRequest{Username: "jo", Password: "secret-pass"}, "username"},
		{"blank username", handler.CredentialsRequest{Username: "   ", Password: "secret-pass"}, "username"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, http.MethodPost, "/register", "", tt.creds)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 Bad Request, got %d", w.Code)
			}
			errs, err := decode[[]handler.ValidationError](w)
			if err != nil {
				t.Fatal(err)
			}
			if len(errs) != 1 || errs[0].Field != tt.field {
				t.Errorf("expected a single error on %s, got %+v", tt.field, errs)
			}
		})
	}
}

func TestLoginHandler(t *testing.T) {
	r := api.NewRouter()

	tests := []struct {
		name       string
		login      handler.UserLogin
		expectCode int
	}{
		{"valid", handler.UserLogin{Username: "admin", Password: "secret"}, http.StatusOK},
		{"wrong password", handler.UserLogin{Username: "admin", Password: "nope"}, http.StatusUnauthorized},
		{"unknown user", handler.UserLogin{Username: "ghost", Password: "secret"}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(r, http.MethodPost, "/login", "", tt.login)
			if w.Code != tt.expectCode {
				t.Fatalf("expected %d, got %d", tt.expectCode, w.Code)
			}
			if tt.expectCode != http.StatusOK {
				return
			}
			res, _ := decode[handler.LoginResult](w)
			claims, err := auth.ParseToken(res.Token)
			if err != nil || claims.Role != models.RoleAdmin {
				t.Errorf("expected an admin token, got %+v (%v)", claims, err)
			}
		})
	}
}

func TestRegisterAsAdminHandler(t *testing.T) {
	r := api.NewRouter()

	req := handler.RegisterAsAdminRequest{Username: "supervisor", Password: "secret-pass", Role: models.RoleAdmin}

	if w := doRequest(r, http.MethodPost, "/admin/users", cashierToken, req); w.Code != http.StatusForbidden {
		t.Errorf("expected 403 Forbidden for a cashier, got %d", w.Code)
	}

	if w := doRequest(r, http.MethodPost, "/admin/users", token, req); w.Code != http.StatusCreated {
		t.Fatalf("expected 201 Created, got %d: %s", w.Code, w.Body.String())
	}
	u, err := userRepo.GetByUsername(t.Context(), "supervisor")
	if err != nil || u.Role != models.RoleAdmin {
		t.Errorf("expected stored admin supervisor, got %+v (%v)", u, err)
	}

	bad := handler.RegisterAsAdminRequest{Username: "stocker", Password: "secret-pass", Role: "owner"}
	if w := doRequest(r, http.MethodPost, "/admin/users", token, bad); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for an unknown role, got %d", w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	rl.Configure(0.001, 2)
	rl.CleanupAllVisitors()
	t.Cleanup(func() {
		rl.Configure(100, 100)
		rl.CleanupAllVisitors()
	})
	r := api.NewRouter()

	login := handler.UserLogin{Username: "admin", Password: "secret"}
	for i := range 2 {
		if w := doRequest(r, http.MethodPost, "/login", "", login); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200 OK, got %d", i+1, w.Code)
		}
	}
	if w := doRequest(r, http.MethodPost, "/login", "", login); w.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 Too Many Requests, got %d", w.Code)
	}

	// Authenticated routes are not throttled.
	if w := doRequest(r, http.MethodGet, "/products", cashierToken, nil); w.Code != http.StatusOK {
		t.Errorf("expected 200 OK on products, got %d", w.Code)
	}
}
