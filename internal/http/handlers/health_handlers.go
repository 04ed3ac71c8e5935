package handlers

import "net/http"

type HealthResult struct {
	Status     string `json:"status"`
	SalesStore string `json:"sales_store,omitempty"`
}

// HealthHandler godoc
// @Summary Liveness and sales store breaker state
// @Tags health
// @Produce json
// @Success 200 {object} HealthResult
// @Failure 503 {object} HealthResult
// @Router /healthz [get]
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	res := HealthResult{Status: "ok"}
	if b, ok := saleRepo.(interface{ State() string }); ok {
		res.SalesStore = b.State()
	}
	if res.SalesStore == "open" {
		res.Status = "degraded"
		respond(w, r, http.StatusServiceUnavailable, res)
		return
	}
	respond(w, r, http.StatusOK, res)
}
