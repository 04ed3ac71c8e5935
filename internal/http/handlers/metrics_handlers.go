package handlers

import (
	"net/http"

	"github.com/rogerio-castellano/restock-analytics/internal/logging"
)

// GetDashboardMetricsHandler godoc
// @Summary Dashboard metrics for admin view
// @Tags metrics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} repo.Metrics
// @Failure 500 {string} string "Internal error"
// @Router /metrics/dashboard [get]
func GetDashboardMetricsHandler(w http.ResponseWriter, r *http.Request) {
	m, err := metricsRepo.GetDashboardMetrics(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to fetch metrics")
		http.Error(w, "failed to fetch metrics", http.StatusInternalServerError)
		return
	}
	respond(w, r, http.StatusOK, m)
}
