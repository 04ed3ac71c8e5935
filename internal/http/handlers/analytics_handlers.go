package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rogerio-castellano/restock-analytics/internal/analytics"
	"github.com/rogerio-castellano/restock-analytics/internal/logging"
	"github.com/rogerio-castellano/restock-analytics/internal/metrics"
	"github.com/rogerio-castellano/restock-analytics/internal/models"
)

// serveReport computes one report, records its timing and writes it or the mapped error.
func serveReport[T any](w http.ResponseWriter, r *http.Request, name string, compute func(context.Context) (T, error)) {
	start := time.Now()
	out, err := compute(r.Context())
	metrics.ObserveReport(name, start, err)
	if err != nil {
		writeAnalyticsError(w, r, name, err)
		return
	}
	respond(w, r, http.StatusOK, out)
}

func writeAnalyticsError(w http.ResponseWriter, r *http.Request, report string, err error) {
	var verr *analytics.ValidationError
	var derr *analytics.DataUnavailableError
	switch {
	case errors.As(err, &verr):
		respond(w, r, http.StatusBadRequest, ErrorResponse{Error: verr.Error(), Field: verr.Field})
	case errors.As(err, &derr):
		logging.Ctx(r.Context()).Error().Err(derr.Err).Str("report", report).Str("op", derr.Op).Msg("analytics data unavailable")
		respond(w, r, http.StatusServiceUnavailable, ErrorResponse{Error: "analytics data unavailable", Details: derr.Error()})
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("report", report).Msg("analytics report failed")
		respond(w, r, http.StatusInternalServerError, ErrorResponse{Error: "analytics report failed"})
	}
}

// windowParam reads windowDays. Absent means def; range checks belong to the engine.
func windowParam(r *http.Request, def int) (int, error) {
	raw := r.URL.Query().Get("windowDays")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &analytics.ValidationError{Field: "windowDays", Value: fmt.Sprintf("%q", raw), Reason: "must be an integer"}
	}
	return v, nil
}

// GetAlertsHandler godoc
// @Summary Low-stock alerts
// @Description Active products at or under threshold with priority, depletion estimate and reorder suggestion.
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {array} analytics.Alert
// @Failure 503 {object} ErrorResponse
// @Router /alerts [get]
func GetAlertsHandler(w http.ResponseWriter, r *http.Request) {
	serveReport(w, r, "alerts", engine.Alerts)
}

// GetRestockRecommendationsHandler godoc
// @Summary Restock recommendations
// @Description Demand over the window minus current stock, largest shortfall first.
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Param windowDays query int false "Lookback window in days (default 7)"
// @Success 200 {array} analytics.RestockRecommendation
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /analytics/restock-recommendations [get]
func GetRestockRecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	days, err := windowParam(r, engine.Config().DefaultWindowDays)
	if err != nil {
		writeAnalyticsError(w, r, "restock_recommendations", err)
		return
	}
	serveReport(w, r, "restock_recommendations", func(ctx context.Context) ([]analytics.RestockRecommendation, error) {
		return engine.RestockRecommendations(ctx, days)
	})
}

// GetTrendsHandler godoc
// @Summary Stock snapshot, daily sales of the last week and top products
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {object} analytics.Trends
// @Failure 503 {object} ErrorResponse
// @Router /analytics/trends [get]
func GetTrendsHandler(w http.ResponseWriter, r *http.Request) {
	serveReport(w, r, "trends", engine.Trends)
}

// GetLowStockFrequencyHandler godoc
// @Summary Current below-threshold indicator per product with sales history
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {array} analytics.LowStockCount
// @Failure 503 {object} ErrorResponse
// @Router /analytics/low-stock-frequency [get]
func GetLowStockFrequencyHandler(w http.ResponseWriter, r *http.Request) {
	serveReport(w, r, "low_stock_frequency", engine.LowStockFrequency)
}

// GetDeadStockHandler godoc
// @Summary Products without sales in the window
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Param windowDays query int false "Lookback window in days (default 30)"
// @Success 200 {array} analytics.DeadStock
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /analytics/deadstock [get]
func GetDeadStockHandler(w http.ResponseWriter, r *http.Request) {
	days, err := windowParam(r, engine.Config().DeadStockWindowDays)
	if err != nil {
		writeAnalyticsError(w, r, "dead_stock", err)
		return
	}
	serveReport(w, r, "dead_stock", func(ctx context.Context) ([]analytics.DeadStock, error) {
		return engine.DeadStock(ctx, days)
	})
}

// GetSalesHeatmapHandler godoc
// @Summary Sale counts per date and hour
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Param windowDays query int false "Lookback window in days (default 30)"
// @Success 200 {array} models.SaleBucket
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /analytics/sales-heatmap [get]
func GetSalesHeatmapHandler(w http.ResponseWriter, r *http.Request) {
	days, err := windowParam(r, engine.Config().HeatmapWindowDays)
	if err != nil {
		writeAnalyticsError(w, r, "sales_heatmap", err)
		return
	}
	serveReport(w, r, "sales_heatmap", func(ctx context.Context) ([]models.SaleBucket, error) {
		return engine.SalesHeatmap(ctx, days)
	})
}

// GetSalesOverTimeHandler godoc
// @Summary Units sold per day
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Param windowDays query int false "Lookback window in days (default all history)"
// @Success 200 {array} models.DailyQuantity
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /analytics/sales-over-time [get]
func GetSalesOverTimeHandler(w http.ResponseWriter, r *http.Request) {
	var window *int
	if r.URL.Query().Get("windowDays") != "" {
		days, err := windowParam(r, 0)
		if err != nil {
			writeAnalyticsError(w, r, "sales_over_time", err)
			return
		}
		window = &days
	}
	serveReport(w, r, "sales_over_time", func(ctx context.Context) ([]models.DailyQuantity, error) {
		return engine.SalesOverTime(ctx, window)
	})
}

// GetTopCategoriesHandler godoc
// @Summary Best selling categories
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Success 200 {array} analytics.CategorySales
// @Failure 503 {object} ErrorResponse
// @Router /analytics/top-categories [get]
func GetTopCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	serveReport(w, r, "top_categories", engine.TopCategories)
}

// GetLowStockHandler godoc
// @Summary Products at or under an absolute stock level
// @Tags analytics
// @Produce json
// @Security BearerAuth
// @Param level query int false "Stock level (default 5)"
// @Success 200 {array} analytics.LowStockItem
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /analytics/low-stock [get]
func GetLowStockHandler(w http.ResponseWriter, r *http.Request) {
	var level *int
	if raw := r.URL.Query().Get("level"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			writeAnalyticsError(w, r, "low_stock", &analytics.ValidationError{Field: "level", Value: fmt.Sprintf("%q", raw), Reason: "must be an integer"})
			return
		}
		level = &v
	}
	serveReport(w, r, "low_stock", func(ctx context.Context) ([]analytics.LowStockItem, error) {
		return engine.LowStock(ctx, level)
	})
}
