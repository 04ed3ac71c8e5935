package analytics

import (
	"context"
	"math"

	"github.com/rogerio-castellano/restock-analytics/internal/models"
)

type Priority string

const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityModerate Priority = "Moderate"
)

// Alert describes an active product at or under its reorder threshold.
type Alert struct {
	ProductID           int      `json:"product_id"`
	ProductName         string   `json:"product_name"`
	Stock               int      `json:"stock"`
	Threshold           int      `json:"threshold"`
	Priority            Priority `json:"priority"`
	AvgDailySales       float64  `json:"avg_daily_sales"`
	EstDepletionDays    float64  `json:"est_depletion_days"`
	SuggestedReorderQty int      `json:"suggested_reorder_qty"`
	LastRestocked       string   `json:"last_restocked,omitempty"`
}

// Alerts classifies every active low-stock product in id order, using the
// default window for velocity.
func (e *Engine) Alerts(ctx context.Context) ([]Alert, error) {
	products, err := e.activeProducts(ctx, "alerts")
	if err != nil {
		return nil, err
	}

	window := e.cfg.DefaultWindowDays
	sold, err := e.velocity(ctx, window)
	if err != nil {
		return nil, err
	}

	alerts := []Alert{}
	for _, p := range products {
		if !p.LowStock() {
			continue
		}
		alerts = append(alerts, e.Classify(p, sold, window))
	}
	return alerts, nil
}

// Classify builds the alert for p from a velocity map computed over windowDays.
func (e *Engine) Classify(p models.Product, sold map[int]int, windowDays int) Alert {
	avg := e.cfg.FallbackDailyVelocity
	if qty, ok := sold[p.ID]; ok && qty > 0 && windowDays > 0 {
		avg = float64(qty) / float64(windowDays)
	}

	reorder := int(math.Round(avg*float64(e.cfg.LeadTimeDays) + float64(p.Threshold) - float64(p.Stock)))

	a := Alert{
		ProductID:           p.ID,
		ProductName:         p.Name,
		Stock:               p.Stock,
		Threshold:           p.Threshold,
		Priority:            priority(p.Stock, p.Threshold),
		AvgDailySales:       roundTo(avg, 2),
		EstDepletionDays:    roundTo(float64(p.Stock)/avg, 1),
		SuggestedReorderQty: max(0, reorder),
	}
	if p.LastRestocked != nil {
		a.LastRestocked = p.LastRestocked.UTC().Format(models.DateLayout)
	}
	return a
}

// priority assumes stock <= threshold.
func priority(stock, threshold int) Priority {
	switch {
	case stock == 0:
		return PriorityCritical
	case float64(stock) < 0.5*float64(threshold):
		return PriorityHigh
	default:
		return PriorityModerate
	}
}

func roundTo(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}
