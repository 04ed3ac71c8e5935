package analytics

import "time"

// Config holds the tunables of the engine. Non-positive fields take the defaults below;
// LeadTimeDays and LowStockLevel only fall back when negative, zero being a valid value.
type Config struct {
	DefaultWindowDays int
	MaxWindowDays     int
	// LeadTimeDays is the reorder lead time used by the alert reorder suggestion.
	LeadTimeDays int
	// FallbackDailyVelocity stands in for the daily sales of a product with no sales in the window.
	FallbackDailyVelocity float64
	DeadStockWindowDays   int
	HeatmapWindowDays     int
	TrendDays             int
	TopN                  int
	// LowStockLevel is the absolute stock level at or under which the low-stock listing reports a product.
	LowStockLevel int
}

const (
	defaultWindowDays      = 7
	defaultMaxWindowDays   = 365
	defaultLeadTimeDays    = 3
	defaultFallbackDaily   = 0.1
	defaultDeadStockWindow = 30
	defaultHeatmapWindow   = 30
	defaultTrendDays       = 7
	defaultTopN            = 5
	defaultLowStockLevel   = 5
)

func DefaultConfig() Config {
	return Config{
		DefaultWindowDays:     defaultWindowDays,
		MaxWindowDays:         defaultMaxWindowDays,
		LeadTimeDays:          defaultLeadTimeDays,
		FallbackDailyVelocity: defaultFallbackDaily,
		DeadStockWindowDays:   defaultDeadStockWindow,
		HeatmapWindowDays:     defaultHeatmapWindow,
		TrendDays:             defaultTrendDays,
		TopN:                  defaultTopN,
		LowStockLevel:         defaultLowStockLevel,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.DefaultWindowDays <= 0 {
		c.DefaultWindowDays = d.DefaultWindowDays
	}
	if c.MaxWindowDays <= 0 {
		c.MaxWindowDays = d.MaxWindowDays
	}
	if c.LeadTimeDays < 0 {
		c.LeadTimeDays = d.LeadTimeDays
	}
	if c.FallbackDailyVelocity <= 0 {
		c.FallbackDailyVelocity = d.FallbackDailyVelocity
	}
	if c.DeadStockWindowDays <= 0 {
		c.DeadStockWindowDays = d.DeadStockWindowDays
	}
	if c.HeatmapWindowDays <= 0 {
		c.HeatmapWindowDays = d.HeatmapWindowDays
	}
	if c.TrendDays <= 0 {
		c.TrendDays = d.TrendDays
	}
	if c.TopN <= 0 {
		c.TopN = d.TopN
	}
	if c.LowStockLevel < 0 {
		c.LowStockLevel = d.LowStockLevel
	}
	return c
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock sets the time source used as the as-of instant of every report.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}
