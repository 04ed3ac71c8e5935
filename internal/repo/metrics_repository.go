package repo

import "context"

type MostSoldProduct struct {
	Name      string `json:"name"`
	UnitsSold int    `json:"units_sold"`
}

type Metrics struct {
	TotalProducts       int             `json:"total_products"`
	ActiveProducts      int             `json:"active_products"`
	BlacklistedProducts int             `json:"blacklisted_products"`
	DeletedProducts     int             `json:"deleted_products"`
	LowStockCount       int             `json:"low_stock_count"`
	TotalSales          int             `json:"total_sales"`
	UnitsSold           int             `json:"units_sold"`
	MostSoldProduct     MostSoldProduct `json:"most_sold_product"`
}

type MetricsRepository interface {
	GetDashboardMetrics(ctx context.Context) (Metrics, error)
}
