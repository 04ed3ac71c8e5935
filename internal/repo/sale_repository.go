package repo

import (
	"context"

	"github.com/rogerio-castellano/restock-analytics/internal/models"
)

// SaleRepository records sales and answers the grouped read aggregates the
// analytics engine is built on.
type SaleRepository interface {
	// RecordCart validates every line, decrements stock and stores one sale per line atomically.
	RecordCart(ctx context.Context, lines []SaleLine) ([]models.Sale, error)
	GetByProductID(ctx context.Context, productID int, sf SaleFilter) ([]models.Sale, int, error)

	// QuantityByProduct sums sold quantities per product id. Products without sales are absent.
	QuantityByProduct(ctx context.Context, w SaleWindow) (map[int]int, error)
	// CountByHour counts sale transactions per UTC (date, hour), ordered by date then hour.
	CountByHour(ctx context.Context, w SaleWindow) ([]models.SaleBucket, error)
	// QuantityByDate sums sold quantities per UTC date, ascending.
	QuantityByDate(ctx context.Context, w SaleWindow) ([]models.DailyQuantity, error)
}
