package repo

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"

	"github.com/rogerio-castellano/restock-analytics/internal/metrics"
	"github.com/rogerio-castellano/restock-analytics/internal/models"
)

// BreakerSaleRepository fails fast while the underlying store keeps erroring.
// It never retries; an open breaker surfaces gobreaker.ErrOpenState to the caller.
type BreakerSaleRepository struct {
	inner SaleRepository
	cb    *gobreaker.CircuitBreaker[any]
}

// BreakerSettings configures the breaker that guards sale reads and writes.
type BreakerSettings struct {
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

func NewBreakerSaleRepository(inner SaleRepository, bs BreakerSettings) *BreakerSaleRepository {
	if bs.ConsecutiveFailures == 0 {
		bs.ConsecutiveFailures = 5
	}
	if bs.OpenTimeout <= 0 {
		bs.OpenTimeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "sales-store",
		MaxRequests: 1,
		Timeout:     bs.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bs.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
		// Business rejections and caller cancellations say nothing about store health.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, context.Canceled) ||
				errors.Is(err, ErrProductNotFound) ||
				errors.Is(err, ErrInsufficientStock) ||
				errors.Is(err, ErrInactiveProduct) ||
				errors.Is(err, ErrInvalidQuantity)
		},
	}

	return &BreakerSaleRepository{inner: inner, cb: gobreaker.NewCircuitBreaker[any](settings)}
}

func (b *BreakerSaleRepository) RecordCart(ctx context.Context, lines []SaleLine) ([]models.Sale, error) {
	res, err := b.cb.Execute(func() (any, error) { return b.inner.RecordCart(ctx, lines) })
	if err != nil {
		return nil, err
	}
	return res.([]models.Sale), nil
}

type salesPage struct {
	sales []models.Sale
	total int
}

func (b *BreakerSaleRepository) GetByProductID(ctx context.Context, productID int, sf SaleFilter) ([]models.Sale, int, error) {
	res, err := b.cb.Execute(func() (any, error) {
		sales, total, err := b.inner.GetByProductID(ctx, productID, sf)
		return salesPage{sales, total}, err
	})
	if err != nil {
		return nil, 0, err
	}
	page := res.(salesPage)
	return page.sales, page.total, nil
}

func (b *BreakerSaleRepository) QuantityByProduct(ctx context.Context, w SaleWindow) (map[int]int, error) {
	res, err := b.cb.Execute(func() (any, error) { return b.inner.QuantityByProduct(ctx, w) })
	if err != nil {
		return nil, err
	}
	return res.(map[int]int), nil
}

func (b *BreakerSaleRepository) CountByHour(ctx context.Context, w SaleWindow) ([]models.SaleBucket, error) {
	res, err := b.cb.Execute(func() (any, error) { return b.inner.CountByHour(ctx, w) })
	if err != nil {
		return nil, err
	}
	return res.([]models.SaleBucket), nil
}

func (b *BreakerSaleRepository) QuantityByDate(ctx context.Context, w SaleWindow) ([]models.DailyQuantity, error) {
	res, err := b.cb.Execute(func() (any, error) { return b.inner.QuantityByDate(ctx, w) })
	if err != nil {
		return nil, err
	}
	return res.([]models.DailyQuantity), nil
}

// State exposes the breaker state for health reporting.
func (b *BreakerSaleRepository) State() string {
	return b.cb.State().String()
}
