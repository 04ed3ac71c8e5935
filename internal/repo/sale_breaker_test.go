package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rogerio-castellano/restock-analytics/internal/models"
)

type flakySales struct {
	SaleRepository
	err   error
	calls int
}

func (f *flakySales) QuantityByProduct(context.Context, SaleWindow) (map[int]int, error) {
	f.calls++
	return nil, f.err
}

func (f *flakySales) RecordCart(context.Context, []SaleLine) ([]models.Sale, error) {
	f.calls++
	return nil, f.err
}

func TestBreakerSaleRepository_OpensOnStoreErrors(t *testing.T) {
	inner := &flakySales{err: errors.New("connection refused")}
	b := NewBreakerSaleRepository(inner, BreakerSettings{ConsecutiveFailures: 2, OpenTimeout: time.Minute})

	for range 2 {
		_, err := b.QuantityByProduct(context.Background(), SaleWindow{})
		require.Error(t, err)
	}
	assert.Equal(t, "open", b.State())

	_, err := b.QuantityByProduct(context.Background(), SaleWindow{})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, inner.calls, "open breaker must not reach the store")
}

func TestBreakerSaleRepository_IgnoresBusinessErrors(t *testing.T) {
	inner := &flakySales{err: productErr(1, ErrInsufficientStock)}
	b := NewBreakerSaleRepository(inner, BreakerSettings{ConsecutiveFailures: 1})

	for range 3 {
		_, err := b.RecordCart(context.Background(), []SaleLine{{ProductID: 1, Quantity: 1}})
		assert.ErrorIs(t, err, ErrInsufficientStock)
	}
	assert.Equal(t, "closed", b.State())
	assert.Equal(t, 3, inner.calls)
}

func TestBreakerSaleRepository_PassesResults(t *testing.T) {
	_, sr := newStores()
	sr.AddSale(models.Sale{ProductID: 7, Quantity: 3, Timestamp: asOf.Add(-time.Hour)})
	b := NewBreakerSaleRepository(sr, BreakerSettings{})

	sold, err := b.QuantityByProduct(context.Background(), SaleWindow{})
	require.NoError(t, err)
	assert.Equal(t, map[int]int{7: 3}, sold)

	sales, total, err := b.GetByProductID(context.Background(), 7, SaleFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, sales, 1)
}
