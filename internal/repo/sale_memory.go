package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rogerio-castellano/restock-analytics/internal/models"
)

type InMemorySaleRepository struct {
	mu       sync.RWMutex
	sales    []models.Sale
	products *InMemoryProductRepository
	now      func() time.Time
}

// NewInMemorySaleRepository returns a sale store whose carts decrement stock in products.
func NewInMemorySaleRepository(products *InMemoryProductRepository) *InMemorySaleRepository {
	return &InMemorySaleRepository{
		sales:    []models.Sale{},
		products: products,
		now:      time.Now,
	}
}

// SetClock replaces the timestamp source used for recorded carts.
func (r *InMemorySaleRepository) SetClock(now func() time.Time) {
	r.now = now
}

// AddSale appends a historical sale without touching stock.
func (r *InMemorySaleRepository) AddSale(sale models.Sale) models.Sale {
	r.mu.Lock()
	defer r.mu.Unlock()

	sale.ID = len(r.sales) + 1
	sale.Timestamp = sale.Timestamp.UTC()
	r.sales = append(r.sales, sale)
	return sale
}

func (r *InMemorySaleRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sales = []models.Sale{}
}

func (r *InMemorySaleRepository) RecordCart(_ context.Context, lines []SaleLine) ([]models.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.products.decrementStock(lines); err != nil {
		return nil, err
	}

	ts := r.now().UTC()
	created := make([]models.Sale, 0, len(lines))
	for _, l := range lines {
		sale := models.Sale{
			ID:        len(r.sales) + 1,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Price:     l.Price,
			Timestamp: ts,
		}
		r.sales = append(r.sales, sale)
		created = append(created, sale)
	}
	return created, nil
}

// GetByProductID returns a product's sales, newest first, optionally filtered by date range and paginated
func (r *InMemorySaleRepository) GetByProductID(_ context.Context, productID int, sf SaleFilter) ([]models.Sale, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	filtered := []models.Sale{}
	for i := len(r.sales) - 1; i >= 0; i-- {
		s := r.sales[i]
		if s.ProductID != productID {
			continue
		}
		if (sf.Since != nil && s.Timestamp.Before(*sf.Since)) ||
			(sf.Until != nil && s.Timestamp.After(*sf.Until)) {
			continue
		}
		filtered = append(filtered, s)
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.After(filtered[j].Timestamp)
	})

	if sf.Offset != nil && *sf.Offset > len(filtered) {
		return []models.Sale{}, len(filtered), nil
	}

	start := 0
	if sf.Offset != nil {
		start = clamp(*sf.Offset, 0, len(filtered))
	}

	end := min(len(filtered), start+defaultLimit)
	if sf.Limit != nil && *sf.Limit > 0 {
		end = clamp(start+min(*sf.Limit, defaultLimit), start, len(filtered))
	}

	return filtered[start:end], len(filtered), nil
}

func (r *InMemorySaleRepository) QuantityByProduct(_ context.Context, w SaleWindow) (map[int]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	totals := map[int]int{}
	for _, s := range r.sales {
		if w.Contains(s.Timestamp) {
			totals[s.ProductID] += s.Quantity
		}
	}
	return totals, nil
}

func (r *InMemorySaleRepository) CountByHour(_ context.Context, w SaleWindow) ([]models.SaleBucket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type key struct {
		date string
		hour int
	}
	counts := map[key]int{}
	for _, s := range r.sales {
		if !w.Contains(s.Timestamp) {
			continue
		}
		ts := s.Timestamp.UTC()
		counts[key{ts.Format(models.DateLayout), ts.Hour()}]++
	}

	buckets := make([]models.SaleBucket, 0, len(counts))
	for k, c := range counts {
		buckets = append(buckets, models.SaleBucket{Date: k.date, Hour: k.hour, Count: c})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Date != buckets[j].Date {
			return buckets[i].Date < buckets[j].Date
		}
		return buckets[i].Hour < buckets[j].Hour
	})
	return buckets, nil
}

func (r *InMemorySaleRepository) QuantityByDate(_ context.Context, w SaleWindow) ([]models.DailyQuantity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	totals := map[string]int{}
	for _, s := range r.sales {
		if w.Contains(s.Timestamp) {
			totals[s.Timestamp.UTC().Format(models.DateLayout)] += s.Quantity
		}
	}

	out := make([]models.DailyQuantity, 0, len(totals))
	for d, q := range totals {
		out = append(out, models.DailyQuantity{Date: d, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}
