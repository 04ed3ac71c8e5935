package repo

import "context"

type InMemoryMetricsRepository struct {
	productRepo *InMemoryProductRepository
	saleRepo    *InMemorySaleRepository
}

func NewInMemoryMetricsRepository() *InMemoryMetricsRepository {
	return &InMemoryMetricsRepository{}
}

func (i *InMemoryMetricsRepository) SetRepositories(productRepo *InMemoryProductRepository, saleRepo *InMemorySaleRepository) {
	i.productRepo = productRepo
	i.saleRepo = saleRepo
}

// GetDashboardMetrics implements MetricsRepository.
func (i *InMemoryMetricsRepository) GetDashboardMetrics(ctx context.Context) (Metrics, error) {
	m := Metrics{}

	products, err := i.productRepo.GetAll(ctx)
	if err != nil {
		return m, err
	}
	m.TotalProducts = len(products)

	for _, p := range products {
		if p.IsBlacklisted {
			m.BlacklistedProducts++
		}
		if p.DateDeleted != nil {
			m.DeletedProducts++
		}
		if p.Active() {
			m.ActiveProducts++
			if p.LowStock() {
				m.LowStockCount++
			}
		}
	}

	i.saleRepo.mu.RLock()
	m.TotalSales = len(i.saleRepo.sales)
	i.saleRepo.mu.RUnlock()

	units, err := i.saleRepo.QuantityByProduct(ctx, SaleWindow{})
	if err != nil {
		return m, err
	}
	for _, p := range products {
		qty := units[p.ID]
		m.UnitsSold += qty
		if qty > m.MostSoldProduct.UnitsSold {
			m.MostSoldProduct = MostSoldProduct{Name: p.Name, UnitsSold: qty}
		}
	}

	return m, nil
}
