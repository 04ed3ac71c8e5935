package repo

import (
	"context"

	"github.com/rogerio-castellano/restock-analytics/internal/models"
)

// ProductRepository defines the interface for product data operations.
// GetAll returns products in id order, inactive ones included.
type ProductRepository interface {
	Create(ctx context.Context, product models.Product) (models.Product, error)
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id int) (models.Product, error)
	GetByName(ctx context.Context, name string) (models.Product, error)
	Update(ctx context.Context, product models.Product) (models.Product, error)
	Delete(ctx context.Context, id int) error
	Blacklist(ctx context.Context, id int) (models.Product, error)
	SetStock(ctx context.Context, id int, stock, threshold *int) (models.Product, error)
	Filter(ctx context.Context, pf ProductFilter) ([]models.Product, int, error)
}
