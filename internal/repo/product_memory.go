package repo

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rogerio-castellano/restock-analytics/internal/models"
)

// InMemoryProductRepository is an in-memory implementation of ProductRepository.
type InMemoryProductRepository struct {
	mu       sync.RWMutex
	products []models.Product
	nextID   int
}

// NewInMemoryProductRepository creates a new instance of InMemoryProductRepository.
func NewInMemoryProductRepository() *InMemoryProductRepository {
	return &InMemoryProductRepository{
		products: []models.Product{},
		nextID:   1,
	}
}

func matchesFilter(p models.Product, pf ProductFilter) bool {
	if pf.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(pf.Name)) {
		return false
	}
	if pf.Category != "" && !strings.EqualFold(p.Category, pf.Category) {
		return false
	}
	if pf.MinPrice != nil && p.Price < *pf.MinPrice {
		return false
	}
	if pf.MaxPrice != nil && p.Price > *pf.MaxPrice {
		return false
	}
	if pf.MinStock != nil && p.Stock < *pf.MinStock {
		return false
	}
	if pf.MaxStock != nil && p.Stock > *pf.MaxStock {
		return false
	}
	return true
}

func (r *InMemoryProductRepository) Filter(_ context.Context, pf ProductFilter) ([]models.Product, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	filtered := []models.Product{}
	for _, p := range r.products {
		if p.DateDeleted == nil && matchesFilter(p, pf) {
			filtered = append(filtered, p)
		}
	}

	// If offset is greater than the number of filtered products, return empty slice
	if pf.Offset != nil && *pf.Offset > len(filtered) {
		return []models.Product{}, len(filtered), nil
	}

	start := 0
	if pf.Offset != nil {
		start = clamp(*pf.Offset, 0, len(filtered))
	}

	end := len(filtered)
	if pf.Limit != nil && *pf.Limit > 0 {
		end = clamp(start+*pf.Limit, start, len(filtered))
	}

	return filtered[start:end], len(filtered), nil
}

// Create adds a new product to the repository.
func (r *InMemoryProductRepository) Create(_ context.Context, product models.Product) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.nameTaken(product.Name, 0) {
		return models.Product{}, ErrDuplicatedValueUnique
	}
	product.ID = r.nextID
	r.nextID++
	r.products = append(r.products, product)
	return product, nil
}

// GetAll retrieves all products from the repository.
func (r *InMemoryProductRepository) GetAll(_ context.Context) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Product, len(r.products))
	copy(out, r.products)
	return out, nil
}

// GetByID retrieves a product by its ID.
func (r *InMemoryProductRepository) GetByID(_ context.Context, id int) (models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexOf(id); i >= 0 {
		return r.products[i], nil
	}
	return models.Product{}, ErrProductNotFound
}

// GetByName returns the live product called name. Soft-deleted products are skipped.
func (r *InMemoryProductRepository) GetByName(_ context.Context, name string) (models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.products {
		if p.Name == name && p.DateDeleted == nil {
			return p, nil
		}
	}
	return models.Product{}, ErrProductNotFound
}

// nameTaken reports whether a live product other than except already uses name.
func (r *InMemoryProductRepository) nameTaken(name string, except int) bool {
	for _, p := range r.products {
		if p.ID != except && p.DateDeleted == nil && p.Name == name {
			return true
		}
	}
	return false
}

// Update modifies the editable fields of an existing product. Lifecycle fields are kept.
func (r *InMemoryProductRepository) Update(_ context.Context, product models.Product) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(product.ID)
	if i < 0 {
		return models.Product{}, ErrProductNotFound
	}
	current := r.products[i]
	if current.DateDeleted == nil && r.nameTaken(product.Name, product.ID) {
		return models.Product{}, ErrDuplicatedValueUnique
	}

	if product.Stock > current.Stock {
		now := time.Now().UTC()
		current.LastRestocked = &now
	}
	current.Name = product.Name
	current.Price = product.Price
	current.Stock = product.Stock
	current.Threshold = product.Threshold
	current.Category = product.Category
	current.ReorderLeadTime = product.ReorderLeadTime
	current.SafetyStock = product.SafetyStock
	r.products[i] = current
	return current, nil
}

// Delete soft-deletes a product; the row and its sales stay in place.
func (r *InMemoryProductRepository) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return ErrProductNotFound
	}
	if r.products[i].DateDeleted == nil {
		now := time.Now().UTC()
		r.products[i].DateDeleted = &now
	}
	return nil
}

func (r *InMemoryProductRepository) Blacklist(_ context.Context, id int) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return models.Product{}, ErrProductNotFound
	}
	if !r.products[i].IsBlacklisted {
		now := time.Now().UTC()
		r.products[i].IsBlacklisted = true
		r.products[i].DateBlacklisted = &now
	}
	return r.products[i], nil
}

// SetStock overwrites stock and/or threshold of an active product.
func (r *InMemoryProductRepository) SetStock(_ context.Context, id int, stock, threshold *int) (models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return models.Product{}, ErrProductNotFound
	}
	p := r.products[i]
	if !p.Active() {
		return models.Product{}, ErrInactiveProduct
	}
	if stock != nil {
		if *stock > p.Stock {
			now := time.Now().UTC()
			p.LastRestocked = &now
		}
		p.Stock = *stock
	}
	if threshold != nil {
		p.Threshold = *threshold
	}
	r.products[i] = p
	return p, nil
}

// Put inserts or replaces a product as given, keeping its ID. Used to seed fixtures.
func (r *InMemoryProductRepository) Put(product models.Product) models.Product {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == 0 {
		product.ID = r.nextID
	}
	if product.ID >= r.nextID {
		r.nextID = product.ID + 1
	}
	if i := r.indexOf(product.ID); i >= 0 {
		r.products[i] = product
		return product
	}
	r.products = append(r.products, product)
	return product
}

func (r *InMemoryProductRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.products = []models.Product{}
	r.nextID = 1
}

// decrementStock applies sold quantities under the repository lock. Every line is
// checked before anything changes so a cart is all-or-nothing.
func (r *InMemoryProductRepository) decrementStock(lines []SaleLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	remaining := map[int]int{}
	for _, l := range lines {
		if l.Quantity <= 0 {
			return ErrInvalidQuantity
		}
		i := r.indexOf(l.ProductID)
		if i < 0 {
			return productErr(l.ProductID, ErrProductNotFound)
		}
		p := r.products[i]
		if !p.Active() {
			return productErr(l.ProductID, ErrInactiveProduct)
		}
		left, seen := remaining[p.ID]
		if !seen {
			left = p.Stock
		}
		if left < l.Quantity {
			return productErr(l.ProductID, ErrInsufficientStock)
		}
		remaining[p.ID] = left - l.Quantity
	}

	for id, stock := range remaining {
		r.products[r.indexOf(id)].Stock = stock
	}
	return nil
}

func (r *InMemoryProductRepository) indexOf(id int) int {
	for i, p := range r.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}
