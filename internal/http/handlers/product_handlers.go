package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rogerio-castellano/restock-analytics/internal/logging"
	"github.com/rogerio-castellano/restock-analytics/internal/models"
	"github.com/rogerio-castellano/restock-analytics/internal/repo"
)

// CreateProductHandler godoc
// @Summary Create a new product
// @Description Adds a product to the inventory
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param product body ProductRequest true "Product to add"
// @Success 201 {object} ProductResponse
// @Failure 400 {array} ValidationError
// @Failure 409 {string} string "Duplicated name"
// @Router /products [post]
func CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)

	if errs := validateRequest(req); len(errs) > 0 {
		respond(w, r, http.StatusBadRequest, errs)
		return
	}

	now := time.Now().UTC()
	product := models.Product{
		Name:            req.Name,
		Price:           req.Price,
		Stock:           req.Stock,
		Threshold:       req.Threshold,
		Category:        strings.TrimSpace(req.Category),
		ReorderLeadTime: valueOr(req.ReorderLeadTime, models.DefaultReorderLeadTime),
		SafetyStock:     valueOr(req.SafetyStock, models.DefaultSafetyStock),
		DateAdded:       now,
		LastRestocked:   &now,
	}
	created, err := productRepo.Create(r.Context(), product)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicatedValueUnique) {
			http.Error(w, "could not create product: product name duplicated", http.StatusConflict)
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("could not create product")
		http.Error(w, "could not create product", http.StatusInternalServerError)
		return
	}

	respond(w, r, http.StatusCreated, toProductResponse(created))
}

func valueOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

// GetProductsHandler godoc
// @Summary List all products
// @Tags products
// @Produce json
// @Success 200 {array} ProductResponse
// @Failure 500 {string} string "Internal error"
// @Router /products [get]
func GetProductsHandler(w http.ResponseWriter, r *http.Request) {
	products, err := productRepo.GetAll(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("could not fetch products")
		http.Error(w, "could not fetch products", http.StatusInternalServerError)
		return
	}
	response := make([]ProductResponse, len(products))
	for i, p := range products {
		response[i] = toProductResponse(p)
	}
	respond(w, r, http.StatusOK, response)
}

// GetProductByIDHandler godoc
// @Summary Get product by ID
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} ProductResponse
// @Failure 400 {string} string "Invalid ID"
// @Failure 404 {string} string "Not found"
// @Failure 500 {string} string "Internal error"
// @Router /products/{id} [get]
func GetProductByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "invalid product ID", http.StatusBadRequest)
		return
	}

	product, err := productRepo.GetByID(r.Context(), id)
	if err != nil {
		writeProductError(w, r, err, "could not fetch product")
		return
	}
	respond(w, r, http.StatusOK, toProductResponse(product))
}

// DeleteProductHandler godoc
// @Summary Soft delete a product
// @Description Marks the product deleted. Its sales history is kept.
// @Tags products
// @Param id path int true "Product ID"
// @Success 204 "Deleted successfully"
// @Failure 400 {string} string "Invalid ID"
// @Failure 404 {string} string "Not found"
// @Failure 500 {string} string "Internal error"
// @Router /products/{id} [delete]
// @Security BearerAuth
func DeleteProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "invalid product ID", http.StatusBadRequest)
		return
	}
	if err := productRepo.Delete(r.Context(), id); err != nil {
		writeProductError(w, r, err, "could not delete product")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BlacklistProductHandler godoc
// @Summary Blacklist a product
// @Description Stops selling the product and removes it from forward-looking reports.
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} ProductResponse
// @Failure 400 {string} string "Invalid ID"
// @Failure 404 {string} string "Not found"
// @Router /products/{id}/blacklist [patch]
// @Security BearerAuth
func BlacklistProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "invalid product ID", http.StatusBadRequest)
		return
	}
	product, err := productRepo.Blacklist(r.Context(), id)
	if err != nil {
		writeProductError(w, r, err, "could not blacklist product")
		return
	}
	respond(w, r, http.StatusOK, toProductResponse(product))
}

// UpdateProductHandler godoc
// @Summary Update a product
// @Tags products
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param product body ProductRequest true "Updated product"
// @Success 200 {object} ProductResponse
// @Failure 400 {array} ValidationError
// @Failure 404 {string} string "Not found"
// @Failure 500 {string} string "Internal error"
// @Router /products/{id} [put]
// @Security BearerAuth
func UpdateProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "invalid product ID", http.StatusBadRequest)
		return
	}

	var req ProductRequest
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)

	if errs := validateRequest(req); len(errs) > 0 {
		respond(w, r, http.StatusBadRequest, errs)
		return
	}

	current, err := productRepo.GetByID(r.Context(), id)
	if err != nil {
		writeProductError(w, r, err, "could not update product")
		return
	}

	product := models.Product{
		ID:              id,
		Name:            req.Name,
		Price:           req.Price,
		Stock:           req.Stock,
		Threshold:       req.Threshold,
		Category:        strings.TrimSpace(req.Category),
		ReorderLeadTime: valueOr(req.ReorderLeadTime, current.ReorderLeadTime),
		SafetyStock:     valueOr(req.SafetyStock, current.SafetyStock),
	}
	updated, err := productRepo.Update(r.Context(), product)
	if err != nil {
		writeProductError(w, r, err, "could not update product")
		return
	}

	warnIfLowStock(r, updated)
	respond(w, r, http.StatusOK, toProductResponse(updated))
}

// UpdateStockHandler godoc
// @Summary Set stock and/or threshold of a product
// @Tags inventory
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param stock body StockUpdateRequest true "New stock and/or threshold"
// @Success 200 {object} ProductResponse
// @Failure 400 {array} ValidationError
// @Failure 403 {string} string "Product is blacklisted or deleted"
// @Failure 404 {string} string "Not found"
// @Router /stock/{id} [put]
// @Security BearerAuth
func UpdateStockHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "invalid product ID", http.StatusBadRequest)
		return
	}

	var req StockUpdateRequest
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}
	errs := validateRequest(req)
	if req.Stock == nil && req.Threshold == nil {
		errs = append(errs, ValidationError{Field: "stock", Description: "stock or threshold is required"})
	}
	if len(errs) > 0 {
		respond(w, r, http.StatusBadRequest, errs)
		return
	}

	product, err := productRepo.SetStock(r.Context(), id, req.Stock, req.Threshold)
	if err != nil {
		writeProductError(w, r, err, "could not update stock")
		return
	}

	recordStockAudit(r, models.AuditStockUpdate, product)
	warnIfLowStock(r, product)
	respond(w, r, http.StatusOK, toProductResponse(product))
}

// BatchUpdateStockHandler godoc
// @Summary Set stock and/or threshold of several products
// @Description Missing, blacklisted or deleted products are skipped and reported
// @Tags inventory
// @Accept json
// @Produce json
// @Param items body []BatchStockItem true "Products to update"
// @Success 200 {object} BatchStockResult
// @Failure 400 {array} ValidationError
// @Router /stock/batch [put]
// @Security BearerAuth
func BatchUpdateStockHandler(w http.ResponseWriter, r *http.Request) {
	var items []BatchStockItem
	if err := readJSON(w, r, &items); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}
	if errs := validateRequest(batchStockRequest{Items: items}); len(errs) > 0 {
		respond(w, r, http.StatusBadRequest, errs)
		return
	}

	result := BatchStockResult{Updated: []ProductResponse{}, Skipped: []BatchSkip{}}
	for _, item := range items {
		if item.Stock == nil && item.Threshold == nil {
			result.Skipped = append(result.Skipped, BatchSkip{ID: item.ID, Reason: "stock or threshold is required"})
			continue
		}
		product, err := productRepo.SetStock(r.Context(), item.ID, item.Stock, item.Threshold)
		switch {
		case errors.Is(err, repo.ErrProductNotFound), errors.Is(err, repo.ErrInactiveProduct):
			result.Skipped = append(result.Skipped, BatchSkip{ID: item.ID, Reason: err.Error()})
			continue
		case err != nil:
			logging.Ctx(r.Context()).Error().Err(err).Int("product_id", item.ID).Msg("could not update stock")
			result.Skipped = append(result.Skipped, BatchSkip{ID: item.ID, Reason: "could not update stock"})
			continue
		}

		recordStockAudit(r, models.AuditBatchStockUpdate, product)
		warnIfLowStock(r, product)
		result.Updated = append(result.Updated, toProductResponse(product))
	}

	result.Message = fmt.Sprintf("%d product(s) updated successfully", len(result.Updated))
	respond(w, r, http.StatusOK, result)
}

// FilterProductsHandler godoc
// @Summary Filter and paginate products
// @Tags products
// @Produce json
// @Param name query string false "Filter by name"
// @Param category query string false "Filter by category"
// @Param minPrice query number false "Minimum price"
// @Param maxPrice query number false "Maximum price"
// @Param minStock query int false "Minimum stock"
// @Param maxStock query int false "Maximum stock"
// @Param offset query int false "Offset for pagination"
// @Param limit query int false "Limit for pagination"
// @Success 200 {object} ProductsSearchResult
// @Failure 400 {string} string "Invalid query"
// @Failure 500 {string} string "Internal error"
// @Router /products/search [get]
func FilterProductsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := repo.ProductFilter{
		Name:     q.Get("name"),
		Category: q.Get("category"),
		MinPrice: parseFloatPtr(q.Get("minPrice")),
		MaxPrice: parseFloatPtr(q.Get("maxPrice")),
		MinStock: parseIntPtr(q.Get("minStock")),
		MaxStock: parseIntPtr(q.Get("maxStock")),
		Offset:   parseIntPtr(q.Get("offset")),
		Limit:    parseIntPtr(q.Get("limit")),
	}

	if filter.Limit != nil && *filter.Limit <= 0 {
		http.Error(w, "limit must be greater than zero", http.StatusBadRequest)
		return
	}
	if filter.Offset != nil && *filter.Offset < 0 {
		http.Error(w, "offset must be zero or positive", http.StatusBadRequest)
		return
	}

	products, total, err := productRepo.Filter(r.Context(), filter)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("could not filter products")
		http.Error(w, "could not filter products", http.StatusInternalServerError)
		return
	}

	resp := ProductsSearchResult{
		Data: make([]ProductResponse, len(products)),
		Meta: Meta{TotalCount: total},
	}
	for i, p := range products {
		resp.Data[i] = toProductResponse(p)
	}
	respond(w, r, http.StatusOK, resp)
}

func writeProductError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, repo.ErrProductNotFound):
		http.Error(w, "product not found", http.StatusNotFound)
	case errors.Is(err, repo.ErrInactiveProduct):
		http.Error(w, "product is blacklisted or deleted", http.StatusForbidden)
	case errors.Is(err, repo.ErrInsufficientStock):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, repo.ErrInvalidQuantity):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, repo.ErrDuplicatedValueUnique):
		http.Error(w, "product name duplicated", http.StatusConflict)
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg(msg)
		http.Error(w, msg, http.StatusInternalServerError)
	}
}

func warnIfLowStock(r *http.Request, p models.Product) {
	if p.Active() && p.LowStock() {
		logging.Ctx(r.Context()).Warn().
			Int("product_id", p.ID).
			Str("product", p.Name).
			Int("stock", p.Stock).
			Int("threshold", p.Threshold).
			Msg("product at or below threshold")
	}
}
