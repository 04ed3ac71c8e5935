package handlers

import (
	"errors"
	"net/http"

	"github.com/sony/gobreaker/v2"

	"github.com/rogerio-castellano/restock-analytics/internal/logging"
	"github.com/rogerio-castellano/restock-analytics/internal/metrics"
	"github.com/rogerio-castellano/restock-analytics/internal/models"
	"github.com/rogerio-castellano/restock-analytics/internal/repo"
)

// CreateSaleHandler godoc
// @Summary Record a sale
// @Description Sells every cart line atomically: all lines are checked before stock is decremented.
// @Tags sales
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sale body SaleRequest true "Cart"
// @Success 201 {object} SaleResult
// @Failure 400 {array} ValidationError
// @Failure 403 {string} string "Product is blacklisted or deleted"
// @Failure 404 {string} string "Product not found"
// @Failure 409 {string} string "Insufficient stock"
// @Failure 503 {string} string "Sales store unavailable"
// @Router /sales [post]
func CreateSaleHandler(w http.ResponseWriter, r *http.Request) {
	var req SaleRequest
	if err := readJSON(w, r, &req); err != nil {
		http.Error(w, "invalid input", http.StatusBadRequest)
		return
	}
	if errs := validateRequest(req); len(errs) > 0 {
		respond(w, r, http.StatusBadRequest, errs)
		return
	}

	lines := make([]repo.SaleLine, len(req.Cart))
	for i, item := range req.Cart {
		lines[i] = repo.SaleLine{ProductID: item.ID, Quantity: item.Quantity, Price: item.Price}
	}

	sales, err := saleRepo.RecordCart(r.Context(), lines)
	if err != nil {
		if isBreakerOpen(err) {
			http.Error(w, "sales store unavailable", http.StatusServiceUnavailable)
			return
		}
		writeProductError(w, r, err, "could not record sale")
		return
	}

	resp := SaleResult{Message: "sale recorded", Sales: make([]SaleResponse, len(sales))}
	units := 0
	for i, s := range sales {
		resp.Sales[i] = toSaleResponse(s)
		units += s.Quantity
	}
	metrics.SalesRecorded.Add(float64(units))
	logging.Ctx(r.Context()).Info().Int("lines", len(sales)).Int("units", units).Msg("sale recorded")

	for _, id := range soldProductIDs(sales) {
		if p, err := productRepo.GetByID(r.Context(), id); err == nil {
			warnIfLowStock(r, p)
		}
	}

	respond(w, r, http.StatusCreated, resp)
}

// GetSalesHandler godoc
// @Summary Get the sales of a product
// @Tags sales
// @Produce json
// @Param id path int true "Product ID"
// @Param since query string false "Filter sales from this timestamp (RFC3339)"
// @Param until query string false "Filter sales until this timestamp (RFC3339)"
// @Param offset query int false "Offset for pagination"
// @Param limit query int false "Limit for pagination"
// @Success 200 {object} SalesSearchResult
// @Failure 400 {string} string "Invalid input"
// @Failure 404 {string} string "Product not found"
// @Failure 500 {string} string "Internal error"
// @Router /products/{id}/sales [get]
func GetSalesHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "invalid product ID", http.StatusBadRequest)
		return
	}

	if _, err := productRepo.GetByID(r.Context(), id); err != nil {
		writeProductError(w, r, err, "could not fetch product")
		return
	}

	q := r.URL.Query()
	since, err := parseTimeParam(q.Get("since"))
	if err != nil {
		http.Error(w, "invalid since date format", http.StatusBadRequest)
		return
	}
	until, err := parseTimeParam(q.Get("until"))
	if err != nil {
		http.Error(w, "invalid until date format", http.StatusBadRequest)
		return
	}

	filter := repo.SaleFilter{
		Since:  since,
		Until:  until,
		Offset: parseIntPtr(q.Get("offset")),
		Limit:  parseIntPtr(q.Get("limit")),
	}
	if filter.Limit != nil && *filter.Limit <= 0 {
		http.Error(w, "limit must be greater than zero", http.StatusBadRequest)
		return
	}
	if filter.Offset != nil && *filter.Offset < 0 {
		http.Error(w, "offset must be zero or positive", http.StatusBadRequest)
		return
	}

	sales, total, err := saleRepo.GetByProductID(r.Context(), id, filter)
	if err != nil {
		if isBreakerOpen(err) {
			http.Error(w, "sales store unavailable", http.StatusServiceUnavailable)
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Int("product_id", id).Msg("could not fetch sales")
		http.Error(w, "could not fetch sales", http.StatusInternalServerError)
		return
	}

	resp := SalesSearchResult{
		Data: make([]SaleResponse, len(sales)),
		Meta: Meta{TotalCount: total},
	}
	for i, s := range sales {
		resp.Data[i] = toSaleResponse(s)
	}
	respond(w, r, http.StatusOK, resp)
}

func soldProductIDs(sales []models.Sale) []int {
	seen := map[int]bool{}
	ids := []int{}
	for _, s := range sales {
		if !seen[s.ProductID] {
			seen[s.ProductID] = true
			ids = append(ids, s.ProductID)
		}
	}
	return ids
}

func isBreakerOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
