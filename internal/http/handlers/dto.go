package handlers

import (
	"time"

	"github.com/rogerio-castellano/restock-analytics/internal/models"
)

type ProductRequest struct {
	Name            string  `json:"name" validate:"required,max=200"`
	Price           float64 `json:"price" validate:"gt=0"`
	Stock           int     `json:"stock" validate:"gte=0"`
	Threshold       int     `json:"threshold" validate:"gte=0"`
	Category        string  `json:"category,omitempty" validate:"max=100"`
	ReorderLeadTime *int    `json:"reorder_lead_time,omitempty" validate:"omitempty,gte=0"`
	SafetyStock     *int    `json:"safety_stock,omitempty" validate:"omitempty,gte=0"`
}

type ProductResponse struct {
	models.Product
	LowStock bool `json:"low_stock"`
}

func toProductResponse(p models.Product) ProductResponse {
	return ProductResponse{Product: p, LowStock: p.LowStock()}
}

type Meta struct {
	TotalCount int `json:"total_count"`
}

type ProductsSearchResult struct {
	Data []ProductResponse `json:"data"`
	Meta Meta              `json:"meta,omitempty"`
}

// StockUpdateRequest sets stock, threshold or both.
type StockUpdateRequest struct {
	Stock     *int `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Threshold *int `json:"threshold,omitempty" validate:"omitempty,gte=0"`
}

type SaleLineRequest struct {
	ID       int     `json:"id" validate:"required,gt=0"`
	Quantity int     `json:"quantity" validate:"gt=0"`
	Price    float64 `json:"price" validate:"gte=0"`
}

type SaleRequest struct {
	Cart []SaleLineRequest `json:"cart" validate:"required,min=1,dive"`
}

type SaleResponse struct {
	ID        int     `json:"id"`
	ProductID int     `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Timestamp string  `json:"timestamp"`
}

func toSaleResponse(s models.Sale) SaleResponse {
	return SaleResponse{
		ID:        s.ID,
		ProductID: s.ProductID,
		Quantity:  s.Quantity,
		Price:     s.Price,
		Timestamp: formatTime(s.Timestamp),
	}
}

type SaleResult struct {
	Message string         `json:"message"`
	Sales   []SaleResponse `json:"sales"`
}

type SalesSearchResult struct {
	Data []SaleResponse `json:"data"`
	Meta Meta           `json:"meta,omitempty"`
}

type CredentialsRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type RegisterAsAdminRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role" validate:"required,oneof=admin cashier"`
}

type UserLogin struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token string `json:"token"`
}

type RegisterResult struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type MessageResult struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of failed analytics requests.
type ErrorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
}

// BatchStockItem sets stock, threshold or both on one product.
type BatchStockItem struct {
	ID        int  `json:"id" validate:"required,gt=0"`
	Stock     *int `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Threshold *int `json:"threshold,omitempty" validate:"omitempty,gte=0"`
}

type batchStockRequest struct {
	Items []BatchStockItem `json:"items" validate:"required,min=1,dive"`
}

type BatchSkip struct {
	ID     int    `json:"id"`
	Reason string `json:"reason"`
}

type BatchStockResult struct {
	Message string            `json:"message"`
	Updated []ProductResponse `json:"updated"`
	Skipped []BatchSkip       `json:"skipped"`
}

type AuditLogResponse struct {
	ID        int       `json:"id"`
	User      string    `json:"user"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

type AuditLogsResult struct {
	Data []AuditLogResponse `json:"data"`
	Meta Meta               `json:"meta,omitempty"`
}
