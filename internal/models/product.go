package models

import "time"

// Product represents a product entity in the inventory system.
type Product struct {
	ID              int        `json:"id"`
	Name            string     `json:"name"`
	Price           float64    `json:"price"`
	Stock           int        `json:"stock"`
	Threshold       int        `json:"threshold"`
	Category        string     `json:"category,omitempty"`
	ReorderLeadTime int        `json:"reorder_lead_time"`
	SafetyStock     int        `json:"safety_stock"`
	IsBlacklisted   bool       `json:"is_blacklisted"`
	LastRestocked   *time.Time `json:"last_restocked,omitempty"`
	DateAdded       time.Time  `json:"date_added"`
	DateBlacklisted *time.Time `json:"date_blacklisted,omitempty"`
	DateDeleted     *time.Time `json:"date_deleted,omitempty"`
}

const (
	DefaultReorderLeadTime = 3
	DefaultSafetyStock     = 10
)

// Active reports whether the product is still sold: neither blacklisted nor soft-deleted.
func (p Product) Active() bool {
	return !p.IsBlacklisted && p.DateDeleted == nil
}

// LowStock reports whether stock sits at or under the reorder threshold.
func (p Product) LowStock() bool {
	return p.Stock <= p.Threshold
}
