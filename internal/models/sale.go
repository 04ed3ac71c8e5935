package models

import "time"

// Sale is an immutable record of units of one product sold at a point in time.
type Sale struct {
	ID        int       `json:"id"`
	ProductID int       `json:"product_id"`
	Quantity  int       `json:"quantity"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// SaleBucket counts sale transactions for one UTC calendar date and hour of day.
type SaleBucket struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Hour  int    `json:"hour"`
	Count int    `json:"count"`
}

// DateLayout is the calendar date format used by buckets and trend series.
const DateLayout = "2006-01-02"

// DailyQuantity is the number of units sold on one UTC calendar date.
type DailyQuantity struct {
	Date     string `json:"date"`
	Quantity int    `json:"sales"`
}
