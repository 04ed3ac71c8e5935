package repo

import (
	"fmt"
	"time"
)

// SaleFilter narrows a product's sale listing. Since and Until are inclusive.
type SaleFilter struct {
	Since  *time.Time
	Until  *time.Time
	Offset *int
	Limit  *int
}

// SaleWindow bounds aggregate queries to [Since, Until). A zero bound is open.
type SaleWindow struct {
	Since time.Time
	Until time.Time
}

// Contains reports whether ts falls inside the window.
func (w SaleWindow) Contains(ts time.Time) bool {
	if !w.Since.IsZero() && ts.Before(w.Since) {
		return false
	}
	if !w.Until.IsZero() && !ts.Before(w.Until) {
		return false
	}
	return true
}

// SaleLine is one cart entry of a sale.
type SaleLine struct {
	ProductID int
	Quantity  int
	Price     float64
}

func productErr(id int, err error) error {
	return fmt.Errorf("product %d: %w", id, err)
}
