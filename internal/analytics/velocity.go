package analytics

import "context"

// Velocity returns units sold per product in [asOf - windowDays, asOf).
// Products without sales in the window are absent.
func (e *Engine) Velocity(ctx context.Context, windowDays int) (map[int]int, error) {
	if err := e.validateWindow("windowDays", windowDays); err != nil {
		return nil, err
	}
	return e.velocity(ctx, windowDays)
}

func (e *Engine) velocity(ctx context.Context, windowDays int) (map[int]int, error) {
	sold, err := e.sales.QuantityByProduct(ctx, trailing(e.asOf(), windowDays))
	if err != nil {
		return nil, unavailable("velocity", err)
	}
	return sold, nil
}
