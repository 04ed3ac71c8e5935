package analytics

import (
	"context"
	"sort"
)

type RestockRecommendation struct {
	ProductID           int    `json:"productId"`
	ProductName         string `json:"productName"`
	CurrentStock        int    `json:"currentStock"`
	SalesVelocity       int    `json:"salesVelocity"`
	RecommendedQuantity int    `json:"recommendedQuantity"`
	History             int    `json:"history"`
}

// RestockRecommendations emits one record per active product, demand over the
// window minus stock floored at zero, sorted by recommended quantity descending.
// A product without sales has velocity 0. Ties keep id order.
func (e *Engine) RestockRecommendations(ctx context.Context, windowDays int) ([]RestockRecommendation, error) {
	if err := e.validateWindow("windowDays", windowDays); err != nil {
		return nil, err
	}

	products, err := e.activeProducts(ctx, "restock recommendations")
	if err != nil {
		return nil, err
	}
	sold, err := e.velocity(ctx, windowDays)
	if err != nil {
		return nil, err
	}

	recs := make([]RestockRecommendation, 0, len(products))
	for _, p := range products {
		v := sold[p.ID]
		recs = append(recs, RestockRecommendation{
			ProductID:           p.ID,
			ProductName:         p.Name,
			CurrentStock:        p.Stock,
			SalesVelocity:       v,
			RecommendedQuantity: max(0, v-p.Stock),
			History:             v,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].RecommendedQuantity > recs[j].RecommendedQuantity
	})
	return recs, nil
}
