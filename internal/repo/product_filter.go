package repo

type ProductFilter struct {
	Name     string
	Category string
	MinPrice *float64
	MaxPrice *float64
	MinStock *int
	MaxStock *int
	Offset   *int
	Limit    *int
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
