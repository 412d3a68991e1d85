package domain

// PaginatedResult wraps a page of items with the paging metadata the
// list endpoints return.
type PaginatedResult[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

// NewPaginatedResult builds a PaginatedResult for one page of items.
func NewPaginatedResult[T any](items []T, total int64, page, limit int) PaginatedResult[T] {
	return PaginatedResult[T]{
		Items: items,
		Total: total,
		Page:  page,
		Limit: limit,
	}
}

// CurrencyINR is the fixed display currency for prices. Prices are
// stored as integer paise; currency is a presentation concern only.
const CurrencyINR = "INR"
