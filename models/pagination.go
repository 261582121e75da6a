package models

// Page wraps a result slice with pagination metadata.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewPage computes the derived totalPages field.
func NewPage[T any](items []T, page, limit int, total int64) Page[T] {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Page[T]{Items: items, Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}
