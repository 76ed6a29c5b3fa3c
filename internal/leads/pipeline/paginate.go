package pipeline

import "lead-workers/internal/models"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Page struct {
	Items      []models.Lead `json:"items"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalPages int           `json:"totalPages"`
}

// Paginate slices a 1-based page out of leads. Out-of-range values are
// clamped: page to at least 1, size to [1, MaxPageSize] with 0 meaning
// DefaultPageSize.
func Paginate(leads []models.Lead, page, size int) Page {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	total := len(leads)
	totalPages := (total + size - 1) / size

	start := total
	if page-1 < totalPages {
		start = (page - 1) * size
	}
	end := start + size
	if end > total {
		end = total
	}

	items := make([]models.Lead, end-start)
	copy(items, leads[start:end])

	return Page{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages,
	}
}
