package domain

// Page sizes for the admin user list.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PaginationParams selects one 1-indexed page of a list.
type PaginationParams struct {
	Page  int
	Limit int
}

// NewPaginationParams reads the optional page and limit query values. Missing
// or non-positive values take the defaults and limit is clamped to MaxPageSize.
func NewPaginationParams(page, limit *int) PaginationParams {
	return PaginationParams{
		Page:  positiveOr(page, 1),
		Limit: min(positiveOr(limit, DefaultPageSize), MaxPageSize),
	}
}

func positiveOr(v *int, fallback int) int {
	if v == nil || *v < 1 {
		return fallback
	}
	return *v
}

// Offset is the number of rows before the page.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.Limit
}
