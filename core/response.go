package core

type ResponseBase[T any] struct {
	Status  string `json:"status"`
	Content T      `json:"content"`
	Error   string `json:"error,omitempty"`
}

// Page is a paginated list response. Pages are 1-based on the API surface
// and translated to a zero-based row range in the repository.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Count      int64 `json:"count"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
}

func NewPage[T any](items []T, count int64, page, pageSize int) Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := int((count + int64(pageSize) - 1) / int64(pageSize))
	return Page[T]{
		Items:      items,
		Count:      count,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
