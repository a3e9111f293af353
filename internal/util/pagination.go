package util

const DefaultPageSize = 10

const MaxPageSize = 100

// Calculate clamps page/limit and returns the SQL offset.
func Calculate(page, limit int) (offset, size int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return (page - 1) * limit, limit
}

type Meta struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	Pages   int64 `json:"pages"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
}

type Page struct {
	Items any  `json:"items"`
	Meta  Meta `json:"meta"`
}

func NewPage(items any, page, limit int, total int64) Page {
	pages := (total + int64(limit) - 1) / int64(limit)
	return Page{
		Items: items,
		Meta: Meta{
			Page:    page,
			Limit:   limit,
			Total:   total,
			Pages:   pages,
			HasNext: int64(page) < pages,
			HasPrev: page > 1,
		},
	}
}
