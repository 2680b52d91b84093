package domain

// Границы пагинации
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Page описывает запрошенную страницу выборки
type Page struct {
	Page  int
	Limit int
}

// NewPage создает страницу, приводя значения к допустимым границам
func NewPage(page, limit int) Page {
	if page < 1 {
		page = DefaultPage
	}
	switch {
	case limit < 1:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	return Page{Page: page, Limit: limit}
}

// Offset возвращает смещение для SQL запроса
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pagination описывает страницу в ответе API
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// PageResult представляет одну страницу списка
type PageResult[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// NewPageResult собирает ответ со списком и метаданными пагинации
func NewPageResult[T any](items []T, p Page, total int) *PageResult[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if p.Limit > 0 {
		totalPages = (total + p.Limit - 1) / p.Limit
	}
	return &PageResult[T]{
		Data: items,
		Pagination: Pagination{
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}
}

// ListFilter содержит общие фильтры списков
type ListFilter struct {
	Search string
	Status string
	Page   Page
}
