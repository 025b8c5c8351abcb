package domain

import "math"

const (
	DefaultPage     = 0
	DefaultPageSize = 10
	MaxPageSize     = 2000
)

type PageRequest struct {
	Page int
	Size int
}

func DefaultPageRequest() PageRequest {
	return PageRequest{Page: DefaultPage, Size: DefaultPageSize}
}

// OffsetOverflows reports whether Page*Size does not fit in an int.
func (p PageRequest) OffsetOverflows() bool {
	return p.Size > 0 && p.Page > math.MaxInt/p.Size
}

// Offset is the number of items before the page. Negative inputs give 0 and
// an overflowing product saturates at math.MaxInt.
func (p PageRequest) Offset() int {
	if p.Page <= 0 || p.Size <= 0 {
		return 0
	}
	if p.OffsetOverflows() {
		return math.MaxInt
	}
	return p.Page * p.Size
}

type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"total_elements"`
	TotalPages    int   `json:"total_pages"`
}

func NewPage[T any](content []T, req PageRequest, total int64) *Page[T] {
	if content == nil {
		content = []T{}
	}
	totalPages := 0
	if req.Size > 0 {
		totalPages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return &Page[T]{
		Content:       content,
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    totalPages,
	}
}
