package models

import (
	"fmt"
	"math"
	"strings"

	"github.com/dmitrijs2005/erm/internal/common"
)

// SortField is a column a page can be ordered by.
type SortField string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByName      SortField = "name"
)

// Sort is a page ordering. The record id is always the final tie-breaker.
type Sort struct {
	Field SortField
	Desc  bool
}

// DefaultSort orders by creation time, oldest first.
var DefaultSort = Sort{Field: SortByCreatedAt}

func (s Sort) String() string {
	dir := "asc"
	if s.Desc {
		dir = "desc"
	}
	return string(s.Field) + "," + dir
}

// ParseSort parses "field[,asc|desc]". An empty string yields DefaultSort.
func ParseSort(s string) (Sort, error) {
	if strings.TrimSpace(s) == "" {
		return DefaultSort, nil
	}
	field, dir, _ := strings.Cut(s, ",")

	var out Sort
	switch SortField(strings.TrimSpace(field)) {
	case SortByCreatedAt:
		out.Field = SortByCreatedAt
	case SortByName:
		out.Field = SortByName
	default:
		return Sort{}, common.NewValidationError("sort", fmt.Sprintf("unsupported field %q", field))
	}

	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "", "asc":
	case "desc":
		out.Desc = true
	default:
		return Sort{}, common.NewValidationError("sort", fmt.Sprintf("unsupported direction %q", dir))
	}
	return out, nil
}

// PageSizeConfig bounds page sizes.
type PageSizeConfig struct {
	Default int
	Max     int
}

// PageRequest selects one zero-based page.
type PageRequest struct {
	Index int
	Size  int
	Sort  Sort
}

// Normalize clamps Size into [1, cfg.Max], uses cfg.Default for zero, and
// fills the default sort. A negative Index is a validation error.
func (p PageRequest) Normalize(cfg PageSizeConfig) (PageRequest, error) {
	if p.Index < 0 {
		return p, common.NewValidationError("page", "must not be negative")
	}
	if p.Size < 0 {
		return p, common.NewValidationError("size", "must not be negative")
	}
	if p.Size == 0 {
		p.Size = cfg.Default
	}
	if cfg.Max > 0 && p.Size > cfg.Max {
		p.Size = cfg.Max
	}
	if p.Size < 1 {
		p.Size = 1
	}
	if p.Index > math.MaxInt/p.Size {
		return p, common.NewValidationError("page", "is too large")
	}
	if p.Sort.Field == "" {
		p.Sort = DefaultSort
	}
	return p, nil
}

// Bounds returns the half-open range [start, end) of this page within n
// ordered items. Out-of-range pages yield an empty range at n.
func (p PageRequest) Bounds(n int) (start, end int) {
	start = n
	if off := p.Offset(); off >= 0 && off < n {
		start = off
	}
	end = start + min(max(p.Size, 0), n-start)
	return start, end
}

// Offset is the number of rows skipped before this page.
func (p PageRequest) Offset() int {
	return p.Index * p.Size
}

// Page is one slice of an ordered listing plus its totals.
type Page[T any] struct {
	Items         []T
	Index         int
	Size          int
	TotalElements int64
	TotalPages    int
	First         bool
	Last          bool
}

// NewPage assembles a page from a slice and the total row count.
func NewPage[T any](items []T, req PageRequest, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if req.Size > 0 {
		pages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return Page[T]{
		Items:         items,
		Index:         req.Index,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    pages,
		First:         req.Index == 0,
		Last:          req.Index >= pages-1,
	}
}

// MapPage converts the items of a page, keeping its totals.
func MapPage[T, U any](p Page[T], fn func(T) U) Page[U] {
	items := make([]U, len(p.Items))
	for i, it := range p.Items {
		items[i] = fn(it)
	}
	return Page[U]{
		Items:         items,
		Index:         p.Index,
		Size:          p.Size,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
		First:         p.First,
		Last:          p.Last,
	}
}
