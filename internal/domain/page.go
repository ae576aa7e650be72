package domain

import (
	"fmt"
	"strings"
)

const (
	// DefaultPageSize applies when the caller does not ask for a size.
	DefaultPageSize = 20
	// MaxPageSize caps the page size.
	MaxPageSize = 100
)

// SortOrder orders a listing by a single field.
type SortOrder struct {
	Field string
	Desc  bool
}

// PageRequest selects one page of a listing. Page is zero-based.
type PageRequest struct {
	Page int
	Size int
	Sort []SortOrder
}

// Normalize clamps page and size into range.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset returns the number of rows to skip.
func (p PageRequest) Offset() int {
	n := p.Normalize()
	return n.Page * n.Size
}

// ParseSort reads "field,asc" / "field,desc" values as produced by list query strings.
func ParseSort(values []string) ([]SortOrder, error) {
	out := make([]SortOrder, 0, len(values))
	for _, raw := range values {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		parts := strings.Split(raw, ",")
		order := SortOrder{Field: strings.TrimSpace(parts[0])}
		if order.Field == "" {
			return nil, fmt.Errorf("%w: empty sort field", ErrValidation)
		}
		if len(parts) > 1 {
			switch strings.ToLower(strings.TrimSpace(parts[1])) {
			case "asc", "":
			case "desc":
				order.Desc = true
			default:
				return nil, fmt.Errorf("%w: invalid sort direction %q", ErrValidation, parts[1])
			}
		}
		out = append(out, order)
	}
	return out, nil
}

// Page is one page of results plus the total row count of the listing.
type Page[T any] struct {
	Items []T
	Total int64
	Page  int
	Size  int
}

// MapPage converts the items of a page, keeping paging metadata.
func MapPage[T, R any](p Page[T], fn func(T) (R, error)) (Page[R], error) {
	out := Page[R]{Items: make([]R, 0, len(p.Items)), Total: p.Total, Page: p.Page, Size: p.Size}
	for _, item := range p.Items {
		mapped, err := fn(item)
		if err != nil {
			return Page[R]{}, err
		}
		out.Items = append(out.Items, mapped)
	}
	return out, nil
}
