package memory

import (
	"cmp"
	"fmt"
	"slices"

	"example.com/meetup/internal/domain"
)

// comparators maps a sortable field name to an ordering on T.
type comparators[T any] map[string]func(a, b T) int

// collect returns the values of m accepted by keep, ordered by id.
func collect[T any](m map[int64]T, keep func(T) bool) []T {
	ids := make([]int64, 0, len(m))
	for id, v := range m {
		if keep == nil || keep(v) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

// paginate sorts items (already in id order) and cuts one page out of them.
func paginate[T any](items []T, req domain.PageRequest, by comparators[T]) (domain.Page[T], error) {
	req = req.Normalize()
	if len(req.Sort) > 0 {
		orders := make([]func(a, b T) int, 0, len(req.Sort))
		for _, o := range req.Sort {
			fn, ok := by[o.Field]
			if !ok {
				return domain.Page[T]{}, fmt.Errorf("%w: cannot sort by %q", domain.ErrValidation, o.Field)
			}
			if o.Desc {
				asc := fn
				fn = func(a, b T) int { return asc(b, a) }
			}
			orders = append(orders, fn)
		}
		slices.SortStableFunc(items, func(a, b T) int {
			for _, fn := range orders {
				if c := fn(a, b); c != 0 {
					return c
				}
			}
			return 0
		})
	}

	page := domain.Page[T]{Items: []T{}, Total: int64(len(items)), Page: req.Page, Size: req.Size}
	start := req.Offset()
	if start >= len(items) {
		return page, nil
	}
	end := min(start+req.Size, len(items))
	page.Items = append(page.Items, items[start:end]...)
	return page, nil
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func byID[T any](id func(T) int64) func(a, b T) int {
	return func(a, b T) int { return cmp.Compare(id(a), id(b)) }
}
