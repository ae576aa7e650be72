// Package persistence contains helpers shared by the SQL store implementations.
package persistence

import (
	"fmt"
	"strings"

	"example.com/meetup/internal/domain"
)

// Columns maps the sortable field names accepted by list endpoints to SQL expressions.
type Columns map[string]string

// OrderBy renders an ORDER BY clause for the requested sort. The id column is
// always appended as the final tiebreak. Unknown fields are a validation error.
func OrderBy(sort []domain.SortOrder, cols Columns) (string, error) {
	idCol, ok := cols["id"]
	if !ok {
		return "", fmt.Errorf("persistence: column set has no id")
	}
	parts := make([]string, 0, len(sort)+1)
	for _, o := range sort {
		col, ok := cols[o.Field]
		if !ok {
			return "", fmt.Errorf("%w: cannot sort by %q", domain.ErrValidation, o.Field)
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
	}
	parts = append(parts, idCol+" ASC")
	return "ORDER BY " + strings.Join(parts, ", "), nil
}

// LimitOffset renders the LIMIT/OFFSET clause for a page, using placeholders
// starting at $next.
func LimitOffset(page domain.PageRequest, next int) (string, []any) {
	page = page.Normalize()
	return fmt.Sprintf("LIMIT $%d OFFSET $%d", next, next+1), []any{page.Size, page.Offset()}
}
