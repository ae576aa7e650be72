package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/meetup/internal/domain"
)

var testColumns = Columns{"id": "t.id", "title": "t.title", "date": "t.date"}

func TestOrderByDefaultsToID(t *testing.T) {
	clause, err := OrderBy(nil, testColumns)
	require.NoError(t, err)
	require.Equal(t, "ORDER BY t.id ASC", clause)
}

func TestOrderByAppendsTiebreak(t *testing.T) {
	clause, err := OrderBy([]domain.SortOrder{{Field: "date", Desc: true}, {Field: "title"}}, testColumns)
	require.NoError(t, err)
	require.Equal(t, "ORDER BY t.date DESC, t.title ASC, t.id ASC", clause)
}

func TestOrderByRejectsUnknownField(t *testing.T) {
	_, err := OrderBy([]domain.SortOrder{{Field: "title; DROP TABLE tag"}}, testColumns)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestLimitOffset(t *testing.T) {
	clause, args := LimitOffset(domain.PageRequest{Page: 3, Size: 10}, 2)
	require.Equal(t, "LIMIT $2 OFFSET $3", clause)
	require.Equal(t, []any{10, 30}, args)

	_, args = LimitOffset(domain.PageRequest{Size: 500}, 1)
	require.Equal(t, []any{domain.MaxPageSize, 0}, args)
}
