package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPageRequestNormalize(t *testing.T) {
	require.Equal(t, PageRequest{Page: 0, Size: DefaultPageSize}, PageRequest{Page: -3}.Normalize())
	require.Equal(t, PageRequest{Page: 2, Size: MaxPageSize}, PageRequest{Page: 2, Size: 1000}.Normalize())
	require.Equal(t, 40, PageRequest{Page: 2}.Offset())
}

func TestParseSort(t *testing.T) {
	orders, err := ParseSort([]string{"title,desc", " date ", "id,asc", ""})
	require.NoError(t, err)
	require.Equal(t, []SortOrder{{Field: "title", Desc: true}, {Field: "date"}, {Field: "id"}}, orders)

	_, err = ParseSort([]string{"title,sideways"})
	require.ErrorIs(t, err, ErrValidation)
	_, err = ParseSort([]string{",desc"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestFieldDistinguishesAbsentFromNull(t *testing.T) {
	var patch ActivityPatch
	require.NoError(t, json.Unmarshal([]byte(`{"description":null,"maximum":3}`), &patch))
	require.False(t, patch.Title.Present)
	require.True(t, patch.Description.Present)
	require.True(t, patch.Description.Null)
	require.Equal(t, Set(3), patch.Maximum)

	a := Activity{Title: "Hike", Description: "ridge", Maximum: 5}
	require.NoError(t, patch.Apply(&a))
	require.Equal(t, Activity{Title: "Hike", Maximum: 3}, a)
}

func TestPatchNullOnRequiredField(t *testing.T) {
	var patch MeetPatch
	require.NoError(t, json.Unmarshal([]byte(`{"is_enabled":null}`), &patch))
	m := Meet{Description: "coffee", Enabled: true}
	require.ErrorIs(t, patch.Apply(&m), ErrValidation)
}

func TestMapPage(t *testing.T) {
	in := Page[int]{Items: []int{1, 2}, Total: 7, Page: 1, Size: 2}
	out, err := MapPage(in, func(v int) (string, error) { return string(rune('a' + v)), nil })
	require.NoError(t, err)
	require.Equal(t, Page[string]{Items: []string{"b", "c"}, Total: 7, Page: 1, Size: 2}, out)
}
