package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	token, err := EncodeCursor(Cursor{ID: "42", CreatedAt: "2026-01-02T03:04:05Z"})
	require.NoError(t, err)

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "42", cursor.ID)
	assert.Equal(t, "2026-01-02T03:04:05Z", cursor.CreatedAt)
}

func TestBuildCursorPage(t *testing.T) {
	a, b, c := 1, 2, 3
	page, info := BuildCursorPage([]*int{&a, &b, &c}, 2, func(v *int) string {
		if *v == 2 {
			return "two"
		}
		return "other"
	})
	assert.Len(t, page, 2)
	assert.True(t, info.HasMore)
	assert.Equal(t, "two", info.NextPageToken)

	page, info = BuildCursorPage([]*int{&a}, 2, func(*int) string { return "x" })
	assert.Len(t, page, 1)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)
}

func TestLimitClamps(t *testing.T) {
	assert.Equal(t, DefaultPageSize, Pagination{}.Limit())
	assert.Equal(t, MaxPageSize, Pagination{PageSize: 10000}.Limit())
	assert.Equal(t, 7, Pagination{PageSize: 7}.Limit())
}
