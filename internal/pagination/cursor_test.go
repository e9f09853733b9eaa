package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	id string
	at time.Time
}

func position(i item) (string, time.Time) { return i.id, i.at }

func TestCursorRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 14, 15, 9, 26, 535897932, time.UTC)

	encoded := EncodeCursor("6f1c2a9e-0000-4000-8000-000000000001", ts)
	assert.NotContains(t, encoded, "+")
	assert.NotContains(t, encoded, "/")
	assert.NotContains(t, encoded, "=")

	cursor, err := DecodeCursor(encoded)
	require.NoError(t, err)
	require.NotNil(t, cursor)
	assert.Equal(t, "6f1c2a9e-0000-4000-8000-000000000001", cursor.LastID)
	assert.True(t, ts.Equal(cursor.Timestamp))
}

func TestEncodeCursor_EmptyID(t *testing.T) {
	assert.Empty(t, EncodeCursor("", time.Now()))
}

func TestDecodeCursor(t *testing.T) {
	cursor, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, cursor)

	invalid := []string{
		"not base64!",
		base64.RawURLEncoding.EncodeToString([]byte("no-separator")),
		base64.RawURLEncoding.EncodeToString([]byte("yesterday|abc")),
		base64.RawURLEncoding.EncodeToString([]byte("2026-01-01T00:00:00Z|")),
	}
	for _, c := range invalid {
		_, err := DecodeCursor(c)
		assert.ErrorIs(t, err, ErrInvalidCursor, c)
	}
}

func TestNewPage(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []item{
		{"c", base.Add(3 * time.Hour)},
		{"b", base.Add(2 * time.Hour)},
		{"a", base.Add(time.Hour)},
	}

	t.Run("extra row means more", func(t *testing.T) {
		page := NewPage(rows, 2, position)
		assert.Len(t, page.Items, 2)
		assert.True(t, page.HasMore)

		next, err := DecodeCursor(page.Cursor)
		require.NoError(t, err)
		assert.Equal(t, "b", next.LastID)
		assert.True(t, next.Timestamp.Equal(rows[1].at))
	})

	t.Run("last page", func(t *testing.T) {
		page := NewPage(rows, 3, position)
		assert.Len(t, page.Items, 3)
		assert.False(t, page.HasMore)
		assert.Empty(t, page.Cursor)
	})

	t.Run("nil rows", func(t *testing.T) {
		page := NewPage[item](nil, 5, position)
		assert.NotNil(t, page.Items)
		assert.Empty(t, page.Items)
		assert.False(t, page.HasMore)
	})
}
