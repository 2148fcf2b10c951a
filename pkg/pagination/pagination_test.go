package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, DefaultLimit, NormalizeLimit(-3))
	assert.Equal(t, 10, NormalizeLimit(10))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+50))
	assert.Equal(t, 11, LimitWithBuffer(10))
}

func TestCursorRoundTripIsURLSafe(t *testing.T) {
	in := Cursor{
		CreatedAt: time.Date(2026, 3, 1, 12, 30, 0, 123456789, time.FixedZone("BRT", -3*3600)),
		ID:        uuid.New(),
	}

	encoded := EncodeCursor(in)
	assert.NotContains(t, encoded, "+")
	assert.NotContains(t, encoded, "/")
	assert.NotContains(t, encoded, "=")

	out, err := ParseCursor(encoded)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
	assert.Equal(t, in.ID, out.ID)
}

func TestParseCursorEmpty(t *testing.T) {
	out, err := ParseCursor("  ")
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	cases := map[string]string{
		"not base64":    "%%%",
		"missing id":    base64.RawURLEncoding.EncodeToString([]byte("2026-03-01T12:00:00Z")),
		"bad timestamp": base64.RawURLEncoding.EncodeToString([]byte("yesterday|" + uuid.NewString())),
		"bad id":        base64.RawURLEncoding.EncodeToString([]byte("2026-03-01T12:00:00Z|nope")),
	}
	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCursor(value)
			require.Error(t, err)
		})
	}
}

type row struct {
	id uuid.UUID
	at time.Time
}

func rowKey(r row) Cursor { return Cursor{CreatedAt: r.at, ID: r.id} }

func TestSplitReturnsCursorOfLastKeptRow(t *testing.T) {
	base := time.Now().UTC()
	rows := make([]row, 4)
	for i := range rows {
		rows[i] = row{id: uuid.New(), at: base.Add(-time.Duration(i) * time.Minute)}
	}

	page, next := Split(rows, 3, rowKey)
	require.Len(t, page, 3)
	require.NotNil(t, next)
	assert.Equal(t, rows[2].id, next.ID)

	page, next = Split(rows[:3], 3, rowKey)
	assert.Len(t, page, 3)
	assert.Nil(t, next)
}
