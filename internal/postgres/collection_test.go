package postgres

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/qurancms/pkg/types"
)

func TestListQuery(t *testing.T) {
	tests := []struct {
		name  string
		order types.Order
		want  string
	}{
		{
			name:  "ascending puts missing fields first",
			order: types.Order{Field: "surahIndex", Direction: types.Asc},
			want:  "ORDER BY data -> $2::text ASC NULLS FIRST, doc_id ASC",
		},
		{
			name:  "descending puts missing fields last",
			order: types.Order{Field: "createdAt", Direction: types.Desc},
			want:  "ORDER BY data -> $2::text DESC NULLS LAST, doc_id DESC",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := listQuery(tt.order)
			require.NoError(t, err)
			assert.Contains(t, q, tt.want)
			assert.NotContains(t, q, tt.order.Field, "field must be a bound parameter")
		})
	}
}

func TestListQueryRejectsInvalidOrder(t *testing.T) {
	_, err := listQuery(types.Order{Field: "title; DROP TABLE documents", Direction: types.Asc})
	assert.ErrorIs(t, err, types.ErrInvalidOrder)
}

func TestMergeQueryUsesJSONBConcatenation(t *testing.T) {
	assert.True(t, strings.Contains(mergeQuery, "data || $3::jsonb"))
}

func TestEncodeDataResolvesServerTimestamp(t *testing.T) {
	now := func() time.Time { return time.Date(2024, 2, 2, 8, 30, 0, 0, time.UTC) }
	body, err := encodeData(map[string]any{"title": "Dua", "updatedAt": types.ServerTimestamp}, now)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Dua","updatedAt":"2024-02-02T08:30:00.000000000Z"}`, body)
}

func TestDecodeDocument(t *testing.T) {
	doc, err := decodeDocument("q1", []byte(`{"author":"Ali","quote":"Silence"}`))
	require.NoError(t, err)
	assert.Equal(t, "q1", doc.ID)
	assert.Equal(t, "Silence", doc.Data["quote"])

	_, err = decodeDocument("q2", []byte(`[`))
	assert.Error(t, err)
}

func TestBackendLifecycleWithoutDatabase(t *testing.T) {
	ctx := context.Background()
	b := NewBackend()

	_, err := b.Collection(types.KindSurah)
	assert.ErrorIs(t, err, types.ErrLibraryDetached)

	assert.ErrorIs(t, b.Attach(ctx, types.Config{Backend: types.BackendPostgres}), types.ErrDatabaseURLMissing)
	assert.ErrorIs(t, b.Attach(ctx, types.Config{Backend: types.BackendSQLite}), types.ErrBackendUnknown)
	assert.NoError(t, b.Detach())
}
