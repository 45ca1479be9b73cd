// Tests for the SQLite backend.
package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/qurancms/pkg/types"
)

func attachTemp(t *testing.T, dir string, opts ...Option) *Backend {
	t.Helper()
	b := NewBackend(opts...)
	err := b.Attach(context.Background(), types.Config{
		Backend:     types.BackendSQLite,
		DataDir:     dir,
		LegacyNames: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { b.Detach() })
	return b
}

func TestBackend_Attach(t *testing.T) {
	tmpDir := t.TempDir()
	b := attachTemp(t, tmpDir)

	if _, err := os.Stat(filepath.Join(tmpDir, dbFileName)); os.IsNotExist(err) {
		t.Errorf("%s not created", dbFileName)
	}
	for _, name := range []string{"surah", "quotes", "Audios", "Books", "duas"} {
		info, err := os.Stat(filepath.Join(tmpDir, name+".jsonl"))
		require.NoError(t, err, name)
		assert.Zero(t, info.Size(), name)
	}

	err := b.Attach(context.Background(), types.Config{Backend: types.BackendSQLite, DataDir: tmpDir})
	assert.ErrorIs(t, err, types.ErrAlreadyAttached)
}

func TestBackend_AttachRejectsInvalidConfig(t *testing.T) {
	b := NewBackend()
	assert.ErrorIs(t, b.Attach(context.Background(), types.Config{}), types.ErrBackendEmpty)
	assert.ErrorIs(t, b.Attach(context.Background(), types.Config{
		Backend: types.BackendPostgres, DatabaseURL: "postgres://x",
	}), types.ErrBackendUnknown)
}

func TestBackend_NormalizedNames(t *testing.T) {
	tmpDir := t.TempDir()
	b := NewBackend()
	require.NoError(t, b.Attach(context.Background(), types.Config{Backend: types.BackendSQLite, DataDir: tmpDir}))
	defer b.Detach()

	for _, name := range []string{"surahs", "quotes", "audios", "books", "duas"} {
		_, err := os.Stat(filepath.Join(tmpDir, name+".jsonl"))
		assert.NoError(t, err, name)
	}
}

func TestBackend_Detach(t *testing.T) {
	b := NewBackend()
	require.NoError(t, b.Attach(context.Background(), types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))

	coll, err := b.Collection(types.KindQuote)
	require.NoError(t, err)

	require.NoError(t, b.Detach())
	require.NoError(t, b.Detach(), "detach is idempotent")

	_, err = b.Collection(types.KindQuote)
	assert.ErrorIs(t, err, types.ErrLibraryDetached)

	_, err = coll.List(context.Background(), types.Order{Field: "createdAt", Direction: types.Desc})
	assert.ErrorIs(t, err, types.ErrLibraryDetached)
}

func TestCollection_CRUD(t *testing.T) {
	ctx := context.Background()
	b := attachTemp(t, t.TempDir())
	coll, err := b.Collection(types.KindQuote)
	require.NoError(t, err)

	id, err := coll.Add(ctx, map[string]any{"author": "Ali", "quote": "Patience is a tree"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	doc, err := coll.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, doc.ID)
	assert.Equal(t, "Ali", doc.Data["author"])

	require.NoError(t, coll.Update(ctx, id, map[string]any{"quote": "Patience is a tree with bitter roots"}))
	doc, err = coll.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ali", doc.Data["author"], "merge keeps untouched fields")
	assert.Equal(t, "Patience is a tree with bitter roots", doc.Data["quote"])

	require.NoError(t, coll.Delete(ctx, id))
	_, err = coll.Get(ctx, id)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestCollection_Errors(t *testing.T) {
	ctx := context.Background()
	b := attachTemp(t, t.TempDir())
	coll, err := b.Collection(types.KindDua)
	require.NoError(t, err)

	_, err = coll.Get(ctx, "")
	assert.ErrorIs(t, err, types.ErrInvalidID)
	_, err = coll.Get(ctx, "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.ErrorIs(t, coll.Update(ctx, "missing", map[string]any{"title": "x"}), types.ErrNotFound)
	assert.ErrorIs(t, coll.Delete(ctx, "missing"), types.ErrNotFound)
	_, err = coll.Add(ctx, nil)
	assert.ErrorIs(t, err, types.ErrInvalidData)
	_, err = coll.List(ctx, types.Order{Field: "bad field", Direction: types.Asc})
	assert.ErrorIs(t, err, types.ErrInvalidOrder)
}

func TestCollection_ListOrder(t *testing.T) {
	ctx := context.Background()
	b := attachTemp(t, t.TempDir())
	coll, err := b.Collection(types.KindSurah)
	require.NoError(t, err)

	for _, idx := range []int{3, 1, 2} {
		_, err := coll.Add(ctx, map[string]any{"surahIndex": idx, "englishName": "s"})
		require.NoError(t, err)
	}

	docs, err := coll.List(ctx, types.Order{Field: "surahIndex", Direction: types.Asc})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	for i, want := range []float64{1, 2, 3} {
		assert.Equal(t, want, docs[i].Data["surahIndex"])
	}

	docs, err = coll.List(ctx, types.Order{Field: "surahIndex", Direction: types.Desc})
	require.NoError(t, err)
	assert.Equal(t, float64(3), docs[0].Data["surahIndex"])
}

func TestCollection_ServerTimestamp(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	b := attachTemp(t, t.TempDir(), WithClock(func() time.Time { return clock }))
	coll, err := b.Collection(types.KindDua)
	require.NoError(t, err)

	first, err := coll.Add(ctx, map[string]any{"title": "first", "updatedAt": types.ServerTimestamp})
	require.NoError(t, err)
	clock = clock.Add(time.Minute)
	second, err := coll.Add(ctx, map[string]any{"title": "second", "updatedAt": types.ServerTimestamp})
	require.NoError(t, err)

	docs, err := coll.List(ctx, types.Order{Field: "updatedAt", Direction: types.Desc})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, second, docs[0].ID)
	assert.Equal(t, first, docs[1].ID)
	assert.Equal(t, "2024-05-01T12:01:00.000000000Z", docs[0].Data["updatedAt"])

	clock = clock.Add(time.Minute)
	require.NoError(t, coll.Update(ctx, first, map[string]any{"updatedAt": types.ServerTimestamp}))
	docs, err = coll.List(ctx, types.Order{Field: "updatedAt", Direction: types.Desc})
	require.NoError(t, err)
	assert.Equal(t, first, docs[0].ID, "edited document moves to the top")
}

func TestCollection_PersistsAcrossAttach(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	b := NewBackend()
	require.NoError(t, b.Attach(ctx, types.Config{Backend: types.BackendSQLite, DataDir: dir, LegacyNames: true}))
	coll, err := b.Collection(types.KindBook)
	require.NoError(t, err)
	id, err := coll.Add(ctx, map[string]any{"title": "Riyad as-Salihin", "author": "An-Nawawi"})
	require.NoError(t, err)
	require.NoError(t, b.Detach())

	raw, err := os.ReadFile(filepath.Join(dir, "Books.jsonl"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), id)
	assert.Equal(t, 1, strings.Count(string(raw), "\n"))

	b2 := attachTemp(t, dir)
	coll, err = b2.Collection(types.KindBook)
	require.NoError(t, err)
	doc, err := coll.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "An-Nawawi", doc.Data["author"])
}

func TestLoad_SkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	content := strings.Join([]string{
		`{"id":"a","data":{"title":"kept"}}`,
		`not json`,
		``,
		`{"id":"","data":{"title":"no id"}}`,
		`{"id":"b","data":"not an object"}`,
		`{"id":"c","data":{"title":"also kept"},"created_at":"2024-01-01T00:00:00.000000000Z"}`,
	}, "\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "duas.jsonl"), []byte(content), 0o644))

	b := attachTemp(t, dir)
	coll, err := b.Collection(types.KindDua)
	require.NoError(t, err)

	docs, err := coll.List(context.Background(), types.Order{Field: "title", Direction: types.Asc})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "c", docs[0].ID)
	assert.Equal(t, "a", docs[1].ID)
}
