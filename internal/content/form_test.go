package content

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mesh-intelligence/qurancms/internal/blob"
	"github.com/mesh-intelligence/qurancms/pkg/types"
)

func newTestForm(t *testing.T, schema *Schema, coll types.Collection, opts ...FormOption) (*Form, *Recorder) {
	t.Helper()
	rec := &Recorder{}
	base := []FormOption{
		WithFormLogger(zaptest.NewLogger(t)),
		WithFormNotifier(rec),
		WithResetDelay(0),
	}
	return NewForm(schema, coll, append(base, opts...)...), rec
}

func fill(t *testing.T, f *Form, values map[string]string) {
	t.Helper()
	for k, v := range values {
		require.NoError(t, f.Set(k, v))
	}
}

func TestForm_CreateSubmit(t *testing.T) {
	ctx := context.Background()
	coll := newMemCollection()
	var savedID string
	f, rec := newTestForm(t, quoteSchema, coll, WithOnSaved(func(_ context.Context, id string) { savedID = id }))

	require.NoError(t, f.Open(ctx, false, ""))
	assert.Equal(t, StateCreate, f.State())
	fill(t, f, map[string]string{"author": "Ibn Qayyim", "quote": "The heart is like a bird"})

	id, err := f.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, savedID)
	assert.Equal(t, StateClosed, f.State())

	doc, err := coll.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ibn Qayyim", doc.Data["author"])
	_, stamped := types.ParseTimestamp(doc.Data["createdAt"])
	assert.True(t, stamped, "createdAt is set by the backend clock")

	toast, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, Toast{Level: LevelSuccess, Message: "Quote has been successfully created"}, toast)
	assert.Equal(t, "", f.Value("author"), "fields reset after submit")
}

func TestForm_ValidationFailureSkipsBackend(t *testing.T) {
	ctx := context.Background()
	coll := newMemCollection()
	f, rec := newTestForm(t, surahSchema, coll)

	require.NoError(t, f.Open(ctx, false, ""))
	values := validSurah()
	values["surahIndex"] = "abc"
	fill(t, f, values)

	_, err := f.Submit(ctx)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "surah index should be number", verr.Message)
	assert.Equal(t, StateError, f.State())
	assert.Equal(t, err, f.Err())

	_, adds, updates, _ := coll.counts()
	assert.Zero(t, adds+updates)
	toast, _ := rec.Last()
	assert.Equal(t, LevelError, toast.Level)

	// The form stays open and a corrected submit succeeds.
	require.NoError(t, f.Set("surahIndex", "1"))
	_, err = f.Submit(ctx)
	require.NoError(t, err)
	_, adds, _, _ = coll.counts()
	assert.Equal(t, 1, adds)
}

func TestForm_CoercesNumericFields(t *testing.T) {
	ctx := context.Background()
	coll := newMemCollection()
	f, _ := newTestForm(t, surahSchema, coll)

	require.NoError(t, f.Open(ctx, false, ""))
	fill(t, f, validSurah())
	id, err := f.Submit(ctx)
	require.NoError(t, err)

	doc, err := coll.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), doc.Data["surahIndex"])
	assert.Equal(t, int64(7), doc.Data["verses"])
	assert.Equal(t, 1.2, doc.Data["fileSize"])
}

func TestForm_EditWithoutChangesKeepsValues(t *testing.T) {
	ctx := context.Background()
	coll := newMemCollection()
	coll.seed("d1", map[string]any{
		"title": "Before sleep", "content": "بِاسْمِكَ", "translation": "In Your name",
		"createdAt": "2023-01-01T00:00:00.000000000Z", "updatedAt": "2023-01-01T00:00:00.000000000Z",
	})
	f, rec := newTestForm(t, duaSchema, coll)

	require.NoError(t, f.Open(ctx, true, "d1"))
	assert.Equal(t, StateEdit, f.State())
	assert.Equal(t, "Before sleep", f.Value("title"))

	_, err := f.Submit(ctx)
	require.NoError(t, err)

	doc, err := coll.Get(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "Before sleep", doc.Data["title"])
	assert.Equal(t, "بِاسْمِكَ", doc.Data["content"])
	assert.Equal(t, "In Your name", doc.Data["translation"])
	assert.Equal(t, "2023-01-01T00:00:00.000000000Z", doc.Data["createdAt"], "create stamp untouched on edit")
	assert.NotEqual(t, "2023-01-01T00:00:00.000000000Z", doc.Data["updatedAt"])

	toast, _ := rec.Last()
	assert.Equal(t, "Dua updated successfully.", toast.Message)
}

func TestForm_WriteFailureStaysOpen(t *testing.T) {
	ctx := context.Background()
	coll := newMemCollection()
	coll.saveErr = errBackend
	f, rec := newTestForm(t, quoteSchema, coll)

	require.NoError(t, f.Open(ctx, false, ""))
	fill(t, f, map[string]string{"author": "a", "quote": "q"})

	_, err := f.Submit(ctx)
	assert.ErrorIs(t, err, errBackend)
	assert.Equal(t, StateError, f.State())
	assert.Equal(t, "a", f.Value("author"))
	toast, _ := rec.Last()
	assert.Equal(t, LevelError, toast.Level)
}

func TestForm_OpenReactsToChanges(t *testing.T) {
	ctx := context.Background()
	coll := newMemCollection()
	coll.seed("a", map[string]any{"author": "A", "quote": "qa"})
	coll.seed("b", map[string]any{"author": "B", "quote": "qb"})
	f, _ := newTestForm(t, quoteSchema, coll)

	require.NoError(t, f.Open(ctx, true, "a"))
	require.NoError(t, f.Set("quote", "edited"))
	require.NoError(t, f.Open(ctx, true, "a"))
	assert.Equal(t, "edited", f.Value("quote"), "same target is not reloaded")
	assert.Equal(t, 1, coll.gets)

	require.NoError(t, f.Open(ctx, true, "b"))
	assert.Equal(t, "B", f.Value("author"))
	assert.Equal(t, "b", f.EditID())

	require.NoError(t, f.Open(ctx, false, ""))
	assert.Equal(t, StateCreate, f.State())
	assert.Equal(t, "", f.Value("author"))
	assert.False(t, f.IsEdit())
}

func TestForm_OpenEditMissingDocument(t *testing.T) {
	f, _ := newTestForm(t, quoteSchema, newMemCollection())

	err := f.Open(context.Background(), true, "nope")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Equal(t, StateError, f.State())
	assert.ErrorIs(t, f.Open(context.Background(), true, ""), types.ErrInvalidID)
}

func TestForm_ReopenRetriesFailedLoad(t *testing.T) {
	ctx := context.Background()
	coll := newMemCollection()
	f, _ := newTestForm(t, quoteSchema, coll)

	require.ErrorIs(t, f.Open(ctx, true, "q1"), types.ErrNotFound)
	coll.seed("q1", map[string]any{"author": "Al-Hasan", "quote": "Hasten"})

	require.NoError(t, f.Open(ctx, true, "q1"))
	assert.Equal(t, 2, coll.gets)
	assert.Equal(t, StateEdit, f.State())
	assert.Nil(t, f.Err())
	assert.Equal(t, "Al-Hasan", f.Value("author"))
}

func TestForm_SetRequiresOpenForm(t *testing.T) {
	f, _ := newTestForm(t, quoteSchema, newMemCollection())
	assert.ErrorIs(t, f.Set("author", "x"), ErrNotOpen)
	_, err := f.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNotOpen)

	require.NoError(t, f.Open(context.Background(), false, ""))
	assert.ErrorIs(t, f.Set("isbn", "x"), ErrUnknownField)
}

func TestForm_ResetDelay(t *testing.T) {
	ctx := context.Background()
	f, _ := newTestForm(t, quoteSchema, newMemCollection(), WithResetDelay(200*time.Millisecond))

	require.NoError(t, f.Open(ctx, false, ""))
	fill(t, f, map[string]string{"author": "a", "quote": "q"})
	_, err := f.Submit(ctx)
	require.NoError(t, err)

	assert.Equal(t, "a", f.Value("author"), "values survive until the reset delay")
	assert.Eventually(t, func() bool { return f.Value("author") == "" }, time.Second, 5*time.Millisecond)
}

func TestForm_UploadProgress(t *testing.T) {
	ctx := context.Background()
	fs := blob.NewStore(aferoMem(), "http://cdn.test", blob.WithChunkSize(100))

	var mu sync.Mutex
	var shown []int
	var f *Form
	f, _ = newTestForm(t, surahSchema, newMemCollection(),
		WithUploader(fs),
		WithProgress(func(slot string, p blob.Progress) {
			pct, _ := f.Progress(slot)
			mu.Lock()
			shown = append(shown, pct)
			mu.Unlock()
		}))

	require.NoError(t, f.Open(ctx, false, ""))
	done, err := f.StartUpload(ctx, "audio", "001.mp3", strings.NewReader(strings.Repeat("x", 400)), 400)
	require.NoError(t, err)
	<-done

	mu.Lock()
	assert.Equal(t, []int{0, 25, 50, 75, 100, 100}, shown)
	mu.Unlock()

	pct, uploading := f.Progress("audio")
	assert.Equal(t, 100, pct)
	assert.False(t, uploading)
	assert.Equal(t, "http://cdn.test/files/Quran/001.mp3", f.Value("audioURL"))
	assert.Equal(t, "001.mp3", f.Value("audioName"))
	assert.Equal(t, "", f.Value("fileSize"), "sizes under 0.01 MB are left for the admin")
}

func TestMegabytes(t *testing.T) {
	assert.Equal(t, "", megabytes(0))
	assert.Equal(t, "", megabytes(4000))
	assert.Equal(t, "0.01", megabytes(10*1024))
	assert.Equal(t, "1.50", megabytes(3*512*1024))
}

func TestForm_NewUploadSupersedesOld(t *testing.T) {
	ctx := context.Background()
	up := &manualUploader{}
	f, _ := newTestForm(t, audioSchema, newMemCollection(), WithUploader(up))
	require.NoError(t, f.Open(ctx, false, ""))

	firstDone, err := f.StartUpload(ctx, "audio", "old.mp3", strings.NewReader(""), 1)
	require.NoError(t, err)
	secondDone, err := f.StartUpload(ctx, "audio", "new.mp3", strings.NewReader(""), 1)
	require.NoError(t, err)

	first, second := up.get(0), up.get(1)
	assert.Error(t, first.ctx.Err(), "superseded upload is cancelled")
	assert.Equal(t, "files/audios/new.mp3", second.path)

	second.finish("http://cdn.test/files/audios/new.mp3")
	<-secondDone
	first.finish("http://cdn.test/files/audios/old.mp3")
	<-firstDone

	assert.Equal(t, "http://cdn.test/files/audios/new.mp3", f.Value("audioUrl"))
}

func TestForm_UploadErrorLeavesURL(t *testing.T) {
	ctx := context.Background()
	up := &manualUploader{}
	f, rec := newTestForm(t, bookSchema, newMemCollection(), WithUploader(up))
	require.NoError(t, f.Open(ctx, false, ""))
	require.NoError(t, f.Set("bookUrl", "http://manual.test/book.pdf"))

	done, err := f.StartUpload(ctx, "book", "b.pdf", strings.NewReader(""), 1)
	require.NoError(t, err)
	u := up.get(0)
	u.events <- blob.Progress{Total: 10, Transferred: 5}
	u.events <- blob.Progress{Total: 10, Err: errBackend}
	close(u.events)
	<-done

	_, uploading := f.Progress("book")
	assert.False(t, uploading)
	assert.Equal(t, "http://manual.test/book.pdf", f.Value("bookUrl"))
	toast, _ := rec.Last()
	assert.Equal(t, LevelError, toast.Level)
	assert.Contains(t, toast.Message, "Upload failed")
}

func TestForm_CloseIgnoresLateUpload(t *testing.T) {
	ctx := context.Background()
	up := &manualUploader{}
	f, _ := newTestForm(t, audioSchema, newMemCollection(), WithUploader(up))
	require.NoError(t, f.Open(ctx, false, ""))

	done, err := f.StartUpload(ctx, "audio", "late.mp3", strings.NewReader(""), 1)
	require.NoError(t, err)
	f.Close()
	assert.Error(t, up.get(0).ctx.Err())

	up.get(0).finish("http://cdn.test/files/audios/late.mp3")
	<-done
	assert.Equal(t, "", f.Value("audioUrl"))

	_, err = f.StartUpload(ctx, "audio", "x.mp3", strings.NewReader(""), 1)
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestForm_UnknownSlot(t *testing.T) {
	f, _ := newTestForm(t, quoteSchema, newMemCollection(), WithUploader(&manualUploader{}))
	require.NoError(t, f.Open(context.Background(), false, ""))
	_, err := f.StartUpload(context.Background(), "audio", "a.mp3", strings.NewReader(""), 1)
	assert.ErrorIs(t, err, ErrUnknownSlot)
}
