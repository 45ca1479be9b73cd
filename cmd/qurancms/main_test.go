package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type cliEnv struct {
	configDir string
	dataDir   string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	return &cliEnv{
		configDir: filepath.Join(t.TempDir(), "config"),
		dataDir:   filepath.Join(t.TempDir(), "data"),
	}
}

// run executes one CLI invocation against the environment's directories.
func (e *cliEnv) run(t *testing.T, stdin string, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	code = execute(root, append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...))
	return out.String(), errOut.String(), code
}

// mustRun fails the test unless the invocation succeeds.
func (e *cliEnv) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, errOut, code := e.run(t, "", args...)
	require.Equal(t, exitSuccess, code, "qurancms %s: %s", strings.Join(args, " "), errOut)
	return out
}

func idFrom(t *testing.T, out string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if id, ok := strings.CutPrefix(line, "id: "); ok {
			return id
		}
	}
	t.Fatalf("no id in output %q", out)
	return ""
}

func decodeJSON(t *testing.T, out string) map[string]any {
	t.Helper()
	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	return v
}

func TestVersion(t *testing.T) {
	out := newCLIEnv(t).mustRun(t, "version")
	assert.Contains(t, out, "qurancms v"+version)
	assert.Contains(t, out, modulePath)
}

func TestInit(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun(t, "init")
	assert.Contains(t, out, "Wrote")
	assert.Contains(t, out, "qurancms initialized (backend sqlite")
	assert.FileExists(t, filepath.Join(env.configDir, "config.yaml"))
	assert.DirExists(t, env.dataDir)

	out = env.mustRun(t, "init")
	assert.NotContains(t, out, "Wrote", "existing config is kept")
}

func TestUnknownCollection(t *testing.T) {
	env := newCLIEnv(t)
	_, errOut, code := env.run(t, "", "list", "hadiths")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "surahs, audios, books, quotes, duas")

	_, _, code = env.run(t, "", "get", "quotes")
	assert.Equal(t, exitUserError, code, "missing argument")
}

func TestWritesRequireLogin(t *testing.T) {
	env := newCLIEnv(t)
	_, errOut, code := env.run(t, "", "add", "quote", "--author", "a", "--quote", "q")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "not signed in")

	out := env.mustRun(t, "list", "quotes")
	assert.Contains(t, out, "No quotes yet.", "reads do not need a session")
}

func TestDocumentLifecycle(t *testing.T) {
	env := newCLIEnv(t)
	assert.Contains(t, env.mustRun(t, "login"), "Signed in.")

	out := env.mustRun(t, "add", "quote", "--author", "Ali ibn Abi Talib", "--quote", "Silence is the best reply to a fool.")
	assert.Contains(t, out, "Quote has been successfully created")
	id := idFrom(t, out)

	out = env.mustRun(t, "list", "quotes")
	assert.Contains(t, out, id)
	assert.Contains(t, out, "Ali ibn Abi Talib")
	assert.Contains(t, out, "Total: 1 quotes")

	out = env.mustRun(t, "list", "quotes", "--query", "umar")
	assert.Contains(t, out, `No quotes match "umar".`)

	out = env.mustRun(t, "--json", "list", "quotes")
	var items []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0]["id"])

	out = env.mustRun(t, "edit", "quote", id, "--quote", "Silence is wisdom.")
	assert.Contains(t, out, "Quote has been successfully edited")

	doc := decodeJSON(t, env.mustRun(t, "get", "quotes", id))
	assert.Equal(t, "Silence is wisdom.", doc["quote"])
	assert.Equal(t, "Ali ibn Abi Talib", doc["author"], "unchanged fields are kept")
	assert.NotEmpty(t, doc["createdAt"])

	out, _, code := env.run(t, "n\n", "delete", "quotes", id)
	assert.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "Cancelled.")

	out, _, code = env.run(t, "y\n", "delete", "quotes", id)
	assert.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "The quote has been removed.")

	_, errOut, code := env.run(t, "", "get", "quotes", id)
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "not found")

	_, _, code = env.run(t, "", "delete", "quotes", id, "--yes")
	assert.Equal(t, exitUserError, code)

	_, _, code = env.run(t, "", "edit", "quote", id, "--quote", "x")
	assert.Equal(t, exitUserError, code)
}

func TestAddValidation(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "login")

	_, errOut, code := env.run(t, "", "add", "dua", "--title", "Travelling")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "Title and Dua content are required.")

	_, errOut, code = env.run(t, "", "add", "surah",
		"--surah-index", "one", "--surah-name", "الفاتحة", "--audio-url", "http://x/1.mp3", "--file-size", "1")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "surah index should be number")

	out := env.mustRun(t, "list", "duas")
	assert.Contains(t, out, "No duas yet.")
}

func TestAdminKeyLogin(t *testing.T) {
	t.Setenv("QURANCMS_ADMIN_KEY", "s3cret")
	env := newCLIEnv(t)

	_, errOut, code := env.run(t, "", "login", "--key", "guess")
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "invalid admin key")

	out, _, code := env.run(t, "s3cret\n", "login")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "Signed in.")

	status := decodeJSON(t, env.mustRun(t, "--json", "status"))
	assert.Equal(t, "authenticated", status["session"])
	assert.Equal(t, "sqlite", status["backend"])

	env.mustRun(t, "logout")
	assert.Contains(t, env.mustRun(t, "status"), "session:    anonymous")
}

func TestUploads(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "login")

	src := t.TempDir()
	cover := filepath.Join(src, "cover.png")
	require.NoError(t, os.WriteFile(cover, []byte("png bytes"), 0o644))
	pdf := filepath.Join(src, "riyad.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.7"), 0o644))

	out := env.mustRun(t, "upload", "books", "thumbnail", cover)
	assert.Equal(t, "http://localhost:8080/files/thumbnails/cover.png\n", out)
	stored, err := os.ReadFile(filepath.Join(env.dataDir, "media", "files", "thumbnails", "cover.png"))
	require.NoError(t, err)
	assert.Equal(t, "png bytes", string(stored))

	_, _, code := env.run(t, "", "upload", "books", "audio", cover)
	assert.Equal(t, exitUserError, code)

	out = env.mustRun(t, "add", "book", "--title", "Riyad as-Salihin", "--author", "an-Nawawi",
		"--book-file", pdf, "--book-thumbnail", "http://localhost:8080/files/thumbnails/cover.png")
	assert.Contains(t, out, "Book resource added successfully.")

	doc := decodeJSON(t, env.mustRun(t, "get", "books", idFrom(t, out)))
	assert.Equal(t, "http://localhost:8080/files/books/riyad.pdf", doc["bookUrl"])
}

func TestSeedAndExport(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "login")

	fixture := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(fixture, []byte(`
quotes:
  - author: Ibn al-Qayyim
    quote: The heart is like a bird.
  - author: Hasan al-Basri
    quote: O son of Adam, you are but days.
surahs:
  - surahIndex: 1
    surahName: الفاتحة
    englishName: Al-Fatiha
    lugandaName: Olugulawo
    description: The opening
    verses: 7
    audioURL: http://localhost:8080/files/Quran/001.mp3
    fileSize: 1.2
`), 0o644))

	assert.Contains(t, env.mustRun(t, "seed", fixture), "Seeded 3 documents")

	status := decodeJSON(t, env.mustRun(t, "--json", "status"))
	counts, ok := status["counts"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 2, counts["quotes"])
	assert.EqualValues(t, 1, counts["surahs"])

	var surahs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(env.mustRun(t, "--json", "list", "surahs")), &surahs))
	require.Len(t, surahs, 1)
	assert.EqualValues(t, 7, surahs[0]["verses"])

	out := filepath.Join(t.TempDir(), "quotes.xlsx")
	assert.Contains(t, env.mustRun(t, "export", "quotes", "--out", out), "Exported 2 quotes")

	wb, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer wb.Close()
	rows, err := wb.GetRows("Quotes")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "ID", rows[0][0])
}

func TestSeedRejectsInvalidDocument(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun(t, "login")

	fixture := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(fixture, []byte("quotes:\n  - quote: anonymous wisdom\n"), 0o644))

	_, errOut, code := env.run(t, "", "seed", fixture)
	assert.Equal(t, exitUserError, code)
	assert.Contains(t, errOut, "quotes #1: author is required")

	require.NoError(t, os.WriteFile(fixture, []byte("hadiths:\n  - text: x\n"), 0o644))
	_, _, code = env.run(t, "", "seed", fixture)
	assert.Equal(t, exitUserError, code)
}
