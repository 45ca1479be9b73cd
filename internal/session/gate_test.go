package session

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGate_StartsPending(t *testing.T) {
	g := NewGate(&MemoryStore{})
	assert.Equal(t, Pending, g.Status())

	status, err := g.Check()
	require.NoError(t, err)
	assert.Equal(t, Anonymous, status)
}

func TestGate_LoginPersistsAcrossGates(t *testing.T) {
	tests := []struct {
		name  string
		store func() Store
	}{
		{"memory", func() Store { return &MemoryStore{} }},
		{"file", func() Store { return NewFileStore(afero.NewMemMapFs(), "/cfg/session") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := tt.store()

			g := NewGate(store)
			require.NoError(t, g.Login(""))
			assert.True(t, g.Authenticated())

			restarted := NewGate(store)
			status, err := restarted.Check()
			require.NoError(t, err)
			assert.Equal(t, Authenticated, status)

			require.NoError(t, restarted.Logout())
			assert.Equal(t, Anonymous, restarted.Status())

			again := NewGate(store)
			status, err = again.Check()
			require.NoError(t, err)
			assert.Equal(t, Anonymous, status)
		})
	}
}

func TestGate_AdminKey(t *testing.T) {
	g := NewGate(&MemoryStore{}, WithAdminKey("s3cret"))
	assert.True(t, g.KeyRequired())

	assert.ErrorIs(t, g.Login("wrong"), ErrInvalidKey)
	assert.False(t, g.Authenticated())

	require.NoError(t, g.Login("s3cret"))
	assert.True(t, g.Authenticated())
}

type brokenStore struct{}

func (brokenStore) Load() (bool, error) { return false, errors.New("unreadable") }
func (brokenStore) Save(bool) error     { return errors.New("read-only") }

func TestGate_StoreErrors(t *testing.T) {
	g := NewGate(brokenStore{})

	status, err := g.Check()
	assert.Error(t, err)
	assert.Equal(t, Anonymous, status)

	assert.Error(t, g.Login(""))
	assert.False(t, g.Authenticated())
}

func TestFileStore_IgnoresForeignContent(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/cfg/session", []byte("false"), 0o600))

	ok, err := NewFileStore(fs, "/cfg/session").Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStore_LogoutWithoutMarker(t *testing.T) {
	assert.NoError(t, NewFileStore(afero.NewMemMapFs(), "/cfg/session").Save(false))
}

func TestRequestStore_RoundTrip(t *testing.T) {
	sm := NewManager(time.Hour, false)

	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		g := NewGate(NewRequestStore(r.Context(), sm))
		if err := g.Login(""); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	mux.HandleFunc("/check", func(w http.ResponseWriter, r *http.Request) {
		g := NewGate(NewRequestStore(r.Context(), sm))
		status, _ := g.Check()
		w.Write([]byte(status.String()))
	})
	handler := sm.LoadAndSave(mux)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/check", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, "authenticated", rec.Body.String())

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/check", nil))
	assert.Equal(t, "anonymous", rec.Body.String())
}
