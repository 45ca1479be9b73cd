package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/mesh-intelligence/qurancms/internal/blob"
	"github.com/mesh-intelligence/qurancms/pkg/types"
)

var errBackend = errors.New("backend unavailable")

// memCollection is an in-memory types.Collection that counts calls.
type memCollection struct {
	mu      sync.Mutex
	docs    map[string]map[string]any
	nextID  int
	clock   time.Time
	listErr error
	saveErr error
	delErr  error

	// listGate, when set, is received from before each List returns.
	listGate chan struct{}

	lists, gets, adds, updates, deletes int
	lastOrder                           types.Order
}

func newMemCollection() *memCollection {
	return &memCollection{
		docs:  make(map[string]map[string]any),
		clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memCollection) seed(id string, data map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[id] = data
}

func (m *memCollection) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memCollection) List(ctx context.Context, order types.Order) ([]types.Document, error) {
	m.mu.Lock()
	m.lists++
	m.lastOrder = order
	gate := m.listGate
	err := m.listErr
	docs := make([]types.Document, 0, len(m.docs))
	for id, d := range m.docs {
		cp := make(map[string]any, len(d))
		for k, v := range d {
			cp[k] = v
		}
		docs = append(docs, types.Document{ID: id, Data: cp})
	}
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	sort.Slice(docs, func(i, j int) bool {
		a, b := fmt.Sprint(docs[i].Data[order.Field]), fmt.Sprint(docs[j].Data[order.Field])
		if fa, ok := docs[i].Float(order.Field); ok {
			if fb, ok := docs[j].Float(order.Field); ok {
				if order.Direction == types.Desc {
					return fa > fb
				}
				return fa < fb
			}
		}
		if order.Direction == types.Desc {
			return a > b
		}
		return a < b
	})
	return docs, nil
}

func (m *memCollection) Get(ctx context.Context, id string) (types.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	d, ok := m.docs[id]
	if !ok {
		return types.Document{}, types.ErrNotFound
	}
	cp := make(map[string]any, len(d))
	for k, v := range d {
		cp[k] = v
	}
	return types.Document{ID: id, Data: cp}, nil
}

func (m *memCollection) Add(ctx context.Context, data map[string]any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adds++
	if m.saveErr != nil {
		return "", m.saveErr
	}
	m.nextID++
	id := fmt.Sprintf("doc-%d", m.nextID)
	m.docs[id] = types.ResolveTimestamps(data, m.tick())
	return id, nil
}

func (m *memCollection) Update(ctx context.Context, id string, data map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates++
	if m.saveErr != nil {
		return m.saveErr
	}
	d, ok := m.docs[id]
	if !ok {
		return types.ErrNotFound
	}
	for k, v := range types.ResolveTimestamps(data, m.tick()) {
		d[k] = v
	}
	return nil
}

func (m *memCollection) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	if m.delErr != nil {
		return m.delErr
	}
	if _, ok := m.docs[id]; !ok {
		return types.ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

func (m *memCollection) counts() (lists, adds, updates, deletes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lists, m.adds, m.updates, m.deletes
}

// manualUploader hands each upload's event channel to the test.
type manualUploader struct {
	mu      sync.Mutex
	uploads []*manualUpload
}

type manualUpload struct {
	path   string
	ctx    context.Context
	events chan blob.Progress
}

func (u *manualUploader) Upload(ctx context.Context, path string, r io.Reader, size int64) <-chan blob.Progress {
	up := &manualUpload{path: path, ctx: ctx, events: make(chan blob.Progress, 16)}
	u.mu.Lock()
	u.uploads = append(u.uploads, up)
	u.mu.Unlock()
	return up.events
}

func (u *manualUploader) get(i int) *manualUpload {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.uploads[i]
}

// finish sends a completion event and closes the stream.
func (up *manualUpload) finish(url string) {
	up.events <- blob.Progress{Transferred: 1, Total: 1, URL: url, Done: true}
	close(up.events)
}

func aferoMem() afero.Fs { return afero.NewMemMapFs() }
