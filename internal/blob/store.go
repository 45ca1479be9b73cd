// Package blob stores uploaded media files and reports upload progress as a
// stream of events.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// Errors returned by the blob store.
var (
	ErrInvalidPath = errors.New("invalid object path")
	ErrShortUpload = errors.New("upload ended before the declared size")
)

// defaultChunkSize is the copy granularity and therefore the progress
// reporting granularity.
const defaultChunkSize = 256 * 1024

// Progress is one event of an upload. Exactly one terminal event (Done or
// Err set) ends the stream.
type Progress struct {
	Transferred int64
	Total       int64
	URL         string
	Err         error
	Done        bool
}

// Percent returns the rounded percentage of bytes transferred.
func (p Progress) Percent() int {
	if p.Total <= 0 {
		if p.Done {
			return 100
		}
		return 0
	}
	return int(math.Round(float64(p.Transferred) / float64(p.Total) * 100))
}

// Uploader writes an object and streams progress events. The returned channel
// is closed after the terminal event.
type Uploader interface {
	Upload(ctx context.Context, path string, r io.Reader, size int64) <-chan Progress
}

// Store is an Uploader over an afero filesystem. Objects are served under
// publicURL.
type Store struct {
	fs        afero.Fs
	publicURL string
	chunkSize int
}

// Option configures a Store.
type Option func(*Store)

// WithChunkSize sets the copy chunk size.
func WithChunkSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// NewStore returns a Store writing to fs. publicURL is the prefix of object
// URLs, for example "http://localhost:8080".
func NewStore(fs afero.Fs, publicURL string, opts ...Option) *Store {
	s := &Store{
		fs:        fs,
		publicURL: strings.TrimRight(publicURL, "/"),
		chunkSize: defaultChunkSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ObjectPath returns the object path for a file in a category:
// files/<category>/<base name>.
func ObjectPath(category, filename string) (string, error) {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if category == "" || strings.ContainsAny(category, "/\\") || category == ".." {
		return "", fmt.Errorf("%w: category %q", ErrInvalidPath, category)
	}
	if name == "" || name == "." || name == ".." || name == "/" {
		return "", fmt.Errorf("%w: file name %q", ErrInvalidPath, filename)
	}
	return path.Join("files", category, name), nil
}

// cleanPath validates an object path and returns it in canonical form.
func cleanPath(p string) (string, error) {
	clean := path.Clean("/" + p)[1:]
	if clean == "" || !strings.HasPrefix(clean, "files/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return clean, nil
}

// URL returns the public URL of an object.
func (s *Store) URL(objectPath string) string {
	return s.publicURL + "/" + strings.TrimLeft(objectPath, "/")
}

// Open opens a stored object for reading.
func (s *Store) Open(objectPath string) (afero.File, error) {
	p, err := cleanPath(objectPath)
	if err != nil {
		return nil, err
	}
	return s.fs.Open(p)
}

// Exists reports whether an object is stored.
func (s *Store) Exists(objectPath string) (bool, error) {
	p, err := cleanPath(objectPath)
	if err != nil {
		return false, err
	}
	return afero.Exists(s.fs, p)
}

// Upload copies size bytes from r to objectPath in chunks, emitting a
// progress event before the first chunk and after each one. A cancelled
// context stops the copy and removes the partial object.
func (s *Store) Upload(ctx context.Context, objectPath string, r io.Reader, size int64) <-chan Progress {
	events := make(chan Progress, 1)
	go func() {
		defer close(events)
		url, err := s.write(ctx, objectPath, r, size, events)
		if err != nil {
			send(ctx, events, Progress{Total: size, Err: err}, true)
			return
		}
		send(ctx, events, Progress{Transferred: size, Total: size, URL: url, Done: true}, true)
	}()
	return events
}

func (s *Store) write(ctx context.Context, objectPath string, r io.Reader, size int64, events chan<- Progress) (string, error) {
	p, err := cleanPath(objectPath)
	if err != nil {
		return "", err
	}
	if err := s.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", path.Dir(p), err)
	}
	f, err := s.fs.OpenFile(p, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", p, err)
	}

	fail := func(err error) (string, error) {
		f.Close()
		s.fs.Remove(p)
		return "", err
	}

	if !send(ctx, events, Progress{Total: size}, false) {
		return fail(ctx.Err())
	}

	buf := make([]byte, s.chunkSize)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		n, rerr := r.Read(buf)
		if n > 0 {
			if _, err := f.Write(buf[:n]); err != nil {
				return fail(fmt.Errorf("write %s: %w", p, err))
			}
			written += int64(n)
			total := size
			if written > total {
				total = written
			}
			if !send(ctx, events, Progress{Transferred: written, Total: total}, false) {
				return fail(ctx.Err())
			}
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return fail(fmt.Errorf("read upload: %w", rerr))
		}
	}

	if size > 0 && written < size {
		return fail(fmt.Errorf("%w: %d of %d bytes", ErrShortUpload, written, size))
	}
	if err := f.Close(); err != nil {
		s.fs.Remove(p)
		return "", fmt.Errorf("close %s: %w", p, err)
	}
	return s.URL(p), nil
}

// send delivers an event unless ctx is done. After cancellation a terminal
// event is still queued when the buffer has room.
func send(ctx context.Context, events chan<- Progress, p Progress, terminal bool) bool {
	if terminal {
		select {
		case events <- p:
		case <-ctx.Done():
			select {
			case events <- p:
			default:
			}
		}
		return true
	}
	select {
	case events <- p:
		return true
	case <-ctx.Done():
		return false
	}
}
