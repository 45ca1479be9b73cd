// Package session implements the login gate: a persisted trust flag that
// decides whether the dashboard or the login screen is shown.
package session

import (
	"crypto/hmac"
	"errors"
	"fmt"
	"sync"
)

// Status is the gate's view of the current session.
type Status int

// Gate states. Pending holds until Check has read the store once.
const (
	Pending Status = iota
	Authenticated
	Anonymous
)

func (s Status) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return "pending"
	}
}

// ErrInvalidKey is returned by Login when an admin key is configured and the
// supplied key does not match.
var ErrInvalidKey = errors.New("invalid admin key")

// Store persists the trust flag.
type Store interface {
	Load() (bool, error)
	Save(authenticated bool) error
}

// Gate tracks the session status over a Store.
type Gate struct {
	mu       sync.Mutex
	store    Store
	status   Status
	adminKey string
}

// Option configures a Gate.
type Option func(*Gate)

// WithAdminKey makes Login require key.
func WithAdminKey(key string) Option {
	return func(g *Gate) { g.adminKey = key }
}

// NewGate returns a Pending gate over store.
func NewGate(store Store, opts ...Option) *Gate {
	g := &Gate{store: store}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check reads the persisted flag and resolves the status. A store error
// leaves the gate Anonymous.
func (g *Gate) Check() (Status, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ok, err := g.store.Load()
	if err != nil {
		g.status = Anonymous
		return g.status, fmt.Errorf("load session: %w", err)
	}
	if ok {
		g.status = Authenticated
	} else {
		g.status = Anonymous
	}
	return g.status, nil
}

// Status returns the last resolved status.
func (g *Gate) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

// Authenticated reports whether the gate is Authenticated.
func (g *Gate) Authenticated() bool {
	return g.Status() == Authenticated
}

// KeyRequired reports whether Login checks an admin key.
func (g *Gate) KeyRequired() bool {
	return g.adminKey != ""
}

// Login persists the trust flag. When an admin key is configured, key must
// match it.
func (g *Gate) Login(key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.adminKey != "" && !hmac.Equal([]byte(key), []byte(g.adminKey)) {
		return ErrInvalidKey
	}
	if err := g.store.Save(true); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	g.status = Authenticated
	return nil
}

// Logout clears the trust flag.
func (g *Gate) Logout() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.store.Save(false); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	g.status = Anonymous
	return nil
}
