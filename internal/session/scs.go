package session

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
)

// Session keys.
const (
	authKey      = "authenticated"
	flashKey     = "flash"
	flashTypeKey = "flash_type"
)

// NewManager returns a cookie session manager for the admin server.
func NewManager(lifetime time.Duration, secure bool) *scs.SessionManager {
	sm := scs.New()
	sm.Lifetime = lifetime
	sm.Cookie.Name = "qurancms_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = secure
	return sm
}

// RequestStore keeps the flag in the session of one HTTP request. The request
// must pass through the manager's LoadAndSave middleware.
type RequestStore struct {
	sm  *scs.SessionManager
	ctx context.Context
}

// NewRequestStore binds a store to a request context.
func NewRequestStore(ctx context.Context, sm *scs.SessionManager) *RequestStore {
	return &RequestStore{sm: sm, ctx: ctx}
}

// Load reads the flag from the session.
func (s *RequestStore) Load() (bool, error) {
	return s.sm.GetBool(s.ctx, authKey), nil
}

// Save sets or clears the flag. The token is renewed on every change.
func (s *RequestStore) Save(authenticated bool) error {
	if err := s.sm.RenewToken(s.ctx); err != nil {
		return fmt.Errorf("renew session token: %w", err)
	}
	if authenticated {
		s.sm.Put(s.ctx, authKey, true)
		return nil
	}
	s.sm.Remove(s.ctx, authKey)
	return nil
}

// Flash stores a one-shot message shown on the next page.
func Flash(ctx context.Context, sm *scs.SessionManager, level, msg string) {
	sm.Put(ctx, flashKey, msg)
	sm.Put(ctx, flashTypeKey, level)
}

// PopFlash returns and clears the pending flash message.
func PopFlash(ctx context.Context, sm *scs.SessionManager) (level, msg string) {
	msg = sm.PopString(ctx, flashKey)
	if msg == "" {
		return "", ""
	}
	level = sm.PopString(ctx, flashTypeKey)
	if level == "" {
		level = "info"
	}
	return level, msg
}
