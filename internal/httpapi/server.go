// Package httpapi serves the admin dashboard over HTTP: HTML list views and
// edit forms, a JSON API over the same views, media uploads, and a
// server-sent event stream of refresh signals.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/qurancms/internal/app"
	"github.com/mesh-intelligence/qurancms/internal/content"
	"github.com/mesh-intelligence/qurancms/internal/session"
)

const (
	eventsPath      = "/events"
	loginPath       = "/login"
	shutdownTimeout = 5 * time.Second
)

// Server is the admin HTTP server.
type Server struct {
	app    *app.App
	sm     *scs.SessionManager
	logger *zap.Logger
	router *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithSessionManager replaces the cookie session manager built from config.
func WithSessionManager(sm *scs.SessionManager) Option {
	return func(s *Server) { s.sm = sm }
}

// New builds the server and its routes.
func New(a *app.App, opts ...Option) *Server {
	s := &Server{
		app:    a,
		logger: a.Logger.Named("http"),
		sm:     session.NewManager(a.Config.HTTP.SessionLifetime, a.Config.HTTP.SecureCookies),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))
	r.SetHTMLTemplate(pageTemplates)

	r.GET(loginPath, s.loginPage)
	r.POST(loginPath, s.login)
	r.POST("/logout", s.logout)
	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/files/*filepath", s.serveFile)

	authed := r.Group("/", s.requireSession)
	authed.GET("/", s.hub)
	authed.GET("/stats", s.stats)
	authed.GET(eventsPath, s.events)

	api := r.Group("/api", s.requireSession)
	api.POST("/uploads/:collection/:slot", s.apiUpload)

	for _, schema := range content.All() {
		h := entityHandlers{s: s, schema: schema}

		pages := authed.Group(schema.Route)
		pages.GET("", h.list)
		pages.GET("/new", h.newForm)
		pages.POST("/new", h.create)
		pages.GET("/edit/:id", h.editForm)
		pages.POST("/edit/:id", h.update)
		pages.GET("/delete/:id", h.confirmDelete)
		pages.POST("/delete/:id", h.delete)

		rest := api.Group(schema.Route)
		rest.GET("", h.apiList)
		rest.POST("", h.apiCreate)
		rest.GET("/:id", h.apiGet)
		rest.PUT("/:id", h.apiUpdate)
		rest.DELETE("/:id", h.apiDelete)
	}

	r.NoRoute(s.notFound)
	return r
}

// Handler returns the root handler with sessions loaded and saved around
// every request. The event stream only reads the session so its long-lived
// response is not buffered by the session middleware.
func (s *Server) Handler() http.Handler {
	withSession := s.sm.LoadAndSave(s.router)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == eventsPath {
			ctx, err := s.loadSession(r)
			if err != nil {
				s.logger.Error("load session", zap.Error(err))
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			s.router.ServeHTTP(w, r.WithContext(ctx))
			return
		}
		withSession.ServeHTTP(w, r)
	})
}

func (s *Server) loadSession(r *http.Request) (context.Context, error) {
	var token string
	if cookie, err := r.Cookie(s.sm.Cookie.Name); err == nil {
		token = cookie.Value
	}
	return s.sm.Load(r.Context(), token)
}

// Run serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.app.Config.HTTP.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", srv.Addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// gate returns the session gate of one request.
func (s *Server) gate(ctx context.Context) *session.Gate {
	return session.NewGate(session.NewRequestStore(ctx, s.sm), session.WithAdminKey(s.app.Config.AdminKey))
}

// flashNotifier turns toasts into flash messages shown on the next page.
type flashNotifier struct {
	ctx context.Context
	sm  *scs.SessionManager
}

func (n flashNotifier) Success(msg string) {
	session.Flash(n.ctx, n.sm, string(content.LevelSuccess), msg)
}

func (n flashNotifier) Error(msg string) {
	session.Flash(n.ctx, n.sm, string(content.LevelError), msg)
}

// page returns the common page data and consumes the pending flash message.
func (s *Server) page(c *gin.Context, title string) pageData {
	ctx := c.Request.Context()
	data := pageData{
		Title:         title,
		Authenticated: c.GetBool(ctxAuthenticated),
		Nav:           content.All(),
	}
	if level, msg := session.PopFlash(ctx, s.sm); msg != "" {
		data.Flash = &content.Toast{Level: content.Level(level), Message: msg}
	}
	return data
}
