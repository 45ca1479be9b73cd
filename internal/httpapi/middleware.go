package httpapi

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ctxAuthenticated is the gin context key set by requireSession.
const ctxAuthenticated = "authenticated"

// requestLogger logs every request with its status and duration.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("request completed", fields...)
			return
		}
		logger.Info("request completed", fields...)
	}
}

// requireSession lets authenticated sessions through. Pages redirect to the
// login form; the API and event stream answer 401.
func (s *Server) requireSession(c *gin.Context) {
	gate := s.gate(c.Request.Context())
	if _, err := gate.Check(); err != nil {
		s.logger.Error("read session", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	if gate.Authenticated() {
		c.Set(ctxAuthenticated, true)
		c.Next()
		return
	}

	path := c.Request.URL.Path
	if isAPI(path) || path == eventsPath {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
		return
	}
	c.Redirect(http.StatusSeeOther, loginPath+"?next="+url.QueryEscape(c.Request.URL.RequestURI()))
	c.Abort()
}

func isAPI(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

// safeNext returns target when it is a local path, otherwise "/".
func safeNext(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	return target
}
