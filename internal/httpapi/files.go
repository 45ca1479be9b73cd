package httpapi

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
)

// serveFile serves an uploaded object by its public URL path.
func (s *Server) serveFile(c *gin.Context) {
	objectPath := path.Join("files", c.Param("filepath"))
	f, err := s.app.Blobs.Open(objectPath)
	if err != nil {
		s.notFound(c)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		s.notFound(c)
		return
	}
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
}
