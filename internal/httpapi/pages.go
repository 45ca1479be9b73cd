package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/qurancms/internal/content"
	"github.com/mesh-intelligence/qurancms/internal/session"
	"github.com/mesh-intelligence/qurancms/pkg/types"
)

func (s *Server) hub(c *gin.Context) {
	c.HTML(http.StatusOK, tmplHub, s.page(c, "Home"))
}

func (s *Server) notFound(c *gin.Context) {
	if isAPI(c.Request.URL.Path) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	data := s.page(c, "Not found")
	if status, err := s.gate(c.Request.Context()).Check(); err == nil {
		data.Authenticated = status == session.Authenticated
	}
	c.HTML(http.StatusNotFound, tmplNotFound, data)
}

func (s *Server) loginPage(c *gin.Context) {
	gate := s.gate(c.Request.Context())
	if status, _ := gate.Check(); status == session.Authenticated {
		c.Redirect(http.StatusSeeOther, safeNext(c.Query("next")))
		return
	}
	data := s.page(c, "Sign in")
	data.Next = safeNext(c.Query("next"))
	data.KeyRequired = gate.KeyRequired()
	c.HTML(http.StatusOK, tmplLogin, data)
}

func (s *Server) login(c *gin.Context) {
	ctx := c.Request.Context()
	gate := s.gate(ctx)
	if _, err := gate.Check(); err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	next := safeNext(c.PostForm("next"))
	if err := gate.Login(c.PostForm("key")); err != nil {
		if errors.Is(err, session.ErrInvalidKey) {
			s.logger.Warn("login rejected", zap.String("remote", c.ClientIP()))
			data := s.page(c, "Sign in")
			data.Flash = &content.Toast{Level: content.LevelError, Message: "Invalid admin key."}
			data.Next = next
			data.KeyRequired = true
			c.HTML(http.StatusUnauthorized, tmplLogin, data)
			return
		}
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	c.Redirect(http.StatusSeeOther, next)
}

func (s *Server) logout(c *gin.Context) {
	ctx := c.Request.Context()
	if err := s.gate(ctx).Logout(); err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	session.Flash(ctx, s.sm, "info", "You have been signed out.")
	c.Redirect(http.StatusSeeOther, loginPath)
}

// entityHandlers serves the routes of one entity kind.
type entityHandlers struct {
	s      *Server
	schema *content.Schema
}

// view returns a fresh list view whose toasts become flash messages.
func (h entityHandlers) view(c *gin.Context) (*content.ListView, error) {
	return h.s.app.View(h.schema.Kind, flashNotifier{ctx: c.Request.Context(), sm: h.s.sm})
}

func (h entityHandlers) list(c *gin.Context) {
	v, err := h.view(c)
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	defer v.Close()

	data := h.s.page(c, h.schema.Plural)
	if err := v.Load(c.Request.Context()); err != nil {
		data.Flash = &content.Toast{Level: content.LevelError, Message: "Could not load " + h.schema.Plural + "."}
	}
	v.SetFilter(c.Query("q"))

	data.Schema = h.schema
	data.Query = v.Filter()
	data.Cards = v.Cards()
	if v.Empty() {
		data.Empty = v.EmptyMessage()
	}
	c.HTML(http.StatusOK, tmplList, data)
}

func (h entityHandlers) newForm(c *gin.Context) {
	v, err := h.view(c)
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	defer v.Close()

	f, err := v.OpenCreate(c.Request.Context())
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	h.renderForm(c, http.StatusOK, f)
}

func (h entityHandlers) editForm(c *gin.Context) {
	v, err := h.view(c)
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	defer v.Close()

	f, err := v.OpenEdit(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.openFailed(c, err)
		return
	}
	h.renderForm(c, http.StatusOK, f)
}

func (h entityHandlers) create(c *gin.Context) {
	v, err := h.view(c)
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	defer v.Close()

	f, err := v.OpenCreate(c.Request.Context())
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	h.submit(c, f)
}

func (h entityHandlers) update(c *gin.Context) {
	v, err := h.view(c)
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	defer v.Close()

	f, err := v.OpenEdit(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.openFailed(c, err)
		return
	}
	h.submit(c, f)
}

// submit applies the posted fields and uploads, then writes the document.
// A rejected submit re-renders the form with the posted values.
func (h entityHandlers) submit(c *gin.Context, f *content.Form) {
	ctx := c.Request.Context()
	for _, field := range h.schema.Fields {
		if value, ok := c.GetPostForm(field.Key); ok {
			if err := f.Set(field.Key, value); err != nil {
				c.AbortWithError(http.StatusBadRequest, err)
				return
			}
		}
	}
	for _, slot := range h.schema.Uploads {
		fh, err := c.FormFile(slot.Name)
		if err != nil || fh.Size == 0 {
			continue
		}
		file, err := fh.Open()
		if err != nil {
			c.AbortWithError(http.StatusBadRequest, err)
			return
		}
		done, err := f.StartUpload(ctx, slot.Name, fh.Filename, file, fh.Size)
		if err != nil {
			file.Close()
			c.AbortWithError(http.StatusBadRequest, err)
			return
		}
		<-done
		file.Close()
	}

	if _, err := f.Submit(ctx); err != nil {
		status := http.StatusInternalServerError
		var verr *content.ValidationError
		if errors.As(err, &verr) {
			status = http.StatusUnprocessableEntity
		}
		h.renderForm(c, status, f)
		return
	}
	c.Redirect(http.StatusSeeOther, h.schema.Route)
}

func (h entityHandlers) renderForm(c *gin.Context, status int, f *content.Form) {
	title := "Add " + h.schema.Title
	action := h.schema.Route + "/new"
	if f.IsEdit() {
		title = "Edit " + h.schema.Title
		action = h.schema.Route + "/edit/" + f.EditID()
	}

	values := f.Values()
	fields := make([]fieldData, 0, len(h.schema.Fields))
	for _, field := range h.schema.Fields {
		fields = append(fields, fieldData{Field: field, Value: values[field.Key]})
	}

	data := h.s.page(c, title)
	data.Schema = h.schema
	data.Form = formData{
		Action: action,
		IsEdit: f.IsEdit(),
		Fields: fields,
		Slots:  h.schema.Uploads,
	}
	c.HTML(status, tmplForm, data)
}

// openFailed answers a form that could not load its document.
func (h entityHandlers) openFailed(c *gin.Context, err error) {
	if errors.Is(err, types.ErrNotFound) || errors.Is(err, types.ErrInvalidID) {
		h.s.notFound(c)
		return
	}
	c.AbortWithError(http.StatusInternalServerError, err)
}

func (h entityHandlers) confirmDelete(c *gin.Context) {
	ctx := c.Request.Context()
	coll, err := h.s.app.Collection(h.schema.Kind)
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	doc, err := coll.Get(ctx, c.Param("id"))
	if err != nil {
		h.openFailed(c, err)
		return
	}

	data := h.s.page(c, "Delete "+h.schema.Title)
	data.Schema = h.schema
	data.Card = h.schema.CardOf(doc)
	c.HTML(http.StatusOK, tmplConfirm, data)
}

func (h entityHandlers) delete(c *gin.Context) {
	v, err := h.view(c)
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	defer v.Close()

	if err := v.RequestDelete(c.Param("id")); err != nil {
		h.openFailed(c, err)
		return
	}
	if err := v.ConfirmDelete(c.Request.Context()); err != nil {
		h.openFailed(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, h.schema.Route)
}
