package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/qurancms/internal/blob"
	"github.com/mesh-intelligence/qurancms/internal/content"
	"github.com/mesh-intelligence/qurancms/pkg/types"
)

// documentJSON flattens a document into one object with its id.
func documentJSON(d types.Document) map[string]any {
	out := make(map[string]any, len(d.Data)+1)
	for k, v := range d.Data {
		out[k] = v
	}
	out["id"] = d.ID
	return out
}

func (h entityHandlers) apiView(c *gin.Context) (*content.ListView, *content.Recorder, bool) {
	rec := &content.Recorder{}
	v, err := h.s.app.View(h.schema.Kind, rec)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, nil, false
	}
	return v, rec, true
}

func (h entityHandlers) apiList(c *gin.Context) {
	v, _, ok := h.apiView(c)
	if !ok {
		return
	}
	defer v.Close()

	if err := v.Load(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	v.SetFilter(c.Query("q"))
	docs := v.Visible()
	items := make([]map[string]any, 0, len(docs))
	for _, d := range docs {
		items = append(items, documentJSON(d))
	}
	c.JSON(http.StatusOK, gin.H{"collection": h.schema.Kind.Plural(), "items": items})
}

func (h entityHandlers) apiGet(c *gin.Context) {
	coll, err := h.s.app.Collection(h.schema.Kind)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	doc, err := coll.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, documentJSON(doc))
}

func (h entityHandlers) apiCreate(c *gin.Context) {
	h.apiSave(c, false)
}

func (h entityHandlers) apiUpdate(c *gin.Context) {
	h.apiSave(c, true)
}

// apiSave runs a JSON body through the entity form so the API applies the
// same validation as the dashboard. Updates only change the posted fields.
func (h entityHandlers) apiSave(c *gin.Context, isEdit bool) {
	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be a JSON object"})
		return
	}

	v, rec, ok := h.apiView(c)
	if !ok {
		return
	}
	defer v.Close()

	ctx := c.Request.Context()
	var (
		f   *content.Form
		err error
	)
	if isEdit {
		f, err = v.OpenEdit(ctx, c.Param("id"))
	} else {
		f, err = v.OpenCreate(ctx)
	}
	if err != nil {
		apiError(c, err)
		return
	}

	for key, value := range body {
		if key == "id" {
			continue
		}
		if err := f.Set(key, types.FormatValue(value)); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	id, err := f.Submit(ctx)
	if err != nil {
		apiError(c, err)
		return
	}
	status := http.StatusCreated
	if isEdit {
		status = http.StatusOK
	}
	toast, _ := rec.Last()
	c.JSON(status, gin.H{"id": id, "message": toast.Message})
}

func (h entityHandlers) apiDelete(c *gin.Context) {
	v, _, ok := h.apiView(c)
	if !ok {
		return
	}
	defer v.Close()

	if err := v.RequestDelete(c.Param("id")); err != nil {
		apiError(c, err)
		return
	}
	if err := v.ConfirmDelete(c.Request.Context()); err != nil {
		apiError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// apiUpload stores a multipart "file" under the slot's category and returns
// its public URL. Progress is broadcast on the event stream.
func (s *Server) apiUpload(c *gin.Context) {
	schema, err := content.Lookup(c.Param("collection"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	slot, ok := schema.Slot(c.Param("slot"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown upload slot"})
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field \"file\" is required"})
		return
	}
	objectPath, err := blob.ObjectPath(slot.Category, fh.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	file, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	collection := schema.Kind.Plural()
	var last blob.Progress
	for p := range s.app.Blobs.Upload(c.Request.Context(), objectPath, file, fh.Size) {
		last = p
		s.app.Events.Publish(content.Event{
			Type:       content.EventProgress,
			Collection: collection,
			Slot:       slot.Name,
			Percent:    p.Percent(),
		})
	}
	if last.Err != nil || !last.Done {
		s.logger.Error("upload failed",
			zap.String("collection", collection),
			zap.String("path", objectPath),
			zap.Error(last.Err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"url":  last.URL,
		"path": objectPath,
		"name": fh.Filename,
		"size": fh.Size,
	})
}

// apiError maps library and form errors to status codes.
func apiError(c *gin.Context, err error) {
	var verr *content.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": verr.Message, "field": verr.Field})
	case errors.Is(err, types.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, types.ErrInvalidID), errors.Is(err, types.ErrInvalidData),
		errors.Is(err, content.ErrUnknownField):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "backend operation failed"})
	}
}
