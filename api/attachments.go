package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"elogy.dev/core/model"
	"elogy.dev/core/store"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// uploadAttachment implements the multipart upload endpoint: field
// `attachment` (repeatable), optional `timestamp`, `metadata` (JSON string),
// `embedded`.
func (h *handlers) uploadAttachment(c echo.Context) error {
	eid, err := idParam(c, "eid")
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	if _, err := h.Store.GetEntry(eid); err != nil {
		return writeError(c, h.Logger, err)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return writeError(c, h.Logger, model.NewValidationError("body", "expected multipart form"))
	}
	files := form.File["attachment"]
	if len(files) == 0 {
		return writeError(c, h.Logger, model.NewValidationError("attachment", "at least one file required"))
	}

	now := time.Now().UTC()
	if ts := c.FormValue("timestamp"); ts != "" {
		parsed, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return writeError(c, h.Logger, model.NewValidationError("timestamp", "must be RFC3339"))
		}
		now = parsed.UTC()
	}
	embedded := c.FormValue("embedded") == "true"

	var metadata map[string]interface{}
	if raw := c.FormValue("metadata"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
			return writeError(c, h.Logger, model.NewValidationError("metadata", "must be a JSON object"))
		}
	}

	results := make([]*model.Attachment, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return writeError(c, h.Logger, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return writeError(c, h.Logger, err)
		}
		contentType := fh.Header.Get("Content-Type")
		if contentType == "" {
			contentType = http.DetectContentType(data)
		}
		res, err := h.Pipeline.Save(c.Request().Context(), fh.Filename, contentType, data, embedded, &eid, now)
		if err != nil {
			return writeError(c, h.Logger, err)
		}
		if metadata != nil {
			for k, v := range metadata {
				res.Attachment.Metadata[k] = v
			}
		}
		results = append(results, res.Attachment)
	}
	return c.JSON(http.StatusOK, results)
}

// deleteAttachment archives the attachment named by the `path` query
// parameter; rows are archived, never deleted.
func (h *handlers) deleteAttachment(c echo.Context) error {
	path := c.QueryParam("path")
	if path == "" {
		return writeError(c, h.Logger, model.NewValidationError("path", "required"))
	}
	a, err := h.Store.GetAttachmentByPath(path)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	err = h.Store.Transaction(func(tx *gorm.DB) error {
		return store.ArchiveAttachmentTx(tx, a.ID)
	})
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.NoContent(http.StatusOK)
}

// getAttachment serves the raw blob at the wildcard path
// (GET /attachments/{path...}), delegated straight to the Blobstore.
func (h *handlers) getAttachment(c echo.Context) error {
	path := c.Param("*")
	data, err := h.Pipeline.Blobs.Read(c.Request().Context(), path)
	if err != nil {
		return writeError(c, h.Logger, model.NewNotFound("attachment", path))
	}
	contentType := "application/octet-stream"
	if a, err := h.Store.GetAttachmentByPath(path); err == nil {
		contentType = a.ContentType
	} else {
		contentType = http.DetectContentType(data)
	}
	return c.Blob(http.StatusOK, contentType, data)
}
