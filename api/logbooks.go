package api

import (
	"net/http"
	"strconv"

	"elogy.dev/core/logbook"
	"elogy.dev/core/model"
	"elogy.dev/core/search"
	"github.com/labstack/echo/v4"
)

type logbookRequest struct {
	Name                string                 `json:"name"`
	Description         string                 `json:"description"`
	Template            string                 `json:"template"`
	TemplateContentType string                 `json:"template_content_type"`
	Parent              *int                   `json:"parent"`
	Attributes          []model.AttributeSpec  `json:"attributes"`
	Metadata            map[string]interface{} `json:"metadata"`
	Archived            bool                   `json:"archived"`
	RevisionN           *int                   `json:"revision_n"`
}

func idParam(c echo.Context, name string) (int, error) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, model.NewValidationError(name, "must be an integer")
	}
	return v, nil
}

func (h *handlers) listTopLevelLogbooks(c echo.Context) error {
	includeArchived := c.QueryParam("archived") == "true"
	lbs, err := h.Store.ListTopLevelLogbooks(includeArchived)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, lbs)
}

func (h *handlers) createTopLevelLogbook(c echo.Context) error {
	return h.createLogbook(c, nil)
}

func (h *handlers) createChildLogbook(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return h.createLogbook(c, &id)
}

func (h *handlers) createLogbook(c echo.Context, parentID *int) error {
	var req logbookRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, h.Logger, model.NewValidationError("body", "malformed JSON"))
	}
	if parentID != nil {
		req.Parent = parentID
	}
	lb, err := h.Logbook.CreateLogbook(logbook.CreateLogbookInput{
		ParentID:            req.Parent,
		Name:                req.Name,
		Description:         req.Description,
		Template:            req.Template,
		TemplateContentType: req.TemplateContentType,
		Attributes:          req.Attributes,
		Metadata:            req.Metadata,
		Archived:            req.Archived,
	})
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, lb)
}

func (h *handlers) getLogbook(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	lb, err := h.Store.GetLogbook(id)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, lb)
}

func (h *handlers) updateLogbook(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return writeError(c, h.Logger, err)
	}

	var req logbookRequest
	raw, err := bindWithPresence(c, &req)
	if err != nil {
		return writeError(c, h.Logger, err)
	}

	in := logbook.UpdateLogbookInput{
		ID:        id,
		RevisionN: req.RevisionN,
	}
	if _, ok := raw["name"]; ok {
		in.Name = &req.Name
	}
	if _, ok := raw["description"]; ok {
		in.Description = &req.Description
	}
	if _, ok := raw["template"]; ok {
		in.Template = &req.Template
	}
	if _, ok := raw["template_content_type"]; ok {
		in.TemplateContentType = &req.TemplateContentType
	}
	if _, ok := raw["parent"]; ok {
		in.ParentIDSet = true
		in.ParentID = req.Parent
	}
	if _, ok := raw["attributes"]; ok {
		in.Attributes = req.Attributes
	}
	if _, ok := raw["metadata"]; ok {
		in.Metadata = req.Metadata
	}
	if _, ok := raw["archived"]; ok {
		in.Archived = &req.Archived
	}

	lb, err := h.Logbook.UpdateLogbook(in)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, lb)
}

func (h *handlers) listLogbookRevisions(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	changes, err := h.Store.ListLogbookChanges(id)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, changes)
}

func (h *handlers) getLogbookRevision(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	n, err := idParam(c, "n")
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	lb, err := h.Logbook.GetLogbookRevision(id, n)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, lb)
}

func (h *handlers) listLogbookTree(c echo.Context) error {
	var root *int
	if idStr := c.Param("id"); idStr != "" {
		id, err := idParam(c, "id")
		if err != nil {
			return writeError(c, h.Logger, err)
		}
		root = &id
	}
	tree, err := h.Logbook.Tree(root)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, tree)
}

func (h *handlers) distinctAttributeValues(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	name := c.QueryParam("name")
	if name == "" {
		return writeError(c, h.Logger, model.NewValidationError("name", "required"))
	}
	values, err := search.DistinctAttributeValues(h.Store, id, name)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, values)
}
