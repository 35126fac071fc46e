package api

import (
	"net/http"

	"elogy.dev/core/logbook"
	"elogy.dev/core/model"
	"elogy.dev/core/search"
	"elogy.dev/core/searchcache"
	"github.com/labstack/echo/v4"
)

type entryRequest struct {
	Title         *string                `json:"title"`
	Authors       []model.Author         `json:"authors"`
	Content       *string                `json:"content"`
	ContentType   *string                `json:"content_type"`
	Attributes    map[string]interface{} `json:"attributes"`
	Metadata      map[string]interface{} `json:"metadata"`
	Follows       *int                   `json:"follows"`
	Priority      *int                   `json:"priority"`
	Archived      *bool                  `json:"archived"`
	RevisionN     *int                   `json:"revision_n"`
	ChangeComment string                 `json:"change_comment"`
	ChangeAuthors []model.Author         `json:"change_authors"`
}

type searchResponse struct {
	Results []searchResultRow `json:"results"`
	Count   int                `json:"count"`
}

func (h *handlers) searchEntries(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	f, err := parseSearchFilter(c.QueryParams(), &id)
	if err != nil {
		return writeError(c, h.Logger, err)
	}

	rows, total, err := searchcache.Run(c.Request().Context(), h.Cache, func() ([]search.ThreadRow, int, error) {
		return search.Run(h.Store, f)
	}, f)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, searchResponse{Results: renderRows(rows), Count: total})
}

func (h *handlers) createEntry(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return h.storeEntry(c, id, nil)
}

func (h *handlers) createFollowup(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	eid, err := idParam(c, "eid")
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return h.storeEntry(c, id, &eid)
}

func (h *handlers) storeEntry(c echo.Context, logbookID int, follows *int) error {
	var req entryRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, h.Logger, model.NewValidationError("body", "malformed JSON"))
	}
	if req.Follows != nil {
		follows = req.Follows
	}

	in := logbook.CreateEntryInput{
		LogbookID:  logbookID,
		Title:      req.Title,
		Authors:    req.Authors,
		Content:    req.Content,
		Attributes: req.Attributes,
		Metadata:   req.Metadata,
		Follows:    follows,
	}
	if req.ContentType != nil {
		in.ContentType = *req.ContentType
	}
	if req.Priority != nil {
		in.Priority = *req.Priority
	}
	if req.Archived != nil {
		in.Archived = *req.Archived
	}

	e, err := h.Logbook.CreateEntry(in)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *handlers) getEntry(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	e, err := h.Store.GetEntry(id)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *handlers) updateEntry(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return writeError(c, h.Logger, err)
	}

	var req entryRequest
	raw, err := bindWithPresence(c, &req)
	if err != nil {
		return writeError(c, h.Logger, err)
	}

	in := logbook.UpdateEntryInput{
		ID:            id,
		IP:            c.RealIP(),
		RevisionN:     req.RevisionN,
		ChangeComment: req.ChangeComment,
		ChangeAuthors: req.ChangeAuthors,
	}
	if _, ok := raw["title"]; ok {
		in.Title = req.Title
	}
	if _, ok := raw["authors"]; ok {
		in.Authors = req.Authors
	}
	if _, ok := raw["content"]; ok {
		in.Content = req.Content
	}
	if _, ok := raw["content_type"]; ok {
		in.ContentType = req.ContentType
	}
	if _, ok := raw["attributes"]; ok {
		in.Attributes = req.Attributes
	}
	if _, ok := raw["metadata"]; ok {
		in.Metadata = req.Metadata
	}
	if _, ok := raw["priority"]; ok {
		in.Priority = req.Priority
	}
	if _, ok := raw["follows"]; ok {
		in.Follows = req.Follows
	}
	if _, ok := raw["archived"]; ok {
		in.Archived = req.Archived
	}

	e, err := h.Logbook.UpdateEntry(in)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, e)
}

func (h *handlers) getEntryRevision(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	n, err := idParam(c, "n")
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	e, err := h.Logbook.GetEntryRevision(id, n)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, e)
}

type neighboursResponse struct {
	Previous *model.Entry `json:"previous"`
	Next     *model.Entry `json:"next"`
}

func (h *handlers) getEntryNeighbours(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	e, err := h.Store.GetEntry(id)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	prev, next, err := search.Neighbours(h.Store, e)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, neighboursResponse{Previous: prev, Next: next})
}
