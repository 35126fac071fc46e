// Package api implements the HTTP surface: JSON request/response mapping
// onto the logbook.Service domain model, the Search Engine, the Lock
// Manager, and the Attachment Pipeline, built on Echo.
package api

import (
	"elogy.dev/core/attachment"
	"elogy.dev/core/logbook"
	"elogy.dev/core/searchcache"
	"elogy.dev/core/store"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Deps bundles every collaborator the route handlers need.
type Deps struct {
	Logbook  *logbook.Service
	Store    *store.Store
	Pipeline *attachment.Pipeline
	Cache    *searchcache.Cache
	Logger   *logrus.Logger
}

// handlers carries Deps plus the small amount of per-request-independent
// state (none, currently) the route closures need.
type handlers struct {
	Deps
}

// SetupRoutes mounts every route of the HTTP API under /api.
func SetupRoutes(e *echo.Echo, deps Deps) {
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}
	h := &handlers{Deps: deps}

	g := e.Group("/api")

	g.GET("/logbooks/", h.listTopLevelLogbooks)
	g.POST("/logbooks/", h.createTopLevelLogbook)
	g.GET("/logbooks/:id/", h.getLogbook)
	g.POST("/logbooks/:id/", h.createChildLogbook)
	g.PUT("/logbooks/:id/", h.updateLogbook)
	g.GET("/logbooks/:id/revisions/", h.listLogbookRevisions)
	g.GET("/logbooks/:id/revisions/:n/", h.getLogbookRevision)
	g.GET("/logbooks/:id/tree/", h.listLogbookTree)
	g.GET("/logbooks/tree/", h.listLogbookTree)
	g.GET("/logbooks/:id/attribute-values/", h.distinctAttributeValues)

	g.GET("/logbooks/:id/entries/", h.searchEntries)
	g.POST("/logbooks/:id/entries/", h.createEntry)
	g.POST("/logbooks/:id/entries/:eid/", h.createFollowup)

	g.GET("/entries/:id/", h.getEntry)
	g.PUT("/entries/:id/", h.updateEntry)
	g.GET("/entries/:id/revisions/:n", h.getEntryRevision)
	g.GET("/entries/:id/neighbours", h.getEntryNeighbours)
	g.GET("/logbooks/:lid/entries/:id/", h.getEntry)
	g.PUT("/logbooks/:lid/entries/:id/", h.updateEntry)

	g.GET("/entries/:id/lock", h.getLock)
	g.POST("/entries/:id/lock", h.acquireLock)
	g.DELETE("/entries/:id/lock", h.cancelLock)

	g.POST("/logbooks/:lid/entries/:eid/attachments/", h.uploadAttachment)
	g.DELETE("/logbooks/:lid/entries/:eid/attachments/", h.deleteAttachment)

	g.GET("/users/", h.listUsers)

	e.GET("/attachments/*", h.getAttachment)
}
