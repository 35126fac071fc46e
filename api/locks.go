package api

import (
	"net/http"

	"elogy.dev/core/lockmgr"
	"github.com/labstack/echo/v4"
)

func (h *handlers) getLock(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	lock, err := lockmgr.GetLock(h.Store, id, c.RealIP(), false, false)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, lock)
}

func (h *handlers) acquireLock(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	steal := c.QueryParam("steal") == "true"
	lock, err := lockmgr.GetLock(h.Store, id, c.RealIP(), true, steal)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, lock)
}

func (h *handlers) cancelLock(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	lock, err := lockmgr.GetLock(h.Store, id, c.RealIP(), false, false)
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	if lock == nil {
		return c.NoContent(http.StatusOK)
	}
	cancelled, err := lockmgr.CancelLock(h.Store, lock.ID, c.RealIP())
	if err != nil {
		return writeError(c, h.Logger, err)
	}
	return c.JSON(http.StatusOK, cancelled)
}
