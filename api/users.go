package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// listUsers implements the shape of the GET /users/ autocomplete endpoint.
// Directory lookup itself (LDAP or similar) is out of scope: authentication
// and authorisation are not this core's concern. This always returns
// an empty result set so callers can wire a real directory behind it without
// an API change.
func (h *handlers) listUsers(c echo.Context) error {
	return c.JSON(http.StatusOK, []struct{}{})
}
