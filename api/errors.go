package api

import (
	"errors"
	"net/http"

	"elogy.dev/core/model"
	"github.com/labstack/echo/v4"
)

// errorResponse is the JSON shape every failed request returns.
type errorResponse struct {
	Error string      `json:"error"`
	Lock  *model.Lock `json:"lock,omitempty"`
}

// writeError maps a domain error to its HTTP status:
// NotFound→404, ValidationError→400 (shape) or 422 (attribute),
// ConflictStale/ConflictLocked/Integrity→409, anything else→500 (logged).
func writeError(c echo.Context, logger interface {
	Error(args ...interface{})
}, err error) error {
	var nf *model.NotFoundError
	var ve *model.ValidationError
	var cs *model.ConflictStaleError
	var cl *model.ConflictLockedError
	var ie *model.IntegrityError

	switch {
	case errors.As(err, &nf):
		return c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.As(err, &ve):
		code := http.StatusBadRequest
		if ve.Attribute {
			code = http.StatusUnprocessableEntity
		}
		return c.JSON(code, errorResponse{Error: err.Error()})
	case errors.As(err, &cs):
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.As(err, &cl):
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error(), Lock: cl.Lock})
	case errors.As(err, &ie):
		return c.JSON(http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		logger.Error(err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
