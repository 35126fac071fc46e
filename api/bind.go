package api

import (
	"bytes"
	"encoding/json"
	"io"

	"elogy.dev/core/model"
	"github.com/labstack/echo/v4"
)

// bindWithPresence binds the request body into dst via echo's default Bind
// and also returns the raw top-level JSON keys present in the body, so
// handlers can distinguish "field not supplied" from "field supplied as its
// zero value" on PUT requests that update a subset of fields.
func bindWithPresence(c echo.Context, dst interface{}) (map[string]json.RawMessage, error) {
	req := c.Request()
	raw := map[string]json.RawMessage{}
	if req.Body != nil {
		data, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, model.NewValidationError("body", "unreadable body")
		}
		req.Body = io.NopCloser(bytes.NewReader(data))
		_ = json.Unmarshal(data, &raw)
	}
	if err := c.Bind(dst); err != nil {
		return nil, model.NewValidationError("body", "malformed JSON")
	}
	return raw, nil
}
