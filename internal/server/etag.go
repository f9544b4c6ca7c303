package server

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/kemkem23/raceboard/internal/errors"
)

// computeETag fingerprints a response body as a quoted hex digest. Identical
// content always yields the identical tag.
func computeETag(body []byte) string {
	sum := md5.Sum(body)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

// respondCached sends body as JSON with an ETag header, answering a matching
// If-None-Match with 304 and no body.
func respondCached(c echo.Context, body any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return apperrors.InternalError("failed to serialize response", err)
	}
	etag := computeETag(buf)
	c.Response().Header().Set("ETag", etag)
	if c.Request().Header.Get("If-None-Match") == etag {
		return c.NoContent(http.StatusNotModified)
	}
	return c.JSONBlob(http.StatusOK, buf)
}
