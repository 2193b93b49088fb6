package middleware

// identity.go defines helpers shared across middleware files and used
// by handlers to read the identity placed in context by JWTAuth and
// OptionalJWTAuth.

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/JakubGluszek/ludicrum/internal/model"
)

var errInvalidToken = errors.New("invalid token")

// CallerIdentity extracts the verified identity from the Echo context.
// The second return value is false for guests (no identity present).
func CallerIdentity(c echo.Context) (model.Identity, bool) {
	id, ok := c.Get("user_id").(string)
	if !ok || id == "" {
		return model.Identity{}, false
	}
	ident := model.Identity{ID: id}
	if v, ok := c.Get("user_name").(string); ok && v != "" {
		ident.Name = &v
	}
	if v, ok := c.Get("user_image").(string); ok && v != "" {
		ident.Image = &v
	}
	return ident, true
}

// callerKey returns a stable per-caller key fragment for rate limit
// buckets: the user id when authenticated, "anon" otherwise.
func callerKey(c echo.Context) string {
	if id, ok := c.Get("user_id").(string); ok && id != "" {
		return id
	}
	return "anon"
}
