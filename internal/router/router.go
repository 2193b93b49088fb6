// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/JakubGluszek/ludicrum/internal/handler"
	"github.com/JakubGluszek/ludicrum/internal/middleware"
)

// Middlewares carries the cross-cutting middleware applied when routes
// are registered. Cache fronts the public read endpoints; RateLimit
// wraps everything that writes. Either may be a pass-through when the
// backing redis is unavailable.
type Middlewares struct {
	Cache     echo.MiddlewareFunc
	RateLimit echo.MiddlewareFunc
}

// RegisterRoutes registers the full API surface on the provided Echo
// instance. The route table mirrors the two RPC namespaces of the
// original client: events.* and reviews.*.
//
// Authentication is layered per operation: public reads take no
// middleware, create/delete take OptionalJWTAuth because anonymous
// events may be added by anyone and finished anonymous events cleaned
// up by anyone, and everything owner-scoped takes JWTAuth.
func RegisterRoutes(e *echo.Echo, ev *handler.EventHandler, rv *handler.ReviewHandler, jwtSecret string, mw Middlewares) {
	e.GET("/healthz", handler.Health)

	required := middleware.JWTAuth(jwtSecret)
	optional := middleware.OptionalJWTAuth(jwtSecret)

	// events.* — public reads, cached.
	e.GET("/v1/events", ev.List, mw.Cache)
	e.GET("/v1/events/:id", ev.Detail, mw.Cache)

	// events.* — caller-scoped reads and writes.
	e.GET("/v1/events/mine", ev.Mine, required)
	e.POST("/v1/events", ev.Create, optional, mw.RateLimit)
	e.PATCH("/v1/events/:id", ev.Update, required, mw.RateLimit)
	e.DELETE("/v1/events/:id", ev.Delete, optional, mw.RateLimit)
	e.POST("/v1/events/review-code", ev.GenerateReviewCode, required, mw.RateLimit)
	e.POST("/v1/events/:id/review-code", ev.GenerateReviewCodeByID, required, mw.RateLimit)

	// reviews.*
	e.GET("/v1/events/:id/reviews", rv.List)
	e.POST("/v1/events/:id/reviews", rv.Create, required, mw.RateLimit)
	e.DELETE("/v1/events/:eventId/reviews/:id", rv.Delete, required, mw.RateLimit)
}
