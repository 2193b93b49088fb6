package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/JakubGluszek/ludicrum/internal/middleware"
	"github.com/JakubGluszek/ludicrum/internal/model"
	"github.com/JakubGluszek/ludicrum/internal/queue"
)

// ReviewHandler exposes review submission and removal. Submission is
// where the review code protocol plays out: for hosted events the
// store consumes the code atomically alongside the insert, so the
// handler only validates shape and translates outcomes.
type ReviewHandler struct {
	Deps
}

// NewReviewHandler constructs a ReviewHandler. All stores must be
// non-nil.
func NewReviewHandler(deps Deps) *ReviewHandler {
	deps.fill()
	return &ReviewHandler{Deps: deps}
}

// List handles GET /v1/events/:id/reviews. Open to anyone; an unknown
// event id simply yields an empty list.
func (h *ReviewHandler) List(c echo.Context) error {
	reviews, err := h.Reviews.ListByEvent(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeStoreError(c, err)
	}
	return c.JSON(http.StatusOK, reviews)
}

// Create handles POST /v1/events/:id/reviews. The event must have
// started; hosted events additionally require the current review code,
// which is consumed on success. One review per user per event, with
// the store's unique index as the authority under races.
func (h *ReviewHandler) Create(c echo.Context) error {
	ident, ok := middleware.CallerIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var in model.CreateReviewInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := in.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx := c.Request().Context()
	if err := h.Users.Upsert(ctx, ident.User()); err != nil {
		return writeStoreError(c, err)
	}
	eventID := c.Param("id")
	rv, err := h.Reviews.Create(ctx, eventID, ident.ID, in, h.Now())
	if err != nil {
		return writeStoreError(c, err)
	}

	h.notify(queue.KindReviewCreated, eventID, "", ident.ID, rv.Rating)
	return c.JSON(http.StatusCreated, model.ReviewWithAuthor{Review: *rv, Author: ident.User()})
}

// Delete handles DELETE /v1/events/:eventId/reviews/:id. Only the
// author may remove their review; the compound key filter reports
// anything else as not found.
func (h *ReviewHandler) Delete(c echo.Context) error {
	ident, ok := middleware.CallerIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id := c.Param("id")
	if err := h.Reviews.Delete(c.Request().Context(), id, c.Param("eventId"), ident.ID); err != nil {
		return writeStoreError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id})
}
