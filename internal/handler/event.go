package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/JakubGluszek/ludicrum/internal/middleware"
	"github.com/JakubGluszek/ludicrum/internal/model"
	"github.com/JakubGluszek/ludicrum/internal/queue"
	"github.com/JakubGluszek/ludicrum/internal/repository"
)

// EventHandler exposes the event lifecycle: browsing the map's event
// list, creating hosted or anonymous events, host-only updates and
// review code issuance, and the two-path delete rule. Authentication
// requirements are enforced per method; routes decide which variant of
// the JWT middleware wraps each one.
type EventHandler struct {
	Deps
}

// NewEventHandler constructs an EventHandler. All stores must be
// non-nil.
func NewEventHandler(deps Deps) *EventHandler {
	deps.fill()
	return &EventHandler{Deps: deps}
}

// List handles GET /v1/events. It returns every event with host
// profiles attached, in insertion order, for the map to render as
// markers. Open to anyone.
func (h *EventHandler) List(c echo.Context) error {
	events, err := h.Events.ListAll(c.Request().Context())
	if err != nil {
		return writeStoreError(c, err)
	}
	return c.JSON(http.StatusOK, events)
}

// Detail handles GET /v1/events/:id. It returns one event with its
// host's profile and all reviews with author profiles. Open to anyone.
func (h *EventHandler) Detail(c echo.Context) error {
	id := c.Param("id")
	ctx := c.Request().Context()
	ev, err := h.Events.GetWithHost(ctx, id)
	if err != nil {
		return writeStoreError(c, err)
	}
	reviews, err := h.Reviews.ListByEvent(ctx, id)
	if err != nil {
		return writeStoreError(c, err)
	}
	return c.JSON(http.StatusOK, model.EventDetail{Event: ev.Event, Host: ev.Host, Reviews: reviews})
}

// Mine handles GET /v1/events/mine. It returns the caller's hosted
// event, review code included so the host can render it as a QR code.
func (h *EventHandler) Mine(c echo.Context) error {
	ident, ok := middleware.CallerIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ev, err := h.Events.GetByHost(c.Request().Context(), ident.ID)
	if err != nil {
		return writeStoreError(c, err)
	}
	return c.JSON(http.StatusOK, model.HostedEvent{Event: *ev, ReviewCode: ev.ReviewCode})
}

// Create handles POST /v1/events. Anyone may add an anonymous event;
// hosting requires authentication and is limited to one active hosted
// event per user, enforced by the store's unique index rather than any
// read-then-write check.
func (h *EventHandler) Create(c echo.Context) error {
	var in model.CreateEventInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := in.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ident, authed := middleware.CallerIdentity(c)
	if in.IsHost && !authed {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "must be signed in to host an event"})
	}

	ctx := c.Request().Context()
	ev := model.Event{
		Title:       in.Title,
		Description: in.Description,
		Lat:         in.Lat,
		Lng:         in.Lng,
		Date:        in.Date.UTC(),
		DateEnd:     in.DateEnd.UTC(),
	}
	var host *model.User
	if in.IsHost {
		if err := h.Users.Upsert(ctx, ident.User()); err != nil {
			return writeStoreError(c, err)
		}
		id := ident.ID
		ev.UserID = &id
		u := ident.User()
		host = &u
	}

	if err := h.Events.Create(ctx, &ev); err != nil {
		return writeStoreError(c, err)
	}

	h.Invalidate(ctx)
	callerID := ""
	if authed {
		callerID = ident.ID
	}
	h.notify(queue.KindEventCreated, ev.ID, ev.Title, callerID, 0)
	return c.JSON(http.StatusCreated, model.EventWithHost{Event: ev, Host: host})
}

// Update handles PATCH /v1/events/:id. Only the current host may
// update; the store's compound (id, host) filter makes someone else's
// event look absent. Submitted start/end times are validated against
// the merged schedule.
func (h *EventHandler) Update(c echo.Context) error {
	ident, ok := middleware.CallerIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var in model.UpdateEventInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if in.Empty() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no fields to update"})
	}
	if err := in.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx := c.Request().Context()
	ev, err := h.Events.Update(ctx, c.Param("id"), ident.ID, in)
	if err != nil {
		return writeStoreError(c, err)
	}
	h.Invalidate(ctx)
	return c.JSON(http.StatusOK, ev)
}

// Delete handles DELETE /v1/events/:id. The host may always delete
// their event; any caller, authenticated or not, may clean up an
// unhosted event once its end time has passed. Reviews go with the
// event.
func (h *EventHandler) Delete(c echo.Context) error {
	var callerID *string
	callerLabel := ""
	if ident, ok := middleware.CallerIdentity(c); ok {
		id := ident.ID
		callerID = &id
		callerLabel = id
	}

	ctx := c.Request().Context()
	id := c.Param("id")
	if err := h.Events.Delete(ctx, id, callerID, h.Now()); err != nil {
		return writeStoreError(c, err)
	}
	h.Invalidate(ctx)
	h.notify(queue.KindEventDeleted, id, "", callerLabel, 0)
	return c.JSON(http.StatusOK, echo.Map{"id": id})
}

// GenerateReviewCode handles POST /v1/events/review-code. The caller's
// hosted event is looked up by their identity; a fresh single-use code
// replaces whatever code was active before.
func (h *EventHandler) GenerateReviewCode(c echo.Context) error {
	ident, ok := middleware.CallerIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	code, err := repository.NewReviewCode(h.CodeLen)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to generate review code"})
	}
	if _, err := h.Events.SetReviewCodeByHost(c.Request().Context(), ident.ID, code); err != nil {
		return writeStoreError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reviewCode": code})
}

// GenerateReviewCodeByID handles POST /v1/events/:id/review-code, the
// id-parameterized variant. The caller must host the named event.
func (h *EventHandler) GenerateReviewCodeByID(c echo.Context) error {
	ident, ok := middleware.CallerIdentity(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	code, err := repository.NewReviewCode(h.CodeLen)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to generate review code"})
	}
	if _, err := h.Events.SetReviewCodeByID(c.Request().Context(), c.Param("id"), ident.ID, code); err != nil {
		return writeStoreError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reviewCode": code})
}
