package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/JakubGluszek/ludicrum/internal/model"
	"github.com/JakubGluszek/ludicrum/internal/queue"
	"github.com/JakubGluszek/ludicrum/internal/repository"
	queue_publisher "github.com/JakubGluszek/ludicrum/internal/service"
)

// EventStore is the persistence surface the event handlers depend on.
// It is implemented by repository.EventRepo; tests substitute mocks.
type EventStore interface {
	ListAll(ctx context.Context) ([]model.EventWithHost, error)
	GetWithHost(ctx context.Context, id string) (*model.EventWithHost, error)
	GetByHost(ctx context.Context, hostID string) (*model.Event, error)
	Create(ctx context.Context, e *model.Event) error
	Update(ctx context.Context, id, hostID string, in model.UpdateEventInput) (*model.Event, error)
	SetReviewCodeByHost(ctx context.Context, hostID, code string) (*model.Event, error)
	SetReviewCodeByID(ctx context.Context, id, hostID, code string) (*model.Event, error)
	Delete(ctx context.Context, id string, callerID *string, now time.Time) error
}

// ReviewStore is the persistence surface the review handlers depend on.
// Implemented by repository.ReviewRepo.
type ReviewStore interface {
	ListByEvent(ctx context.Context, eventID string) ([]model.ReviewWithAuthor, error)
	Create(ctx context.Context, eventID, userID string, in model.CreateReviewInput, now time.Time) (*model.Review, error)
	Delete(ctx context.Context, id, eventID, userID string) error
}

// UserStore maintains the local mirror of identity provider profiles.
// Implemented by repository.UserRepo.
type UserStore interface {
	Upsert(ctx context.Context, u model.User) error
}

// Deps bundles the collaborators every handler shares. Now, Publish
// and Invalidate default to the real clock, the rabbitmq publisher and
// a no-op respectively; tests and main override as needed.
type Deps struct {
	Events  EventStore
	Reviews ReviewStore
	Users   UserStore
	CodeLen int

	Now        func() time.Time
	Publish    func(ctx context.Context, msg queue.ActivityMessage) error
	Invalidate func(ctx context.Context)
}

// fill applies defaults and panics on missing stores, mirroring
// construction-time dependency checks elsewhere in the codebase.
func (d *Deps) fill() {
	if d.Events == nil || d.Reviews == nil || d.Users == nil {
		panic("nil store passed to handler")
	}
	if d.CodeLen <= 0 {
		d.CodeLen = 8
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Publish == nil {
		d.Publish = queue_publisher.PublishActivity
	}
	if d.Invalidate == nil {
		d.Invalidate = func(context.Context) {}
	}
}

// notify publishes an activity message without blocking the request.
// Publish failures are the publisher's problem to log; lifecycle
// operations never fail because the broker is down.
func (d *Deps) notify(kind, eventID, title, userID string, rating int) {
	msg := queue.ActivityMessage{
		Kind:       kind,
		EventID:    eventID,
		EventTitle: title,
		UserID:     userID,
		Rating:     rating,
		OccurredAt: d.Now().UTC().Format(time.RFC3339),
	}
	go func() { _ = d.Publish(context.Background(), msg) }()
}

// writeStoreError translates repository sentinels into HTTP responses.
// Unknown errors become opaque 500s; nothing here is fatal to the
// process.
func writeStoreError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrAlreadyHosting):
		return c.JSON(http.StatusConflict, echo.Map{"error": repository.ErrAlreadyHosting.Error()})
	case errors.Is(err, repository.ErrDuplicateReview):
		return c.JSON(http.StatusConflict, echo.Map{"error": "Can only post 1 review per event"})
	case errors.Is(err, repository.ErrCodeMismatch):
		return c.JSON(http.StatusForbidden, echo.Map{
			"error": "Ask the event host for QR code to scan & get review code. (anti spam measure)",
		})
	case errors.Is(err, repository.ErrNotStarted):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": repository.ErrNotStarted.Error()})
	case errors.Is(err, model.ErrDateOrder):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": model.ErrDateOrder.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
}
