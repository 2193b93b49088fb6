// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to perform an operation on a resource owned by someone
// else, while ErrAlreadyHosting signals that the atomic one-hosted-
// event-per-user constraint rejected an insert.
package repository

import "errors"

// ErrNotFound is returned when a requested row does not exist, or when
// an ownership-filtered write matched no row. The two cases are
// deliberately indistinguishable so that callers cannot probe for the
// existence of other users' events. Handlers should translate this
// into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they are identified against but not entitled to, such as
// deleting a hosted event they do not host. Handlers should translate
// this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrAlreadyHosting is returned when the unique index on events.user_id
// rejects a hosted insert because the caller already hosts an active
// event. Handlers should translate this into an HTTP 409 response.
var ErrAlreadyHosting = errors.New("already hosting an event")

// ErrDuplicateReview is returned when the composite unique index on
// (user_id, event_id) rejects a review insert. Handlers should
// translate this into an HTTP 409 response.
var ErrDuplicateReview = errors.New("can only post 1 review per event")

// ErrCodeMismatch is returned when the supplied review code does not
// match the event's current code, including the case where a valid code
// was already consumed by another reviewer. Handlers should translate
// this into an HTTP 403 response.
var ErrCodeMismatch = errors.New("review code does not match")

// ErrNotStarted is returned when a review is submitted for an event
// whose start time is still in the future. Handlers should translate
// this into an HTTP 400 response.
var ErrNotStarted = errors.New("event hasn't begun yet")
