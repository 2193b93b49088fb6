package model

import (
	"errors"
	"strings"
	"time"
)

// Event represents a street performance placed on the map. An event may
// be hosted (UserID set to the host's identity) or anonymous (UserID
// nil, typically a performance someone spotted and added for others).
// ReviewCode holds the single-use token issued by the host that gates
// review submission; it is nil whenever no unconsumed code exists.
//
// Fields:
//  ID          – UUID primary key, generated on creation.
//  Title       – short event name (4–64 characters).
//  Description – longer blurb (16–512 characters).
//  Lat, Lng    – map coordinates as decimal strings.
//  Date        – when the performance starts (UTC).
//  DateEnd     – when it ends; never before Date.
//  UserID      – hosting user, nil for anonymous events.
//  ReviewCode  – active review token, nil when absent or consumed.
//  CreatedAt   – row creation timestamp.
type Event struct {
	ID          string    `json:"id"`          // events.id
	Title       string    `json:"title"`       // events.title
	Description string    `json:"description"` // events.description
	Lat         string    `json:"lat"`         // events.lat
	Lng         string    `json:"lng"`         // events.lng
	Date        time.Time `json:"date"`        // events.starts_at
	DateEnd     time.Time `json:"dateEnd"`     // events.ends_at
	UserID      *string   `json:"userId"`      // events.user_id (nullable)
	ReviewCode  *string   `json:"-"`           // events.review_code; exposed only to the host
	CreatedAt   time.Time `json:"createdAt"`   // events.created_at
}

// Hosted reports whether the event has a host. Unhosted events require
// no review code and may be cleaned up by anyone once finished.
func (e *Event) Hosted() bool { return e.UserID != nil }

// Finished reports whether the event's end time has passed at the given
// instant.
func (e *Event) Finished(now time.Time) bool { return e.DateEnd.Before(now) }

// Started reports whether the event has begun at the given instant.
// Reviews may only be posted for events that have started.
func (e *Event) Started(now time.Time) bool { return !e.Date.After(now) }

// EventWithHost pairs an event with its host's public profile for list
// and detail responses. The Host field is nil for anonymous events.
type EventWithHost struct {
	Event
	Host *User `json:"user"`
}

// HostedEvent is the my-event response shape: unlike public responses
// it carries the active review code so the host can display it as a QR.
type HostedEvent struct {
	Event
	ReviewCode *string `json:"reviewCode"`
}

// EventDetail is the full detail response: the event, its host profile
// and every review with author identity attached.
type EventDetail struct {
	Event
	Host    *User              `json:"user"`
	Reviews []ReviewWithAuthor `json:"reviews"`
}

// Bounds on user supplied event fields. The client pre-validates the
// same limits; the service rejects violations regardless.
const (
	TitleMinLen       = 4
	TitleMaxLen       = 64
	DescriptionMinLen = 16
	DescriptionMaxLen = 512
)

var (
	// ErrTitleLength is returned when the title is outside 4–64 characters.
	ErrTitleLength = errors.New("title must be between 4 and 64 characters")
	// ErrDescriptionLength is returned when the description is outside 16–512 characters.
	ErrDescriptionLength = errors.New("description must be between 16 and 512 characters")
	// ErrDateOrder is returned when an event would end before it starts.
	ErrDateOrder = errors.New("event cannot end before it starts")
	// ErrCoordinates is returned when lat/lng are missing.
	ErrCoordinates = errors.New("lat and lng are required")
)

// CreateEventInput is the payload for creating an event. IsHost
// requests that the authenticated caller become the event's host; an
// unauthenticated caller asking to host is rejected outright.
type CreateEventInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Lat         string    `json:"lat"`
	Lng         string    `json:"lng"`
	Date        time.Time `json:"date"`
	DateEnd     time.Time `json:"dateEnd"`
	IsHost      bool      `json:"isHost"`
}

// Validate normalizes and checks the input against the field bounds.
// It trims surrounding whitespace before measuring lengths so padded
// titles cannot sneak past the minimum.
func (in *CreateEventInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if n := len([]rune(in.Title)); n < TitleMinLen || n > TitleMaxLen {
		return ErrTitleLength
	}
	if n := len([]rune(in.Description)); n < DescriptionMinLen || n > DescriptionMaxLen {
		return ErrDescriptionLength
	}
	if strings.TrimSpace(in.Lat) == "" || strings.TrimSpace(in.Lng) == "" {
		return ErrCoordinates
	}
	if in.DateEnd.Before(in.Date) {
		return ErrDateOrder
	}
	return nil
}

// UpdateEventInput carries a partial update. Nil fields are left
// untouched. Times submitted here are validated against the merged
// schedule (stored value plus whichever of the pair was supplied).
type UpdateEventInput struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Lat         *string    `json:"lat"`
	Lng         *string    `json:"lng"`
	Date        *time.Time `json:"date"`
	DateEnd     *time.Time `json:"dateEnd"`
}

// Empty reports whether the update carries no fields at all.
func (in *UpdateEventInput) Empty() bool {
	return in.Title == nil && in.Description == nil && in.Lat == nil &&
		in.Lng == nil && in.Date == nil && in.DateEnd == nil
}

// Validate checks the supplied fields in isolation: length bounds for
// title and description. Date ordering is checked later against the
// stored row, since either end of the pair may be absent here.
func (in *UpdateEventInput) Validate() error {
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if n := len([]rune(t)); n < TitleMinLen || n > TitleMaxLen {
			return ErrTitleLength
		}
		in.Title = &t
	}
	if in.Description != nil {
		d := strings.TrimSpace(*in.Description)
		if n := len([]rune(d)); n < DescriptionMinLen || n > DescriptionMaxLen {
			return ErrDescriptionLength
		}
		in.Description = &d
	}
	return nil
}
