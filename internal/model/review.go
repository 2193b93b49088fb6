package model

import (
	"errors"
	"strings"
	"time"
)

// Review is a rating with optional comment attached to one event by one
// user. A user may post at most one review per event; that uniqueness
// is enforced by the database, not here. Reviews are never edited, only
// deleted by their author.
//
// Fields:
//  ID        – UUID primary key, generated on creation.
//  EventID   – owning event; removed together with it.
//  UserID    – review author.
//  Rating    – 1–5 inclusive.
//  Body      – optional comment (1–256 characters).
//  CreatedAt – row creation timestamp.
type Review struct {
	ID        string    `json:"id"`        // event_reviews.id
	EventID   string    `json:"eventId"`   // event_reviews.event_id
	UserID    string    `json:"userId"`    // event_reviews.user_id
	Rating    int       `json:"rating"`    // event_reviews.rating
	Body      *string   `json:"body"`      // event_reviews.body (nullable)
	CreatedAt time.Time `json:"createdAt"` // event_reviews.created_at
}

// ReviewWithAuthor pairs a review with its author's public profile.
type ReviewWithAuthor struct {
	Review
	Author User `json:"user"`
}

// Bounds on user supplied review fields.
const (
	RatingMin  = 1
	RatingMax  = 5
	BodyMaxLen = 256
)

var (
	// ErrRatingRange is returned when the rating falls outside 1–5.
	ErrRatingRange = errors.New("rating must be between 1 and 5")
	// ErrBodyLength is returned when the comment is empty or too long.
	ErrBodyLength = errors.New("review body must be between 1 and 256 characters")
)

// CreateReviewInput is the payload for posting a review. Code carries
// the host issued review token; it is required only for hosted events.
type CreateReviewInput struct {
	Rating int     `json:"rating"`
	Body   *string `json:"body"`
	Code   *string `json:"code"`
}

// Validate checks rating and body bounds. A present-but-blank body is
// rejected rather than silently dropped.
func (in *CreateReviewInput) Validate() error {
	if in.Rating < RatingMin || in.Rating > RatingMax {
		return ErrRatingRange
	}
	if in.Body != nil {
		b := strings.TrimSpace(*in.Body)
		if n := len([]rune(b)); n < 1 || n > BodyMaxLen {
			return ErrBodyLength
		}
		in.Body = &b
	}
	return nil
}
