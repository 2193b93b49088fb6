// Package queue defines message payloads exchanged over the message broker.
package queue

// ActivityQueueName is the durable queue carrying lifecycle notifications.
const ActivityQueueName = "ludicrum.activity"

// Kinds of activity messages.
const (
	KindEventCreated  = "event.created"
	KindEventDeleted  = "event.deleted"
	KindReviewCreated = "review.created"
)

// ActivityMessage is published when an event is created or deleted and
// when a review is posted. It contains enough information for
// downstream consumers to log or notify without querying the primary
// database. UserID is empty for anonymous actions.
type ActivityMessage struct {
	Kind       string `json:"kind"`
	EventID    string `json:"event_id"`
	EventTitle string `json:"event_title,omitempty"`
	UserID     string `json:"user_id,omitempty"`
	Rating     int    `json:"rating,omitempty"`
	OccurredAt string `json:"occurred_at"`
}
