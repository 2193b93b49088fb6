package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatActivity(t *testing.T) {
	cases := []struct {
		name string
		msg  ActivityMessage
		want string
	}{
		{
			"hosted event created",
			ActivityMessage{
				Kind: KindEventCreated, EventID: "ev-1", EventTitle: "Fire juggling",
				UserID: "user-1", OccurredAt: "2024-06-01T18:00:00Z",
			},
			`[2024-06-01T18:00:00Z] event created | event_id=ev-1 | title="Fire juggling" | user_id=user-1`,
		},
		{
			"anonymous event created",
			ActivityMessage{
				Kind: KindEventCreated, EventID: "ev-2", EventTitle: "Street violin",
				OccurredAt: "2024-06-01T18:00:00Z",
			},
			`[2024-06-01T18:00:00Z] event created | event_id=ev-2 | title="Street violin" | user_id=anonymous`,
		},
		{
			"event deleted",
			ActivityMessage{
				Kind: KindEventDeleted, EventID: "ev-1", UserID: "user-1",
				OccurredAt: "2024-06-01T21:00:00Z",
			},
			"[2024-06-01T21:00:00Z] event deleted | event_id=ev-1 | user_id=user-1",
		},
		{
			"review posted",
			ActivityMessage{
				Kind: KindReviewCreated, EventID: "ev-1", UserID: "user-2", Rating: 5,
				OccurredAt: "2024-06-01T19:00:00Z",
			},
			"[2024-06-01T19:00:00Z] review posted | event_id=ev-1 | user_id=user-2 | rating=5",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatActivity(tc.msg))
		})
	}
}
