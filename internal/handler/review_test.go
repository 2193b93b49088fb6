package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/JakubGluszek/ludicrum/internal/model"
	"github.com/JakubGluszek/ludicrum/internal/queue"
	"github.com/JakubGluszek/ludicrum/internal/repository"
)

func TestReviewList(t *testing.T) {
	deps, _, reviews, _ := newTestDeps()
	h := NewReviewHandler(deps)

	reviews.On("ListByEvent", mock.Anything, "ev-1").Return([]model.ReviewWithAuthor{
		{Review: model.Review{ID: "rv-1", Rating: 4}, Author: model.User{ID: "user-2"}},
	}, nil)

	c, rec := newContext(http.MethodGet, "/v1/events/ev-1/reviews", "")
	c.SetParamNames("id")
	c.SetParamValues("ev-1")
	require.NoError(t, h.List(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, float64(4), got[0]["rating"])
}

func TestReviewCreateGuest(t *testing.T) {
	deps, _, reviews, _ := newTestDeps()
	h := NewReviewHandler(deps)

	c, rec := newContext(http.MethodPost, "/v1/events/ev-1/reviews", `{"rating":5}`)
	c.SetParamNames("id")
	c.SetParamValues("ev-1")
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	reviews.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewCreateValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"rating too low", `{"rating":0}`},
		{"rating too high", `{"rating":6}`},
		{"blank body", `{"rating":3,"body":"   "}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deps, _, reviews, _ := newTestDeps()
			h := NewReviewHandler(deps)

			c, rec := newContext(http.MethodPost, "/v1/events/ev-1/reviews", tc.body)
			c.SetParamNames("id")
			c.SetParamValues("ev-1")
			authenticate(c, "user-2", "")
			require.NoError(t, h.Create(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			reviews.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestReviewCreate(t *testing.T) {
	deps, _, reviews, users := newTestDeps()
	h := NewReviewHandler(deps)

	users.On("Upsert", mock.Anything, mock.MatchedBy(func(u model.User) bool {
		return u.ID == "user-2"
	})).Return(nil)
	body := "Great show, caught it by accident"
	reviews.On("Create", mock.Anything, "ev-1", "user-2", mock.MatchedBy(func(in model.CreateReviewInput) bool {
		return in.Rating == 5 && in.Body != nil && *in.Body == body
	}), testNow).Return(&model.Review{
		ID: "rv-1", EventID: "ev-1", UserID: "user-2", Rating: 5, Body: &body, CreatedAt: testNow,
	}, nil)

	c, rec := newContext(http.MethodPost, "/v1/events/ev-1/reviews",
		fmt.Sprintf(`{"rating":5,"body":%q,"code":"AB12CD34"}`, body))
	c.SetParamNames("id")
	c.SetParamValues("ev-1")
	authenticate(c, "user-2", "Reviewer")
	require.NoError(t, h.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "rv-1", got["id"])
	author, ok := got["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "user-2", author["id"])
}

func TestReviewCreateErrorMapping(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"event not started", repository.ErrNotStarted, http.StatusBadRequest, "hasn't begun"},
		{"missing or stale code", repository.ErrCodeMismatch, http.StatusForbidden, "QR code"},
		{"second review", repository.ErrDuplicateReview, http.StatusConflict, "1 review per event"},
		{"unknown event", repository.ErrNotFound, http.StatusNotFound, "not found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deps, _, reviews, users := newTestDeps()
			h := NewReviewHandler(deps)

			users.On("Upsert", mock.Anything, mock.Anything).Return(nil)
			reviews.On("Create", mock.Anything, "ev-1", "user-2", mock.Anything, testNow).
				Return(nil, tc.err)

			c, rec := newContext(http.MethodPost, "/v1/events/ev-1/reviews", `{"rating":4,"code":"AB12CD34"}`)
			c.SetParamNames("id")
			c.SetParamValues("ev-1")
			authenticate(c, "user-2", "")
			require.NoError(t, h.Create(c))
			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.message)
		})
	}
}

func TestReviewDelete(t *testing.T) {
	deps, _, reviews, _ := newTestDeps()
	h := NewReviewHandler(deps)

	reviews.On("Delete", mock.Anything, "rv-1", "ev-1", "user-2").Return(nil)

	c, rec := newContext(http.MethodDelete, "/v1/events/ev-1/reviews/rv-1", "")
	c.SetParamNames("eventId", "id")
	c.SetParamValues("ev-1", "rv-1")
	authenticate(c, "user-2", "")
	require.NoError(t, h.Delete(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "rv-1")
}

func TestReviewDeleteNotAuthor(t *testing.T) {
	deps, _, reviews, _ := newTestDeps()
	h := NewReviewHandler(deps)

	reviews.On("Delete", mock.Anything, "rv-1", "ev-1", "intruder").
		Return(repository.ErrNotFound)

	c, rec := newContext(http.MethodDelete, "/v1/events/ev-1/reviews/rv-1", "")
	c.SetParamNames("eventId", "id")
	c.SetParamValues("ev-1", "rv-1")
	authenticate(c, "intruder", "")
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// fakeStore is an in-memory implementation of the three stores with the
// same transactional outcomes the database delivers: one hosted event
// per user, one review per user per event, and single-use review codes
// consumed together with the insert.
type fakeStore struct {
	mu      sync.Mutex
	events  map[string]*model.Event
	reviews map[string]*model.Review
	users   map[string]model.User
	nextID  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:  map[string]*model.Event{},
		reviews: map[string]*model.Review{},
		users:   map[string]model.User{},
	}
}

func (s *fakeStore) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%d", prefix, s.nextID)
}

func (s *fakeStore) ListAll(ctx context.Context) ([]model.EventWithHost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.EventWithHost
	for _, ev := range s.events {
		out = append(out, model.EventWithHost{Event: *ev})
	}
	return out, nil
}

func (s *fakeStore) GetWithHost(ctx context.Context, id string) (*model.EventWithHost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &model.EventWithHost{Event: *ev}, nil
}

func (s *fakeStore) GetByHost(ctx context.Context, hostID string) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range s.events {
		if ev.UserID != nil && *ev.UserID == hostID {
			cp := *ev
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeStore) Create(ctx context.Context, e *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.UserID != nil {
		for _, ev := range s.events {
			if ev.UserID != nil && *ev.UserID == *e.UserID {
				return repository.ErrAlreadyHosting
			}
		}
	}
	e.ID = s.id("ev")
	cp := *e
	s.events[e.ID] = &cp
	return nil
}

func (s *fakeStore) Update(ctx context.Context, id, hostID string, in model.UpdateEventInput) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok || ev.UserID == nil || *ev.UserID != hostID {
		return nil, repository.ErrNotFound
	}
	if in.Title != nil {
		ev.Title = *in.Title
	}
	if in.Date != nil {
		ev.Date = *in.Date
	}
	if in.DateEnd != nil {
		ev.DateEnd = *in.DateEnd
	}
	if ev.DateEnd.Before(ev.Date) {
		return nil, model.ErrDateOrder
	}
	cp := *ev
	return &cp, nil
}

func (s *fakeStore) SetReviewCodeByHost(ctx context.Context, hostID, code string) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range s.events {
		if ev.UserID != nil && *ev.UserID == hostID {
			ev.ReviewCode = &code
			cp := *ev
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeStore) SetReviewCodeByID(ctx context.Context, id, hostID, code string) (*model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok || ev.UserID == nil || *ev.UserID != hostID {
		return nil, repository.ErrNotFound
	}
	ev.ReviewCode = &code
	cp := *ev
	return &cp, nil
}

func (s *fakeStore) Delete(ctx context.Context, id string, callerID *string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return repository.ErrNotFound
	}
	if ev.UserID != nil {
		if callerID == nil || *callerID != *ev.UserID {
			return repository.ErrForbidden
		}
	} else if !ev.DateEnd.Before(now) {
		return repository.ErrForbidden
	}
	delete(s.events, id)
	for rid, rv := range s.reviews {
		if rv.EventID == id {
			delete(s.reviews, rid)
		}
	}
	return nil
}

func (s *fakeStore) ListByEvent(ctx context.Context, eventID string) ([]model.ReviewWithAuthor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.ReviewWithAuthor
	for _, rv := range s.reviews {
		if rv.EventID == eventID {
			out = append(out, model.ReviewWithAuthor{Review: *rv, Author: s.users[rv.UserID]})
		}
	}
	return out, nil
}

func (s *fakeStore) CreateReview(ctx context.Context, eventID, userID string, in model.CreateReviewInput, now time.Time) (*model.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[eventID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if ev.Date.After(now) {
		return nil, repository.ErrNotStarted
	}
	if ev.UserID != nil {
		if in.Code == nil || ev.ReviewCode == nil || *in.Code != *ev.ReviewCode {
			return nil, repository.ErrCodeMismatch
		}
	}
	for _, rv := range s.reviews {
		if rv.EventID == eventID && rv.UserID == userID {
			return nil, repository.ErrDuplicateReview
		}
	}
	if ev.UserID != nil {
		ev.ReviewCode = nil
	}
	rv := &model.Review{
		ID: s.id("rv"), EventID: eventID, UserID: userID,
		Rating: in.Rating, Body: in.Body, CreatedAt: now,
	}
	s.reviews[rv.ID] = rv
	return rv, nil
}

func (s *fakeStore) DeleteReview(ctx context.Context, id, eventID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rv, ok := s.reviews[id]
	if !ok || rv.EventID != eventID || rv.UserID != userID {
		return repository.ErrNotFound
	}
	delete(s.reviews, id)
	return nil
}

func (s *fakeStore) Upsert(ctx context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

// fakeReviews adapts fakeStore's review methods to the ReviewStore
// method names.
type fakeReviews struct{ *fakeStore }

func (f fakeReviews) Create(ctx context.Context, eventID, userID string, in model.CreateReviewInput, now time.Time) (*model.Review, error) {
	return f.CreateReview(ctx, eventID, userID, in, now)
}

func (f fakeReviews) Delete(ctx context.Context, id, eventID, userID string) error {
	return f.DeleteReview(ctx, id, eventID, userID)
}

// TestReviewCodeLifecycle walks the full host and reviewer exchange:
// a hosted event takes no review before it starts, demands the current
// code once it has, consumes the code on the first accepted review and
// rejects reuse until the host issues a fresh one.
func TestReviewCodeLifecycle(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2024, 6, 1, 17, 0, 0, 0, time.UTC)
	deps := Deps{
		Events:     store,
		Reviews:    fakeReviews{store},
		Users:      store,
		CodeLen:    8,
		Now:        func() time.Time { return now },
		Publish:    func(context.Context, queue.ActivityMessage) error { return nil },
		Invalidate: func(context.Context) {},
	}
	eh := NewEventHandler(deps)
	rh := NewReviewHandler(deps)

	// Host creates their event, starting at 18:00.
	body := `{"title":"Fire juggling","description":"a perfectly fine description","lat":"52.1","lng":"21.0","date":"2024-06-01T18:00:00Z","dateEnd":"2024-06-01T20:00:00Z","isHost":true}`
	c, rec := newContext(http.MethodPost, "/v1/events", body)
	authenticate(c, "host-1", "Host")
	require.NoError(t, eh.Create(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	eventID := created["id"].(string)

	review := func(user, payload string) (int, string) {
		c, rec := newContext(http.MethodPost, "/v1/events/"+eventID+"/reviews", payload)
		c.SetParamNames("id")
		c.SetParamValues(eventID)
		authenticate(c, user, "")
		require.NoError(t, rh.Create(c))
		return rec.Code, rec.Body.String()
	}

	// Too early: the event has not started yet.
	code, msg := review("fan-1", `{"rating":5}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, msg, "hasn't begun")

	now = time.Date(2024, 6, 1, 18, 30, 0, 0, time.UTC)

	// Started, but no code issued yet.
	code, msg = review("fan-1", `{"rating":5}`)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Contains(t, msg, "QR code")

	// Host issues a code.
	c, rec = newContext(http.MethodPost, "/v1/events/review-code", "")
	authenticate(c, "host-1", "Host")
	require.NoError(t, eh.GenerateReviewCode(c))
	require.Equal(t, http.StatusOK, rec.Code)
	var issued map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &issued))
	token := issued["reviewCode"]
	require.Len(t, token, 8)

	// First reviewer consumes the code.
	code, _ = review("fan-1", fmt.Sprintf(`{"rating":5,"code":%q}`, token))
	assert.Equal(t, http.StatusCreated, code)

	// A second reviewer presenting the same code is turned away.
	code, msg = review("fan-2", fmt.Sprintf(`{"rating":4,"code":%q}`, token))
	assert.Equal(t, http.StatusForbidden, code)
	assert.Contains(t, msg, "QR code")

	// The first reviewer cannot post twice even with a fresh code.
	c, rec = newContext(http.MethodPost, "/v1/events/review-code", "")
	authenticate(c, "host-1", "Host")
	require.NoError(t, eh.GenerateReviewCode(c))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &issued))
	code, msg = review("fan-1", fmt.Sprintf(`{"rating":3,"code":%q}`, issued["reviewCode"]))
	assert.Equal(t, http.StatusConflict, code)
	assert.Contains(t, msg, "1 review per event")

	// The second reviewer succeeds with the fresh code.
	code, _ = review("fan-2", fmt.Sprintf(`{"rating":4,"code":%q}`, issued["reviewCode"]))
	assert.Equal(t, http.StatusCreated, code)
}
