package handler

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/JakubGluszek/ludicrum/internal/model"
)

// MockEventStore mocks the event persistence surface.
type MockEventStore struct {
	mock.Mock
}

func (m *MockEventStore) ListAll(ctx context.Context) ([]model.EventWithHost, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.EventWithHost), args.Error(1)
}

func (m *MockEventStore) GetWithHost(ctx context.Context, id string) (*model.EventWithHost, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EventWithHost), args.Error(1)
}

func (m *MockEventStore) GetByHost(ctx context.Context, hostID string) (*model.Event, error) {
	args := m.Called(ctx, hostID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *MockEventStore) Create(ctx context.Context, e *model.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockEventStore) Update(ctx context.Context, id, hostID string, in model.UpdateEventInput) (*model.Event, error) {
	args := m.Called(ctx, id, hostID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *MockEventStore) SetReviewCodeByHost(ctx context.Context, hostID, code string) (*model.Event, error) {
	args := m.Called(ctx, hostID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *MockEventStore) SetReviewCodeByID(ctx context.Context, id, hostID, code string) (*model.Event, error) {
	args := m.Called(ctx, id, hostID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *MockEventStore) Delete(ctx context.Context, id string, callerID *string, now time.Time) error {
	args := m.Called(ctx, id, callerID, now)
	return args.Error(0)
}

// MockReviewStore mocks the review persistence surface.
type MockReviewStore struct {
	mock.Mock
}

func (m *MockReviewStore) ListByEvent(ctx context.Context, eventID string) ([]model.ReviewWithAuthor, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ReviewWithAuthor), args.Error(1)
}

func (m *MockReviewStore) Create(ctx context.Context, eventID, userID string, in model.CreateReviewInput, now time.Time) (*model.Review, error) {
	args := m.Called(ctx, eventID, userID, in, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Review), args.Error(1)
}

func (m *MockReviewStore) Delete(ctx context.Context, id, eventID, userID string) error {
	args := m.Called(ctx, id, eventID, userID)
	return args.Error(0)
}

// MockUserStore mocks the profile mirror.
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) Upsert(ctx context.Context, u model.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}
