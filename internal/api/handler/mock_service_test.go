package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sanosuguru/go-room-booking/internal/application"
	"github.com/sanosuguru/go-room-booking/internal/domain/room"
)

// MockService は Service のモック
type MockService struct {
	mock.Mock
}

func (m *MockService) ListRooms(ctx context.Context) ([]*room.Room, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*room.Room), args.Error(1)
}

func (m *MockService) GetRoom(ctx context.Context, id string) (*room.Room, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*room.Room), args.Error(1)
}

func (m *MockService) CreateBooking(ctx context.Context, input application.CreateBookingInput) (room.Booking, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(room.Booking), args.Error(1)
}

func (m *MockService) CancelBooking(ctx context.Context, input application.CancelBookingInput) (room.Booking, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(room.Booking), args.Error(1)
}

func (m *MockService) Reset(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockService) SeedNoAvailability(ctx context.Context, from, to string) (int, error) {
	args := m.Called(ctx, from, to)
	return args.Int(0), args.Error(1)
}
