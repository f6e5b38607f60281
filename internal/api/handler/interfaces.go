package handler

import (
	"context"

	"github.com/sanosuguru/go-room-booking/internal/application"
	"github.com/sanosuguru/go-room-booking/internal/domain/room"
)

// RoomServiceInterface は部屋参照のインターフェース
type RoomServiceInterface interface {
	ListRooms(ctx context.Context) ([]*room.Room, error)
	GetRoom(ctx context.Context, id string) (*room.Room, error)
}

// BookingServiceInterface は予約サービスのインターフェース
type BookingServiceInterface interface {
	CreateBooking(ctx context.Context, input application.CreateBookingInput) (room.Booking, error)
	CancelBooking(ctx context.Context, input application.CancelBookingInput) (room.Booking, error)
}

// DemoServiceInterface はデモ用の操作
type DemoServiceInterface interface {
	Reset(ctx context.Context) error
	SeedNoAvailability(ctx context.Context, from, to string) (int, error)
}
