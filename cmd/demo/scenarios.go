package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-room-booking/internal/application"
	"github.com/sanosuguru/go-room-booking/internal/domain/room"
	"github.com/sanosuguru/go-room-booking/internal/infrastructure/memory"
	"github.com/sanosuguru/go-room-booking/internal/pkg/logger"
)

type scenario struct {
	name string
	run  func(ctx context.Context) error
}

var scenarios = []scenario{
	{name: "create", run: runCreate},
	{name: "cancel", run: runCancel},
	{name: "deny-cancel", run: runDenyCancel},
	{name: "no-room", run: runNoRoom},
}

func findScenario(name string) (scenario, bool) {
	for _, s := range scenarios {
		if s.name == name {
			return s, true
		}
	}
	return scenario{}, false
}

type roomSeed struct {
	id       string
	capacity int
}

// newDemoService は毎回新しいインメモリストアでサービスを作る
func newDemoService(bookingID string, seeds ...roomSeed) (*application.BookingService, *memory.RoomStore, error) {
	rooms := make([]*room.Room, 0, len(seeds))
	for _, seed := range seeds {
		r, err := room.NewRoom(seed.id, seed.capacity)
		if err != nil {
			return nil, nil, err
		}
		rooms = append(rooms, r)
	}
	store := memory.NewRoomStore(rooms...)
	service := application.NewBookingService(store,
		application.WithIDGenerator(func() string { return bookingID }),
	)
	return service, store, nil
}

func bookingFields(b room.Booking) []zap.Field {
	return []zap.Field{
		zap.String("booking_id", b.ID()),
		zap.Stringer("date_range", b.DateRange()),
		zap.Int("guests", b.Guests()),
		zap.String("status", string(b.Status())),
	}
}

func runCreate(ctx context.Context) error {
	service, _, err := newDemoService("demo-booking-create-001", roomSeed{"room-1", 2}, roomSeed{"room-2", 4})
	if err != nil {
		return err
	}

	b, err := service.CreateBooking(ctx, application.CreateBookingInput{From: "2026-02-01", To: "2026-02-03", Guests: 2})
	if err != nil {
		return err
	}
	logger.Info("予約を作成しました", bookingFields(b)...)
	return nil
}

func runCancel(ctx context.Context) error {
	service, _, err := newDemoService("demo-booking-cancel-001", roomSeed{"room-1", 2})
	if err != nil {
		return err
	}

	b, err := service.CreateBooking(ctx, application.CreateBookingInput{From: "2026-02-01", To: "2026-02-03", Guests: 2})
	if err != nil {
		return err
	}
	logger.Info("予約を作成しました", bookingFields(b)...)

	cancelled, err := service.CancelBooking(ctx, application.CancelBookingInput{BookingID: b.ID(), IsAdmin: true})
	if err != nil {
		return err
	}
	logger.Info("予約をキャンセルしました", bookingFields(cancelled)...)
	return nil
}

func runDenyCancel(ctx context.Context) error {
	service, store, err := newDemoService("demo-booking-deny-001", roomSeed{"room-1", 2})
	if err != nil {
		return err
	}

	b, err := service.CreateBooking(ctx, application.CreateBookingInput{From: "2026-02-01", To: "2026-02-03", Guests: 1})
	if err != nil {
		return err
	}
	logger.Info("予約を作成しました", bookingFields(b)...)

	_, err = service.CancelBooking(ctx, application.CancelBookingInput{BookingID: b.ID(), IsAdmin: false})
	if !errors.Is(err, room.ErrUnauthorized) {
		return fmt.Errorf("非管理者のキャンセルは拒否されるはずです: %v", err)
	}
	logger.Info("キャンセルは拒否されました", zap.String("kind", string(room.KindOf(err))), zap.Error(err))

	r, err := store.GetRoomByID(ctx, "room-1")
	if err != nil {
		return err
	}
	after, ok := r.FindBooking(b.ID())
	if !ok || after.Status() != room.BookingStatusCreated {
		return errors.New("拒否後も予約は CREATED のままのはずです")
	}
	logger.Info("状態は変化していません", bookingFields(after)...)
	return nil
}

func runNoRoom(ctx context.Context) error {
	service, store, err := newDemoService("demo-booking-occupied-001", roomSeed{"room-1", 2})
	if err != nil {
		return err
	}

	b, err := service.CreateBooking(ctx, application.CreateBookingInput{From: "2026-02-01", To: "2026-02-03", Guests: 2})
	if err != nil {
		return err
	}
	logger.Info("予約を作成しました", bookingFields(b)...)

	_, err = service.CreateBooking(ctx, application.CreateBookingInput{From: "2026-02-02", To: "2026-02-04", Guests: 1})
	if !errors.Is(err, room.ErrNoAvailableRoom) {
		return fmt.Errorf("重なる予約は拒否されるはずです: %v", err)
	}
	logger.Info("予約は拒否されました", zap.String("kind", string(room.KindOf(err))), zap.Error(err))

	r, err := store.GetRoomByID(ctx, "room-1")
	if err != nil {
		return err
	}
	if n := len(r.ActiveBookings()); n != 1 {
		return fmt.Errorf("有効な予約は1件のはずです: %d", n)
	}
	logger.Info("有効な予約数", zap.Int("active_bookings", len(r.ActiveBookings())))
	return nil
}
