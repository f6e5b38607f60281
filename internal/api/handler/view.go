package handler

import (
	"github.com/sanosuguru/go-room-booking/internal/domain/room"
)

// BookingResponse は予約のレスポンス。日付は YYYY-MM-DD
type BookingResponse struct {
	ID     string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	From   string `json:"from" example:"2026-02-01"`
	To     string `json:"to" example:"2026-02-03"`
	Nights int    `json:"nights" example:"2"`
	Guests int    `json:"guests" example:"2"`
	Status string `json:"status" example:"CREATED"`
}

// RoomResponse は部屋のレスポンス
type RoomResponse struct {
	ID       string            `json:"id" example:"room-1"`
	Capacity int               `json:"capacity" example:"2"`
	Version  int               `json:"version" example:"0"`
	Bookings []BookingResponse `json:"bookings"`
}

func toBookingResponse(b room.Booking) BookingResponse {
	dr := b.DateRange()
	return BookingResponse{
		ID:     b.ID(),
		From:   dr.From().Format(room.DateLayout),
		To:     dr.To().Format(room.DateLayout),
		Nights: dr.Nights(),
		Guests: b.Guests(),
		Status: string(b.Status()),
	}
}

func toRoomResponse(r *room.Room) RoomResponse {
	bookings := r.Bookings()
	resp := RoomResponse{
		ID:       r.ID(),
		Capacity: r.Capacity(),
		Version:  r.Version(),
		Bookings: make([]BookingResponse, 0, len(bookings)),
	}
	for _, b := range bookings {
		resp.Bookings = append(resp.Bookings, toBookingResponse(b))
	}
	return resp
}
