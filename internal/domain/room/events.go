package room

import "time"

// EventType は予約イベントの種別
type EventType string

const (
	EventBookingCreated   EventType = "booking.created"
	EventBookingCancelled EventType = "booking.cancelled"
)

// BookingEvent は予約の状態変化を外部へ通知するためのイベント
type BookingEvent struct {
	Type       EventType     `json:"type"`
	RoomID     string        `json:"room_id"`
	BookingID  string        `json:"booking_id"`
	From       string        `json:"from"`
	To         string        `json:"to"`
	Guests     int           `json:"guests"`
	Status     BookingStatus `json:"status"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// NewBookingEvent は予約からイベントを作成する
func NewBookingEvent(eventType EventType, roomID string, b Booking, at time.Time) BookingEvent {
	return BookingEvent{
		Type:       eventType,
		RoomID:     roomID,
		BookingID:  b.ID(),
		From:       b.DateRange().From().Format(DateLayout),
		To:         b.DateRange().To().Format(DateLayout),
		Guests:     b.Guests(),
		Status:     b.Status(),
		OccurredAt: at.UTC(),
	}
}
