package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-room-booking/internal/api"
)

// Service は全ハンドラーが利用するサービス
type Service interface {
	RoomServiceInterface
	BookingServiceInterface
	DemoServiceInterface
}

// RegisterRoutes は /api/v1 配下のルートを登録する
func RegisterRoutes(e *echo.Echo, s Service, health *HealthHandler) {
	roomHandler := NewRoomHandler(s)
	bookingHandler := NewBookingHandler(s)
	demoHandler := NewDemoHandler(s)
	if health == nil {
		health = NewHealthHandler()
	}

	e.GET("/health", health.Check)

	v1 := e.Group("/api/v1")
	v1.GET("/rooms", roomHandler.List)
	v1.GET("/rooms/:id", roomHandler.GetByID)
	v1.POST("/bookings", bookingHandler.Create)
	v1.POST("/bookings/:id/cancel", bookingHandler.Cancel)
	v1.POST("/reset", demoHandler.Reset)
	v1.POST("/demo/seed-no-availability", demoHandler.SeedNoAvailability)
}

// NewServer はバリデーターとエラーハンドラーを設定した Echo にルートを登録して返す
// ミドルウェアは呼び出し側で追加する
func NewServer(s Service, health *HealthHandler) *echo.Echo {
	e := newEcho()
	RegisterRoutes(e, s, health)
	return e
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	return e
}
