package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-room-booking/internal/application"
)

type BookingHandler struct {
	service BookingServiceInterface
}

func NewBookingHandler(s BookingServiceInterface) *BookingHandler {
	return &BookingHandler{service: s}
}

// CreateBookingRequest は予約作成リクエスト
// 値の妥当性（日付形式・人数）はドメインで検証する
type CreateBookingRequest struct {
	From   string `json:"from" validate:"required" example:"2026-02-01"`
	To     string `json:"to" validate:"required" example:"2026-02-03"`
	Guests int    `json:"guests" example:"2"`
}

type CancelBookingRequest struct {
	IsAdmin bool `json:"is_admin" example:"false"`
}

// Create godoc
// @Summary 予約を作成
// @Description 定員と空き状況を満たす最初の部屋に予約します
// @Tags bookings
// @Accept json
// @Produce json
// @Param request body CreateBookingRequest true "予約情報"
// @Success 201 {object} BookingResponse
// @Failure 400 {object} api.ErrorResponse "ドメインルール違反"
// @Failure 409 {object} api.ErrorResponse "同時更新"
// @Router /bookings [post]
func (h *BookingHandler) Create(c echo.Context) error {
	var req CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	b, err := h.service.CreateBooking(c.Request().Context(), application.CreateBookingInput{
		From: req.From, To: req.To, Guests: req.Guests,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toBookingResponse(b))
}

// Cancel godoc
// @Summary 予約をキャンセル
// @Description 管理者のみキャンセルできます
// @Tags bookings
// @Accept json
// @Produce json
// @Param id path string true "予約ID"
// @Param request body CancelBookingRequest false "キャンセル情報"
// @Success 200 {object} BookingResponse
// @Failure 400 {object} api.ErrorResponse "ドメインルール違反"
// @Router /bookings/{id}/cancel [post]
func (h *BookingHandler) Cancel(c echo.Context) error {
	var req CancelBookingRequest
	// ボディ省略時は非管理者として扱う
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
		}
	}
	b, err := h.service.CancelBooking(c.Request().Context(), application.CancelBookingInput{
		BookingID: c.Param("id"), IsAdmin: req.IsAdmin,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBookingResponse(b))
}
