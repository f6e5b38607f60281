package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type RoomHandler struct {
	service RoomServiceInterface
}

func NewRoomHandler(s RoomServiceInterface) *RoomHandler {
	return &RoomHandler{service: s}
}

// List godoc
// @Summary 部屋一覧を取得
// @Description 全ての部屋と予約（キャンセル済みを含む）を取得します
// @Tags rooms
// @Produce json
// @Success 200 {array} RoomResponse
// @Router /rooms [get]
func (h *RoomHandler) List(c echo.Context) error {
	rooms, err := h.service.ListRooms(c.Request().Context())
	if err != nil {
		return err
	}
	resp := make([]RoomResponse, 0, len(rooms))
	for _, r := range rooms {
		resp = append(resp, toRoomResponse(r))
	}
	return c.JSON(http.StatusOK, resp)
}

// GetByID godoc
// @Summary 部屋を取得
// @Tags rooms
// @Produce json
// @Param id path string true "部屋ID"
// @Success 200 {object} RoomResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /rooms/{id} [get]
func (h *RoomHandler) GetByID(c echo.Context) error {
	r, err := h.service.GetRoom(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRoomResponse(r))
}
