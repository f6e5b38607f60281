package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	defaultSeedFrom = "2026-02-01"
	defaultSeedTo   = "2026-02-03"
)

// DemoHandler はデモ用の状態操作
type DemoHandler struct {
	service DemoServiceInterface
}

func NewDemoHandler(s DemoServiceInterface) *DemoHandler {
	return &DemoHandler{service: s}
}

type SeedRequest struct {
	From string `json:"from" example:"2026-02-01"`
	To   string `json:"to" example:"2026-02-03"`
}

type DemoResponse struct {
	OK          bool `json:"ok"`
	SeededRooms int  `json:"seeded_rooms,omitempty"`
}

// Reset godoc
// @Summary ストアを初期化
// @Tags demo
// @Produce json
// @Success 200 {object} DemoResponse
// @Router /reset [post]
func (h *DemoHandler) Reset(c echo.Context) error {
	if err := h.service.Reset(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, DemoResponse{OK: true})
}

// SeedNoAvailability godoc
// @Summary 全ての部屋を満室にする
// @Description ストアを初期化し、指定期間（省略時 2026-02-01〜2026-02-03）で全部屋を定員いっぱいまで予約します
// @Tags demo
// @Accept json
// @Produce json
// @Param request body SeedRequest false "期間"
// @Success 200 {object} DemoResponse
// @Router /demo/seed-no-availability [post]
func (h *DemoHandler) SeedNoAvailability(c echo.Context) error {
	req := SeedRequest{From: defaultSeedFrom, To: defaultSeedTo}
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
		}
	}
	n, err := h.service.SeedNoAvailability(c.Request().Context(), req.From, req.To)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, DemoResponse{OK: true, SeededRooms: n})
}
