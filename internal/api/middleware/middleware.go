package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/sanosuguru/go-room-booking/internal/pkg/metrics"
)

// SetupMiddleware は共通ミドルウェアを設定する。m が nil ならメトリクスは収集しない
func SetupMiddleware(e *echo.Echo, m *metrics.Metrics) {
	// リクエストID
	e.Use(RequestIDMiddleware())

	// 構造化リクエストログ（zap）
	e.Use(RequestLogger())

	// パニックリカバリー
	e.Use(middleware.Recover())

	// CORS
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.HEAD, echo.POST},
	}))

	if m != nil {
		e.Use(PrometheusMiddleware(m))
	}
}

// commitError はエラーレスポンスを書き込み、確定したステータスを返す
// 書き込み済みのレスポンスに対してエラーハンドラーは何もしない
func commitError(c echo.Context, err error) int {
	if err != nil && !c.Response().Committed {
		c.Error(err)
	}
	return c.Response().Status
}
