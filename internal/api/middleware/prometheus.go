package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-room-booking/internal/pkg/metrics"
)

const unmatchedRoute = "unmatched"

// PrometheusMiddleware はルート単位でリクエスト数とレイテンシを記録する
// ステータスはエラーハンドラーが変換した後の値（ドメインエラーなら 400）
func PrometheusMiddleware(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			status := commitError(c, err)

			method, route := c.Request().Method, routeLabel(c)
			m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// routeLabel は /rooms/:id のような登録パターンを返す。実パスはラベルの種類が増えるので使わない
func routeLabel(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return unmatchedRoute
}
