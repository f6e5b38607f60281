package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-room-booking/internal/application"
	"github.com/sanosuguru/go-room-booking/internal/domain/room"
	"github.com/sanosuguru/go-room-booking/internal/pkg/logger"
)

// エラーレスポンスの type
const (
	ErrorTypeDomain   = "DOMAIN_ERROR"
	ErrorTypeConflict = "CONFLICT"
	ErrorTypeNotFound = "NOT_FOUND"
	ErrorTypeHTTP     = "HTTP_ERROR"
	ErrorTypeInternal = "INTERNAL_ERROR"
)

// ErrorResponse はエラーレスポンスの統一フォーマット
type ErrorResponse struct {
	Type    string `json:"type"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// CustomHTTPErrorHandler はカスタムエラーハンドラー
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	resp := toErrorResponse(err)

	// エラーログを出力（5xx エラーの場合）
	if resp.Code >= 500 {
		logger.Error("サーバーエラー",
			zap.Int("status", resp.Code),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
	}

	if err := c.JSON(resp.Code, resp); err != nil {
		logger.Error("エラーレスポンス送信失敗", zap.Error(err))
	}
}

func toErrorResponse(err error) ErrorResponse {
	var (
		domainErr *room.DomainError
		httpErr   *echo.HTTPError
	)
	switch {
	case errors.As(err, &domainErr):
		return ErrorResponse{
			Type:    ErrorTypeDomain,
			Kind:    string(domainErr.Kind),
			Message: domainErr.Message,
			Code:    http.StatusBadRequest,
		}
	case errors.Is(err, room.ErrConcurrentUpdate), errors.Is(err, application.ErrRoomsBusy):
		return ErrorResponse{Type: ErrorTypeConflict, Message: err.Error(), Code: http.StatusConflict}
	case errors.Is(err, room.ErrRoomNotFound):
		return ErrorResponse{Type: ErrorTypeNotFound, Message: err.Error(), Code: http.StatusNotFound}
	case errors.As(err, &httpErr):
		message, ok := httpErr.Message.(string)
		if !ok {
			message = http.StatusText(httpErr.Code)
		}
		typ := ErrorTypeHTTP
		if httpErr.Code >= 500 {
			typ = ErrorTypeInternal
		}
		return ErrorResponse{Type: typ, Message: message, Code: httpErr.Code}
	default:
		return ErrorResponse{Type: ErrorTypeInternal, Message: "内部サーバーエラー", Code: http.StatusInternalServerError}
	}
}
