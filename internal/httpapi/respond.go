// Package httpapi はAPIハンドラー共通のエラー応答を提供します。
package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Makamaruchan5858/Mightier/internal/ops"
)

// RespondWithError はエラー種別に応じたHTTPステータスとJSONボディを返します。
func RespondWithError(c *gin.Context, err error) {
	var apiErr *ops.Error
	switch {
	case errors.As(err, &apiErr):
		c.JSON(statusFor(apiErr.Code), gin.H{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		})
	case errors.Is(err, context.Canceled):
		c.JSON(http.StatusRequestTimeout, gin.H{
			"code":    "REQUEST_CANCELED",
			"message": "リクエストがキャンセルされました。",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    ops.CodeInternalError,
			"message": "サーバー内部でエラーが発生しました。",
		})
	}
}

func statusFor(code string) int {
	switch code {
	case ops.CodeFileNotFound, ops.CodeJobNotFound:
		return http.StatusNotFound
	case ops.CodeLimitExceeded:
		return http.StatusRequestEntityTooLarge
	case ops.CodeJobNotReady:
		return http.StatusConflict
	case ops.CodeInvalidInput, ops.CodeUnknownOperation, ops.CodeUnsupportedOperation,
		ops.CodeMissingParameter, ops.CodeInvalidParameter:
		return http.StatusBadRequest
	case ops.CodeInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
