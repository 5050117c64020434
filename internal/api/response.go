package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"devboard/internal/errcode"
)

func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

func AbortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

func Unauthorized(c *gin.Context)           { Error(c, http.StatusUnauthorized, "unauthorized") }
func BadRequest(c *gin.Context, msg string) { Error(c, http.StatusBadRequest, msg) }
func Forbidden(c *gin.Context, msg string)  { Error(c, http.StatusForbidden, msg) }
func NotFound(c *gin.Context, msg string)   { Error(c, http.StatusNotFound, msg) }
func Conflict(c *gin.Context, msg string)   { Error(c, http.StatusConflict, msg) }
func Internal(c *gin.Context, msg string)   { Error(c, http.StatusInternalServerError, msg) }

// FromError 把核心错误按类别一一映射为 HTTP 响应；
// 非业务错误统一收敛为 500。
func FromError(c *gin.Context, err error) {
	kind, ok := errcode.KindOf(err)
	if !ok {
		Internal(c, "internal error")
		return
	}

	status := http.StatusInternalServerError
	switch kind {
	case errcode.KindUnauthenticated:
		status = http.StatusUnauthorized
	case errcode.KindForbidden:
		status = http.StatusForbidden
	case errcode.KindNotFound:
		status = http.StatusNotFound
	case errcode.KindValidation, errcode.KindInvalidTransition:
		status = http.StatusBadRequest
	case errcode.KindConflict:
		status = http.StatusConflict
	}

	body := gin.H{"error": err.Error()}
	var e *errcode.Error
	if errors.As(err, &e) && e.Reason != "" {
		body["reason"] = string(e.Reason)
		body["error"] = e.Msg
	}
	c.JSON(status, body)
}
