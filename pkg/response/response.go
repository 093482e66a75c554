package response

import (
	"net/http"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/aiverse-api/pkg/errcode"
	"github.com/d60-Lab/aiverse-api/pkg/logger"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Kind    string      `json:"kind,omitempty"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: "success", Data: data})
}

// Created 创建成功
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Code: 0, Message: "success", Data: data})
}

// BadRequest 参数错误
func BadRequest(c *gin.Context, msg string) {
	abort(c, errcode.InvalidArgument, msg)
}

// NotFound 资源不存在
func NotFound(c *gin.Context, msg string) {
	abort(c, errcode.NotFound, msg)
}

// Unauthorized 未认证
func Unauthorized(c *gin.Context, msg string) {
	abort(c, errcode.Unauthorized, msg)
}

// TooManyRequests 触发限流
func TooManyRequests(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, Response{
		Code:    http.StatusTooManyRequests,
		Kind:    "RateLimited",
		Message: "rate limit exceeded",
	})
}

// InternalError 服务器错误，详细原因只写日志
func InternalError(c *gin.Context, err error) {
	report(c, err)
	abort(c, errcode.Internal, "internal server error")
}

// Error 按错误类别输出响应
func Error(c *gin.Context, err error) {
	kind := errcode.KindOf(err)
	if kind == errcode.Internal {
		InternalError(c, err)
		return
	}
	if kind.HTTPStatus() >= http.StatusInternalServerError {
		report(c, err)
	}
	abort(c, kind, err.Error())
}

func abort(c *gin.Context, kind errcode.Kind, msg string) {
	status := kind.HTTPStatus()
	c.AbortWithStatusJSON(status, Response{Code: status, Kind: string(kind), Message: msg})
}

func report(c *gin.Context, err error) {
	logger.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
		return
	}
	sentry.CaptureException(err)
}
