package utils

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// JSONResponse defines the uniform structure for API responses.
type JSONResponse struct {
	Code    int         `json:"code"`
	Kind    ErrorKind   `json:"kind,omitempty"`
	Message string      `json:"message"`
	Detail  string      `json:"detail,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Respond writes a JSON response with the given status code.
func Respond(ctx *gin.Context, status int, code int, message string, data interface{}) {
	ctx.JSON(status, JSONResponse{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// Success returns a standard success response.
func Success(ctx *gin.Context, message string, data interface{}) {
	Respond(ctx, 200, 0, message, data)
}

// Created returns a 201 success response.
func Created(ctx *gin.Context, message string, data interface{}) {
	Respond(ctx, 201, 0, message, data)
}

// Fail renders err as the error envelope. Anything that is not an *AppError becomes a 500.
func Fail(ctx *gin.Context, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = ServerError(50000, err)
	}
	if appErr.Kind == KindServer {
		Logger.Error("request failed",
			zap.String("request_id", ctx.GetString(ContextRequestIDKey)),
			zap.String("path", ctx.Request.URL.Path),
			zap.Int("code", appErr.Code),
			zap.Error(appErr.Err),
		)
	}
	ctx.JSON(appErr.Status, JSONResponse{
		Code:    appErr.Code,
		Kind:    appErr.Kind,
		Message: appErr.Message,
		Detail:  appErr.Detail,
	})
}

// Abort renders err and stops the middleware chain.
func Abort(ctx *gin.Context, err error) {
	Fail(ctx, err)
	ctx.Abort()
}
