package controllers

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/webappapi/socialboard/middleware"
)

// getUserID returns the id placed in the context by the auth middleware.
func getUserID(ctx *gin.Context) (uint, bool) {
	value, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, v != 0
	case int:
		return uint(v), v > 0
	case int64:
		return uint(v), v > 0
	case float64:
		return uint(v), v > 0
	default:
		return 0, false
	}
}

// actorID resolves who performs a write: the token owner, else a user_id from the body, else from the query.
func actorID(ctx *gin.Context, bodyUserID uint) (uint, bool) {
	if id, ok := getUserID(ctx); ok {
		return id, true
	}
	if bodyUserID != 0 {
		return bodyUserID, true
	}
	return queryUserID(ctx)
}

// viewerID resolves whose likes are flagged on reads. Zero means nobody.
func viewerID(ctx *gin.Context) uint {
	if id, ok := getUserID(ctx); ok {
		return id
	}
	id, _ := queryUserID(ctx)
	return id
}

func queryUserID(ctx *gin.Context) (uint, bool) {
	raw := strings.TrimSpace(ctx.Query("user_id"))
	if raw == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// parseIDParam reads a positive numeric path parameter.
func parseIDParam(ctx *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(ctx.Param(name)), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// bindBody binds JSON or form bodies by content type. An empty body is not an error.
func bindBody(ctx *gin.Context, obj interface{}) error {
	if err := ctx.ShouldBind(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
