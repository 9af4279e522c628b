package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/webappapi/socialboard/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextTokenKey stores the raw bearer token so logout can revoke it.
	ContextTokenKey = "token"
	// ContextTokenExpiryKey stores the token expiry as time.Time.
	ContextTokenExpiryKey = "token_expires_at"
)

// AuthRequired ensures the request is authenticated via JWT.
func AuthRequired(tokens *utils.TokenManager, blacklist *utils.TokenBlacklist) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.GetHeader("Authorization") == "" {
			utils.Abort(ctx, utils.AuthError(http.StatusUnauthorized, 40101, "Authorization header missing"))
			return
		}
		if !authenticate(ctx, tokens, blacklist) {
			return
		}
		ctx.Next()
	}
}

// OptionalAuth identifies the caller when a bearer token is sent and lets anonymous requests through.
// A token that is present but invalid is still rejected.
func OptionalAuth(tokens *utils.TokenManager, blacklist *utils.TokenBlacklist) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.GetHeader("Authorization") == "" {
			ctx.Next()
			return
		}
		if !authenticate(ctx, tokens, blacklist) {
			return
		}
		ctx.Next()
	}
}

func authenticate(ctx *gin.Context, tokens *utils.TokenManager, blacklist *utils.TokenBlacklist) bool {
	parts := strings.SplitN(ctx.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		utils.Abort(ctx, utils.AuthError(http.StatusUnauthorized, 40102, "Invalid authorization header format"))
		return false
	}

	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		utils.Abort(ctx, utils.AuthError(http.StatusUnauthorized, 40103, "Empty bearer token"))
		return false
	}

	if blacklist != nil && blacklist.IsRevoked(ctx.Request.Context(), tokenString) {
		utils.Abort(ctx, utils.AuthError(http.StatusUnauthorized, 40104, "Token revoked"))
		return false
	}

	claims, err := tokens.Parse(tokenString)
	if err != nil {
		utils.Abort(ctx, utils.AuthError(http.StatusUnauthorized, 40105, "Invalid token"))
		return false
	}

	ctx.Set(ContextUserIDKey, claims.UserID)
	ctx.Set(ContextTokenKey, tokenString)
	if claims.ExpiresAt != nil {
		ctx.Set(ContextTokenExpiryKey, claims.ExpiresAt.Time)
	}
	return true
}
