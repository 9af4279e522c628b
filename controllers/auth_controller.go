package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/webappapi/socialboard/middleware"
	"github.com/webappapi/socialboard/models"
	"github.com/webappapi/socialboard/store"
	"github.com/webappapi/socialboard/utils"
)

var errInvalidCredentials = utils.AuthError(http.StatusBadRequest, 40006, "Invalid username or password")

// AuthController handles signup, login, logout and user lookups.
type AuthController struct {
	users     *store.UserRepository
	tokens    *utils.TokenManager
	blacklist *utils.TokenBlacklist
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(users *store.UserRepository, tokens *utils.TokenManager, blacklist *utils.TokenBlacklist) *AuthController {
	return &AuthController{users: users, tokens: tokens, blacklist: blacklist}
}

// Signup registers a local account. No token is issued.
func (a *AuthController) Signup(ctx *gin.Context) {
	type request struct {
		EmailAddress string `json:"email_address" form:"email_address"`
		Email        string `json:"email" form:"email"`
		Username     string `json:"username" form:"username"`
		FirstName    string `json:"first_name" form:"first_name"`
		LastName     string `json:"last_name" form:"last_name"`
		Password     string `json:"password" form:"password"`
	}

	var req request
	if err := bindBody(ctx, &req); err != nil {
		utils.Fail(ctx, utils.ValidationError(40001, "Invalid request payload").WithDetail(err.Error()))
		return
	}

	email := strings.TrimSpace(req.EmailAddress)
	if email == "" {
		email = strings.TrimSpace(req.Email)
	}
	username := strings.TrimSpace(req.Username)
	if email == "" || username == "" || req.Password == "" {
		utils.Fail(ctx, utils.ValidationError(40002, "Missing required fields"))
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Fail(ctx, utils.ServerError(50001, err))
		return
	}

	user := models.User{
		EmailAddress: email,
		Username:     username,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Password:     hash,
	}
	if err := a.users.Create(ctx.Request.Context(), &user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			utils.Fail(ctx, utils.ConflictError(40003, "Username or email address already exists"))
			return
		}
		utils.Fail(ctx, utils.ServerError(50002, err))
		return
	}

	utils.Sugar.Infof("user signed up id=%d username=%s", user.ID, user.Username)
	utils.Success(ctx, "Sign up successful!", nil)
}

// Login verifies credentials and issues a bearer token.
func (a *AuthController) Login(ctx *gin.Context) {
	type request struct {
		Username string `json:"username" form:"username"`
		Email    string `json:"email" form:"email"`
		Password string `json:"password" form:"password"`
	}

	var req request
	if err := bindBody(ctx, &req); err != nil {
		utils.Fail(ctx, utils.ValidationError(40004, "Invalid request payload").WithDetail(err.Error()))
		return
	}

	identifier := strings.TrimSpace(req.Username)
	if identifier == "" {
		identifier = strings.TrimSpace(req.Email)
	}
	if identifier == "" || req.Password == "" {
		utils.Fail(ctx, utils.ValidationError(40005, "Missing required fields"))
		return
	}

	user, err := a.users.FindByLogin(ctx.Request.Context(), identifier)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			utils.Fail(ctx, utils.ServerError(50003, err))
			return
		}
		// keep timing equal to the bad password path
		utils.BurnPasswordCheck(req.Password)
		utils.LoginAttempts.WithLabelValues("failed").Inc()
		utils.Fail(ctx, errInvalidCredentials)
		return
	}

	if !utils.CheckPassword(user.Password, req.Password) {
		utils.LoginAttempts.WithLabelValues("failed").Inc()
		utils.Fail(ctx, errInvalidCredentials)
		return
	}

	token, _, err := a.tokens.Generate(user.ID)
	if err != nil {
		utils.Fail(ctx, utils.ServerError(50004, err))
		return
	}

	utils.LoginAttempts.WithLabelValues("success").Inc()
	utils.Success(ctx, "Login successful", gin.H{
		"token": token,
		"user":  sanitizeUserResponse(*user),
	})
}

// Logout revokes the presented token until it would have expired.
func (a *AuthController) Logout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	if token == "" {
		utils.Fail(ctx, utils.AuthError(http.StatusUnauthorized, 40107, "Invalid authorization header"))
		return
	}

	expiresAt := time.Now().Add(time.Hour)
	if v, ok := ctx.Get(middleware.ContextTokenExpiryKey); ok {
		if t, ok := v.(time.Time); ok {
			expiresAt = t
		}
	}

	a.blacklist.Revoke(ctx.Request.Context(), token, expiresAt)
	utils.Success(ctx, "Logged out", nil)
}

// Me returns the authenticated user's public profile.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Fail(ctx, utils.AuthError(http.StatusUnauthorized, 40110, "Unauthorized"))
		return
	}
	a.respondUser(ctx, userID)
}

// GetUser returns public user info by ID.
func (a *AuthController) GetUser(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		utils.Fail(ctx, utils.ValidationError(40050, "Invalid user id"))
		return
	}
	a.respondUser(ctx, id)
}

func (a *AuthController) respondUser(ctx *gin.Context, id uint) {
	user, err := a.users.GetPublic(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Fail(ctx, utils.NotFoundError(40401, "User not found"))
			return
		}
		utils.Fail(ctx, utils.ServerError(50005, err))
		return
	}
	utils.Success(ctx, "OK", gin.H{"user": user})
}

// ListUsers returns every user's public projection, newest first.
func (a *AuthController) ListUsers(ctx *gin.Context) {
	users, err := a.users.ListPublic(ctx.Request.Context())
	if err != nil {
		utils.Fail(ctx, utils.ServerError(50006, err))
		return
	}
	utils.Success(ctx, "OK", gin.H{"users": users})
}

// sanitizeUserResponse is the login projection of a user.
func sanitizeUserResponse(user models.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"email":      user.EmailAddress,
		"username":   user.Username,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
	}
}
