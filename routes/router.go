package routes

import (
	"embed"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/webappapi/socialboard/config"
	"github.com/webappapi/socialboard/controllers"
	"github.com/webappapi/socialboard/middleware"
	"github.com/webappapi/socialboard/store"
	"github.com/webappapi/socialboard/utils"
)

//go:embed templates/*.tmpl
var templates embed.FS

// Deps are the long lived handles the router hands to controllers.
type Deps struct {
	Config config.AppConfig
	DB     *gorm.DB
	// Redis may be nil; limiter, cache and blacklist then stay in process memory.
	Redis *redis.Client
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(deps Deps) *gin.Engine {
	cfg := deps.Config
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(utils.RequestID())
	r.Use(accessLogger(cfg)...)
	r.Use(cors.New(corsConfig(cfg)))
	r.Use(middleware.Metrics())
	r.SetHTMLTemplate(template.Must(template.ParseFS(templates, "templates/*.tmpl")))

	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL())
	blacklist := utils.NewTokenBlacklist(deps.Redis)
	cache := utils.NewCache(deps.Redis)

	users := store.NewUserRepository(deps.DB)
	posts := store.NewPostRepository(deps.DB)
	comments := store.NewCommentRepository(deps.DB)
	likes := store.NewLikeRepository(deps.DB)

	authController := controllers.NewAuthController(users, tokens, blacklist)
	postController := controllers.NewPostController(posts, cache, cfg.FeedCacheTTL())
	commentController := controllers.NewCommentController(comments, cache)
	likeController := controllers.NewLikeController(likes, cache)
	statsController := controllers.NewStatsController(deps.DB, users, posts, comments, likes)
	indexController := controllers.NewIndexController(Endpoints)

	requireAuth := middleware.AuthRequired(tokens, blacklist)
	optionalAuth := middleware.OptionalAuth(tokens, blacklist)
	loginLimiter := middleware.NewRedisWindowLimiter(deps.Redis, "login", cfg.LoginMaxAttempts, cfg.LoginWindow())

	r.GET("/", indexController.Index)
	r.GET("/health", statsController.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// login is metered by its own window only; the general bucket would trip first
	r.POST("/login", middleware.LoginRateLimit(loginLimiter), authController.Login)

	api := r.Group("")
	api.Use(middleware.RateLimitMiddleware(middleware.NewTokenBucket(cfg.RateLimitPerMinute)))

	api.POST("/signup", authController.Signup)
	api.POST("/logout", requireAuth, authController.Logout)
	api.GET("/user", requireAuth, authController.Me)
	api.GET("/users/:id", authController.GetUser)
	api.GET("/usersFetch", authController.ListUsers)

	api.POST("/posts", requireAuth, postController.CreatePost)
	api.DELETE("/posts/:postId/delete", optionalAuth, postController.DeletePost)
	api.GET("/posts/latest", optionalAuth, postController.LatestPosts)
	api.POST("/posts/:postId/like", optionalAuth, likeController.TogglePostLike)
	api.GET("/posts/:postId/likes", optionalAuth, likeController.PostLikes)
	api.GET("/posts/:postId/comments", commentController.ListComments)

	api.POST("/comments", optionalAuth, commentController.CreateComment)
	api.POST("/comments/:commentId/like", optionalAuth, likeController.ToggleCommentLike)
	api.GET("/comments/:commentId/likes", optionalAuth, likeController.CommentLikes)

	api.GET("/stats", statsController.GetStats)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Fail(ctx, utils.NotFoundError(40400, "Route not found"))
	})

	return r
}

// Endpoints is the route table shown on the index page.
var Endpoints = []controllers.Endpoint{
	{Method: http.MethodPost, Path: "/signup", Auth: "none"},
	{Method: http.MethodPost, Path: "/login", Auth: "none"},
	{Method: http.MethodPost, Path: "/logout", Auth: "bearer"},
	{Method: http.MethodGet, Path: "/user", Auth: "bearer"},
	{Method: http.MethodGet, Path: "/users/:id", Auth: "none"},
	{Method: http.MethodGet, Path: "/usersFetch", Auth: "none"},
	{Method: http.MethodPost, Path: "/posts", Auth: "bearer"},
	{Method: http.MethodDelete, Path: "/posts/:postId/delete", Auth: "bearer or user_id"},
	{Method: http.MethodGet, Path: "/posts/latest", Auth: "optional"},
	{Method: http.MethodPost, Path: "/posts/:postId/like", Auth: "bearer or user_id"},
	{Method: http.MethodGet, Path: "/posts/:postId/likes", Auth: "optional"},
	{Method: http.MethodGet, Path: "/posts/:postId/comments", Auth: "none"},
	{Method: http.MethodPost, Path: "/comments", Auth: "bearer or user_id"},
	{Method: http.MethodPost, Path: "/comments/:commentId/like", Auth: "bearer or user_id"},
	{Method: http.MethodGet, Path: "/comments/:commentId/likes", Auth: "optional"},
	{Method: http.MethodGet, Path: "/stats", Auth: "none"},
}

// accessLogger writes gin access logs to their own rolling file, or to the app logger when no path is set.
func accessLogger(cfg config.AppConfig) []gin.HandlerFunc {
	var gl *zap.Logger
	if cfg.GinPath != "" {
		l, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
		if err != nil {
			utils.Sugar.Warnf("gin access log %s unavailable: %v", cfg.GinPath, err)
		} else {
			gl = l
		}
	}
	if gl == nil {
		gl = utils.Logger
	}
	return []gin.HandlerFunc{
		utils.AccessLog(gl),
		utils.Recovery(gl),
	}
}

func corsConfig(cfg config.AppConfig) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		// browsers reject credentials with a wildcard origin
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	return corsCfg
}
