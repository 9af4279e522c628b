package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/webappapi/socialboard/models"
	"github.com/webappapi/socialboard/store"
	"github.com/webappapi/socialboard/utils"
)

const feedCachePrefix = "cache:posts:latest:"

// PostController manages creating, deleting and listing posts.
type PostController struct {
	posts    *store.PostRepository
	cache    *utils.Cache
	cacheTTL time.Duration
}

// NewPostController creates a new PostController instance. cacheTTL <= 0 disables the feed cache.
func NewPostController(posts *store.PostRepository, cache *utils.Cache, cacheTTL time.Duration) *PostController {
	return &PostController{posts: posts, cache: cache, cacheTTL: cacheTTL}
}

// CreatePost allows authenticated users to create new posts.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req struct {
		Title   string `json:"title" form:"title"`
		Content string `json:"content" form:"content"`
	}
	if err := bindBody(ctx, &req); err != nil {
		utils.Fail(ctx, utils.ValidationError(40020, "Invalid request payload").WithDetail(err.Error()))
		return
	}

	title := utils.SanitizePlain(req.Title)
	content := utils.SanitizeContent(req.Content)
	if title == "" || content == "" {
		utils.Fail(ctx, utils.ValidationError(40021, "Title and content are required"))
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Fail(ctx, utils.AuthError(http.StatusUnauthorized, 40110, "Unauthorized"))
		return
	}

	post := models.Post{UserID: userID, Title: title, Content: content}
	if err := p.posts.Create(ctx.Request.Context(), &post); err != nil {
		utils.Fail(ctx, utils.ServerError(50020, err))
		return
	}

	invalidateFeed(ctx, p.cache)
	utils.Created(ctx, "Post created", gin.H{"post": post})
}

// DeletePost removes a post owned by the caller along with its comments and likes.
func (p *PostController) DeletePost(ctx *gin.Context) {
	postID, ok := parseIDParam(ctx, "postId")
	if !ok {
		utils.Fail(ctx, utils.ValidationError(40022, "Invalid post id"))
		return
	}

	var req struct {
		UserID uint `json:"user_id" form:"user_id"`
	}
	if err := bindBody(ctx, &req); err != nil {
		utils.Fail(ctx, utils.ValidationError(40020, "Invalid request payload").WithDetail(err.Error()))
		return
	}
	userID, ok := actorID(ctx, req.UserID)
	if !ok {
		utils.Fail(ctx, utils.ValidationError(40023, "user_id is required"))
		return
	}

	if err := p.posts.DeleteOwned(ctx.Request.Context(), postID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Fail(ctx, utils.NotFoundError(40402, "Post not found or not owned by user"))
			return
		}
		utils.Fail(ctx, utils.ServerError(50021, err))
		return
	}

	utils.Sugar.Infof("post deleted post_id=%d user_id=%d", postID, userID)
	invalidateFeed(ctx, p.cache)
	utils.Success(ctx, "Post deleted successfully", nil)
}

// LatestPosts returns the newest posts with author, like and comment counts.
func (p *PostController) LatestPosts(ctx *gin.Context) {
	viewer := viewerID(ctx)
	cacheKey := fmt.Sprintf("%sviewer=%d", feedCachePrefix, viewer)

	if p.cacheTTL > 0 {
		if b, ok := p.cache.GetBytes(ctx.Request.Context(), cacheKey); ok {
			utils.FeedCacheLookups.WithLabelValues("hit").Inc()
			ctx.Data(http.StatusOK, "application/json; charset=utf-8", b)
			return
		}
		utils.FeedCacheLookups.WithLabelValues("miss").Inc()
	}

	posts, err := p.posts.Latest(ctx.Request.Context(), viewer)
	if err != nil {
		utils.Fail(ctx, utils.ServerError(50022, err))
		return
	}

	resp := utils.JSONResponse{Code: 0, Message: "OK", Data: gin.H{"posts": posts}}
	if p.cacheTTL > 0 {
		p.cache.SetJSON(ctx.Request.Context(), cacheKey, resp, p.cacheTTL)
	}
	ctx.JSON(http.StatusOK, resp)
}

// invalidateFeed drops every cached latest-posts page.
func invalidateFeed(ctx *gin.Context, cache *utils.Cache) {
	if cache == nil {
		return
	}
	cache.InvalidateByPrefix(ctx.Request.Context(), feedCachePrefix)
}
