package controllers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/webappapi/socialboard/models"
	"github.com/webappapi/socialboard/store"
	"github.com/webappapi/socialboard/utils"
)

// CommentController creates and lists comments.
type CommentController struct {
	comments *store.CommentRepository
	cache    *utils.Cache
}

// NewCommentController creates a new CommentController instance.
func NewCommentController(comments *store.CommentRepository, cache *utils.Cache) *CommentController {
	return &CommentController{comments: comments, cache: cache}
}

// CreateComment adds a comment to an existing post.
func (c *CommentController) CreateComment(ctx *gin.Context) {
	var req struct {
		PostID  uint   `json:"post_id" form:"post_id"`
		UserID  uint   `json:"user_id" form:"user_id"`
		Content string `json:"content" form:"content"`
	}
	if err := bindBody(ctx, &req); err != nil {
		utils.Fail(ctx, utils.ValidationError(40030, "Invalid request payload").WithDetail(err.Error()))
		return
	}

	content := utils.SanitizeContent(req.Content)
	userID, hasActor := actorID(ctx, req.UserID)
	if req.PostID == 0 || content == "" || !hasActor {
		utils.Fail(ctx, utils.ValidationError(40031, "Missing required fields"))
		return
	}

	comment := models.Comment{PostID: req.PostID, UserID: userID, Content: content}
	if err := c.comments.Create(ctx.Request.Context(), &comment); err != nil {
		if errors.Is(err, store.ErrUnknownUser) {
			utils.Fail(ctx, utils.NotFoundError(40405, "User not found"))
			return
		}
		if errors.Is(err, store.ErrNotFound) {
			utils.Fail(ctx, utils.NotFoundError(40403, "Post not found"))
			return
		}
		utils.Fail(ctx, utils.ServerError(50030, err))
		return
	}

	// comment_count is part of the feed
	invalidateFeed(ctx, c.cache)
	utils.Created(ctx, "Comment created", gin.H{"comment": comment})
}

// ListComments returns the comments of a post, newest first.
func (c *CommentController) ListComments(ctx *gin.Context) {
	postID, ok := parseIDParam(ctx, "postId")
	if !ok {
		utils.Fail(ctx, utils.ValidationError(40032, "Invalid post id"))
		return
	}

	comments, err := c.comments.ListByPost(ctx.Request.Context(), postID)
	if err != nil {
		utils.Fail(ctx, utils.ServerError(50031, err))
		return
	}
	utils.Success(ctx, "OK", gin.H{"comments": comments})
}
