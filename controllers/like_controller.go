package controllers

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/webappapi/socialboard/models"
	"github.com/webappapi/socialboard/store"
	"github.com/webappapi/socialboard/utils"
)

// LikeController toggles and summarizes likes on posts and comments.
type LikeController struct {
	likes *store.LikeRepository
	cache *utils.Cache
}

// NewLikeController creates a new LikeController instance.
func NewLikeController(likes *store.LikeRepository, cache *utils.Cache) *LikeController {
	return &LikeController{likes: likes, cache: cache}
}

type toggleFunc func(ctx context.Context, targetID, userID uint) (bool, error)
type summaryFunc func(ctx context.Context, targetID, viewerID uint) (models.LikeSummary, error)

// TogglePostLike likes a post, or unlikes it when the caller already does.
func (l *LikeController) TogglePostLike(ctx *gin.Context) {
	if liked, ok := l.toggle(ctx, "postId", "Post", l.likes.TogglePostLike); ok {
		utils.LikeToggles.WithLabelValues("post", likeResult(liked)).Inc()
		// like_count is part of the feed
		invalidateFeed(ctx, l.cache)
	}
}

// ToggleCommentLike likes a comment, or unlikes it when the caller already does.
func (l *LikeController) ToggleCommentLike(ctx *gin.Context) {
	if liked, ok := l.toggle(ctx, "commentId", "Comment", l.likes.ToggleCommentLike); ok {
		utils.LikeToggles.WithLabelValues("comment", likeResult(liked)).Inc()
	}
}

// PostLikes returns the like count of a post and whether the viewer likes it.
func (l *LikeController) PostLikes(ctx *gin.Context) {
	l.summary(ctx, "postId", l.likes.PostSummary)
}

// CommentLikes returns the like count of a comment and whether the viewer likes it.
func (l *LikeController) CommentLikes(ctx *gin.Context) {
	l.summary(ctx, "commentId", l.likes.CommentSummary)
}

func (l *LikeController) toggle(ctx *gin.Context, param, noun string, fn toggleFunc) (bool, bool) {
	targetID, ok := parseIDParam(ctx, param)
	if !ok {
		utils.Fail(ctx, utils.ValidationError(40040, "Invalid "+param))
		return false, false
	}

	var req struct {
		UserID uint `json:"user_id" form:"user_id"`
	}
	if err := bindBody(ctx, &req); err != nil {
		utils.Fail(ctx, utils.ValidationError(40041, "Invalid request payload").WithDetail(err.Error()))
		return false, false
	}
	userID, ok := actorID(ctx, req.UserID)
	if !ok {
		utils.Fail(ctx, utils.ValidationError(40042, "user_id is required"))
		return false, false
	}

	liked, err := fn(ctx.Request.Context(), targetID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Fail(ctx, utils.NotFoundError(40404, noun+" not found"))
			return false, false
		}
		utils.Fail(ctx, utils.ServerError(50040, err))
		return false, false
	}

	if liked {
		utils.Success(ctx, noun+" liked", gin.H{"liked": true})
	} else {
		utils.Success(ctx, noun+" unliked", gin.H{"liked": false})
	}
	return liked, true
}

func (l *LikeController) summary(ctx *gin.Context, param string, fn summaryFunc) {
	targetID, ok := parseIDParam(ctx, param)
	if !ok {
		utils.Fail(ctx, utils.ValidationError(40043, "Invalid "+param))
		return
	}

	summary, err := fn(ctx.Request.Context(), targetID, viewerID(ctx))
	if err != nil {
		utils.Fail(ctx, utils.ServerError(50041, err))
		return
	}
	utils.Success(ctx, "OK", summary)
}

func likeResult(liked bool) string {
	if liked {
		return "liked"
	}
	return "unliked"
}
