package controllers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/webappapi/socialboard/store"
	"github.com/webappapi/socialboard/utils"
)

// StatsController provides board statistics and health.
type StatsController struct {
	db       *gorm.DB
	users    *store.UserRepository
	posts    *store.PostRepository
	comments *store.CommentRepository
	likes    *store.LikeRepository
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB, users *store.UserRepository, posts *store.PostRepository,
	comments *store.CommentRepository, likes *store.LikeRepository) *StatsController {
	return &StatsController{db: db, users: users, posts: posts, comments: comments, likes: likes}
}

// GetStats returns aggregate counts for the board.
func (s *StatsController) GetStats(ctx *gin.Context) {
	counters := []struct {
		name  string
		count func(context.Context) (int64, error)
	}{
		{"user_count", s.users.Count},
		{"post_count", s.posts.Count},
		{"comment_count", s.comments.Count},
		{"post_like_count", s.likes.CountPostLikes},
		{"comment_like_count", s.likes.CountCommentLikes},
	}

	out := gin.H{}
	for _, c := range counters {
		n, err := c.count(ctx.Request.Context())
		if err != nil {
			// Fallback to 0 instead of failing the whole endpoint
			utils.Sugar.Warnf("stats %s failed: %v", c.name, err)
			n = 0
		}
		out[c.name] = n
	}

	utils.Success(ctx, "OK", out)
}

// Health reports process liveness and database reachability.
func (s *StatsController) Health(ctx *gin.Context) {
	database := "ok"
	if sqlDB, err := s.db.DB(); err != nil {
		database = "unavailable"
	} else {
		pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()
		if err := sqlDB.PingContext(pingCtx); err != nil {
			database = "unavailable"
		}
	}
	utils.Success(ctx, "OK", gin.H{"status": "ok", "database": database})
}
