package models

import "time"

// PostLike records that a user likes a post. Row presence is the like.
type PostLike struct {
	PostID    uint      `gorm:"primaryKey;autoIncrement:false" json:"post_id"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentLike records that a user likes a comment.
type CommentLike struct {
	CommentID uint      `gorm:"primaryKey;autoIncrement:false" json:"comment_id"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// LikeSummary is the aggregate returned by the likes endpoints.
type LikeSummary struct {
	LikeCount   int64 `gorm:"column:like_count" json:"like_count"`
	LikedByUser int64 `gorm:"column:liked_by_user" json:"likedByUser"`
}

// All lists every model the service migrates.
func All() []interface{} {
	return []interface{}{&User{}, &Post{}, &Comment{}, &PostLike{}, &CommentLike{}}
}
