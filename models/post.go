package models

import "time"

// Post represents a board post created by a user.
type Post struct {
	PostID    uint      `gorm:"column:post_id;primaryKey" json:"post_id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// FeedPost is a post row annotated for the latest-posts listing.
type FeedPost struct {
	PostID       uint      `gorm:"column:post_id" json:"post_id"`
	UserID       uint      `gorm:"column:user_id" json:"user_id"`
	Title        string    `gorm:"column:title" json:"title"`
	Content      string    `gorm:"column:content" json:"content"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
	Username     string    `gorm:"column:username" json:"username"`
	LikeCount    int64     `gorm:"column:like_count" json:"like_count"`
	LikedByUser  int64     `gorm:"column:liked_by_user" json:"liked_by_user"`
	CommentCount int64     `gorm:"column:comment_count" json:"comment_count"`
}
