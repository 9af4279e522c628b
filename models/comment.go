package models

import "time"

// Comment represents a reply to a post.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"index;not null" json:"post_id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// CommentView is a comment joined with its author's username.
type CommentView struct {
	ID        uint      `gorm:"column:id" json:"id"`
	PostID    uint      `gorm:"column:post_id" json:"post_id"`
	UserID    uint      `gorm:"column:user_id" json:"user_id"`
	Content   string    `gorm:"column:content" json:"content"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	Username  string    `gorm:"column:username" json:"username"`
}
