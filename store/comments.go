package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/webappapi/socialboard/models"
)

// CommentRepository reads and writes comments.
type CommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a CommentRepository.
func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// Create inserts comment after checking that its post and author exist.
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := exists(tx, &models.User{}, "id = ?", comment.UserID)
		if err != nil {
			return fmt.Errorf("check user %d: %w", comment.UserID, err)
		}
		if !ok {
			return fmt.Errorf("user %d: %w", comment.UserID, ErrUnknownUser)
		}
		ok, err = exists(tx, &models.Post{}, "post_id = ?", comment.PostID)
		if err != nil {
			return fmt.Errorf("check post %d: %w", comment.PostID, err)
		}
		if !ok {
			return fmt.Errorf("post %d: %w", comment.PostID, ErrNotFound)
		}
		if err := tx.Create(comment).Error; err != nil {
			return fmt.Errorf("create comment: %w", err)
		}
		return nil
	})
}

// Exists reports whether a comment with id is present.
func (r *CommentRepository) Exists(ctx context.Context, id uint) (bool, error) {
	return exists(r.db.WithContext(ctx), &models.Comment{}, "id = ?", id)
}

// ListByPost returns every comment of postID with its author's username, newest first.
func (r *CommentRepository) ListByPost(ctx context.Context, postID uint) ([]models.CommentView, error) {
	comments := []models.CommentView{}
	err := r.db.WithContext(ctx).
		Table("comments c").
		Select("c.id, c.post_id, c.user_id, c.content, c.created_at, COALESCE(u.username, '') AS username").
		Joins("LEFT JOIN users u ON u.id = c.user_id").
		Where("c.post_id = ?", postID).
		Order("c.created_at DESC, c.id DESC").
		Scan(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments of post %d: %w", postID, err)
	}
	return comments, nil
}

// Count returns the number of comments.
func (r *CommentRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Comment{}).Count(&n).Error
	return n, err
}
