package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/webappapi/socialboard/models"
)

// LatestPostsLimit is how many posts the feed returns.
const LatestPostsLimit = 10

// PostRepository reads and writes posts.
type PostRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a PostRepository.
func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

// Create inserts post and fills its id and timestamp.
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// Exists reports whether a post with id is present.
func (r *PostRepository) Exists(ctx context.Context, id uint) (bool, error) {
	return exists(r.db.WithContext(ctx), &models.Post{}, "post_id = ?", id)
}

// DeleteOwned removes the post owned by userID together with its comments and likes.
// Order: comment_likes -> comments -> post_likes -> post, all in one transaction.
func (r *PostRepository) DeleteOwned(ctx context.Context, postID, userID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("post_id = ? AND user_id = ?", postID, userID).
			Take(&post).Error
		if err != nil {
			return notFound(err)
		}

		commentIDs := tx.Model(&models.Comment{}).Select("id").Where("post_id = ?", postID)
		if err := tx.Where("comment_id IN (?)", commentIDs).Delete(&models.CommentLike{}).Error; err != nil {
			return fmt.Errorf("delete comment likes: %w", err)
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.PostLike{}).Error; err != nil {
			return fmt.Errorf("delete post likes: %w", err)
		}
		if err := tx.Delete(&post).Error; err != nil {
			return fmt.Errorf("delete post: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete post %d: %w", postID, err)
	}
	return nil
}

// Latest returns the newest posts annotated with author, like and comment counts.
// viewerID 0 means nobody, so liked_by_user is 0 everywhere.
func (r *PostRepository) Latest(ctx context.Context, viewerID uint) ([]models.FeedPost, error) {
	query, args, err := latestPostsSQL(viewerID, LatestPostsLimit)
	if err != nil {
		return nil, fmt.Errorf("build latest posts query: %w", err)
	}
	posts := []models.FeedPost{}
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&posts).Error; err != nil {
		return nil, fmt.Errorf("latest posts: %w", err)
	}
	return posts, nil
}

// Count returns the number of posts.
func (r *PostRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Post{}).Count(&n).Error
	return n, err
}

func latestPostsSQL(viewerID uint, limit uint64) (string, []interface{}, error) {
	return builder.
		Select("p.post_id", "p.user_id", "p.title", "p.content", "p.created_at", "u.username").
		Column("(SELECT COUNT(*) FROM post_likes pl WHERE pl.post_id = p.post_id) AS like_count").
		Column(sq.Expr("(SELECT COUNT(*) FROM post_likes vl WHERE vl.post_id = p.post_id AND vl.user_id = ?) AS liked_by_user", viewerID)).
		Column("(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.post_id) AS comment_count").
		From("posts p").
		Join("users u ON u.id = p.user_id").
		OrderBy("p.created_at DESC", "p.post_id DESC").
		Limit(limit).
		ToSql()
}

func exists(db *gorm.DB, model interface{}, where string, args ...interface{}) (bool, error) {
	var n int64
	if err := db.Model(model).Where(where, args...).Limit(1).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
