package store

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/webappapi/socialboard/models"
)

// LikeRepository toggles and summarizes likes on posts and comments.
type LikeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a LikeRepository.
func NewLikeRepository(db *gorm.DB) *LikeRepository {
	return &LikeRepository{db: db}
}

// likeTarget describes one of the two like tables.
type likeTarget struct {
	parent    interface{}
	parentKey string
	table     string
	column    string
	row       func(targetID, userID uint) interface{}
}

var (
	postLikes = likeTarget{
		parent:    &models.Post{},
		parentKey: "post_id",
		table:     "post_likes",
		column:    "post_id",
		row: func(targetID, userID uint) interface{} {
			return &models.PostLike{PostID: targetID, UserID: userID}
		},
	}
	commentLikes = likeTarget{
		parent:    &models.Comment{},
		parentKey: "id",
		table:     "comment_likes",
		column:    "comment_id",
		row: func(targetID, userID uint) interface{} {
			return &models.CommentLike{CommentID: targetID, UserID: userID}
		},
	}
)

// TogglePostLike flips userID's like on postID and reports whether it is now liked.
func (r *LikeRepository) TogglePostLike(ctx context.Context, postID, userID uint) (bool, error) {
	return r.toggle(ctx, postLikes, postID, userID)
}

// ToggleCommentLike flips userID's like on commentID and reports whether it is now liked.
func (r *LikeRepository) ToggleCommentLike(ctx context.Context, commentID, userID uint) (bool, error) {
	return r.toggle(ctx, commentLikes, commentID, userID)
}

// toggle deletes the like row; when nothing was deleted it inserts one instead.
// The parent row stays locked until commit so toggles by the same pair run one at a time.
func (r *LikeRepository) toggle(ctx context.Context, t likeTarget, targetID, userID uint) (bool, error) {
	var liked bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := t.lockParent(tx, targetID).Pluck(t.parentKey, &ids).Error; err != nil {
			return fmt.Errorf("lock %s: %w", t.table, err)
		}
		if len(ids) == 0 {
			return ErrNotFound
		}

		res := tx.Where(t.column+" = ? AND user_id = ?", targetID, userID).Delete(t.row(0, 0))
		if res.Error != nil {
			return fmt.Errorf("delete like: %w", res.Error)
		}
		if res.RowsAffected > 0 {
			liked = false
			return nil
		}

		res = tx.Clauses(clause.OnConflict{DoNothing: true}).Create(t.row(targetID, userID))
		if res.Error != nil {
			return fmt.Errorf("insert like: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// another toggle inserted the row after our delete; flip it back off
			if err := tx.Where(t.column+" = ? AND user_id = ?", targetID, userID).Delete(t.row(0, 0)).Error; err != nil {
				return fmt.Errorf("delete raced like: %w", err)
			}
			liked = false
			return nil
		}
		liked = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("toggle %s %d: %w", t.table, targetID, err)
	}
	return liked, nil
}

// lockParent selects the liked post or comment FOR UPDATE.
func (t likeTarget) lockParent(tx *gorm.DB, targetID uint) *gorm.DB {
	return tx.Model(t.parent).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(t.parentKey+" = ?", targetID)
}

// PostSummary returns the like count of postID and whether viewerID is among the likers.
func (r *LikeRepository) PostSummary(ctx context.Context, postID, viewerID uint) (models.LikeSummary, error) {
	return r.summary(ctx, postLikes, postID, viewerID)
}

// CommentSummary returns the like count of commentID and whether viewerID is among the likers.
func (r *LikeRepository) CommentSummary(ctx context.Context, commentID, viewerID uint) (models.LikeSummary, error) {
	return r.summary(ctx, commentLikes, commentID, viewerID)
}

func (r *LikeRepository) summary(ctx context.Context, t likeTarget, targetID, viewerID uint) (models.LikeSummary, error) {
	var out models.LikeSummary
	query, args, err := likeSummarySQL(t, targetID, viewerID)
	if err != nil {
		return out, fmt.Errorf("build like summary query: %w", err)
	}
	if err := r.db.WithContext(ctx).Raw(query, args...).Scan(&out).Error; err != nil {
		return out, fmt.Errorf("summarize %s %d: %w", t.table, targetID, err)
	}
	return out, nil
}

func likeSummarySQL(t likeTarget, targetID, viewerID uint) (string, []interface{}, error) {
	return builder.
		Select("COUNT(*) AS like_count").
		Column(sq.Expr("COUNT(CASE WHEN user_id = ? THEN 1 END) AS liked_by_user", viewerID)).
		From(t.table).
		Where(sq.Eq{t.column: targetID}).
		ToSql()
}

// CountPostLikes returns the number of post likes.
func (r *LikeRepository) CountPostLikes(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.PostLike{}).Count(&n).Error
	return n, err
}

// CountCommentLikes returns the number of comment likes.
func (r *LikeRepository) CountCommentLikes(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.CommentLike{}).Count(&n).Error
	return n, err
}
