package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webappapi/socialboard/models"
)

func TestCommentRepository_CreateAndList(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	comments := NewCommentRepository(db)

	author := seedUser(t, db)
	reader := seedUser(t, db)
	post := seedPost(t, db, author.ID)

	first := seedComment(t, db, post.PostID, reader.ID)
	second := seedComment(t, db, post.PostID, author.ID)

	list, err := comments.ListByPost(ctx, post.PostID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, author.Username, list[0].Username)
	assert.Equal(t, first.ID, list[1].ID)
	assert.Equal(t, reader.Username, list[1].Username)

	ok, err := comments.Exists(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCommentRepository_CreateOnMissingPost(t *testing.T) {
	db := newTestDB(t)
	comments := NewCommentRepository(db)
	user := seedUser(t, db)

	err := comments.Create(context.Background(), &models.Comment{PostID: 404, UserID: user.ID, Content: "hi"})
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := comments.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCommentRepository_CreateByUnknownUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	comments := NewCommentRepository(db)
	author := seedUser(t, db)
	post := seedPost(t, db, author.ID)

	err := comments.Create(ctx, &models.Comment{PostID: post.PostID, UserID: author.ID + 999, Content: "hi"})
	assert.ErrorIs(t, err, ErrUnknownUser)

	n, err := comments.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCommentRepository_ListKeepsOrphanedComments(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	comments := NewCommentRepository(db)
	author := seedUser(t, db)
	post := seedPost(t, db, author.ID)

	// rows written before author checks existed
	orphan := &models.Comment{PostID: post.PostID, UserID: author.ID + 999, Content: "legacy"}
	require.NoError(t, db.Create(orphan).Error)

	list, err := comments.ListByPost(ctx, post.PostID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, orphan.ID, list[0].ID)
	assert.Empty(t, list[0].Username)

	n, err := comments.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(len(list)), n)
}
