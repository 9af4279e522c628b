package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/webappapi/socialboard/config"
	"github.com/webappapi/socialboard/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := config.AppConfig{DBDriver: config.DriverSQLite, DBName: ":memory:", LogLevel: "silent"}
	db, err := config.OpenDatabase(cfg, models.All()...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = config.CloseDatabase(db) })
	return db
}

func seedUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		EmailAddress: gofakeit.Email(),
		Username:     fmt.Sprintf("%s%d", gofakeit.Username(), gofakeit.Number(1, 1_000_000)),
		FirstName:    gofakeit.FirstName(),
		LastName:     gofakeit.LastName(),
		Password:     "hash",
	}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), user))
	return user
}

func seedPost(t *testing.T, db *gorm.DB, userID uint) *models.Post {
	t.Helper()
	post := &models.Post{UserID: userID, Title: gofakeit.Sentence(4), Content: gofakeit.Paragraph(1, 2, 8, " ")}
	require.NoError(t, NewPostRepository(db).Create(context.Background(), post))
	return post
}

func seedComment(t *testing.T, db *gorm.DB, postID, userID uint) *models.Comment {
	t.Helper()
	comment := &models.Comment{PostID: postID, UserID: userID, Content: gofakeit.Sentence(6)}
	require.NoError(t, NewCommentRepository(db).Create(context.Background(), comment))
	return comment
}
