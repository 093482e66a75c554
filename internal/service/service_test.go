package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/d60-Lab/aiverse-api/internal/dbstats"
	"github.com/d60-Lab/aiverse-api/internal/model"
	"github.com/d60-Lab/aiverse-api/internal/repository"
)

type fixture struct {
	db       *gorm.DB
	counter  *dbstats.Counter
	posts    repository.PostRepository
	likes    repository.LikeRepository
	comments repository.CommentRepository
	users    repository.UserRepository
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent), TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(model.All()...))
	counter, err := dbstats.Attach(db)
	require.NoError(t, err)
	return &fixture{
		db:       db,
		counter:  counter,
		posts:    repository.NewPostRepository(db),
		likes:    repository.NewLikeRepository(db),
		comments: repository.NewCommentRepository(db),
		users:    repository.NewUserRepository(db),
	}
}

func (f *fixture) user(t *testing.T, name string) *model.User {
	t.Helper()
	u := &model.User{Username: name, Email: name + "@example.com", HashedPassword: "x", IsActive: true}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

// post 创建的帖子按 i 递增 created_at
func (f *fixture) post(t *testing.T, authorID uint, i int) *model.Post {
	t.Helper()
	p := &model.Post{
		Title:     fmt.Sprintf("post %d", i),
		AuthorID:  authorID,
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Minute),
	}
	require.NoError(t, f.posts.Create(context.Background(), p))
	return p
}

func (f *fixture) like(t *testing.T, userID, postID uint) {
	t.Helper()
	_, err := f.likes.Create(context.Background(), userID, postID)
	require.NoError(t, err)
}

func (f *fixture) comment(t *testing.T, userID, postID uint, text string) {
	t.Helper()
	require.NoError(t, f.comments.Create(context.Background(), &model.Comment{Content: text, UserID: userID, PostID: postID}))
}

func uintPtr(v uint) *uint { return &v }
