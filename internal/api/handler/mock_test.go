package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/d60-Lab/aiverse-api/internal/media"
	"github.com/d60-Lab/aiverse-api/internal/model"
	"github.com/d60-Lab/aiverse-api/internal/service"
)

type mockPostService struct {
	mock.Mock
}

func (m *mockPostService) Feed(ctx context.Context, skip, limit int, viewerID *uint) ([]*model.EnrichedPost, error) {
	args := m.Called(ctx, skip, limit, viewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.EnrichedPost), args.Error(1)
}

func (m *mockPostService) Get(ctx context.Context, postID uint, viewerID *uint) (*model.EnrichedPost, error) {
	args := m.Called(ctx, postID, viewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EnrichedPost), args.Error(1)
}

func (m *mockPostService) Create(ctx context.Context, authorID uint, in service.CreatePostInput) (*model.EnrichedPost, error) {
	args := m.Called(ctx, authorID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EnrichedPost), args.Error(1)
}

func (m *mockPostService) ListByAuthor(ctx context.Context, authorID uint, skip, limit int) ([]*model.EnrichedPost, error) {
	args := m.Called(ctx, authorID, skip, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.EnrichedPost), args.Error(1)
}

func (m *mockPostService) ToggleLike(ctx context.Context, viewerID, postID uint) (bool, error) {
	args := m.Called(ctx, viewerID, postID)
	return args.Bool(0), args.Error(1)
}

func (m *mockPostService) AddComment(ctx context.Context, userID, postID uint, content string) (*model.Comment, error) {
	args := m.Called(ctx, userID, postID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Comment), args.Error(1)
}

func (m *mockPostService) ListComments(ctx context.Context, postID uint) ([]*model.Comment, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Comment), args.Error(1)
}

type mockAuthService struct {
	mock.Mock
}

func (m *mockAuthService) Register(ctx context.Context, in service.RegisterInput) (*model.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*service.Token, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Token), args.Error(1)
}

func (m *mockAuthService) GetUser(ctx context.Context, id uint) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

type mockIngester struct {
	mock.Mock
}

func (m *mockIngester) Ingest(ctx context.Context, up media.Upload) (*model.StoredImage, error) {
	args := m.Called(ctx, up)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StoredImage), args.Error(1)
}
