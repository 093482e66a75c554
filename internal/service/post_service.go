package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/aiverse-api/internal/model"
	"github.com/d60-Lab/aiverse-api/internal/repository"
	"github.com/d60-Lab/aiverse-api/pkg/errcode"
	"github.com/d60-Lab/aiverse-api/pkg/logger"
)

const (
	DefaultFeedLimit = 20
	MaxFeedLimit     = 100
)

var (
	ErrPostNotFound = errcode.New(errcode.NotFound, "post not found")
	ErrUserNotFound = errcode.New(errcode.NotFound, "user not found")
	ErrEmptyTitle   = errcode.New(errcode.InvalidArgument, "title is required")
	ErrEmptyComment = errcode.New(errcode.InvalidArgument, "comment content is required")
)

// CreatePostInput 发帖参数
type CreatePostInput struct {
	Title    string
	Content  *string
	ImageURL *string
	VideoURL *string
}

// PostService 帖子、点赞与评论
type PostService interface {
	Feed(ctx context.Context, skip, limit int, viewerID *uint) ([]*model.EnrichedPost, error)
	Get(ctx context.Context, postID uint, viewerID *uint) (*model.EnrichedPost, error)
	Create(ctx context.Context, authorID uint, in CreatePostInput) (*model.EnrichedPost, error)
	ListByAuthor(ctx context.Context, authorID uint, skip, limit int) ([]*model.EnrichedPost, error)
	// ToggleLike 已点赞则取消，否则点赞；返回切换后的状态
	ToggleLike(ctx context.Context, viewerID, postID uint) (bool, error)
	AddComment(ctx context.Context, userID, postID uint, content string) (*model.Comment, error)
	ListComments(ctx context.Context, postID uint) ([]*model.Comment, error)
}

type postService struct {
	postRepo    repository.PostRepository
	likeRepo    repository.LikeRepository
	commentRepo repository.CommentRepository
	userRepo    repository.UserRepository
	aggregator  *Aggregator
}

func NewPostService(
	postRepo repository.PostRepository,
	likeRepo repository.LikeRepository,
	commentRepo repository.CommentRepository,
	userRepo repository.UserRepository,
) PostService {
	return &postService{
		postRepo:    postRepo,
		likeRepo:    likeRepo,
		commentRepo: commentRepo,
		userRepo:    userRepo,
		aggregator:  NewAggregator(likeRepo, commentRepo),
	}
}

// pageBounds 规范分页参数，单页不超过 MaxFeedLimit
func pageBounds(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit < 1 {
		limit = DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		limit = MaxFeedLimit
	}
	return skip, limit
}

func (s *postService) Feed(ctx context.Context, skip, limit int, viewerID *uint) ([]*model.EnrichedPost, error) {
	skip, limit = pageBounds(skip, limit)
	posts, err := s.postRepo.List(ctx, skip, limit)
	if err != nil {
		return nil, err
	}
	return s.aggregator.Enrich(ctx, posts, viewerID)
}

func (s *postService) Get(ctx context.Context, postID uint, viewerID *uint) (*model.EnrichedPost, error) {
	p, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, notFound(err, ErrPostNotFound)
	}
	res, err := s.aggregator.Enrich(ctx, []*model.Post{p}, viewerID)
	if err != nil {
		return nil, err
	}
	return res[0], nil
}

func (s *postService) Create(ctx context.Context, authorID uint, in CreatePostInput) (*model.EnrichedPost, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	p := &model.Post{
		Title:    title,
		Content:  in.Content,
		ImageURL: in.ImageURL,
		VideoURL: in.VideoURL,
		AuthorID: authorID,
	}
	if err := s.postRepo.Create(ctx, p); err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	logger.Info("post created", zap.Uint("post_id", p.ID), zap.Uint("author_id", authorID))
	return &model.EnrichedPost{Post: *p}, nil
}

func (s *postService) ListByAuthor(ctx context.Context, authorID uint, skip, limit int) ([]*model.EnrichedPost, error) {
	if _, err := s.userRepo.GetByID(ctx, authorID); err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	skip, limit = pageBounds(skip, limit)
	posts, err := s.postRepo.ListByAuthor(ctx, authorID, skip, limit)
	if err != nil {
		return nil, err
	}
	return s.aggregator.Enrich(ctx, posts, nil)
}

func (s *postService) ToggleLike(ctx context.Context, viewerID, postID uint) (bool, error) {
	if err := s.ensurePost(ctx, postID); err != nil {
		return false, err
	}
	liked, err := s.likeRepo.Exists(ctx, viewerID, postID)
	if err != nil {
		return false, err
	}
	if liked {
		if err := s.likeRepo.Delete(ctx, viewerID, postID); err != nil {
			return false, err
		}
		return false, nil
	}
	created, err := s.likeRepo.Create(ctx, viewerID, postID)
	if err != nil {
		return false, err
	}
	if !created {
		// 并发请求已写入，收敛为已点赞
		logger.Debug("like already present", zap.Uint("user_id", viewerID), zap.Uint("post_id", postID))
	}
	return true, nil
}

func (s *postService) AddComment(ctx context.Context, userID, postID uint, content string) (*model.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyComment
	}
	if err := s.ensurePost(ctx, postID); err != nil {
		return nil, err
	}
	c := &model.Comment{Content: content, UserID: userID, PostID: postID}
	if err := s.commentRepo.Create(ctx, c); err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return c, nil
}

func (s *postService) ListComments(ctx context.Context, postID uint) ([]*model.Comment, error) {
	return s.commentRepo.ListByPost(ctx, postID)
}

func (s *postService) ensurePost(ctx context.Context, postID uint) error {
	ok, err := s.postRepo.Exists(ctx, postID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrPostNotFound
	}
	return nil
}

// notFound 把 gorm.ErrRecordNotFound 转成业务错误，其他错误原样返回
func notFound(err, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}
