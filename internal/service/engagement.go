package service

import (
	"context"

	"github.com/d60-Lab/aiverse-api/internal/model"
	"github.com/d60-Lab/aiverse-api/internal/repository"
)

// Aggregator 为一批帖子计算点赞数、评论数以及 viewer 是否点赞。
// 只读、无共享可变状态，可并发调用。
type Aggregator struct {
	likeRepo    repository.LikeRepository
	commentRepo repository.CommentRepository
}

func NewAggregator(likeRepo repository.LikeRepository, commentRepo repository.CommentRepository) *Aggregator {
	return &Aggregator{likeRepo: likeRepo, commentRepo: commentRepo}
}

// Enrich 批量计算：点赞 GROUP BY、评论 GROUP BY、viewer 点赞集合，共 2~3 次查询，
// 与帖子数量无关。输出与输入等长且保持顺序。viewerID 为 nil 表示匿名。
func (a *Aggregator) Enrich(ctx context.Context, posts []*model.Post, viewerID *uint) ([]*model.EnrichedPost, error) {
	out := make([]*model.EnrichedPost, len(posts))
	if len(posts) == 0 {
		return out, nil
	}

	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}

	likes, err := a.likeRepo.CountByPosts(ctx, ids)
	if err != nil {
		return nil, err
	}
	comments, err := a.commentRepo.CountByPosts(ctx, ids)
	if err != nil {
		return nil, err
	}
	var liked map[uint]bool
	if viewerID != nil {
		if liked, err = a.likeRepo.LikedPostIDs(ctx, *viewerID, ids); err != nil {
			return nil, err
		}
	}

	for i, p := range posts {
		out[i] = &model.EnrichedPost{
			Post:          *p,
			LikesCount:    likes[p.ID],
			CommentsCount: comments[p.ID],
			IsLiked:       liked[p.ID],
		}
	}
	return out, nil
}

// EnrichNaive 逐帖查询（每帖 2 次，带 viewer 时 3 次）。
// 结果与 Enrich 完全一致，仅用于对照测试与 feedbench。
func (a *Aggregator) EnrichNaive(ctx context.Context, posts []*model.Post, viewerID *uint) ([]*model.EnrichedPost, error) {
	out := make([]*model.EnrichedPost, len(posts))
	for i, p := range posts {
		likes, err := a.likeRepo.CountByPost(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		comments, err := a.commentRepo.CountByPost(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		isLiked := false
		if viewerID != nil {
			if isLiked, err = a.likeRepo.Exists(ctx, *viewerID, p.ID); err != nil {
				return nil, err
			}
		}
		out[i] = &model.EnrichedPost{Post: *p, LikesCount: likes, CommentsCount: comments, IsLiked: isLiked}
	}
	return out, nil
}
