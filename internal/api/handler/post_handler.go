package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/aiverse-api/internal/api/middleware"
	"github.com/d60-Lab/aiverse-api/internal/service"
	"github.com/d60-Lab/aiverse-api/pkg/response"
)

type createPostRequest struct {
	Title    string  `json:"title" binding:"required,notblank,max=200"`
	Content  *string `json:"content"`
	ImageURL *string `json:"image_url" binding:"omitempty,max=500"`
	VideoURL *string `json:"video_url" binding:"omitempty,max=500"`
}

type commentRequest struct {
	Content string `json:"content" binding:"required,notblank,max=2000"`
}

type likeResponse struct {
	Liked   bool   `json:"liked"`
	Message string `json:"message"`
}

// ListPosts 信息流
// @Summary 帖子信息流（按发布时间倒序）
// @Tags 帖子
// @Produce json
// @Param skip query int false "偏移" default(0)
// @Param limit query int false "数量" default(20)
// @Param Authorization header string false "Bearer token，可选"
// @Success 200 {object} response.Response{data=[]model.EnrichedPost}
// @Failure 500 {object} response.Response
// @Router /api/posts [get]
func (h *Handler) ListPosts(c *gin.Context) {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(service.DefaultFeedLimit)))
	posts, err := h.postService.Feed(c.Request.Context(), skip, limit, middleware.ViewerID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, posts)
}

// GetPost 帖子详情
// @Summary 帖子详情
// @Tags 帖子
// @Produce json
// @Param id path int true "帖子ID"
// @Success 200 {object} response.Response{data=model.EnrichedPost}
// @Failure 404 {object} response.Response
// @Router /api/posts/{id} [get]
func (h *Handler) GetPost(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid post id")
		return
	}
	post, err := h.postService.Get(c.Request.Context(), id, middleware.ViewerID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, post)
}

// CreatePost 发帖
// @Summary 发帖
// @Tags 帖子
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createPostRequest true "帖子内容"
// @Success 201 {object} response.Response{data=model.EnrichedPost}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/posts [post]
func (h *Handler) CreatePost(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	post, err := h.postService.Create(c.Request.Context(), userID, service.CreatePostInput{
		Title:    req.Title,
		Content:  req.Content,
		ImageURL: req.ImageURL,
		VideoURL: req.VideoURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, post)
}

// ToggleLike 点赞 / 取消点赞
// @Summary 切换点赞状态
// @Tags 帖子
// @Produce json
// @Security BearerAuth
// @Param id path int true "帖子ID"
// @Success 200 {object} response.Response{data=likeResponse}
// @Failure 401 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/posts/{id}/like [post]
func (h *Handler) ToggleLike(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	postID, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid post id")
		return
	}
	liked, err := h.postService.ToggleLike(c.Request.Context(), userID, postID)
	if err != nil {
		response.Error(c, err)
		return
	}
	msg := "Post unliked"
	if liked {
		msg = "Post liked"
	}
	response.Success(c, likeResponse{Liked: liked, Message: msg})
}

// CreateComment 发表评论
// @Summary 发表评论
// @Tags 评论
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "帖子ID"
// @Param request body commentRequest true "评论内容"
// @Success 201 {object} response.Response{data=model.Comment}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /api/posts/{id}/comments [post]
func (h *Handler) CreateComment(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	postID, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid post id")
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	comment, err := h.postService.AddComment(c.Request.Context(), userID, postID, req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, comment)
}

// ListComments 评论列表
// @Summary 评论列表（按时间正序）
// @Tags 评论
// @Produce json
// @Param id path int true "帖子ID"
// @Success 200 {object} response.Response{data=[]model.Comment}
// @Router /api/posts/{id}/comments [get]
func (h *Handler) ListComments(c *gin.Context) {
	postID, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid post id")
		return
	}
	comments, err := h.postService.ListComments(c.Request.Context(), postID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, comments)
}
