package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/aiverse-api/internal/api/middleware"
	"github.com/d60-Lab/aiverse-api/internal/service"
	"github.com/d60-Lab/aiverse-api/pkg/response"
)

// Me 当前用户
// @Summary 当前登录用户信息
// @Tags 用户
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=model.User}
// @Failure 401 {object} response.Response
// @Router /api/users/me [get]
func (h *Handler) Me(c *gin.Context) {
	userID, _ := middleware.UserID(c)
	user, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

// GetUser 用户资料
// @Summary 查询用户
// @Tags 用户
// @Produce json
// @Param id path int true "用户ID"
// @Success 200 {object} response.Response{data=model.User}
// @Failure 404 {object} response.Response
// @Router /api/users/{id} [get]
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid user id")
		return
	}
	user, err := h.authService.GetUser(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

// ListUserPosts 用户发布的帖子
// @Summary 用户帖子列表（匿名视角）
// @Tags 用户
// @Produce json
// @Param id path int true "用户ID"
// @Param skip query int false "偏移" default(0)
// @Param limit query int false "数量" default(20)
// @Success 200 {object} response.Response{data=[]model.EnrichedPost}
// @Failure 404 {object} response.Response
// @Router /api/users/{id}/posts [get]
func (h *Handler) ListUserPosts(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		response.BadRequest(c, "invalid user id")
		return
	}
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(service.DefaultFeedLimit)))
	posts, err := h.postService.ListByAuthor(c.Request.Context(), id, skip, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, posts)
}
