package handler

import (
	"errors"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/aiverse-api/internal/media"
	"github.com/d60-Lab/aiverse-api/pkg/errcode"
	"github.com/d60-Lab/aiverse-api/pkg/response"
)

// UploadImage 上传并标准化图片
// @Summary 上传图片（居中裁剪为 1080x1080 JPEG）
// @Tags 上传
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "图片文件"
// @Success 200 {object} response.Response{data=model.StoredImage}
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Router /api/posts/upload [post]
func (h *Handler) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, errcode.Wrap(errcode.InvalidUpload, "file too large", err))
			return
		}
		response.Error(c, errcode.New(errcode.InvalidUpload, "no file provided"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Error(c, errcode.Wrap(errcode.InvalidUpload, "cannot read upload", err))
		return
	}
	defer f.Close()

	stored, err := h.images.Ingest(c.Request.Context(), media.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        f,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stored)
}

// ServeUpload 读取已存储的图片
// @Summary 读取上传文件
// @Tags 上传
// @Produce image/jpeg
// @Param filename path string true "文件名"
// @Success 200 {file} file
// @Failure 404 {object} response.Response
// @Router /uploads/{filename} [get]
func (h *Handler) ServeUpload(c *gin.Context) {
	name := c.Param("filename")
	rc, err := h.storage.Open(c.Request.Context(), name)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	// 文件名含时间戳，内容不会变化
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.DataFromReader(http.StatusOK, -1, contentType, rc, nil)
}
