package handler

import (
	"context"
	"errors"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/d60-Lab/aiverse-api/internal/media"
	"github.com/d60-Lab/aiverse-api/internal/model"
	"github.com/d60-Lab/aiverse-api/internal/service"
)

// ImageIngester 上传图片处理
type ImageIngester interface {
	Ingest(ctx context.Context, up media.Upload) (*model.StoredImage, error)
}

// Handler 所有 HTTP 处理器共享的依赖
type Handler struct {
	postService service.PostService
	authService service.AuthService
	images      ImageIngester
	storage     media.Storage
	maxUpload   int64
	ping        func(context.Context) error
}

type Option func(*Handler)

// WithMaxUploadBytes 上传大小上限
func WithMaxUploadBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxUpload = n
		}
	}
}

// WithHealthCheck 健康检查时额外探测依赖
func WithHealthCheck(ping func(context.Context) error) Option {
	return func(h *Handler) { h.ping = ping }
}

func NewHandler(
	postService service.PostService,
	authService service.AuthService,
	images ImageIngester,
	storage media.Storage,
	opts ...Option,
) *Handler {
	h := &Handler{
		postService: postService,
		authService: authService,
		images:      images,
		storage:     storage,
		maxUpload:   10 << 20,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

var registerOnce sync.Once

// RegisterValidators 在 gin 的校验引擎上注册自定义 tag
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected validator engine")
	}
	var err error
	registerOnce.Do(func() {
		err = v.RegisterValidation("notblank", validators.NotBlank)
		if err != nil {
			return
		}
		// 错误信息使用 json 字段名
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return err
}

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
