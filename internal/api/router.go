// Package api 组装 gin 路由与中间件
package api

import (
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/aiverse-api/config"
	_ "github.com/d60-Lab/aiverse-api/docs"
	"github.com/d60-Lab/aiverse-api/internal/api/handler"
	"github.com/d60-Lab/aiverse-api/internal/api/middleware"
	"github.com/d60-Lab/aiverse-api/pkg/jwt"
)

// NewRouter 注册全部路由；limiter 为 nil 时不限流
func NewRouter(cfg *config.Config, h *handler.Handler, jwtService *jwt.Service, limiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.RequestID(), middleware.Logger())
	if cfg.Sentry.DSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	// 图片已经是压缩格式
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/uploads/"})))

	r.GET("/", h.Root)
	r.GET("/uploads/:filename", h.ServeUpload)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	requireAuth := middleware.RequireAuth(jwtService)

	api := r.Group("/api")
	api.Use(middleware.OptionalAuth(jwtService))
	if limiter != nil {
		api.Use(limiter.Middleware())
	}
	api.GET("/health", h.Health)

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}

	posts := api.Group("/posts")
	{
		posts.GET("", h.ListPosts)
		posts.POST("", requireAuth, h.CreatePost)
		posts.POST("/upload", h.UploadImage)
		posts.GET("/:id", h.GetPost)
		posts.POST("/:id/like", requireAuth, h.ToggleLike)
		posts.GET("/:id/comments", h.ListComments)
		posts.POST("/:id/comments", requireAuth, h.CreateComment)
	}

	users := api.Group("/users")
	{
		users.GET("/me", requireAuth, h.Me)
		users.GET("/:id", h.GetUser)
		users.GET("/:id/posts", h.ListUserPosts)
	}
	return r
}
