package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/EgehanKilicarslan/blog-api/internal/config"
	"github.com/EgehanKilicarslan/blog-api/internal/handler"
	"github.com/EgehanKilicarslan/blog-api/internal/middleware"
)

func SetupRouter(
	authHandler *handler.AuthHandler,
	postHandler *handler.PostHandler,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
	logger *slog.Logger,
) *gin.Engine {
	r := gin.New()
	r.SetTrustedProxies(nil)

	r.Use(
		middleware.RequestLogger(logger),
		middleware.ErrorHandler(logger, !cfg.IsProduction()),
		middleware.Recovery(logger),
	)
	r.NoRoute(middleware.NotFound)

	// Public routes
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "success",
			"message":   "Server is running",
			"timestamp": time.Now().UTC(),
		})
	})

	// Auth routes (Public)
	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	// Post routes: reads allow anonymous callers, writes require a token
	posts := r.Group("/api/posts")
	{
		posts.GET("", authMiddleware.OptionalAuth(), postHandler.List)
		posts.GET("/:slug", authMiddleware.OptionalAuth(), postHandler.GetBySlug)
		posts.POST("", authMiddleware.RequireAuth(), postHandler.Create)
		posts.PUT("/:id", authMiddleware.RequireAuth(), postHandler.Update)
		posts.DELETE("/:id", authMiddleware.RequireAuth(), postHandler.Delete)
	}

	return r
}
