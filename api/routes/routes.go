package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pcubed/gradeboard/api/handlers"
	"github.com/pcubed/gradeboard/api/middleware"
	"github.com/pcubed/gradeboard/internal/auth"
	"github.com/pcubed/gradeboard/pkg/logger"
)

// SetupRoutes wires middleware and handlers onto the engine.
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, authenticator auth.Authenticator, log logger.Logger) {
	r.Use(middleware.RequestID())
	r.Use(middleware.CORS())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	v1.Use(middleware.Auth(authenticator, log))

	docs := v1.Group("/documents")
	{
		docs.GET("", h.Documents.ListDocuments)
		docs.GET("/summary", h.Documents.GetSummary)
		docs.POST("/format", h.Documents.RequestFormat)
		docs.POST("/:documentId/retry", h.Documents.RetryDocument)
		docs.POST("/upload", h.Documents.Upload)
	}

	v1.GET("/profile", h.Profile.GetProfile)
	v1.PUT("/profile", h.Profile.UpdateProfile)
	v1.GET("/courses/:courseId", h.Profile.GetCourse)
}
