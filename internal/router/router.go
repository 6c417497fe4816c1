package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/studyhall/studyhall-backend/internal/config"
	"github.com/studyhall/studyhall-backend/internal/handler"
	"github.com/studyhall/studyhall-backend/internal/middleware"
	"github.com/studyhall/studyhall-backend/internal/response"
	"github.com/studyhall/studyhall-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth   *handler.AuthHandler
	Course *handler.CourseHandler
	Exam   *handler.ExamHandler
	Admin  *handler.AdminHandler
	WS     *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Serve uploaded avatars statically with aggressive caching (1 year).
	uploadsGroup := router.Group("/uploads")
	uploadsGroup.Use(middleware.CacheControl(31536000))
	{
		uploadsGroup.Static("/", cfg.UploadDir)
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Auth group: registration and login are public, the rest requires
	// a valid token.
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)

		auth.POST("/logout", middleware.RequireAuth(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireAuth(authService), handlers.Auth.Profile)
		auth.PUT("/me/avatar", middleware.RequireAuth(authService), handlers.Auth.UpdateAvatar)
	}

	// Course group: catalog browsing and test taking.
	courses := router.Group("/api/v1/courses")
	courses.Use(middleware.RequireAuth(authService))
	{
		courses.GET("", handlers.Course.List)
		courses.GET("/:id", handlers.Course.Get)
		courses.POST("/start", handlers.Exam.Start)
		courses.POST("/submit", handlers.Exam.Submit)
	}

	// Admin group.
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdmin(authService))
	{
		adminAPI.POST("/courses", handlers.Course.Create)
		adminAPI.DELETE("/courses/:id", handlers.Course.Delete)
		adminAPI.GET("/courses/:id/results", handlers.Course.ListResults)
		adminAPI.DELETE("/courses/:id/results", handlers.Course.WipeResults)
		adminAPI.GET("/courses/:id/export/results", handlers.Course.ExportResults)
		adminAPI.GET("/courses/:id/export/questions", handlers.Course.ExportQuestions)

		adminAPI.GET("/users", handlers.Admin.ListUsers)
		adminAPI.PUT("/users/admin", handlers.Admin.ToggleAdmin)
		adminAPI.DELETE("/users/:username", handlers.Admin.DeleteUser)
		adminAPI.DELETE("/users/:username/results", handlers.Admin.WipeUserResults)

		adminAPI.GET("/events", handlers.Admin.ListEvents)
	}

	// WebSocket group: token arrives as a query param.
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireAdminWSAuth(authService))
	{
		ws.GET("/admin/events", handlers.WS.EventStream)
	}

	return router
}
