package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"devboard/internal/api/middleware"
	"devboard/internal/application"
	"devboard/internal/auth"
	"devboard/internal/config"
	"devboard/internal/identity"
	"devboard/internal/job"
	"devboard/internal/storage"
)

// RegisterRoutes 注册 API 路由，不包含 /api 前缀。
func RegisterRoutes(
	router *gin.Engine,
	cfg *config.Config,
	db *gorm.DB,
	authService *auth.AuthService,
	redisClient *redis.Client,
	logger *slog.Logger,
	storageClient *storage.Client,
) {
	jobRepo := job.NewGormRepository(db)
	appRepo := application.NewGormRepository(db)
	jobService := job.NewService(jobRepo)
	appService := application.NewService(appRepo, jobRepo)

	events := newEventPublisher(redisClient, logger)

	authHandler := NewAuthHandler(
		db, authService, redisClient, logger,
		cfg.Auth.LoginRateLimitPerHour,
		cfg.Auth.LoginLockThreshold,
		time.Duration(cfg.Auth.LoginLockTTLMin)*time.Minute,
		cfg.Auth.CookieDomain,
	)
	jobHandler := NewJobHandler(jobService, logger)
	appHandler := NewApplicationHandler(appService, events, logger)
	companyHandler := NewCompanyHandler(db, logger)
	adminHandler := NewAdminHandler(db, jobService, logger)
	assetHandler := NewAssetHandler(
		storageClient, logger, cfg.Uploads.ClamdAddr, redisClient,
		cfg.Uploads.MaxBytes, cfg.Uploads.MaxUploadsPerDay,
	)
	wsHandler := NewWsHandler(redisClient, authService, logger, cfg.API.Origins())

	authMiddleware := middleware.AuthMiddleware(authService)

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
		}

		jobGroup := v1.Group("/jobs")
		{
			jobGroup.GET("", jobHandler.ListJobs)
			jobGroup.GET("/:id", jobHandler.GetJob)

			jobGroup.POST("", authMiddleware, jobHandler.CreateJob)
			jobGroup.PATCH("/:id", authMiddleware, jobHandler.UpdateJob)
			jobGroup.DELETE("/:id", authMiddleware, jobHandler.DeleteJob)
			jobGroup.PATCH("/:id/active", authMiddleware, jobHandler.ToggleJobActive)

			jobGroup.POST("/:id/applications", authMiddleware, appHandler.Apply)
			jobGroup.GET("/:id/applications", authMiddleware, appHandler.ListForJob)
		}

		appGroup := v1.Group("/applications")
		appGroup.Use(authMiddleware)
		{
			appGroup.PATCH("/:id/status", appHandler.UpdateStatus)
			appGroup.POST("/:id/withdraw", appHandler.Withdraw)
		}

		meGroup := v1.Group("/me")
		meGroup.Use(authMiddleware)
		{
			meGroup.GET("/applications", appHandler.ListMine)
		}

		employerGroup := v1.Group("/employer")
		employerGroup.Use(authMiddleware)
		{
			employerGroup.GET("/applications", appHandler.ListForEmployer)
			employerGroup.GET("/company", companyHandler.Get)
			employerGroup.PUT("/company", companyHandler.Upsert)
		}

		assetGroup := v1.Group("/assets")
		assetGroup.Use(authMiddleware)
		{
			assetGroup.POST("/upload", assetHandler.UploadAsset)
			assetGroup.GET("/view", assetHandler.GetAssetURL)
		}

		adminGroup := v1.Group("/admin")
		adminGroup.Use(authMiddleware, middleware.RequireRole(identity.RoleAdmin))
		{
			adminGroup.GET("/users", adminHandler.ListUsers)
			adminGroup.PATCH("/users/:id/role", adminHandler.UpdateUserRole)
			adminGroup.DELETE("/users/:id", adminHandler.DeleteUser)
			adminGroup.GET("/jobs", adminHandler.ListJobs)
			adminGroup.DELETE("/jobs/:id", adminHandler.DeleteJob)
			adminGroup.GET("/applications", adminHandler.ListApplications)
		}
	}
}
