package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldtrack/trips-backend-go/internal/config"
	"github.com/fieldtrack/trips-backend-go/internal/database"
	"github.com/fieldtrack/trips-backend-go/internal/handler"
	"github.com/fieldtrack/trips-backend-go/internal/middleware"
	"github.com/fieldtrack/trips-backend-go/internal/repository"
	"github.com/fieldtrack/trips-backend-go/internal/service"
)

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Trips Backend API is running",
		})
	})

	db := database.GetDB()
	shiftRepo := repository.NewShiftRepository(db)
	fixRepo := repository.NewFixRepository(db)
	tripRepo := repository.NewTripRepository(db)

	shiftHandler := handler.NewShiftHandler(shiftRepo, fixRepo)
	tripHandler := handler.NewTripHandler(tripRepo)
	detectionHandler := handler.NewDetectionHandler(service.NewDetectionService(db))
	reprocessHandler := handler.NewReprocessHandler(service.NewMatchService(db, cfg.Matcher))

	// API 路由组
	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(300, time.Minute))
	{
		shifts := api.Group("/shifts")
		{
			shifts.GET("/:id/trips", tripHandler.ListShiftTrips)

			protected := shifts.Group("")
			protected.Use(middleware.JWTAuth(cfg.JWTSecret))
			{
				protected.POST("", shiftHandler.CreateShift)
				protected.POST("/:id/complete", shiftHandler.CompleteShift)
				protected.POST("/:id/fixes", shiftHandler.UploadFixes)
				protected.POST("/:id/detect", detectionHandler.DetectTrips)
			}
		}

		trips := api.Group("/trips")
		{
			trips.GET("/:id", tripHandler.GetTripByID)

			protected := trips.Group("")
			protected.Use(middleware.JWTAuth(cfg.JWTSecret))
			{
				protected.POST("/reprocess", reprocessHandler.Reprocess)
			}
		}

		api.GET("/batch-runs", reprocessHandler.ListBatchRuns)
	}

	return r
}
