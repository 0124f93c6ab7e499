package app

import (
	"edu_ai_backend/internal/config"
	"edu_ai_backend/internal/middleware"
	"edu_ai_backend/internal/util"
	"edu_ai_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/api/health", c.health.HealthCheck)

	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(cfg))
	{
		// Read endpoints: any authenticated caller may poll runs and
		// fetch generated questions.
		api.GET("/lessons/:topicId/status", c.lesson.GetStatus)
		api.GET("/lessons/:topicId/result", c.lesson.GetResult)
		api.GET("/lessons/:topicId/video", c.lesson.GetVideo)
		api.GET("/questions/:lessonId", c.lesson.GetQuestions)

		// Write endpoints: the platform backend (service tokens) and
		// teachers may start runs and upload material.
		write := api.Group("")
		write.Use(middleware.RoleMiddleware(util.RoleService, util.RoleTeacher))
		{
			write.POST("/lessons/process", c.lesson.ProcessLesson)
			write.POST("/lessons/:topicId/regenerate", c.lesson.Regenerate)
			write.POST("/lessons/:topicId/video", c.lesson.UploadVideo)
		}
	}
}
