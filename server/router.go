package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	httpHandler "crosspost/interfaces/http"
	"crosspost/interfaces/middleware"
)

func InitiateRouter(schedulerHandler httpHandler.ISchedulerHandler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:4200", "https://localhost:4200"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/healthz", schedulerHandler.Healthz)

	api := router.Group("api")
	api.Use(middleware.Auth())
	api.GET("/jobs", schedulerHandler.ListJobs)
	api.POST("/jobs/:name/run", schedulerHandler.RunJob)

	return router
}
