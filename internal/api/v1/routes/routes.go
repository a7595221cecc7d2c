package routes

import (
	"github.com/gin-gonic/gin"

	"scribe/internal/api/v1/handlers"
	"scribe/internal/api/v1/services"
)

// RegisterRoutes registers all v1 API routes
func RegisterRoutes(router *gin.RouterGroup, container *ServiceContainer) {
	transcriptionHandler := handlers.NewTranscriptionHandler(container.TranscriptionService)
	router.GET("/state", transcriptionHandler.State)

	recording := router.Group("/recording")
	{
		recording.POST("/start", transcriptionHandler.StartRecording)
		recording.POST("/stop", transcriptionHandler.StopRecording)
	}

	router.POST("/file", transcriptionHandler.SelectFile)
	router.DELETE("/file", transcriptionHandler.ClearFile)
	router.POST("/upload", transcriptionHandler.Upload)
	router.GET("/download", transcriptionHandler.Download)

	if container.BackendService != nil {
		backendHandler := handlers.NewBackendHandler(container.BackendService)
		router.GET("/backends", backendHandler.List)
	}
}

// ServiceContainer holds all services needed by handlers
type ServiceContainer struct {
	TranscriptionService services.TranscriptionService
	BackendService       services.BackendService
}
