package http

import (
	"github.com/gin-gonic/gin"

	"github.com/birdsite/archivist/internal/config"
	"github.com/birdsite/archivist/internal/contentstore"
	"github.com/birdsite/archivist/internal/tasks"
)

// RouterConfig holds all dependencies of the HTTP surface. Optional
// fields may be nil; handlers degrade accordingly (imports run inline
// when no task client is configured).
type RouterConfig struct {
	Store      *contentstore.Store
	TaskClient *tasks.Client
	Archive    config.Archive
	Version    string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	healthController := NewHealthController(cfg.Store, cfg.Version)
	router.GET("/health", healthController.Status)

	importController := &ImportController{
		Store:      cfg.Store,
		TaskClient: cfg.TaskClient,
		Archive:    cfg.Archive,
	}
	router.POST("/api/import/archive", importController.Import)

	if cfg.TaskClient != nil {
		tasksController := NewTasksController(cfg.TaskClient)
		router.GET("/api/tasks/:id", tasksController.Status)
	}

	return router
}
