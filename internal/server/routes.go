package server

import (
	"github.com/gin-gonic/gin"

	"github.com/mediakeep/mediakeep/internal/server/handlers"
)

// setupRoutes configures the core API routes. Module routes are
// registered by the module system.
func setupRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		api.GET("/health", handlers.HandleHealthCheck)
		api.GET("/db-status", handlers.HandleDBStatus)
	}
}
