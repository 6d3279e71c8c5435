// Package handlers contains HTTP request handlers organized by functionality.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mediakeep/mediakeep/internal/database"
)

// HandleHealthCheck returns the basic health status of the service
func HandleHealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "mediakeep",
	})
}

// HandleDBStatus checks and returns the database connection status
func HandleDBStatus(c *gin.Context) {
	if err := database.HealthCheck(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": "error",
			"error":  "Database ping failed: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "connected",
		"database": "ready",
	})
}
