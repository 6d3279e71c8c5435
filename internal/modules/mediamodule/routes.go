package mediamodule

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mediakeep/mediakeep/internal/database"
)

// RegisterRoutes registers the media catalog HTTP endpoints
func (m *Module) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/media")
	{
		api.GET("/libraries", m.listLibraries)
		api.POST("/libraries", m.createLibrary)
		api.DELETE("/libraries/:id", m.deleteLibrary)
		api.POST("/libraries/:id/scan", m.scanLibrary)
		api.GET("/files", m.listFiles)
		api.POST("/files", m.indexFile)
	}
}

func (m *Module) listLibraries(c *gin.Context) {
	libraries, err := m.manager.ListLibraries()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list libraries",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"libraries": libraries})
}

func (m *Module) createLibrary(c *gin.Context) {
	var req struct {
		Path string `json:"path" binding:"required"`
		Type string `json:"type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	library, err := m.manager.CreateLibrary(req.Path, req.Type)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to create library",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"library": library})
}

func (m *Module) deleteLibrary(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid library ID"})
		return
	}

	if err := m.manager.DeleteLibrary(uint(id)); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Failed to delete library",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Library deleted"})
}

func (m *Module) scanLibrary(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid library ID"})
		return
	}

	result, err := m.manager.ScanLibrary(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Library scan failed",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (m *Module) listFiles(c *gin.Context) {
	files, err := m.manager.ListFiles()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to list media files",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"files": files,
		"total": len(files),
	})
}

func (m *Module) indexFile(c *gin.Context) {
	var file database.MediaFile
	if err := c.ShouldBindJSON(&file); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}
	if file.Path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}

	if err := m.manager.IndexFile(&file); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Failed to index file",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"file": file})
}
