package dupemodule

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mediakeep/mediakeep/internal/modules/dupemodule/dupes"
)

// RegisterRoutes registers the duplicate subsystem HTTP endpoints
func (m *Module) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/duplicates")
	{
		api.GET("", m.getResults)
		api.POST("/scan/start", m.startScan)
		api.GET("/scan/status", m.scanStatus)
		api.POST("/delete", m.deleteFiles)
		api.POST("/clear", m.clearResults)
		api.DELETE("/groups/:id", m.dismissGroup)

		review := api.Group("/review")
		{
			review.POST("/open", m.openReview)
			review.GET("/current", m.currentGroup)
			review.POST("/keep", m.keepFile)
			review.POST("/skip", m.skipGroup)
			review.POST("/accept", m.acceptRecommendation)
			review.POST("/close", m.closeReview)
		}
	}
}

func (m *Module) startScan(c *gin.Context) {
	if err := m.manager.StartScan(); err != nil {
		if errors.Is(err, dupes.ErrAlreadyRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": "A duplicate scan is already running"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to start scan",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Duplicate scan started"})
}

func (m *Module) scanStatus(c *gin.Context) {
	state := m.manager.Status()
	c.JSON(http.StatusOK, gin.H{
		"status":     state.Status,
		"is_running": state.IsRunning(),
		"progress":   state.Progress,
		"message":    state.Message,
		"started_at": state.StartedAt,
	})
}

func (m *Module) getResults(c *gin.Context) {
	groups, summary, ok := m.manager.Store().Get()
	c.JSON(http.StatusOK, gin.H{
		"has_results": ok,
		"summary":     summary,
		"groups":      groups,
	})
}

func (m *Module) deleteFiles(c *gin.Context) {
	var req struct {
		Paths []string `json:"paths" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}
	if len(req.Paths) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "paths must not be empty"})
		return
	}

	result := m.manager.DeletePaths(req.Paths)
	c.JSON(http.StatusOK, gin.H{
		"deleted":     result.Deleted,
		"failed":      result.Failed,
		"freed_bytes": result.FreedBytes,
	})
}

func (m *Module) clearResults(c *gin.Context) {
	if err := m.manager.ClearResults(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to clear results",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Duplicate results cleared"})
}

// dismissGroup drops a group from the results without deleting any
// files, for groups the user judges to be false positives.
func (m *Module) dismissGroup(c *gin.Context) {
	if err := m.manager.Store().RemoveGroup(c.Param("id")); err != nil {
		if errors.Is(err, dupes.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Group not found", "details": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to dismiss group",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Group dismissed"})
}

func (m *Module) openReview(c *gin.Context) {
	if err := m.session.Open(); err != nil {
		if errors.Is(err, dupes.ErrNothingToReview) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No duplicate groups to review"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to open review",
			"details": err.Error(),
		})
		return
	}

	current, err := m.session.Current()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to read current group",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, current)
}

func (m *Module) currentGroup(c *gin.Context) {
	current, err := m.session.Current()
	if err != nil {
		m.reviewError(c, err)
		return
	}
	c.JSON(http.StatusOK, current)
}

func (m *Module) keepFile(c *gin.Context) {
	var req struct {
		Side *int `json:"side" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	result, err := m.session.KeepFile(*req.Side)
	if err != nil {
		m.reviewError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (m *Module) skipGroup(c *gin.Context) {
	done, err := m.session.Skip()
	if err != nil {
		m.reviewError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"done": done})
}

func (m *Module) acceptRecommendation(c *gin.Context) {
	result, err := m.session.AcceptRecommendation()
	if err != nil {
		m.reviewError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (m *Module) closeReview(c *gin.Context) {
	m.session.Close()
	c.JSON(http.StatusOK, gin.H{"message": "Review session closed"})
}

func (m *Module) reviewError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dupes.ErrSessionClosed):
		c.JSON(http.StatusConflict, gin.H{"error": "No active review session"})
	case errors.Is(err, dupes.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Group no longer present", "details": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Review operation failed", "details": err.Error()})
	}
}
