// Package server assembles the HTTP surface: event bus startup, module
// loading, and route registration.
package server

import (
	"github.com/gin-gonic/gin"

	"github.com/mediakeep/mediakeep/internal/database"
	"github.com/mediakeep/mediakeep/internal/events"
	"github.com/mediakeep/mediakeep/internal/logger"
	"github.com/mediakeep/mediakeep/internal/modules/modulemanager"

	// Import all modules to trigger their registration
	_ "github.com/mediakeep/mediakeep/internal/modules/dupemodule"
	_ "github.com/mediakeep/mediakeep/internal/modules/mediamodule"
)

var systemEventBus events.EventBus
var moduleInitialized bool

// SetupRouter configures and returns the main router
func SetupRouter() (*gin.Engine, error) {
	r := gin.Default()

	// CORS middleware for development
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	if err := initializeEventBus(); err != nil {
		return nil, err
	}

	if err := initializeModules(); err != nil {
		return nil, err
	}

	setupRoutes(r)
	modulemanager.RegisterRoutes(r)

	return r, nil
}

// initializeModules sets up the module system and loads all modules
func initializeModules() error {
	if moduleInitialized {
		return nil
	}

	db := database.GetDB()
	if err := modulemanager.LoadAll(db); err != nil {
		return err
	}

	moduleInitialized = true
	logger.Info("Module system initialized with %d modules", len(modulemanager.ListModules()))
	return nil
}

// initializeEventBus sets up the system-wide event bus
func initializeEventBus() error {
	if systemEventBus != nil {
		return nil
	}

	systemEventBus = events.NewEventBus()
	if err := systemEventBus.Start(); err != nil {
		return err
	}
	events.SetGlobalEventBus(systemEventBus)

	systemEventBus.PublishAsync(events.NewSystemEvent(
		events.EventSystemStarted,
		"System Started",
		"mediakeep backend has started",
	))
	return nil
}

// GetEventBus returns the global event bus instance
func GetEventBus() events.EventBus {
	return systemEventBus
}

// Shutdown stops the event bus after announcing the stop
func Shutdown() error {
	if systemEventBus == nil {
		return nil
	}

	systemEventBus.PublishAsync(events.NewSystemEvent(
		events.EventSystemStopped,
		"System Stopped",
		"mediakeep backend is shutting down",
	))
	return systemEventBus.Stop()
}
