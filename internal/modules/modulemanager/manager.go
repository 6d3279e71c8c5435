// Package modulemanager wires the application's feature modules:
// registration, database migration, initialization, and route setup.
package modulemanager

import (
	"fmt"
	"sync"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mediakeep/mediakeep/internal/logger"
)

// Module defines the interface that all modules must implement
type Module interface {
	ID() string                // Unique identifier for the module
	Name() string              // Display name for the module
	Core() bool                // Whether this is a core module (cannot be disabled)
	Migrate(db *gorm.DB) error // Run database migrations
	Init() error               // Initialize the module
}

// RouteRegistrar is an optional interface for modules that register routes
type RouteRegistrar interface {
	RegisterRoutes(router *gin.Engine)
}

// ModuleRegistry manages module registration and initialization
type ModuleRegistry struct {
	modules     map[string]Module
	order       []string
	mu          sync.RWMutex
	initialized bool
}

// Registry is the global module registry
var Registry = &ModuleRegistry{
	modules: make(map[string]Module),
}

// Register adds a module to the global registry
func Register(m Module) {
	Registry.Register(m)
}

// Register adds a module to the registry
func (r *ModuleRegistry) Register(m Module) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		logger.Warn("Module %s (%s) registered after initialization", m.Name(), m.ID())
	}

	if _, exists := r.modules[m.ID()]; !exists {
		r.order = append(r.order, m.ID())
	}
	r.modules[m.ID()] = m
	logger.Info("Module registered: %s (%s)", m.Name(), m.ID())
}

// LoadAll migrates and initializes all registered modules
func LoadAll(db *gorm.DB) error {
	return Registry.LoadAll(db)
}

// LoadAll migrates and initializes all registered modules in
// registration order.
func (r *ModuleRegistry) LoadAll(db *gorm.DB) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		logger.Warn("Module system already initialized")
		return nil
	}

	logger.Info("Loading %d modules...", len(r.modules))

	for _, id := range r.order {
		module := r.modules[id]

		if err := module.Migrate(db); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", module.Name(), err)
		}

		if err := module.Init(); err != nil {
			return fmt.Errorf("failed to initialize %s: %w", module.Name(), err)
		}

		logger.Info("Module loaded: %s", module.Name())
	}

	r.initialized = true
	return nil
}

// GetModule returns a module by ID
func GetModule(id string) (Module, bool) {
	return Registry.GetModule(id)
}

// GetModule returns a module by ID
func (r *ModuleRegistry) GetModule(id string) (Module, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	module, exists := r.modules[id]
	return module, exists
}

// ListModules returns all registered modules
func ListModules() []Module {
	return Registry.ListModules()
}

// ListModules returns all registered modules in registration order
func (r *ModuleRegistry) ListModules() []Module {
	r.mu.RLock()
	defer r.mu.RUnlock()
	modules := make([]Module, 0, len(r.order))
	for _, id := range r.order {
		modules = append(modules, r.modules[id])
	}
	return modules
}

// RegisterRoutes registers routes for all modules that implement RouteRegistrar
func RegisterRoutes(router *gin.Engine) {
	Registry.RegisterRoutes(router)
}

// RegisterRoutes registers routes for all modules that implement RouteRegistrar
func (r *ModuleRegistry) RegisterRoutes(router *gin.Engine) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		module := r.modules[id]
		if routeRegistrar, ok := module.(RouteRegistrar); ok {
			logger.Info("Registering routes for module: %s", module.Name())
			routeRegistrar.RegisterRoutes(router)
		}
	}
}

// Reset clears the registry. Only used by tests that exercise module
// wiring in isolation.
func Reset() {
	Registry.mu.Lock()
	defer Registry.mu.Unlock()
	Registry.modules = make(map[string]Module)
	Registry.order = nil
	Registry.initialized = false
}
