package mediamodule

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/mediakeep/mediakeep/internal/database"
	"github.com/mediakeep/mediakeep/internal/events"
	"github.com/mediakeep/mediakeep/internal/modules/modulemanager"
)

// Auto-register the module when imported
func init() {
	Register()
}

const (
	ModuleID   = "system.media"
	ModuleName = "Media Library"
)

// Module owns the media library catalog: library roots and the indexed
// file records other modules read.
type Module struct {
	id       string
	name     string
	core     bool
	db       *gorm.DB
	eventBus events.EventBus
	manager  *Manager
}

// Register registers this module with the module system
func Register() {
	mediaModule := &Module{
		id:   ModuleID,
		name: ModuleName,
		core: true,
	}
	modulemanager.Register(mediaModule)
}

// ID returns the module ID
func (m *Module) ID() string {
	return m.id
}

// Name returns the module name
func (m *Module) Name() string {
	return m.name
}

// Core returns whether this is a core module
func (m *Module) Core() bool {
	return m.core
}

// Migrate creates the media catalog tables
func (m *Module) Migrate(db *gorm.DB) error {
	m.db = db
	if err := db.AutoMigrate(&database.MediaLibrary{}, &database.MediaFile{}); err != nil {
		return fmt.Errorf("failed to migrate media tables: %w", err)
	}
	return nil
}

// Init initializes the media module
func (m *Module) Init() error {
	if m.db == nil {
		return fmt.Errorf("media module requires a database")
	}
	m.eventBus = events.GetGlobalEventBus()
	m.manager = NewManager(m.db)
	return nil
}

// Manager returns the media manager. Nil until Init has run.
func (m *Module) Manager() *Manager {
	return m.manager
}
