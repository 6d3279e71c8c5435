// Package dupemodule exposes duplicate detection and resolution as an
// application module: scan lifecycle, persisted results, bulk deletion,
// and the interactive review session, all over HTTP.
package dupemodule

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/mediakeep/mediakeep/internal/config"
	"github.com/mediakeep/mediakeep/internal/database"
	"github.com/mediakeep/mediakeep/internal/events"
	"github.com/mediakeep/mediakeep/internal/modules/dupemodule/dupes"
	"github.com/mediakeep/mediakeep/internal/modules/mediamodule"
	"github.com/mediakeep/mediakeep/internal/modules/modulemanager"
	"github.com/mediakeep/mediakeep/internal/utils"
)

// Auto-register the module when imported
func init() {
	Register()
}

const (
	ModuleID   = "system.duplicates"
	ModuleName = "Duplicate Detection"
)

// Module wires the duplicate subsystem into the application
type Module struct {
	id      string
	name    string
	core    bool
	db      *gorm.DB
	manager *dupes.Manager
	session *dupes.Session
}

// Register registers this module with the module system
func Register() {
	dupeModule := &Module{
		id:   ModuleID,
		name: ModuleName,
		core: true,
	}
	modulemanager.Register(dupeModule)
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

// Migrate creates the duplicate result and scan history tables
func (m *Module) Migrate(db *gorm.DB) error {
	m.db = db
	err := db.AutoMigrate(
		&database.DuplicateGroupRow{},
		&database.DuplicateMemberRow{},
		&database.DuplicateResultStateRow{},
		&database.DuplicateScanRow{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate duplicate tables: %w", err)
	}
	return nil
}

// Init builds the duplicate pipeline over the media catalog and loads
// any persisted results from the last completed scan.
func (m *Module) Init() error {
	if m.db == nil {
		return fmt.Errorf("duplicate module requires a database")
	}

	registered, ok := modulemanager.GetModule(mediamodule.ModuleID)
	if !ok {
		return fmt.Errorf("duplicate module requires the media module")
	}
	media, ok := registered.(*mediamodule.Module)
	if !ok {
		return fmt.Errorf("unexpected media module type %T", registered)
	}

	cfg := config.Get().Duplicates
	fp := dupes.NewContentFingerprinter(cfg.SampleBytes)
	engine := dupes.NewEngine(fp, cfg)

	store := dupes.NewStore(m.db)
	if err := store.Load(); err != nil {
		return fmt.Errorf("failed to load duplicate results: %w", err)
	}

	deleter := dupes.OSDeleter{}
	catalog := &mediaCatalog{media: media}
	m.manager = dupes.NewManager(m.db, catalog, engine, store, events.GetGlobalEventBus(), deleter)
	m.session = dupes.NewSession(store, deleter)
	return nil
}

// Manager returns the scan manager. Nil until Init has run.
func (m *Module) Manager() *dupes.Manager {
	return m.manager
}

// mediaCatalog adapts the media module's indexed rows to scan input
type mediaCatalog struct {
	media *mediamodule.Module
}

func (c *mediaCatalog) ListFiles() ([]dupes.File, error) {
	rows, err := c.media.Manager().ListFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to read media catalog: %w", err)
	}

	files := make([]dupes.File, 0, len(rows))
	for _, row := range rows {
		mediaType := row.MediaType
		if mediaType == "" {
			mediaType = utils.MediaTypeForPath(row.Path)
		}
		switch dupes.MediaType(mediaType) {
		case dupes.MediaTypeVideo, dupes.MediaTypeImage:
		default:
			continue
		}

		files = append(files, dupes.File{
			Path:            row.Path,
			MediaType:       dupes.MediaType(mediaType),
			SizeBytes:       row.SizeBytes,
			Width:           row.Width,
			Height:          row.Height,
			Bitrate:         row.Bitrate,
			DurationSeconds: row.DurationSeconds,
			ThumbnailRef:    row.ThumbnailRef,
		})
	}
	return files, nil
}
