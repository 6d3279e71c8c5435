package mediamodule

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mediakeep/mediakeep/internal/database"
	"github.com/mediakeep/mediakeep/internal/logger"
	"github.com/mediakeep/mediakeep/internal/utils"
)

// Manager owns the media library records and the indexed file rows the
// rest of the system reads.
type Manager struct {
	db *gorm.DB
}

// NewManager creates a media manager over the given database
func NewManager(db *gorm.DB) *Manager {
	return &Manager{db: db}
}

// CreateLibrary registers a root directory for indexing. The path must
// exist and be a directory.
func (m *Manager) CreateLibrary(path, libType string) (*database.MediaLibrary, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("library path not accessible: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("library path is not a directory: %s", path)
	}

	switch libType {
	case "video", "image", "mixed":
	default:
		return nil, fmt.Errorf("invalid library type: %s", libType)
	}

	library := &database.MediaLibrary{Path: filepath.Clean(path), Type: libType}
	if err := m.db.Create(library).Error; err != nil {
		return nil, fmt.Errorf("failed to create library: %w", err)
	}

	logger.Info("Media library created: %s (%s)", library.Path, library.Type)
	return library, nil
}

// ListLibraries returns all registered libraries
func (m *Manager) ListLibraries() ([]database.MediaLibrary, error) {
	var libraries []database.MediaLibrary
	if err := m.db.Order("id").Find(&libraries).Error; err != nil {
		return nil, fmt.Errorf("failed to list libraries: %w", err)
	}
	return libraries, nil
}

// DeleteLibrary removes a library and its indexed file rows. Files on
// disk are untouched.
func (m *Manager) DeleteLibrary(id uint) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("library_id = ?", id).Delete(&database.MediaFile{}).Error; err != nil {
			return fmt.Errorf("failed to delete library files: %w", err)
		}
		result := tx.Delete(&database.MediaLibrary{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete library: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("library %d not found", id)
		}
		return nil
	})
}

// IndexFile records one media file's technical attributes, updating the
// existing row when the path is already indexed.
func (m *Manager) IndexFile(file *database.MediaFile) error {
	if file.MediaType == "" {
		file.MediaType = utils.MediaTypeForPath(file.Path)
	}
	if file.MediaType == "" {
		return fmt.Errorf("unrecognized media extension: %s", file.Path)
	}

	err := m.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "path"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"library_id", "media_type", "size_bytes", "width", "height",
			"bitrate", "duration_seconds", "thumbnail_ref", "updated_at",
		}),
	}).Create(file).Error
	if err != nil {
		return fmt.Errorf("failed to index file: %w", err)
	}
	return nil
}

// ListFiles returns every indexed media file
func (m *Manager) ListFiles() ([]database.MediaFile, error) {
	var files []database.MediaFile
	if err := m.db.Order("path").Find(&files).Error; err != nil {
		return nil, fmt.Errorf("failed to list media files: %w", err)
	}
	return files, nil
}

// CountFiles returns the number of indexed media files
func (m *Manager) CountFiles() (int64, error) {
	var count int64
	if err := m.db.Model(&database.MediaFile{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count media files: %w", err)
	}
	return count, nil
}

// RemoveFile drops the indexed row for a path. No-op when the path is
// not indexed.
func (m *Manager) RemoveFile(path string) error {
	if err := m.db.Where("path = ?", path).Delete(&database.MediaFile{}).Error; err != nil {
		return fmt.Errorf("failed to remove indexed file: %w", err)
	}
	return nil
}
