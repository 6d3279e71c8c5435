package mediamodule

import (
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"github.com/chai2010/webp"

	"github.com/mediakeep/mediakeep/internal/database"
	"github.com/mediakeep/mediakeep/internal/logger"
	"github.com/mediakeep/mediakeep/internal/utils"
)

// ScanResult summarizes one library walk
type ScanResult struct {
	FilesIndexed int `json:"files_indexed"`
	FilesSkipped int `json:"files_skipped"`
}

// ScanLibrary walks a library root and indexes every recognized media
// file. Image dimensions are probed from the file header; video
// attributes beyond size stay zero until supplied through the index
// endpoint. Unreadable files are skipped, not fatal.
func (m *Manager) ScanLibrary(libraryID uint) (*ScanResult, error) {
	var library database.MediaLibrary
	if err := m.db.First(&library, libraryID).Error; err != nil {
		return nil, fmt.Errorf("library %d not found: %w", libraryID, err)
	}

	result := &ScanResult{}
	err := filepath.WalkDir(library.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("Skipping unreadable path %s: %v", path, err)
			result.FilesSkipped++
			return nil
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != library.Path {
				return filepath.SkipDir
			}
			return nil
		}

		mediaType := utils.MediaTypeForPath(path)
		if mediaType == "" {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			logger.Warn("Skipping %s: %v", path, err)
			result.FilesSkipped++
			return nil
		}

		file := &database.MediaFile{
			LibraryID: library.ID,
			Path:      path,
			MediaType: mediaType,
			SizeBytes: info.Size(),
		}
		if mediaType == "image" && utils.IsDecodableImage(path) {
			if w, h, err := probeImageSize(path); err == nil {
				file.Width = w
				file.Height = h
			} else {
				logger.Debug("Could not probe image dimensions for %s: %v", path, err)
			}
		}

		if err := m.IndexFile(file); err != nil {
			logger.Warn("Failed to index %s: %v", path, err)
			result.FilesSkipped++
			return nil
		}
		result.FilesIndexed++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("library walk failed: %w", err)
	}

	logger.Info("Library scan of %s indexed %d files (%d skipped)",
		library.Path, result.FilesIndexed, result.FilesSkipped)
	return result, nil
}

// probeImageSize reads just the image header for its dimensions
func probeImageSize(path string) (width, height int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".webp") {
		img, err := webp.Decode(f)
		if err != nil {
			return 0, 0, err
		}
		bounds := img.Bounds()
		return bounds.Dx(), bounds.Dy(), nil
	}

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}
