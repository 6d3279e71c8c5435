package mediamodule

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mediakeep/mediakeep/internal/database"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&database.MediaLibrary{}, &database.MediaFile{}))
	return db
}

func TestCreateLibrary(t *testing.T) {
	m := NewManager(setupTestDB(t))
	dir := t.TempDir()

	library, err := m.CreateLibrary(dir, "mixed")
	require.NoError(t, err)
	assert.Equal(t, dir, library.Path)
	assert.NotZero(t, library.ID)

	libraries, err := m.ListLibraries()
	require.NoError(t, err)
	assert.Len(t, libraries, 1)
}

func TestCreateLibrary_Validation(t *testing.T) {
	m := NewManager(setupTestDB(t))

	_, err := m.CreateLibrary("/does/not/exist", "video")
	assert.Error(t, err)

	_, err = m.CreateLibrary(t.TempDir(), "music")
	assert.Error(t, err, "unknown library type must be rejected")
}

func TestIndexFile_UpsertsByPath(t *testing.T) {
	m := NewManager(setupTestDB(t))

	file := &database.MediaFile{LibraryID: 1, Path: "/media/a.mp4", SizeBytes: 100}
	require.NoError(t, m.IndexFile(file))
	assert.Equal(t, "video", file.MediaType, "media type inferred from extension")

	// Re-indexing the same path updates the row instead of duplicating it.
	update := &database.MediaFile{LibraryID: 1, Path: "/media/a.mp4", SizeBytes: 250}
	require.NoError(t, m.IndexFile(update))

	files, err := m.ListFiles()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, int64(250), files[0].SizeBytes)
}

func TestIndexFile_RejectsUnknownExtension(t *testing.T) {
	m := NewManager(setupTestDB(t))
	err := m.IndexFile(&database.MediaFile{LibraryID: 1, Path: "/media/notes.txt"})
	assert.Error(t, err)
}

func TestDeleteLibrary_RemovesItsFiles(t *testing.T) {
	m := NewManager(setupTestDB(t))
	dir := t.TempDir()

	library, err := m.CreateLibrary(dir, "video")
	require.NoError(t, err)
	require.NoError(t, m.IndexFile(&database.MediaFile{LibraryID: library.ID, Path: "/media/a.mp4"}))

	require.NoError(t, m.DeleteLibrary(library.ID))

	count, err := m.CountFiles()
	require.NoError(t, err)
	assert.Zero(t, count)

	assert.Error(t, m.DeleteLibrary(library.ID), "deleting twice reports not found")
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x + y) % 256)})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func TestScanLibrary_IndexesRecognizedFiles(t *testing.T) {
	m := NewManager(setupTestDB(t))
	dir := t.TempDir()

	writePNG(t, filepath.Join(dir, "photo.png"), 320, 240)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "clip.mp4"), []byte("not a real video"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	library, err := m.CreateLibrary(dir, "mixed")
	require.NoError(t, err)

	result, err := m.ScanLibrary(library.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.FilesIndexed)

	files, err := m.ListFiles()
	require.NoError(t, err)
	require.Len(t, files, 2)

	byPath := map[string]database.MediaFile{}
	for _, f := range files {
		byPath[filepath.Base(f.Path)] = f
	}
	photo := byPath["photo.png"]
	assert.Equal(t, "image", photo.MediaType)
	assert.Equal(t, 320, photo.Width)
	assert.Equal(t, 240, photo.Height)
	assert.Equal(t, "video", byPath["clip.mp4"].MediaType)
}

func TestScanLibrary_UnknownLibrary(t *testing.T) {
	m := NewManager(setupTestDB(t))
	_, err := m.ScanLibrary(42)
	assert.Error(t, err)
}
