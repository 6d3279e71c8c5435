package utils

import (
	"path/filepath"
	"strings"
)

// VideoExtensions contains supported video file extensions
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".m4v":  true,
	".3gp":  true,
	".ogv":  true,
	".ts":   true,
	".mpg":  true,
	".mpeg": true,
}

// ImageExtensions contains supported image file extensions
var ImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".heic": true,
}

// MediaTypeForPath classifies a path as "video" or "image" by its
// extension. The empty string means the file is not a supported media
// type.
func MediaTypeForPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case VideoExtensions[ext]:
		return "video"
	case ImageExtensions[ext]:
		return "image"
	default:
		return ""
	}
}

// IsDecodableImage reports whether the image fingerprinter can decode
// the file at this path (jpeg, png, or webp).
func IsDecodableImage(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png", ".webp":
		return true
	default:
		return false
	}
}
