package database

import (
	"time"
)

// MediaLibrary represents a root directory whose files are indexed
type MediaLibrary struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Path      string    `gorm:"uniqueIndex;not null" json:"path"`
	Type      string    `gorm:"not null" json:"type"` // video, image, mixed
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MediaFile is one indexed file with the technical attributes the
// duplicate scan reads. Rows are produced by the library indexer and
// treated as read-only by the duplicate subsystem.
type MediaFile struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	LibraryID       uint      `gorm:"index;not null" json:"library_id"`
	Path            string    `gorm:"uniqueIndex;not null" json:"path"`
	MediaType       string    `gorm:"index;not null" json:"media_type"` // video or image
	SizeBytes       int64     `json:"size_bytes"`
	Width           int       `json:"width"`
	Height          int       `json:"height"`
	Bitrate         *int64    `json:"bitrate,omitempty"`
	DurationSeconds float64   `json:"duration_seconds"`
	ThumbnailRef    *string   `json:"thumbnail_ref,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
