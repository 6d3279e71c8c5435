package database

import (
	"time"
)

// DuplicateGroupRow persists one duplicate group from the latest
// completed scan. Rows are replaced wholesale when a scan completes and
// mutated in place by deletion operations between scans.
type DuplicateGroupRow struct {
	ID              string    `gorm:"primaryKey" json:"id"`
	Position        int       `gorm:"index" json:"position"`
	MediaType       string    `gorm:"index;not null" json:"media_type"`
	MatchType       string    `gorm:"not null" json:"match_type"` // exact or near
	Confidence      float64   `json:"confidence"`
	RecommendedKeep string    `json:"recommended_keep"`
	SavingsBytes    int64     `json:"savings_bytes"`
	CreatedAt       time.Time `json:"created_at"`
}

// DuplicateMemberRow persists one file snapshot inside a group
type DuplicateMemberRow struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	GroupID      string  `gorm:"index;not null" json:"group_id"`
	Position     int     `json:"position"`
	Path         string  `gorm:"index;not null" json:"path"`
	MediaType    string  `json:"media_type"`
	SizeBytes    int64   `json:"size_bytes"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	Bitrate      *int64  `json:"bitrate,omitempty"`
	QualityScore float64 `json:"quality_score"`
	ThumbnailRef *string `json:"thumbnail_ref,omitempty"`
}

// DuplicateResultStateRow marks that a completed scan's results are
// persisted, even when that scan found zero groups. Single row, ID 1.
type DuplicateResultStateRow struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ScanCompletedAt time.Time `json:"scan_completed_at"`
}

// DuplicateScanRow records one completed or failed scan run
type DuplicateScanRow struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Status         string     `gorm:"not null" json:"status"` // completed or failed
	Message        string     `json:"message"`
	FilesScanned   int        `json:"files_scanned"`
	GroupsFound    int        `json:"groups_found"`
	SavingsBytes   int64      `json:"savings_bytes"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}
