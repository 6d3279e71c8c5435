// Package dupes implements duplicate detection and resolution for the
// media library: quality scoring, similarity grouping, the scan job
// lifecycle, the persisted result store, and the interactive review
// session.
package dupes

import (
	"errors"
	"time"
)

// MediaType distinguishes the two matchable media kinds. Videos and
// images are never cross-matched.
type MediaType string

const (
	MediaTypeVideo MediaType = "video"
	MediaTypeImage MediaType = "image"
)

// MatchType describes how a group's members were matched
type MatchType string

const (
	MatchExact MatchType = "exact"
	MatchNear  MatchType = "near"
)

// File is an immutable snapshot of one media file's technical
// attributes, taken at scan time. It goes stale if the underlying file
// changes after the scan; a rescan is the only refresh.
type File struct {
	Path            string    `json:"path"`
	MediaType       MediaType `json:"media_type"`
	SizeBytes       int64     `json:"size_bytes"`
	Width           int       `json:"width"`
	Height          int       `json:"height"`
	Bitrate         *int64    `json:"bitrate,omitempty"`
	DurationSeconds float64   `json:"duration_seconds,omitempty"`
	QualityScore    float64   `json:"quality_score"`
	ThumbnailRef    *string   `json:"thumbnail_ref,omitempty"`
}

// Group is one cluster of duplicate files. Invariant: len(Files) >= 2
// and RecommendedKeep is the path of exactly one member. Files are
// ordered best-quality first.
type Group struct {
	ID                    string    `json:"id"`
	MediaType             MediaType `json:"media_type"`
	MatchType             MatchType `json:"match_type"`
	Confidence            float64   `json:"confidence"`
	Files                 []File    `json:"files"`
	RecommendedKeep       string    `json:"recommended_keep"`
	PotentialSavingsBytes int64     `json:"potential_savings_bytes"`
}

// Summary aggregates the current group set
type Summary struct {
	TotalGroups           int        `json:"total_groups"`
	VideoGroups           int        `json:"video_groups"`
	ImageGroups           int        `json:"image_groups"`
	PotentialSavingsBytes int64      `json:"potential_savings_bytes"`
	ScanCompletedAt       *time.Time `json:"scan_completed_at,omitempty"`
}

// JobStatus is the scan job lifecycle state
type JobStatus string

const (
	JobIdle      JobStatus = "idle"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// JobState is a snapshot of the process-wide scan job. Progress is
// monotonically non-decreasing while the job runs.
type JobState struct {
	Status    JobStatus  `json:"status"`
	Progress  int        `json:"progress"`
	Message   string     `json:"message"`
	StartedAt *time.Time `json:"started_at,omitempty"`
}

// IsRunning reports whether a scan is currently executing
func (s JobState) IsRunning() bool {
	return s.Status == JobRunning
}

// Catalog enumerates the library's media file records. Implemented by
// the media module; the duplicate subsystem only ever reads from it.
type Catalog interface {
	ListFiles() ([]File, error)
}

// DeleteExecutor removes a file from disk. Errors are per-path and
// never abort a batch.
type DeleteExecutor interface {
	Delete(path string) error
}

var (
	// ErrAlreadyRunning is returned when a scan start is requested
	// while another scan is in flight.
	ErrAlreadyRunning = errors.New("duplicate scan already running")

	// ErrNotFound is returned when a mutation targets a path or group
	// absent from the current results.
	ErrNotFound = errors.New("not found in current results")

	// ErrNothingToReview is returned when a review session is opened
	// with zero groups.
	ErrNothingToReview = errors.New("nothing to review")

	// ErrSessionClosed is returned for review operations on a closed
	// session.
	ErrSessionClosed = errors.New("review session not active")
)
