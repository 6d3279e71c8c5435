package dupes

import (
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"gorm.io/gorm"

	"github.com/mediakeep/mediakeep/internal/database"
	"github.com/mediakeep/mediakeep/internal/events"
	"github.com/mediakeep/mediakeep/internal/logger"
)

// Manager owns the duplicate scan lifecycle. Exactly one scan may run
// at a time; a second start request is rejected, never queued. The
// scan executes on a background goroutine and runs to completion (or
// failure) regardless of whether anyone polls its status.
type Manager struct {
	db       *gorm.DB
	catalog  Catalog
	engine   *Engine
	store    *Store
	eventBus events.EventBus
	deleter  DeleteExecutor

	mu  sync.Mutex
	job JobState
}

// NewManager creates a scan manager
func NewManager(db *gorm.DB, catalog Catalog, engine *Engine, store *Store, eventBus events.EventBus, deleter DeleteExecutor) *Manager {
	return &Manager{
		db:       db,
		catalog:  catalog,
		engine:   engine,
		store:    store,
		eventBus: eventBus,
		deleter:  deleter,
		job:      JobState{Status: JobIdle},
	}
}

// Store exposes the result store the manager publishes into
func (m *Manager) Store() *Store {
	return m.store
}

// StartScan launches a full-library duplicate scan in the background.
// Returns ErrAlreadyRunning when a scan is in flight. Previously
// persisted results stay readable until the new scan completes.
func (m *Manager) StartScan() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.job.Status == JobRunning {
		return ErrAlreadyRunning
	}

	now := time.Now()
	m.job = JobState{
		Status:    JobRunning,
		Progress:  0,
		Message:   "Enumerating media catalog",
		StartedAt: &now,
	}

	if m.eventBus != nil {
		m.eventBus.PublishAsync(events.NewSystemEvent(
			events.EventScanStarted,
			"Duplicate Scan Started",
			"Scanning the media library for duplicate files",
		))
	}

	go m.runScan(now)

	return nil
}

// Status returns a non-blocking snapshot of the scan job state; safe
// to poll at high frequency.
func (m *Manager) Status() JobState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.job
}

// runScan executes the scan to completion on its own goroutine
func (m *Manager) runScan(startedAt time.Time) {
	files, err := m.catalog.ListFiles()
	if err != nil {
		m.failScan(startedAt, 0, fmt.Errorf("failed to enumerate catalog: %w", err))
		return
	}

	m.setProgress(5, fmt.Sprintf("Comparing %d candidate files", len(files)))

	groups := m.engine.BuildGroups(files, func(done, total int) {
		// Per-bucket reporting bounds update frequency on large
		// libraries; the 5-95 band leaves room for enumerate/publish.
		m.setProgress(5+done*90/total, fmt.Sprintf("Compared bucket %d of %d", done, total))
	})

	completedAt := time.Now()
	if err := m.store.Replace(groups, completedAt); err != nil {
		m.failScan(startedAt, len(files), fmt.Errorf("failed to persist scan results: %w", err))
		return
	}

	_, summary, _ := m.store.Get()

	msg := fmt.Sprintf("Found %d duplicate groups, %s reclaimable",
		summary.TotalGroups, humanize.Bytes(uint64(summary.PotentialSavingsBytes)))

	m.mu.Lock()
	m.job.Status = JobCompleted
	m.job.Progress = 100
	m.job.Message = msg
	m.mu.Unlock()

	m.recordScan("completed", msg, len(files), summary, startedAt, &completedAt)

	logger.Info("Duplicate scan completed: %s", msg)
	if m.eventBus != nil {
		ev := events.NewSystemEvent(events.EventScanCompleted, "Duplicate Scan Completed", msg)
		ev.Data = map[string]interface{}{
			"files_scanned": len(files),
			"groups_found":  summary.TotalGroups,
			"savings_bytes": summary.PotentialSavingsBytes,
			"duration":      completedAt.Sub(startedAt).String(),
		}
		m.eventBus.PublishAsync(ev)
	}
}

// failScan marks the job failed. No partial result set is published;
// previously persisted results remain authoritative.
func (m *Manager) failScan(startedAt time.Time, filesScanned int, err error) {
	msg := err.Error()

	m.mu.Lock()
	m.job.Status = JobFailed
	m.job.Message = msg
	m.mu.Unlock()

	m.recordScan("failed", msg, filesScanned, Summary{}, startedAt, nil)

	logger.Error("Duplicate scan failed: %v", err)
	if m.eventBus != nil {
		m.eventBus.PublishAsync(events.NewSystemEvent(
			events.EventScanFailed,
			"Duplicate Scan Failed",
			msg,
		))
	}
}

// setProgress raises the job's progress. Progress never moves
// backwards while the job runs.
func (m *Manager) setProgress(progress int, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.job.Status != JobRunning {
		return
	}
	if progress > m.job.Progress {
		m.job.Progress = progress
	}
	m.job.Message = message
}

// recordScan appends a scan history row; failures to record are logged
// and otherwise ignored.
func (m *Manager) recordScan(status, message string, filesScanned int, summary Summary, startedAt time.Time, completedAt *time.Time) {
	if m.db == nil {
		return
	}
	row := database.DuplicateScanRow{
		Status:       status,
		Message:      message,
		FilesScanned: filesScanned,
		GroupsFound:  summary.TotalGroups,
		SavingsBytes: summary.PotentialSavingsBytes,
		StartedAt:    startedAt,
		CompletedAt:  completedAt,
	}
	if err := m.db.Create(&row).Error; err != nil {
		logger.Warn("Failed to record scan history: %v", err)
	}
}

// DeleteFailure describes one path that could not be deleted
type DeleteFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// DeleteResult is the outcome of a batch deletion
type DeleteResult struct {
	Deleted    []string        `json:"deleted"`
	Failed     []DeleteFailure `json:"failed"`
	FreedBytes int64           `json:"freed_bytes"`
}

// DeletePaths deletes the given files from disk and removes each
// successfully deleted one from the current results. Errors are
// per-path: one failure never aborts the batch. Paths not present in
// the current results are reported as failures and never touched on
// disk, so a stale client cannot delete arbitrary files.
func (m *Manager) DeletePaths(paths []string) DeleteResult {
	result := DeleteResult{Deleted: []string{}, Failed: []DeleteFailure{}}

	for _, path := range paths {
		file, ok := m.store.FindFile(path)
		if !ok {
			result.Failed = append(result.Failed, DeleteFailure{
				Path:  path,
				Error: ErrNotFound.Error(),
			})
			continue
		}

		if err := m.deleter.Delete(path); err != nil {
			logger.Warn("Failed to delete %s: %v", path, err)
			result.Failed = append(result.Failed, DeleteFailure{Path: path, Error: err.Error()})
			continue
		}

		if err := m.store.RemoveFile(path); err != nil {
			// Deleted on disk but already gone from results; the
			// store is unchanged and the deletion still counts.
			logger.Warn("Deleted %s but could not update results: %v", path, err)
		}

		result.Deleted = append(result.Deleted, path)
		result.FreedBytes += file.SizeBytes

		if m.eventBus != nil {
			ev := events.NewSystemEvent(events.EventMediaFileDeleted, "Duplicate Deleted", path)
			ev.Data = map[string]interface{}{"path": path, "size_bytes": file.SizeBytes}
			m.eventBus.PublishAsync(ev)
		}
	}

	if len(result.Deleted) > 0 {
		logger.Info("Deleted %d duplicate files, freed %s",
			len(result.Deleted), humanize.Bytes(uint64(result.FreedBytes)))
	}

	return result
}

// ClearResults discards the persisted results so the next read reports
// that no scan has run.
func (m *Manager) ClearResults() error {
	if err := m.store.Clear(); err != nil {
		return err
	}
	if m.eventBus != nil {
		m.eventBus.PublishAsync(events.NewSystemEvent(
			events.EventResultsCleared,
			"Duplicate Results Cleared",
			"Persisted duplicate scan results were discarded",
		))
	}
	return nil
}
