package dupes

import (
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/mediakeep/mediakeep/internal/database"
	"github.com/mediakeep/mediakeep/internal/logger"
)

// Store holds the latest completed scan's groups and summary. Every
// mutation is committed through gorm before it becomes visible in
// memory, so results survive a restart and a failed write leaves the
// current results untouched. All mutations are serialized by a single
// mutex: one mutation completes fully before the next begins, and
// readers never observe a half-applied change.
type Store struct {
	db *gorm.DB

	mu         sync.Mutex
	groups     []Group
	summary    Summary
	hasResults bool
}

// NewStore creates a result store backed by the given database
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Load reads persisted results into memory. Called once at module
// init; a missing state row means no scan has ever completed.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var state database.DuplicateResultStateRow
	err := s.db.First(&state, 1).Error
	if err == gorm.ErrRecordNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load result state: %w", err)
	}

	var groupRows []database.DuplicateGroupRow
	if err := s.db.Order("position").Find(&groupRows).Error; err != nil {
		return fmt.Errorf("failed to load duplicate groups: %w", err)
	}

	var memberRows []database.DuplicateMemberRow
	if err := s.db.Order("group_id, position").Find(&memberRows).Error; err != nil {
		return fmt.Errorf("failed to load group members: %w", err)
	}

	membersByGroup := make(map[string][]File)
	for _, m := range memberRows {
		membersByGroup[m.GroupID] = append(membersByGroup[m.GroupID], File{
			Path:         m.Path,
			MediaType:    MediaType(m.MediaType),
			SizeBytes:    m.SizeBytes,
			Width:        m.Width,
			Height:       m.Height,
			Bitrate:      m.Bitrate,
			QualityScore: m.QualityScore,
			ThumbnailRef: m.ThumbnailRef,
		})
	}

	groups := make([]Group, 0, len(groupRows))
	for _, row := range groupRows {
		files := membersByGroup[row.ID]
		if len(files) < 2 {
			logger.Warn("Dropping persisted group %s with %d members", row.ID, len(files))
			continue
		}
		groups = append(groups, Group{
			ID:                    row.ID,
			MediaType:             MediaType(row.MediaType),
			MatchType:             MatchType(row.MatchType),
			Confidence:            row.Confidence,
			Files:                 files,
			RecommendedKeep:       row.RecommendedKeep,
			PotentialSavingsBytes: row.SavingsBytes,
		})
	}

	s.groups = groups
	completedAt := state.ScanCompletedAt
	s.summary = Summary{ScanCompletedAt: &completedAt}
	Summarize(s.groups, &s.summary)
	s.hasResults = true

	logger.Info("Loaded %d duplicate groups from previous scan", len(groups))
	return nil
}

// Get returns a snapshot of the current groups and summary. ok is
// false when no scan has ever completed (or results were cleared).
func (s *Store) Get() (groups []Group, summary Summary, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasResults {
		return nil, Summary{}, false
	}
	return s.copyGroupsLocked(), s.summary, true
}

// GroupAt returns the group at position i in the current ordering
func (s *Store) GroupAt(i int) (Group, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.groups) {
		return Group{}, false
	}
	return copyGroup(s.groups[i]), true
}

// GroupCount returns the number of groups in the current results
func (s *Store) GroupCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.groups)
}

// FindFile locates a path in the current results and returns its
// snapshot.
func (s *Store) FindFile(path string) (File, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, g := range s.groups {
		for _, f := range g.Files {
			if f.Path == path {
				return f, true
			}
		}
	}
	return File{}, false
}

// Replace atomically installs a new result set, discarding the old
// one. Called only by the scan orchestrator when a scan completes.
// The new set is persisted before it becomes visible: if the
// transaction fails, the previous results stay in place both in
// memory and on disk.
func (s *Store) Replace(groups []Group, completedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := Summary{ScanCompletedAt: &completedAt}
	Summarize(groups, &summary)

	if err := s.persistLocked(groups, summary); err != nil {
		return err
	}

	s.groups = groups
	s.summary = summary
	s.hasResults = true
	return nil
}

// RemoveFile removes one file from whichever group contains it. A
// group shrinking below two members is deleted outright; otherwise its
// recommended keep and savings are recomputed. The summary is always
// rederived from the full group set.
func (s *Store) RemoveFile(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups := s.copyGroupsLocked()
	for gi := range groups {
		for fi, f := range groups[gi].Files {
			if f.Path != path {
				continue
			}

			g := &groups[gi]
			g.Files = append(g.Files[:fi], g.Files[fi+1:]...)

			if len(g.Files) < 2 {
				groups = append(groups[:gi], groups[gi+1:]...)
			} else {
				rerankGroup(g)
			}

			return s.installLocked(groups)
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, path)
}

// ResolveGroup applies a review decision: the given members were
// deleted from disk, so drop them from the group in one mutation. When
// fewer than two members remain the group is removed even if the last
// survivor's disk file still exists; a single file is no longer a
// duplicate. Returns whether the group was dropped.
func (s *Store) ResolveGroup(groupID string, deletedPaths []string) (dropped bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	groups := s.copyGroupsLocked()
	gi := -1
	for i := range groups {
		if groups[i].ID == groupID {
			gi = i
			break
		}
	}
	if gi < 0 {
		return false, fmt.Errorf("%w: group %s", ErrNotFound, groupID)
	}

	deleted := make(map[string]bool, len(deletedPaths))
	for _, p := range deletedPaths {
		deleted[p] = true
	}

	g := &groups[gi]
	remaining := g.Files[:0:0]
	for _, f := range g.Files {
		if !deleted[f.Path] {
			remaining = append(remaining, f)
		}
	}
	g.Files = remaining

	if len(g.Files) < 2 {
		groups = append(groups[:gi], groups[gi+1:]...)
		dropped = true
	} else {
		rerankGroup(g)
	}

	if err := s.installLocked(groups); err != nil {
		return false, err
	}
	return dropped, nil
}

// RemoveGroup removes a whole group unconditionally
func (s *Store) RemoveGroup(groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.groups {
		if s.groups[i].ID != groupID {
			continue
		}
		groups := s.copyGroupsLocked()
		groups = append(groups[:i], groups[i+1:]...)
		return s.installLocked(groups)
	}
	return fmt.Errorf("%w: group %s", ErrNotFound, groupID)
}

// Clear discards all persisted results; the next Get reports that no
// scan has run. The rows are deleted before memory forgets them, so a
// failed transaction leaves the current results intact.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&database.DuplicateMemberRow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&database.DuplicateGroupRow{}).Error; err != nil {
			return err
		}
		return tx.Where("1 = 1").Delete(&database.DuplicateResultStateRow{}).Error
	})
	if err != nil {
		return err
	}

	s.groups = nil
	s.summary = Summary{}
	s.hasResults = false
	return nil
}

// rerankGroup recomputes the recommended keep and savings after a
// membership change. The member order stays best-first.
func rerankGroup(g *Group) {
	rankFiles(g.Files)
	g.RecommendedKeep = g.Files[0].Path
	g.PotentialSavingsBytes = groupSavings(*g)
}

// installLocked persists a mutated group set and, once the rows have
// committed, makes it the live one. The summary is rederived from the
// new set; the scan completion time carries over unchanged.
func (s *Store) installLocked(groups []Group) error {
	summary := Summary{ScanCompletedAt: s.summary.ScanCompletedAt}
	Summarize(groups, &summary)

	if err := s.persistLocked(groups, summary); err != nil {
		return err
	}

	s.groups = groups
	s.summary = summary
	return nil
}

// persistLocked rewrites the persisted rows from the given state.
// Result sets are small (one row per group member), so a wholesale
// rewrite inside a transaction keeps disk and memory trivially
// consistent.
func (s *Store) persistLocked(groups []Group, summary Summary) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&database.DuplicateMemberRow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&database.DuplicateGroupRow{}).Error; err != nil {
			return err
		}

		for pos, g := range groups {
			row := database.DuplicateGroupRow{
				ID:              g.ID,
				Position:        pos,
				MediaType:       string(g.MediaType),
				MatchType:       string(g.MatchType),
				Confidence:      g.Confidence,
				RecommendedKeep: g.RecommendedKeep,
				SavingsBytes:    g.PotentialSavingsBytes,
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			for mpos, f := range g.Files {
				member := database.DuplicateMemberRow{
					GroupID:      g.ID,
					Position:     mpos,
					Path:         f.Path,
					MediaType:    string(f.MediaType),
					SizeBytes:    f.SizeBytes,
					Width:        f.Width,
					Height:       f.Height,
					Bitrate:      f.Bitrate,
					QualityScore: f.QualityScore,
					ThumbnailRef: f.ThumbnailRef,
				}
				if err := tx.Create(&member).Error; err != nil {
					return err
				}
			}
		}

		completedAt := time.Now()
		if summary.ScanCompletedAt != nil {
			completedAt = *summary.ScanCompletedAt
		}
		state := database.DuplicateResultStateRow{ID: 1, ScanCompletedAt: completedAt}
		return tx.Save(&state).Error
	})
}

func (s *Store) copyGroupsLocked() []Group {
	out := make([]Group, len(s.groups))
	for i, g := range s.groups {
		out[i] = copyGroup(g)
	}
	return out
}

func copyGroup(g Group) Group {
	files := make([]File, len(g.Files))
	copy(files, g.Files)
	g.Files = files
	return g
}
