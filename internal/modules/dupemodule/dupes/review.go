package dupes

import (
	"fmt"
	"sync"

	"github.com/mediakeep/mediakeep/internal/logger"
)

// Session is the stateful, single-user review workflow over the result
// store's groups: closed, or reviewing with a cursor into the current
// group list. It is ephemeral; reopening the review resets it.
//
// Resolving a group removes it from the store, so the next group slides
// into the same index and the cursor stays put. Only skipping advances
// the cursor. When the cursor passes the last group the session closes
// itself and reports completion exactly once.
type Session struct {
	store   *Store
	deleter DeleteExecutor

	mu     sync.Mutex
	active bool
	cursor int
}

// NewSession creates a review session over the given store and delete
// executor.
func NewSession(store *Store, deleter DeleteExecutor) *Session {
	return &Session{store: store, deleter: deleter}
}

// CurrentGroup is the review view of the group in focus. Only the
// first two members are surfaced for the two-up comparison even when
// the group holds more; resolution still applies to every non-kept
// member.
type CurrentGroup struct {
	Group       Group  `json:"group"`
	Surfaced    []File `json:"surfaced"`
	Cursor      int    `json:"cursor"`
	TotalGroups int    `json:"total_groups"`
}

// ResolveResult reports the effect of resolving the group in focus
type ResolveResult struct {
	Deleted    []string        `json:"deleted"`
	Failed     []DeleteFailure `json:"failed"`
	FreedBytes int64           `json:"freed_bytes"`
	// Done is true exactly once, when resolving or skipping the last
	// group auto-closed the session.
	Done bool `json:"done"`
}

// Open starts a review pass at the first group. Fails with
// ErrNothingToReview when the store holds zero groups. Reopening an
// active session resets it to the first group.
func (s *Session) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store.GroupCount() == 0 {
		s.active = false
		return ErrNothingToReview
	}

	s.active = true
	s.cursor = 0
	return nil
}

// Current returns the group in focus
func (s *Session) Current() (CurrentGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return CurrentGroup{}, ErrSessionClosed
	}

	group, ok := s.store.GroupAt(s.cursor)
	if !ok {
		// Groups shrank underneath us (concurrent deletion); close.
		s.active = false
		return CurrentGroup{}, ErrSessionClosed
	}

	surfaced := group.Files
	if len(surfaced) > 2 {
		surfaced = surfaced[:2]
	}

	return CurrentGroup{
		Group:       group,
		Surfaced:    surfaced,
		Cursor:      s.cursor,
		TotalGroups: s.store.GroupCount(),
	}, nil
}

// Skip advances to the next group without mutating anything. Returns
// done=true when the pass is complete and the session has closed.
func (s *Session) Skip() (done bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return false, ErrSessionClosed
	}

	s.cursor++
	if s.cursor >= s.store.GroupCount() {
		s.active = false
		return true, nil
	}
	return false, nil
}

// KeepFile keeps one of the two surfaced files of the current group
// and deletes every other member, not just the other surfaced one.
// side is 0 or 1.
func (s *Session) KeepFile(side int) (*ResolveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return nil, ErrSessionClosed
	}

	group, ok := s.store.GroupAt(s.cursor)
	if !ok {
		s.active = false
		return nil, ErrSessionClosed
	}

	surfaced := len(group.Files)
	if surfaced > 2 {
		surfaced = 2
	}
	if side < 0 || side >= surfaced {
		return nil, fmt.Errorf("invalid side %d for a group surfacing %d files", side, surfaced)
	}

	return s.resolveLocked(group, group.Files[side].Path)
}

// AcceptRecommendation keeps the recommended file and deletes the
// rest. A degenerate single-file group is skipped instead.
func (s *Session) AcceptRecommendation() (*ResolveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return nil, ErrSessionClosed
	}

	group, ok := s.store.GroupAt(s.cursor)
	if !ok {
		s.active = false
		return nil, ErrSessionClosed
	}

	if len(group.Files) < 2 {
		s.cursor++
		if s.cursor >= s.store.GroupCount() {
			s.active = false
			return &ResolveResult{Done: true}, nil
		}
		return &ResolveResult{}, nil
	}

	return s.resolveLocked(group, group.RecommendedKeep)
}

// Close ends the session without further mutation
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
}

// Active reports whether a review pass is in progress
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// resolveLocked deletes every member except keepPath, then applies the
// outcome to the store in one mutation. Files that failed to delete
// stay in the group; the group survives only if at least two members
// remain. The cursor does not advance when the group drops: the next
// group now occupies the same index.
func (s *Session) resolveLocked(group Group, keepPath string) (*ResolveResult, error) {
	result := &ResolveResult{Deleted: []string{}, Failed: []DeleteFailure{}}

	for _, f := range group.Files {
		if f.Path == keepPath {
			continue
		}
		if err := s.deleter.Delete(f.Path); err != nil {
			logger.Warn("Review delete failed for %s: %v", f.Path, err)
			result.Failed = append(result.Failed, DeleteFailure{Path: f.Path, Error: err.Error()})
			continue
		}
		result.Deleted = append(result.Deleted, f.Path)
		result.FreedBytes += f.SizeBytes
	}

	dropped, err := s.store.ResolveGroup(group.ID, result.Deleted)
	if err != nil {
		return result, err
	}

	if !dropped {
		// Partial failure left the group with two or more members;
		// it stays in focus for a fresh attempt.
		return result, nil
	}

	if s.cursor >= s.store.GroupCount() {
		s.active = false
		result.Done = true
	}
	return result, nil
}
