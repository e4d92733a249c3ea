package drafts

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Snapshot is the per-problem draft state for one session.
type Snapshot struct {
	SavedCode       string
	SavedLanguage   Language
	CurrentCode     string
	CurrentLanguage Language
	SavedAt         time.Time
}

func (s Snapshot) Dirty() bool {
	return s.CurrentCode != s.SavedCode || s.CurrentLanguage != s.SavedLanguage
}

func (s Snapshot) Saved() bool {
	return s.SavedCode != "" && !s.Dirty()
}

func defaultSnapshot() Snapshot {
	return Snapshot{SavedLanguage: Languages[0], CurrentLanguage: Languages[0]}
}

// Store holds the drafts of a single contest or course session. A new Store
// is created for every session so switching contests starts fresh.
type Store struct {
	scope string
	cache Cache
	now   func() time.Time

	mu        sync.Mutex
	snapshots map[string]*Snapshot
	viewOnly  bool
}

func NewStore(scope string, cache Cache) *Store {
	return &Store{
		scope:     scope,
		cache:     cache,
		now:       time.Now,
		snapshots: map[string]*Snapshot{},
	}
}

func (s *Store) Scope() string { return s.scope }

func (s *Store) SetViewOnly(viewOnly bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewOnly = viewOnly
}

func (s *Store) ViewOnly() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewOnly
}

func (s *Store) Snapshot(problemID string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap, ok := s.snapshots[problemID]; ok {
		return *snap
	}
	return defaultSnapshot()
}

// Visited reports whether problemID already has a snapshot in this session.
func (s *Store) Visited(problemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.snapshots[problemID]
	return ok
}

// Prime seeds a problem's snapshot from remote saved code on its first visit.
// It returns false when the problem was already visited, leaving any
// in-memory draft untouched.
func (s *Store) Prime(problemID, code string, lang Language) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.viewOnly {
		return false
	}
	if _, ok := s.snapshots[problemID]; ok {
		return false
	}
	lang = ParseLanguage(string(lang))
	snap := &Snapshot{
		SavedCode:       code,
		SavedLanguage:   lang,
		CurrentCode:     code,
		CurrentLanguage: lang,
	}
	if code != "" {
		snap.SavedAt = s.now()
	}
	s.snapshots[problemID] = snap
	return true
}

// SetCurrent records the live editor buffer. The in-memory update always
// applies; the returned error only reports the durable cache write.
func (s *Store) SetCurrent(ctx context.Context, problemID, code string, lang Language) error {
	s.mu.Lock()
	if s.viewOnly {
		s.mu.Unlock()
		return nil
	}
	lang = ParseLanguage(string(lang))
	snap := s.snapshotLocked(problemID)
	snap.CurrentCode = code
	snap.CurrentLanguage = lang
	s.mu.Unlock()

	if s.cache == nil {
		return nil
	}
	return s.cache.PutDraft(ctx, s.scope, problemID, Entry{Code: code, Language: lang})
}

// MarkSaved records code as the server copy. The live buffer follows only
// when it still holds exactly what was sent; edits made while the request
// was in flight stay current, dirty and in the durable cache.
func (s *Store) MarkSaved(ctx context.Context, problemID, code string, lang Language) error {
	s.mu.Lock()
	if s.viewOnly {
		s.mu.Unlock()
		return nil
	}
	lang = ParseLanguage(string(lang))
	_, known := s.snapshots[problemID]
	snap := s.snapshotLocked(problemID)
	if !known || (snap.CurrentCode == code && snap.CurrentLanguage == lang) {
		snap.CurrentCode = code
		snap.CurrentLanguage = lang
	}
	snap.SavedCode = code
	snap.SavedLanguage = lang
	snap.SavedAt = s.now()
	clean := !snap.Dirty()
	s.mu.Unlock()

	if s.cache == nil || !clean {
		return nil
	}
	return s.cache.DeleteDraft(ctx, s.scope, problemID)
}

func (s *Store) IsDirty(problemID string) bool {
	return s.Snapshot(problemID).Dirty()
}

func (s *Store) IsSaved(problemID string) bool {
	return s.Snapshot(problemID).Saved()
}

// DirtyIDs lists every dirty problem in the session, sorted.
func (s *Store) DirtyIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0)
	for id, snap := range s.snapshots {
		if snap.Dirty() {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func (s *Store) AnyDirty() bool {
	return len(s.DirtyIDs()) > 0
}

// Recover reads the durable draft for problemID. It is best effort: entries
// may be missing or older than what the server holds.
func (s *Store) Recover(ctx context.Context, problemID string) (Entry, bool, error) {
	if s.cache == nil {
		return Entry{}, false, nil
	}
	entry, ok, err := s.cache.GetDraft(ctx, s.scope, problemID)
	if err != nil || !ok {
		return Entry{}, false, err
	}
	entry.Language = ParseLanguage(string(entry.Language))
	return entry, true, nil
}

func (s *Store) snapshotLocked(problemID string) *Snapshot {
	snap, ok := s.snapshots[problemID]
	if !ok {
		d := defaultSnapshot()
		snap = &d
		s.snapshots[problemID] = snap
	}
	return snap
}
