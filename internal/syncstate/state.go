// Package syncstate tracks which highlight ids have already been written to
// the archive.
//
// The id set only grows: ids are recorded after a successful destination
// write and are never removed. Storage is pluggable through Store.
//
// # Usage
//
//	store := syncstate.NewJSONFileStore(path)
//	state := syncstate.Load(store, logger)
//	existing := state.Snapshot()
//	// render, write ...
//	state.Record(newIDs...)
//	err := store.Save(state)
package syncstate

import (
	"errors"
	"log/slog"
	"sort"
)

// ErrCorruptState is returned by stores when persisted content cannot be decoded.
var ErrCorruptState = errors.New("corrupt sync state")

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_store.go -package=mocks github.com/mrlokans/clippings-sync/internal/syncstate Store

// Store loads and saves the id set.
//
// Load returns an empty state when nothing has been persisted yet. Save
// overwrites whatever was stored before with the full set.
type Store interface {
	Load() (*State, error)
	Save(state *State) error
}

// State is the set of highlight ids already emitted to the archive.
// It is not safe for concurrent use.
type State struct {
	ids map[string]struct{}
}

func NewState(ids ...string) *State {
	s := &State{ids: make(map[string]struct{}, len(ids))}
	s.Record(ids...)
	return s
}

// Has reports whether id has been recorded.
func (s *State) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

// Record adds ids to the set. Ids already present are ignored.
func (s *State) Record(ids ...string) {
	for _, id := range ids {
		if id == "" {
			continue
		}
		s.ids[id] = struct{}{}
	}
}

func (s *State) Len() int {
	return len(s.ids)
}

// IDs returns the recorded ids sorted, for deterministic persistence.
func (s *State) IDs() []string {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Snapshot returns a read-only view of the current ids. Later calls to
// Record do not affect it.
func (s *State) Snapshot() Snapshot {
	ids := make(map[string]struct{}, len(s.ids))
	for id := range s.ids {
		ids[id] = struct{}{}
	}
	return Snapshot{ids: ids}
}

// Snapshot is an immutable copy of a State's ids.
type Snapshot struct {
	ids map[string]struct{}
}

func (s Snapshot) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s Snapshot) Len() int {
	return len(s.ids)
}

// Empty is true before the very first successful import.
func (s Snapshot) Empty() bool {
	return len(s.ids) == 0
}

// Load reads the state from store. It never fails: unreadable or corrupt
// state is logged as a warning and replaced by an empty state.
func Load(store Store, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}

	state, err := store.Load()
	if err != nil {
		logger.Warn("sync state unreadable, starting fresh", "error", err)
		return NewState()
	}
	if state == nil {
		return NewState()
	}

	logger.Debug("sync state loaded", "ids", state.Len())
	return state
}
