package asset

import (
	"fmt"
	"sync"
)

// Store is the canonical collection of sound assets and the single point
// where transcoded output becomes a persisted record. All methods are safe
// for concurrent use; every write is applied fully or not at all.
type Store struct {
	mu       sync.RWMutex
	sounds   map[string]*Sound
	order    []string
	versions map[string]uint64
	selected string
}

// NewStore creates an empty asset store.
func NewStore() *Store {
	return &Store{
		sounds:   make(map[string]*Sound),
		versions: make(map[string]uint64),
	}
}

// Create inserts a new asset and applies the default-selection rule.
func (st *Store) Create(s Sound) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, exists := st.sounds[s.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, s.ID)
	}

	copied := s
	st.sounds[s.ID] = &copied
	st.order = append(st.order, s.ID)
	st.ensureSelectionLocked()
	return nil
}

// Replace merges the patch into the asset with the given id and bumps its
// version. Used for both renames and post-encode data replacement.
func (st *Store) Replace(id string, p Patch) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, exists := st.sounds[id]
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	p.apply(s)
	st.versions[id]++
	return nil
}

// Delete removes the asset. Deleting the selected asset leaves the
// selection empty; picking a successor is the selector collaborator's
// call, the store only guarantees the selection never points at a
// deleted id.
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, exists := st.sounds[id]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	delete(st.sounds, id)
	delete(st.versions, id)
	for i, existing := range st.order {
		if existing == id {
			st.order = append(st.order[:i], st.order[i+1:]...)
			break
		}
	}
	if st.selected == id {
		st.selected = ""
	}
	return nil
}

// Select makes the asset with the given id the current editing target.
func (st *Store) Select(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, exists := st.sounds[id]; !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	st.selected = id
	return nil
}

// Selected returns the current editing target, if any.
func (st *Store) Selected() (Sound, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	s, exists := st.sounds[st.selected]
	if !exists {
		return Sound{}, false
	}
	return *s, true
}

// EnsureSelection applies the default-selection rule: whenever the
// collection is non-empty and no valid selection exists, the first audio
// asset in collection order becomes selected. Create runs this
// automatically; collaborators call it again after external filtering.
func (st *Store) EnsureSelection() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.ensureSelectionLocked()
}

func (st *Store) ensureSelectionLocked() {
	if _, ok := st.sounds[st.selected]; ok {
		return
	}
	st.selected = ""
	for _, id := range st.order {
		if st.sounds[id].IsAudio() {
			st.selected = id
			return
		}
	}
}

// Get returns a copy of the asset with the given id.
func (st *Store) Get(id string) (Sound, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	s, exists := st.sounds[id]
	if !exists {
		return Sound{}, false
	}
	return *s, true
}

// Has reports whether the id is still present. Completion paths use this
// for their check-before-write.
func (st *Store) Has(id string) bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	_, exists := st.sounds[id]
	return exists
}

// Version returns the asset's write version. A completion that began
// against an older version discards its result instead of overwriting a
// newer write.
func (st *Store) Version(id string) (uint64, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	if _, exists := st.sounds[id]; !exists {
		return 0, false
	}
	return st.versions[id], true
}

// ReplaceIfVersion merges the patch only if the asset still exists and its
// version has not moved since the caller read it. Returns false when the
// write was discarded as stale.
func (st *Store) ReplaceIfVersion(id string, version uint64, p Patch) (bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, exists := st.sounds[id]
	if !exists {
		return false, nil
	}
	if st.versions[id] != version {
		return false, nil
	}

	p.apply(s)
	st.versions[id]++
	return true, nil
}

// Sounds returns a snapshot of all assets in collection order.
func (st *Store) Sounds() []Sound {
	st.mu.RLock()
	defer st.mu.RUnlock()

	out := make([]Sound, 0, len(st.order))
	for _, id := range st.order {
		out = append(out, *st.sounds[id])
	}
	return out
}

// Len returns the number of stored assets.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sounds)
}
