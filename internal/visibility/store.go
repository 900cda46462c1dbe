// Package visibility tracks which categories are shown for each schedule and
// persists that state to durable key-value storage.
package visibility

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/julianstephens/cmucal/internal/constants"
	"github.com/julianstephens/cmucal/internal/logger"
	"github.com/julianstephens/cmucal/internal/storage"
)

// State maps schedule keys to their visible categories.
type State map[string]Set

// Encode serializes state as a JSON object of sorted id arrays.
func Encode(state State) (string, error) {
	record := make(map[string][]int64, len(state))
	for key, set := range state {
		record[key] = set.Sorted()
	}
	data, err := json.Marshal(record)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Decode parses the output of Encode.
func Decode(data string) (State, error) {
	var record map[string][]int64
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, err
	}
	state := make(State, len(record))
	for key, ids := range record {
		state[key] = NewSet(ids...)
	}
	return state, nil
}

// Store is the per-schedule visibility map with a single active key. Every
// mutation rewrites the whole map to storage. Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	kv     storage.KeyValue
	key    string
	state  State
	active string
}

// Open rehydrates the store from kv. Missing or corrupt data yields an empty
// store; it is never an error.
func Open(kv storage.KeyValue) *Store {
	s := &Store{
		kv:     kv,
		key:    constants.VisibilityStorageKey,
		state:  make(State),
		active: constants.DefaultScheduleKey,
	}
	s.load()
	return s
}

func (s *Store) load() {
	if s.kv == nil {
		return
	}
	data, err := s.kv.GetItem(s.key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.Warn("Failed to read visibility state, starting empty", "error", err)
		}
		return
	}
	state, err := Decode(data)
	if err != nil {
		logger.Warn("Discarding corrupt visibility state", "error", err)
		return
	}
	s.state = state
}

// persist must be called with mu held.
func (s *Store) persist() error {
	if s.kv == nil {
		return nil
	}
	data, err := Encode(s.state)
	if err != nil {
		return fmt.Errorf("failed to encode visibility state: %w", err)
	}
	if err := s.kv.SetItem(s.key, data); err != nil {
		return fmt.Errorf("failed to persist visibility state: %w", err)
	}
	return nil
}

// Get returns a copy of the visible set for key, empty if never populated.
func (s *Store) Get(key string) Set {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state[key].Clone()
}

// Has reports whether key has a populated entry.
func (s *Store) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.state[key]
	return ok
}

// Set replaces the set for key with update(current) and persists the map.
// The in-memory value is updated even when persisting fails.
func (s *Store) Set(key string, update func(Set) Set) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := update(s.state[key].Clone())
	if next == nil {
		next = make(Set)
	}
	s.state[key] = next
	return s.persist()
}

// Toggle shows categoryID if hidden and hides it if shown.
func (s *Store) Toggle(key string, categoryID int64) error {
	return s.Set(key, func(cur Set) Set {
		if cur.Contains(categoryID) {
			delete(cur, categoryID)
		} else {
			cur[categoryID] = struct{}{}
		}
		return cur
	})
}

// PopulateDefault makes every category in all visible for key unless key
// already has an entry. It reports whether the entry was created.
func (s *Store) PopulateDefault(key string, all Set) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state[key]; ok {
		return false, nil
	}
	s.state[key] = all.Clone()
	return true, s.persist()
}

// Remove drops the entry for key.
func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.state[key]; !ok {
		return nil
	}
	delete(s.state, key)
	return s.persist()
}

// Keys returns the populated schedule keys in lexical order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.state))
	for k := range s.state {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Active returns the key currently read and written by the Active* helpers.
func (s *Store) Active() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// SetActive points the store at key. No entry is modified. An empty key
// selects the default entry.
func (s *Store) SetActive(key string) {
	if key == "" {
		key = constants.DefaultScheduleKey
	}
	s.mu.Lock()
	s.active = key
	s.mu.Unlock()
}

// Visible returns the set of the active key.
func (s *Store) Visible() Set {
	return s.Get(s.Active())
}

// ToggleActive toggles categoryID on the active key.
func (s *Store) ToggleActive(categoryID int64) error {
	return s.Toggle(s.Active(), categoryID)
}

// Snapshot returns a deep copy of the whole map.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(State, len(s.state))
	for k, v := range s.state {
		out[k] = v.Clone()
	}
	return out
}
