// Package state keeps the alarm SessionState in memory and mirrors it to a
// JSON file so a configured (not yet armed) alarm survives a restart.
package state

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/sweeney/wakelight/internal/alarm"
)

// FileName is the state file inside the data directory.
const FileName = "state.json"

// Store is the single source of truth for the SessionState.
// Memory is authoritative; the file is best effort.
type Store struct {
	dir  string
	path string

	mu     sync.Mutex
	cache  alarm.SessionState
	loaded bool
}

// Open prepares the data directory. On first run it writes the default state;
// otherwise it loads the existing file. A corrupt file is logged and replaced
// in memory by the default state.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &Store{dir: dir, path: filepath.Join(dir, FileName)}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		s.Save(alarm.SessionState{})
		log.Printf("state file created: %s", s.path)
		return s, nil
	}

	st, err := s.load()
	if err != nil {
		log.Printf("state file unreadable, using defaults: %v", err)
		st = alarm.SessionState{}
	} else {
		log.Printf("state loaded from %s (alarm_set=%v monitoring=%v)", s.path, st.AlarmSet, st.Monitoring)
	}
	s.mu.Lock()
	s.cache = st
	s.loaded = true
	s.mu.Unlock()
	return s, nil
}

// Path returns the state file path.
func (s *Store) Path() string {
	return s.path
}

// Save replaces the cached state and rewrites the file. Write errors are
// logged; the in-memory state is kept either way.
func (s *Store) Save(st alarm.SessionState) {
	s.mu.Lock()
	s.cache = st
	s.loaded = true
	s.mu.Unlock()

	if err := s.write(st); err != nil {
		log.Printf("failed to save state: %v", err)
	}
}

// Read returns the cached state, falling back to the file and then to the
// default state.
func (s *Store) Read() alarm.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.cache
	}
	st, err := s.load()
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("failed to read state: %v", err)
		}
		return alarm.SessionState{}
	}
	s.cache = st
	s.loaded = true
	return st
}

func (s *Store) load() (alarm.SessionState, error) {
	return ReadFile(s.path)
}

// ReadFile decodes a state file without creating or caching anything.
// A missing file is reported with an error satisfying os.IsNotExist.
func ReadFile(path string) (alarm.SessionState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return alarm.SessionState{}, err
	}
	var st alarm.SessionState
	if err := json.Unmarshal(data, &st); err != nil {
		return alarm.SessionState{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return st, nil
}

// write replaces the file via a temp file and rename.
func (s *Store) write(st alarm.SessionState) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}
