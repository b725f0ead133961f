package resolve

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Mappings is the small persistent store of discovered package-to-repository
// mappings (package name -> "owner/repo"). It is written only by the
// homepage-scan strategy and read as a fast-path before re-running
// discovery, so a successful scan pays for itself on every future run.
//
// The file is a single JSON object, rewritten atomically on every Put.
// Mappings is safe for concurrent use.
type Mappings struct {
	path string

	mu      sync.Mutex
	entries map[string]string
}

// LoadMappings opens (or initializes) the mapping store at path.
// A missing or unreadable file yields an empty store, never an error:
// discovered mappings are an optimization, not required state.
func LoadMappings(path string) *Mappings {
	m := &Mappings{path: path, entries: make(map[string]string)}
	data, err := os.ReadFile(path)
	if err != nil {
		return m
	}
	var entries map[string]string
	if json.Unmarshal(data, &entries) == nil {
		m.entries = entries
	}
	return m
}

// Get returns the stored "owner/repo" slug for a package name.
func (m *Mappings) Get(name string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	slug, ok := m.entries[name]
	return slug, ok
}

// Put stores a discovered mapping and persists the whole table atomically.
func (m *Mappings) Put(name, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[name] = slug

	data, err := json.MarshalIndent(m.entries, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(m.path), 0o700); err != nil {
		return err
	}
	tmp := m.path + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, m.path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Len returns the number of stored mappings.
func (m *Mappings) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
