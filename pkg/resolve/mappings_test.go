package resolve

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestMappings_MissingFileIsEmptyStore(t *testing.T) {
	m := LoadMappings(filepath.Join(t.TempDir(), "nope", "mappings.json"))
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
	if _, ok := m.Get("anything"); ok {
		t.Error("empty store must not return entries")
	}
}

func TestMappings_CorruptFileIsEmptyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mappings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	m := LoadMappings(path)
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0 for corrupt file", m.Len())
	}
}

func TestMappings_PutCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "dir", "mappings.json")
	m := LoadMappings(path)
	if err := m.Put("widget", "acme/widget"); err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("mapping file not written: %v", err)
	}
}

func TestMappings_ConcurrentPuts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mappings.json")
	m := LoadMappings(path)

	var wg sync.WaitGroup
	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			if err := m.Put(name, "owner/"+name); err != nil {
				t.Errorf("Put(%q) error: %v", name, err)
			}
		}(name)
	}
	wg.Wait()

	if m.Len() != len(names) {
		t.Fatalf("Len() = %d, want %d", m.Len(), len(names))
	}

	// Every entry must have survived into the persisted table.
	reloaded := LoadMappings(path)
	for _, name := range names {
		if slug, ok := reloaded.Get(name); !ok || slug != "owner/"+name {
			t.Errorf("reloaded %q = %q, %v", name, slug, ok)
		}
	}
}
