package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// tmpPrefix marks in-progress writes. Readers never open these files;
// completed entries are plain hex-named files.
const tmpPrefix = ".tmp-"

// tmpGracePeriod is how old an orphaned temp file must be before the
// startup sweep removes it. Younger temps may belong to a live writer in
// another process.
const tmpGracePeriod = time.Hour

// FileStore keeps one file per cache entry under a root directory, named by
// the entry key. Freshness is tracked through file modification time, so no
// metadata sidecar is needed.
//
// Writes go to a process-unique temporary file in the same directory and are
// atomically renamed into place, which makes concurrent writers to the same
// key safe without locking: the last complete write wins and readers never
// observe a torn entry.
type FileStore struct {
	dir string
	ttl time.Duration
}

// NewFileStore creates a file-backed store rooted at dir with the given TTL.
// A TTL of 0 means entries never expire.
//
// The directory is created with owner-only permissions if it doesn't exist.
// Orphaned temporary files older than the grace period are swept on
// construction.
func NewFileStore(dir string, ttl time.Duration) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	s := &FileStore{dir: dir, ttl: ttl}
	s.sweepTemps()
	return s, nil
}

// Dir returns the absolute path to the cache directory.
func (s *FileStore) Dir() string { return s.dir }

// TTL returns the time-to-live for cache entries.
func (s *FileStore) TTL() time.Duration { return s.ttl }

// Get returns the payload for key if a complete entry exists and is fresh.
func (s *FileStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := s.entryPath(key)
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if s.ttl > 0 && time.Since(info.ModTime()) > s.ttl {
		return nil, false, ErrExpired
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// GetStale returns the payload for key regardless of its age.
func (s *FileStore) GetStale(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.entryPath(key))
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set writes the payload to a unique temp file in the cache directory,
// flushes it to durable storage, and renames it over the destination. On any
// failure the temp file is removed and the error returned; the entry is
// either fully written or absent.
func (s *FileStore) Set(ctx context.Context, key string, data []byte) error {
	tmp := filepath.Join(s.dir, tmpPrefix+uuid.NewString())

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, s.entryPath(key)); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Delete removes the entry for key.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.entryPath(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close does nothing for the file store.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) entryPath(key string) string {
	return filepath.Join(s.dir, key)
}

// sweepTemps removes temp files left behind by crashed or interrupted
// writers. Only temps past the grace period are touched.
func (s *FileStore) sweepTemps() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return
	}
	cutoff := time.Now().Add(-tmpGracePeriod)
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), tmpPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(s.dir, e.Name()))
		}
	}
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)
