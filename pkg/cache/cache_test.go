package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileStore_GetSet(t *testing.T) {
	s, err := NewFileStore(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	ctx := context.Background()

	tests := []struct {
		name string
		key  string
		data []byte
	}{
		{"simple", Key("https://example.com/a"), []byte("payload-a")},
		{"empty payload", Key("https://example.com/empty"), []byte{}},
		{"binary", Key("https://example.com/bin"), []byte{0, 1, 2, 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Set(ctx, tt.key, tt.data); err != nil {
				t.Fatalf("Set() failed: %v", err)
			}
			data, ok, err := s.Get(ctx, tt.key)
			if err != nil {
				t.Fatalf("Get() failed: %v", err)
			}
			if !ok {
				t.Fatal("Get() returned miss for existing key")
			}
			if string(data) != string(tt.data) {
				t.Errorf("Get() = %q, want %q", data, tt.data)
			}
		})
	}
}

func TestFileStore_Miss(t *testing.T) {
	s, _ := NewFileStore(t.TempDir(), time.Hour)
	_, ok, err := s.Get(context.Background(), Key("https://example.com/missing"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("Get() returned hit for missing key")
	}
}

func TestFileStore_Expiration(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewFileStore(dir, time.Hour)
	ctx := context.Background()
	key := Key("https://example.com/old")

	if err := s.Set(ctx, key, []byte("stale-but-present")); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	// Age the entry two hours past its write time.
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(filepath.Join(dir, key), old, old); err != nil {
		t.Fatal(err)
	}

	_, ok, err := s.Get(ctx, key)
	if !errors.Is(err, ErrExpired) {
		t.Errorf("Get() error = %v, want ErrExpired", err)
	}
	if ok {
		t.Error("Get() returned hit for expired key")
	}

	// The stale escape hatch still serves the payload.
	data, ok, err := s.GetStale(ctx, key)
	if err != nil || !ok {
		t.Fatalf("GetStale() = %v, %v; want hit", ok, err)
	}
	if string(data) != "stale-but-present" {
		t.Errorf("GetStale() = %q", data)
	}
}

func TestFileStore_ZeroTTLNeverExpires(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewFileStore(dir, 0)
	ctx := context.Background()
	key := Key("https://example.com/forever")

	if err := s.Set(ctx, key, []byte("x")); err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-1000 * time.Hour)
	if err := os.Chtimes(filepath.Join(dir, key), old, old); err != nil {
		t.Fatal(err)
	}

	_, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		t.Errorf("Get() = %v, %v; want hit with zero TTL", ok, err)
	}
}

func TestFileStore_AtomicWrite(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewFileStore(dir, time.Hour)
	ctx := context.Background()
	key := Key("https://example.com/atomic")

	if err := s.Set(ctx, key, []byte("v1")); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, key, []byte("v2")); err != nil {
		t.Fatal(err)
	}

	data, ok, _ := s.Get(ctx, key)
	if !ok || string(data) != "v2" {
		t.Errorf("Get() = %q, %v; want v2 (last write wins)", data, ok)
	}

	// No temp files left behind after successful writes.
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if len(e.Name()) != 64 {
			t.Errorf("unexpected leftover file: %s", e.Name())
		}
	}
}

func TestFileStore_SweepTemps(t *testing.T) {
	dir := t.TempDir()

	fresh := filepath.Join(dir, tmpPrefix+"fresh")
	stale := filepath.Join(dir, tmpPrefix+"stale")
	for _, p := range []string{fresh, stale} {
		if err := os.WriteFile(p, []byte("partial"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	old := time.Now().Add(-2 * tmpGracePeriod)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFileStore(dir, time.Hour); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale temp file should be swept at construction")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Error("fresh temp file must survive the sweep")
	}
}

func TestFileStore_Delete(t *testing.T) {
	s, _ := NewFileStore(t.TempDir(), time.Hour)
	ctx := context.Background()
	key := Key("https://example.com/gone")

	if err := s.Set(ctx, key, []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if _, ok, _ := s.Get(ctx, key); ok {
		t.Error("Get() returned hit after Delete()")
	}
	// Deleting again is not an error.
	if err := s.Delete(ctx, key); err != nil {
		t.Errorf("Delete() of missing key failed: %v", err)
	}
}

func TestFileStore_DirPermissions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sub")
	if _, err := NewFileStore(dir, time.Hour); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o700 {
		t.Errorf("cache dir perm = %o, want 0700", perm)
	}
}

func TestNullStore(t *testing.T) {
	s := NewNullStore()
	ctx := context.Background()

	if err := s.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Error("NullStore should never hit")
	}
	if _, ok, _ := s.GetStale(ctx, "k"); ok {
		t.Error("NullStore should never hit on GetStale")
	}
}
