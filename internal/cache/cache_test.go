package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/vibecheck/internal/model"
)

// storeContract runs the behaviour every Store must share
func storeContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "missing.json"); err != nil || ok {
		t.Fatalf("Expected clean miss, got ok=%v err=%v", ok, err)
	}

	if err := s.Set(ctx, "a.json", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Set(ctx, "a.json", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	got, ok, err := s.Get(ctx, "a.json")
	if err != nil || !ok || string(got) != `{"a":2}` {
		t.Fatalf("Expected latest value, got %q ok=%v err=%v", got, ok, err)
	}

	if err := s.Delete(ctx, "a.json"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "a.json"); ok {
		t.Error("Expected miss after delete")
	}
	if err := s.Delete(ctx, "a.json"); err != nil {
		t.Errorf("Expected deleting a missing key to succeed, got %v", err)
	}

	_ = s.Set(ctx, "b.json", []byte("b"))
	_ = s.Set(ctx, "c.json", []byte("c"))
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	for _, key := range []string{"b.json", "c.json"} {
		if _, ok, _ := s.Get(ctx, key); ok {
			t.Errorf("Expected %s cleared", key)
		}
	}
}

func TestMemoryCache(t *testing.T) {
	storeContract(t, NewMemoryCache(0, time.Minute))
}

func TestMemoryCache_CopiesValue(t *testing.T) {
	c := NewMemoryCache(0, time.Minute)
	buf := []byte("abc")
	_ = c.Set(context.Background(), "k", buf)
	buf[0] = 'x'

	got, _, _ := c.Get(context.Background(), "k")
	if string(got) != "abc" {
		t.Errorf("Expected stored copy, got %q", got)
	}

	got[1] = 'y'
	again, _, _ := c.Get(context.Background(), "k")
	if string(again) != "abc" {
		t.Errorf("Expected Get to hand out a copy, got %q", again)
	}
}

func TestDiskCache(t *testing.T) {
	storeContract(t, NewDiskCache(filepath.Join(t.TempDir(), "views"), 0))
}

func TestDiskCache_PlainFiles(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, 0)

	if err := c.Set(context.Background(), "ai_generated_summary.json", []byte(`{"chi_score":79}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "ai_generated_summary.json"))
	if err != nil {
		t.Fatalf("Expected file under its key name: %v", err)
	}
	if string(data) != `{"chi_score":79}` {
		t.Errorf("Expected raw document on disk, got %q", data)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("Expected no temp files left behind, got %d entries", len(entries))
	}
}

func TestDiskCache_TTL(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)
	ctx := context.Background()

	_ = c.Set(ctx, "k.json", []byte("v"))
	if _, ok, _ := c.Get(ctx, "k.json"); !ok {
		t.Fatal("Expected fresh entry")
	}

	c.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, ok, _ := c.Get(ctx, "k.json"); ok {
		t.Error("Expected expired entry to miss")
	}
	if _, err := os.Stat(filepath.Join(dir, "k.json")); !os.IsNotExist(err) {
		t.Error("Expected expired file to be removed")
	}
}

func TestDiskCache_RejectsPathKeys(t *testing.T) {
	c := NewDiskCache(t.TempDir(), 0)
	for _, key := range []string{"", "../escape.json", "a/b.json", ".hidden"} {
		if err := c.Set(context.Background(), key, []byte("x")); err == nil {
			t.Errorf("Expected key %q to be rejected", key)
		}
	}
}

func TestDiskCache_ReadError(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, 0)

	// a directory where a file is expected cannot be read
	if err := os.Mkdir(filepath.Join(dir, "k.json"), 0755); err != nil {
		t.Fatal(err)
	}
	_, _, err := c.Get(context.Background(), "k.json")
	if !errors.Is(err, model.ErrCacheIO) {
		t.Errorf("Expected ErrCacheIO, got %v", err)
	}
}

func TestLayeredCache(t *testing.T) {
	storeContract(t, NewLayeredCache(0, t.TempDir(), 0))
}

func TestLayeredCache_Promotes(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryCache(0, time.Minute)
	disk := NewDiskCache(t.TempDir(), 0)
	c := NewLayered(mem, disk)

	_ = disk.Set(ctx, "k.json", []byte("v"))
	if got, ok, _ := c.Get(ctx, "k.json"); !ok || string(got) != "v" {
		t.Fatalf("Expected disk hit, got %q", got)
	}
	if _, ok, _ := mem.Get(ctx, "k.json"); !ok {
		t.Error("Expected value promoted to memory")
	}
}

func TestSQLStore_SQLite(t *testing.T) {
	s, err := OpenSQLStore(DriverSQLite, filepath.Join(t.TempDir(), "cache.db"), 0)
	if err != nil {
		t.Fatalf("OpenSQLStore failed: %v", err)
	}
	defer s.Close()

	storeContract(t, s)
}

func TestSQLStore_TTL(t *testing.T) {
	s, err := OpenSQLStore(DriverSQLite, filepath.Join(t.TempDir(), "cache.db"), time.Minute)
	if err != nil {
		t.Fatalf("OpenSQLStore failed: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	_ = s.Set(ctx, "k.json", []byte("v"))
	s.now = func() time.Time { return time.Now().Add(time.Hour) }
	if _, ok, err := s.Get(ctx, "k.json"); ok || err != nil {
		t.Errorf("Expected expired miss, got ok=%v err=%v", ok, err)
	}
}

func TestSQLStore_Rebind(t *testing.T) {
	s := &SQLStore{driver: DriverPostgres}
	got := s.rebind("INSERT INTO t (a, b) VALUES (?, ?)")
	if got != "INSERT INTO t (a, b) VALUES ($1, $2)" {
		t.Errorf("unexpected rebind %q", got)
	}

	s.driver = DriverSQLite
	if got := s.rebind("a = ?"); got != "a = ?" {
		t.Errorf("Expected sqlite query untouched, got %q", got)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		backend string
		wantErr bool
	}{
		{"", false},
		{"disk", false},
		{"memory", false},
		{"layered", false},
		{"sqlite", false},
		{"postgres", true}, // no dsn
		{"redis", true},
	}

	for _, tt := range tests {
		s, err := Open(model.CacheConfig{Backend: tt.backend, Dir: dir})
		if (err != nil) != tt.wantErr {
			t.Errorf("Open(%q) error = %v, wantErr %v", tt.backend, err, tt.wantErr)
			continue
		}
		if s != nil {
			_ = Close(s)
		}
	}
}
