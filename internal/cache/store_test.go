package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestStorePutAndGet(t *testing.T) {
	store := newTestStore(t)
	rawURL := "https://example.test/a.mjs"

	entry, err := store.Put(context.Background(), rawURL, []byte("x=1"))
	if err != nil {
		t.Fatalf("put error: %v", err)
	}
	if entry.SizeBytes != 3 {
		t.Fatalf("size mismatch: %d", entry.SizeBytes)
	}

	body, err := store.Get(context.Background(), rawURL)
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if string(body) != "x=1" {
		t.Fatalf("cached payload mismatch: %s", string(body))
	}

	onDisk, err := os.ReadFile(entry.FilePath)
	if err != nil {
		t.Fatalf("read cache file error: %v", err)
	}
	if string(onDisk) != "x=1" {
		t.Fatalf("file content mismatch: %s", string(onDisk))
	}
}

func TestStorePutOverwrites(t *testing.T) {
	store := newTestStore(t)
	rawURL := "https://example.test/a.mjs"

	if _, err := store.Put(context.Background(), rawURL, []byte("old-and-longer")); err != nil {
		t.Fatalf("put error: %v", err)
	}
	if _, err := store.Put(context.Background(), rawURL, []byte("new")); err != nil {
		t.Fatalf("put error: %v", err)
	}

	body, err := store.Get(context.Background(), rawURL)
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if string(body) != "new" {
		t.Fatalf("expected overwrite, got %s", string(body))
	}

	entries, err := os.ReadDir(store.Dir())
	if err != nil {
		t.Fatalf("read dir error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected a single cache file without temp leftovers, got %d", len(entries))
	}
}

func TestStoreGetMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get(context.Background(), "https://example.test/missing.mjs")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreIgnoresDirectories(t *testing.T) {
	store := newTestStore(t)
	rawURL := "https://example.test/dir"

	filePath, err := store.Path(rawURL)
	if err != nil {
		t.Fatalf("path error: %v", err)
	}
	if err := os.MkdirAll(filePath, 0o755); err != nil {
		t.Fatalf("mkdir error: %v", err)
	}

	if _, err := store.Get(context.Background(), rawURL); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for directory, got %v", err)
	}
}

func TestStorePathLayout(t *testing.T) {
	store := newTestStore(t)

	filePath, err := store.Path("https://unpkg.com/histar@0.4.1/src/index.mjs?v=1 2")
	if err != nil {
		t.Fatalf("path error: %v", err)
	}
	if filepath.Dir(filePath) != store.Dir() {
		t.Fatalf("entry must live directly in the cache dir, got %s", filePath)
	}
	want := "unpkg.com%2Fhistar%400.4.1%2Fsrc%2Findex.mjs%3Fv%3D1%202"
	if filepath.Base(filePath) != want {
		t.Fatalf("unexpected entry name %s", filepath.Base(filePath))
	}
}

func TestEntryNameMatchesNodeQuerystringEscape(t *testing.T) {
	cases := map[string]string{
		"https://cdn.test/a(1)!*'~.mjs":        "cdn.test%2Fa(1)!*'~.mjs",
		"https://cdn.test/a b+c.mjs":           "cdn.test%2Fa%20b%2Bc.mjs",
		"https://cdn.test/ü.mjs":               "cdn.test%2F%C3%BC.mjs",
		"https://cdn.test/x.mjs?a=1&b=%2F#top": "cdn.test%2Fx.mjs%3Fa%3D1%26b%3D%252F%23top",
	}
	for raw, want := range cases {
		got, err := EntryName(raw)
		if err != nil {
			t.Fatalf("EntryName(%q) error: %v", raw, err)
		}
		if got != want {
			t.Fatalf("EntryName(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestEntryNameRejectsInvalidURLs(t *testing.T) {
	for _, raw := range []string{"", "example.test/a.mjs", "https://", "://x", "https://.."} {
		if _, err := EntryName(raw); !errors.Is(err, ErrInvalidURL) {
			t.Fatalf("expected ErrInvalidURL for %q, got %v", raw, err)
		}
	}
}

func TestEntryNameIsSingleSegment(t *testing.T) {
	name, err := EntryName("https://example.test/../../etc/passwd")
	if err != nil {
		t.Fatalf("entry name error: %v", err)
	}
	if strings.ContainsAny(name, `/\`) {
		t.Fatalf("entry name must not contain separators: %s", name)
	}
}

func TestStoreConcurrentPutSameURL(t *testing.T) {
	store := newTestStore(t)
	rawURL := "https://example.test/race.mjs"

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Put(context.Background(), rawURL, []byte("same-bytes")); err != nil {
				t.Errorf("put error: %v", err)
			}
		}()
	}
	wg.Wait()

	body, err := store.Get(context.Background(), rawURL)
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if string(body) != "same-bytes" {
		t.Fatalf("unexpected content after race: %s", string(body))
	}
}

func TestStoreHonoursCanceledContext(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.Put(ctx, "https://example.test/a.mjs", []byte("x")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// newTestStore returns a Store backed by a temporary directory.
func newTestStore(t *testing.T) Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}
