package cache

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// FileStore implements a file-based store for CLI usage.
// Each URL is kept in its own JSON file named after the URL hash.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates a file-based store in the given directory.
// The directory will be created if it doesn't exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

// fileEntry is the on-disk form of an Entry.
type fileEntry struct {
	URL      string    `json:"url"`
	Data     string    `json:"data"`
	StoredAt time.Time `json:"stored_at"`
}

// Load implements Store.
func (s *FileStore) Load(ctx context.Context, url string, cutoff time.Time) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(url)
	entry, ok := s.read(path)
	if !ok {
		return nil, nil
	}

	var rows []Entry
	// A hash collision with a different URL is a miss, not a hit.
	if entry.URL == url {
		rows = append(rows, Entry{URL: entry.URL, Payload: entry.Data, StoredAt: entry.StoredAt})
	}
	e, stale, err := pick(url, rows, cutoff)
	if stale {
		_ = os.Remove(path)
		evicted(ctx, s.Name(), entry.StoredAt, cutoff)
	}
	return e, err
}

// Save implements Store. The file is written to a temporary name and
// renamed so readers never observe a partial entry.
func (s *FileStore) Save(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(fileEntry{URL: e.URL, Data: e.Payload, StoredAt: e.StoredAt})
	if err != nil {
		return err
	}

	path := s.path(e.URL)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Delete implements Store.
func (s *FileStore) Delete(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(url))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Purge implements Store.
func (s *FileStore) Purge(ctx context.Context, cutoff time.Time) (int, error) {
	return s.removeIf(func(path string) bool {
		entry, ok := s.read(path)
		return !ok || entry.StoredAt.Before(cutoff)
	})
}

// Clear implements Store.
func (s *FileStore) Clear(ctx context.Context) (int, error) {
	return s.removeIf(func(string) bool { return true })
}

// Dir returns the cache directory.
func (s *FileStore) Dir() string { return s.dir }

// Name implements Store.
func (s *FileStore) Name() string { return "file" }

// Close does nothing for file store.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) removeIf(match func(path string) bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		if match(path) {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}

// read loads the entry at path. Unreadable or invalid files are removed and
// reported as absent.
func (s *FileStore) read(path string) (fileEntry, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileEntry{}, false
	}
	var entry fileEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Invalid cache entry - treat as miss
		_ = os.Remove(path)
		return fileEntry{}, false
	}
	return entry, true
}

// path converts a URL to a file path.
// Uses a simple hash-based directory structure to avoid too many files in one dir.
func (s *FileStore) path(url string) string {
	hash := Hash([]byte(url))
	// Use first 2 chars as subdirectory for distribution
	subdir := hash[:2]
	filename := hash[2:] + ".json"
	return filepath.Join(s.dir, subdir, filename)
}

// Ensure FileStore implements Store.
var _ Store = (*FileStore)(nil)
