package labelstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dans91364-create/NECROZMAv2/internal/contracts"
)

const (
	filePrefix = "labels_"
	fileExt    = ".gob"
)

// FileStore keeps one file per fingerprint under a directory
// ⭐ SSOT: 라벨 캐시 파일 레이아웃 (labels_<fingerprint>.gob)
type FileStore struct {
	dir string
	now func() time.Time
}

// NewFileStore creates a store rooted at dir (created on first write)
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir, now: time.Now}
}

// Dir returns the cache directory
func (s *FileStore) Dir() string {
	return s.dir
}

// Path returns the cache file path for a fingerprint
func (s *FileStore) Path(fingerprint string) string {
	return filepath.Join(s.dir, filePrefix+fingerprint+fileExt)
}

// Load reads the entry for fingerprint
func (s *FileStore) Load(ctx context.Context, fingerprint string) (*contracts.CacheEntry, error) {
	if !contracts.IsValidFingerprint(fingerprint) {
		return nil, fmt.Errorf("%w: %q", contracts.ErrInvalidFingerprint, fingerprint)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return s.readFile(s.Path(fingerprint))
}

// Save writes the entry atomically (temp file + rename)
func (s *FileStore) Save(ctx context.Context, entry *contracts.CacheEntry) error {
	if !contracts.IsValidFingerprint(entry.Fingerprint) {
		return fmt.Errorf("%w: %q", contracts.ErrInvalidFingerprint, entry.Fingerprint)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".labels-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := encode(tmp, entry); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, s.Path(entry.Fingerprint)); err != nil {
		return fmt.Errorf("rename cache file: %w", err)
	}
	return nil
}

// LoadLatest reads the most recently modified cache file
func (s *FileStore) LoadLatest(ctx context.Context) (*contracts.CacheEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	files, err := s.list()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no cache files in %s", contracts.ErrCacheMiss, s.dir)
	}

	latest := files[0]
	for _, f := range files[1:] {
		if f.modTime.After(latest.modTime) {
			latest = f
		}
	}

	return s.readFile(latest.path)
}

// Prune removes cache files whose modification time is older than olderThan
func (s *FileStore) Prune(ctx context.Context, olderThan time.Duration) (int, error) {
	files, err := s.list()
	if err != nil {
		if errors.Is(err, contracts.ErrCacheMiss) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := s.now().Add(-olderThan)
	removed := 0
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if !f.modTime.Before(cutoff) {
			continue
		}
		if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("remove %s: %w", f.path, err)
		}
		removed++
	}

	return removed, nil
}

type cacheFile struct {
	path    string
	modTime time.Time
}

// list returns the label cache files of the directory
func (s *FileStore) list() ([]cacheFile, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: cache directory not found: %s", contracts.ErrCacheMiss, s.dir)
		}
		return nil, fmt.Errorf("read cache dir: %w", err)
	}

	files := make([]cacheFile, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue // removed concurrently
		}
		files = append(files, cacheFile{path: filepath.Join(s.dir, name), modTime: info.ModTime()})
	}
	return files, nil
}

func (s *FileStore) readFile(path string) (*contracts.CacheEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", contracts.ErrCacheMiss, filepath.Base(path))
		}
		return nil, fmt.Errorf("open cache file: %w", err)
	}
	defer f.Close()

	return decode(f)
}
