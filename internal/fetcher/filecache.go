package fetcher

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FileCache stores fetched payloads on disk, keyed by name. Freshness is
// judged by file modification time against a caller-supplied TTL, so the
// cache needs no index or metadata of its own.
type FileCache struct {
	dir string
}

// NewFileCache creates the cache directory if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "filecache: mkdir %s", dir)
	}
	return &FileCache{dir: dir}, nil
}

// Path returns the on-disk path for a cache entry.
func (c *FileCache) Path(name string) string {
	return filepath.Join(c.dir, name)
}

// Fresh reports whether the entry exists and is younger than ttl.
func (c *FileCache) Fresh(name string, ttl time.Duration) bool {
	info, err := os.Stat(c.Path(name))
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) < ttl
}

// Read returns the entry's contents.
func (c *FileCache) Read(name string) ([]byte, error) {
	data, err := os.ReadFile(c.Path(name))
	if err != nil {
		return nil, eris.Wrapf(err, "filecache: read %s", name)
	}
	return data, nil
}

// Write stores the entry, replacing any previous contents. The write goes
// through a temp file so a crash cannot leave a half-written entry that
// Fresh would then report as valid.
func (c *FileCache) Write(name string, data []byte) error {
	tmp, err := os.CreateTemp(c.dir, name+".tmp*")
	if err != nil {
		return eris.Wrapf(err, "filecache: temp for %s", name)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return eris.Wrapf(err, "filecache: write %s", name)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return eris.Wrapf(err, "filecache: close %s", name)
	}
	if err := os.Rename(tmp.Name(), c.Path(name)); err != nil {
		os.Remove(tmp.Name())
		return eris.Wrapf(err, "filecache: rename %s", name)
	}
	return nil
}

// Evict removes an entry. Missing entries are not an error.
func (c *FileCache) Evict(name string) error {
	err := os.Remove(c.Path(name))
	if err != nil && !os.IsNotExist(err) {
		return eris.Wrapf(err, "filecache: evict %s", name)
	}
	return nil
}

// Clear removes every entry in the cache directory.
func (c *FileCache) Clear() (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, eris.Wrap(err, "filecache: read dir")
	}
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err != nil {
			zap.L().Warn("filecache: remove entry", zap.String("name", e.Name()), zap.Error(err))
			continue
		}
		removed++
	}
	return removed, nil
}
