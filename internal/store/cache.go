package store

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"FuturesLens/internal/model"
)

// ErrNotCached is returned by Load when no file exists for a code.
var ErrNotCached = errors.New("no cached series")

// FileCache keeps the latest combined series of each symbol as <dir>/<CODE>.csv.
type FileCache struct {
	Dir string
}

// NewFileCache creates a cache rooted at dir.
func NewFileCache(dir string) *FileCache {
	return &FileCache{Dir: dir}
}

// Path returns the cache file for an already normalised code.
func (c *FileCache) Path(code string) string {
	return filepath.Join(c.Dir, filepath.Base(code)+".csv")
}

// Save overwrites the file of series.Symbol. The new content is written to a
// temporary file in the same directory and renamed over the old one.
func (c *FileCache) Save(series *model.PriceSeries) (string, error) {
	if series == nil || series.Symbol == "" {
		return "", fmt.Errorf("cache save: series has no symbol")
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return "", fmt.Errorf("cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(c.Dir, "."+series.Symbol+"-*.csv")
	if err != nil {
		return "", fmt.Errorf("cache temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	w := bufio.NewWriter(tmp)
	if err := WriteCSV(w, series.Bars); err != nil {
		tmp.Close()
		return "", fmt.Errorf("cache write %s: %w", series.Symbol, err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return "", fmt.Errorf("cache flush %s: %w", series.Symbol, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("cache close %s: %w", series.Symbol, err)
	}

	path := c.Path(series.Symbol)
	if err := os.Rename(tmpName, path); err != nil {
		return "", fmt.Errorf("cache rename %s: %w", series.Symbol, err)
	}
	return path, nil
}

// Load reads the cached series of code.
func (c *FileCache) Load(code string) (*model.PriceSeries, error) {
	f, err := os.Open(c.Path(code))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotCached, code)
	}
	if err != nil {
		return nil, fmt.Errorf("cache open %s: %w", code, err)
	}
	defer f.Close()

	bars, err := ReadCSV(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("cache read %s: %w", code, err)
	}
	return &model.PriceSeries{Symbol: code, Bars: bars}, nil
}
