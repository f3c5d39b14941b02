package firmware

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Cache manages downloaded firmware files, one file per asset name.
type Cache struct {
	baseDir string
}

// CacheEntry represents a cached firmware file.
type CacheEntry struct {
	Path       string
	Asset      string
	FileSize   int64
	Downloaded time.Time
}

// DefaultCachePath returns the default cache directory.
func DefaultCachePath() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		// Fallback to home directory
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		cacheDir = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheDir, "irockprog", "firmware"), nil
}

// NewCache creates a cache at the default location.
func NewCache() (*Cache, error) {
	path, err := DefaultCachePath()
	if err != nil {
		return nil, err
	}
	return NewCacheAt(path)
}

// NewCacheAt creates a cache at the specified path.
func NewCacheAt(path string) (*Cache, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{baseDir: path}, nil
}

// Path returns the cache directory path.
func (c *Cache) Path() string {
	return c.baseDir
}

// PathFor returns the stable location of an asset in the cache.
func (c *Cache) PathFor(asset string) (string, error) {
	name := filepath.Base(asset)
	if name != asset || name == "." || name == ".." || name == string(filepath.Separator) {
		return "", fmt.Errorf("invalid asset name %q", asset)
	}
	return filepath.Join(c.baseDir, name), nil
}

// Has reports whether an asset is present in the cache.
func (c *Cache) Has(asset string) bool {
	path, err := c.PathFor(asset)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Store copies src into the cache under the asset name and returns the
// cached path and its SHA-256. The copy goes through a temporary file that
// is renamed into place, so a reader never sees a partial image.
func (c *Cache) Store(asset, src string) (path string, sha256sum string, err error) {
	destPath, err := c.PathFor(asset)
	if err != nil {
		return "", "", err
	}

	in, err := os.Open(src)
	if err != nil {
		return "", "", fmt.Errorf("failed to open downloaded file: %w", err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(c.baseDir, "."+filepath.Base(destPath)+".*.tmp")
	if err != nil {
		return "", "", fmt.Errorf("failed to create cache file: %w", err)
	}
	tmpPath := tmp.Name()

	hasher := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tmp, hasher), in); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", "", fmt.Errorf("failed to copy into cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", "", fmt.Errorf("failed to write cache file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return "", "", fmt.Errorf("failed to finalize cache file: %w", err)
	}

	return destPath, hex.EncodeToString(hasher.Sum(nil)), nil
}

// List returns all cached firmware entries, newest first.
func (c *Cache) List() ([]CacheEntry, error) {
	entries, err := os.ReadDir(c.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var result []CacheEntry
	for _, e := range entries {
		if e.IsDir() || !IsFlashable(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		result = append(result, CacheEntry{
			Path:       filepath.Join(c.baseDir, e.Name()),
			Asset:      e.Name(),
			FileSize:   info.Size(),
			Downloaded: info.ModTime(),
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Downloaded.After(result[j].Downloaded)
	})
	return result, nil
}

// Clear removes all cached firmware files.
func (c *Cache) Clear() error {
	entries, err := c.List()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.Remove(e.Path); err != nil {
			return err
		}
	}
	return nil
}

// Remove removes a specific cached asset.
func (c *Cache) Remove(asset string) error {
	path, err := c.PathFor(asset)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
