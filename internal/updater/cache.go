package updater

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultCacheMaxAge is the default maximum age for the update cache.
const DefaultCacheMaxAge = 24 * time.Hour

// CachedUpdate is one available update as remembered in the cache.
type CachedUpdate struct {
	Ref       string `json:"ref"`
	Installed string `json:"installed"`
	Latest    string `json:"latest"`
}

// UpdateCache holds the summary of the last update check.
type UpdateCache struct {
	CheckedAt time.Time      `json:"checked_at"`
	Updates   []CachedUpdate `json:"updates"`
}

// NewCache summarizes the available updates among infos.
func NewCache(infos []UpdateInfo, now time.Time) *UpdateCache {
	cache := &UpdateCache{CheckedAt: now, Updates: []CachedUpdate{}}
	for _, info := range Available(infos) {
		cache.Updates = append(cache.Updates, CachedUpdate{
			Ref:       info.Installation.Ref(),
			Installed: info.Installation.Version,
			Latest:    info.LatestVersion,
		})
	}
	return cache
}

// LoadCache reads the update cache at path.
// Returns nil, nil if the cache file does not exist (first run).
func LoadCache(path string) (*UpdateCache, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading update cache: %w", err)
	}

	var cache UpdateCache
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, fmt.Errorf("parsing update cache: %w", err)
	}
	return &cache, nil
}

// SaveCache writes the update cache to path.
func SaveCache(path string, cache *UpdateCache) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling update cache: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing update cache: %w", err)
	}
	return nil
}

// IsCacheStale returns true if the cache is older than maxAge or nil.
func IsCacheStale(cache *UpdateCache, maxAge time.Duration) bool {
	if cache == nil {
		return true
	}
	return time.Since(cache.CheckedAt) > maxAge
}
