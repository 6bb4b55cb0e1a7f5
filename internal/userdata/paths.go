package userdata

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/agentx-labs/promptreg/internal/branding"
)

// File names inside the data directory.
const (
	StoreFile       = "promptreg.db"
	LockFile        = "promptreg.lock"
	UpdateCacheFile = "update-check.json"
	EnvFile         = ".env"
)

// Permission constants.
const (
	DirPermSecure  os.FileMode = 0700
	FilePermSecure os.FileMode = 0600
	DirPermNormal  os.FileMode = 0755
)

// DataDir returns the data directory. PROMPTREG_DATA_DIR wins, then the
// configured value, then ~/.promptreg. A leading "~/" is expanded.
func DataDir(configured string) (string, error) {
	if v := os.Getenv(branding.EnvVar("DATA_DIR")); v != "" {
		return expandHome(v)
	}
	if configured != "" {
		return expandHome(configured)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, branding.HomeDir()), nil
}

// StorePath returns the catalog store path inside dataDir.
func StorePath(dataDir string) string {
	return filepath.Join(dataDir, StoreFile)
}

// LockPath returns the writer lock path inside dataDir.
func LockPath(dataDir string) string {
	return filepath.Join(dataDir, LockFile)
}

// CachePath returns the update-check cache path inside dataDir.
func CachePath(dataDir string) string {
	return filepath.Join(dataDir, UpdateCacheFile)
}

// EnsureDataDir creates dataDir with owner-only permissions.
func EnsureDataDir(dataDir string) error {
	if err := os.MkdirAll(dataDir, DirPermSecure); err != nil {
		return fmt.Errorf("creating data directory %s: %w", dataDir, err)
	}
	return nil
}

func expandHome(p string) (string, error) {
	if p != "~" && !hasHomePrefix(p) {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	if p == "~" {
		return home, nil
	}
	return filepath.Join(home, p[2:]), nil
}

func hasHomePrefix(p string) bool {
	return len(p) >= 2 && p[0] == '~' && (p[1] == '/' || p[1] == filepath.Separator)
}
